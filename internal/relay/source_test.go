package relay

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("rowsFromValues", func() {
	It("finds columns by header title", func() {
		rows, err := rowsFromValues([][]any{
			{"Timestamp", "Question", "Name"},
			{"t1", "Why?", "Ada"},
			{"t2", "How?"},
			{},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal([]Row{
			{Name: "Ada", Question: "Why?"},
			{Name: "", Question: "How?"},
			{},
		}))
	})

	It("treats an empty grid as no rows", func() {
		rows, err := rowsFromValues(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(BeEmpty())
	})

	It("fails when a column is missing", func() {
		_, err := rowsFromValues([][]any{{"Name", "Comment"}})
		Expect(err).To(MatchError(ErrMissingColumn))
		Expect(err.Error()).To(ContainSubstring("Question"))
	})
})

var _ = Describe("quoteSheet", func() {
	It("escapes single quotes", func() {
		Expect(quoteSheet("Form Responses 1")).To(Equal("'Form Responses 1'"))
		Expect(quoteSheet("Bob's")).To(Equal("'Bob''s'"))
	})
})

var _ = Describe("StaticSource", func() {
	It("returns a copy of its rows", func() {
		src := NewStaticSource(Row{"a", "1"})
		rows, err := src.Rows(context.Background())
		Expect(err).NotTo(HaveOccurred())
		rows[0].Name = "mutated"

		again, _ := src.Rows(context.Background())
		Expect(again[0].Name).To(Equal("a"))
	})

	It("fails until cleared", func() {
		src := NewStaticSource()
		boom := errors.New("boom")
		src.Fail(boom)
		_, err := src.Rows(context.Background())
		Expect(err).To(MatchError(boom))

		src.Fail(nil)
		_, err = src.Rows(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})
})
