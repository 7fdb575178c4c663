package relay

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func ids(qs []Question) []int {
	out := make([]int, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

var _ = Describe("Store", func() {
	var store *Store

	BeforeEach(func() {
		store = NewStore()
	})

	Describe("Merge", func() {
		It("appends only rows past the known ones", func() {
			Expect(store.Merge([]Row{{"Ada", "Why?"}, {"Lin", "How?"}})).To(Equal(2))
			Expect(store.Merge([]Row{{"changed", "ignored"}, {"Lin", "How?"}, {"Bo", "When?"}})).To(Equal(1))

			q, ok := store.Get(0)
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(Question{ID: 0, Name: "Ada", Question: "Why?", Status: StatusPending}))

			q, ok = store.Get(2)
			Expect(ok).To(BeTrue())
			Expect(q.Name).To(Equal("Bo"))
			Expect(q.Status).To(Equal(StatusPending))
		})

		It("ignores a sheet that shrank", func() {
			store.Merge([]Row{{"a", "1"}, {"b", "2"}})
			Expect(store.Merge([]Row{{"a", "1"}})).To(BeZero())
			Expect(store.Len()).To(Equal(2))
		})
	})

	Describe("status transitions", func() {
		BeforeEach(func() {
			store.Merge([]Row{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}})
		})

		It("partitions pending and approved", func() {
			Expect(store.Approve(1)).To(Succeed())
			Expect(store.Decline(2)).To(Succeed())
			_, err := store.Project(3)
			Expect(err).NotTo(HaveOccurred())

			l := store.Lists()
			Expect(ids(l.Pending)).To(Equal([]int{0}))
			Expect(ids(l.Approved)).To(Equal([]int{1}))
		})

		It("returns the question as it was before projecting", func() {
			Expect(store.Approve(0)).To(Succeed())

			q, err := store.Project(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(q.Status).To(Equal(StatusApproved))

			now, _ := store.Get(0)
			Expect(now.Status).To(Equal(StatusProjected))
		})

		It("lets a declined question be approved again", func() {
			Expect(store.Decline(0)).To(Succeed())
			Expect(store.Approve(0)).To(Succeed())
			Expect(ids(store.Lists().Approved)).To(Equal([]int{0}))
		})

		It("rejects unknown ids without touching the store", func() {
			before := store.Lists()
			Expect(store.Approve(99)).To(MatchError(ErrUnknownQuestion))
			Expect(store.Decline(-1)).To(MatchError(ErrUnknownQuestion))
			_, err := store.Project(4)
			Expect(err).To(MatchError(ErrUnknownQuestion))
			Expect(store.Lists()).To(Equal(before))
		})
	})

	It("reports empty lists rather than nil", func() {
		l := store.Lists()
		Expect(l.Pending).NotTo(BeNil())
		Expect(l.Approved).NotTo(BeNil())
	})
})
