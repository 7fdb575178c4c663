package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Poller", func() {
	var (
		src     *StaticSource
		store   *Store
		changes atomic.Int32
		poller  *Poller
	)

	BeforeEach(func() {
		src = NewStaticSource(Row{"a", "1"})
		store = NewStore()
		changes.Store(0)
		poller = NewPoller(src, store, 10*time.Millisecond, func() { changes.Add(1) })
	})

	It("notifies only when rows were added", func() {
		n, err := poller.Poll(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(changes.Load()).To(BeEquivalentTo(1))

		n, err = poller.Poll(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		Expect(changes.Load()).To(BeEquivalentTo(1))
	})

	It("leaves the store alone when the source fails", func() {
		src.Fail(errors.New("sheet error"))
		_, err := poller.Poll(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(store.Len()).To(BeZero())
		Expect(changes.Load()).To(BeZero())
	})

	It("keeps polling through failures until cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			poller.Run(ctx)
		}()

		Eventually(store.Len).Should(Equal(1))

		src.Fail(errors.New("sheet error"))
		src.Append(Row{"b", "2"})
		Consistently(store.Len, 50*time.Millisecond).Should(Equal(1))

		src.Fail(nil)
		Eventually(store.Len).Should(Equal(2))
		Expect(changes.Load()).To(BeEquivalentTo(2))

		cancel()
		Eventually(done).Should(BeClosed())
	})
})
