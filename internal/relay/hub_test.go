package relay

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type published struct {
	event   string
	payload string
}

type fakeMirror struct {
	mu   sync.Mutex
	got  []published
	fail error
}

func (m *fakeMirror) Publish(event string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, published{event, string(payload)})
	return m.fail
}

func (m *fakeMirror) events() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.got...)
}

// gatedMirror blocks every publish until gate is closed.
type gatedMirror struct {
	fakeMirror
	gate chan struct{}
}

func (m *gatedMirror) Publish(event string, payload []byte) error {
	<-m.gate
	return m.fakeMirror.Publish(event, payload)
}

var _ = Describe("Hub", func() {
	var hub *Hub

	BeforeEach(func() {
		hub = NewHub()
	})

	It("fans a broadcast out to every client", func() {
		a, err := hub.Register()
		Expect(err).NotTo(HaveOccurred())
		b, err := hub.Register()
		Expect(err).NotTo(HaveOccurred())
		Expect(a.ID).NotTo(Equal(b.ID))

		Expect(hub.Broadcast("e", []byte("hello"))).To(Succeed())
		Eventually(a.Send()).Should(Receive(Equal([]byte("hello"))))
		Eventually(b.Send()).Should(Receive(Equal([]byte("hello"))))
	})

	It("drops for a full client without blocking the others", func() {
		slow, _ := hub.Register()
		fast, _ := hub.Register()

		for i := 0; i < clientBuffer+3; i++ {
			Expect(hub.Broadcast("e", []byte{byte(i)})).To(Succeed())
			Eventually(fast.Send()).Should(Receive())
		}

		stats := hub.Stats()
		Expect(stats.Clients).To(Equal(2))
		Expect(stats.Broadcasts).To(BeEquivalentTo(clientBuffer + 3))
		Expect(stats.Dropped[slow.ID]).To(BeEquivalentTo(3))
		Expect(stats.Dropped[fast.ID]).To(BeZero())
		Expect(slow.Send()).To(HaveLen(clientBuffer))
	})

	It("closes the channel of an unregistered client", func() {
		c, _ := hub.Register()
		hub.Unregister(c)
		hub.Unregister(c)
		Expect(c.Send()).To(BeClosed())
		Expect(hub.Stats().Clients).To(BeZero())
	})

	It("refuses work once closed", func() {
		c, _ := hub.Register()
		hub.Close()

		Expect(c.Send()).To(BeClosed())
		Expect(hub.Broadcast("e", nil)).To(MatchError(ErrHubClosed))
		_, err := hub.Register()
		Expect(err).To(MatchError(ErrHubClosed))
	})

	It("mirrors every broadcast and tolerates mirror failures", func() {
		ok := &fakeMirror{}
		broken := &fakeMirror{fail: errors.New("offline")}
		hub = NewHub(broken, ok)

		Expect(hub.Broadcast(EventRefreshData, []byte(`{"event":"refresh_data"}`))).To(Succeed())
		Eventually(ok.events).Should(Equal([]published{{EventRefreshData, `{"event":"refresh_data"}`}}))
		Eventually(broken.events).Should(HaveLen(1))
	})

	It("does not wait on a stalled mirror", func() {
		release := make(chan struct{})
		stalled := &gatedMirror{gate: release}
		hub = NewHub(stalled)
		c, _ := hub.Register()
		DeferCleanup(func() { hub.Close() })

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			for i := 0; i < mirrorBuffer+5; i++ {
				Expect(hub.Broadcast("e", []byte{byte(i)})).To(Succeed())
			}
		}()
		Eventually(done).Should(BeClosed())
		Eventually(c.Send()).Should(Receive(Equal([]byte{0})))
		Expect(hub.Stats().MirrorDropped).To(BeNumerically(">=", 4))

		close(release)
		Eventually(stalled.events).Should(HaveLen(int(hub.Stats().Broadcasts - hub.Stats().MirrorDropped)))
		got := stalled.events()
		for i := range got {
			Expect(got[i].payload).To(Equal(string([]byte{byte(i)})))
		}
	})
})
