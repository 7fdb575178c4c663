package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		store *Store
		hub   *Hub
		srv   *Server
		ts    *httptest.Server
		wsURL string
	)

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { conn.Close() })
		return conn
	}

	next := func(conn *websocket.Conn) Envelope {
		GinkgoHelper()
		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		_, msg, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		env, err := Decode(msg)
		Expect(err).NotTo(HaveOccurred())
		return env
	}

	nextLists := func(conn *websocket.Conn) Lists {
		GinkgoHelper()
		env := next(conn)
		Expect(env.Event).To(Equal(EventRefreshData))
		var l Lists
		Expect(json.Unmarshal(env.Data, &l)).To(Succeed())
		return l
	}

	send := func(conn *websocket.Conn, event string, id int) {
		GinkgoHelper()
		msg, err := Encode(event, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(conn.WriteMessage(websocket.TextMessage, msg)).To(Succeed())
	}

	BeforeEach(func() {
		public := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(public, "index.html"), []byte("<h1>screen</h1>"), 0o644)).To(Succeed())

		store = NewStore()
		store.Merge([]Row{{"Ada", "Why?"}, {"Lin", "How?"}})
		hub = NewHub()
		srv = NewServer(store, hub, public)
		ts = httptest.NewServer(srv.Handler())
		wsURL = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

		DeferCleanup(func() {
			hub.Close()
			ts.Close()
		})
	})

	It("sends the lists to a new connection", func() {
		conn := dial()
		l := nextLists(conn)
		Expect(ids(l.Pending)).To(Equal([]int{0, 1}))
		Expect(l.Approved).To(BeEmpty())
	})

	It("refreshes existing screens when another one connects", func() {
		first := dial()
		nextLists(first)

		dial()
		Expect(ids(nextLists(first).Pending)).To(Equal([]int{0, 1}))
	})

	It("broadcasts approvals to every screen", func() {
		admin := dial()
		nextLists(admin)
		screen := dial()
		nextLists(screen)
		nextLists(admin)

		send(admin, EventApprove, 0)

		for _, conn := range []*websocket.Conn{admin, screen} {
			l := nextLists(conn)
			Expect(ids(l.Pending)).To(Equal([]int{1}))
			Expect(ids(l.Approved)).To(Equal([]int{0}))
		}
	})

	It("sends project_live before the refreshed lists", func() {
		conn := dial()
		nextLists(conn)

		send(conn, EventProject, 1)

		env := next(conn)
		Expect(env.Event).To(Equal(EventProjectLive))
		var q Question
		Expect(json.Unmarshal(env.Data, &q)).To(Succeed())
		Expect(q).To(Equal(Question{ID: 1, Name: "Lin", Question: "How?", Status: StatusPending}))

		l := nextLists(conn)
		Expect(ids(l.Pending)).To(Equal([]int{0}))
		Expect(l.Approved).To(BeEmpty())
	})

	It("ignores unknown ids and malformed frames", func() {
		conn := dial()
		nextLists(conn)

		send(conn, EventApprove, 99)
		Expect(conn.WriteMessage(websocket.TextMessage, []byte("not json"))).To(Succeed())
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"admin_approve","data":"zero"}`))).To(Succeed())
		send(conn, EventDecline, 0)

		l := nextLists(conn)
		Expect(ids(l.Pending)).To(Equal([]int{1}))
		Expect(l.Approved).To(BeEmpty())
	})

	It("pushes rows found by the poller", func() {
		conn := dial()
		nextLists(conn)

		store.Merge([]Row{{"Ada", "Why?"}, {"Lin", "How?"}, {"Bo", "When?"}})
		Expect(srv.BroadcastLists()).To(Succeed())

		Expect(ids(nextLists(conn).Pending)).To(Equal([]int{0, 1, 2}))
	})

	It("serves the public directory", func() {
		resp, err := http.Get(ts.URL + "/index.html")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("screen"))
	})

	It("closes client connections when the hub closes", func() {
		conn := dial()
		nextLists(conn)

		hub.Close()
		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		_, _, err := conn.ReadMessage()
		Expect(websocket.IsCloseError(err, websocket.CloseNoStatusReceived)).To(BeTrue(), "got %v", err)
	})
})
