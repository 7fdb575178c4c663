package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Server serves the static screens and the /ws endpoint. Moderation
// commands from any client are applied to the store and the new lists are
// broadcast to everyone.
type Server struct {
	store    *Store
	hub      *Hub
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	// mu orders mutate-then-broadcast sequences so no client sees lists
	// older than the last change.
	mu sync.Mutex
}

func NewServer(store *Store, hub *Hub, publicDir string) *Server {
	s := &Server{
		store: store,
		hub:   hub,
		mux:   http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc("/ws", s.handleWS)
	if publicDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(publicDir)))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// BroadcastLists sends refresh_data with the current pending and approved
// questions to every client.
func (s *Server) BroadcastLists() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcastLists()
}

func (s *Server) broadcastLists() error {
	return s.broadcast(EventRefreshData, s.store.Lists())
}

// Serve listens on addr until ctx is cancelled, then closes the hub and
// shuts the listener down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	slog.Info("relay: server running", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("relay: websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client, err := s.hub.Register()
	if err != nil {
		conn.Close()
		return
	}

	go s.writePump(conn, client)

	// Every new connection refreshes every screen.
	if err := s.BroadcastLists(); err != nil {
		slog.Warn("relay: broadcast on connect failed", "error", err)
	}
	s.readPump(conn, client)
}

func (s *Server) readPump(conn *websocket.Conn, client *Client) {
	defer s.hub.Unregister(client)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("relay: websocket read failed", "client_id", client.ID, "error", err)
			}
			return
		}
		s.handleMessage(client.ID, msg)
	}
}

func (s *Server) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one moderation command. Malformed frames and
// unknown ids are ignored.
func (s *Server) handleMessage(clientID string, msg []byte) {
	env, err := Decode(msg)
	if err != nil {
		slog.Debug("relay: bad frame", "client_id", clientID, "error", err)
		return
	}
	var id int
	if err := json.Unmarshal(env.Data, &id); err != nil {
		slog.Debug("relay: bad question id", "client_id", clientID, "event", env.Event, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Event {
	case EventApprove:
		err = s.store.Approve(id)
	case EventDecline:
		err = s.store.Decline(id)
	case EventProject:
		var q Question
		if q, err = s.store.Project(id); err == nil {
			slog.Info("relay: projecting", "id", q.ID, "question", q.Question)
			err = s.broadcast(EventProjectLive, q)
		}
	default:
		slog.Debug("relay: unknown event", "client_id", clientID, "event", env.Event)
		return
	}
	if err != nil {
		slog.Debug("relay: command ignored", "event", env.Event, "id", id, "error", err)
		return
	}
	if err := s.broadcastLists(); err != nil {
		slog.Warn("relay: broadcast failed", "error", err)
	}
}

func (s *Server) broadcast(event string, data any) error {
	msg, err := Encode(event, data)
	if err != nil {
		return err
	}
	return s.hub.Broadcast(event, msg)
}
