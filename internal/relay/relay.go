package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iburimskiy/gridscan/internal/config"
)

// Run wires a source, the store, the hub and the server from cfg and serves
// until ctx is cancelled. Without a spreadsheet id the relay starts on an
// empty in-memory sheet.
func Run(ctx context.Context, cfg *config.Relay) error {
	src, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}

	var mirrors []Mirror
	if cfg.MQTTBroker != "" {
		m := NewMQTTMirror(cfg.MQTTBroker, cfg.MQTTTopic)
		if err := m.Connect(ctx); err != nil {
			// the client keeps retrying in the background
			slog.Warn("relay: mqtt mirror not connected yet", "error", err)
		}
		defer m.Close()
		mirrors = append(mirrors, m)
	}

	store := NewStore()
	hub := NewHub(mirrors...)
	srv := NewServer(store, hub, cfg.PublicDir)
	poller := NewPoller(src, store, cfg.PollInterval, func() {
		if err := srv.BroadcastLists(); err != nil {
			slog.Warn("relay: broadcast after poll failed", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	err = srv.Serve(ctx, cfg.Addr)
	cancel()
	wg.Wait()
	return err
}

func newSource(ctx context.Context, cfg *config.Relay) (RowSource, error) {
	if cfg.SpreadsheetID == "" {
		slog.Warn("relay: no spreadsheet configured, serving an empty sheet")
		return NewStaticSource(), nil
	}
	creds, err := cfg.CredentialsJSON()
	if err != nil {
		return nil, fmt.Errorf("relay: credentials: %w", err)
	}
	return NewSheetsSource(ctx, cfg.SpreadsheetID, creds)
}
