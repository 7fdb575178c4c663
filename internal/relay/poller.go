package relay

import (
	"context"
	"log/slog"
	"time"
)

// Poller checks the source on a fixed interval and merges new rows into the
// store. onChange runs after every poll that added rows.
type Poller struct {
	src      RowSource
	store    *Store
	interval time.Duration
	onChange func()
}

func NewPoller(src RowSource, store *Store, interval time.Duration, onChange func()) *Poller {
	if onChange == nil {
		onChange = func() {}
	}
	return &Poller{src: src, store: store, interval: interval, onChange: onChange}
}

// Poll runs one check and returns the number of rows added.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	rows, err := p.src.Rows(ctx)
	if err != nil {
		return 0, err
	}
	added := p.store.Merge(rows)
	if added > 0 {
		p.onChange()
	}
	return added, nil
}

// Run polls until ctx is cancelled. The first check happens one interval
// after start. Failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("relay: poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("relay: poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("relay: sheet poll failed", "error", err)
			}
		}
	}
}
