// Package sse writes server-sent event streams with periodic keep-alive
// comments.
package sse

import (
	"log/slog"
	"time"
)

// DefaultKeepAlive is short enough for common proxy idle timeouts.
const DefaultKeepAlive = 10 * time.Second

// KeepAliveWriter writes one keep-alive message.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// TickerKeepAlive pings at a fixed interval until stopped or a write fails.
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
}

// NewTickerKeepAlive returns a stopped keep-alive. A non-positive interval
// uses DefaultKeepAlive.
func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAlive
	}
	return &TickerKeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start pings w in a goroutine. The returned channel closes when pinging ends.
func (k *TickerKeepAlive) Start(w KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	stopped := make(chan struct{})
	ticker := time.NewTicker(k.interval)

	go func() {
		defer close(stopped)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()
	return stopped
}

// Stop ends pinging. Safe to call more than once.
func (k *TickerKeepAlive) Stop() {
	select {
	case <-k.done:
	default:
		close(k.done)
	}
}
