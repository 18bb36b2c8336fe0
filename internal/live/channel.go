// Package live maintains the push connection that streams generation
// progress events, reconnecting with linear backoff when it drops.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"slidegenie/internal/config"
	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/schedule"
)

// Handlers are invoked outside the channel's lock, from the goroutine that
// observed the event. Any of them may be nil.
type Handlers struct {
	OnMessage func(models.GenerationProgress)
	OnError   func(error)
	OnOpen    func()
	OnClose   func()
}

// Options configures a Channel. Zero values pick defaults.
type Options struct {
	Dialer      Dialer
	Scheduler   schedule.Scheduler
	Logger      *slog.Logger
	BaseDelay   time.Duration
	MaxAttempts int
	DialTimeout time.Duration
}

// Channel holds at most one live connection. After a close or failed dial it
// schedules a reconnect BaseDelay*attempt later, up to MaxAttempts times in a
// row; a successful open resets the count.
type Channel struct {
	url      string
	handlers Handlers
	dialer   Dialer
	sched    schedule.Scheduler
	logger   *slog.Logger

	baseDelay   time.Duration
	maxAttempts int
	dialTimeout time.Duration

	mu        sync.Mutex
	conn      Conn
	connID    uint64
	connected bool
	attempts  int
	pending   schedule.Timer
	stopped   bool
	last      *models.GenerationProgress

	writeMu sync.Mutex
}

// New returns an idle Channel for url. Call Connect to open it.
func New(url string, h Handlers, opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = config.DefaultReconnectDelay
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	} else if opts.MaxAttempts == 0 {
		opts.MaxAttempts = config.DefaultReconnectAttempts
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = handshakeTimeout
	}
	return &Channel{
		url:         url,
		handlers:    h,
		dialer:      opts.Dialer,
		sched:       schedule.OrSystem(opts.Scheduler),
		logger:      opts.Logger.With("endpoint", url),
		baseDelay:   opts.BaseDelay,
		maxAttempts: opts.MaxAttempts,
		dialTimeout: opts.DialTimeout,
	}
}

// Connect dials the endpoint. A failed dial is treated like a close: it is
// reported through OnError/OnClose and a reconnect is scheduled.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.stopped = false
	c.mu.Unlock()
	return c.dial(ctx)
}

// IsConnected reports whether a connection is open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// LastMessage returns the most recent well-formed event, if any.
func (c *Channel) LastMessage() (models.GenerationProgress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return models.GenerationProgress{}, false
	}
	return *c.last, true
}

// SendMessage writes v as a JSON text frame.
func (c *Channel) SendMessage(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return domain.ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Disconnect cancels any pending reconnect and closes the connection. It is
// safe to call more than once.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.stopped = true
	c.clearPendingLocked()
	conn := c.conn
	wasConnected := c.connected
	c.conn = nil
	c.connected = false
	// invalidate the read loop of the connection being closed
	c.connID++
	c.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		c.logger.Debug("close connection", "error", err)
	}
	if wasConnected && c.handlers.OnClose != nil {
		c.handlers.OnClose()
	}
}

// Reconnect drops the current connection and dials again with a fresh
// attempt budget.
func (c *Channel) Reconnect(ctx context.Context) error {
	c.Disconnect()
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	return c.Connect(ctx)
}

func (c *Channel) dial(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}
	c.clearPendingLocked()
	prev := c.conn
	c.conn = nil
	c.connected = false
	c.connID++
	id := c.connID
	c.mu.Unlock()

	// one logical connection: the old handle goes before the new one is opened
	if prev != nil {
		prev.Close()
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	conn, err := c.dialer.Dial(dialCtx, c.url)
	cancel()

	c.mu.Lock()
	if id != c.connID || c.stopped {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return domain.ErrNotConnected
	}
	if err != nil {
		c.mu.Unlock()
		c.handleClose(id, err)
		return err
	}
	c.conn = conn
	c.connected = true
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("live channel open")
	if c.handlers.OnOpen != nil {
		c.handlers.OnOpen()
	}
	go c.readLoop(conn, id)
	return nil
}

func (c *Channel) readLoop(conn Conn, id uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(id, err)
			return
		}

		var msg models.GenerationProgress
		if err := json.Unmarshal(data, &msg); err != nil || !msg.Stage.Valid() {
			c.logger.Warn("dropping malformed progress frame", "error", err, "bytes", len(data))
			continue
		}

		c.mu.Lock()
		stale := id != c.connID
		if !stale {
			c.last = &msg
		}
		c.mu.Unlock()
		if stale {
			return
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}
	}
}

// handleClose runs once per connection (or failed dial) identified by id.
func (c *Channel) handleClose(id uint64, cause error) {
	c.mu.Lock()
	if id != c.connID {
		c.mu.Unlock()
		return
	}
	// bump so a late duplicate for the same connection is ignored
	c.connID++
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.connected = false

	scheduled := time.Duration(0)
	if !c.stopped && c.attempts < c.maxAttempts {
		c.attempts++
		scheduled = c.baseDelay * time.Duration(c.attempts)
		c.clearPendingLocked()
		c.pending = c.sched.AfterFunc(scheduled, c.reconnectFired)
	}
	attempt := c.attempts
	c.mu.Unlock()

	if scheduled > 0 {
		c.logger.Warn("live channel closed, reconnecting", "error", cause, "attempt", attempt, "delay", scheduled)
	} else {
		c.logger.Warn("live channel closed", "error", cause, "attempts", attempt)
	}
	if cause != nil && !normalClose(cause) && c.handlers.OnError != nil {
		c.handlers.OnError(cause)
	}
	if c.handlers.OnClose != nil {
		c.handlers.OnClose()
	}
}

func (c *Channel) reconnectFired() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	if err := c.dial(context.Background()); err != nil {
		c.logger.Debug("reconnect attempt failed", "error", err)
	}
}

func (c *Channel) clearPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
