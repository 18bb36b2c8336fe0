package sse

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWriter struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingWriter) WriteKeepAlive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return io.ErrClosedPipe
	}
	return nil
}

func (c *countingWriter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestTickerKeepAlivePingsUntilStopped(t *testing.T) {
	w := &countingWriter{}
	k := NewTickerKeepAlive(5 * time.Millisecond)
	stopped := k.Start(w, quiet)

	require.Eventually(t, func() bool { return w.count() >= 2 }, time.Second, time.Millisecond)
	k.Stop()
	k.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop")
	}
}

func TestTickerKeepAliveStopsOnWriteError(t *testing.T) {
	w := &countingWriter{fail: true}
	stopped := NewTickerKeepAlive(time.Millisecond).Start(w, quiet)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive kept running after a failed write")
	}
	assert.Equal(t, 1, w.count())
}

func TestWriterFormatsEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.Event("state", []byte(`{"index":1}`)))
	require.NoError(t, w.Event("", []byte("a\nb")))
	require.NoError(t, w.WriteKeepAlive())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: state\ndata: {\"index\":1}\n\n"))
	assert.Contains(t, body, "data: a\ndata: b\n\n")
	assert.True(t, strings.HasSuffix(body, ": keepalive\n\n"))
}

type plainWriter struct{ http.ResponseWriter }

func TestWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(plainWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
