package viewer

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(samplePresentation(), ServerOptions{
		Logger:         quiet,
		AllowedOrigins: []string{"http://localhost:3000"},
		KeepAlive:      20 * time.Millisecond,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeState(t *testing.T, resp *http.Response) StateResponse {
	t.Helper()
	var st StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestServerRoutes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"page", "/", http.StatusOK, "text/html; charset=utf-8", "<title>SlideGenie preview</title>"},
		{"deck info", "/api/deck", http.StatusOK, "application/json", `"total":5`},
		{"deck markup", "/api/deck.xml", http.StatusOK, "application/xml", "<deck>"},
		{"slide svg", "/slides/1.svg", http.StatusOK, "image/svg+xml", "Contributions"},
		{"slide text", "/slides/1/text?notes=true", http.StatusOK, "text/markdown; charset=utf-8", "Spend two minutes"},
		{"slide out of range", "/slides/5.svg", http.StatusNotFound, "application/problem+json", "not found"},
		{"slide not a number", "/slides/abc.svg", http.StatusNotFound, "application/problem+json", "not found"},
		{"unknown extension", "/slides/1.png", http.StatusNotFound, "application/problem+json", "unknown slide resource"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))
			assert.Contains(t, string(body), tt.wantContain)
		})
	}
}

func TestServerKeyAndGoTo(t *testing.T) {
	srv, ts := newTestServer(t)

	st := decodeState(t, postJSON(t, ts.URL+"/api/key", `{"key":"ArrowRight"}`))
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, "Spend two minutes on the architecture diagram.", st.Panel.Notes.Text)
	assert.Equal(t, 7, st.Panel.Notes.Words)

	resp := postJSON(t, ts.URL+"/api/key", `{"key":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv.Navigator().ToggleGrid()
	st = decodeState(t, postJSON(t, ts.URL+"/api/goto", `{"index":3}`))
	assert.Equal(t, 3, st.Index)
	assert.False(t, st.Grid)

	resp = postJSON(t, ts.URL+"/api/goto", `{"index":42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/goto", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerSpaceTogglesTimerInPresenterView(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Navigator().TogglePresenter()

	st := decodeState(t, postJSON(t, ts.URL+"/api/key", `{"key":" "}`))
	assert.Equal(t, 0, st.Index, "space does not advance while presenting")
	assert.True(t, st.Running)

	st = decodeState(t, postJSON(t, ts.URL+"/api/timer?reset=true", ``))
	assert.False(t, st.Running)
	assert.Equal(t, "00:00", st.Timer)
}

func TestServerCORS(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerEventStream(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() StateResponse {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var st StateResponse
				require.NoError(t, json.Unmarshal([]byte(data), &st))
				return st
			}
		}
	}

	assert.Equal(t, 0, next().Index)
	srv.Navigator().Last()
	assert.Equal(t, 4, next().Index)

	// keep-alive comments interleave with events
	var sawKeepAlive bool
	for !sawKeepAlive {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		sawKeepAlive = line == ": keepalive\n"
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(samplePresentation(), ServerOptions{Logger: quiet})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0", func(a net.Addr) { addrs <- a })
	}()

	addr := <-addrs
	resp, err := http.Get("http://" + addr.String() + "/api/deck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
