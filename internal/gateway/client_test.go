package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newClient(t *testing.T, h http.Handler, tokens Tokens) (*Client, *MemoryTokens, *atomic.Int32) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := &MemoryTokens{}
	require.NoError(t, store.UpdateTokens(tokens))
	var unauthorized atomic.Int32
	c := New(srv.URL, Options{
		Tokens:         store,
		Logger:         quiet,
		PollInterval:   time.Millisecond,
		OnUnauthorized: func() { unauthorized.Add(1) },
	})
	return c, store, &unauthorized
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// authServer accepts "Bearer <valid>" and issues "fresh" on refresh.
type authServer struct {
	valid       atomic.Value
	refreshes   atomic.Int32
	failRefresh bool
	// refreshDelay replaces the default pause before a refresh answers.
	refreshDelay time.Duration
}

func newAuthServer(valid string) *authServer {
	s := &authServer{}
	s.valid.Store(valid)
	return s
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/auth/refresh" {
		s.refreshes.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if s.failRefresh || body.RefreshToken != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh token expired"})
			return
		}
		// give concurrent callers time to pile up on the same refresh
		delay := 20 * time.Millisecond
		if s.refreshDelay > 0 {
			delay = s.refreshDelay
		}
		time.Sleep(delay)
		s.valid.Store("fresh")
		writeJSON(w, http.StatusOK, map[string]string{"token": "fresh"})
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+s.valid.Load().(string) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presentation": map[string]any{"id": "p1", "title": "Deck", "status": "draft", "slides": []any{}}})
}

func TestRefreshAndRetryOnce(t *testing.T) {
	srv := newAuthServer("current")
	c, store, unauthorized := newClient(t, srv, Tokens{Access: "stale", Refresh: "r1"})

	p, err := c.GetPresentation(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Deck", p.Title)
	assert.Equal(t, int32(1), srv.refreshes.Load())
	assert.Equal(t, Tokens{Access: "fresh", Refresh: "r1"}, store.Tokens())
	assert.Equal(t, int32(0), unauthorized.Load())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := newAuthServer("current")
	c, _, _ := newClient(t, srv, Tokens{Access: "stale", Refresh: "r1"})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetPresentation(context.Background(), "p1")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), srv.refreshes.Load())
}

func TestCancelledRefreshKeepsSession(t *testing.T) {
	srv := newAuthServer("current")
	srv.refreshDelay = 200 * time.Millisecond
	c, store, unauthorized := newClient(t, srv, Tokens{Access: "stale", Refresh: "r1"})

	var wg sync.WaitGroup
	var patientErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, patientErr = c.GetPresentation(context.Background(), "p1")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetPresentation(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, "r1", store.Tokens().Refresh)
	assert.Equal(t, int32(0), unauthorized.Load())

	// the shared refresh finishes for callers still waiting
	wg.Wait()
	assert.NoError(t, patientErr)
	assert.Equal(t, Tokens{Access: "fresh", Refresh: "r1"}, store.Tokens())
	assert.Equal(t, int32(1), srv.refreshes.Load())
	assert.Equal(t, int32(0), unauthorized.Load())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	tests := []struct {
		name   string
		tokens Tokens
		fail   bool
		calls  int32
	}{
		{"refresh rejected", Tokens{Access: "stale", Refresh: "r1"}, true, 1},
		{"no refresh token", Tokens{Access: "stale"}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAuthServer("current")
			srv.failRefresh = tt.fail
			c, store, unauthorized := newClient(t, srv, tt.tokens)

			_, err := c.GetPresentation(context.Background(), "p1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
			assert.Equal(t, "Token expired", apiErr.Message)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Equal(t, Tokens{}, store.Tokens())
			assert.Equal(t, int32(1), unauthorized.Load())
			assert.Equal(t, tt.calls, srv.refreshes.Load())
		})
	}
}

func TestLoginIsAnonymousAndNeverRefreshes(t *testing.T) {
	var sawAuth atomic.Bool
	var refreshes atomic.Int32
	c, _, unauthorized := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshes.Add(1)
		}
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}), Tokens{Access: "a", Refresh: "r1"})

	_, err := c.Login(context.Background(), models.LoginCredentials{Email: "a@b.edu", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.False(t, sawAuth.Load())
	assert.Equal(t, int32(0), refreshes.Load())
	assert.Equal(t, int32(0), unauthorized.Load())
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		sentinel error
	}{
		{"message", 400, `{"message":"Title is required"}`, "Title is required", domain.ErrValidation},
		{"detail", 404, `{"detail":"Presentation not found"}`, "Presentation not found", domain.ErrNotFound},
		{"error", 403, `{"error":"Not allowed"}`, "Not allowed", domain.ErrForbidden},
		{"nested error", 409, `{"error":{"message":"Already exists"}}`, "Already exists", domain.ErrConflict},
		{"no body", 500, `oops`, "An error occurred", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}), Tokens{})

			err := c.DeletePresentation(context.Background(), "p1")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, Options{Logger: quiet})

	_, err := c.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "Network error - please check your connection", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestEnvelopeTolerance(t *testing.T) {
	bodies := map[string]string{
		"bare":    `[{"id":"p1","title":"A"},{"id":"p2","title":"B"}]`,
		"data":    `{"data":{"presentations":[{"id":"p1","title":"A"},{"id":"p2","title":"B"}],"total":2}}`,
		"wrapped": `{"presentations":[{"id":"p1","title":"A"},{"id":"p2","title":"B"}],"total":2,"page":1,"limit":12}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.Equal(t, "ml", r.URL.Query().Get("search"))
				_, _ = io.WriteString(w, body)
			}), Tokens{})

			list, err := c.ListPresentations(context.Background(), ListParams{Page: 2, Search: "ml"})
			require.NoError(t, err)
			require.Len(t, list.Presentations, 2)
			assert.Equal(t, "B", list.Presentations[1].Title)
			assert.Equal(t, 2, list.Total)
		})
	}
}

func TestGenerateMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"), 0o644))

	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/presentations/generate", r.URL.Path)
		assert.Equal(t, "Abstract text", r.FormValue("content"))

		var cfg models.PresentationConfig
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("config")), &cfg))
		assert.Equal(t, 20, cfg.Duration)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "paper.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))

		writeJSON(w, http.StatusAccepted, map[string]any{"generationId": "g1", "estimatedTime": 120})
	}), Tokens{Access: "a"})

	job, err := c.Generate(context.Background(), GenerateRequest{
		Content:  "Abstract text",
		FilePath: path,
		Config:   models.PresentationConfig{Template: "academic-modern", ConferenceType: models.ConferenceAcademic, Duration: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", job.GenerationID)
	assert.Equal(t, 120, job.EstimatedTime)
}

func TestWaitForExportPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "processing"
		if polls.Add(1) >= 3 {
			status = "complete"
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "old", "format": "pdf", "status": "failed"},
			{"id": "e1", "format": "pptx", "status": status, "url": "/files/e1.pptx"},
		})
	}), Tokens{})

	rec, err := c.WaitForExport(context.Background(), "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportComplete, rec.Status)
	assert.Equal(t, int32(3), polls.Load())

	_, err = c.WaitForExport(context.Background(), "p1", "old")
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestWaitForExportHonoursContext(t *testing.T) {
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "e1", "status": "pending"}})
	}), Tokens{})
	c.pollInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.WaitForExport(ctx, "p1", "e1")
	require.Error(t, err)
}

func TestDownload(t *testing.T) {
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "PK-binary")
	}), Tokens{Access: "a"})

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "/files/e1.pptx", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "PK-binary", buf.String())
}

func TestCollaboratorRoutes(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"collaborators": []map[string]any{{"id": "c1", "role": "viewer"}}})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]any{"id": "c1", "role": body["role"]})
		}
	}), Tokens{Access: "a"})
	ctx := context.Background()

	list, err := c.Collaborators(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	added, err := c.AddCollaborator(ctx, "p1", models.AddCollaboratorRequest{Email: "x@y.edu", Role: models.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, added.Role)

	updated, err := c.UpdateCollaborator(ctx, "p1", "c1", models.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, updated.Role)

	require.NoError(t, c.RemoveCollaborator(ctx, "p1", "c1"))
	assert.Equal(t, []string{
		"GET /presentations/p1/collaborators",
		"POST /presentations/p1/collaborators",
		"PATCH /presentations/p1/collaborators/c1",
		"DELETE /presentations/p1/collaborators/c1",
	}, seen)
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := networkError(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
