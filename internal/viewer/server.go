package viewer

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/httputil"
	"slidegenie/internal/middleware"
	"slidegenie/internal/sse"
)

//go:embed static/index.html
var static embed.FS

// ServerOptions configures a preview Server. Zero values pick defaults.
type ServerOptions struct {
	Renderer       *Renderer
	Navigator      *Navigator
	Timer          *Timer
	AllowedOrigins []string
	KeepAlive      time.Duration
	Logger         *slog.Logger
}

// Server serves one presentation to a browser: the page, one SVG per slide,
// the navigator state as JSON and as an event stream, and key input.
type Server struct {
	pres      *models.Presentation
	renderer  *Renderer
	nav       *Navigator
	timer     *Timer
	origins   []string
	keepAlive time.Duration
	logger    *slog.Logger
}

// DeckInfo describes the presentation being served.
type DeckInfo struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Total     int        `json:"total"`
	Shortcuts []Shortcut `json:"shortcuts"`
}

// StateResponse is the navigator state plus the presenter panel.
type StateResponse struct {
	State
	Panel   PresenterInfo `json:"panel"`
	Timer   string        `json:"timer"`
	Running bool          `json:"timerRunning"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type gotoRequest struct {
	Index int `json:"index"`
}

// NewServer serves p. The presentation is copied.
func NewServer(p *models.Presentation, opts ServerOptions) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		r, err := NewRenderer(RenderOptions{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		opts.Renderer = r
	}
	if opts.Navigator == nil {
		opts.Navigator = NewNavigator(len(p.Slides))
	}
	if opts.Timer == nil {
		opts.Timer = NewTimer(nil)
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = sse.DefaultKeepAlive
	}
	return &Server{
		pres:      p.Clone(),
		renderer:  opts.Renderer,
		nav:       opts.Navigator,
		timer:     opts.Timer,
		origins:   opts.AllowedOrigins,
		keepAlive: opts.KeepAlive,
		logger:    opts.Logger.With("presentation_id", p.ID),
	}, nil
}

// Navigator returns the navigator the server drives.
func (s *Server) Navigator() *Navigator { return s.nav }

// Handler returns the routed handler wrapped in logging, panic recovery and
// CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/deck", s.handleDeck)
	mux.HandleFunc("GET /api/deck.xml", s.handleMarkup)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/key", s.handleKey)
	mux.HandleFunc("POST /api/goto", s.handleGoTo)
	mux.HandleFunc("POST /api/timer", s.handleTimer)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /slides/{file}", s.handleSlide)
	mux.HandleFunc("GET /slides/{index}/text", s.handleSlideText)

	var handler http.Handler = mux
	handler = middleware.RequestLog(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler(handler)
}

// ListenAndServe serves on addr until ctx is cancelled. ready, when not nil,
// receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// no write timeout: event streams stay open
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("preview server started", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown preview server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, DeckInfo{
		ID:        s.pres.ID,
		Title:     s.renderer.Text().Plain(s.pres.Title),
		Total:     len(s.pres.Slides),
		Shortcuts: Shortcuts,
	})
}

func (s *Server) handleMarkup(w http.ResponseWriter, r *http.Request) {
	data, err := s.renderer.DeckMarkup(s.pres)
	if err != nil {
		s.logger.Error("deck markup failed", "error", err)
		httputil.RespondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write(data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, s.stateResponse(s.nav.State()))
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	st := s.nav.State()
	// space toggles the timer while the presenter view is open
	if st.Presenter && (req.Key == KeySpace || req.Key == "Space") {
		s.timer.Toggle()
		httputil.RespondJSON(w, http.StatusOK, s.stateResponse(st))
		return
	}
	if !s.nav.HandleKey(req.Key) {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unbound key %q", req.Key))
		return
	}
	httputil.RespondJSON(w, http.StatusOK, s.stateResponse(s.nav.State()))
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.nav.GoTo(req.Index); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, s.stateResponse(s.nav.State()))
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("reset") == "true" {
		s.timer.Reset()
	} else {
		s.timer.Toggle()
	}
	httputil.RespondJSON(w, http.StatusOK, s.stateResponse(s.nav.State()))
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".svg")
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "unknown slide resource")
		return
	}
	index, err := s.slideIndex(name)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	out, err := s.renderer.SVG(s.pres, index)
	if err != nil {
		s.logger.Error("render slide failed", "index", index, "error", err)
		httputil.RespondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(out)
}

func (s *Server) handleSlideText(w http.ResponseWriter, r *http.Request) {
	index, err := s.slideIndex(r.PathValue("index"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	text, err := s.renderer.Text().Slide(s.pres.Slides[index], r.URL.Query().Get("notes") == "true")
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(text))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updates, cancel := s.nav.Watch()
	defer cancel()

	keepAlive := sse.NewTickerKeepAlive(s.keepAlive)
	dropped := keepAlive.Start(stream, s.logger)
	defer keepAlive.Stop()

	s.logger.Debug("event stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-dropped:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(s.stateResponse(st))
			if err != nil {
				s.logger.Error("encode state failed", "error", err)
				return
			}
			if err := stream.Event("state", data); err != nil {
				s.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

func (s *Server) stateResponse(st State) StateResponse {
	return StateResponse{
		State:   st,
		Panel:   Presenter(s.pres.Slides, st.Index, s.renderer.Text()),
		Timer:   s.timer.String(),
		Running: s.timer.Running(),
	}
}

func (s *Server) slideIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 || index >= len(s.pres.Slides) {
		return 0, &domain.NotFoundError{Message: fmt.Sprintf("slide %q not found", raw)}
	}
	return index, nil
}
