package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaminalder/codex-thud/internal/app"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServerOption configures the HTTP handler.
type ServerOption func(*handlers)

// WithLogger sets the access and error logger.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(h *handlers) { h.log = l }
}

// WithHeartbeat sets how long an idle SSE or websocket stream waits before sending a ping.
func WithHeartbeat(d time.Duration) ServerOption {
	return func(h *handlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewServer wires routes and returns an http.Handler. It installs the board fragment renderer
// on s so subscribers receive ready-to-swap HTML.
func NewServer(s *app.Service, opts ...ServerOption) http.Handler {
	h := &handlers{svc: s, tpl: loadTemplates(), log: log.Logger, heartbeat: 15 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", h.apiCreate)
		r.Post("/import", h.apiImport)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.apiStatus)
			r.Post("/join", h.apiJoin)
			r.Post("/actions", h.apiAction)
			r.Get("/moves", h.apiMoves)
			r.Get("/history", h.apiHistory)
		})
	})
	return r
}

func accessLog(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
