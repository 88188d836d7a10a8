package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/codex-thud/internal/app"
	"github.com/jaminalder/codex-thud/internal/domain"
	"github.com/rs/zerolog"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       zerolog.Logger
	heartbeat time.Duration
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "base", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		h.log.Error().Err(err).Msg("create game")
		http.Error(w, "failed to create", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// ensure cookie and auto-claim seat
	pid := ensurePlayerCookie(w, r)
	_, _, _ = h.svc.Join(id, pid)

	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.game, "base", newBoardView(*gs, "")))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_, gs, err := h.svc.Join(id, pid)
	if err != nil || gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, ""))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()

	var gs *app.GameState
	a, err := actionFromForm(r)
	if err == nil {
		gs, err = h.svc.Play(id, pid, a)
	}
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		errMsg = friendlyError(err)
		if g, ok := h.svc.Get(id); ok {
			gs = g
		}
	}
	if gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, errMsg))
}

// actionFromForm reads action, sx, sy, dx, dy and repeated dir fields.
func actionFromForm(r *http.Request) (domain.Action, error) {
	kind, err := domain.ParseActionKind(r.Form.Get("action"))
	if err != nil {
		return domain.Action{}, err
	}
	src, err := formCoord(r, "sx", "sy")
	if err != nil {
		return domain.Action{}, err
	}
	if kind == domain.ActionCapture {
		dirs := make([]domain.Direction, 0, len(r.Form["dir"]))
		for _, name := range r.Form["dir"] {
			d, err := domain.ParseDirection(name)
			if err != nil {
				return domain.Action{}, err
			}
			dirs = append(dirs, d)
		}
		return domain.CaptureAction(src, dirs), nil
	}
	dst, err := formCoord(r, "dx", "dy")
	if err != nil {
		return domain.Action{}, err
	}
	return domain.Action{Kind: kind, From: src, To: dst}, nil
}

func formCoord(r *http.Request, xKey, yKey string) (domain.Coord, error) {
	x, errX := strconv.Atoi(strings.TrimSpace(r.Form.Get(xKey)))
	y, errY := strconv.Atoi(strings.TrimSpace(r.Form.Get(yKey)))
	if errX != nil || errY != nil {
		return domain.Coord{}, fmt.Errorf("%w: %s,%s must be numbers", domain.ErrInvalidPosition, xKey, yKey)
	}
	return domain.NewCoord(x, y)
}

func friendlyError(err error) string {
	var (
		obstacle *domain.ObstacleError
		short    *domain.LineTooShortError
	)
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.As(err, &obstacle):
		return "Path blocked at " + obstacle.At.String()
	case errors.As(err, &short):
		return fmt.Sprintf("Line too short: needs %d, have %d", short.Required, short.Available)
	case errors.Is(err, domain.ErrInvalidPosition):
		return "Not a square on the board"
	case errors.Is(err, domain.ErrMath):
		return "Squares are not in line"
	case errors.Is(err, domain.ErrUnknownValue):
		return "Unknown value"
	case errors.Is(err, domain.ErrBadAction):
		return "That action is not allowed now"
	case errors.Is(err, domain.ErrIllegalMove):
		return "Illegal move"
	default:
		return "Invalid move"
	}
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent frames a payload as one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, event string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
