package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/codex-thud/internal/app"
	"github.com/jaminalder/codex-thud/internal/domain"
)

// StatusResponse is the JSON view of a hosted game. Board is indexed [x][y] with the flat piece
// encoding: 0 empty, 1 dwarf, 2 troll, 3 thudstone.
type StatusResponse struct {
	ID         string    `json:"id"`
	Board      [][]int   `json:"board"`
	Phase      string    `json:"phase"`
	Turn       string    `json:"turn,omitempty"`
	Winner     int       `json:"winner"`
	Result     string    `json:"result,omitempty"`
	DwarfScore int       `json:"dwarf_score"`
	TrollScore int       `json:"troll_score"`
	Seat       string    `json:"seat,omitempty"`
	MoveCount  int       `json:"move_count"`
	Updated    time.Time `json:"updated"`
}

type movesResponse struct {
	From    domain.Coord   `json:"from"`
	Moves   []domain.Coord `json:"moves"`
	Attacks []domain.Coord `json:"attacks"`
}

type errorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code"`
	At        *domain.Coord `json:"at,omitempty"`
	Required  int           `json:"required,omitempty"`
	Available int           `json:"available,omitempty"`
}

func newStatus(gs app.GameState, playerID string) StatusResponse {
	b := gs.Game.Board()
	raw := b.Raw()
	board := make([][]int, domain.Size)
	for x := range raw {
		board[x] = make([]int, domain.Size)
		for y, p := range raw[x] {
			board[x][y] = p.Int()
		}
	}
	phase := gs.Game.Phase()
	resp := StatusResponse{
		ID:        gs.ID,
		Board:     board,
		Phase:     phase.String(),
		MoveCount: len(gs.History),
		Updated:   gs.Updated,
	}
	resp.DwarfScore, resp.TrollScore = gs.Game.Score()
	if turn, ok := gs.Game.Turn(); ok {
		resp.Turn = turn.String()
	}
	if r, ok := phase.Result(); ok {
		resp.Winner = r.Int()
		resp.Result = r.String()
	}
	if seat, ok := gs.Seat(playerID); ok {
		resp.Seat = seat.String()
	}
	return resp
}

func playerID(r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil {
		return c.Value
	}
	return ""
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		h.writeError(w, err)
		return
	}
	pid := ensurePlayerCookie(w, r)
	_, joined, err := h.svc.Join(gs.ID, pid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStatus(*joined, pid))
}

func (h *handlers) apiImport(w http.ResponseWriter, r *http.Request) {
	var actions []domain.Action
	if err := json.NewDecoder(r.Body).Decode(&actions); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	gs, err := h.svc.Import(actions)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStatus(*gs, ""))
}

func (h *handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(*gs, playerID(r)))
}

func (h *handlers) apiJoin(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	_, gs, err := h.svc.Join(chi.URLParam(r, "id"), pid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(*gs, pid))
}

func (h *handlers) apiAction(w http.ResponseWriter, r *http.Request) {
	var a domain.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	pid := playerID(r)
	gs, err := h.svc.Play(chi.URLParam(r, "id"), pid, a)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(*gs, pid))
}

func (h *handlers) apiMoves(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "x and y are required", Code: "bad_request"})
		return
	}
	loc, err := domain.NewCoord(x, y)
	if err != nil {
		h.writeError(w, err)
		return
	}
	moves, attacks, err := h.svc.Moves(chi.URLParam(r, "id"), loc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if moves == nil {
		moves = []domain.Coord{}
	}
	if attacks == nil {
		attacks = []domain.Coord{}
	}
	writeJSON(w, http.StatusOK, movesResponse{From: loc, Moves: moves, Attacks: attacks})
}

func (h *handlers) apiHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if history == nil {
		history = []app.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// writeError maps service and engine errors onto a status code and a machine-readable code.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	var (
		obstacle *domain.ObstacleError
		short    *domain.LineTooShortError
	)
	resp := errorResponse{Error: err.Error()}
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, app.ErrNotFound):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrNotAPlayer):
		status, resp.Code = http.StatusForbidden, "not_a_player"
	case errors.Is(err, app.ErrNotYourTurn):
		status, resp.Code = http.StatusConflict, "not_your_turn"
	case errors.Is(err, app.ErrTooManyGames):
		status, resp.Code = http.StatusServiceUnavailable, "too_many_games"
	case errors.Is(err, domain.ErrBadAction):
		status, resp.Code = http.StatusConflict, "bad_action"
	case errors.As(err, &obstacle):
		at := obstacle.At
		resp.Code, resp.At = "obstacle", &at
	case errors.As(err, &short):
		resp.Code, resp.Required, resp.Available = "line_too_short", short.Required, short.Available
	case errors.Is(err, domain.ErrInvalidPosition):
		resp.Code = "invalid_position"
	case errors.Is(err, domain.ErrMath):
		resp.Code = "not_in_line"
	case errors.Is(err, domain.ErrUnknownValue):
		status, resp.Code = http.StatusBadRequest, "unknown_value"
	case errors.Is(err, domain.ErrIllegalMove):
		resp.Code = "illegal_move"
	default:
		status, resp.Code = http.StatusInternalServerError, "internal"
		h.log.Error().Err(err).Msg("unexpected error")
	}
	writeJSON(w, status, resp)
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
