package app

import (
	"context"
	"sync"
	"time"

	"github.com/jaminalder/codex-thud/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// Errors exposed by the service layer.
var (
	ErrNotFound     = errors.New("game not found")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotAPlayer   = errors.New("not a player")
	ErrTooManyGames = errors.New("too many games in progress")
)

// HistoryEntry records one accepted action.
type HistoryEntry struct {
	Seq      int           `json:"seq"`
	Player   domain.Player `json:"player"`
	Action   domain.Action `json:"action"`
	Captured int           `json:"captured"`
	At       time.Time     `json:"at"`
}

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Game    domain.Game
	Dwarf   string
	Troll   string
	History []HistoryEntry
	Created time.Time
	Updated time.Time
}

func (gs *GameState) snapshot() GameState {
	cp := *gs
	cp.History = slices.Clone(gs.History)
	return cp
}

// Seat returns the army playerID plays, or false for spectators.
func (gs *GameState) Seat(playerID string) (domain.Player, bool) {
	switch {
	case playerID == "":
		return 0, false
	case gs.Dwarf == playerID:
		return domain.PlayerDwarf, true
	case gs.Troll == playerID:
		return domain.PlayerTroll, true
	}
	return 0, false
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// entry guards one game. The engine does no locking of its own, so every access to a
// game goes through its entry's mutex.
type entry struct {
	mu    sync.Mutex
	state GameState
	subs  map[*subscriber]struct{}
}

// Service manages games and subscribers.
type Service struct {
	mu        sync.Mutex
	games     map[string]*entry
	render    func(GameState) []byte
	log       zerolog.Logger
	maxGames  int
	subBuffer int
}

func nopRender(GameState) []byte { return nil }

// NewService creates a service. Without WithRenderer broadcasts carry no payload.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:     make(map[string]*entry),
		render:    nopRender,
		log:       log.Logger,
		subBuffer: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = nopRender
		return
	}
	s.render = renderer
}

func (s *Service) renderer() func(GameState) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	return s.register(domain.New(), nil)
}

// Import creates a game by replaying actions from the starting position.
func (s *Service) Import(actions []domain.Action) (*GameState, error) {
	return s.replay(domain.New(), actions)
}

// replay applies actions to g the way Play would: the result is checked after every action,
// so nothing may follow the action that ends the game.
func (s *Service) replay(g domain.Game, actions []domain.Action) (*GameState, error) {
	now := time.Now()
	history := make([]HistoryEntry, 0, len(actions))
	for i, a := range actions {
		player, ok := g.Turn()
		if !ok {
			return nil, errors.Wrapf(domain.ErrBadAction, "import: action %d after the game ended", i)
		}
		captured, err := g.Apply(a)
		if err != nil {
			return nil, errors.Wrapf(err, "import: action %d (%s from %s)", i, a.Kind, a.From)
		}
		history = append(history, HistoryEntry{Seq: i + 1, Player: player, Action: a, Captured: captured, At: now})
		g.Winner()
	}
	return s.register(g, history)
}

func (s *Service) register(g domain.Game, history []HistoryEntry) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxGames > 0 && len(s.games) >= s.maxGames && !s.evictLocked() {
		return nil, ErrTooManyGames
	}
	now := time.Now()
	e := &entry{
		state: GameState{ID: NewID(), Game: g, History: history, Created: now, Updated: now},
		subs:  make(map[*subscriber]struct{}),
	}
	s.games[e.state.ID] = e
	s.log.Info().Str("game", e.state.ID).Int("games", len(s.games)).Msg("game created")
	cp := e.state.snapshot()
	return &cp, nil
}

// evictLocked drops the finished game that was updated longest ago. s.mu must be held.
func (s *Service) evictLocked() bool {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, e := range s.games {
		e.mu.Lock()
		_, ended := e.state.Game.Phase().Result()
		updated := e.state.Updated
		e.mu.Unlock()
		if ended && (oldestID == "" || updated.Before(oldestAt)) {
			oldestID, oldestAt = id, updated
		}
	}
	if oldestID == "" {
		return false
	}
	e := s.games[oldestID]
	delete(s.games, oldestID)
	e.mu.Lock()
	for sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.mu.Unlock()
	s.log.Info().Str("game", oldestID).Msg("finished game evicted")
	return true
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.state.snapshot()
	return &cp, true
}

// Join assigns a seat to the player if available: dwarves first, then trolls. Spectators get
// the zero Player. An empty playerID is rejected with ErrNotAPlayer.
func (s *Service) Join(id, playerID string) (domain.Player, *GameState, error) {
	if playerID == "" {
		return 0, nil, ErrNotAPlayer
	}
	e, err := s.lookup(id)
	if err != nil {
		return 0, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	gs := &e.state
	var side domain.Player
	if gs.Dwarf == "" || gs.Dwarf == playerID {
		gs.Dwarf = playerID
		side = domain.PlayerDwarf
	} else if gs.Troll == "" || gs.Troll == playerID {
		gs.Troll = playerID
		side = domain.PlayerTroll
	}
	gs.Updated = time.Now()
	cp := gs.snapshot()
	return side, &cp, nil
}

// Move makes a plain move for the player's army.
func (s *Service) Move(id, playerID string, src, dst domain.Coord) (*GameState, error) {
	return s.Play(id, playerID, domain.Action{Kind: domain.ActionMove, From: src, To: dst})
}

// Attack hurls a dwarf or shoves a troll.
func (s *Service) Attack(id, playerID string, src, dst domain.Coord) (*GameState, error) {
	return s.Play(id, playerID, domain.Action{Kind: domain.ActionAttack, From: src, To: dst})
}

// Capture resolves the trolls' captures around src.
func (s *Service) Capture(id, playerID string, src domain.Coord, dirs []domain.Direction) (*GameState, error) {
	return s.Play(id, playerID, domain.CaptureAction(src, dirs))
}

// Play validates seat and turn, applies the action, records it, and broadcasts.
func (s *Service) Play(id, playerID string, a domain.Action) (*GameState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	render := s.renderer()

	e.mu.Lock()
	gs := &e.state
	seat, ok := gs.Seat(playerID)
	if !ok {
		e.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	turn, ok := gs.Game.Turn()
	if !ok {
		e.mu.Unlock()
		return nil, errors.Wrapf(domain.ErrBadAction, "game %s is over", id)
	}
	if seat != turn {
		e.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	captured, err := gs.Game.Apply(a)
	if err != nil {
		e.mu.Unlock()
		return nil, errors.Wrapf(err, "game %s: %s from %s", id, a.Kind, a.From)
	}
	now := time.Now()
	gs.History = append(gs.History, HistoryEntry{
		Seq: len(gs.History) + 1, Player: seat, Action: a, Captured: captured, At: now,
	})
	gs.Updated = now
	s.log.Debug().Str("game", id).Stringer("player", seat).Stringer("action", a.Kind).
		Stringer("from", a.From).Int("captured", captured).Msg("action applied")
	if r, over := gs.Game.Winner(); over {
		dwarves, trolls := gs.Game.Score()
		s.log.Info().Str("game", id).Stringer("result", r).Int("dwarf_score", dwarves).
			Int("troll_score", trolls).Msg("game ended")
	}

	cp := gs.snapshot()
	s.broadcastLocked(e, id, render(cp))
	e.mu.Unlock()
	return &cp, nil
}

// Moves lists the plain moves and attacks available to the piece at loc for the army to act.
func (s *Service) Moves(id string, loc domain.Coord) (moves, attacks []domain.Coord, err error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	moves, attacks = e.state.Game.AvailableActions(loc)
	return moves, attacks, nil
}

// History returns the actions accepted so far.
func (s *Service) History(id string) ([]HistoryEntry, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.state.History), nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed when ctx ends, on unsubscribe, or when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	sub := &subscriber{ch: make(chan []byte, s.subBuffer)}
	e.mu.Lock()
	if e.subs == nil {
		e.mu.Unlock()
		return nil, nil, ErrNotFound
	}
	e.subs[sub] = struct{}{}
	e.mu.Unlock()

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			e.mu.Lock()
			delete(e.subs, sub)
			e.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// broadcastLocked hands payload to every subscriber of e. Sends never block: a subscriber with
// a full buffer is closed and removed. e.mu must be held, which keeps unsubscribe and eviction
// from closing a channel mid-send.
func (s *Service) broadcastLocked(e *entry, id string, payload []byte) {
	dropped := 0
	for sub := range e.subs {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(e.subs, sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
}
