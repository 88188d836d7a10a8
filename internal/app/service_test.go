package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jaminalder/codex-thud/internal/domain"
	"github.com/rs/zerolog"
)

// minimal renderer for tests: encode history length as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("actions=%d", len(gs.History))) }

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithRenderer(testRenderer), WithLogger(zerolog.Nop())}, opts...)
	return NewService(opts...)
}

func seated(t *testing.T, s *Service) *GameState {
	t.Helper()
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	s.Join(gs.ID, "p1") // dwarves
	s.Join(gs.ID, "p2") // trolls
	return gs
}

func c(x, y int) domain.Coord { return domain.MustCoord(x, y) }

func TestCreateAndGet(t *testing.T) {
	s := newTestService()
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if turn, _ := gs.Game.Turn(); turn != domain.PlayerDwarf {
		t.Fatalf("expected dwarves to start, got %v", turn)
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should not find unknown game")
	}
}

func TestJoinSeatsAndRejoin(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()

	side, _, err := s.Join(gs.ID, "p1")
	if err != nil || side != domain.PlayerDwarf {
		t.Fatalf("p1 should claim dwarves, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, "p2")
	if err != nil || side != domain.PlayerTroll {
		t.Fatalf("p2 should claim trolls, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, "p1")
	if err != nil || side != domain.PlayerDwarf {
		t.Fatalf("p1 rejoin should keep dwarves, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, "p3")
	if err != nil || side != 0 {
		t.Fatalf("p3 should spectate, got %v, err=%v", side, err)
	}
	if _, _, err := s.Join("missing", "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinRejectsEmptyPlayerID(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()
	if _, _, err := s.Join(gs.ID, ""); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	latest, _ := s.Get(gs.ID)
	if latest.Dwarf != "" {
		t.Fatalf("empty id must not take a seat, dwarf=%q", latest.Dwarf)
	}
	if side, _, err := s.Join(gs.ID, "p1"); err != nil || side != domain.PlayerDwarf {
		t.Fatalf("dwarf seat should still be free, got %v err=%v", side, err)
	}
}

func TestPlayEnforcesTurnAndSpectatorBlocked(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)
	s.Join(gs.ID, "p3") // spectator

	// trolls cannot play first
	if _, err := s.Move(gs.ID, "p2", c(8, 8), c(9, 9)); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := s.Move(gs.ID, "p3", c(6, 0), c(6, 5)); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	st, err := s.Move(gs.ID, "p1", c(6, 0), c(6, 5))
	if err != nil {
		t.Fatalf("dwarf move failed: %v", err)
	}
	board := st.Game.Board()
	if board.Get(c(6, 5)) != domain.Dwarf || len(st.History) != 1 {
		t.Fatalf("unexpected state after dwarf move: history=%d cell=%v", len(st.History), board.Get(c(6, 5)))
	}
	if turn, _ := st.Game.Turn(); turn != domain.PlayerTroll {
		t.Fatalf("expected trolls to move, got %v", turn)
	}
	if _, err := s.Move(gs.ID, "p1", c(8, 0), c(8, 4)); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for dwarves again, got %v", err)
	}
}

func TestEngineErrorsKeepTheirIdentity(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)

	_, err := s.Move(gs.ID, "p1", c(8, 0), c(8, 12))
	if !errors.Is(err, domain.ErrObstacle) {
		t.Fatalf("expected ErrObstacle, got %v", err)
	}
	var obstacle *domain.ObstacleError
	if !errors.As(err, &obstacle) || obstacle.At != c(8, 6) {
		t.Fatalf("expected obstacle at (8,6), got %v", err)
	}
	latest, _ := s.Get(gs.ID)
	if len(latest.History) != 0 {
		t.Fatalf("failed move must not be recorded")
	}
}

func TestShoveCaptureFlow(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)

	if _, err := s.Move(gs.ID, "p1", c(6, 0), c(6, 5)); err != nil {
		t.Fatalf("dwarf move: %v", err)
	}
	if _, err := s.Attack(gs.ID, "p2", c(6, 6), c(5, 6)); err != nil {
		t.Fatalf("troll shove: %v", err)
	}
	if _, err := s.Capture(gs.ID, "p2", c(5, 6), nil); !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove for empty capture after shove, got %v", err)
	}
	st, err := s.Capture(gs.ID, "p2", c(5, 6), []domain.Direction{domain.DownRight})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	last := st.History[len(st.History)-1]
	if last.Captured != 1 || last.Player != domain.PlayerTroll || last.Seq != 3 {
		t.Fatalf("unexpected history entry %+v", last)
	}

	moves, attacks, err := s.Moves(gs.ID, c(5, 0))
	if err != nil || len(moves) == 0 || len(attacks) != 0 {
		t.Fatalf("expected dwarf moves from (5,0): moves=%v attacks=%v err=%v", moves, attacks, err)
	}
	history, err := s.History(gs.ID)
	if err != nil || len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d err=%v", len(history), err)
	}
}

func TestImportReplaysActions(t *testing.T) {
	s := newTestService()
	actions := []domain.Action{
		{Kind: domain.ActionMove, From: c(6, 0), To: c(6, 5)},
		{Kind: domain.ActionAttack, From: c(6, 6), To: c(5, 6)},
		domain.CaptureAction(c(5, 6), []domain.Direction{domain.DownRight}),
	}
	gs, err := s.Import(actions)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(gs.History) != 3 || gs.History[2].Captured != 1 {
		t.Fatalf("unexpected history %+v", gs.History)
	}
	if dwarves, _ := gs.Game.Score(); dwarves != 31 {
		t.Fatalf("expected 31 dwarves, got %d", dwarves)
	}

	_, err = s.Import([]domain.Action{{Kind: domain.ActionMove, From: c(8, 8), To: c(9, 9)}})
	if !errors.Is(err, domain.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestImportStopsAtGameEnd(t *testing.T) {
	s := newTestService()
	b := domain.NewBoard()
	b.Place(c(7, 3), domain.Dwarf)
	b.Place(c(7, 4), domain.Troll)
	start := domain.NewFromBoard(b, domain.NominalPhase(domain.PlayerDwarf))
	hurl := domain.Action{Kind: domain.ActionAttack, From: c(7, 3), To: c(7, 4)}

	gs, err := s.replay(start, []domain.Action{hurl})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if r, ok := gs.Game.Phase().Result(); !ok || r != domain.Won(domain.PlayerDwarf) {
		t.Fatalf("expected dwarves to have won, phase %s", gs.Game.Phase())
	}

	_, err = s.replay(start, []domain.Action{hurl, {Kind: domain.ActionMove, From: c(7, 4), To: c(7, 5)}})
	if !errors.Is(err, domain.ErrBadAction) {
		t.Fatalf("expected ErrBadAction for an action after the end, got %v", err)
	}
}

func TestMaxGamesEvictsFinishedGames(t *testing.T) {
	s := newTestService(WithMaxGames(1))
	first, err := s.CreateGame()
	if err != nil {
		t.Fatalf("first game: %v", err)
	}
	if _, err := s.CreateGame(); !errors.Is(err, ErrTooManyGames) {
		t.Fatalf("expected ErrTooManyGames, got %v", err)
	}

	s.mu.Lock()
	e := s.games[first.ID]
	s.mu.Unlock()
	e.mu.Lock()
	e.state.Game = domain.NewFromBoard(e.state.Game.Board(), domain.EndedPhase(domain.Draw()))
	e.mu.Unlock()

	second, err := s.CreateGame()
	if err != nil {
		t.Fatalf("second game after eviction: %v", err)
	}
	if _, ok := s.Get(first.ID); ok {
		t.Fatalf("finished game should have been evicted")
	}
	if _, ok := s.Get(second.ID); !ok {
		t.Fatalf("new game should be registered")
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if _, err := s.Move(gs.ID, "p1", c(6, 0), c(6, 5)); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "actions=1" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}

	if _, _, err := s.Subscribe(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	if _, err := s.Move(gs.ID, "p1", c(6, 0), c(6, 5)); err != nil {
		t.Fatalf("play1: %v", err)
	}
	<-fastCh
	if _, err := s.Move(gs.ID, "p2", c(8, 8), c(9, 9)); err != nil {
		t.Fatalf("play2: %v", err)
	}
	<-fastCh

	// the slow subscriber kept its first payload and was closed on the second
	if b, ok := <-slowCh; !ok || string(b) != "actions=1" {
		t.Fatalf("expected buffered first payload, got %q ok=%v", b, ok)
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestUnsubscribeWhilePlaying(t *testing.T) {
	s := newTestService()
	gs := seated(t, s)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ctx, cancel := context.WithCancel(context.Background())
				ch, unsub, err := s.Subscribe(ctx, gs.ID)
				if err != nil {
					cancel()
					t.Errorf("subscribe: %v", err)
					return
				}
				if i%2 == 0 {
					unsub()
				} else {
					cancel()
				}
				for range ch {
				}
				cancel()
			}
		}()
	}

	cycle := []struct {
		player string
		action domain.Action
	}{
		{"p1", domain.Action{Kind: domain.ActionMove, From: c(6, 0), To: c(6, 5)}},
		{"p2", domain.Action{Kind: domain.ActionMove, From: c(8, 8), To: c(9, 9)}},
		{"p2", domain.CaptureAction(c(9, 9), nil)},
		{"p1", domain.Action{Kind: domain.ActionMove, From: c(6, 5), To: c(6, 0)}},
		{"p2", domain.Action{Kind: domain.ActionMove, From: c(9, 9), To: c(8, 8)}},
		{"p2", domain.CaptureAction(c(8, 8), nil)},
	}
	for round := 0; round < 300; round++ {
		for _, step := range cycle {
			if _, err := s.Play(gs.ID, step.player, step.action); err != nil {
				close(stop)
				wg.Wait()
				t.Fatalf("round %d: %v", round, err)
			}
		}
	}
	close(stop)
	wg.Wait()
}
