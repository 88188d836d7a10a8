package domain

import "fmt"

// Game holds a board and the phase that decides whose turn it is and which action may come next.
// A Game is not safe for concurrent use; callers hosting many games lock each one themselves.
type Game struct {
	board Board
	phase Phase
}

// New returns a game on a fresh board with the dwarves to move.
func New() Game {
	return Game{board: FreshBoard(), phase: NominalPhase(PlayerDwarf)}
}

// NewFromBoard starts a game from an arbitrary position and phase.
func NewFromBoard(b Board, phase Phase) Game {
	return Game{board: b, phase: phase}
}

// Board returns a snapshot of the board.
func (g *Game) Board() Board { return g.board }

func (g *Game) Phase() Phase { return g.phase }

// Turn returns the army to act, or false once the game has ended. Pending captures belong to
// the trolls.
func (g *Game) Turn() (Player, bool) {
	switch g.phase.kind {
	case PhaseNominal:
		return g.phase.player, true
	case PhasePostTrollMove:
		return PlayerTroll, true
	}
	return 0, false
}

// MovePiece makes a plain move for the army to act. A dwarf move ends the turn; a troll move
// leaves the trolls an optional capture via TrollCapture.
func (g *Game) MovePiece(src, dst Coord) error {
	switch g.phase {
	case NominalPhase(PlayerDwarf):
		if err := g.board.DwarfMove(src, dst); err != nil {
			return err
		}
		g.phase = NominalPhase(PlayerTroll)
	case NominalPhase(PlayerTroll):
		if err := g.board.TrollMove(src, dst); err != nil {
			return err
		}
		g.phase = PostTrollMovePhase(false)
	default:
		return fmt.Errorf("%w: move during %s", ErrBadAction, g.phase)
	}
	return nil
}

// Attack hurls a dwarf or shoves a troll. A shove must be followed by a TrollCapture taking at
// least one dwarf.
func (g *Game) Attack(src, dst Coord) error {
	switch g.phase {
	case NominalPhase(PlayerDwarf):
		if err := g.board.DwarfHurl(src, dst); err != nil {
			return err
		}
		g.phase = NominalPhase(PlayerTroll)
	case NominalPhase(PlayerTroll):
		if err := g.board.TrollShove(src, dst); err != nil {
			return err
		}
		g.phase = PostTrollMovePhase(true)
	default:
		return fmt.Errorf("%w: attack during %s", ErrBadAction, g.phase)
	}
	return nil
}

// TrollCapture resolves the captures after a troll move or shove and hands the turn to the
// dwarves. After a shove nothing happens unless at least one dwarf is taken; the call fails
// and may be retried with other directions.
func (g *Game) TrollCapture(src Coord, dirs []Direction) (int, error) {
	if g.phase.kind != PhasePostTrollMove {
		return 0, fmt.Errorf("%w: capture during %s", ErrBadAction, g.phase)
	}
	captured, err := g.board.TrollCapture(src, dirs)
	if err != nil {
		return 0, err
	}
	if captured == 0 && g.phase.attacked {
		return 0, fmt.Errorf("%w: a shove must capture at least one dwarf", ErrIllegalMove)
	}
	g.phase = NominalPhase(PlayerDwarf)
	return captured, nil
}

// Winner returns the result once the game is over. The first time the board shows a finished
// game the result is latched; later calls return it without looking at the board again.
func (g *Game) Winner() (Result, bool) {
	if r, ok := g.phase.Result(); ok {
		return r, true
	}
	r, ok := g.board.Winner()
	if ok {
		g.phase = EndedPhase(r)
	}
	return r, ok
}

// Score returns (dwarf score, troll score).
func (g *Game) Score() (int, int) { return g.board.Score() }

// AvailableActions splits the reachable squares of the piece at loc into plain moves and
// attacks for the army to act. Pieces of the other army, or any piece outside a nominal
// phase, have none. A troll square next to a dwarf one step away appears in both lists.
func (g *Game) AvailableActions(loc Coord) (moves, attacks []Coord) {
	player, ok := g.phase.Player()
	if !ok || g.board.Get(loc) != player.Piece() {
		return nil, nil
	}
	for _, dst := range g.board.AvailableMoves(loc) {
		switch player {
		case PlayerDwarf:
			if g.board.Get(dst) == Troll {
				attacks = append(attacks, dst)
			} else {
				moves = append(moves, dst)
			}
		case PlayerTroll:
			if loc.MaxAxisDistance(dst) == 1 {
				moves = append(moves, dst)
			}
			if g.board.dwarfAdjacent(dst) {
				attacks = append(attacks, dst)
			}
		}
	}
	return moves, attacks
}
