package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGameInitialState(t *testing.T) {
	g := New()
	turn, ok := g.Turn()
	require.True(t, ok)
	require.Equal(t, PlayerDwarf, turn)
	require.Equal(t, NominalPhase(PlayerDwarf), g.Phase())
	b := g.Board()
	fb := FreshBoard()
	require.Equal(t, fb.Raw(), b.Raw())
	_, over := g.Winner()
	require.False(t, over)
}

func TestTurnSequencing(t *testing.T) {
	g := New()

	require.NoError(t, g.MovePiece(c(6, 0), c(6, 5)))
	turn, _ := g.Turn()
	require.Equal(t, PlayerTroll, turn)

	require.NoError(t, g.Attack(c(6, 6), c(5, 6)))
	require.Equal(t, PostTrollMovePhase(true), g.Phase())
	require.True(t, g.Phase().Attacked())

	require.ErrorIs(t, g.MovePiece(c(5, 6), c(4, 6)), ErrBadAction)
	require.ErrorIs(t, g.Attack(c(6, 7), c(5, 7)), ErrBadAction)

	_, err := g.TrollCapture(c(5, 6), nil)
	require.ErrorIs(t, err, ErrIllegalMove)
	require.Equal(t, PostTrollMovePhase(true), g.Phase())

	n, err := g.TrollCapture(c(5, 6), []Direction{DownRight})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	turn, _ = g.Turn()
	require.Equal(t, PlayerDwarf, turn)
	b := g.Board()
	require.Equal(t, Empty, b.Get(c(6, 5)))
	dwarves, _ := g.Score()
	require.Equal(t, 31, dwarves)
}

func TestCaptureOptionalAfterPlainMove(t *testing.T) {
	g := New()
	require.NoError(t, g.MovePiece(c(6, 0), c(6, 4)))
	require.NoError(t, g.MovePiece(c(6, 6), c(6, 5)))
	require.Equal(t, PostTrollMovePhase(false), g.Phase())

	n, err := g.TrollCapture(c(6, 5), nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, NominalPhase(PlayerDwarf), g.Phase())
}

func TestActionsOutOfTurn(t *testing.T) {
	g := New()
	_, err := g.TrollCapture(c(6, 6), []Direction{Up})
	require.ErrorIs(t, err, ErrBadAction)

	// it is the dwarves' turn, so a troll square is not a legal source
	require.ErrorIs(t, g.MovePiece(c(8, 8), c(9, 9)), ErrIllegalMove)
	require.Equal(t, NominalPhase(PlayerDwarf), g.Phase())
}

func TestFailedActionLeavesGameUnchanged(t *testing.T) {
	g := New()
	before := g
	require.ErrorIs(t, g.MovePiece(c(8, 0), c(8, 12)), ErrObstacle)
	require.ErrorIs(t, g.Attack(c(6, 0), c(6, 6)), ErrLineTooShort)
	require.Equal(t, before, g)
}

func TestWinnerIsLatched(t *testing.T) {
	b := wallInDwarves(NewBoard())
	b.Place(c(10, 10), Troll)
	b.Place(c(3, 10), Troll)
	g := NewFromBoard(b, NominalPhase(PlayerDwarf))

	r, over := g.Winner()
	require.True(t, over)
	require.Equal(t, Won(PlayerTroll), r)
	require.Equal(t, EndedPhase(Won(PlayerTroll)), g.Phase())

	_, ok := g.Turn()
	require.False(t, ok)
	require.ErrorIs(t, g.MovePiece(c(10, 10), c(10, 11)), ErrBadAction)
	require.ErrorIs(t, g.Attack(c(10, 10), c(10, 11)), ErrBadAction)

	again, over := g.Winner()
	require.True(t, over)
	require.Equal(t, r, again)
}

func TestWinnerCachedResultIgnoresBoard(t *testing.T) {
	// an ended phase is trusted even when the board would say otherwise
	g := NewFromBoard(FreshBoard(), EndedPhase(Draw()))
	r, over := g.Winner()
	require.True(t, over)
	require.True(t, r.IsDraw())
}

func TestAvailableActions(t *testing.T) {
	g := New()
	moves, attacks := g.AvailableActions(c(5, 0))
	require.Len(t, moves, 21)
	require.Empty(t, attacks)

	moves, attacks = g.AvailableActions(c(6, 6))
	require.Nil(t, moves)
	require.Nil(t, attacks)

	require.NoError(t, g.MovePiece(c(6, 0), c(6, 5)))
	moves, attacks = g.AvailableActions(c(6, 6))
	require.ElementsMatch(t, []Coord{c(5, 5), c(5, 6), c(5, 7), c(7, 5)}, moves)
	require.ElementsMatch(t, []Coord{c(5, 5), c(5, 6), c(7, 5)}, attacks)
}

func TestPhaseAccessors(t *testing.T) {
	p, ok := NominalPhase(PlayerTroll).Player()
	require.True(t, ok)
	require.Equal(t, PlayerTroll, p)
	_, ok = PostTrollMovePhase(true).Player()
	require.False(t, ok)
	require.False(t, PostTrollMovePhase(false).Attacked())
	r, ok := EndedPhase(Won(PlayerDwarf)).Result()
	require.True(t, ok)
	require.Equal(t, 1, r.Int())
	require.Equal(t, 3, Draw().Int())
	require.Equal(t, "post_troll_move(attack)", PostTrollMovePhase(true).String())
}

func TestMoveToZeroCoordKeepsTurn(t *testing.T) {
	g := New()
	err := g.MovePiece(c(5, 0), Coord{})
	require.ErrorIs(t, err, ErrInvalidPosition)
	require.Equal(t, NominalPhase(PlayerDwarf), g.Phase())
	dwarves, _ := g.Score()
	require.Equal(t, 32, dwarves)
}
