package domain

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Board is the occupancy of every square. It knows nothing about turn order: the movement
// methods check only the pieces involved, so a Board can be used for analysis without a Game.
// Every movement method leaves the board untouched when it returns an error.
type Board struct {
	squares [Size][Size]Piece
}

// NewBoard returns a board with every square empty.
func NewBoard() Board {
	return Board{}
}

// FreshBoard returns the standard starting layout: eight trolls around the thudstone and
// thirty-two dwarves along the diagonal edges.
func FreshBoard() Board {
	b := NewBoard()
	for x := 6; x <= 8; x++ {
		for y := 6; y <= 8; y++ {
			b.Place(MustCoord(x, y), Troll)
		}
	}
	arms := []func(int) (int, int){
		func(n int) (int, int) { return n, 5 - n },
		func(n int) (int, int) { return n + 9, n },
		func(n int) (int, int) { return n, n + 9 },
		func(n int) (int, int) { return n + 9, 14 - n },
	}
	for _, arm := range arms {
		for n := 0; n <= 5; n++ {
			b.Place(MustCoord(arm(n)), Dwarf)
		}
	}
	for _, xy := range [][2]int{{0, 6}, {0, 8}, {14, 6}, {14, 8}, {6, 0}, {8, 0}, {6, 14}, {8, 14}} {
		b.Place(MustCoord(xy[0], xy[1]), Dwarf)
	}
	b.Place(MustCoord(7, 7), Thudstone)
	return b
}

// Place puts p on square c, replacing whatever was there. The zero Coord is ignored.
func (b *Board) Place(c Coord, p Piece) {
	if !c.ok {
		return
	}
	b.squares[c.x][c.y] = p
}

// Get returns the occupant of c, Empty for the zero Coord.
func (b *Board) Get(c Coord) Piece {
	if !c.ok {
		return Empty
	}
	return b.squares[c.x][c.y]
}

// Raw returns a copy of the grid indexed [x][y]. Squares outside the octagon are always Empty.
func (b *Board) Raw() [Size][Size]Piece {
	return b.squares
}

// Army returns every square holding p.
func (b *Board) Army(p Piece) []Coord {
	var out []Coord
	for _, c := range allCoords {
		if b.Get(c) == p {
			out = append(out, c)
		}
	}
	return out
}

// Adjacent returns the up to eight on-board neighbours of c.
func (b *Board) Adjacent(c Coord) []Square {
	out := make([]Square, 0, 8)
	for _, d := range AllDirections() {
		if n, err := d.Step(c); err == nil {
			out = append(out, Square{Coord: n, Piece: b.Get(n)})
		}
	}
	return out
}

func (b *Board) dwarfAdjacent(c Coord) bool {
	return slices.ContainsFunc(b.Adjacent(c), func(s Square) bool { return s.Piece == Dwarf })
}

func (b *Board) relocate(src, dst Coord) {
	p := b.Get(src)
	b.Place(src, Empty)
	b.Place(dst, p)
}

func (b *Board) expect(src Coord, srcPiece Piece, dst Coord, dstPiece Piece) error {
	if !src.ok || !dst.ok {
		return fmt.Errorf("%w: move from %s to %s", ErrInvalidPosition, src, dst)
	}
	if got := b.Get(src); got != srcPiece {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrIllegalMove, src, got, srcPiece)
	}
	if got := b.Get(dst); got != dstPiece {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrIllegalMove, dst, got, dstPiece)
	}
	return nil
}

// TrollMove moves a troll one square onto an empty neighbour.
func (b *Board) TrollMove(src, dst Coord) error {
	if err := b.expect(src, Troll, dst, Empty); err != nil {
		return err
	}
	if d := src.MaxAxisDistance(dst); d != 1 {
		return fmt.Errorf("%w: troll may only step one square, not %d", ErrIllegalMove, d)
	}
	b.relocate(src, dst)
	return nil
}

// TrollShove slides a troll along a clear line onto an empty square next to at least one dwarf.
// The distance may not exceed the line of trolls standing directly behind it.
func (b *Board) TrollShove(src, dst Coord) error {
	if err := b.expect(src, Troll, dst, Empty); err != nil {
		return err
	}
	if err := b.VerifyClear(src, dst); err != nil {
		return err
	}
	if !b.dwarfAdjacent(dst) {
		return fmt.Errorf("%w: no dwarf next to %s", ErrIllegalMove, dst)
	}
	if err := b.checkSupport(src, dst, Troll); err != nil {
		return err
	}
	b.relocate(src, dst)
	return nil
}

// TrollCapture removes the dwarves next to the troll at src in each of dirs and returns how
// many were taken. Directions leading off the board, unknown directions and repeats are ignored.
func (b *Board) TrollCapture(src Coord, dirs []Direction) (int, error) {
	if !src.ok {
		return 0, fmt.Errorf("%w: capture from %s", ErrInvalidPosition, src)
	}
	if got := b.Get(src); got != Troll {
		return 0, fmt.Errorf("%w: %s holds %s, not troll", ErrIllegalMove, src, got)
	}
	captured := 0
	for _, d := range dirs {
		target, err := d.Step(src)
		if err != nil {
			continue
		}
		if b.Get(target) == Dwarf {
			b.Place(target, Empty)
			captured++
		}
	}
	return captured, nil
}

// DwarfMove slides a dwarf any distance along a clear line onto an empty square.
func (b *Board) DwarfMove(src, dst Coord) error {
	if err := b.expect(src, Dwarf, dst, Empty); err != nil {
		return err
	}
	if err := b.VerifyClear(src, dst); err != nil {
		return err
	}
	b.relocate(src, dst)
	return nil
}

// DwarfHurl throws a dwarf along a clear line onto a troll, which is captured. The distance may
// not exceed the line of dwarves standing directly behind the thrown one.
func (b *Board) DwarfHurl(src, dst Coord) error {
	if err := b.expect(src, Dwarf, dst, Troll); err != nil {
		return err
	}
	if err := b.VerifyClear(src, dst); err != nil {
		return err
	}
	if err := b.checkSupport(src, dst, Dwarf); err != nil {
		return err
	}
	b.relocate(src, dst)
	return nil
}

func (b *Board) checkSupport(src, dst Coord, p Piece) error {
	back, err := DirectionFromRoute(dst, src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	line := b.CountLine(src, back, p)
	if dist := src.MaxAxisDistance(dst); dist > line {
		return &LineTooShortError{Required: dist, Available: line}
	}
	return nil
}

// VerifyClear checks that src and dst share a straight line and every square strictly between
// them is empty. The occupants of src and dst are not inspected.
func (b *Board) VerifyClear(src, dst Coord) error {
	if !src.ok || !dst.ok {
		return fmt.Errorf("%w: path from %s to %s", ErrInvalidPosition, src, dst)
	}
	dir, err := DirectionFromRoute(src, dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	for c, p := range b.Cast(src, dir) {
		if c == dst {
			break
		}
		if p != Empty {
			return &ObstacleError{At: c}
		}
	}
	return nil
}

// CountLine is the length of the run of p starting at start and continuing in dir: zero when
// start does not hold p, otherwise one plus the matching squares before the first mismatch.
func (b *Board) CountLine(start Coord, dir Direction, p Piece) int {
	if !start.ok || b.Get(start) != p {
		return 0
	}
	length := 1
	for _, cur := range b.Cast(start, dir) {
		if cur != p {
			break
		}
		length++
	}
	return length
}

// AvailableMoves lists every square the piece at loc can legally reach, by a plain move or an
// attack. Empty squares and the thudstone have none.
func (b *Board) AvailableMoves(loc Coord) []Coord {
	var out []Coord
	switch b.Get(loc) {
	case Dwarf:
		for _, dir := range AllDirections() {
			line := b.CountLine(loc, dir.Opposite(), Dwarf)
			dist := 0
			for c, p := range b.Cast(loc, dir) {
				dist++
				if p == Troll && dist <= line {
					out = append(out, c)
				}
				if p != Empty {
					break
				}
				out = append(out, c)
			}
		}
	case Troll:
		for _, dir := range AllDirections() {
			line := b.CountLine(loc, dir.Opposite(), Troll)
			dist := 0
			for c, p := range b.Cast(loc, dir) {
				dist++
				if p != Empty || dist > line {
					break
				}
				if dist == 1 || b.dwarfAdjacent(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func (b *Board) hasMove(p Piece) bool {
	for _, c := range b.Army(p) {
		if len(b.AvailableMoves(c)) > 0 {
			return true
		}
	}
	return false
}

// Winner reports the result once either army has no legal move left anywhere on the board.
// The game is then decided on Score; equal scores draw.
func (b *Board) Winner() (Result, bool) {
	if b.hasMove(Dwarf) && b.hasMove(Troll) {
		return Result{}, false
	}
	dwarves, trolls := b.Score()
	switch {
	case dwarves > trolls:
		return Won(PlayerDwarf), true
	case trolls > dwarves:
		return Won(PlayerTroll), true
	}
	return Draw(), true
}

// Score returns (dwarf score, troll score). Each troll is worth four.
func (b *Board) Score() (int, int) {
	return len(b.Army(Dwarf)), len(b.Army(Troll)) * 4
}

func (b *Board) String() string {
	var out []byte
	for y := Size - 1; y >= 0; y-- {
		for x := 0; x < Size; x++ {
			ch := byte(' ')
			if inRegion(x, y) {
				ch = ".dTO"[b.squares[x][y]]
			}
			out = append(out, ch)
		}
		out = append(out, '\n')
	}
	return string(out)
}
