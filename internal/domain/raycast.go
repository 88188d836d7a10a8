package domain

import "iter"

// Cast walks outward from origin in dir, one square at a time, yielding each square and its
// occupant until the next step would leave the board. The origin itself is never yielded.
// The sequence is lazy and can be ranged over any number of times.
func (b *Board) Cast(origin Coord, dir Direction) iter.Seq2[Coord, Piece] {
	return func(yield func(Coord, Piece) bool) {
		next, err := dir.Step(origin)
		for err == nil {
			if !yield(next, b.Get(next)) {
				return
			}
			next, err = dir.Step(next)
		}
	}
}

// Square pairs a coordinate with its occupant.
type Square struct {
	Coord Coord `json:"coord"`
	Piece Piece `json:"piece"`
}

// CastAll collects a full cast.
func (b *Board) CastAll(origin Coord, dir Direction) []Square {
	var out []Square
	for c, p := range b.Cast(origin, dir) {
		out = append(out, Square{Coord: c, Piece: p})
	}
	return out
}
