package domain

import (
	"encoding/json"
	"fmt"
)

// Size is the side length of the square the octagonal board is cut from.
const Size = 15

// Coord addresses one playable square. Only squares inside the octagon can be constructed,
// so a Coord obtained from NewCoord is always safe to index the board with. The zero Coord
// addresses nothing: it is not (0,0), and every board operation rejects it.
type Coord struct {
	x, y int
	ok   bool
}

func inRegion(x, y int) bool {
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return false
	}
	sum := x + y
	return sum >= 5 && sum <= 23 && Size-x+y >= 6 && Size+x-y >= 6
}

// NewCoord builds a coordinate from zero-based axes, (0,0) being the bottom-left corner of the
// enclosing square (which is itself cut off the board).
func NewCoord(x, y int) (Coord, error) {
	if !inRegion(x, y) {
		return Coord{}, fmt.Errorf("%w: (%d,%d)", ErrInvalidPosition, x, y)
	}
	return Coord{x: x, y: y, ok: true}, nil
}

// NewCoordOneBased builds a coordinate from one-based axes.
func NewCoordOneBased(x, y int) (Coord, error) {
	return NewCoord(x-1, y-1)
}

// MustCoord is NewCoord for literals known to be on the board. It panics otherwise.
func MustCoord(x, y int) Coord {
	c, err := NewCoord(x, y)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether c was built by NewCoord (or derived from one) rather than left zero.
func (c Coord) Valid() bool { return c.ok }

// Value returns the zero-based axes.
func (c Coord) Value() (int, int) { return c.x, c.y }

// X returns the zero-based column.
func (c Coord) X() int { return c.x }

// Y returns the zero-based row.
func (c Coord) Y() int { return c.y }

// MaxAxisDistance is the Chebyshev distance between two squares, which is the length of any
// orthogonal or diagonal move between them.
func (c Coord) MaxAxisDistance(other Coord) int {
	return max(abs(c.x-other.x), abs(c.y-other.y))
}

func (c Coord) String() string {
	if !c.ok {
		return "(none)"
	}
	return fmt.Sprintf("(%d,%d)", c.x, c.y)
}

type coordJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MarshalJSON encodes the coordinate as {"x":..,"y":..}, or null for the zero Coord.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.ok {
		return []byte("null"), nil
	}
	return json.Marshal(coordJSON{X: c.x, Y: c.y})
}

// UnmarshalJSON decodes {"x":..,"y":..} and rejects squares off the board, null included.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var raw coordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewCoord(raw.X, raw.Y)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var allCoords = func() []Coord {
	out := make([]Coord, 0, 165)
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if inRegion(x, y) {
				out = append(out, Coord{x: x, y: y, ok: true})
			}
		}
	}
	return out
}()

// AllCoords returns every playable square in x-major order.
func AllCoords() []Coord {
	out := make([]Coord, len(allCoords))
	copy(out, allCoords)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
