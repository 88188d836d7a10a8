package domain

import "fmt"

// Direction is one of the eight compass directions a piece can travel in.
// Up increases y, Right increases x.
type Direction uint8

const (
	Up Direction = iota
	UpRight
	Right
	DownRight
	Down
	DownLeft
	Left
	UpLeft
)

var directionDeltas = [8][2]int{
	Up:        {0, 1},
	UpRight:   {1, 1},
	Right:     {1, 0},
	DownRight: {1, -1},
	Down:      {0, -1},
	DownLeft:  {-1, -1},
	Left:      {-1, 0},
	UpLeft:    {-1, 1},
}

var directionNames = [8]string{
	Up:        "up",
	UpRight:   "up_right",
	Right:     "right",
	DownRight: "down_right",
	Down:      "down",
	DownLeft:  "down_left",
	Left:      "left",
	UpLeft:    "up_left",
}

// AllDirections returns the eight directions in their fixed order.
func AllDirections() []Direction {
	return []Direction{Up, UpRight, Right, DownRight, Down, DownLeft, Left, UpLeft}
}

// DirectionFromIndex maps 0..7 onto the directions in AllDirections order.
func DirectionFromIndex(i int) (Direction, error) {
	if i < 0 || i >= len(directionDeltas) {
		return 0, fmt.Errorf("%w: direction index %d", ErrMath, i)
	}
	return Direction(i), nil
}

// DirectionFromRoute returns the direction pointing from start to end. The two squares must
// differ and lie on a common row, column or 45 degree diagonal.
func DirectionFromRoute(start, end Coord) (Direction, error) {
	if !start.ok || !end.ok {
		return 0, fmt.Errorf("%w: route from %s to %s", ErrInvalidPosition, start, end)
	}
	dx, dy := end.x-start.x, end.y-start.y
	if dx == 0 && dy == 0 {
		return 0, fmt.Errorf("%w: %s to itself", ErrMath, start)
	}
	if dx != 0 && dy != 0 && abs(dx) != abs(dy) {
		return 0, fmt.Errorf("%w: %s to %s", ErrMath, start, end)
	}
	for d, delta := range directionDeltas {
		if delta[0] == sign(dx) && delta[1] == sign(dy) {
			return Direction(d), nil
		}
	}
	return 0, fmt.Errorf("%w: %s to %s", ErrMath, start, end)
}

func (d Direction) valid() bool { return int(d) < len(directionDeltas) }

// Delta returns the unit offset of one step in this direction.
func (d Direction) Delta() (int, int) {
	if !d.valid() {
		return 0, 0
	}
	return directionDeltas[d][0], directionDeltas[d][1]
}

// Step moves c one square in this direction. Stepping off the octagon is an error, never a wrap.
func (d Direction) Step(c Coord) (Coord, error) {
	if !d.valid() {
		return Coord{}, fmt.Errorf("%w: unknown direction %d", ErrMath, uint8(d))
	}
	if !c.ok {
		return Coord{}, fmt.Errorf("%w: step from %s", ErrInvalidPosition, c)
	}
	dx, dy := d.Delta()
	x, y := c.x+dx, c.y+dy
	if !inRegion(x, y) {
		return Coord{}, fmt.Errorf("%w: %s %s leaves the board", ErrMath, c, d)
	}
	return Coord{x: x, y: y, ok: true}, nil
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	if !d.valid() {
		return d
	}
	return (d + 4) % 8
}

func (d Direction) String() string {
	if !d.valid() {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// MarshalText encodes the direction by its lowercase name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, fmt.Errorf("%w: unknown direction %d", ErrMath, uint8(d))
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection looks a direction up by name.
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrMath, name)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
