package domain

import "fmt"

// Piece is the occupant of a square. Empty is a piece like any other so the grid never holds
// a missing value.
type Piece uint8

const (
	Empty Piece = iota
	Dwarf
	Troll
	Thudstone
)

var pieceNames = [...]string{
	Empty:     "empty",
	Dwarf:     "dwarf",
	Troll:     "troll",
	Thudstone: "thudstone",
}

// Int is the flat encoding used by external adapters: 0 empty, 1 dwarf, 2 troll, 3 thudstone.
func (p Piece) Int() int { return int(p) }

// PieceFromInt reverses Int.
func PieceFromInt(v int) (Piece, error) {
	if v < 0 || v >= len(pieceNames) {
		return Empty, fmt.Errorf("%w: piece %d", ErrUnknownValue, v)
	}
	return Piece(v), nil
}

func (p Piece) String() string {
	if int(p) >= len(pieceNames) {
		return fmt.Sprintf("Piece(%d)", uint8(p))
	}
	return pieceNames[p]
}

// MarshalText encodes the piece by its lowercase name.
func (p Piece) MarshalText() ([]byte, error) {
	if int(p) >= len(pieceNames) {
		return nil, fmt.Errorf("%w: piece %d", ErrUnknownValue, uint8(p))
	}
	return []byte(pieceNames[p]), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *Piece) UnmarshalText(text []byte) error {
	for i, n := range pieceNames {
		if n == string(text) {
			*p = Piece(i)
			return nil
		}
	}
	return fmt.Errorf("%w: piece %q", ErrUnknownValue, text)
}

// Player is one of the two armies.
type Player uint8

const (
	PlayerDwarf Player = iota + 1
	PlayerTroll
)

// Piece returns the piece kind the player commands.
func (p Player) Piece() Piece {
	switch p {
	case PlayerDwarf:
		return Dwarf
	case PlayerTroll:
		return Troll
	}
	return Empty
}

// Other returns the opposing army.
func (p Player) Other() Player {
	if p == PlayerDwarf {
		return PlayerTroll
	}
	return PlayerDwarf
}

// Int is the flat encoding: 1 dwarf, 2 troll.
func (p Player) Int() int { return int(p) }

func (p Player) String() string {
	switch p {
	case PlayerDwarf:
		return "dwarf"
	case PlayerTroll:
		return "troll"
	}
	return "none"
}

func (p Player) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Player) UnmarshalText(text []byte) error {
	switch string(text) {
	case "dwarf":
		*p = PlayerDwarf
	case "troll":
		*p = PlayerTroll
	default:
		return fmt.Errorf("%w: player %q", ErrUnknownValue, text)
	}
	return nil
}

// Result is how a finished game ended: won by one army, or drawn.
type Result struct {
	winner Player
}

// Won is the result of a game taken by p.
func Won(p Player) Result { return Result{winner: p} }

// Draw is the result of a game with equal scores.
func Draw() Result { return Result{} }

// Winner returns the winning army, or false for a draw.
func (r Result) Winner() (Player, bool) {
	return r.winner, r.winner != 0
}

// IsDraw reports whether neither army won.
func (r Result) IsDraw() bool { return r.winner == 0 }

// Int is the flat encoding: 1 dwarf won, 2 troll won, 3 draw.
func (r Result) Int() int {
	if r.IsDraw() {
		return 3
	}
	return r.winner.Int()
}

func (r Result) String() string {
	if r.IsDraw() {
		return "draw"
	}
	return r.winner.String() + " won"
}
