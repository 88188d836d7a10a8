package domain

import (
	"encoding/json"
	"fmt"
)

// ActionKind names the three things a player can do on their turn.
type ActionKind uint8

const (
	ActionMove ActionKind = iota
	ActionAttack
	ActionCapture
)

var actionNames = [...]string{ActionMove: "move", ActionAttack: "attack", ActionCapture: "capture"}

func (k ActionKind) String() string {
	if int(k) >= len(actionNames) {
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
	return actionNames[k]
}

func (k ActionKind) MarshalText() ([]byte, error) {
	if int(k) >= len(actionNames) {
		return nil, fmt.Errorf("%w: unknown action kind %d", ErrBadAction, uint8(k))
	}
	return []byte(actionNames[k]), nil
}

func (k *ActionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseActionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseActionKind looks an action kind up by name.
func ParseActionKind(name string) (ActionKind, error) {
	for i, n := range actionNames {
		if n == name {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrBadAction, name)
}

// Action is one call against a Game, recorded so a game can be replayed. Captures ignore To
// (CaptureAction sets it to From so it always encodes as a real square); only captures use
// Directions.
type Action struct {
	Kind       ActionKind  `json:"kind"`
	From       Coord       `json:"from"`
	To         Coord       `json:"to"`
	Directions []Direction `json:"directions,omitempty"`
}

// UnmarshalJSON decodes an action and requires the squares its kind acts on. A capture takes
// To from From.
func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.From.Valid() {
		return fmt.Errorf("%w: %s needs from", ErrInvalidPosition, raw.Kind)
	}
	if raw.Kind == ActionCapture {
		raw.To = raw.From
	} else if !raw.To.Valid() {
		return fmt.Errorf("%w: %s needs to", ErrInvalidPosition, raw.Kind)
	}
	*a = Action(raw)
	return nil
}

// CaptureAction builds the capture action for the troll at src.
func CaptureAction(src Coord, dirs []Direction) Action {
	return Action{Kind: ActionCapture, From: src, To: src, Directions: dirs}
}

// Apply dispatches a to MovePiece, Attack or TrollCapture and returns the number of dwarves
// captured, which is zero for moves and attacks.
func (g *Game) Apply(a Action) (int, error) {
	switch a.Kind {
	case ActionMove:
		return 0, g.MovePiece(a.From, a.To)
	case ActionAttack:
		return 0, g.Attack(a.From, a.To)
	case ActionCapture:
		return g.TrollCapture(a.From, a.Directions)
	}
	return 0, fmt.Errorf("%w: unknown action %s", ErrBadAction, a.Kind)
}
