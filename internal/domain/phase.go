package domain

// PhaseKind tags which of the three turn phases a Phase is.
type PhaseKind uint8

const (
	// PhaseNominal: a player is to act and has not done anything yet.
	PhaseNominal PhaseKind = iota
	// PhasePostTrollMove: a troll has moved or shoved and its captures are pending.
	PhasePostTrollMove
	// PhaseEnded: the game is over.
	PhaseEnded
)

// Phase is where a game stands in its turn cycle. Only the data belonging to Kind is
// meaningful; build one with NominalPhase, PostTrollMovePhase or EndedPhase.
type Phase struct {
	kind     PhaseKind
	player   Player
	attacked bool
	result   Result
}

// NominalPhase is the start of p's turn.
func NominalPhase(p Player) Phase { return Phase{kind: PhaseNominal, player: p} }

// PostTrollMovePhase follows a troll move, or a shove when attacked is set; the trolls resolve
// captures next.
func PostTrollMovePhase(attacked bool) Phase {
	return Phase{kind: PhasePostTrollMove, attacked: attacked}
}

// EndedPhase is a finished game with result r.
func EndedPhase(r Result) Phase { return Phase{kind: PhaseEnded, result: r} }

// Kind reports which phase p is.
func (p Phase) Kind() PhaseKind { return p.kind }

// Player is the army to act in a nominal phase.
func (p Phase) Player() (Player, bool) {
	return p.player, p.kind == PhaseNominal
}

// Attacked reports whether a post-move phase follows a shove, making a capture mandatory.
func (p Phase) Attacked() bool {
	return p.kind == PhasePostTrollMove && p.attacked
}

// Result is the outcome of an ended phase.
func (p Phase) Result() (Result, bool) {
	return p.result, p.kind == PhaseEnded
}

func (p Phase) String() string {
	switch p.kind {
	case PhaseNominal:
		return "nominal(" + p.player.String() + ")"
	case PhasePostTrollMove:
		if p.attacked {
			return "post_troll_move(attack)"
		}
		return "post_troll_move"
	}
	return "ended(" + p.result.String() + ")"
}
