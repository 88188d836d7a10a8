package app

import "github.com/google/uuid"

// NewID returns a fresh random identifier for games and players.
func NewID() string {
	return uuid.NewString()
}
