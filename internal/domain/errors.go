package domain

import (
	"errors"
	"fmt"
)

// Errors returned by domain operations.
var (
	ErrInvalidPosition = errors.New("position outside the board")
	ErrIllegalMove     = errors.New("illegal move")
	ErrObstacle        = errors.New("path obstructed")
	ErrLineTooShort    = errors.New("supporting line too short")
	ErrMath            = errors.New("no straight route")
	ErrBadAction       = errors.New("action not allowed in this phase")
	ErrUnknownValue    = errors.New("unknown value")
)

// ObstacleError reports the first occupied square found between a source and a target.
type ObstacleError struct {
	At Coord
}

func (e *ObstacleError) Error() string {
	return fmt.Sprintf("path obstructed at %s", e.At)
}

func (e *ObstacleError) Unwrap() error { return ErrObstacle }

// LineTooShortError reports a shove or hurl that travels further than its supporting line allows.
type LineTooShortError struct {
	Required  int
	Available int
}

func (e *LineTooShortError) Error() string {
	return fmt.Sprintf("supporting line too short: need %d, have %d", e.Required, e.Available)
}

func (e *LineTooShortError) Unwrap() error { return ErrLineTooShort }
