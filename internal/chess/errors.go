package chess

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
	ErrNoHistory   = errors.New("no move to undo")
)

// ParseError reports malformed FEN, square, coordinate or SAN input.
type ParseError struct {
	Kind   string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %s", e.Kind, e.Input, e.Reason)
}

func illegal(m Move, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrIllegalMove, m, reason)
}
