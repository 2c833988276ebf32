package game

import "github.com/pkg/errors"

// Move encodes a chess move with UCI notation
type Move string

// MoveBegin is the sentinel action paired with the first sample of an
// episode, before any move has been made.
const MoveBegin = Move("begin")

// ErrInvalidMove is returned by Apply when the rules engine rejects a move
// for the current position.
var ErrInvalidMove = errors.New("move is not legal in this position")

// State is any game that implements these and is able to report back
type State interface {
	LegalMoves() []Move          // all moves playable from this position
	Terminal() bool              // has the game ended?
	Apply(m Move) (State, error) // play a move. The side to move has to change.
	FEN() string                 // position identifier, used for logging
}
