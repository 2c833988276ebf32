package game

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Chess implements State on top of notnil/chess. It owns the underlying
// game; Apply advances it in place and returns the same value, which is
// what a forward-only episode walk needs.
type Chess struct {
	game *chess.Game
}

// NewChess returns a fresh game in the standard starting position.
func NewChess() *Chess {
	return &Chess{game: chess.NewGame()}
}

// NewChessFEN starts a game from an arbitrary position.
func NewChessFEN(fen string) (*Chess, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrap(err, "parse fen")
	}
	return &Chess{game: chess.NewGame(opt)}, nil
}

func (c *Chess) LegalMoves() []Move {
	valid := c.game.ValidMoves()
	moves := make([]Move, len(valid))
	for i, m := range valid {
		moves[i] = Move(m.String())
	}
	return moves
}

func (c *Chess) Terminal() bool {
	return c.game.Outcome() != chess.NoOutcome
}

func (c *Chess) Apply(m Move) (State, error) {
	for _, vm := range c.game.ValidMoves() {
		if Move(vm.String()) != m {
			continue
		}
		if err := c.game.Move(vm); err != nil {
			return c, errors.Wrapf(ErrInvalidMove, "%s: %v", m, err)
		}
		return c, nil
	}
	return c, errors.Wrapf(ErrInvalidMove, "%s", m)
}

func (c *Chess) FEN() string {
	return c.game.FEN()
}

// Board exposes the raw position for rendering.
func (c *Chess) Board() *chess.Board {
	return c.game.Position().Board()
}

// Turn returns the color to move next.
func (c *Chess) Turn() chess.Color {
	return c.game.Position().Turn()
}

// Outcome reports how the game ended, or chess.NoOutcome while running.
func (c *Chess) Outcome() chess.Outcome {
	return c.game.Outcome()
}
