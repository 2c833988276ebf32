package game

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChessStartingPosition(t *testing.T) {
	g := NewChess()
	assert.False(t, g.Terminal())
	assert.Len(t, g.LegalMoves(), 20)
}

func TestApplyAdvancesTurn(t *testing.T) {
	g := NewChess()
	require.Equal(t, chess.White, g.Turn())

	next, err := g.Apply("e2e4")
	require.NoError(t, err)
	assert.Equal(t, chess.Black, next.(*Chess).Turn())
	assert.Contains(t, next.FEN(), " b ")
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	g := NewChess()
	_, err := g.Apply("e2e5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMove))
}

func TestFoolsMateIsTerminal(t *testing.T) {
	var s State = NewChess()
	for _, m := range []Move{"f2f3", "e7e5", "g2g4", "d8h4"} {
		var err error
		s, err = s.Apply(m)
		require.NoError(t, err)
	}
	assert.True(t, s.Terminal())
	assert.Empty(t, s.LegalMoves())
}

func TestNewChessFEN(t *testing.T) {
	// stalemate: black to move, no legal moves, not in check
	g, err := NewChessFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.Empty(t, g.LegalMoves())

	_, err = NewChessFEN("not a position")
	require.Error(t, err)
}
