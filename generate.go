package chessgen

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/chessgen/game"
	"github.com/chessgen/render"
)

// Generator drives single episodes: a uniformly random walk over legal
// moves, one sample per transition plus the initial sample. Generators are
// not safe for concurrent use; the batch runner creates one per episode.
type Generator struct {
	rng            *rand.Rand
	renderer       render.Renderer
	logger         *zap.Logger
	windowLength   int
	maxTransitions int
	placeholder    render.Frame
}

// NewGenerator builds a generator from conf. rng must be seeded by the
// caller so runs are reproducible. A nil logger disables logging.
func NewGenerator(conf Config, renderer render.Renderer, rng *rand.Rand, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		rng:            rng,
		renderer:       renderer,
		logger:         logger,
		windowLength:   conf.WindowLength,
		maxTransitions: conf.MaxTransitions,
		placeholder:    render.Placeholder(conf.FrameSize),
	}
}

// Run plays one episode from initial until the rules engine reports a
// terminal state, the legal-move set empties, or the transition cap hits.
// The returned episode is owned by the caller; the generator keeps
// nothing.
func (g *Generator) Run(index int, initial game.State) Episode {
	win := NewWindow(g.windowLength, g.placeholder)
	state := initial

	first := g.renderFrame(state)
	samples := []Sample{{
		Context: win.Observe(first),
		Action:  game.MoveBegin,
		Target:  first,
		Index:   0,
	}}

	transitions := 0
	for !state.Terminal() {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			break
		}
		if g.maxTransitions > 0 && transitions >= g.maxTransitions {
			samples[len(samples)-1].Truncated = true
			g.logger.Warn("episode truncated at transition cap",
				zap.Int("episode", index),
				zap.Int("cap", g.maxTransitions))
			break
		}

		next, move, ok := g.step(state, moves)
		if !ok {
			// Every reported-legal move was rejected. Nothing left to
			// play, so the position is effectively terminal.
			g.logger.Warn("all legal moves rejected, ending episode",
				zap.Int("episode", index),
				zap.String("fen", state.FEN()))
			break
		}
		state = next
		transitions++

		frame := g.renderFrame(state)
		samples = append(samples, Sample{
			Context: win.Observe(frame),
			Action:  move,
			Target:  frame,
			Index:   transitions,
		})
	}

	g.logger.Debug("episode complete",
		zap.Int("episode", index),
		zap.Int("transitions", transitions),
		zap.Int("samples", len(samples)))
	return Episode{Index: index, Samples: samples}
}

// step picks a legal move uniformly at random and applies it. A rejected
// apply is a rules-engine contract violation: it is logged, the move is
// dropped from the candidate set, and another is drawn. The episode is
// never aborted for it.
func (g *Generator) step(state game.State, moves []game.Move) (game.State, game.Move, bool) {
	candidates := append([]game.Move(nil), moves...)
	for len(candidates) > 0 {
		i := g.rng.Intn(len(candidates))
		m := candidates[i]
		next, err := state.Apply(m)
		if err == nil {
			return next, m, true
		}
		g.logger.Warn("rules engine rejected a reported-legal move",
			zap.String("move", string(m)),
			zap.String("fen", state.FEN()),
			zap.Error(err))
		candidates[i] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
	}
	return nil, "", false
}

// renderFrame renders state, substituting the placeholder on failure.
// Rendering failure never aborts an episode.
func (g *Generator) renderFrame(state game.State) render.Frame {
	f, err := g.renderer.Render(state)
	if err != nil {
		g.logger.Warn("render failed, substituting placeholder",
			zap.String("fen", state.FEN()),
			zap.Error(err))
		return g.placeholder.Clone()
	}
	return f
}
