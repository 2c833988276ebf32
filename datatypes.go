package chessgen

import (
	"github.com/chessgen/game"
	"github.com/chessgen/render"
)

// Defaults for the generation pipeline.
const (
	DefaultWindowLength   = 4
	DefaultFrameSize      = 128
	DefaultMaxTransitions = 512
)

// Config for a generation run. It is an immutable value threaded through
// the pipeline; nothing reads configuration from process-wide state.
type Config struct {
	Episodes     int   `yaml:"episodes"`      // number of episodes to generate
	WindowLength int   `yaml:"window_length"` // frames per context window (K)
	FrameSize    int   `yaml:"frame_size"`    // rendered frame side length in pixels
	// MaxTransitions caps a single episode's random walk. 0 disables the
	// cap and relies on the rules engine's own terminal detection.
	MaxTransitions int    `yaml:"max_transitions"`
	Workers        int    `yaml:"workers"` // episodes resident at once; <=1 is sequential
	Seed           int64  `yaml:"seed"`    // base seed; episode i uses Seed+i
	StoreDir       string `yaml:"store_dir"`
}

// DefaultConfig returns a config suitable for a small generation run.
func DefaultConfig(storeDir string) Config {
	return Config{
		Episodes:       1,
		WindowLength:   DefaultWindowLength,
		FrameSize:      DefaultFrameSize,
		MaxTransitions: DefaultMaxTransitions,
		Workers:        1,
		StoreDir:       storeDir,
	}
}

func (c Config) IsValid() bool {
	return c.Episodes >= 1 &&
		c.WindowLength >= 1 &&
		c.FrameSize >= 8 &&
		c.MaxTransitions >= 0 &&
		c.StoreDir != ""
}

// Sample is one supervised example: the window snapshot before the action,
// the action taken, and the frame observed after it. Context and Target
// are value copies; they never alias the live window.
type Sample struct {
	Context []render.Frame
	Action  game.Move
	Target  render.Frame
	Index   int
	// Truncated marks the final sample of an episode that was ended by
	// the transition cap rather than by the rules engine.
	Truncated bool
}

// Episode is one complete game expressed as an ordered sample sequence:
// an initial sample with the sentinel action plus one per transition.
type Episode struct {
	Index   int
	Samples []Sample
}

// ShardWriter persists one episode's samples as an independent unit.
// *Store is the production implementation.
type ShardWriter interface {
	Write(index int, samples []Sample) (string, error)
}

// EpisodeReport describes one successfully persisted episode.
type EpisodeReport struct {
	Index     int
	Samples   int
	Truncated bool
}

// Report summarizes a batch generation run.
type Report struct {
	Episodes     []EpisodeReport // persisted episodes, ascending index
	TotalSamples int
	Failed       int     // episodes lost to persistence failures
	MeanLength   float64 // mean samples per persisted episode
	StdLength    float64
}
