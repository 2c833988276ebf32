package chessgen

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chessgen/game"
	"github.com/chessgen/render"
)

func batchConf(dir string, episodes int) Config {
	return Config{
		Episodes:       episodes,
		WindowLength:   2,
		FrameSize:      16,
		MaxTransitions: 6,
		Workers:        2,
		Seed:           42,
		StoreDir:       dir,
	}
}

func TestGenerateBatch(t *testing.T) {
	dir := t.TempDir()
	conf := batchConf(dir, 3)

	report, err := Generate(context.Background(), conf, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, report.Episodes, 3)
	assert.Zero(t, report.Failed)

	total := 0
	for _, ep := range report.Episodes {
		// initial sample plus at most MaxTransitions transitions
		assert.GreaterOrEqual(t, ep.Samples, 1)
		assert.LessOrEqual(t, ep.Samples, conf.MaxTransitions+1)
		total += ep.Samples
	}
	assert.Equal(t, total, report.TotalSamples)
	assert.InDelta(t, float64(total)/3, report.MeanLength, 1e-9)

	episodes, discovered, err := Load(LoadConfig{StoreDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, discovered)
	require.Len(t, episodes, 3)

	ph := render.Placeholder(conf.FrameSize)
	for _, ep := range episodes {
		first := ep.Samples[0]
		assert.Equal(t, game.MoveBegin, first.Action)
		for _, f := range first.Context {
			assert.True(t, f.Eq(ph))
		}
	}
}

func TestGenerateIsSeedDeterministic(t *testing.T) {
	actions := func(dir string) [][]game.Move {
		conf := batchConf(dir, 2)
		conf.Workers = 1
		_, err := Generate(context.Background(), conf, nil)
		require.NoError(t, err)
		episodes, _, err := Load(LoadConfig{StoreDir: dir}, nil)
		require.NoError(t, err)
		out := make([][]game.Move, len(episodes))
		for i, ep := range episodes {
			for _, s := range ep.Samples {
				out[i] = append(out[i], s.Action)
			}
		}
		return out
	}

	first := actions(t.TempDir())
	second := actions(t.TempDir())
	assert.Equal(t, first, second)
}

// flakyWriter fails the write for one episode index.
type flakyWriter struct {
	inner     ShardWriter
	failIndex int
}

func (w *flakyWriter) Write(index int, samples []Sample) (string, error) {
	if index == w.failIndex {
		return "", &PersistenceError{Index: index, Err: pkgerrors.New("disk full")}
	}
	return w.inner.Write(index, samples)
}

func TestPersistenceFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	conf := batchConf(dir, 5)
	conf.Workers = 1
	report, err := generate(context.Background(), conf, &flakyWriter{inner: store, failIndex: 2}, zap.NewNop())

	require.Error(t, err)
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Index)

	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Episodes, 4)

	// the other episodes are durably written and independently loadable
	refs, err := store.List()
	require.NoError(t, err)
	require.Len(t, refs, 4)
	indices := []int{refs[0].Index, refs[1].Index, refs[2].Index, refs[3].Index}
	assert.Equal(t, []int{0, 1, 3, 4}, indices)

	episodes, err := store.Load(refs, 0)
	require.NoError(t, err)
	assert.Len(t, episodes, 4)
}

func TestGenerateCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Generate(ctx, batchConf(dir, 4), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Episodes)
	assert.Zero(t, report.TotalSamples)

	store, err := NewStore(dir)
	require.NoError(t, err)
	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	_, err := Generate(context.Background(), Config{}, nil)
	require.Error(t, err)
}
