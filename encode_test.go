package chessgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestBatchesShapes(t *testing.T) {
	episodes := []Episode{
		randomEpisode(0, 3, 2, 4),
		randomEpisode(1, 3, 2, 4),
	}

	xs, targets, batches, err := Batches(episodes, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, batches)

	// 6 samples, K=2 windows of 4x4 RGB frames stacked channel-wise
	assert.Equal(t, tensor.Shape{6, 6, 4, 4}, xs.Shape())
	assert.Equal(t, tensor.Shape{6, 3, 4, 4}, targets.Shape())

	for _, v := range xs.Data().([]float32) {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}

func TestBatchesDropsRemainder(t *testing.T) {
	episodes := []Episode{randomEpisode(0, 5, 1, 4)}

	xs, _, batches, err := Batches(episodes, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, 4, xs.Shape()[0])
}

func TestBatchesTooFewSamples(t *testing.T) {
	episodes := []Episode{randomEpisode(0, 1, 1, 4)}
	_, _, _, err := Batches(episodes, 8)
	require.Error(t, err)
}

func TestBatchesRejectsBadBatchSize(t *testing.T) {
	_, _, _, err := Batches(nil, 0)
	require.Error(t, err)
}
