package chessgen

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/chessgen/render"
)

// Batches flattens loaded episodes into dense training tensors. Context
// frames are stacked channel-wise, so Xs has shape
// (batches*batchSize, K*channels, height, width) and Targets
// (batches*batchSize, channels, height, width). Samples beyond a whole
// number of batches are dropped, pixel values are scaled to [0, 1].
func Batches(episodes []Episode, batchSize int) (Xs, Targets *tensor.Dense, batches int, err error) {
	if batchSize < 1 {
		return nil, nil, 0, errors.Errorf("batch size %d", batchSize)
	}
	var samples []Sample
	for _, ep := range episodes {
		samples = append(samples, ep.Samples...)
	}
	batches = len(samples) / batchSize
	if batches == 0 {
		return nil, nil, 0, errors.New("too few samples for the batch size")
	}
	total := batches * batchSize

	first := samples[0]
	k := len(first.Context)
	w := first.Target.Width
	h := first.Target.Height
	c := first.Target.Channels

	xsBacking := make([]float32, 0, total*k*c*h*w)
	tBacking := make([]float32, 0, total*c*h*w)
	for i := 0; i < total; i++ {
		s := samples[i]
		if len(s.Context) != k {
			return nil, nil, 0, errors.Errorf("sample %d: context has %d frames, want %d", i, len(s.Context), k)
		}
		for _, f := range s.Context {
			xsBacking = appendPlanar(xsBacking, f)
		}
		tBacking = appendPlanar(tBacking, s.Target)
	}
	if !allFinite(xsBacking) || !allFinite(tBacking) {
		return nil, nil, 0, errors.New("encoded frames contain non-finite values")
	}

	Xs = tensor.New(tensor.WithBacking(xsBacking), tensor.WithShape(total, k*c, h, w))
	Targets = tensor.New(tensor.WithBacking(tBacking), tensor.WithShape(total, c, h, w))
	return Xs, Targets, batches, nil
}

// appendPlanar converts a frame from interleaved to planar channel order
// while scaling into [0, 1].
func appendPlanar(dst []float32, f render.Frame) []float32 {
	for ch := 0; ch < f.Channels; ch++ {
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				p := f.Pix[(y*f.Width+x)*f.Channels+ch]
				dst = append(dst, float32(p)/255)
			}
		}
	}
	return dst
}

func allFinite(vs []float32) bool {
	for _, v := range vs {
		if math32.IsInf(v, 0) || math32.IsNaN(v) {
			return false
		}
	}
	return true
}
