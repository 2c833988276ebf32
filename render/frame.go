// Package render turns game states into fixed-size raster frames.
package render

import (
	"bytes"

	"github.com/chessgen/game"
)

// Channels is the number of color channels per pixel. Frames are RGB.
const Channels = 3

// Frame is a raster image in row-major interleaved RGB order. A Frame is
// immutable once produced; anything that stores one keeps its own copy.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Clone returns a deep copy that shares no pixel storage with f.
func (f Frame) Clone() Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return Frame{Width: f.Width, Height: f.Height, Channels: f.Channels, Pix: pix}
}

// Eq reports whether two frames have identical geometry and pixel data.
func (f Frame) Eq(other Frame) bool {
	return f.Width == other.Width &&
		f.Height == other.Height &&
		f.Channels == other.Channels &&
		bytes.Equal(f.Pix, other.Pix)
}

const placeholderGray = 0x80

// Placeholder returns the neutral frame substituted when rendering is
// unavailable: a uniform mid-gray square of the given side length.
func Placeholder(size int) Frame {
	pix := make([]uint8, size*size*Channels)
	for i := range pix {
		pix[i] = placeholderGray
	}
	return Frame{Width: size, Height: size, Channels: Channels, Pix: pix}
}

// Renderer maps a game state to a frame. Implementations must be safe for
// use from concurrent episodes only if shared; the batch runner gives each
// episode its own renderer.
type Renderer interface {
	Render(s game.State) (Frame, error)
}
