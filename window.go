package chessgen

import "github.com/chessgen/render"

// Window is a fixed-length FIFO of the most recent frames, oldest first.
// It is backed by a ring buffer; everything handed out is a value copy, so
// later pushes never mutate an emitted snapshot.
type Window struct {
	frames []render.Frame
	head   int // index of the oldest frame
}

// NewWindow returns a window seeded with length copies of placeholder.
func NewWindow(length int, placeholder render.Frame) *Window {
	if length < 1 {
		panic("window length must be at least 1")
	}
	frames := make([]render.Frame, length)
	for i := range frames {
		frames[i] = placeholder.Clone()
	}
	return &Window{frames: frames}
}

// Len returns the window length. It is constant for the window's lifetime.
func (w *Window) Len() int { return len(w.frames) }

// Snapshot copies the current contents, oldest to newest.
func (w *Window) Snapshot() []render.Frame {
	out := make([]render.Frame, len(w.frames))
	for i := range out {
		out[i] = w.frames[(w.head+i)%len(w.frames)].Clone()
	}
	return out
}

// Push evicts the oldest frame and records f as the newest.
func (w *Window) Push(f render.Frame) {
	w.frames[w.head] = f.Clone()
	w.head = (w.head + 1) % len(w.frames)
}

// Observe returns the snapshot as of before f, then pushes f.
func (w *Window) Observe(f render.Frame) []render.Frame {
	snap := w.Snapshot()
	w.Push(f)
	return snap
}
