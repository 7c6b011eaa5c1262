package slizzai

import (
	"image"

	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

// FrameBuffer is the rectangular RGBA pixel buffer a run assembles into.
//
// The buffer is sized at the enhanced scale: config dimensions times the
// enhancement factor. Only the scheduler writes to it during a run; after
// the run it is owned by the caller.
type FrameBuffer struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel
}

// NewFrameBuffer creates a zeroed frame buffer.
// Returns nil for non-positive dimensions.
func NewFrameBuffer(width, height int) *FrameBuffer {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the buffer width in pixels.
func (f *FrameBuffer) Width() int {
	return f.width
}

// Height returns the buffer height in pixels.
func (f *FrameBuffer) Height() int {
	return f.height
}

// Data returns the raw pixel data (RGBA format).
func (f *FrameBuffer) Data() []uint8 {
	return f.data
}

// WriteRegion copies a tile's RGBA pixels into the region r of the
// buffer. The pixel slice must hold exactly r.W*r.H*4 bytes and the
// region must lie inside the buffer; otherwise nothing is written and
// WriteRegion returns false.
func (f *FrameBuffer) WriteRegion(r partition.Rect, pix []uint8) bool {
	if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 ||
		r.X+r.W > f.width || r.Y+r.H > f.height {
		return false
	}
	if len(pix) != r.W*r.H*4 {
		return false
	}

	rowBytes := r.W * 4
	for row := 0; row < r.H; row++ {
		dst := ((r.Y+row)*f.width + r.X) * 4
		src := row * rowBytes
		copy(f.data[dst:dst+rowBytes], pix[src:src+rowBytes])
	}
	return true
}

// ToImage converts the buffer to an image.RGBA sharing no storage with it.
func (f *FrameBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.data)
	return img
}
