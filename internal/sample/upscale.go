package sample

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/Slizzurp/SlizzAi-3/internal/compress"
)

// Upscaler is a local, in-process super-sampling collaborator.
//
// It decodes the payload back to raw RGBA and scales it with Catmull-Rom
// interpolation. Payloads carrying a codec header are decompressed;
// headerless payloads are taken as raw RGBA, which is what the
// pass-through fallback ships when no compression level satisfies the
// fidelity ceiling. It exists so the pipeline runs end to end without a
// network service, and so tests have a deterministic collaborator.
// Output is raw RGBA, Factor times the tile size in each dimension.
//
// Upscaler is stateless and safe for concurrent use.
type Upscaler struct{}

// Enhance decodes and upscales the tile.
//
// Payloads that do not decode, or whose decoded size does not match the
// declared tile geometry, are fatal: the payload itself is malformed and
// no retry can fix it.
func (Upscaler) Enhance(ctx context.Context, req Request) ([]byte, error) {
	if req.Factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, req.Factor)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := req.Payload
	if compress.Encoded(raw) {
		var err error
		raw, err = compress.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFatal, err)
		}
	}
	if len(raw) != req.Width*req.Height*4 {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d for %dx%d RGBA",
			ErrFatal, len(raw), req.Width*req.Height*4, req.Width, req.Height)
	}

	src := &image.RGBA{
		Pix:    raw,
		Stride: req.Width * 4,
		Rect:   image.Rect(0, 0, req.Width, req.Height),
	}

	if req.Factor == 1 {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, req.Width*req.Factor, req.Height*req.Factor))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst.Pix, nil
}
