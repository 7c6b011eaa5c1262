package slizzai

import (
	"context"
	"fmt"

	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

// Rasterizer is the external 3D engine collaborator. Given a tile's
// region it returns the tile's raw RGBA payload (r.W*r.H*4 bytes), or an
// error when the region is invalid or the engine is unavailable.
// Implementations must be safe for concurrent use; the pipeline calls
// Rasterize from multiple workers.
type Rasterizer interface {
	Rasterize(ctx context.Context, r partition.Rect) ([]byte, error)
}

// GradientRasterizer is a built-in synthetic engine producing a smooth
// two-axis gradient. It stands in for a real engine in the CLI and in
// tests; its output compresses predictably because neighboring pixels
// differ by small deltas.
type GradientRasterizer struct {
	// FrameWidth and FrameHeight are the full frame dimensions the
	// gradient spans.
	FrameWidth  int
	FrameHeight int
}

// Rasterize fills the region with the gradient. Regions outside the
// frame are rejected, matching how a real engine refuses invalid
// viewport requests.
func (g GradientRasterizer) Rasterize(ctx context.Context, r partition.Rect) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 ||
		r.X+r.W > g.FrameWidth || r.Y+r.H > g.FrameHeight {
		return nil, fmt.Errorf("rasterize: region %+v outside %dx%d frame",
			r, g.FrameWidth, g.FrameHeight)
	}

	pix := make([]byte, r.W*r.H*4)
	i := 0
	for y := r.Y; y < r.Y+r.H; y++ {
		gv := byte(y * 255 / max(g.FrameHeight-1, 1))
		for x := r.X; x < r.X+r.W; x++ {
			pix[i+0] = byte(x * 255 / max(g.FrameWidth-1, 1))
			pix[i+1] = gv
			pix[i+2] = 96
			pix[i+3] = 255
			i += 4
		}
	}
	return pix, nil
}
