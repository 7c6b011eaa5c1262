// Package partition decomposes a frame into an ordered sequence of tiles.
//
// The partitioner produces exactly N rectangular tiles whose union covers
// the frame once with no gaps or overlaps. Each tile carries an admission
// weight drawn from a golden-ratio low-discrepancy sequence, so that a run
// cut short after admitting only a prefix of the tiles has already touched
// regions spread across the whole frame rather than a single cluster.
//
// All functions are pure; the package holds no state.
package partition

import (
	"math"
	"slices"
)

// Phi is the golden ratio, the spacing constant for admission weights.
const Phi = 1.6180339887498948

// Rect is a rectangular region of the frame in pixel space.
// X,Y is the top-left corner; W,H the extent.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Area returns the number of pixels covered by the rectangle.
func (r Rect) Area() int {
	return r.W * r.H
}

// Contains reports whether the pixel (px, py) lies inside the rectangle.
func (r Rect) Contains(px, py int) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// Tile is one unit of renderable work produced by Plan.
//
// Tiles are immutable after planning. ID is the tile's row-major index in
// the plan and is stable for the tile's lifetime. Weight orders admission:
// lower weight is admitted earlier, ties broken by ID.
type Tile struct {
	// ID is the tile's row-major index within the plan.
	ID int

	// Region is the tile's pixel region within the frame.
	Region Rect

	// Weight is the golden-ratio admission weight, the fractional part
	// of (ID+1) * Phi. Always in [0, 1).
	Weight float64
}

// Plan partitions a width x height frame into exactly n tiles.
//
// The tiling is an integer-boundary grid: rows are chosen from the frame's
// aspect ratio, columns per row are balanced so the cell count is exactly n.
// Edge cells absorb the rounding remainder, so edge tiles may be slightly
// larger or smaller than interior ones (the same treatment edge tiles get
// in a fixed-size tile grid).
//
// Returns ErrInvalidPartition if n <= 0, either dimension is non-positive,
// or n exceeds the frame's pixel count (a non-empty cover is impossible).
func Plan(width, height, n int) ([]Tile, error) {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil, ErrInvalidPartition
	}
	if n > width*height {
		return nil, ErrInvalidPartition
	}

	rows := planRows(width, height, n)

	// Distribute n cells across the rows: the first (n mod rows) rows get
	// one extra cell.
	base := n / rows
	extra := n % rows

	tiles := make([]Tile, 0, n)
	id := 0
	for row := 0; row < rows; row++ {
		cols := base
		if row < extra {
			cols++
		}

		// Integer boundaries guarantee exact cover: row r spans
		// [r*height/rows, (r+1)*height/rows).
		y0 := row * height / rows
		y1 := (row + 1) * height / rows

		for col := 0; col < cols; col++ {
			x0 := col * width / cols
			x1 := (col + 1) * width / cols

			tiles = append(tiles, Tile{
				ID:     id,
				Region: Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0},
				Weight: weightFor(id),
			})
			id++
		}
	}

	return tiles, nil
}

// planRows picks a row count that roughly squares the cells against the
// frame's aspect ratio, then adjusts it until every row and column is at
// least one pixel tall and wide.
func planRows(width, height, n int) int {
	rows := int(math.Round(math.Sqrt(float64(n) * float64(height) / float64(width))))
	if rows < 1 {
		rows = 1
	}
	if rows > n {
		rows = n
	}
	if rows > height {
		rows = height
	}
	// Widen: the widest row has ceil(n/rows) cells and must fit in width.
	for (n+rows-1)/rows > width {
		rows++
	}
	return rows
}

// weightFor returns the admission weight for tile id: frac((id+1) * Phi).
func weightFor(id int) float64 {
	w := float64(id+1) * Phi
	return w - math.Floor(w)
}

// OrderByWeight returns a copy of tiles sorted into admission order:
// ascending weight, ties broken by ascending ID. The input is not modified.
func OrderByWeight(tiles []Tile) []Tile {
	out := slices.Clone(tiles)
	slices.SortStableFunc(out, func(a, b Tile) int {
		switch {
		case a.Weight < b.Weight:
			return -1
		case a.Weight > b.Weight:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}
