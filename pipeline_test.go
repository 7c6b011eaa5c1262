package slizzai

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Slizzurp/SlizzAi-3/internal/partition"
	"github.com/Slizzurp/SlizzAi-3/internal/sample"
)

// ============================================================
// Test doubles
// ============================================================

// captureRaster records the order regions are rasterized in and fills
// each with a flat payload.
type captureRaster struct {
	mu      sync.Mutex
	regions []partition.Rect
	fail    int // first fail calls return an error
}

func (c *captureRaster) Rasterize(_ context.Context, r partition.Rect) ([]byte, error) {
	c.mu.Lock()
	c.regions = append(c.regions, r)
	n := len(c.regions)
	c.mu.Unlock()
	if n <= c.fail {
		return nil, errors.New("engine unavailable")
	}
	pix := make([]byte, r.W*r.H*4)
	for i := range pix {
		pix[i] = 0x80
	}
	return pix, nil
}

// scriptDispatcher answers Enhance calls from a fixed error script; past
// the script's end every call succeeds with a correctly sized payload.
type scriptDispatcher struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (d *scriptDispatcher) Enhance(_ context.Context, req sample.Request) ([]byte, error) {
	d.mu.Lock()
	n := d.calls
	d.calls++
	d.mu.Unlock()
	if n < len(d.errs) && d.errs[n] != nil {
		return nil, d.errs[n]
	}
	return make([]byte, req.Width*req.Factor*req.Height*req.Factor*4), nil
}

func (d *scriptDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func testConfig() Config {
	return Config{
		Width:               32,
		Height:              32,
		TileCount:           4,
		BudgetLimit:         100,
		MaxConcurrency:      2,
		FidelityLossCeiling: 0.05,
		RetryLimit:          1,
		SuperSampleTimeout:  time.Second,
		EnhanceFactor:       1,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ============================================================
// Construction
// ============================================================

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TileCount = 0
	_, err := NewPipeline(cfg, &captureRaster{}, &scriptDispatcher{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewPipeline error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewPipeline_NilCollaborators(t *testing.T) {
	cfg := testConfig()
	if _, err := NewPipeline(cfg, nil, &scriptDispatcher{}); !errors.Is(err, ErrNilCollaborator) {
		t.Fatalf("nil rasterizer error = %v, want ErrNilCollaborator", err)
	}
	if _, err := NewPipeline(cfg, &captureRaster{}, nil); !errors.Is(err, ErrNilCollaborator) {
		t.Fatalf("nil dispatcher error = %v, want ErrNilCollaborator", err)
	}
}

// ============================================================
// Full cycles
// ============================================================

func TestRun_AllTilesComplete(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.EnhanceFactor = 2
	cfg.MaxConcurrency = 4

	raster := GradientRasterizer{FrameWidth: 64, FrameHeight: 64}
	p, err := NewPipeline(cfg, raster, sample.Upscaler{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	frame, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frame.Width() != 128 || frame.Height() != 128 {
		t.Fatalf("frame is %dx%d, want 128x128", frame.Width(), frame.Height())
	}
	if !report.Complete() {
		t.Fatalf("report not complete: %d failed, %d skipped", report.Failed, report.Skipped)
	}
	if report.Completed != 4 || report.Total != 4 {
		t.Fatalf("completed %d of %d, want 4 of 4", report.Completed, report.Total)
	}
	if len(report.Incomplete) != 0 {
		t.Fatalf("incomplete list has %d entries, want none", len(report.Incomplete))
	}
	if report.Usage.Consumed <= 0 {
		t.Fatalf("consumed %v, want > 0", report.Usage.Consumed)
	}
	if report.Usage.Reserved != 0 {
		t.Fatalf("reserved %v after run, want 0", report.Usage.Reserved)
	}

	// Every quadrant must have landed pixels; an all-zero quadrant means
	// a tile never reached the buffer.
	data := frame.Data()
	for _, q := range []partition.Rect{
		{X: 0, Y: 0, W: 64, H: 64},
		{X: 64, Y: 0, W: 64, H: 64},
		{X: 0, Y: 64, W: 64, H: 64},
		{X: 64, Y: 64, W: 64, H: 64},
	} {
		written := false
		for y := q.Y; y < q.Y+q.H && !written; y++ {
			row := (y*128 + q.X) * 4
			for _, b := range data[row : row+q.W*4] {
				if b != 0 {
					written = true
					break
				}
			}
		}
		if !written {
			t.Fatalf("quadrant %+v is all zeros, tile never landed", q)
		}
	}
}

func TestRun_BudgetExhaustion(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 30, 30
	cfg.TileCount = 3
	cfg.BudgetLimit = 10
	cfg.Cost = func(partition.Tile) float64 { return 4 }

	// A zero fidelity ceiling forces the pass-through fallback, which
	// charges exactly the admission estimate.
	cfg.FidelityLossCeiling = 0
	cfg.PassThrough = true

	disp := &scriptDispatcher{}
	p, err := NewPipeline(cfg, &captureRaster{}, disp)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 2 {
		t.Fatalf("completed %d tiles under budget 10, want 2", report.Completed)
	}
	if report.Skipped != 1 {
		t.Fatalf("skipped %d tiles, want 1", report.Skipped)
	}
	if report.Failed != 0 {
		t.Fatalf("failed %d tiles, want 0", report.Failed)
	}
	if !almostEqual(report.Usage.Consumed, 8) {
		t.Fatalf("consumed %v, want 8", report.Usage.Consumed)
	}
	if !almostEqual(report.Usage.Remaining, 2) {
		t.Fatalf("remaining %v, want 2", report.Usage.Remaining)
	}
	if len(report.Incomplete) != 1 || report.Incomplete[0].State != "skipped" {
		t.Fatalf("incomplete = %+v, want one skipped tile", report.Incomplete)
	}
}

func TestRun_PassThroughWithLocalUpscaler(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.TileCount = 2
	cfg.EnhanceFactor = 2

	// A zero ceiling makes every tile exceed the fidelity budget, so the
	// fallback ships raw RGBA; the built-in upscaler must accept it and
	// complete the tile rather than fail it.
	cfg.FidelityLossCeiling = 0
	cfg.PassThrough = true

	raster := GradientRasterizer{FrameWidth: 16, FrameHeight: 16}
	p, err := NewPipeline(cfg, raster, sample.Upscaler{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("failed %d tiles, want 0: %+v", report.Failed, report.Incomplete)
	}
	if !report.Complete() || report.Completed != 2 {
		t.Fatalf("completed %d of %d, want all complete", report.Completed, report.Total)
	}
}

func TestRun_RetryThenSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 8, 8
	cfg.TileCount = 1
	cfg.RetryLimit = 3

	disp := &scriptDispatcher{errs: []error{sample.ErrRetryable, sample.ErrRetryable}}
	p, err := NewPipeline(cfg, &captureRaster{}, disp)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("completed %d, want 1 (succeeds on third attempt)", report.Completed)
	}
	if got := disp.callCount(); got != 3 {
		t.Fatalf("dispatcher called %d times, want 3", got)
	}
	if report.Usage.Consumed <= 0 {
		t.Fatalf("consumed %v after success, want > 0", report.Usage.Consumed)
	}
}

func TestRun_RetriesExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 8, 8
	cfg.TileCount = 1
	cfg.RetryLimit = 2

	disp := &scriptDispatcher{errs: []error{sample.ErrRetryable, sample.ErrRetryable, sample.ErrRetryable}}
	p, err := NewPipeline(cfg, &captureRaster{}, disp)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed %d, want 1", report.Failed)
	}
	if got := disp.callCount(); got != 2 {
		t.Fatalf("dispatcher called %d times, want 2 (attempt budget)", got)
	}
	// A failed tile's reservation must flow back to the ledger.
	if !almostEqual(report.Usage.Consumed, 0) {
		t.Fatalf("consumed %v after failure, want 0", report.Usage.Consumed)
	}
	if !almostEqual(report.Usage.Remaining, cfg.BudgetLimit) {
		t.Fatalf("remaining %v, want full budget %v", report.Usage.Remaining, cfg.BudgetLimit)
	}
	if len(report.Incomplete) != 1 {
		t.Fatalf("incomplete has %d entries, want 1", len(report.Incomplete))
	}
	st := report.Incomplete[0]
	if st.State != "failed" || st.Error == "" {
		t.Fatalf("incomplete entry = %+v, want failed with error text", st)
	}
}

func TestRun_FatalFailureDoesNotRetry(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 8, 8
	cfg.TileCount = 1
	cfg.RetryLimit = 5

	disp := &scriptDispatcher{errs: []error{sample.ErrFatal, sample.ErrFatal, sample.ErrFatal}}
	p, err := NewPipeline(cfg, &captureRaster{}, disp)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed %d, want 1", report.Failed)
	}
	if got := disp.callCount(); got != 1 {
		t.Fatalf("dispatcher called %d times on a fatal failure, want 1", got)
	}
}

func TestRun_RasterizerFailuresAreRetried(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 8, 8
	cfg.TileCount = 1
	cfg.RetryLimit = 3

	raster := &captureRaster{fail: 2}
	p, err := NewPipeline(cfg, raster, &scriptDispatcher{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("completed %d after engine recovered, want 1", report.Completed)
	}
}

func TestRun_Cancellation(t *testing.T) {
	cfg := testConfig()
	p, err := NewPipeline(cfg, &captureRaster{}, &scriptDispatcher{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame, report, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run on cancelled context: %v", err)
	}
	if frame == nil || report == nil {
		t.Fatal("cancelled run must still return a frame and report")
	}
	if report.Skipped != report.Total {
		t.Fatalf("skipped %d of %d, want all skipped", report.Skipped, report.Total)
	}
	if !almostEqual(report.Usage.Consumed, 0) || !almostEqual(report.Usage.Reserved, 0) {
		t.Fatalf("usage %+v after cancelled run, want nothing held", report.Usage)
	}
}

func TestRun_AdmissionFollowsWeightOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 40, 40
	cfg.TileCount = 5
	cfg.MaxConcurrency = 1 // serialize so observed order is admission order

	raster := &captureRaster{}
	p, err := NewPipeline(cfg, raster, &scriptDispatcher{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tiles, err := partition.Plan(cfg.Width, cfg.Height, cfg.TileCount)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := partition.OrderByWeight(tiles)
	if len(raster.regions) != len(want) {
		t.Fatalf("rasterized %d regions, want %d", len(raster.regions), len(want))
	}
	for i, tl := range want {
		if raster.regions[i] != tl.Region {
			t.Fatalf("region %d = %+v, want %+v (weight order)", i, raster.regions[i], tl.Region)
		}
	}
}

func TestRun_ReportAccounting(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 48, 48
	cfg.TileCount = 9
	cfg.BudgetLimit = 5
	cfg.Cost = func(partition.Tile) float64 { return 1 }
	cfg.FidelityLossCeiling = 0
	cfg.PassThrough = true

	p, err := NewPipeline(cfg, &captureRaster{}, &scriptDispatcher{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := report.Completed + report.Failed + report.Skipped; got != report.Total {
		t.Fatalf("terminal buckets sum to %d, want total %d", got, report.Total)
	}
	if report.Completed != 5 || report.Skipped != 4 {
		t.Fatalf("completed/skipped = %d/%d under budget 5, want 5/4",
			report.Completed, report.Skipped)
	}
	if len(report.Incomplete) != report.Failed+report.Skipped {
		t.Fatalf("incomplete lists %d tiles, want %d",
			len(report.Incomplete), report.Failed+report.Skipped)
	}

	retile := report.Retile()
	if len(retile) != len(report.Incomplete) {
		t.Fatalf("Retile returned %d tiles, want %d", len(retile), len(report.Incomplete))
	}
	for i, tl := range retile {
		if tl.Region != report.Incomplete[i].Region {
			t.Fatalf("retile %d region = %+v, want %+v", i, tl.Region, report.Incomplete[i].Region)
		}
	}
}

func TestRun_Reusable(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.TileCount = 2

	p, err := NewPipeline(cfg, &captureRaster{}, &scriptDispatcher{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	_, second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("consecutive runs share a RunID")
	}
	if !second.Complete() {
		t.Fatalf("second run incomplete: %+v", second)
	}
	// Budget state must not leak between cycles.
	if !almostEqual(first.Usage.Consumed, second.Usage.Consumed) {
		t.Fatalf("consumed differs across identical runs: %v vs %v",
			first.Usage.Consumed, second.Usage.Consumed)
	}
}
