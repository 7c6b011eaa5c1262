package slizzai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Slizzurp/SlizzAi-3/internal/compress"
	"github.com/Slizzurp/SlizzAi-3/internal/ledger"
	"github.com/Slizzurp/SlizzAi-3/internal/parallel"
	"github.com/Slizzurp/SlizzAi-3/internal/partition"
	"github.com/Slizzurp/SlizzAi-3/internal/sample"
)

// dispatchCost is the fixed per-tile surcharge for a successful
// super-sample call, in budget units, added to the measured compression
// cost to form a tile's actual consumption.
const dispatchCost = 0.1

// Backoff bounds for retrying retryable stage failures.
const (
	backoffBase = 25 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// Pipeline drives one frame through partition, compression,
// super-sampling, and assembly under a per-cycle resource budget.
//
// A Pipeline is reusable: each Run partitions afresh and opens a fresh
// ledger, so cycles never share budget state.
type Pipeline struct {
	cfg     Config
	raster  Rasterizer
	disp    sample.Dispatcher
	codec   compress.Codec
	log     *slog.Logger
	metrics *Metrics
}

// NewPipeline validates the configuration and binds the collaborators.
func NewPipeline(cfg Config, raster Rasterizer, disp sample.Dispatcher, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if raster == nil || disp == nil {
		return nil, ErrNilCollaborator
	}

	o := pipelineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	return &Pipeline{
		cfg:     cfg,
		raster:  raster,
		disp:    disp,
		codec:   compress.Codec{MaxLoss: cfg.FidelityLossCeiling, MinSteps: 1},
		log:     log,
		metrics: o.metrics,
	}, nil
}

// tileRun is a tile's runtime record. Only the scheduler goroutine
// touches it.
type tileRun struct {
	partition.Tile
	state  TileState
	errMsg string
	res    *ledger.Reservation
}

// setState advances the tile state monotonically; stale progress events
// (a retry re-entering compression) never move a tile backward.
func (t *tileRun) setState(s TileState) {
	if t.state.Terminal() || s <= t.state {
		return
	}
	t.state = s
}

// tileEvent is a worker's message back to the scheduler. Workers never
// mutate shared state directly; all tile bookkeeping is applied by the
// scheduler goroutine.
type tileEvent struct {
	id       int
	state    TileState // progress event when terminal is false
	terminal bool
	payload  []byte  // enhanced pixels, terminal success only
	actual   float64 // measured cost, terminal success only
	err      error   // terminal failure only
}

// Run executes one cycle and returns the assembled frame buffer plus the
// coverage report. The buffer is always returned, possibly partial;
// incompleteness lives in the report, not in the error.
//
// Run fails only for an invalid partition or a ledger invariant
// violation. Cancelling ctx stops new admissions immediately, stops
// retries of in-flight tiles, and releases any outstanding reservations.
func (p *Pipeline) Run(ctx context.Context) (*FrameBuffer, *Report, error) {
	started := time.Now()
	runID := uuid.New()

	tiles, err := partition.Plan(p.cfg.Width, p.cfg.Height, p.cfg.TileCount)
	if err != nil {
		return nil, nil, fmt.Errorf("planning %dx%d frame into %d tiles: %w",
			p.cfg.Width, p.cfg.Height, p.cfg.TileCount, err)
	}

	led, err := ledger.New(p.cfg.BudgetLimit)
	if err != nil {
		return nil, nil, err
	}

	factor := p.cfg.EnhanceFactor
	frame := NewFrameBuffer(p.cfg.Width*factor, p.cfg.Height*factor)
	cov := newCoverage(len(tiles))

	runs := make([]tileRun, len(tiles))
	byID := make(map[int]*tileRun, len(tiles))
	for i, t := range tiles {
		runs[i] = tileRun{Tile: t, state: TilePending}
		byID[t.ID] = &runs[i]
	}

	pool := parallel.NewPool(p.cfg.MaxConcurrency)
	defer pool.Close()
	slots := semaphore.NewWeighted(int64(p.cfg.MaxConcurrency))

	// A tile emits two progress events per attempt plus one terminal
	// event, so this buffer holds every event a run can produce and
	// workers never block on it. Workers release their slot before
	// sending their terminal event, so the scheduler always observes a
	// free slot after draining one.
	events := make(chan tileEvent, len(tiles)*(2*p.maxAttempts()+1))

	p.log.Info("run started",
		"run", runID, "tiles", len(tiles),
		"budget", p.cfg.BudgetLimit, "concurrency", p.cfg.MaxConcurrency)

	cost := p.cfg.costModel()
	state := RunRunning
	inFlight := 0

	var fatal error
	handle := func(ev tileEvent) {
		t := byID[ev.id]
		if !ev.terminal {
			t.setState(ev.state)
			return
		}

		inFlight--
		if ev.err == nil {
			if err := t.res.Commit(ev.actual); err != nil {
				if fatal == nil {
					fatal = fmt.Errorf("%w: committing tile %d: %v", ErrLedgerViolation, ev.id, err)
				}
				return
			}
			t.setState(TileComplete)
			cov.settle(t.ID)
			p.writeTile(frame, t.Tile, ev.payload)
			p.metrics.tileCompleted()
			p.log.Debug("tile complete", "run", runID, "tile", t.ID, "cost", ev.actual)
		} else {
			if err := t.res.Release(); err != nil {
				if fatal == nil {
					fatal = fmt.Errorf("%w: releasing tile %d: %v", ErrLedgerViolation, ev.id, err)
				}
				return
			}
			t.setState(TileFailed)
			t.errMsg = ev.err.Error()
			p.metrics.tileFailed()
			p.log.Warn("tile failed", "run", runID, "tile", t.ID, "err", ev.err)
		}
		u := led.Snapshot()
		p.metrics.budget(u.Consumed, u.Reserved)
	}

	skip := func(t *tileRun) {
		t.setState(TileSkipped)
		p.metrics.tileSkipped()
	}

	for _, ordered := range partition.OrderByWeight(tiles) {
		t := byID[ordered.ID]

		if state == RunRunning && ctx.Err() != nil {
			state = RunDraining
			p.log.Info("run draining", "run", runID, "reason", "cancelled")
		}
		if state == RunDraining {
			skip(t)
			continue
		}

		est := cost(t.Tile)
		if est <= 0 {
			// A degenerate cost model must not wedge admission.
			est = 1e-9
		}
		res, err := led.Reserve(est)
		if err != nil {
			if !errors.Is(err, ledger.ErrBudgetExhausted) {
				skip(t)
				continue
			}
			skip(t)
			state = RunDraining
			p.log.Info("run draining", "run", runID,
				"reason", "budget exhausted", "remaining", led.Remaining())
			continue
		}
		t.res = res
		t.setState(TileReserved)
		p.log.Debug("tile admitted", "run", runID, "tile", t.ID,
			"weight", t.Weight, "estimate", est)

		// Wait for an in-flight slot, servicing worker events meanwhile.
		acquired := false
		for {
			if slots.TryAcquire(1) {
				acquired = true
				break
			}
			select {
			case ev := <-events:
				handle(ev)
			case <-ctx.Done():
			}
			if fatal != nil || ctx.Err() != nil {
				break
			}
		}
		if fatal != nil {
			if acquired {
				slots.Release(1)
			}
			if err := res.Release(); err != nil {
				p.log.Warn("release after fatal", "run", runID, "tile", t.ID, "err", err)
			}
			skip(t)
			state = RunDraining
			continue
		}
		if !acquired {
			// Cancelled while waiting for a slot: the reservation is
			// still outstanding and must go back to the ledger.
			if err := res.Release(); err != nil && fatal == nil {
				fatal = fmt.Errorf("%w: releasing tile %d: %v", ErrLedgerViolation, t.ID, err)
			}
			t.res = nil
			skip(t)
			state = RunDraining
			continue
		}

		inFlight++
		run := t.Tile
		estimate := est
		pool.Submit(func() {
			p.process(ctx, run, estimate, slots, events)
		})
	}

	// Admission is over; let in-flight tiles finish.
	for inFlight > 0 {
		handle(<-events)
	}
	state = RunFinished

	if fatal != nil {
		return frame, nil, fatal
	}

	report := p.buildReport(runID, started, runs, cov, led.Snapshot())
	p.metrics.runFinished(report.Duration().Seconds())
	p.log.Info("run finished", "run", runID, "state", state,
		"completed", report.Completed, "failed", report.Failed,
		"skipped", report.Skipped, "consumed", report.Usage.Consumed)
	return frame, report, nil
}

// maxAttempts is the total attempt budget for retryable failures.
// A retry limit of zero still allows the single first attempt.
func (p *Pipeline) maxAttempts() int {
	if p.cfg.RetryLimit < 1 {
		return 1
	}
	return p.cfg.RetryLimit
}

// process runs one admitted tile through the stages on a pool worker.
// It owns the tile's payload for the duration and communicates with the
// scheduler exclusively through events. The slot is released before the
// terminal event is sent; see Run.
func (p *Pipeline) process(ctx context.Context, t partition.Tile, estimate float64, slots *semaphore.Weighted, events chan<- tileEvent) {
	payload, actual, err := p.attemptAll(ctx, t, estimate, events)

	slots.Release(1)
	if err != nil {
		events <- tileEvent{id: t.ID, terminal: true, err: err}
		return
	}
	events <- tileEvent{id: t.ID, terminal: true, payload: payload, actual: actual}
}

// attemptAll drives the stage chain with bounded retries and exponential
// backoff. Only retryable outcomes consume attempts; fatal outcomes and
// unconfigured fidelity failures end the tile immediately.
func (p *Pipeline) attemptAll(ctx context.Context, t partition.Tile, estimate float64, events chan<- tileEvent) ([]byte, float64, error) {
	attempts := p.maxAttempts()
	backoff := backoffBase
	factor := p.cfg.EnhanceFactor
	wantLen := t.Region.W * factor * t.Region.H * factor * 4

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			p.metrics.retry()
			p.log.Debug("tile retry", "tile", t.ID, "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, 0, fmt.Errorf("retry abandoned: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}

		events <- tileEvent{id: t.ID, state: TileCompressing}

		raw, err := p.raster.Rasterize(ctx, t.Region)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, fmt.Errorf("rasterize abandoned: %w", ctx.Err())
			}
			// Engine trouble is presumed transient.
			lastErr = fmt.Errorf("rasterize: %w", err)
			continue
		}

		var (
			outbound    []byte
			cost        float64
			passThrough bool
		)
		comp, err := p.codec.Compress(raw)
		switch {
		case err == nil:
			outbound = comp.Data
			cost = comp.Cost
		case errors.Is(err, compress.ErrFidelityBudget) && p.cfg.PassThrough:
			// Fallback: ship the raw payload. A pass-through tile is
			// charged exactly its admission estimate, since the codec
			// produced no measured cost for it.
			outbound = raw
			cost = estimate
			passThrough = true
		default:
			return nil, 0, fmt.Errorf("compress: %w", err)
		}

		events <- tileEvent{id: t.ID, state: TileSuperSampling}

		callCtx, cancel := context.WithTimeout(ctx, p.cfg.SuperSampleTimeout)
		enhanced, err := p.disp.Enhance(callCtx, sample.Request{
			Payload: outbound,
			Width:   t.Region.W,
			Height:  t.Region.H,
			Factor:  factor,
		})
		cancel()

		switch sample.Classify(err) {
		case sample.Succeeded:
			if len(enhanced) != wantLen {
				return nil, 0, fmt.Errorf("%w: enhanced payload is %d bytes, want %d",
					sample.ErrFatal, len(enhanced), wantLen)
			}
			if passThrough {
				return enhanced, cost, nil
			}
			return enhanced, cost + dispatchCost, nil
		case sample.Fatal:
			return nil, 0, fmt.Errorf("enhance: %w", err)
		default:
			if ctx.Err() != nil {
				return nil, 0, fmt.Errorf("enhance abandoned: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("enhance: %w", err)
		}
	}
	return nil, 0, fmt.Errorf("retries exhausted after %d attempts: %w", attempts, lastErr)
}
