package slizzai

// TileState is a tile's position in the pipeline lifecycle.
//
// Transitions are monotonic along
// Pending -> Reserved -> Compressing -> SuperSampling -> Complete,
// with Failed and Skipped as terminal absorbing states reachable from any
// non-terminal state. Only the scheduler writes tile states.
type TileState int

const (
	// TilePending means the tile has not yet been admitted.
	TilePending TileState = iota

	// TileReserved means the tile holds a budget reservation.
	TileReserved

	// TileCompressing means the tile is in the compression stage.
	TileCompressing

	// TileSuperSampling means the tile awaits the enhancement collaborator.
	TileSuperSampling

	// TileComplete means the tile's enhanced payload reached the frame.
	TileComplete

	// TileFailed means the tile exhausted its retries or hit a fatal
	// failure. Its reservation has been released.
	TileFailed

	// TileSkipped means the tile was never admitted: the budget ran out
	// or the run was cancelled first.
	TileSkipped
)

// String returns the state name used in coverage reports.
func (s TileState) String() string {
	switch s {
	case TilePending:
		return "pending"
	case TileReserved:
		return "reserved"
	case TileCompressing:
		return "compressing"
	case TileSuperSampling:
		return "supersampling"
	case TileComplete:
		return "complete"
	case TileFailed:
		return "failed"
	case TileSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is absorbing.
func (s TileState) Terminal() bool {
	return s == TileComplete || s == TileFailed || s == TileSkipped
}

// RunState is the scheduler's global state for one cycle.
type RunState int

const (
	// RunRunning means tiles are still being admitted.
	RunRunning RunState = iota

	// RunDraining means admission has stopped (budget exhausted or the
	// run was cancelled) and in-flight tiles are finishing.
	RunDraining

	// RunFinished means every tile is in a terminal state.
	RunFinished
)

// String returns the run state name.
func (s RunState) String() string {
	switch s {
	case RunRunning:
		return "running"
	case RunDraining:
		return "draining"
	case RunFinished:
		return "finished"
	default:
		return "unknown"
	}
}
