package solve

import "math"

// TerminationCondition states why a driver stopped.
type TerminationCondition uint8

const (
	Unknown TerminationCondition = iota
	Converged
	MaxIterations
	Stalled
	Infeasible
	Errored
)

func (tc TerminationCondition) String() string {
	switch tc {
	case Converged:
		return "converged"
	case MaxIterations:
		return "maxIterations"
	case Stalled:
		return "stalled"
	case Infeasible:
		return "infeasible"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// IterationRecord is one line of a driver's iteration log.
type IterationRecord struct {
	Iteration int
	Residual  float64
	Improved  bool
}

// Results describes the outcome of an iterative driver run.
type Results struct {
	Name        string
	Termination TerminationCondition
	Iterations  int
	Residual    float64
	LowerBound  float64
	UpperBound  float64
	Log         []IterationRecord
}

// NewResults returns a Results with open bounds.
func NewResults(name string) *Results {
	return &Results{
		Name:       name,
		LowerBound: math.Inf(-1),
		UpperBound: math.Inf(1),
	}
}

// Record appends an iteration to the log, tracking improvement of the
// residual against the best seen so far.
func (r *Results) Record(residual float64) {
	improved := len(r.Log) == 0 || residual < r.bestResidual()
	r.Log = append(r.Log, IterationRecord{Iteration: len(r.Log) + 1, Residual: residual, Improved: improved})
	r.Iterations = len(r.Log)
	r.Residual = residual
}

func (r *Results) bestResidual() float64 {
	best := math.Inf(1)
	for _, rec := range r.Log {
		if rec.Residual < best {
			best = rec.Residual
		}
	}
	return best
}

// Stalling reports whether the last `window` iterations failed to improve
// the best residual.
func (r *Results) Stalling(window int) bool {
	if len(r.Log) < window {
		return false
	}
	for _, rec := range r.Log[len(r.Log)-window:] {
		if rec.Improved {
			return false
		}
	}
	return true
}

// BoundsConverged reports whether the lower and upper bounds meet within
// tol.
func (r *Results) BoundsConverged(tol float64) bool {
	return r.UpperBound-r.LowerBound <= tol
}
