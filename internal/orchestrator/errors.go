package orchestrator

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestrator control-flow conditions (SPEC_FULL
// AMBIENT STACK: "typed sentinel errors for control-flow conditions",
// grounded on internal/agent/errors.go).
var (
	ErrNoProvider     = errors.New("orchestrator: no provider configured")
	ErrMaxIterations  = errors.New("orchestrator: max iterations exceeded")
	ErrCancelled      = errors.New("orchestrator: session cancelled")
	ErrSessionMissing = errors.New("orchestrator: session not found")
)

// LoopPhase names a distinct phase of one agentic-loop iteration (spec
// §4.6.1), used by LoopError to localize a failure.
type LoopPhase string

const (
	PhaseStream       LoopPhase = "stream"
	PhaseExecuteTools LoopPhase = "execute_tools"
	PhasePreReview    LoopPhase = "pre_review"
	PhasePostReview   LoopPhase = "post_review"
)

// LoopError carries the phase and iteration a failure occurred at (spec
// §7, grounded on internal/agent/errors.go's LoopError).
type LoopError struct {
	Phase     LoopPhase
	Iteration int
	Cause     error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("orchestrator: loop error at %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

func (e *LoopError) Unwrap() error { return e.Cause }
