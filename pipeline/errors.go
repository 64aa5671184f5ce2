package pipeline

import "fmt"

// FailureKind classifies fatal pipeline failures. Tier-internal failures
// (narration engines, caption tiers, individual clips) never reach the
// caller; these kinds are the ones that do.
type FailureKind string

const (
	FailureInsufficientFootage  FailureKind = "insufficient_footage"
	FailureNarrationUnavailable FailureKind = "narration_unavailable"
	FailureAssemblyError        FailureKind = "assembly_error"
)

// FatalError is the structured failure surfaced for a terminated run
type FatalError struct {
	Kind  FailureKind
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s (stage %s): %v", e.Kind, e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(kind FailureKind, stage string, err error) *FatalError {
	return &FatalError{Kind: kind, Stage: stage, Err: err}
}
