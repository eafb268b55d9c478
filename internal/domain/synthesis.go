package domain

// SynthesisState is the lifecycle state of one synthesis session.
type SynthesisState string

const (
	SynthesisStatePending    SynthesisState = "PENDING"
	SynthesisStateRetrieving SynthesisState = "RETRIEVING"
	SynthesisStateGenerating SynthesisState = "GENERATING"
	SynthesisStateFinished   SynthesisState = "FINISHED"
	SynthesisStateFailed     SynthesisState = "FAILED"
	SynthesisStateCancelled  SynthesisState = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible.
func (s SynthesisState) IsTerminal() bool {
	switch s {
	case SynthesisStateFinished, SynthesisStateFailed, SynthesisStateCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a session may move from s to next.
func (s SynthesisState) CanTransition(next SynthesisState) bool {
	if next == SynthesisStateFailed || next == SynthesisStateCancelled {
		return !s.IsTerminal()
	}
	switch s {
	case SynthesisStatePending:
		return next == SynthesisStateRetrieving
	case SynthesisStateRetrieving:
		return next == SynthesisStateGenerating
	case SynthesisStateGenerating:
		return next == SynthesisStateFinished
	}
	return false
}
