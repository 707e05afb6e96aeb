package pipeline

// State is a step of the batch state machine. Batches only move forward.
type State string

const (
	StateReceived    State = "received"
	StateValidated   State = "validated"
	StateNormalized  State = "normalized"
	StateTransformed State = "transformed"
	StatePredicted   State = "predicted"
	StateAssembled   State = "assembled"
	StateDone        State = "done"

	StateRejectedAtSchema    State = "rejected_at_schema"
	StateRejectedAtTransform State = "rejected_at_transform"
	StateFailedAtPredict     State = "failed_at_predict"
	StateFailedAtAssembly    State = "failed_at_assembly"
	StateCancelled           State = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateRejectedAtSchema, StateRejectedAtTransform,
		StateFailedAtPredict, StateFailedAtAssembly, StateCancelled:
		return true
	}
	return false
}

// UserCorrectable reports whether the batch failed because of its input.
func (s State) UserCorrectable() bool {
	return s == StateRejectedAtSchema || s == StateRejectedAtTransform
}
