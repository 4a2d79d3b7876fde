package core

type CallState int

const (
	CallStateUnknown CallState = iota
	CallStateExecuting
	CallStateExecutingFailed
	CallStateRetrieving
	CallStateRetrievingFailed
	CallStateRetrieved
	CallStateCanceled
)

func (s CallState) String() string {
	switch s {
	case CallStateExecuting:
		return "executing"
	case CallStateExecutingFailed:
		return "executing_failed"

	case CallStateRetrieving:
		return "retrieving"
	case CallStateRetrievingFailed:
		return "retrieving_failed"
	case CallStateRetrieved:
		return "retrieved"

	case CallStateCanceled:
		return "canceled"

	default:
		return "unknown"
	}
}

// IsFinal reports whether no further state changes follow.
func (s CallState) IsFinal() bool {
	switch s {
	case CallStateExecutingFailed, CallStateRetrievingFailed, CallStateRetrieved, CallStateCanceled:
		return true
	default:
		return false
	}
}
