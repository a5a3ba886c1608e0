package state

import "github.com/medilabo/webapp/internal/model"

// Phase is the lifecycle step of an asynchronous operation.
type Phase int

const (
	Pending Phase = iota
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is one observable phase of an operation. Value is set when
// fulfilled, Err when rejected.
type Outcome[T any] struct {
	Phase Phase
	Value T
	Err   *model.APIError
}

// Start returns the pending outcome.
func Start[T any]() Outcome[T] {
	return Outcome[T]{Phase: Pending}
}

// Fulfill returns the fulfilled outcome carrying v.
func Fulfill[T any](v T) Outcome[T] {
	return Outcome[T]{Phase: Fulfilled, Value: v}
}

// Reject returns the rejected outcome carrying err. A nil err is replaced by
// an empty payload so reducers always see one.
func Reject[T any](err *model.APIError) Outcome[T] {
	if err == nil {
		err = &model.APIError{}
	}
	return Outcome[T]{Phase: Rejected, Err: err}
}
