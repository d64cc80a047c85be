package resources

import (
	dserrors "github.com/systmms/fnconsole/internal/errors"
)

// Result is the outcome of a Client operation.
//
// Present reports whether Value holds a usable result. Err may be non-nil
// even when Present is true: a batch write can succeed for one entry while
// reporting failures for others. Notice is the success message to show, if
// any.
type Result[T any] struct {
	Value   T
	Present bool
	Notice  string
	Err     error
}

// OK reports whether the operation produced its value.
func (r Result[T]) OK() bool {
	return r.Present
}

// Messages returns the user-visible failure lines carried by Err, in order.
func (r Result[T]) Messages() []string {
	return dserrors.Messages(r.Err)
}
