package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is an error produced from a panic recovered inside a library
// operation. It keeps the panic value and the stack at the point of recovery.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s", e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a PanicError for operation.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error assigned to *err. It must be
// deferred directly by the function whose named error result is passed in:
//
//	func (t *Trainer) Train(tbl *dataset.Table) (res *Result, err error) {
//	    defer errors.Recover(&err, "Trainer.Train")
//	    ...
//	}
//
// An error already stored in *err is kept as the cause.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}
