package hessian

import (
	"errors"
	"fmt"
)

// Every error returned by this package wraps exactly one of these
// sentinels; match with errors.Is. Nothing is retried or recovered: a
// call returns a complete result or one of these.
var (
	// ErrSchema is returned when the layer widths do not describe a model:
	// fewer than two entries, or a non-positive width.
	ErrSchema = errors.New("hessian: invalid layer schema")

	// ErrShape is returned when a flat vector does not have length P, or a
	// parameter list does not match the schema's tensor count and shapes.
	ErrShape = errors.New("hessian: shape mismatch")

	// ErrBatchShape is returned when the batch size does not evenly divide
	// the number of examples, or inputs and labels disagree on it.
	ErrBatchShape = errors.New("hessian: batch shape mismatch")

	// ErrGraphConstruction is returned when the model or cost callbacks fail
	// or produce a cost that is not differentiable with respect to the
	// declared parameters.
	ErrGraphConstruction = errors.New("hessian: graph construction failed")
)

// guard runs f and converts a panic raised inside it (backend shape
// checks, user callbacks) into ErrGraphConstruction.
func guard(op string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hessian: %s: %v: %w", op, r, ErrGraphConstruction)
		}
	}()
	return f()
}
