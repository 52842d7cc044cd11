package hessian

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/internal/parallel"
	"github.com/born-ml/curvature/internal/tensor"
)

// PerExampleGradients returns the B×P matrix whose row i is the flattened
// gradient of the cost on the i-th slice of the batch.
//
// X and Y are split along dim 0 into BatchSize equal slices (single
// examples when the batch holds exactly BatchSize of them). Each slice is
// evaluated in isolation: its own tape and its own value copy of the
// parameters, so no gradient state is shared between slices.
func (e *Estimator[B]) PerExampleGradients() (*mat.Dense, error) {
	rows, err := e.batchRows()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	b, p := e.batchSize, e.NumParams()
	grads := mat.NewDense(b, p, nil)

	err = parallel.For(b, func(i int) error {
		return guard(fmt.Sprintf("example %d", i), func() error {
			g, err := e.exampleGradient(i*rows, rows)
			if err != nil {
				return fmt.Errorf("example %d: %w", i, err)
			}
			grads.SetRow(i, g.Data())
			return nil
		})
	}, e.parallel)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("per-example gradients",
		"params", p, "batch", b, "rows", rows, "elapsed", time.Since(start))
	return grads, nil
}

// OPGApproximation returns G = Gradᵀ·Grad / B, where Grad is the B×P
// per-example gradient matrix.
//
// G is symmetric positive-semidefinite by construction. It is a
// Gauss-Newton / empirical-Fisher surrogate for the Hessian, not the
// Hessian itself: the two agree only when the cost's curvature is carried
// by the outer product of its gradients (e.g. log-likelihood costs at a
// well-fit model). Use FullHessian when the exact matrix is needed.
func (e *Estimator[B]) OPGApproximation() (*mat.SymDense, error) {
	grads, err := e.PerExampleGradients()
	if err != nil {
		return nil, err
	}
	b, _ := grads.Dims()

	var g mat.SymDense
	g.SymOuterK(1/float64(b), grads.T())
	return &g, nil
}

// batchRows validates the batch against BatchSize and returns the number
// of rows in each slice.
func (e *Estimator[B]) batchRows() (int, error) {
	xs, ys := e.x.Shape(), e.y.Shape()
	if len(xs) == 0 || len(ys) == 0 {
		return 0, fmt.Errorf("%w: input %v and labels %v need a leading example dimension", ErrBatchShape, xs, ys)
	}
	n := xs[0]
	if ys[0] != n {
		return 0, fmt.Errorf("%w: input has %d examples but labels have %d", ErrBatchShape, n, ys[0])
	}
	if e.batchSize <= 0 {
		return 0, fmt.Errorf("%w: batch size must be positive, got %d", ErrBatchShape, e.batchSize)
	}
	if n%e.batchSize != 0 {
		return 0, fmt.Errorf("%w: batch size %d does not divide %d examples", ErrBatchShape, e.batchSize, n)
	}
	return n / e.batchSize, nil
}

// exampleGradient evaluates the gradient on rows [start, start+rows).
func (e *Estimator[B]) exampleGradient(start, rows int) (*tensor.RawTensor, error) {
	params, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	x := e.backend.Narrow(e.x, start, rows)
	y := e.backend.Narrow(e.y, start, rows)

	s, err := e.record(params, x, y)
	if err != nil {
		return nil, err
	}
	return s.gradient(false)
}

// snapshot returns a value copy of the parameters with no history,
// taken through the codec: Unflatten(Flatten(params)).
func (e *Estimator[B]) snapshot() ([]*tensor.RawTensor, error) {
	flat, err := e.codec.Flatten(e.backend, e.params)
	if err != nil {
		return nil, err
	}
	return e.codec.Unflatten(e.backend, flat)
}
