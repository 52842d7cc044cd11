package hessian

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/internal/parallel"
	"github.com/born-ml/curvature/internal/tensor"
)

// FullHessian materialises the dense P×P Hessian.
//
// Row i is H·e_i for the i-th row e_i of the P×P identity. The cost is
// P Hessian-vector products, so this is only practical for small to
// moderate P.
//
// With parallel execution disabled, one tape is shared: the forward pass
// and the first gradient are built once and every row only adds a second
// backward pass. With parallel execution enabled, rows are independent
// evaluations, each on its own tape, fanned out over the worker pool.
// Both strategies return identical rows in identical order. On failure the
// error of the lowest failing row is returned and no matrix.
func (e *Estimator[B]) FullHessian() (*mat.Dense, error) {
	p := e.NumParams()
	start := time.Now()

	eye := tensor.Eye(p, e.backend.Device())
	basis := func(i int) *tensor.RawTensor {
		return e.backend.Reshape(e.backend.Narrow(eye, i, 1), tensor.Shape{p})
	}

	h := mat.NewDense(p, p, nil)
	strategy := "shared-tape"
	var err error
	if e.parallel.Enabled {
		strategy = "parallel"
		err = parallel.For(p, func(i int) error {
			row, err := e.HessianVectorProduct(basis(i))
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			h.SetRow(i, row.Data())
			return nil
		}, e.parallel)
	} else {
		err = guard("full hessian", func() error {
			s, err := e.record(e.params, e.x, e.y)
			if err != nil {
				return err
			}
			g, err := s.gradient(true)
			if err != nil {
				return err
			}
			for i := 0; i < p; i++ {
				row, err := s.hessianVectorProduct(g, basis(i))
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				h.SetRow(i, row.Data())
			}
			return nil
		})
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("full hessian assembled",
		"params", p, "strategy", strategy, "elapsed", time.Since(start))
	return h, nil
}
