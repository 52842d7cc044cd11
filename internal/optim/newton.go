package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/internal/tensor"
)

// Newton takes damped Newton steps from an exact Hessian:
//
//	param = param - lr * (H + λI)⁻¹ g
//
// The system is solved by Cholesky when H + λI is positive definite and
// by LU otherwise, so saddle directions are followed rather than rejected.
type Newton[B tensor.Backend] struct {
	lr      float64
	damping float64
	backend B
}

// NewtonConfig holds configuration for the Newton optimizer.
type NewtonConfig struct {
	LR      float64 // Step scale (default: 1)
	Damping float64 // λ added to the Hessian diagonal (default: 0)
}

// NewNewton creates a new Newton optimizer.
func NewNewton[B tensor.Backend](config NewtonConfig, backend B) *Newton[B] {
	if config.LR == 0 {
		config.LR = 1
	}
	return &Newton[B]{lr: config.LR, damping: config.Damping, backend: backend}
}

// Step returns params moved by the damped Newton direction for grad and
// hessian. hessian must be P×P for a gradient of length P.
func (n *Newton[B]) Step(params, grad *tensor.RawTensor, hessian mat.Matrix) (*tensor.RawTensor, error) {
	if err := checkVectors(params, grad); err != nil {
		return nil, err
	}
	p := grad.NumElements()
	if r, c := hessian.Dims(); r != p || c != p {
		return nil, fmt.Errorf("optim: hessian is %d×%d, want %d×%d", r, c, p, p)
	}

	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			a.SetSym(i, j, (hessian.At(i, j)+hessian.At(j, i))/2)
		}
		a.SetSym(i, i, a.At(i, i)+n.damping)
	}
	g := mat.NewVecDense(p, append([]float64(nil), grad.Data()...))

	var d mat.VecDense
	var chol mat.Cholesky
	var err error
	if chol.Factorize(a) {
		err = chol.SolveVecTo(&d, g)
	} else {
		err = d.SolveVec(a, g)
	}
	if err := solved(err); err != nil {
		return nil, fmt.Errorf("optim: newton solve: %w", err)
	}

	step, err := tensor.FromSlice(mat.Col(nil, 0, &d), tensor.Shape{p}, grad.Device())
	if err != nil {
		return nil, err
	}
	return n.backend.Sub(params, n.backend.MulScalar(step, n.lr)), nil
}

// solved drops gonum's ill-conditioning warning unless the system was
// exactly singular.
func solved(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		return nil
	}
	return err
}

// LR returns the step scale.
func (n *Newton[B]) LR() float64 {
	return n.lr
}
