package optim

import (
	"math"

	"github.com/born-ml/curvature/internal/tensor"
)

// Adam implements the Adam optimizer (Adaptive Moment Estimation).
//
// Update rule:
//
//	m = β1 * m + (1 - β1) * g
//	v = β2 * v + (1 - β2) * g²
//	m̂ = m / (1 - β1^t)
//	v̂ = v / (1 - β2^t)
//	param = param - lr * m̂ / (√v̂ + ε)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014).
type Adam[B tensor.Backend] struct {
	lr      float64
	beta1   float64
	beta2   float64
	eps     float64
	t       int       // Timestep for bias correction
	m       []float64 // First moment estimates
	v       []float64 // Second moment estimates
	backend B
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
func NewAdam[B tensor.Backend](config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		backend: backend,
	}
}

// Step performs a single optimization step.
func (a *Adam[B]) Step(params, grad *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := checkVectors(params, grad); err != nil {
		return nil, err
	}
	n := grad.NumElements()
	if len(a.m) != n {
		a.m, a.v, a.t = make([]float64, n), make([]float64, n), 0
	}
	a.t++

	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	step := tensor.Zeros(grad.Shape(), grad.Device())
	out := step.Data()
	for i, g := range grad.Data() {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g
		out[i] = a.lr * (a.m[i] / bc1) / (math.Sqrt(a.v[i]/bc2) + a.eps)
	}
	return a.backend.Sub(params, step), nil
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float64) {
	a.lr = lr
}

// Timestep returns the number of steps taken.
func (a *Adam[B]) Timestep() int {
	return a.t
}
