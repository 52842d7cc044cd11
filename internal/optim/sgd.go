package optim

import (
	"github.com/born-ml/curvature/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[B tensor.Backend] struct {
	lr       float64
	momentum float64
	velocity *tensor.RawTensor
	backend  B
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
//
// Parameters:
//   - config: SGD configuration (LR, Momentum)
//   - backend: Backend the update arithmetic runs on
//
// Returns a new SGD optimizer.
func NewSGD[B tensor.Backend](config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		lr:       config.LR,
		momentum: config.Momentum,
		backend:  backend,
	}
}

// Step performs a single optimization step.
func (s *SGD[B]) Step(params, grad *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := checkVectors(params, grad); err != nil {
		return nil, err
	}

	direction := grad
	if s.momentum != 0 {
		if s.velocity == nil || !s.velocity.Shape().Equal(grad.Shape()) {
			s.velocity = tensor.Zeros(grad.Shape(), grad.Device())
		}
		s.velocity = s.backend.Add(s.backend.MulScalar(s.velocity, s.momentum), grad)
		direction = s.velocity
	}

	return s.backend.Sub(params, s.backend.MulScalar(direction, s.lr)), nil
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float64) {
	s.lr = lr
}
