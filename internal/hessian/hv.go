package hessian

import (
	"fmt"
	"time"

	"github.com/born-ml/curvature/internal/tensor"
)

// HessianVectorProduct returns H·v, where H is the exact Hessian of the
// cost with respect to the flattened parameters. H is never formed.
//
// The product is computed as the gradient of g·v, where g is the first
// gradient kept on the tape and v is frozen so no gradient flows into it:
//
//	Hv = ∇(∇cost · stop(v))
//
// v must have length P.
func (e *Estimator[B]) HessianVectorProduct(v *tensor.RawTensor) (*tensor.RawTensor, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: direction vector is nil", ErrShape)
	}
	if err := e.codec.checkFlat(v); err != nil {
		return nil, err
	}

	start := time.Now()
	var hv *tensor.RawTensor
	err := guard("hessian-vector product", func() error {
		s, err := e.record(e.params, e.x, e.y)
		if err != nil {
			return err
		}
		g, err := s.gradient(true)
		if err != nil {
			return err
		}
		hv, err = s.hessianVectorProduct(g, v)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("hessian-vector product", "params", e.NumParams(), "elapsed", time.Since(start))
	return hv, nil
}

// hessianVectorProduct differentiates g·stop(v) on the session's tape.
// g must come from gradient(true) on the same session.
func (s *session[B]) hessianVectorProduct(g, v *tensor.RawTensor) (*tensor.RawTensor, error) {
	frozen := s.ad.StopGradient(v)
	dot := s.ad.Sum(s.ad.Mul(g, frozen))

	grads, err := s.ad.Gradients(dot, s.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}
	// A parameter the first gradient does not depend on has a zero row
	// and column in H.
	for i, gi := range grads {
		if gi == nil {
			grads[i] = tensor.Zeros(s.params[i].Shape(), s.ad.Device())
		}
	}
	return s.codec.Flatten(s.ad.Inner(), grads)
}
