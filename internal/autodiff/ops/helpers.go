package ops

import "github.com/born-ml/curvature/internal/tensor"

// reduceBroadcast sums grad down to target when the forward pass broadcast
// an input of shape target.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1]
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad
	}
	return backend.SumTo(grad, target)
}
