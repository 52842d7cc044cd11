package nn

import (
	"github.com/born-ml/curvature/internal/tensor"
)

// Cost computes a scalar from labels y and model output.
// It is assignable to hessian.CostFunc.
type Cost = func(b tensor.Backend, y, output *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor

// SumSquaredError returns Σ (output - y)².
func SumSquaredError(b tensor.Backend, y, output *tensor.RawTensor, _ []*tensor.RawTensor) *tensor.RawTensor {
	diff := b.Sub(output, y)
	return b.Sum(b.Mul(diff, diff))
}

// MeanSquaredError returns Σ (output - y)² / batch, where batch is the
// size of dim 0.
func MeanSquaredError(b tensor.Backend, y, output *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor {
	batch := 1
	if s := output.Shape(); len(s) > 0 {
		batch = s[0]
	}
	return b.MulScalar(SumSquaredError(b, y, output, params), 1/float64(batch))
}

// SoftmaxCrossEntropy returns the mean cross-entropy between one-hot (or
// soft) labels y and the softmax of logits, both [batch, classes].
//
// Uses the log-sum-exp form. The per-row maximum is subtracted as a
// constant, which leaves every derivative unchanged.
func SoftmaxCrossEntropy(b tensor.Backend, y, logits *tensor.RawTensor, _ []*tensor.RawTensor) *tensor.RawTensor {
	shift := rowMax(logits)
	shifted := b.Sub(logits, shift)

	// log Σ_j exp(z_j), shape [batch, 1]
	lse := b.Log(b.SumDim(b.Exp(shifted), 1, true))
	logProb := b.Sub(shifted, lse)

	batch := logits.Shape()[0]
	return b.MulScalar(b.Sum(b.Mul(y, logProb)), -1/float64(batch))
}

// WithL2 adds lambda/2 · Σ ||W_l||² over every rank-2 parameter to cost.
// Biases are not penalised.
func WithL2(cost Cost, lambda float64) Cost {
	return func(b tensor.Backend, y, output *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor {
		total := cost(b, y, output, params)
		for _, p := range params {
			if p.Shape().Rank() != 2 {
				continue
			}
			total = b.Add(total, b.MulScalar(b.Sum(b.Mul(p, p)), lambda/2))
		}
		return total
	}
}

// rowMax returns the per-row maximum of a [batch, classes] tensor as a
// [batch, 1] constant with no history.
func rowMax(x *tensor.RawTensor) *tensor.RawTensor {
	s := x.Shape()
	rows, cols := s[0], s[1]
	out := tensor.MustRaw(tensor.Shape{rows, 1}, x.Device())
	data := x.Data()
	for i := 0; i < rows; i++ {
		m := data[i*cols]
		for _, v := range data[i*cols+1 : (i+1)*cols] {
			m = max(m, v)
		}
		out.Data()[i] = m
	}
	return out
}
