package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/curvature/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Draws from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - rng: Random source; fixing its seed fixes the weights
//
// Returns a [fanIn, fanOut] tensor.
func Xavier(fanIn, fanOut int, rng *rand.Rand) *tensor.RawTensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform(tensor.Shape{fanIn, fanOut}, -bound, bound, rng, tensor.CPU)
}

// InitParams builds a parameter list for the given layer widths: Xavier
// weights and zero biases.
//
// With interleaved false the list is W_0..W_{L-1}, b_0..b_{L-1}; otherwise
// W_0, b_0, W_1, b_1, ...
func InitParams(layers []int, rng *rand.Rand, interleaved bool) []*tensor.RawTensor {
	n := len(layers) - 1
	if n < 1 {
		return nil
	}
	weights := make([]*tensor.RawTensor, n)
	biases := make([]*tensor.RawTensor, n)
	for l := 0; l < n; l++ {
		weights[l] = Xavier(layers[l], layers[l+1], rng)
		biases[l] = tensor.Zeros(tensor.Shape{layers[l+1]}, tensor.CPU)
	}

	params := make([]*tensor.RawTensor, 0, 2*n)
	if interleaved {
		for l := 0; l < n; l++ {
			params = append(params, weights[l], biases[l])
		}
		return params
	}
	params = append(params, weights...)
	return append(params, biases...)
}
