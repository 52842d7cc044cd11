package hessian_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/curvature/internal/autodiff"
	"github.com/born-ml/curvature/internal/backend/cpu"
	"github.com/born-ml/curvature/internal/hessian"
	"github.com/born-ml/curvature/internal/nn"
	"github.com/born-ml/curvature/internal/tensor"
)

func TestSchema(t *testing.T) {
	s, err := hessian.NewSchema([]int{2, 3, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, s.NumLayers())
	assert.Equal(t, 13, s.NumParams())
	assert.Equal(t, 4, s.NumTensors())
	assert.Equal(t, tensor.Shape{2, 3}, s.WeightShape(0))
	assert.Equal(t, tensor.Shape{1}, s.BiasShape(1))

	start, end := s.WeightRange(1)
	assert.Equal(t, [2]int{6, 9}, [2]int{start, end})
	start, end = s.BiasRange(0)
	assert.Equal(t, [2]int{9, 12}, [2]int{start, end})
	start, end = s.BiasRange(1)
	assert.Equal(t, [2]int{12, 13}, [2]int{start, end})

	layers := s.Layers()
	layers[0] = 99
	assert.Equal(t, []int{2, 3, 1}, s.Layers())
}

func TestNewSchema_Invalid(t *testing.T) {
	for _, layers := range [][]int{nil, {4}, {2, 0, 1}, {-1, 2}} {
		_, err := hessian.NewSchema(layers)
		assert.ErrorIs(t, err, hessian.ErrSchema, "layers %v", layers)
	}
}

func TestNewCodec_UnknownLayout(t *testing.T) {
	s, err := hessian.NewSchema([]int{1, 1})
	require.NoError(t, err)
	_, err = hessian.NewCodec(s, hessian.Layout(7))
	assert.ErrorIs(t, err, hessian.ErrSchema)
}

func TestCodec_Order(t *testing.T) {
	backend := cpu.New()
	s, err := hessian.NewSchema([]int{2, 1, 1})
	require.NoError(t, err)

	w0 := fromSlice(t, []float64{1, 2}, 2, 1)
	w1 := fromSlice(t, []float64{3}, 1, 1)
	b0 := fromSlice(t, []float64{4}, 1)
	b1 := fromSlice(t, []float64{5}, 1)

	canonical, err := hessian.NewCodec(s, hessian.LayoutWeightsThenBiases)
	require.NoError(t, err)
	flat, err := canonical.Flatten(backend, []*tensor.RawTensor{w0, w1, b0, b1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, flat.Data())

	interleaved, err := hessian.NewCodec(s, hessian.LayoutInterleaved)
	require.NoError(t, err)
	flat, err = interleaved.Flatten(backend, []*tensor.RawTensor{w0, b0, w1, b1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 3, 5}, flat.Data())
}

func TestCodec_RoundTrip(t *testing.T) {
	backend := cpu.New()
	layers := []int{3, 4, 2, 1}
	s, err := hessian.NewSchema(layers)
	require.NoError(t, err)

	for _, layout := range []hessian.Layout{hessian.LayoutWeightsThenBiases, hessian.LayoutInterleaved} {
		t.Run(layout.String(), func(t *testing.T) {
			codec, err := hessian.NewCodec(s, layout)
			require.NoError(t, err)

			params := nn.InitParams(layers, rand.New(rand.NewPCG(1, 1)), layout == hessian.LayoutInterleaved)
			// Non-zero biases so a swapped segment would show.
			for _, p := range params {
				if p.Shape().Rank() == 1 {
					for i := range p.Data() {
						p.Data()[i] = float64(i) + 0.5
					}
				}
			}

			flat, err := codec.Flatten(backend, params)
			require.NoError(t, err)
			require.Equal(t, tensor.Shape{s.NumParams()}, flat.Shape())

			back, err := codec.Unflatten(backend, flat)
			require.NoError(t, err)
			require.Len(t, back, len(params))
			for i := range params {
				assert.Equal(t, params[i].Shape(), back[i].Shape(), "tensor %d", i)
				assert.Equal(t, params[i].Data(), back[i].Data(), "tensor %d", i)
			}

			v := tensor.Randn(tensor.Shape{s.NumParams()}, rand.New(rand.NewPCG(2, 2)), tensor.CPU)
			structured, err := codec.Unflatten(backend, v)
			require.NoError(t, err)
			again, err := codec.Flatten(backend, structured)
			require.NoError(t, err)
			assert.Equal(t, v.Data(), again.Data())
		})
	}
}

func TestCodec_ShapeErrors(t *testing.T) {
	backend := cpu.New()
	s, err := hessian.NewSchema([]int{2, 1})
	require.NoError(t, err)
	codec, err := hessian.NewCodec(s, hessian.LayoutWeightsThenBiases)
	require.NoError(t, err)

	_, err = codec.Unflatten(backend, tensor.Zeros(tensor.Shape{4}, tensor.CPU))
	assert.ErrorIs(t, err, hessian.ErrShape)

	_, err = codec.Unflatten(backend, nil)
	assert.ErrorIs(t, err, hessian.ErrShape)

	_, err = codec.Flatten(backend, []*tensor.RawTensor{tensor.Zeros(tensor.Shape{2, 1}, tensor.CPU)})
	assert.ErrorIs(t, err, hessian.ErrShape)

	_, err = codec.Flatten(backend, []*tensor.RawTensor{
		tensor.Zeros(tensor.Shape{1, 2}, tensor.CPU),
		tensor.Zeros(tensor.Shape{1}, tensor.CPU),
	})
	assert.ErrorIs(t, err, hessian.ErrShape)
}

// Flattening on a recording backend keeps gradients flowing to every
// structured parameter.
func TestCodec_FlattenIsDifferentiable(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	s, err := hessian.NewSchema([]int{2, 1})
	require.NoError(t, err)
	codec, err := hessian.NewCodec(s, hessian.LayoutWeightsThenBiases)
	require.NoError(t, err)

	params := []*tensor.RawTensor{
		fromSlice(t, []float64{1, 2}, 2, 1),
		fromSlice(t, []float64{3}, 1),
	}
	flat, err := codec.Flatten(backend, params)
	require.NoError(t, err)

	weights := fromSlice(t, []float64{10, 20, 30}, 3)
	cost := backend.Sum(backend.Mul(flat, weights))

	grads, err := backend.Gradients(cost, params)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, grads[0].Data())
	assert.Equal(t, tensor.Shape{2, 1}, grads[0].Shape())
	assert.Equal(t, []float64{30}, grads[1].Data())
}
