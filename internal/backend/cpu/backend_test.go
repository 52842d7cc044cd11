package cpu_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/curvature/internal/backend/cpu"
	"github.com/born-ml/curvature/internal/tensor"
)

func fromSlice(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return r
}

func TestCPUBackend_Name(t *testing.T) {
	backend := cpu.New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_Elementwise(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float64{1, 2, 3, 4}, 2, 2)
	b := fromSlice(t, []float64{2, 2, 4, 8}, 2, 2)

	assert.Equal(t, []float64{3, 4, 7, 12}, backend.Add(a, b).Data())
	assert.Equal(t, []float64{-1, 0, -1, -4}, backend.Sub(a, b).Data())
	assert.Equal(t, []float64{2, 4, 12, 32}, backend.Mul(a, b).Data())
	assert.Equal(t, []float64{0.5, 1, 0.75, 0.5}, backend.Div(a, b).Data())
}

func TestCPUBackend_Broadcast(t *testing.T) {
	backend := cpu.New()
	m := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	row := fromSlice(t, []float64{10, 20, 30}, 3)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, backend.Add(m, row).Data())

	col := fromSlice(t, []float64{1, 2}, 2, 1)
	assert.Equal(t, []float64{0, 1, 2, 2, 3, 4}, backend.Sub(m, col).Data())

	scalar := tensor.Full(tensor.Shape{}, 2, tensor.CPU)
	out := backend.Mul(scalar, m)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, out.Data())

	assert.Panics(t, func() {
		backend.Add(m, fromSlice(t, []float64{1, 2}, 2))
	})
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := fromSlice(t, []float64{7, 8, 9, 10, 11, 12}, 3, 2)

	out := backend.MatMul(a, b)
	require.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, out.Data())

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	out := backend.Transpose(a)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, out.Data())
}

func TestCPUBackend_Math(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, []float64{-2, 0, 1.5}, 3)

	assert.Equal(t, []float64{-4, 0, 3}, backend.MulScalar(x, 2).Data())
	assert.Equal(t, []float64{-1, 1, 2.5}, backend.AddScalar(x, 1).Data())
	assert.Equal(t, []float64{0, 0, 1.5}, backend.ReLU(x).Data())

	for i, v := range x.Data() {
		assert.InDelta(t, math.Exp(v), backend.Exp(x).Data()[i], 1e-12)
		assert.InDelta(t, math.Tanh(v), backend.Tanh(x).Data()[i], 1e-12)
		assert.InDelta(t, 1/(1+math.Exp(-v)), backend.Sigmoid(x).Data()[i], 1e-12)
	}

	pos := fromSlice(t, []float64{1, math.E}, 2)
	assert.InDeltaSlice(t, []float64{0, 1}, backend.Log(pos).Data(), 1e-12)
}

func TestCPUBackend_SigmoidExtremes(t *testing.T) {
	backend := cpu.New()
	out := backend.Sigmoid(fromSlice(t, []float64{-800, 800}, 2)).Data()
	assert.False(t, math.IsNaN(out[0]))
	assert.InDelta(t, 0, out[0], 1e-300)
	assert.InDelta(t, 1, out[1], 1e-12)
}

func TestCPUBackend_Reductions(t *testing.T) {
	backend := cpu.New()
	m := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	sum := backend.Sum(m)
	assert.Equal(t, tensor.Shape{}, sum.Shape())
	assert.Equal(t, 21.0, sum.Item())

	rows := backend.SumDim(m, 1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float64{6, 15}, rows.Data())

	cols := backend.SumDim(m, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float64{5, 7, 9}, cols.Data())

	assert.Equal(t, []float64{6, 15}, backend.SumDim(m, -1, false).Data())

	to := backend.SumTo(m, tensor.Shape{3})
	assert.Equal(t, []float64{5, 7, 9}, to.Data())

	expanded := backend.Expand(fromSlice(t, []float64{1, 2}, 2, 1), tensor.Shape{2, 3})
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, expanded.Data())

	assert.Panics(t, func() { backend.SumTo(m, tensor.Shape{2}) })
}

func TestCPUBackend_Layout(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float64{1, 2, 3, 4}, 2, 2)
	b := fromSlice(t, []float64{5, 6}, 1, 2)

	cat := backend.Cat([]*tensor.RawTensor{a, b})
	assert.Equal(t, tensor.Shape{3, 2}, cat.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, cat.Data())

	narrow := backend.Narrow(cat, 1, 2)
	assert.Equal(t, tensor.Shape{2, 2}, narrow.Shape())
	assert.Equal(t, []float64{3, 4, 5, 6}, narrow.Data())

	flat := backend.Reshape(cat, tensor.Shape{6})
	assert.Equal(t, tensor.Shape{6}, flat.Shape())

	assert.Panics(t, func() { backend.Narrow(cat, 2, 2) })
	assert.Panics(t, func() { backend.Reshape(cat, tensor.Shape{4}) })
	assert.Panics(t, func() { backend.Cat([]*tensor.RawTensor{a, flat}) })
}

func TestCPUBackend_ResultsAreFresh(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float64{1, 2}, 2)

	r := backend.Reshape(a, tensor.Shape{2})
	r.Data()[0] = 99
	assert.Equal(t, 1.0, a.Data()[0])
	assert.NotEqual(t, a.ID(), r.ID())
}
