package tensor

import (
	"fmt"
	"math/rand/v2"
)

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, device Device) *RawTensor {
	return MustRaw(shape, device)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64, device Device) *RawTensor {
	t := MustRaw(shape, device)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, device Device) *RawTensor {
	return Full(shape, 1, device)
}

// Eye creates the n×n identity matrix.
func Eye(n int, device Device) *RawTensor {
	t := MustRaw(Shape{n, n}, device)
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// Basis returns the i-th standard basis vector of length n.
func Basis(n, i int, device Device) *RawTensor {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("basis index %d out of range [0, %d)", i, n))
	}
	t := MustRaw(Shape{n}, device)
	t.data[i] = 1
	return t
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice(data []float64, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, device)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn(shape Shape, rng *rand.Rand, device Device) *RawTensor {
	t := MustRaw(shape, device)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}

// Uniform creates a tensor of samples drawn uniformly from [lo, hi).
func Uniform(shape Shape, lo, hi float64, rng *rand.Rand, device Device) *RawTensor {
	t := MustRaw(shape, device)
	for i := range t.data {
		t.data[i] = lo + (hi-lo)*rng.Float64()
	}
	return t
}
