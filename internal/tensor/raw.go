package tensor

import (
	"fmt"
	"sync/atomic"
)

// Device represents the compute device a tensor lives on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

var nextID atomic.Uint64

// RawTensor is the low-level float64 tensor representation.
//
// A RawTensor is treated as immutable once an operation has produced it:
// backends always allocate their results, so the pointer identity of a
// RawTensor is a stable node identity for the gradient tape.
type RawTensor struct {
	id     uint64
	data   []float64
	shape  Shape
	stride []int
	device Device
}

// NewRaw allocates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		id:     nextID.Add(1),
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: device,
	}, nil
}

// MustRaw is NewRaw for shapes already known to be valid.
// It panics on an invalid shape.
func MustRaw(shape Shape, device Device) *RawTensor {
	r, err := NewRaw(shape, device)
	if err != nil {
		panic(err)
	}
	return r
}

// ID returns a process-unique identifier, useful in log records.
func (r *RawTensor) ID() uint64 {
	return r.id
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return len(r.data)
}

// Data returns the backing slice in row-major order.
//
// WARNING: this is the tensor's memory. Writing to it after the tensor has
// been used in a recorded operation corrupts the gradient tape.
func (r *RawTensor) Data() []float64 {
	return r.data
}

// Item returns the single value of a one-element tensor.
func (r *RawTensor) Item() float64 {
	if len(r.data) != 1 {
		panic(fmt.Sprintf("Item() requires a single-element tensor, got shape %v", r.shape))
	}
	return r.data[0]
}

// At returns the element at the given indices.
func (r *RawTensor) At(indices ...int) float64 {
	return r.data[r.offset(indices)]
}

func (r *RawTensor) offset(indices []int) int {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(indices)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, r.shape[i]))
		}
		off += idx * r.stride[i]
	}
	return off
}

// Clone returns a deep copy with a fresh identity.
// The copy carries no relation to r on any gradient tape.
func (r *RawTensor) Clone() *RawTensor {
	out := MustRaw(r.shape, r.device)
	copy(out.data, r.data)
	return out
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor#%d%v on %s", r.id, r.shape, r.device)
}
