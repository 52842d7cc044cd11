package hessian

import (
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// Layout selects how a structured parameter list is ordered and therefore
// how it maps onto the flat vector. One Codec uses one Layout for its
// whole lifetime.
type Layout int

const (
	// LayoutWeightsThenBiases is the canonical layout: the list is
	// W_0..W_{L-1}, b_0..b_{L-1}, and the flat vector holds every weight
	// matrix (row-major) followed by every bias.
	LayoutWeightsThenBiases Layout = iota

	// LayoutInterleaved takes the list as W_0, b_0, W_1, b_1, ... and
	// concatenates every entry, reshaped to 1-D, in the order received.
	LayoutInterleaved
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutWeightsThenBiases:
		return "weights-then-biases"
	case LayoutInterleaved:
		return "interleaved"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// segment is the slot of one parameter tensor in the flat vector.
type segment struct {
	offset int
	size   int
	shape  tensor.Shape
}

// Codec is the bijection between a structured parameter list and a flat
// vector of length P.
//
// The backend passed to Flatten and Unflatten does the work. On a recording
// autodiff backend the reshapes, concatenation and narrowing are recorded,
// so a flattened gradient can be differentiated again.
type Codec struct {
	schema   *Schema
	layout   Layout
	segments []segment // in parameter-list order
}

// NewCodec builds the segment table for schema under layout.
func NewCodec(schema *Schema, layout Layout) (*Codec, error) {
	n := schema.NumLayers()
	segs := make([]segment, 0, 2*n)

	switch layout {
	case LayoutWeightsThenBiases:
		for l := 0; l < n; l++ {
			start, end := schema.WeightRange(l)
			segs = append(segs, segment{offset: start, size: end - start, shape: schema.WeightShape(l)})
		}
		for l := 0; l < n; l++ {
			start, end := schema.BiasRange(l)
			segs = append(segs, segment{offset: start, size: end - start, shape: schema.BiasShape(l)})
		}
	case LayoutInterleaved:
		off := 0
		for l := 0; l < n; l++ {
			for _, shape := range []tensor.Shape{schema.WeightShape(l), schema.BiasShape(l)} {
				size := shape.NumElements()
				segs = append(segs, segment{offset: off, size: size, shape: shape})
				off += size
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown parameter layout %d", ErrSchema, int(layout))
	}

	return &Codec{schema: schema, layout: layout, segments: segs}, nil
}

// Schema returns the codec's schema.
func (c *Codec) Schema() *Schema {
	return c.schema
}

// Layout returns the codec's layout.
func (c *Codec) Layout() Layout {
	return c.layout
}

// Check verifies that params has 2L tensors with the shapes the layout
// expects.
func (c *Codec) Check(params []*tensor.RawTensor) error {
	if len(params) != len(c.segments) {
		return fmt.Errorf("%w: expected %d parameter tensors, got %d", ErrShape, len(c.segments), len(params))
	}
	for i, p := range params {
		if p == nil {
			return fmt.Errorf("%w: parameter %d is nil", ErrShape, i)
		}
		if !p.Shape().Equal(c.segments[i].shape) {
			return fmt.Errorf("%w: parameter %d has shape %v, want %v (%s layout)",
				ErrShape, i, p.Shape(), c.segments[i].shape, c.layout)
		}
	}
	return nil
}

// Flatten concatenates params into one vector of length P.
func (c *Codec) Flatten(backend tensor.Backend, params []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := c.Check(params); err != nil {
		return nil, err
	}
	parts := make([]*tensor.RawTensor, len(params))
	for i, p := range params {
		parts[i] = backend.Reshape(p, tensor.Shape{c.segments[i].size})
	}
	return backend.Cat(parts), nil
}

// Unflatten splits a length-P vector back into parameter tensors, in the
// layout's order. Weight segments are reshaped to (layers[l], layers[l+1]);
// bias segments stay 1-D. The results are new tensors.
func (c *Codec) Unflatten(backend tensor.Backend, flat *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if flat == nil {
		return nil, fmt.Errorf("%w: flat vector is nil", ErrShape)
	}
	if err := c.checkFlat(flat); err != nil {
		return nil, err
	}
	params := make([]*tensor.RawTensor, len(c.segments))
	for i, seg := range c.segments {
		part := backend.Narrow(flat, seg.offset, seg.size)
		if len(seg.shape) != 1 {
			part = backend.Reshape(part, seg.shape)
		}
		params[i] = part
	}
	return params, nil
}

func (c *Codec) checkFlat(v *tensor.RawTensor) error {
	p := c.schema.NumParams()
	if s := v.Shape(); len(s) != 1 || s[0] != p {
		return fmt.Errorf("%w: flat vector has shape %v, want (%d)", ErrShape, s, p)
	}
	return nil
}
