package hessian

import (
	"fmt"

	"github.com/born-ml/curvature/internal/tensor"
)

// Schema describes a feed-forward parameter structure by its layer widths.
//
// Widths layers[0..L] define L weight matrices W_l of shape
// (layers[l], layers[l+1]) and L bias vectors b_l of shape (layers[l+1],).
// The number of parameters is P = Σ layers[l]*layers[l+1] + layers[l+1].
//
// The offset tables are computed once and never change. A Schema is safe
// for concurrent use.
type Schema struct {
	layers    []int
	numParams int

	// Offsets into the weights-then-biases flat vector, each of length L+1:
	// W_l occupies [weightOffsets[l], weightOffsets[l+1]) and b_l occupies
	// [biasOffsets[l], biasOffsets[l+1]). biasOffsets[0] == weightOffsets[L].
	weightOffsets []int
	biasOffsets   []int
}

// NewSchema validates layers and precomputes the offset tables.
func NewSchema(layers []int) (*Schema, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layer widths, got %d", ErrSchema, len(layers))
	}
	for i, w := range layers {
		if w <= 0 {
			return nil, fmt.Errorf("%w: layer %d has width %d (must be > 0)", ErrSchema, i, w)
		}
	}

	s := &Schema{layers: append([]int(nil), layers...)}
	n := len(layers) - 1

	s.weightOffsets = make([]int, n+1)
	for l := 0; l < n; l++ {
		s.weightOffsets[l+1] = s.weightOffsets[l] + layers[l]*layers[l+1]
	}
	s.biasOffsets = make([]int, n+1)
	s.biasOffsets[0] = s.weightOffsets[n]
	for l := 0; l < n; l++ {
		s.biasOffsets[l+1] = s.biasOffsets[l] + layers[l+1]
	}
	s.numParams = s.biasOffsets[n]

	return s, nil
}

// Layers returns a copy of the layer widths.
func (s *Schema) Layers() []int {
	return append([]int(nil), s.layers...)
}

// NumLayers returns L, the number of weight matrices.
func (s *Schema) NumLayers() int {
	return len(s.layers) - 1
}

// NumParams returns P, the length of the flattened parameter vector.
func (s *Schema) NumParams() int {
	return s.numParams
}

// NumTensors returns 2L, the length of a structured parameter list.
func (s *Schema) NumTensors() int {
	return 2 * s.NumLayers()
}

// WeightShape returns the shape of W_l.
func (s *Schema) WeightShape(l int) tensor.Shape {
	return tensor.Shape{s.layers[l], s.layers[l+1]}
}

// BiasShape returns the shape of b_l.
func (s *Schema) BiasShape(l int) tensor.Shape {
	return tensor.Shape{s.layers[l+1]}
}

// WeightRange returns the half-open range W_l occupies in the
// weights-then-biases flat vector.
func (s *Schema) WeightRange(l int) (start, end int) {
	return s.weightOffsets[l], s.weightOffsets[l+1]
}

// BiasRange returns the half-open range b_l occupies in the
// weights-then-biases flat vector.
func (s *Schema) BiasRange(l int) (start, end int) {
	return s.biasOffsets[l], s.biasOffsets[l+1]
}

// String renders the schema as its widths and parameter count.
func (s *Schema) String() string {
	return fmt.Sprintf("Schema%v(P=%d)", s.layers, s.numParams)
}
