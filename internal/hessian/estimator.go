// Package hessian estimates the curvature of a scalar cost with respect to
// the flattened parameters of a layered model.
//
// Two estimators are provided:
//
//   - FullHessian: the exact Hessian, one Hessian-vector product per
//     standard basis vector. Each product uses two chained reverse-mode
//     passes (Pearlmutter's trick), so the cost grows linearly with P.
//   - OPGApproximation: the outer product of per-example gradients,
//     G = (1/B) Σ g_i g_i^T. It is symmetric positive-semidefinite by
//     construction and needs first derivatives only. It is an
//     approximation: it matches the Hessian only under a Gauss-Newton /
//     Fisher assumption on the cost (for example cross-entropy on logits
//     at a well-fit model), and must not be read as exact.
//
// Every evaluation builds its graph on a fresh autodiff tape; the estimator
// holds no mutable state after construction and is safe for concurrent use.
package hessian

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/curvature/internal/autodiff"
	"github.com/born-ml/curvature/internal/parallel"
	"github.com/born-ml/curvature/internal/tensor"
)

// ModelFunc computes the model output for input x under params.
// All tensor work must go through b so that it is recorded.
type ModelFunc func(b tensor.Backend, x *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor

// CostFunc computes a scalar cost from labels y and model output.
// params are passed through for regularisation terms.
type CostFunc func(b tensor.Backend, y, output *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor

// Config holds everything an Estimator is built from.
type Config struct {
	Layers    []int               // Layer widths layers[0..L]
	Model     ModelFunc           // Forward pass
	Cost      CostFunc            // Scalar cost
	Params    []*tensor.RawTensor // Structured parameters in Layout order
	X         *tensor.RawTensor   // Model input, examples along dim 0
	Y         *tensor.RawTensor   // Labels, examples along dim 0
	BatchSize int                 // Number of OPG slices
	Layout    Layout              // Parameter-list layout (default: weights-then-biases)
	Parallel  parallel.Config     // Fan-out for OPG examples and parallel Hessian rows
	Logger    *slog.Logger        // Debug records per evaluation (default: discard)
}

// DefaultConfig returns a Config with the canonical layout, sequential
// execution and a discarding logger. Callers fill in the model, data and
// parameters.
func DefaultConfig() Config {
	return Config{
		Layout:   LayoutWeightsThenBiases,
		Parallel: parallel.Sequential(),
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// Estimator computes Hessian-vector products, the full Hessian and the OPG
// approximation for one model, cost, parameter point and batch.
type Estimator[B tensor.Backend] struct {
	backend   B
	schema    *Schema
	codec     *Codec
	model     ModelFunc
	cost      CostFunc
	params    []*tensor.RawTensor
	x, y      *tensor.RawTensor
	batchSize int
	parallel  parallel.Config
	logger    *slog.Logger
}

// New validates cfg and builds an Estimator on backend.
//
// backend is the plain compute backend; the estimator wraps it in a fresh
// autodiff backend for every evaluation. The batch size is validated
// against the data when the OPG approximation is requested.
func New[B tensor.Backend](backend B, cfg Config) (*Estimator[B], error) {
	schema, err := NewSchema(cfg.Layers)
	if err != nil {
		return nil, err
	}
	codec, err := NewCodec(schema, cfg.Layout)
	if err != nil {
		return nil, err
	}
	if cfg.Model == nil || cfg.Cost == nil {
		return nil, fmt.Errorf("%w: model and cost functions are required", ErrGraphConstruction)
	}
	if cfg.X == nil || cfg.Y == nil {
		return nil, fmt.Errorf("%w: input and labels are required", ErrGraphConstruction)
	}
	if err := codec.Check(cfg.Params); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Estimator[B]{
		backend:   backend,
		schema:    schema,
		codec:     codec,
		model:     cfg.Model,
		cost:      cfg.Cost,
		params:    append([]*tensor.RawTensor(nil), cfg.Params...),
		x:         cfg.X,
		y:         cfg.Y,
		batchSize: cfg.BatchSize,
		parallel:  cfg.Parallel,
		logger:    logger.With("schema", schema.String()),
	}, nil
}

// Schema returns the layer schema.
func (e *Estimator[B]) Schema() *Schema {
	return e.schema
}

// Codec returns the parameter codec.
func (e *Estimator[B]) Codec() *Codec {
	return e.codec
}

// NumParams returns P.
func (e *Estimator[B]) NumParams() int {
	return e.schema.NumParams()
}

// Params returns the structured parameters the estimator evaluates at.
func (e *Estimator[B]) Params() []*tensor.RawTensor {
	return append([]*tensor.RawTensor(nil), e.params...)
}

// WithData returns an Estimator for the same model and parameters on a
// different batch.
func (e *Estimator[B]) WithData(x, y *tensor.RawTensor) *Estimator[B] {
	next := *e
	next.x, next.y = x, y
	return &next
}

// WithParams returns an Estimator evaluated at different parameters.
func (e *Estimator[B]) WithParams(params []*tensor.RawTensor) (*Estimator[B], error) {
	if err := e.codec.Check(params); err != nil {
		return nil, err
	}
	next := *e
	next.params = append([]*tensor.RawTensor(nil), params...)
	return &next, nil
}

// Flatten maps structured parameters to a flat vector of length P.
func (e *Estimator[B]) Flatten(params []*tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.codec.Flatten(e.backend, params)
}

// Unflatten maps a flat vector of length P back to structured parameters.
func (e *Estimator[B]) Unflatten(flat *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return e.codec.Unflatten(e.backend, flat)
}

// session is one evaluation of the cost on its own tape.
type session[B tensor.Backend] struct {
	ad     *autodiff.AutodiffBackend[B]
	codec  *Codec
	params []*tensor.RawTensor
	cost   *tensor.RawTensor
}

// record runs model and cost for (x, y) at params on a fresh recording tape.
func (e *Estimator[B]) record(params []*tensor.RawTensor, x, y *tensor.RawTensor) (*session[B], error) {
	ad := autodiff.New(e.backend)
	ad.Tape().StartRecording()

	output := e.model(ad, x, params)
	if output == nil {
		return nil, fmt.Errorf("%w: model returned no output", ErrGraphConstruction)
	}
	cost := e.cost(ad, y, output, params)
	if cost == nil {
		return nil, fmt.Errorf("%w: cost function returned no value", ErrGraphConstruction)
	}
	if cost.NumElements() != 1 {
		return nil, fmt.Errorf("%w: cost must be a scalar, got shape %v", ErrGraphConstruction, cost.Shape())
	}

	return &session[B]{ad: ad, codec: e.codec, params: params, cost: cost}, nil
}

// gradient returns the flattened first gradient of the cost. With
// createGraph the result stays on the tape and can be differentiated.
func (s *session[B]) gradient(createGraph bool) (*tensor.RawTensor, error) {
	var opts []autodiff.GradientOption
	if createGraph {
		opts = append(opts, autodiff.CreateGraph())
	}
	grads, err := s.ad.Gradients(s.cost, s.params, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}
	for i, g := range grads {
		if g == nil {
			return nil, fmt.Errorf("%w: cost does not depend on parameter %d", ErrGraphConstruction, i)
		}
	}

	if createGraph {
		return s.codec.Flatten(s.ad, grads)
	}
	return s.codec.Flatten(s.ad.Inner(), grads)
}

// Gradient returns the flattened gradient of the cost at the current
// parameters, in the estimator's layout.
func (e *Estimator[B]) Gradient() (*tensor.RawTensor, error) {
	var g *tensor.RawTensor
	err := guard("gradient", func() error {
		s, err := e.record(e.params, e.x, e.y)
		if err != nil {
			return err
		}
		g, err = s.gradient(false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
