package hessian_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/internal/backend/cpu"
	"github.com/born-ml/curvature/internal/hessian"
	"github.com/born-ml/curvature/internal/nn"
	"github.com/born-ml/curvature/internal/parallel"
	"github.com/born-ml/curvature/internal/tensor"
)

func fromSlice(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return r
}

// linearEstimator is the single-weight regression (w*x + b - y)².
func linearEstimator(t *testing.T, xs, ys []float64, w, b float64) *hessian.Estimator[*cpu.CPUBackend] {
	t.Helper()
	model := nn.MLP{Layers: []int{1, 1}}

	cfg := hessian.DefaultConfig()
	cfg.Layers = model.Layers
	cfg.Model = model.Forward
	cfg.Cost = nn.SumSquaredError
	cfg.Params = []*tensor.RawTensor{
		fromSlice(t, []float64{w}, 1, 1),
		fromSlice(t, []float64{b}, 1),
	}
	cfg.X = fromSlice(t, xs, len(xs), 1)
	cfg.Y = fromSlice(t, ys, len(ys), 1)
	cfg.BatchSize = len(xs)

	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)
	return est
}

// tanhConfig is a [2, 3, 1] tanh network on four examples (P = 13).
func tanhConfig(t *testing.T, layout hessian.Layout) hessian.Config {
	t.Helper()
	model := nn.MLP{
		Layers:      []int{2, 3, 1},
		Hidden:      nn.Tanh,
		Interleaved: layout == hessian.LayoutInterleaved,
	}

	cfg := hessian.DefaultConfig()
	cfg.Layers = model.Layers
	cfg.Model = model.Forward
	cfg.Cost = nn.MeanSquaredError
	cfg.Params = nn.InitParams(model.Layers, rand.New(rand.NewPCG(42, 1)), model.Interleaved)
	cfg.X = tensor.Randn(tensor.Shape{4, 2}, rand.New(rand.NewPCG(42, 2)), tensor.CPU)
	cfg.Y = tensor.Randn(tensor.Shape{4, 1}, rand.New(rand.NewPCG(42, 3)), tensor.CPU)
	cfg.BatchSize = 4
	cfg.Layout = layout
	return cfg
}

func tanhEstimator(t *testing.T, layout hessian.Layout) *hessian.Estimator[*cpu.CPUBackend] {
	t.Helper()
	est, err := hessian.New(cpu.New(), tanhConfig(t, layout))
	require.NoError(t, err)
	return est
}

func TestFullHessian_SingleWeightRegression(t *testing.T) {
	est := linearEstimator(t, []float64{1}, []float64{0}, 0.3, -0.7)
	require.Equal(t, 2, est.NumParams())

	h, err := est.FullHessian()
	require.NoError(t, err)

	want := mat.NewDense(2, 2, []float64{2, 2, 2, 2})
	assert.True(t, mat.EqualApprox(want, h, 1e-12), "got\n%v", mat.Formatted(h))
}

func TestFullHessian_LinearRegressionClosedForm(t *testing.T) {
	est := linearEstimator(t, []float64{1, 2, 3}, []float64{0, 1, 5}, 1.5, 0.2)

	h, err := est.FullHessian()
	require.NoError(t, err)

	// 2 · Σ [x, 1]ᵀ[x, 1]
	want := mat.NewDense(2, 2, []float64{28, 12, 12, 6})
	assert.True(t, mat.EqualApprox(want, h, 1e-10), "got\n%v", mat.Formatted(h))
}

func TestHessianVectorProduct_BasisConsistency(t *testing.T) {
	for _, layout := range []hessian.Layout{hessian.LayoutWeightsThenBiases, hessian.LayoutInterleaved} {
		t.Run(layout.String(), func(t *testing.T) {
			est := tanhEstimator(t, layout)
			p := est.NumParams()
			require.Equal(t, 13, p)

			h, err := est.FullHessian()
			require.NoError(t, err)

			for i := 0; i < p; i++ {
				hv, err := est.HessianVectorProduct(tensor.Basis(p, i, tensor.CPU))
				require.NoError(t, err)
				assert.InDeltaSlice(t, h.RawRowView(i), hv.Data(), 1e-12, "row %d", i)
			}
		})
	}
}

func TestFullHessian_Symmetric(t *testing.T) {
	h, err := tanhEstimator(t, hessian.LayoutWeightsThenBiases).FullHessian()
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(h, h.T(), 1e-10))
}

func TestFullHessian_ParallelMatchesSequential(t *testing.T) {
	sequential, err := tanhEstimator(t, hessian.LayoutWeightsThenBiases).FullHessian()
	require.NoError(t, err)

	cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	par, err := est.FullHessian()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(sequential, par, 1e-12))
}

func TestHessianVectorProduct_Linear(t *testing.T) {
	est := tanhEstimator(t, hessian.LayoutWeightsThenBiases)
	backend := cpu.New()
	rng := rand.New(rand.NewPCG(9, 9))
	p := est.NumParams()

	u := tensor.Randn(tensor.Shape{p}, rng, tensor.CPU)
	v := tensor.Randn(tensor.Shape{p}, rng, tensor.CPU)
	a, b := 2.5, -0.75

	hu, err := est.HessianVectorProduct(u)
	require.NoError(t, err)
	hv, err := est.HessianVectorProduct(v)
	require.NoError(t, err)

	combined := backend.Add(backend.MulScalar(u, a), backend.MulScalar(v, b))
	hc, err := est.HessianVectorProduct(combined)
	require.NoError(t, err)

	want := backend.Add(backend.MulScalar(hu, a), backend.MulScalar(hv, b))
	assert.InDeltaSlice(t, want.Data(), hc.Data(), 1e-10)
}

func TestHessianVectorProduct_FiniteDifference(t *testing.T) {
	est := tanhEstimator(t, hessian.LayoutWeightsThenBiases)
	backend := cpu.New()
	p := est.NumParams()
	v := tensor.Randn(tensor.Shape{p}, rand.New(rand.NewPCG(11, 3)), tensor.CPU)

	hv, err := est.HessianVectorProduct(v)
	require.NoError(t, err)

	flat, err := est.Flatten(est.Params())
	require.NoError(t, err)

	const eps = 1e-5
	gradAt := func(step float64) []float64 {
		shifted, err := est.Unflatten(backend.Add(flat, backend.MulScalar(v, step)))
		require.NoError(t, err)
		moved, err := est.WithParams(shifted)
		require.NoError(t, err)
		g, err := moved.Gradient()
		require.NoError(t, err)
		return g.Data()
	}

	plus, minus := gradAt(eps), gradAt(-eps)
	for i := 0; i < p; i++ {
		numeric := (plus[i] - minus[i]) / (2 * eps)
		assert.InDelta(t, numeric, hv.Data()[i], 1e-5, "component %d", i)
	}
}

func TestHessianVectorProduct_WrongLength(t *testing.T) {
	est := tanhEstimator(t, hessian.LayoutWeightsThenBiases)

	_, err := est.HessianVectorProduct(tensor.Zeros(tensor.Shape{12}, tensor.CPU))
	assert.ErrorIs(t, err, hessian.ErrShape)

	_, err = est.HessianVectorProduct(tensor.Zeros(tensor.Shape{13, 1}, tensor.CPU))
	assert.ErrorIs(t, err, hessian.ErrShape)

	_, err = est.HessianVectorProduct(nil)
	assert.ErrorIs(t, err, hessian.ErrShape)
}

func TestOPGApproximation_PositiveSemidefinite(t *testing.T) {
	est := tanhEstimator(t, hessian.LayoutWeightsThenBiases)

	g, err := est.OPGApproximation()
	require.NoError(t, err)
	require.Equal(t, 13, g.SymmetricDim())

	var eig mat.EigenSym
	require.True(t, eig.Factorize(g, false))
	for i, lambda := range eig.Values(nil) {
		assert.GreaterOrEqual(t, lambda, -1e-10, "eigenvalue %d", i)
	}
	// Four examples span at most four directions.
	var positive int
	for _, lambda := range eig.Values(nil) {
		if lambda > 1e-10 {
			positive++
		}
	}
	assert.LessOrEqual(t, positive, 4)
}

func TestOPGApproximation_MatchesPerExampleGradients(t *testing.T) {
	cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)
	backend := cpu.New()

	grads, err := est.PerExampleGradients()
	require.NoError(t, err)
	rows, cols := grads.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 13, cols)

	for i := 0; i < rows; i++ {
		single := est.WithData(backend.Narrow(cfg.X, i, 1), backend.Narrow(cfg.Y, i, 1))
		g, err := single.Gradient()
		require.NoError(t, err)
		assert.InDeltaSlice(t, g.Data(), grads.RawRowView(i), 1e-12, "example %d", i)
	}

	g, err := est.OPGApproximation()
	require.NoError(t, err)

	var want mat.Dense
	want.Mul(grads.T(), grads)
	want.Scale(1.0/float64(rows), &want)
	assert.True(t, mat.EqualApprox(&want, g, 1e-12))
}

func TestOPGApproximation_ParallelMatchesSequential(t *testing.T) {
	sequential, err := tanhEstimator(t, hessian.LayoutWeightsThenBiases).OPGApproximation()
	require.NoError(t, err)

	cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	par, err := est.OPGApproximation()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(sequential, par, 1e-12))
}

func TestOPGApproximation_SingleSliceIsOuterProduct(t *testing.T) {
	cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
	cfg.BatchSize = 1
	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	g, err := est.OPGApproximation()
	require.NoError(t, err)
	grad, err := est.Gradient()
	require.NoError(t, err)

	v := mat.NewVecDense(grad.NumElements(), grad.Data())
	var want mat.Dense
	want.Outer(1, v, v)
	assert.True(t, mat.EqualApprox(&want, g, 1e-12))
}

func TestOPGApproximation_BatchShape(t *testing.T) {
	tests := []struct {
		name      string
		n, labels int
		batch     int
	}{
		{"not a divisor", 5, 5, 2},
		{"zero", 4, 4, 0},
		{"negative", 4, 4, -1},
		{"labels disagree", 4, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
			cfg.X = tensor.Zeros(tensor.Shape{tt.n, 2}, tensor.CPU)
			cfg.Y = tensor.Zeros(tensor.Shape{tt.labels, 1}, tensor.CPU)
			cfg.BatchSize = tt.batch
			est, err := hessian.New(cpu.New(), cfg)
			require.NoError(t, err)

			_, err = est.OPGApproximation()
			assert.ErrorIs(t, err, hessian.ErrBatchShape)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Run("schema", func(t *testing.T) {
		cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
		cfg.Layers = []int{2}
		_, err := hessian.New(cpu.New(), cfg)
		assert.ErrorIs(t, err, hessian.ErrSchema)
	})

	t.Run("param shape", func(t *testing.T) {
		cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
		cfg.Params[0] = tensor.Zeros(tensor.Shape{3, 2}, tensor.CPU)
		_, err := hessian.New(cpu.New(), cfg)
		assert.ErrorIs(t, err, hessian.ErrShape)
	})

	t.Run("layout mismatch", func(t *testing.T) {
		cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
		cfg.Layout = hessian.LayoutInterleaved
		_, err := hessian.New(cpu.New(), cfg)
		assert.ErrorIs(t, err, hessian.ErrShape)
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
		cfg.Model = nil
		_, err := hessian.New(cpu.New(), cfg)
		assert.ErrorIs(t, err, hessian.ErrGraphConstruction)
	})
}

func TestGraphConstruction(t *testing.T) {
	weightOnly := func(b tensor.Backend, x *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor {
		return b.MatMul(x, params[0])
	}
	panicking := func(tensor.Backend, *tensor.RawTensor, []*tensor.RawTensor) *tensor.RawTensor {
		panic("model exploded")
	}
	vectorCost := func(b tensor.Backend, y, output *tensor.RawTensor, _ []*tensor.RawTensor) *tensor.RawTensor {
		return b.Sub(output, y)
	}

	tests := []struct {
		name  string
		model hessian.ModelFunc
		cost  hessian.CostFunc
	}{
		{"parameter unused", weightOnly, nn.SumSquaredError},
		{"model panics", panicking, nn.SumSquaredError},
		{"cost not scalar", nn.MLP{Layers: []int{1, 1}}.Forward, vectorCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hessian.DefaultConfig()
			cfg.Layers = []int{1, 1}
			cfg.Model = tt.model
			cfg.Cost = tt.cost
			cfg.Params = []*tensor.RawTensor{fromSlice(t, []float64{1}, 1, 1), fromSlice(t, []float64{0}, 1)}
			cfg.X = fromSlice(t, []float64{1, 2}, 2, 1)
			cfg.Y = fromSlice(t, []float64{0, 1}, 2, 1)
			cfg.BatchSize = 1
			est, err := hessian.New(cpu.New(), cfg)
			require.NoError(t, err)

			_, err = est.FullHessian()
			assert.True(t, errors.Is(err, hessian.ErrGraphConstruction), "FullHessian: %v", err)

			_, err = est.HessianVectorProduct(tensor.Zeros(tensor.Shape{2}, tensor.CPU))
			assert.ErrorIs(t, err, hessian.ErrGraphConstruction)

			_, err = est.OPGApproximation()
			assert.ErrorIs(t, err, hessian.ErrGraphConstruction)
		})
	}
}

func TestFullHessian_ZeroCurvatureParameter(t *testing.T) {
	// The bias enters linearly and only through a term with no second
	// derivative, so its row and column are zero.
	model := func(b tensor.Backend, x *tensor.RawTensor, params []*tensor.RawTensor) *tensor.RawTensor {
		xw := b.MatMul(x, params[0])
		return b.Add(b.Mul(xw, xw), params[1])
	}
	cfg := hessian.DefaultConfig()
	cfg.Layers = []int{1, 1}
	cfg.Model = model
	cfg.Cost = func(b tensor.Backend, _, output *tensor.RawTensor, _ []*tensor.RawTensor) *tensor.RawTensor {
		return b.Sum(output)
	}
	cfg.Params = []*tensor.RawTensor{fromSlice(t, []float64{0.5}, 1, 1), fromSlice(t, []float64{0}, 1)}
	cfg.X = fromSlice(t, []float64{3}, 1, 1)
	cfg.Y = fromSlice(t, []float64{0}, 1, 1)
	cfg.BatchSize = 1
	est, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	h, err := est.FullHessian()
	require.NoError(t, err)

	// cost = (x w)² + b, d²/dw² = 2x² = 18
	want := mat.NewDense(2, 2, []float64{18, 0, 0, 0})
	assert.True(t, mat.EqualApprox(want, h, 1e-12), "got\n%v", mat.Formatted(h))
}

func TestWithL2_AddsLambdaToWeightDiagonal(t *testing.T) {
	cfg := tanhConfig(t, hessian.LayoutWeightsThenBiases)
	plain, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	const lambda = 0.1
	cfg.Cost = nn.WithL2(nn.MeanSquaredError, lambda)
	reg, err := hessian.New(cpu.New(), cfg)
	require.NoError(t, err)

	h0, err := plain.FullHessian()
	require.NoError(t, err)
	h1, err := reg.FullHessian()
	require.NoError(t, err)

	var diff mat.Dense
	diff.Sub(h1, h0)

	weights := 2*3 + 3*1
	p := plain.NumParams()
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			want := 0.0
			if i == j && i < weights {
				want = lambda
			}
			assert.InDelta(t, want, diff.At(i, j), 1e-10, "(%d, %d)", i, j)
		}
	}
}
