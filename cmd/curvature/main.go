// Package main provides the curvature CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/backend/cpu"
	"github.com/born-ml/curvature/hessian"
	"github.com/born-ml/curvature/nn"
	"github.com/born-ml/curvature/optim"
	"github.com/born-ml/curvature/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "curvature %s\n", version)
		return nil
	case "demo":
		return demo(args[1:], stdout, stderr)
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "curvature - Hessian and outer-product curvature for layered models")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  demo       Estimate curvature of a random MLP on synthetic data")
}

type demoOptions struct {
	layers      []int
	examples    int
	batch       int
	activation  string
	cost        string
	layout      string
	l2          float64
	parallel    bool
	fitSteps    int
	fitLR       float64
	newton      bool
	seed        uint64
	printMatrix bool
	verbose     bool
}

func parseDemo(args []string, stderr io.Writer) (demoOptions, error) {
	var opts demoOptions
	var layers string

	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&layers, "layers", "2,3,1", "comma-separated layer widths")
	fs.IntVar(&opts.examples, "examples", 8, "number of synthetic examples")
	fs.IntVar(&opts.batch, "batch", 8, "number of OPG slices (must divide -examples)")
	fs.StringVar(&opts.activation, "activation", "tanh", "hidden activation: identity, tanh, sigmoid, relu")
	fs.StringVar(&opts.cost, "cost", "mse", "cost: sse, mse, ce (softmax cross-entropy)")
	fs.StringVar(&opts.layout, "layout", "weights-then-biases", "parameter layout: weights-then-biases, interleaved")
	fs.Float64Var(&opts.l2, "l2", 0, "L2 penalty on weights")
	fs.BoolVar(&opts.parallel, "parallel", false, "fan out rows and examples over all CPUs")
	fs.IntVar(&opts.fitSteps, "fit", 0, "Adam steps to fit the model before estimating")
	fs.Float64Var(&opts.fitLR, "lr", 0.01, "Adam learning rate for -fit")
	fs.BoolVar(&opts.newton, "newton", false, "finish the fit with one damped Newton step")
	fs.Uint64Var(&opts.seed, "seed", 1, "random seed")
	fs.BoolVar(&opts.printMatrix, "print", false, "print the matrices")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	for _, part := range strings.Split(layers, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return opts, fmt.Errorf("invalid -layers %q: %w", layers, err)
		}
		opts.layers = append(opts.layers, w)
	}
	return opts, nil
}

func demo(args []string, stdout, stderr io.Writer) error {
	opts, err := parseDemo(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	activations := map[string]nn.Activation{
		"identity": nn.Identity,
		"tanh":     nn.Tanh,
		"sigmoid":  nn.Sigmoid,
		"relu":     nn.ReLU,
	}
	hidden, ok := activations[opts.activation]
	if !ok {
		return fmt.Errorf("unknown activation %q", opts.activation)
	}

	var layout hessian.Layout
	switch opts.layout {
	case "weights-then-biases":
		layout = hessian.LayoutWeightsThenBiases
	case "interleaved":
		layout = hessian.LayoutInterleaved
	default:
		return fmt.Errorf("unknown layout %q", opts.layout)
	}

	if len(opts.layers) == 0 || opts.examples <= 0 {
		return errors.New("need layer widths and a positive example count")
	}
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	in, out := opts.layers[0], opts.layers[len(opts.layers)-1]
	x := tensor.Randn(tensor.Shape{opts.examples, max(in, 1)}, rng, tensor.CPU)

	var cost nn.Cost
	var y *tensor.RawTensor
	switch opts.cost {
	case "sse":
		cost, y = nn.SumSquaredError, tensor.Randn(tensor.Shape{opts.examples, max(out, 1)}, rng, tensor.CPU)
	case "mse":
		cost, y = nn.MeanSquaredError, tensor.Randn(tensor.Shape{opts.examples, max(out, 1)}, rng, tensor.CPU)
	case "ce":
		cost, y = nn.SoftmaxCrossEntropy, oneHot(opts.examples, max(out, 1), rng)
	default:
		return fmt.Errorf("unknown cost %q", opts.cost)
	}
	if opts.l2 > 0 {
		cost = nn.WithL2(cost, opts.l2)
	}

	model := nn.MLP{Layers: opts.layers, Hidden: hidden, Interleaved: layout == hessian.LayoutInterleaved}

	cfg := hessian.DefaultConfig()
	cfg.Layers = opts.layers
	cfg.Model = model.Forward
	cfg.Cost = cost
	cfg.Params = nn.InitParams(opts.layers, rng, model.Interleaved)
	cfg.X, cfg.Y = x, y
	cfg.BatchSize = opts.batch
	cfg.Layout = layout
	cfg.Logger = logger
	if opts.parallel {
		cfg.Parallel = hessian.DefaultParallel()
	}

	backend := cpu.New()
	est, err := hessian.New(backend, cfg)
	if err != nil {
		return err
	}
	logger.Info("estimator ready", "schema", est.Schema().String(), "layout", layout.String())

	if est, err = fit(est, backend, opts, logger); err != nil {
		return err
	}

	h, err := est.FullHessian()
	if err != nil {
		return fmt.Errorf("full hessian: %w", err)
	}
	g, err := est.OPGApproximation()
	if err != nil {
		return fmt.Errorf("opg: %w", err)
	}

	if opts.printMatrix {
		fmt.Fprintf(stdout, "H =\n%.4g\n\n", mat.Formatted(h, mat.Squeeze()))
		fmt.Fprintf(stdout, "G =\n%.4g\n\n", mat.Formatted(g, mat.Squeeze()))
	}

	hs, err := symmetrize(h)
	if err != nil {
		return err
	}
	report(stdout, "hessian", hs)
	report(stdout, "opg", g)

	var diff mat.Dense
	diff.Sub(h, g)
	fmt.Fprintf(stdout, "‖H - G‖_F / ‖H‖_F = %.4g\n", mat.Norm(&diff, 2)/mat.Norm(h, 2))
	return nil
}

// fit moves the estimator's parameters towards a minimum of the cost:
// Adam steps first, then optionally one damped Newton step.
func fit(est *hessian.Estimator[*cpu.Backend], backend *cpu.Backend, opts demoOptions, logger *slog.Logger) (*hessian.Estimator[*cpu.Backend], error) {
	if opts.fitSteps <= 0 && !opts.newton {
		return est, nil
	}
	flat, err := est.Flatten(est.Params())
	if err != nil {
		return nil, err
	}
	move := func(next *tensor.RawTensor) error {
		params, err := est.Unflatten(next)
		if err != nil {
			return err
		}
		est, err = est.WithParams(params)
		flat = next
		return err
	}

	adam := optim.NewAdam(optim.AdamConfig{LR: opts.fitLR}, backend)
	for i := 0; i < opts.fitSteps; i++ {
		grad, err := est.Gradient()
		if err != nil {
			return nil, fmt.Errorf("fit step %d: %w", i, err)
		}
		next, err := adam.Step(flat, grad)
		if err != nil {
			return nil, err
		}
		if err := move(next); err != nil {
			return nil, err
		}
	}

	if opts.newton {
		grad, err := est.Gradient()
		if err != nil {
			return nil, err
		}
		h, err := est.FullHessian()
		if err != nil {
			return nil, err
		}
		next, err := optim.NewNewton(optim.NewtonConfig{Damping: 1e-3}, backend).Step(flat, grad, h)
		if err != nil {
			return nil, err
		}
		if err := move(next); err != nil {
			return nil, err
		}
	}

	grad, err := est.Gradient()
	if err != nil {
		return nil, err
	}
	logger.Info("fitted", "steps", opts.fitSteps, "newton", opts.newton,
		"grad_norm", mat.Norm(mat.NewVecDense(grad.NumElements(), grad.Data()), 2))
	return est, nil
}

// symmetrize returns (H + Hᵀ)/2 after checking that H is symmetric up to
// rounding.
func symmetrize(h *mat.Dense) (*mat.SymDense, error) {
	n, _ := h.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := h.At(i, j), h.At(j, i)
			if d := a - b; d > 1e-8 || d < -1e-8 {
				return nil, fmt.Errorf("hessian not symmetric at (%d, %d): %g vs %g", i, j, a, b)
			}
			s.SetSym(i, j, (a+b)/2)
		}
	}
	return s, nil
}

func report(w io.Writer, name string, m mat.Symmetric) {
	var eig mat.EigenSym
	if !eig.Factorize(m, false) {
		fmt.Fprintf(w, "%-8s eigen decomposition failed\n", name)
		return
	}
	vals := eig.Values(nil)
	fmt.Fprintf(w, "%-8s P=%d  λmin=%.4g  λmax=%.4g  trace=%.4g\n",
		name, m.SymmetricDim(), vals[0], vals[len(vals)-1], mat.Trace(m))
}

func oneHot(rows, classes int, rng *rand.Rand) *tensor.RawTensor {
	y := tensor.Zeros(tensor.Shape{rows, classes}, tensor.CPU)
	for i := 0; i < rows; i++ {
		y.Data()[i*classes+rng.IntN(classes)] = 1
	}
	return y
}
