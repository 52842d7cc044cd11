package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/curvature/internal/tensor"
)

// MatMul performs 2-D matrix multiplication (M, K) @ (K, N) -> (M, N).
//
// The product runs on gonum's BLAS implementation. Operands are wrapped
// without copying; the result is written straight into the new tensor.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", as, bs))
	}

	m, k, n := as[0], as[1], bs[1]
	result := cpu.alloc("matmul", tensor.Shape{m, n})

	lhs := mat.NewDense(m, k, a.Data())
	rhs := mat.NewDense(k, n, b.Data())
	out := mat.NewDense(m, n, result.Data())
	out.Mul(lhs, rhs)

	return result
}
