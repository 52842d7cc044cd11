package tensor

// Backend defines the operations a compute backend provides.
//
// Every method returns a newly allocated tensor and never modifies its
// inputs. Shape errors are programmer errors and panic with an
// "op: ..." message.
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2-D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor) *RawTensor // 2-D only

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Reductions and their adjoints.
	Sum(x *RawTensor) *RawTensor                           // scalar result
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along one dimension
	SumTo(x *RawTensor, shape Shape) *RawTensor            // undo a broadcast to shape
	Expand(x *RawTensor, shape Shape) *RawTensor           // broadcast to shape

	// Manipulation along the leading dimension. Narrow selects the rows
	// [start, start+length) of dim 0.
	Cat(tensors []*RawTensor) *RawTensor
	Narrow(x *RawTensor, start, length int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
