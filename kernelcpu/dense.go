package kernelcpu

import "github.com/ft-systems/frankentorch/tensor"

type elementwiseOp func(a, b float64) float64

func addOp(a, b float64) float64 { return a + b }
func subOp(a, b float64) float64 { return a - b }
func mulOp(a, b float64) float64 { return a * b }
func divOp(a, b float64) float64 { return a / b }

// denseBinary validates both operands, applies op elementwise over their
// values, and returns a fresh, contiguous, zero-offset dense tensor with the
// left-hand meta's shape/dtype/device.
func denseBinary(lhs, rhs tensor.DenseTensor, op elementwiseOp) (tensor.DenseTensor, error) {
	if err := tensor.EnsureDenseCompatible(lhs, rhs); err != nil {
		return tensor.DenseTensor{}, err
	}
	if !lhs.Meta().IsContiguous() {
		return tensor.DenseTensor{}, &NonContiguousLayoutError{Side: "lhs"}
	}
	if !rhs.Meta().IsContiguous() {
		return tensor.DenseTensor{}, &NonContiguousLayoutError{Side: "rhs"}
	}
	if !shapesEqual(lhs.Meta().Shape(), rhs.Meta().Shape()) {
		return tensor.DenseTensor{}, &ShapeMismatchError{Lhs: lhs.Meta().Shape(), Rhs: rhs.Meta().Shape()}
	}

	lv, rv := lhs.Values(), rhs.Values()
	out := make([]float64, len(lv))
	for i := range out {
		out[i] = op(lv[i], rv[i])
	}
	return tensor.NewDenseTensor(out, lhs.Meta().Shape(), lhs.Meta().DType(), lhs.Meta().Device())
}

// AddTensorContiguousF64 returns lhs+rhs elementwise as a fresh dense tensor.
func AddTensorContiguousF64(lhs, rhs tensor.DenseTensor) (tensor.DenseTensor, error) {
	return denseBinary(lhs, rhs, addOp)
}

// SubTensorContiguousF64 returns lhs-rhs elementwise as a fresh dense tensor.
func SubTensorContiguousF64(lhs, rhs tensor.DenseTensor) (tensor.DenseTensor, error) {
	return denseBinary(lhs, rhs, subOp)
}

// MulTensorContiguousF64 returns lhs*rhs elementwise as a fresh dense tensor.
func MulTensorContiguousF64(lhs, rhs tensor.DenseTensor) (tensor.DenseTensor, error) {
	return denseBinary(lhs, rhs, mulOp)
}

// DivTensorContiguousF64 returns lhs/rhs elementwise as a fresh dense tensor.
func DivTensorContiguousF64(lhs, rhs tensor.DenseTensor) (tensor.DenseTensor, error) {
	return denseBinary(lhs, rhs, divOp)
}

func shapesEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
