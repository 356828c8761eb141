package kernelcpu

import "github.com/ft-systems/frankentorch/tensor"

// AddScalar returns lhs+rhs as a fresh, out-of-place scalar tensor.
func AddScalar(lhs, rhs tensor.ScalarTensor) (tensor.ScalarTensor, error) {
	if err := tensor.EnsureCompatible(lhs, rhs); err != nil {
		return tensor.ScalarTensor{}, err
	}
	return lhs.WithValue(lhs.Value() + rhs.Value()), nil
}

// SubScalar returns lhs-rhs as a fresh, out-of-place scalar tensor.
func SubScalar(lhs, rhs tensor.ScalarTensor) (tensor.ScalarTensor, error) {
	if err := tensor.EnsureCompatible(lhs, rhs); err != nil {
		return tensor.ScalarTensor{}, err
	}
	return lhs.WithValue(lhs.Value() - rhs.Value()), nil
}

// MulScalar returns lhs*rhs as a fresh, out-of-place scalar tensor.
func MulScalar(lhs, rhs tensor.ScalarTensor) (tensor.ScalarTensor, error) {
	if err := tensor.EnsureCompatible(lhs, rhs); err != nil {
		return tensor.ScalarTensor{}, err
	}
	return lhs.WithValue(lhs.Value() * rhs.Value()), nil
}

// DivScalar returns lhs/rhs as a fresh, out-of-place scalar tensor. A
// division by zero is not rejected here: it follows IEEE-754 semantics
// (±Inf or NaN), matching the spec's silence on the matter at this layer.
func DivScalar(lhs, rhs tensor.ScalarTensor) (tensor.ScalarTensor, error) {
	if err := tensor.EnsureCompatible(lhs, rhs); err != nil {
		return tensor.ScalarTensor{}, err
	}
	return lhs.WithValue(lhs.Value() / rhs.Value()), nil
}
