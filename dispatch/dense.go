package dispatch

import (
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/internal/obslog"
	"github.com/ft-systems/frankentorch/kernelcpu"
	"github.com/ft-systems/frankentorch/tensor"
)

// DenseOutcome pairs a resolved dense tensor with the decision that
// produced it.
type DenseOutcome struct {
	Tensor   tensor.DenseTensor
	Decision Decision
}

var denseKernelTable = map[Key]map[BinaryOp]struct {
	name string
	fn   func(lhs, rhs tensor.DenseTensor) (tensor.DenseTensor, error)
}{
	AutogradCPU: {
		OpAdd: {"autograd_cpu::add_tensor_contiguous_f64", kernelcpu.AddTensorContiguousF64},
		OpSub: {"autograd_cpu::sub_tensor_contiguous_f64", kernelcpu.SubTensorContiguousF64},
		OpMul: {"autograd_cpu::mul_tensor_contiguous_f64", kernelcpu.MulTensorContiguousF64},
		OpDiv: {"autograd_cpu::div_tensor_contiguous_f64", kernelcpu.DivTensorContiguousF64},
	},
	CPU: {
		OpAdd: {"cpu::add_tensor_contiguous_f64", kernelcpu.AddTensorContiguousF64},
		OpSub: {"cpu::sub_tensor_contiguous_f64", kernelcpu.SubTensorContiguousF64},
		OpMul: {"cpu::mul_tensor_contiguous_f64", kernelcpu.MulTensorContiguousF64},
		OpDiv: {"cpu::div_tensor_contiguous_f64", kernelcpu.DivTensorContiguousF64},
	},
}

// KeySetForDenseTensors mirrors KeySetForTensors for dense operands.
func KeySetForDenseTensors(lhs, rhs tensor.DenseTensor, requiresGrad bool) KeySet {
	var ks KeySet
	ks.Add(BackendSelect)
	if lhs.Meta().Device() == tensor.CPU {
		ks.Add(CPU)
	}
	if requiresGrad {
		ks.Add(AutogradCPU)
	}
	_ = rhs
	return ks
}

// DispatchDenseBinary derives the implicit keyset and routes op over dense
// operands.
func DispatchDenseBinary(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.DenseTensor, requiresGrad bool) (DenseOutcome, error) {
	keyset := KeySetForDenseTensors(lhs, rhs, requiresGrad)
	return DispatchDenseBinaryWithKeyset(op, mode, lhs, rhs, keyset)
}

// DispatchDenseBinaryWithLogger behaves like DispatchDenseBinary,
// additionally logging one structured event through logger (nil-safe) per
// fail-closed error and per hardened-mode fallback decision.
func DispatchDenseBinaryWithLogger(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.DenseTensor, requiresGrad bool, logger *zap.Logger) (DenseOutcome, error) {
	out, err := DispatchDenseBinary(op, mode, lhs, rhs, requiresGrad)
	if err != nil {
		obslog.FailClosed(logger, "dispatch.dense_binary", err)
		return out, err
	}
	if out.Decision.FallbackUsed {
		obslog.Fallback(logger, "dispatch.dense_binary",
			zap.String("op", op.String()),
			zap.String("selected_key", out.Decision.SelectedKey.String()),
			zap.String("backend_key", out.Decision.BackendKey.String()),
		)
	}
	return out, nil
}

// DispatchDenseBinaryWithKeyset routes op over dense operands against an
// explicit keyset.
func DispatchDenseBinaryWithKeyset(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.DenseTensor, keyset KeySet) (DenseOutcome, error) {
	if err := keyset.ValidateForScalarBinary(); err != nil {
		return DenseOutcome{}, fromKey(err.(*KeyError))
	}
	selected, err := keyset.HighestPriorityTypeID()
	if err != nil {
		return DenseOutcome{}, fromKey(err.(*KeyError))
	}
	backend, err := keyset.HighestPriorityBackendTypeID()
	if err != nil {
		return DenseOutcome{}, fromKey(err.(*KeyError))
	}

	effective, fallbackUsed, dErr := resolveEffectiveKey(selected, backend, mode)
	if dErr != nil {
		return DenseOutcome{}, dErr
	}

	entry, ok := denseKernelTable[effective][op]
	if !ok {
		return DenseOutcome{}, fromKey(incompatibleSet("resolved dispatch key is unsupported for dense binary ops"))
	}

	if effective != backend && effective != AutogradCPU {
		return DenseOutcome{}, fromKey(incompatibleSet("resolved key/backend key drifted to incompatible pair"))
	}

	out, err := entry.fn(lhs, rhs)
	if err != nil {
		return DenseOutcome{}, fromKernel(err)
	}

	return DenseOutcome{
		Tensor: out,
		Decision: Decision{
			Op:           op,
			Mode:         mode,
			Kernel:       entry.name,
			SelectedKey:  selected,
			BackendKey:   backend,
			KeySetBits:   keyset.Bits(),
			FallbackUsed: fallbackUsed,
		},
	}, nil
}
