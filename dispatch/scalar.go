package dispatch

import (
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/internal/obslog"
	"github.com/ft-systems/frankentorch/kernelcpu"
	"github.com/ft-systems/frankentorch/tensor"
)

// Decision records a dispatch routing outcome. Kernel identifier strings
// are a bit-exact external contract (§6); tests pin them.
type Decision struct {
	Op           BinaryOp
	Mode         ExecutionMode
	Kernel       string
	SelectedKey  Key
	BackendKey   Key
	KeySetBits   uint64
	FallbackUsed bool
}

// ScalarOutcome pairs a resolved scalar tensor with the decision that
// produced it.
type ScalarOutcome struct {
	Tensor   tensor.ScalarTensor
	Decision Decision
}

// scalarKernelTable maps an (effective key, op) pair to its pinned kernel
// identifier and the kernelcpu function it binds to. sub/mul/div kernel
// names are exposed alongside add per the expanded spec's resolution of the
// sub/div dispatch-naming ambiguity: the tape routes every binary op
// through the dispatcher, so every tape-exposed op must resolve.
var scalarKernelTable = map[Key]map[BinaryOp]struct {
	name string
	fn   func(lhs, rhs tensor.ScalarTensor) (tensor.ScalarTensor, error)
}{
	AutogradCPU: {
		OpAdd: {"autograd_cpu::add_scalar", kernelcpu.AddScalar},
		OpSub: {"autograd_cpu::sub_scalar", kernelcpu.SubScalar},
		OpMul: {"autograd_cpu::mul_scalar", kernelcpu.MulScalar},
		OpDiv: {"autograd_cpu::div_scalar", kernelcpu.DivScalar},
	},
	CPU: {
		OpAdd: {"cpu::add_scalar", kernelcpu.AddScalar},
		OpSub: {"cpu::sub_scalar", kernelcpu.SubScalar},
		OpMul: {"cpu::mul_scalar", kernelcpu.MulScalar},
		OpDiv: {"cpu::div_scalar", kernelcpu.DivScalar},
	},
}

// KeySetForTensors derives the implicit keyset for a scalar binary op:
// start from {BackendSelect}, add CPU if lhs resides there, add AutogradCPU
// if the operation requires grad.
func KeySetForTensors(lhs, rhs tensor.ScalarTensor, requiresGrad bool) KeySet {
	var ks KeySet
	ks.Add(BackendSelect)
	if lhs.Meta().Device() == tensor.CPU {
		ks.Add(CPU)
	}
	if requiresGrad {
		ks.Add(AutogradCPU)
	}
	_ = rhs // rhs device is not consulted, matching the reference derivation
	return ks
}

// DispatchScalarBinary derives the implicit keyset and routes op.
func DispatchScalarBinary(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.ScalarTensor, requiresGrad bool) (ScalarOutcome, error) {
	keyset := KeySetForTensors(lhs, rhs, requiresGrad)
	return DispatchScalarBinaryWithKeyset(op, mode, lhs, rhs, keyset)
}

// DispatchScalarBinaryWithLogger behaves like DispatchScalarBinary,
// additionally logging one structured event through logger (nil-safe) per
// fail-closed error and per hardened-mode fallback decision.
func DispatchScalarBinaryWithLogger(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.ScalarTensor, requiresGrad bool, logger *zap.Logger) (ScalarOutcome, error) {
	out, err := DispatchScalarBinary(op, mode, lhs, rhs, requiresGrad)
	if err != nil {
		obslog.FailClosed(logger, "dispatch.scalar_binary", err)
		return out, err
	}
	if out.Decision.FallbackUsed {
		obslog.Fallback(logger, "dispatch.scalar_binary",
			zap.String("op", op.String()),
			zap.String("selected_key", out.Decision.SelectedKey.String()),
			zap.String("backend_key", out.Decision.BackendKey.String()),
		)
	}
	return out, nil
}

// DispatchScalarBinaryWithKeyset routes op against an explicit keyset.
func DispatchScalarBinaryWithKeyset(op BinaryOp, mode ExecutionMode, lhs, rhs tensor.ScalarTensor, keyset KeySet) (ScalarOutcome, error) {
	if err := keyset.ValidateForScalarBinary(); err != nil {
		return ScalarOutcome{}, fromKey(err.(*KeyError))
	}
	selected, err := keyset.HighestPriorityTypeID()
	if err != nil {
		return ScalarOutcome{}, fromKey(err.(*KeyError))
	}
	backend, err := keyset.HighestPriorityBackendTypeID()
	if err != nil {
		return ScalarOutcome{}, fromKey(err.(*KeyError))
	}

	effective, fallbackUsed, dErr := resolveEffectiveKey(selected, backend, mode)
	if dErr != nil {
		return ScalarOutcome{}, dErr
	}

	entry, ok := scalarKernelTable[effective][op]
	if !ok {
		return ScalarOutcome{}, fromKey(incompatibleSet("resolved dispatch key is unsupported for scalar binary ops"))
	}

	if effective != backend && effective != AutogradCPU {
		return ScalarOutcome{}, fromKey(incompatibleSet("resolved key/backend key drifted to incompatible pair"))
	}

	out, err := entry.fn(lhs, rhs)
	if err != nil {
		return ScalarOutcome{}, fromKernel(err)
	}

	return ScalarOutcome{
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

// resolveEffectiveKey implements the priority-routing table of §4.C:
// AutogradCPU/CPU route directly; composite/backend keys either fail
// closed (strict) or fall back to the backend key (hardened); Undefined
// fails closed with NoTypeKey.
func resolveEffectiveKey(selected, backend Key, mode ExecutionMode) (Key, bool, *DispatchError) {
	switch selected {
	case AutogradCPU, CPU:
		return selected, false, nil
	case CompositeExplicitAutograd, CompositeImplicitAutograd, BackendSelect:
		if mode == Strict {
			return Undefined, false, fromKey(incompatibleSet("strict mode forbids composite/backend fallback routing"))
		}
		return backend, true, nil
	default: // Undefined
		return Undefined, false, fromKey(&KeyError{Kind: KindNoTypeKey})
	}
}
