// Package dispatch resolves a binary op against a prioritised set of
// dispatch keys and binds it to a kernelcpu function, producing a decision
// record whose kernel identifier strings are part of the external contract
// (pinned by tests, never renamed without a breaking-change note).
package dispatch

// BinaryOp is the closed set of elementwise binary operations the
// dispatcher knows how to route.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	default:
		return "unknown"
	}
}

// ExecutionMode selects the dispatcher's routing posture: strict forbids
// composite/backend-key fallback; hardened allows it and marks the
// decision's fallback_used flag.
type ExecutionMode uint8

const (
	Strict ExecutionMode = iota
	Hardened
)

func (m ExecutionMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Hardened:
		return "hardened"
	default:
		return "unknown"
	}
}

// Key is the closed enum of dispatch keys. Names are bit-exact external
// contract (§6): Undefined, BackendSelect, CompositeImplicitAutograd,
// CompositeExplicitAutograd, CPU, AutogradCPU.
type Key uint8

const (
	Undefined Key = iota
	BackendSelect
	CompositeImplicitAutograd
	CompositeExplicitAutograd
	CPU
	AutogradCPU
)

func (k Key) String() string {
	switch k {
	case Undefined:
		return "Undefined"
	case BackendSelect:
		return "BackendSelect"
	case CompositeImplicitAutograd:
		return "CompositeImplicitAutograd"
	case CompositeExplicitAutograd:
		return "CompositeExplicitAutograd"
	case CPU:
		return "CPU"
	case AutogradCPU:
		return "AutogradCPU"
	default:
		return "Unknown"
	}
}

// Bit returns the key's single-bit mask within a KeySet.
func (k Key) Bit() uint64 { return 1 << uint8(k) }

// allKeys enumerates every known key except Undefined, which has no bit
// representation that participates in priority resolution.
var allKeys = []Key{BackendSelect, CompositeImplicitAutograd, CompositeExplicitAutograd, CPU, AutogradCPU}

// typePriority orders keys from highest to lowest for selected-key
// resolution: AutogradCPU > CompositeExplicit > CompositeImplicit > CPU > BackendSelect.
var typePriority = []Key{AutogradCPU, CompositeExplicitAutograd, CompositeImplicitAutograd, CPU, BackendSelect}

// backendPriority contains only CPU at this spec's scope.
var backendPriority = []Key{CPU}

func knownMask() uint64 {
	var mask uint64
	for _, k := range allKeys {
		mask |= k.Bit()
	}
	return mask
}
