package dispatch

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is; every failure below also carries structured
// fields reachable via errors.As on its concrete type.
var (
	ErrEmptySet        = errors.New("dispatch: keyset is empty")
	ErrNoTypeKey       = errors.New("dispatch: keyset has no resolvable type key")
	ErrNoBackendKey    = errors.New("dispatch: keyset has no backend key")
	ErrUnknownBits     = errors.New("dispatch: keyset has unknown bits")
	ErrIncompatibleSet = errors.New("dispatch: incompatible keyset")
)

// KeyError is the structured error family for KeySet construction,
// validation, and priority resolution failures.
type KeyError struct {
	Kind    KeyErrorKind
	Unknown uint64 // populated only for KindUnknownBits
	Reason  string // populated only for KindIncompatibleSet
}

// KeyErrorKind names the failure mode of a KeyError.
type KeyErrorKind uint8

const (
	KindEmptySet KeyErrorKind = iota
	KindNoTypeKey
	KindNoBackendKey
	KindUnknownBits
	KindIncompatibleSet
)

func (e *KeyError) Error() string {
	switch e.Kind {
	case KindEmptySet:
		return ErrEmptySet.Error()
	case KindNoTypeKey:
		return ErrNoTypeKey.Error()
	case KindNoBackendKey:
		return ErrNoBackendKey.Error()
	case KindUnknownBits:
		return fmt.Sprintf("dispatch: keyset has unknown bitmask 0x%016x", e.Unknown)
	case KindIncompatibleSet:
		return fmt.Sprintf("dispatch: incompatible keyset: %s", e.Reason)
	default:
		return "dispatch: unknown key error"
	}
}

func (e *KeyError) Unwrap() error {
	switch e.Kind {
	case KindEmptySet:
		return ErrEmptySet
	case KindNoTypeKey:
		return ErrNoTypeKey
	case KindNoBackendKey:
		return ErrNoBackendKey
	case KindUnknownBits:
		return ErrUnknownBits
	case KindIncompatibleSet:
		return ErrIncompatibleSet
	default:
		return nil
	}
}

func incompatibleSet(reason string) *KeyError {
	return &KeyError{Kind: KindIncompatibleSet, Reason: reason}
}

// DispatchError wraps either a kernel failure or a key failure, matching
// the original's Dispatch(Kernel|Key) wrapping (§7).
type DispatchError struct {
	Kernel error
	Key    *KeyError
}

func (e *DispatchError) Error() string {
	if e.Kernel != nil {
		return fmt.Sprintf("kernel dispatch failure: %s", e.Kernel.Error())
	}
	return fmt.Sprintf("dispatch key failure: %s", e.Key.Error())
}

func (e *DispatchError) Unwrap() error {
	if e.Kernel != nil {
		return e.Kernel
	}
	return e.Key
}

func fromKernel(err error) *DispatchError { return &DispatchError{Kernel: err} }
func fromKey(err *KeyError) *DispatchError { return &DispatchError{Key: err} }
