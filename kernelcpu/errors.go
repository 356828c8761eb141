// Package kernelcpu implements the pure, contiguous CPU elementwise kernels
// the dispatcher resolves into: scalar add/sub/mul/div and their dense,
// contiguous float64 counterparts. No kernel here mutates its inputs or
// exposes an in-place variant; every kernel returns a freshly allocated,
// contiguous, zero-offset output with a fresh storage-id.
package kernelcpu

import (
	"errors"
	"fmt"
)

// ErrNonContiguousLayout is the sentinel behind NonContiguousLayoutError.
var ErrNonContiguousLayout = errors.New("kernelcpu: unsupported non-contiguous layout")

// ErrShapeMismatch is the sentinel behind ShapeMismatchError.
var ErrShapeMismatch = errors.New("kernelcpu: shape mismatch")

// NonContiguousLayoutError reports that a dense kernel was asked to operate
// on a non-contiguous or non-zero-offset operand.
type NonContiguousLayoutError struct {
	Side string // "lhs" or "rhs"
}

func (e *NonContiguousLayoutError) Error() string {
	return fmt.Sprintf("kernelcpu: unsupported non-contiguous layout on %s", e.Side)
}

func (e *NonContiguousLayoutError) Unwrap() error { return ErrNonContiguousLayout }

// ShapeMismatchError reports that a dense binary kernel's operands have
// different shapes; this kernel layer supports no broadcasting.
type ShapeMismatchError struct {
	Lhs []uint64
	Rhs []uint64
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("kernelcpu: shape mismatch: lhs=%v, rhs=%v", e.Lhs, e.Rhs)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }
