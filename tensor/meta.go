package tensor

import (
	"math"

	"github.com/ft-systems/frankentorch/internal/dethash"
)

// DType is the closed set of element types this kernel understands.
//
// Only F64 exists at this spec's scope (no type promotion, no GPU dtypes).
type DType uint8

const (
	// F64 is the sole supported element type.
	F64 DType = iota
)

func (d DType) String() string {
	switch d {
	case F64:
		return "F64"
	default:
		return "Unknown"
	}
}

// Device is the closed set of compute devices this kernel understands.
//
// Only CPU exists at this spec's scope (no multi-device execution).
type Device uint8

const (
	// CPU is the sole supported device.
	CPU Device = iota
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// TensorMeta is an immutable description of a tensor's shape, strides,
// storage offset, dtype, and device. A TensorMeta is only ever handed out
// once it has passed validation; there is no way to mutate one in place.
//
// Invariant SM1: rank(shape) == rank(strides).
// Invariant SM2: offset + Σ stride_i·(size_i−1) does not overflow a uint64
// for any dimension with size>0.
type TensorMeta struct {
	shape   []uint64
	strides []uint64
	offset  uint64
	dtype   DType
	device  Device
}

// ScalarMeta builds the meta for a rank-0 (scalar) tensor.
func ScalarMeta(dtype DType, device Device) TensorMeta {
	return TensorMeta{dtype: dtype, device: device}
}

// FromShape derives canonical row-major strides for shape and validates the
// resulting meta (SM2).
func FromShape(shape []uint64, dtype DType, device Device) (TensorMeta, error) {
	strides := ContiguousStrides(shape)
	return FromShapeAndStrides(shape, strides, 0, dtype, device)
}

// FromShapeAndStrides validates and constructs a meta from explicit shape,
// strides, and storage offset.
//
// Fails with *RankStrideMismatchError if the ranks differ (SM1), with
// *StrideOverflowError if any (size_i−1)·stride_i overflows, or with
// *StorageOffsetOverflowError if offset plus the accumulated span overflows
// (SM2).
func FromShapeAndStrides(shape, strides []uint64, offset uint64, dtype DType, device Device) (TensorMeta, error) {
	if len(shape) != len(strides) {
		return TensorMeta{}, &RankStrideMismatchError{Rank: len(shape), Strides: len(strides)}
	}

	var span uint64
	for i, size := range shape {
		if size == 0 {
			continue // zero-sized dimensions are skipped in span accounting
		}
		stride := strides[i]
		term, overflow := mulOverflowsU64(size-1, stride)
		if overflow {
			return TensorMeta{}, &StrideOverflowError{Dim: i, Size: size, Stride: stride}
		}
		sum, overflow := addOverflowsU64(span, term)
		if overflow {
			return TensorMeta{}, &StorageOffsetOverflowError{Offset: offset, Span: span}
		}
		span = sum
	}

	total, overflow := addOverflowsU64(offset, span)
	if overflow {
		return TensorMeta{}, &StorageOffsetOverflowError{Offset: offset, Span: span}
	}
	_ = total

	shapeCopy := append([]uint64(nil), shape...)
	stridesCopy := append([]uint64(nil), strides...)
	return TensorMeta{
		shape:   shapeCopy,
		strides: stridesCopy,
		offset:  offset,
		dtype:   dtype,
		device:  device,
	}, nil
}

// WithStorageOffset returns a derived meta sharing this meta's shape,
// strides, dtype, and device but with a new storage offset — used to build
// an aliasing, non-zero-offset view over an existing storage.
func (m TensorMeta) WithStorageOffset(offset uint64) (TensorMeta, error) {
	return FromShapeAndStrides(m.shape, m.strides, offset, m.dtype, m.device)
}

// Shape returns the meta's shape. The returned slice must not be mutated.
func (m TensorMeta) Shape() []uint64 { return m.shape }

// Strides returns the meta's strides. The returned slice must not be mutated.
func (m TensorMeta) Strides() []uint64 { return m.strides }

// StorageOffset returns the meta's storage offset.
func (m TensorMeta) StorageOffset() uint64 { return m.offset }

// DType returns the meta's element type.
func (m TensorMeta) DType() DType { return m.dtype }

// Device returns the meta's device.
func (m TensorMeta) Device() Device { return m.device }

// Rank returns the number of dimensions (0 for a scalar).
func (m TensorMeta) Rank() int { return len(m.shape) }

// NumElements returns the product of the shape's dimensions (1 for a scalar).
func (m TensorMeta) NumElements() uint64 {
	n := uint64(1)
	for _, size := range m.shape {
		n *= size
	}
	return n
}

// IsContiguous reports whether strides equal the canonical row-major
// strides for shape and the storage offset is zero.
func (m TensorMeta) IsContiguous() bool {
	if m.offset != 0 {
		return false
	}
	want := ContiguousStrides(m.shape)
	if len(want) != len(m.strides) {
		return false
	}
	for i := range want {
		if want[i] != m.strides[i] {
			return false
		}
	}
	return true
}

// Index translates a multi-index into a flat storage index.
//
// Fails with *IndexRankMismatchError on bad arity or *IndexOutOfBoundsError
// on an out-of-range component.
func (m TensorMeta) Index(multiIndex []uint64) (uint64, error) {
	if len(multiIndex) != len(m.shape) {
		return 0, &IndexRankMismatchError{Expected: len(m.shape), Actual: len(multiIndex)}
	}
	idx := m.offset
	for dim, i := range multiIndex {
		size := m.shape[dim]
		if i >= size {
			return 0, &IndexOutOfBoundsError{Dim: dim, Index: i, Size: size}
		}
		idx += i * m.strides[dim]
	}
	return idx, nil
}

// Fingerprint returns a deterministic 64-bit content fingerprint computed
// from the meta's fields in a fixed order: shape, strides, offset, dtype
// tag, device tag. It is a pure function of those fields.
func (m TensorMeta) Fingerprint() uint64 {
	d := dethash.New()
	d.WriteUint64(uint64(len(m.shape)))
	for _, s := range m.shape {
		d.WriteUint64(s)
	}
	for _, s := range m.strides {
		d.WriteUint64(s)
	}
	d.WriteUint64(m.offset)
	d.WriteByte(byte(m.dtype))
	d.WriteByte(byte(m.device))
	return d.Sum64()
}

// ContiguousStrides derives canonical row-major strides for shape via the
// right-to-left running-product rule. An empty shape yields empty strides.
func ContiguousStrides(shape []uint64) []uint64 {
	if len(shape) == 0 {
		return nil
	}
	strides := make([]uint64, len(shape))
	running := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = running
		running *= shape[i]
	}
	return strides
}

func mulOverflowsU64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	if a > math.MaxUint64/b {
		return 0, true
	}
	return a * b, false
}

func addOverflowsU64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}
