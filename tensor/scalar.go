package tensor

// ScalarTensor is an immutable handle over a single float64 value.
//
// Invariant ST1: NewScalarTensor and WithValue each yield a fresh tensor-id
// and a fresh storage-id (out-of-place).
// Invariant ST2: AliasView yields a fresh tensor-id but preserves the
// source's storage-id and version.
// Invariant ST3: MutateInPlace keeps the tensor-id and storage-id but
// monotonically increments the version.
type ScalarTensor struct {
	id        uint64
	storageID uint64
	meta      TensorMeta
	value     float64
	version   uint64
}

// NewScalarTensor constructs a fresh scalar tensor with a new tensor-id and
// storage-id.
func NewScalarTensor(value float64, dtype DType, device Device) ScalarTensor {
	return ScalarTensor{
		id:        allocTensorID(),
		storageID: allocStorageID(),
		meta:      ScalarMeta(dtype, device),
		value:     value,
	}
}

// ID returns the tensor's globally unique tensor-id.
func (t ScalarTensor) ID() uint64 { return t.id }

// StorageID returns the identifier of the underlying value storage. Two
// handles sharing a storage-id reference the same backing value (aliasing).
func (t ScalarTensor) StorageID() uint64 { return t.storageID }

// Meta returns the tensor's metadata.
func (t ScalarTensor) Meta() TensorMeta { return t.meta }

// Value returns the tensor's current scalar value.
func (t ScalarTensor) Value() float64 { return t.value }

// Version returns the tensor's version counter.
func (t ScalarTensor) Version() uint64 { return t.version }

// WithValue returns a fresh, out-of-place scalar tensor carrying a new
// value, the same meta, a fresh tensor-id, and a fresh storage-id (ST1).
func (t ScalarTensor) WithValue(value float64) ScalarTensor {
	return ScalarTensor{
		id:        allocTensorID(),
		storageID: allocStorageID(),
		meta:      t.meta,
		value:     value,
	}
}

// AliasView returns a view sharing this tensor's storage-id and version but
// carrying a fresh tensor-id (ST2).
func (t ScalarTensor) AliasView() ScalarTensor {
	return ScalarTensor{
		id:        allocTensorID(),
		storageID: t.storageID,
		meta:      t.meta,
		value:     t.value,
		version:   t.version,
	}
}

// MutateInPlace returns this tensor with value replaced and version bumped,
// preserving tensor-id and storage-id (ST3).
func (t ScalarTensor) MutateInPlace(value float64) ScalarTensor {
	t.value = value
	t.version++
	return t
}

// EnsureCompatible fails closed with *DTypeMismatchError or
// *DeviceMismatchError if lhs and rhs do not share a dtype and device.
func EnsureCompatible(lhs, rhs ScalarTensor) error {
	if lhs.meta.dtype != rhs.meta.dtype {
		return &DTypeMismatchError{Lhs: lhs.meta.dtype, Rhs: rhs.meta.dtype}
	}
	if lhs.meta.device != rhs.meta.device {
		return &DeviceMismatchError{Lhs: lhs.meta.device, Rhs: rhs.meta.device}
	}
	return nil
}
