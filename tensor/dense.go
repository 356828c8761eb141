package tensor

// denseStorage is the backing value array shared across aliasing
// DenseTensor views. Mutating data in place is visible to every view that
// shares the storage-id.
type denseStorage struct {
	data []float64
}

// DenseTensor is an immutable handle over a (possibly strided, possibly
// aliasing) view of a shared float64 storage.
//
// The ST1-ST3 invariants documented on ScalarTensor apply identically here:
// out-of-place ops mint a fresh tensor-id and storage-id, alias views mint
// only a fresh tensor-id, and in-place mutation bumps the version without
// touching either id.
type DenseTensor struct {
	id        uint64
	storageID uint64
	meta      TensorMeta
	storage   *denseStorage
	version   uint64
}

// NewDenseTensor constructs a fresh, contiguous dense tensor from row-major
// values, with a new tensor-id and storage-id. Fails if len(values) does not
// equal the product of shape, or if shape/strides validation fails.
func NewDenseTensor(values []float64, shape []uint64, dtype DType, device Device) (DenseTensor, error) {
	meta, err := FromShape(shape, dtype, device)
	if err != nil {
		return DenseTensor{}, err
	}
	if want := meta.NumElements(); uint64(len(values)) != want {
		return DenseTensor{}, &IndexOutOfBoundsError{Dim: -1, Index: uint64(len(values)), Size: want}
	}
	buf := append([]float64(nil), values...)
	return DenseTensor{
		id:        allocTensorID(),
		storageID: allocStorageID(),
		meta:      meta,
		storage:   &denseStorage{data: buf},
	}, nil
}

// ID returns the tensor's globally unique tensor-id.
func (t DenseTensor) ID() uint64 { return t.id }

// StorageID returns the identifier of the underlying value storage.
func (t DenseTensor) StorageID() uint64 { return t.storageID }

// Meta returns the tensor's metadata.
func (t DenseTensor) Meta() TensorMeta { return t.meta }

// Version returns the tensor's version counter.
func (t DenseTensor) Version() uint64 { return t.version }

// Values materialises the tensor's logical elements in row-major order,
// applying meta's shape/strides/offset against the shared storage. The
// result is always a fresh slice; mutating it does not affect the tensor.
func (t DenseTensor) Values() []float64 {
	n := t.meta.NumElements()
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if t.meta.Rank() == 0 {
		flat, _ := t.meta.Index(nil)
		out[0] = t.storage.data[flat]
		return out
	}
	idx := make([]uint64, t.meta.Rank())
	for i := range out {
		flat, err := t.meta.Index(idx)
		if err != nil {
			// Meta was validated at construction time; this cannot happen
			// for an index produced by the odometer below.
			panic(err)
		}
		out[i] = t.storage.data[flat]
		incrementOdometer(idx, t.meta.Shape())
	}
	return out
}

// incrementOdometer advances a multi-index by one in row-major order.
func incrementOdometer(idx []uint64, shape []uint64) {
	for d := len(shape) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return
		}
		idx[d] = 0
	}
}

// WithValues returns a fresh, out-of-place, contiguous dense tensor carrying
// new values over the same shape/dtype/device, a fresh tensor-id, and a
// fresh storage-id (ST1).
func (t DenseTensor) WithValues(values []float64) (DenseTensor, error) {
	return NewDenseTensor(values, t.meta.Shape(), t.meta.DType(), t.meta.Device())
}

// AliasView returns a view sharing this tensor's storage-id and version but
// carrying a fresh tensor-id (ST2), optionally rebased to a new storage
// offset (e.g. to model a slice/window into the same storage).
func (t DenseTensor) AliasView(offset uint64) (DenseTensor, error) {
	meta, err := t.meta.WithStorageOffset(offset)
	if err != nil {
		return DenseTensor{}, err
	}
	return DenseTensor{
		id:        allocTensorID(),
		storageID: t.storageID,
		meta:      meta,
		storage:   t.storage,
		version:   t.version,
	}, nil
}

// MutateInPlace overwrites the shared storage's contiguous region addressed
// by this tensor's meta with values, preserving tensor-id and storage-id but
// monotonically bumping the version (ST3). Every alias view over the same
// storage observes the new values.
func (t DenseTensor) MutateInPlace(values []float64) (DenseTensor, error) {
	if want := t.meta.NumElements(); uint64(len(values)) != want {
		return DenseTensor{}, &IndexOutOfBoundsError{Dim: -1, Index: uint64(len(values)), Size: want}
	}
	if t.meta.Rank() == 0 {
		flat, _ := t.meta.Index(nil)
		t.storage.data[flat] = values[0]
	} else {
		idx := make([]uint64, t.meta.Rank())
		for i := range values {
			flat, err := t.meta.Index(idx)
			if err != nil {
				panic(err)
			}
			t.storage.data[flat] = values[i]
			incrementOdometer(idx, t.meta.Shape())
		}
	}
	t.version++
	return t, nil
}

// EnsureDenseCompatible fails closed with *DTypeMismatchError or
// *DeviceMismatchError if lhs and rhs do not share a dtype and device.
func EnsureDenseCompatible(lhs, rhs DenseTensor) error {
	if lhs.meta.DType() != rhs.meta.DType() {
		return &DTypeMismatchError{Lhs: lhs.meta.DType(), Rhs: rhs.meta.DType()}
	}
	if lhs.meta.Device() != rhs.meta.Device() {
		return &DeviceMismatchError{Lhs: lhs.meta.Device(), Rhs: rhs.meta.Device()}
	}
	return nil
}
