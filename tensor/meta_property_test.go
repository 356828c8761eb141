package tensor_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ft-systems/frankentorch/tensor"
)

func smallShapeGen() *rapid.Generator[[]uint64] {
	return rapid.Custom(func(t *rapid.T) []uint64 {
		rank := rapid.IntRange(0, 4).Draw(t, "rank")
		shape := make([]uint64, rank)
		for i := range shape {
			shape[i] = uint64(rapid.IntRange(1, 6).Draw(t, "dim"))
		}
		return shape
	})
}

// TestContiguousMetaIsStableUnderCloneAndFingerprintIsPure is property P2:
// for every valid (shape, canonical strides, zero offset), IsContiguous is
// stable across an independent reconstruction, and Fingerprint depends only
// on the meta's fields.
func TestContiguousMetaIsStableUnderCloneAndFingerprintIsPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shape := smallShapeGen().Draw(t, "shape")

		meta, err := tensor.FromShape(shape, tensor.F64, tensor.CPU)
		if err != nil {
			t.Fatalf("FromShape(%v): %v", shape, err)
		}
		if !meta.IsContiguous() {
			t.Fatalf("canonical meta for shape %v is not contiguous", shape)
		}

		clone, err := tensor.FromShapeAndStrides(meta.Shape(), meta.Strides(), meta.StorageOffset(), meta.DType(), meta.Device())
		if err != nil {
			t.Fatalf("rebuilding meta from its own fields failed: %v", err)
		}
		if clone.IsContiguous() != meta.IsContiguous() {
			t.Fatalf("IsContiguous changed across reconstruction for shape %v", shape)
		}
		if clone.Fingerprint() != meta.Fingerprint() {
			t.Fatalf("Fingerprint changed across reconstruction for shape %v", shape)
		}

		again, err := tensor.FromShapeAndStrides(clone.Shape(), clone.Strides(), clone.StorageOffset(), clone.DType(), clone.Device())
		if err != nil {
			t.Fatalf("rebuilding meta a second time failed: %v", err)
		}
		if again.Fingerprint() != meta.Fingerprint() {
			t.Fatalf("Fingerprint is not a pure function of meta fields for shape %v", shape)
		}
	})
}
