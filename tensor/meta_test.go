package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/tensor"
)

func TestScalarMetaIsValid(t *testing.T) {
	meta := tensor.ScalarMeta(tensor.F64, tensor.CPU)
	require.Empty(t, meta.Shape())
	require.Empty(t, meta.Strides())
	require.True(t, meta.IsContiguous())
}

func TestFromShapeBuildsContiguousStrides(t *testing.T) {
	meta, err := tensor.FromShape([]uint64{2, 3, 4}, tensor.F64, tensor.CPU)
	require.NoError(t, err)
	require.Equal(t, []uint64{12, 4, 1}, meta.Strides())
	require.True(t, meta.IsContiguous())
}

func TestFromShapeAndStridesRejectsRankMismatch(t *testing.T) {
	_, err := tensor.FromShapeAndStrides([]uint64{2, 3}, []uint64{1}, 0, tensor.F64, tensor.CPU)
	var rankErr *tensor.RankStrideMismatchError
	require.ErrorAs(t, err, &rankErr)
	require.Equal(t, 2, rankErr.Rank)
	require.Equal(t, 1, rankErr.Strides)
	require.True(t, errors.Is(err, tensor.ErrRankStrideMismatch))
}

func TestFromShapeAndStridesRejectsStrideOverflow(t *testing.T) {
	huge := uint64(1) << 63
	_, err := tensor.FromShapeAndStrides([]uint64{3}, []uint64{huge}, 0, tensor.F64, tensor.CPU)
	var overflowErr *tensor.StrideOverflowError
	require.ErrorAs(t, err, &overflowErr)
}

func TestIndexTranslatesMultiIndex(t *testing.T) {
	meta, err := tensor.FromShape([]uint64{2, 3}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	flat, err := meta.Index([]uint64{1, 2})
	require.NoError(t, err)
	require.Equal(t, uint64(5), flat)
}

func TestIndexRejectsBadRankAndBounds(t *testing.T) {
	meta, err := tensor.FromShape([]uint64{2, 3}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	_, err = meta.Index([]uint64{1})
	var rankErr *tensor.IndexRankMismatchError
	require.ErrorAs(t, err, &rankErr)

	_, err = meta.Index([]uint64{1, 5})
	var boundsErr *tensor.IndexOutOfBoundsError
	require.ErrorAs(t, err, &boundsErr)
	require.Equal(t, uint64(5), boundsErr.Index)
	require.Equal(t, uint64(3), boundsErr.Size)
}

func TestFingerprintIsPureOverFields(t *testing.T) {
	a, err := tensor.FromShape([]uint64{2, 2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)
	b, err := tensor.FromShape([]uint64{2, 2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)
	c, err := tensor.FromShape([]uint64{2, 3}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestWithStorageOffsetBreaksContiguity(t *testing.T) {
	meta, err := tensor.FromShape([]uint64{2, 2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	offsetMeta, err := meta.WithStorageOffset(1)
	require.NoError(t, err)
	require.False(t, offsetMeta.IsContiguous())
}
