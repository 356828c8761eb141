package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/tensor"
)

func TestScalarTensorOutOfPlaceMintsFreshIdentity(t *testing.T) {
	a := tensor.NewScalarTensor(1.0, tensor.F64, tensor.CPU)
	b := a.WithValue(2.0)

	require.NotEqual(t, a.ID(), b.ID())
	require.NotEqual(t, a.StorageID(), b.StorageID())
	require.Equal(t, 2.0, b.Value())
}

func TestScalarTensorAliasViewSharesStorageAndVersion(t *testing.T) {
	a := tensor.NewScalarTensor(1.0, tensor.F64, tensor.CPU)
	view := a.AliasView()

	require.NotEqual(t, a.ID(), view.ID())
	require.Equal(t, a.StorageID(), view.StorageID())
	require.Equal(t, a.Version(), view.Version())
}

func TestScalarTensorMutateInPlaceBumpsVersion(t *testing.T) {
	a := tensor.NewScalarTensor(1.0, tensor.F64, tensor.CPU)
	mutated := a.MutateInPlace(9.0)

	require.Equal(t, a.ID(), mutated.ID())
	require.Equal(t, a.StorageID(), mutated.StorageID())
	require.Equal(t, a.Version()+1, mutated.Version())
	require.Equal(t, 9.0, mutated.Value())
}

func TestEnsureCompatibleRejectsDeviceMismatch(t *testing.T) {
	lhs := tensor.NewScalarTensor(1.0, tensor.F64, tensor.CPU)
	rhs := tensor.NewScalarTensor(2.0, tensor.F64, tensor.CPU)
	require.NoError(t, tensor.EnsureCompatible(lhs, rhs))

	other := tensor.NewScalarTensor(2.0, tensor.F64, tensor.Device(1))
	require.ErrorIs(t, tensor.EnsureCompatible(lhs, other), tensor.ErrDeviceMismatch)
}

func TestDenseTensorRoundTripsValues(t *testing.T) {
	d, err := tensor.NewDenseTensor([]float64{1, 2, 3, 4}, []uint64{2, 2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4}, d.Values())
}

func TestDenseTensorAliasViewSharesMutation(t *testing.T) {
	d, err := tensor.NewDenseTensor([]float64{1, 2, 3, 4}, []uint64{2, 2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	view, err := d.AliasView(0)
	require.NoError(t, err)
	require.Equal(t, d.StorageID(), view.StorageID())

	mutated, err := d.MutateInPlace([]float64{9, 9, 9, 9})
	require.NoError(t, err)
	require.Equal(t, d.ID(), mutated.ID())
	require.Equal(t, d.Version()+1, mutated.Version())

	refreshedView, err := mutated.AliasView(0)
	require.NoError(t, err)
	require.Equal(t, []float64{9, 9, 9, 9}, refreshedView.Values())
}

func TestDenseTensorWithValuesIsOutOfPlace(t *testing.T) {
	d, err := tensor.NewDenseTensor([]float64{1, 2}, []uint64{2}, tensor.F64, tensor.CPU)
	require.NoError(t, err)

	fresh, err := d.WithValues([]float64{5, 6})
	require.NoError(t, err)
	require.NotEqual(t, d.ID(), fresh.ID())
	require.NotEqual(t, d.StorageID(), fresh.StorageID())
}

func TestDenseTensorRejectsShapeLengthMismatch(t *testing.T) {
	_, err := tensor.NewDenseTensor([]float64{1, 2, 3}, []uint64{2, 2}, tensor.F64, tensor.CPU)
	require.Error(t, err)
}
