package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/checkpoint"
	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/session"
	"github.com/ft-systems/frankentorch/tensor"
)

func TestSessionRunsForwardAndBackward(t *testing.T) {
	s := session.NewSession(dispatch.Strict)
	a := s.Var(2.0, true)
	b := s.Var(3.0, true)

	sum, err := s.Add(a, b)
	require.NoError(t, err)

	value, err := s.Value(sum)
	require.NoError(t, err)
	require.Equal(t, 5.0, value)

	require.NoError(t, s.Backward(sum))
	gradA, err := s.Gradient(a)
	require.NoError(t, err)
	require.NotNil(t, gradA)
	require.Equal(t, 1.0, *gradA)
}

func TestSessionSnapshotRestoreRoundTrip(t *testing.T) {
	s := session.NewSession(dispatch.Strict)
	a := s.Var(4.0, true)
	b := s.Var(5.0, true)
	prod, err := s.Mul(a, b)
	require.NoError(t, err)
	require.NoError(t, s.Backward(prod))

	env := s.Snapshot()
	raw, err := env.MarshalJSON()
	require.NoError(t, err)

	decoded, err := checkpoint.DecodeStrict(raw)
	require.NoError(t, err)

	restored := session.Restore(decoded, dispatch.Strict)
	value, err := restored.Value(prod)
	require.NoError(t, err)
	require.Equal(t, 20.0, value)
}

func TestSessionGradientBeforeBackwardIsNil(t *testing.T) {
	s := session.NewSession(dispatch.Strict)
	a := s.Var(1.0, true)
	grad, err := s.Gradient(a)
	require.NoError(t, err)
	require.Nil(t, grad)
}

func TestSessionUnknownVariableIsRejected(t *testing.T) {
	s := session.NewSession(dispatch.Strict)
	_, err := s.Gradient(42)
	require.Error(t, err)
	require.ErrorIs(t, err, session.ErrUnknownVariable)
}

func TestTensorSessionRunsForwardAndBackward(t *testing.T) {
	s := session.NewTensorSession(dispatch.Strict)
	a := s.Var(mustDense(t, []float64{1, 2}), true)
	b := s.Var(mustDense(t, []float64{3, 4}), true)

	sum, err := s.Add(a, b)
	require.NoError(t, err)

	values, err := s.Values(sum)
	require.NoError(t, err)
	require.Equal(t, []float64{4, 6}, values)

	require.NoError(t, s.Backward(sum))
	gradA, err := s.Gradient(a)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1}, gradA)
}

func mustDense(t *testing.T, values []float64) tensor.DenseTensor {
	t.Helper()
	out, err := tensor.NewDenseTensor(values, []uint64{uint64(len(values))}, tensor.F64, tensor.CPU)
	require.NoError(t, err)
	return out
}
