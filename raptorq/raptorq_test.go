package raptorq_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/raptorq"
)

func TestGenerateSidecarRecoversOriginalPayload(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for padding")

	sidecar, proof, err := raptorq.GenerateRaptorQSidecar(payload, 4)
	require.NoError(t, err)

	require.Equal(t, raptorq.SchemaVersion, sidecar.SchemaVersion)
	require.Equal(t, 4, sidecar.RepairSymbolCount)
	require.Len(t, sidecar.RepairManifest, 4)
	for _, entry := range sidecar.RepairManifest {
		require.Equal(t, sidecar.SourceSymbolCount, entry.Degree)
		require.Equal(t, sidecar.SymbolSize, entry.Bytes)
	}

	require.Equal(t, sidecar.SourceHash, proof.SourceHash)
	require.Equal(t, len(payload), proof.RecoveredBytes)
}

func TestProofHashIsStableAcrossRuns(t *testing.T) {
	payload := []byte("deterministic durability payload")

	_, first, err := raptorq.GenerateRaptorQSidecar(payload, 3)
	require.NoError(t, err)
	_, second, err := raptorq.GenerateRaptorQSidecar(payload, 3)
	require.NoError(t, err)

	require.Equal(t, first.ProofHash, second.ProofHash)
	require.Equal(t, first.ProofHashHex, second.ProofHashHex)
}

func TestSidecarSymbolSizeStepTable(t *testing.T) {
	small, _, err := raptorq.GenerateRaptorQSidecar(make([]byte, 10), 1)
	require.NoError(t, err)
	require.Equal(t, 32, small.SymbolSize)

	medium, _, err := raptorq.GenerateRaptorQSidecar(make([]byte, 300), 1)
	require.NoError(t, err)
	require.Equal(t, 64, medium.SymbolSize)

	large, _, err := raptorq.GenerateRaptorQSidecar(make([]byte, 2000), 1)
	require.NoError(t, err)
	require.Equal(t, 128, large.SymbolSize)

	huge, _, err := raptorq.GenerateRaptorQSidecar(make([]byte, 9000), 1)
	require.NoError(t, err)
	require.Equal(t, 256, huge.SymbolSize)
}

func TestDifferentPayloadsYieldDifferentSourceHash(t *testing.T) {
	a, _, err := raptorq.GenerateRaptorQSidecar([]byte("payload-a"), 2)
	require.NoError(t, err)
	b, _, err := raptorq.GenerateRaptorQSidecar([]byte("payload-b"), 2)
	require.NoError(t, err)

	require.NotEqual(t, a.SourceHash, b.SourceHash)
}
