package checkpoint_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ft-systems/frankentorch/checkpoint"
)

func gradOf(v float64) *float64 { return &v }

func TestEncodeSortsEntriesAscending(t *testing.T) {
	entries := []checkpoint.SnapshotEntry{
		{NodeID: 3, Value: 3.0, Grad: gradOf(0.3)},
		{NodeID: 1, Value: 1.0, Grad: nil},
		{NodeID: 2, Value: 2.0, Grad: gradOf(0.2)},
	}

	env := checkpoint.Encode(entries, checkpoint.ModeStrict)
	require.Equal(t, []int{1, 2, 3}, nodeIDs(env.Entries))
	require.True(t, strings.HasPrefix(env.SourceHash, "det64:"))
}

func nodeIDs(entries []checkpoint.SnapshotEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.NodeID
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []checkpoint.SnapshotEntry{
		{NodeID: 1, Value: 3.0, Grad: gradOf(2.0)},
		{NodeID: 0, Value: 2.0, Grad: nil},
	}

	raw, err := checkpoint.EncodeToJSON(entries, checkpoint.ModeStrict)
	require.NoError(t, err)

	decoded, err := checkpoint.DecodeStrict(raw)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, nodeIDs(decoded.Entries))

	expected := checkpoint.Encode(entries, checkpoint.ModeStrict)
	require.Equal(t, expected.SourceHash, decoded.SourceHash)
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	raw, err := checkpoint.EncodeToJSON(nil, checkpoint.ModeStrict)
	require.NoError(t, err)

	tampered := strings.Replace(string(raw), "\"entries\"", "\"extra\":1,\"entries\"", 1)

	_, err = checkpoint.DecodeStrict([]byte(tampered))
	require.Error(t, err)
	var ufe *checkpoint.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	require.Equal(t, "extra", ufe.Field)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	raw := []byte(`{"schema_version":2,"mode":"strict","entries":[],"source_hash":"det64:0000000000000000"}`)
	_, err := checkpoint.DecodeStrict(raw)
	require.Error(t, err)
	var vme *checkpoint.VersionMismatchError
	require.ErrorAs(t, err, &vme)
	require.Equal(t, 1, vme.Expected)
	require.Equal(t, 2, vme.Found)
}

func TestDecodeRejectsTamperedChecksum(t *testing.T) {
	entries := []checkpoint.SnapshotEntry{{NodeID: 0, Value: 1.0}}
	raw, err := checkpoint.EncodeToJSON(entries, checkpoint.ModeStrict)
	require.NoError(t, err)

	tampered := strings.Replace(string(raw), "\"value\":1", "\"value\":2", 1)

	_, err = checkpoint.DecodeStrict([]byte(tampered))
	require.Error(t, err)
	require.ErrorIs(t, err, checkpoint.ErrChecksumMismatch)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := checkpoint.DecodeStrict([]byte("{not json"))
	require.Error(t, err)
	var ije *checkpoint.InvalidJsonError
	require.ErrorAs(t, err, &ije)
	require.LessOrEqual(t, len([]rune(ije.Diagnostic)), 220)
}

func TestHardenedDecodeBoundsPayloadPrefix(t *testing.T) {
	longGarbage := "{not json" + strings.Repeat("x", 500)
	_, err := checkpoint.DecodeHardened([]byte(longGarbage))
	require.Error(t, err)
	var ije *checkpoint.InvalidJsonError
	require.ErrorAs(t, err, &ije)
	require.LessOrEqual(t, len([]rune(ije.Diagnostic)), 200)
	require.LessOrEqual(t, len([]rune(ije.PayloadPrefix)), 96)
}
