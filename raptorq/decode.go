package raptorq

import (
	"bytes"

	"github.com/klauspost/reedsolomon"

	"github.com/ft-systems/frankentorch/internal/dethash"
)

// decodeAndProve attempts the three-candidate received-symbol sequence
// against the already-encoded shard set, accepting the first candidate
// whose recovered bytes (truncated to originalLen) equal original.
func decodeAndProve(
	enc reedsolomon.Encoder,
	allShards [][]byte,
	k, repairSymbolCount, symbolSize, originalLen int,
	sourceHash string,
	original []byte,
) (*DecodeProof, error) {
	candidates := buildCandidates(allShards, k, repairSymbolCount)

	var lastErr error
	for _, candidate := range candidates {
		received := make([][]byte, len(allShards))
		copy(received, candidate.shards)

		if err := enc.Reconstruct(received); err != nil {
			lastErr = err
			continue
		}

		var buf bytes.Buffer
		if err := enc.Join(&buf, received, originalLen); err != nil {
			lastErr = err
			continue
		}

		recovered := buf.Bytes()
		if !bytes.Equal(recovered, original) {
			lastErr = errMismatch
			continue
		}

		return buildProof(candidate.receivedCount, len(recovered), sourceHash), nil
	}

	msg := "no candidate decoded"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return nil, &RaptorQFailureError{LastError: msg}
}

var errMismatch = errRecoveredMismatch{}

type errRecoveredMismatch struct{}

func (errRecoveredMismatch) Error() string { return "recovered bytes did not match original payload" }

type decodeCandidate struct {
	shards        [][]byte
	receivedCount int
}

// buildCandidates returns the three fixed received-symbol sets from
// §4.E: (a) all k systematic shards, no repair; (b) the first systematic
// shard erased and reconstructed from the remaining systematic shards plus
// the repair shards; (c) every shard, systematic and repair.
func buildCandidates(allShards [][]byte, k, repairSymbolCount int) []decodeCandidate {
	total := k + repairSymbolCount

	allSystematic := make([][]byte, total)
	for i := 0; i < k; i++ {
		allSystematic[i] = allShards[i]
	}
	systematicCount := k

	firstErased := make([][]byte, total)
	for i := 1; i < k; i++ {
		firstErased[i] = allShards[i]
	}
	for i := k; i < total; i++ {
		firstErased[i] = allShards[i]
	}
	firstErasedCount := (k - 1) + repairSymbolCount

	everything := make([][]byte, total)
	copy(everything, allShards)
	everythingCount := total

	return []decodeCandidate{
		{shards: allSystematic, receivedCount: systematicCount},
		{shards: firstErased, receivedCount: firstErasedCount},
		{shards: everything, receivedCount: everythingCount},
	}
}

func buildProof(receivedCount, recoveredBytes int, sourceHash string) *DecodeProof {
	d := dethash.New()
	d.WriteInt(SchemaVersion)
	d.WriteBytes([]byte(sourceHash))
	d.WriteInt(receivedCount)
	d.WriteInt(recoveredBytes)
	hash := d.Sum64()

	return &DecodeProof{
		SchemaVersion:       SchemaVersion,
		SourceHash:          sourceHash,
		ProofHash:           hash,
		ProofHashHex:        dethash.FormatHex(hash),
		ReceivedSymbolCount: receivedCount,
		RecoveredBytes:      recoveredBytes,
	}
}
