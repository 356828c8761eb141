package raptorq

import (
	"github.com/klauspost/reedsolomon"
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/internal/dethash"
	"github.com/ft-systems/frankentorch/internal/obslog"
)

// SchemaVersion is the only sidecar/decode-proof schema version this
// package emits or accepts.
const SchemaVersion = 1

// RepairManifestEntry describes one repair (parity) shard: its encoding
// symbol id, the number of source shards it depends on, and its byte
// length. For a systematic Reed-Solomon code every parity shard is a
// linear combination of all k data shards, so Degree always equals the
// sidecar's SourceSymbolCount.
type RepairManifestEntry struct {
	ESI    int
	Degree int
	Bytes  int
}

// RaptorQSidecar is the durability sidecar for a payload: the symbol
// layout, seed, object id and repair manifest describing its systematic and
// repair shards. It does not carry the shard bytes themselves.
type RaptorQSidecar struct {
	SchemaVersion          int
	SourceHash             string
	SymbolSize             int
	SourceSymbolCount      int
	ConstraintsSymbolCount int
	RepairSymbolCount      int
	Seed                   uint64
	ObjectIDHigh           uint64
	ObjectIDLow            uint64
	RepairManifest         []RepairManifestEntry
}

// DecodeProof records that a sidecar was actually decoded back to its
// original payload, with a stable digest (RQ1) over the schema version, the
// source hash, the received-symbol count and the recovered byte count.
type DecodeProof struct {
	SchemaVersion       int
	SourceHash          string
	ProofHash           uint64
	ProofHashHex        string
	ReceivedSymbolCount int
	RecoveredBytes      int
}

// symbolSizeFor picks symbol_size from the fixed step table on payload
// length.
func symbolSizeFor(payloadLen int) int {
	switch {
	case payloadLen <= 64:
		return 32
	case payloadLen <= 512:
		return 64
	case payloadLen <= 4096:
		return 128
	default:
		return 256
	}
}

func deriveSeed(k, symbolSize, repairSymbolCount int) uint64 {
	d := dethash.New()
	d.WriteInt(k)
	d.WriteInt(symbolSize)
	d.WriteInt(repairSymbolCount)
	d.WriteBytes([]byte("ft-raptorq-seed"))
	return d.Sum64()
}

func deriveObjectID(sourceHash string, payloadLen int) (hi, lo uint64) {
	d := dethash.New()
	d.WriteBytes([]byte(sourceHash))
	d.WriteInt(payloadLen)
	lo = d.Sum64()
	d2 := dethash.New()
	d2.WriteBytes([]byte(sourceHash))
	d2.WriteInt(payloadLen)
	d2.WriteByte(0xff)
	hi = d2.Sum64()
	return hi, lo
}

func splitIntoShards(payload []byte, k, symbolSize int) [][]byte {
	padded := make([]byte, k*symbolSize)
	copy(padded, payload)
	shards := make([][]byte, k)
	for i := 0; i < k; i++ {
		shards[i] = padded[i*symbolSize : (i+1)*symbolSize]
	}
	return shards
}

// GenerateRaptorQSidecar builds the durability sidecar for payload with
// repairSymbolCount parity shards, then immediately verifies decodability
// via the three-candidate sequence and returns the resulting decode proof
// alongside it.
func GenerateRaptorQSidecar(payload []byte, repairSymbolCount int) (*RaptorQSidecar, *DecodeProof, error) {
	return GenerateRaptorQSidecarWithLogger(payload, repairSymbolCount, nil)
}

// GenerateRaptorQSidecarWithLogger behaves like GenerateRaptorQSidecar,
// additionally logging one structured fail-closed event through logger
// (nil-safe) if every decode candidate fails.
func GenerateRaptorQSidecarWithLogger(payload []byte, repairSymbolCount int, logger *zap.Logger) (*RaptorQSidecar, *DecodeProof, error) {
	sidecar, proof, err := generateRaptorQSidecar(payload, repairSymbolCount)
	if err != nil {
		obslog.FailClosed(logger, "raptorq.generate_sidecar", err)
	}
	return sidecar, proof, err
}

func generateRaptorQSidecar(payload []byte, repairSymbolCount int) (*RaptorQSidecar, *DecodeProof, error) {
	sourceHash := dethash.Bytes64(payload)
	symbolSize := symbolSizeFor(len(payload))
	k := (len(payload) + symbolSize - 1) / symbolSize
	if k == 0 {
		k = 1
	}

	dataShards := splitIntoShards(payload, k, symbolSize)

	enc, err := reedsolomon.New(k, repairSymbolCount)
	if err != nil {
		return nil, nil, &RaptorQFailureError{LastError: err.Error()}
	}

	allShards := make([][]byte, k+repairSymbolCount)
	copy(allShards, dataShards)
	for i := k; i < k+repairSymbolCount; i++ {
		allShards[i] = make([]byte, symbolSize)
	}
	if err := enc.Encode(allShards); err != nil {
		return nil, nil, &RaptorQFailureError{LastError: err.Error()}
	}

	seed := deriveSeed(k, symbolSize, repairSymbolCount)
	objectIDHigh, objectIDLow := deriveObjectID(sourceHash, len(payload))

	manifest := make([]RepairManifestEntry, repairSymbolCount)
	for i := 0; i < repairSymbolCount; i++ {
		manifest[i] = RepairManifestEntry{ESI: k + i, Degree: k, Bytes: symbolSize}
	}

	sidecar := &RaptorQSidecar{
		SchemaVersion:          SchemaVersion,
		SourceHash:             sourceHash,
		SymbolSize:             symbolSize,
		SourceSymbolCount:      k,
		ConstraintsSymbolCount: len(allShards),
		RepairSymbolCount:      repairSymbolCount,
		Seed:                   seed,
		ObjectIDHigh:           objectIDHigh,
		ObjectIDLow:            objectIDLow,
		RepairManifest:         manifest,
	}

	proof, err := decodeAndProve(enc, allShards, k, repairSymbolCount, symbolSize, len(payload), sourceHash, payload)
	if err != nil {
		return nil, nil, err
	}

	return sidecar, proof, nil
}
