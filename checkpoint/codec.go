package checkpoint

import (
	"bytes"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/internal/obslog"
)

// wireEntry and wireEnvelope pin the exact JSON key set and field order of
// the checkpoint wire format; struct field order is marshal order, which is
// what keeps Marshal's output byte-stable across runs for a fixed input.
type wireEntry struct {
	NodeID int      `json:"node_id"`
	Value  float64  `json:"value"`
	Grad   *float64 `json:"grad"`
}

type wireEnvelope struct {
	SchemaVersion int         `json:"schema_version"`
	Mode          string      `json:"mode"`
	Entries       []wireEntry `json:"entries"`
	SourceHash    string      `json:"source_hash"`
}

func toWire(env *CheckpointEnvelope) wireEnvelope {
	entries := make([]wireEntry, len(env.Entries))
	for i, e := range env.Entries {
		entries[i] = wireEntry{NodeID: e.NodeID, Value: e.Value, Grad: e.Grad}
	}
	return wireEnvelope{
		SchemaVersion: env.SchemaVersion,
		Mode:          string(env.Mode),
		Entries:       entries,
		SourceHash:    env.SourceHash,
	}
}

func fromWire(w wireEnvelope) *CheckpointEnvelope {
	entries := make([]SnapshotEntry, len(w.Entries))
	for i, e := range w.Entries {
		entries[i] = SnapshotEntry{NodeID: e.NodeID, Value: e.Value, Grad: e.Grad}
	}
	return &CheckpointEnvelope{
		SchemaVersion: w.SchemaVersion,
		Mode:          CheckpointMode(w.Mode),
		Entries:       entries,
		SourceHash:    w.SourceHash,
	}
}

// MarshalJSON renders the envelope's pinned wire form.
func (env *CheckpointEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(env))
}

// EncodeToJSON normalises entries, computes source_hash, and renders the
// resulting envelope to its pinned JSON wire form in one step.
func EncodeToJSON(entries []SnapshotEntry, mode CheckpointMode) ([]byte, error) {
	return Encode(entries, mode).MarshalJSON()
}

// DecodeStrict parses raw as a checkpoint envelope, rejecting unknown
// top-level keys, malformed JSON, a schema_version mismatch, and a
// recomputed source_hash mismatch. Diagnostics are bounded to 220 chars and
// never include a payload prefix.
func DecodeStrict(raw []byte) (*CheckpointEnvelope, error) {
	return DecodeStrictWithLogger(raw, nil)
}

// DecodeStrictWithLogger behaves like DecodeStrict, additionally logging
// one structured fail-closed event through logger (nil-safe) when decode
// fails.
func DecodeStrictWithLogger(raw []byte, logger *zap.Logger) (*CheckpointEnvelope, error) {
	env, err := decode(raw, 220, false)
	if err != nil {
		obslog.FailClosed(logger, "checkpoint.decode_strict", err)
	}
	return env, err
}

// DecodeHardened applies the same invariants as DecodeStrict but bounds its
// InvalidJson diagnostic to 200 chars and additionally carries up to 96
// chars of the raw input (newlines flattened) as PayloadPrefix.
func DecodeHardened(raw []byte) (*CheckpointEnvelope, error) {
	return DecodeHardenedWithLogger(raw, nil)
}

// DecodeHardenedWithLogger behaves like DecodeHardened, additionally
// logging one structured fail-closed event through logger (nil-safe) when
// decode fails.
func DecodeHardenedWithLogger(raw []byte, logger *zap.Logger) (*CheckpointEnvelope, error) {
	env, err := decode(raw, 200, true)
	if err != nil {
		obslog.FailClosed(logger, "checkpoint.decode_hardened", err)
	}
	return env, err
}

func decode(raw []byte, diagnosticBound int, withPrefix bool) (*CheckpointEnvelope, error) {
	if err := rejectUnknownFields(raw); err != nil {
		return nil, invalidOrUnknown(err, raw, diagnosticBound, withPrefix)
	}

	var w wireEnvelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, invalidOrUnknown(err, raw, diagnosticBound, withPrefix)
	}

	if w.SchemaVersion != CurrentSchemaVersion {
		return nil, &VersionMismatchError{Expected: CurrentSchemaVersion, Found: w.SchemaVersion}
	}

	mode := CheckpointMode(w.Mode)
	if !mode.valid() {
		return nil, &IncompatiblePayloadError{Reason: "mode must be \"strict\" or \"hardened\", got " + w.Mode}
	}

	env := fromWire(w)
	sortEntries(env)
	recomputed := computeSourceHash(env.SchemaVersion, env.Mode, env.Entries)
	if recomputed != env.SourceHash {
		return nil, &ChecksumMismatchError{Expected: recomputed, Found: env.SourceHash}
	}

	return env, nil
}

func sortEntries(env *CheckpointEnvelope) {
	for i := 1; i < len(env.Entries); i++ {
		for j := i; j > 0 && env.Entries[j-1].NodeID > env.Entries[j].NodeID; j-- {
			env.Entries[j-1], env.Entries[j] = env.Entries[j], env.Entries[j-1]
		}
	}
}

// rejectUnknownFields walks the top-level object keys of raw and rejects
// any key outside the pinned set, independent of whatever the underlying
// decoder's own unknown-field enforcement covers.
func rejectUnknownFields(raw []byte) error {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	allowed := map[string]bool{
		"schema_version": true,
		"mode":           true,
		"entries":        true,
		"source_hash":    true,
	}
	for key := range generic {
		if !allowed[key] {
			return &UnknownFieldError{Field: key}
		}
	}
	return nil
}

func invalidOrUnknown(err error, raw []byte, diagnosticBound int, withPrefix bool) error {
	if uf, ok := err.(*UnknownFieldError); ok {
		return uf
	}
	diag := boundString(err.Error(), diagnosticBound)
	ij := &InvalidJsonError{Diagnostic: diag}
	if withPrefix {
		ij.PayloadPrefix = boundString(flattenNewlines(string(raw)), 96)
	}
	return ij
}
