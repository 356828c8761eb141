package checkpoint

import (
	"sort"
	"strings"

	"github.com/ft-systems/frankentorch/internal/dethash"
)

// CurrentSchemaVersion is the only schema_version strict and hardened
// decode accept.
const CurrentSchemaVersion = 1

// CheckpointMode tags which dispatch execution mode produced an envelope.
// Decode rejects any value other than "strict" or "hardened"; beyond that
// it is only echoed and hashed.
type CheckpointMode string

const (
	ModeStrict   CheckpointMode = "strict"
	ModeHardened CheckpointMode = "hardened"
)

func (m CheckpointMode) valid() bool {
	return m == ModeStrict || m == ModeHardened
}

// SnapshotEntry is one tape node's checkpointed state: its forward value
// and, if present, its backward gradient.
type SnapshotEntry struct {
	NodeID int
	Value  float64
	Grad   *float64
}

// CheckpointEnvelope is the canonical, sorted, hashed snapshot described by
// invariants CE1 (node_id-ascending entries) and CE2 (source_hash covers
// schema_version, mode, and every entry in that order).
type CheckpointEnvelope struct {
	SchemaVersion int
	Mode          CheckpointMode
	Entries       []SnapshotEntry
	SourceHash    string
}

// Encode normalises entries by ascending node_id and returns the canonical
// envelope with a freshly computed source_hash.
func Encode(entries []SnapshotEntry, mode CheckpointMode) *CheckpointEnvelope {
	sorted := append([]SnapshotEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })
	return &CheckpointEnvelope{
		SchemaVersion: CurrentSchemaVersion,
		Mode:          mode,
		Entries:       sorted,
		SourceHash:    computeSourceHash(CurrentSchemaVersion, mode, sorted),
	}
}

func computeSourceHash(schemaVersion int, mode CheckpointMode, entries []SnapshotEntry) string {
	d := dethash.New()
	d.WriteInt(schemaVersion)
	d.WriteBytes([]byte(mode))
	for _, e := range entries {
		d.WriteInt(e.NodeID)
		d.WriteFloat64(e.Value)
		if e.Grad != nil {
			d.WriteByte(1)
			d.WriteFloat64(*e.Grad)
		} else {
			d.WriteByte(0)
		}
	}
	return d.Hex()
}

func flattenNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " ")
}
