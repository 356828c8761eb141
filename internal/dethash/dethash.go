// Package dethash provides the deterministic 64-bit digest shared by the
// checkpoint codec and the raptorq durability sidecar.
//
// The digest is the FNV-1a family (offset basis 0xcbf29ce484222325, prime
// 0x100000001b3) applied over a fixed, documented byte sequence. Go's
// standard library hash/fnv implements exactly this algorithm, so this
// package is a thin, order-preserving wrapper rather than a reimplementation
// of FNV: the contract that matters here is the sequence fields are written
// in, not the hash primitive itself.
package dethash

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
)

// Digest accumulates field writes in a fixed order and renders a stable
// "det64:<16 lowercase hex>" string, matching the wire format pinned across
// the checkpoint and sidecar surfaces.
type Digest struct {
	h hash.Hash64
}

// New returns a fresh digest seeded at the FNV-1a 64-bit offset basis.
func New() *Digest {
	return &Digest{h: fnv.New64a()}
}

// WriteByte folds a single byte into the digest.
func (d *Digest) WriteByte(b byte) {
	_, _ = d.h.Write([]byte{b})
}

// WriteUint32 folds a uint32 in little-endian order.
func (d *Digest) WriteUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = d.h.Write(buf[:])
}

// WriteUint64 folds a uint64 in little-endian order.
func (d *Digest) WriteUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = d.h.Write(buf[:])
}

// WriteInt folds a signed int (e.g. a node id) as its uint64 bit pattern.
func (d *Digest) WriteInt(v int) {
	d.WriteUint64(uint64(v))
}

// WriteFloat64 folds an IEEE-754 bit pattern, matching the spec's
// "value bits" / "grad bits" field semantics exactly (no rounding).
func (d *Digest) WriteFloat64(v float64) {
	d.WriteUint64(math.Float64bits(v))
}

// WriteBytes folds an arbitrary byte slice (used for raw payload hashing).
func (d *Digest) WriteBytes(b []byte) {
	_, _ = d.h.Write(b)
}

// Sum64 returns the raw 64-bit digest value.
func (d *Digest) Sum64() uint64 {
	return d.h.Sum64()
}

// Hex renders the digest as "det64:<16 lowercase hex>".
func (d *Digest) Hex() string {
	return FormatHex(d.h.Sum64())
}

// FormatHex renders a raw 64-bit value in the pinned "det64:..." wire form.
func FormatHex(v uint64) string {
	return fmt.Sprintf("det64:%016x", v)
}

// Bytes64 returns the deterministic digest of an arbitrary byte slice,
// rendered in the pinned wire form. Used for hashing raw payloads (e.g. the
// raptorq sidecar's source_hash over encoded checkpoint bytes).
func Bytes64(b []byte) string {
	d := New()
	d.WriteBytes(b)
	return d.Hex()
}
