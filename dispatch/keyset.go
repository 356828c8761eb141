package dispatch

// KeySet is a bitmask over the known Key values (invariant DK1: any bit
// outside the known mask is a hard error — no silent truncation).
type KeySet struct {
	bits uint64
}

// EmptyKeySet returns the zero-value keyset.
func EmptyKeySet() KeySet { return KeySet{} }

// FromKeys builds a keyset from zero or more keys.
func FromKeys(keys ...Key) KeySet {
	var out KeySet
	for _, k := range keys {
		out.Add(k)
	}
	return out
}

// FromBitsChecked builds a keyset from a raw bitmask, failing with
// *KeyError{Kind: KindUnknownBits} if any bit falls outside the known mask.
func FromBitsChecked(bits uint64) (KeySet, error) {
	unknown := bits &^ knownMask()
	if unknown != 0 {
		return KeySet{}, &KeyError{Kind: KindUnknownBits, Unknown: unknown}
	}
	return KeySet{bits: bits}, nil
}

// Bits returns the raw bitmask.
func (s KeySet) Bits() uint64 { return s.bits }

// IsEmpty reports whether no keys are set.
func (s KeySet) IsEmpty() bool { return s.bits == 0 }

// Add sets key's bit.
func (s *KeySet) Add(key Key) { s.bits |= key.Bit() }

// Remove clears key's bit.
func (s *KeySet) Remove(key Key) { s.bits &^= key.Bit() }

// Has reports whether key's bit is set.
func (s KeySet) Has(key Key) bool { return s.bits&key.Bit() != 0 }

// Union returns the bitwise union of two keysets.
func (s KeySet) Union(other KeySet) KeySet { return KeySet{bits: s.bits | other.bits} }

// Intersection returns the bitwise intersection of two keysets.
func (s KeySet) Intersection(other KeySet) KeySet { return KeySet{bits: s.bits & other.bits} }

// HighestPriorityTypeID returns the first key present in type-priority
// order (AutogradCPU > CompositeExplicit > CompositeImplicit > CPU > BackendSelect).
func (s KeySet) HighestPriorityTypeID() (Key, error) {
	if s.IsEmpty() {
		return Undefined, &KeyError{Kind: KindEmptySet}
	}
	for _, k := range typePriority {
		if s.Has(k) {
			return k, nil
		}
	}
	return Undefined, &KeyError{Kind: KindNoTypeKey}
}

// HighestPriorityBackendTypeID returns the first key present in
// backend-priority order (only CPU at this spec's scope).
func (s KeySet) HighestPriorityBackendTypeID() (Key, error) {
	if s.IsEmpty() {
		return Undefined, &KeyError{Kind: KindEmptySet}
	}
	for _, k := range backendPriority {
		if s.Has(k) {
			return k, nil
		}
	}
	return Undefined, &KeyError{Kind: KindNoBackendKey}
}

// ValidateForScalarBinary checks the set is non-empty, that AutogradCPU
// never appears without CPU, and that both a type key and a backend key
// resolve.
func (s KeySet) ValidateForScalarBinary() error {
	if s.IsEmpty() {
		return &KeyError{Kind: KindEmptySet}
	}
	if s.Has(AutogradCPU) && !s.Has(CPU) {
		return incompatibleSet("AutogradCPU requires CPU backend availability")
	}
	if _, err := s.HighestPriorityTypeID(); err != nil {
		return err
	}
	if _, err := s.HighestPriorityBackendTypeID(); err != nil {
		return err
	}
	return nil
}
