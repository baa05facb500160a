// Package vmap maintains a bidirectional mapping between file offsets and
// virtual addresses.
//
// The mapping is held as two mutually inverse range maps, one keyed by real
// (file) offset and one keyed by virtual address, each storing the base of
// the corresponding range on the other side. Both stay consistent through
// every mutation: a mapping can be resolved in either direction in O(log n).
package vmap

import (
	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
)

// Mapping is one contiguous run of file bytes with virtual addresses.
type Mapping struct {
	Real    int64
	Virtual int64
	Length  int64
}

func (m Mapping) realEnd() int64 { return m.Real + m.Length }
func (m Mapping) virtEnd() int64 { return m.Virtual + m.Length }

// Map is a set of non-overlapping virtual address mappings. Not safe for
// concurrent use.
type Map struct {
	realToVirt *rangemap.Map[int64] // real range -> virtual base
	virtToReal *rangemap.Map[int64] // virtual range -> real base
}

// NewMap creates an empty mapping table.
func NewMap() *Map {
	return &Map{
		realToVirt: rangemap.NewMap[int64](),
		virtToReal: rangemap.NewMap[int64](),
	}
}

// Set establishes a mapping of length bytes from the given real offset to
// the given virtual address. It returns false, making no change, if the new
// run would overlap an existing mapping on either the real or the virtual
// side.
func (m *Map) Set(real, virtual, length int64) bool {
	if real < 0 || virtual < 0 || length <= 0 {
		return false
	}
	if _, ok := m.realToVirt.FirstOverlapping(real, length); ok {
		return false
	}
	if _, ok := m.virtToReal.FirstOverlapping(virtual, length); ok {
		return false
	}
	m.add(Mapping{Real: real, Virtual: virtual, Length: length})
	return true
}

// ClearReal removes any mappings within the given real byte range. Mappings
// extending beyond it are narrowed, keeping the surviving bytes at their
// original virtual addresses.
func (m *Map) ClearReal(offset, length int64) {
	if length <= 0 {
		return
	}
	end := offset + length

	var keep []Mapping
	for _, mp := range m.Mappings() {
		if mp.Real >= end || mp.realEnd() <= offset {
			keep = append(keep, mp)
			continue
		}
		if mp.Real < offset {
			keep = append(keep, Mapping{Real: mp.Real, Virtual: mp.Virtual, Length: offset - mp.Real})
		}
		if mp.realEnd() > end {
			d := end - mp.Real
			keep = append(keep, Mapping{Real: end, Virtual: mp.Virtual + d, Length: mp.realEnd() - end})
		}
	}
	m.rebuild(keep)
}

// ClearVirtual removes any mappings within the given virtual address range.
// Mappings extending beyond it are narrowed, keeping the surviving bytes at
// their original real offsets.
func (m *Map) ClearVirtual(virtual, length int64) {
	if length <= 0 {
		return
	}
	end := virtual + length

	var keep []Mapping
	for _, mp := range m.Mappings() {
		if mp.Virtual >= end || mp.virtEnd() <= virtual {
			keep = append(keep, mp)
			continue
		}
		if mp.Virtual < virtual {
			keep = append(keep, Mapping{Real: mp.Real, Virtual: mp.Virtual, Length: virtual - mp.Virtual})
		}
		if mp.virtEnd() > end {
			d := end - mp.Virtual
			keep = append(keep, Mapping{Real: mp.Real + d, Virtual: end, Length: mp.virtEnd() - end})
		}
	}
	m.rebuild(keep)
}

// ClearAll removes every mapping.
func (m *Map) ClearAll() {
	m.realToVirt.ClearAll()
	m.virtToReal.ClearAll()
}

// RealToVirtual resolves a real offset to its virtual address.
func (m *Map) RealToVirtual(real int64) (int64, bool) {
	e, ok := m.realToVirt.GetEntry(real)
	if !ok {
		return 0, false
	}
	return e.Value + (real - e.Range.Offset), true
}

// VirtualToReal resolves a virtual address to its real offset.
func (m *Map) VirtualToReal(virtual int64) (int64, bool) {
	e, ok := m.virtToReal.GetEntry(virtual)
	if !ok {
		return 0, false
	}
	return e.Value + (virtual - e.Range.Offset), true
}

// Mappings returns every mapping ordered by real offset.
func (m *Map) Mappings() []Mapping {
	entries := m.realToVirt.Entries()
	out := make([]Mapping, len(entries))
	for i, e := range entries {
		out[i] = Mapping{Real: e.Range.Offset, Virtual: e.Value, Length: e.Range.Length}
	}
	return out
}

// Len returns the number of contiguous mapping runs.
func (m *Map) Len() int {
	return m.realToVirt.Len()
}

// IsEmpty returns true if no mappings exist.
func (m *Map) IsEmpty() bool {
	return m.realToVirt.IsEmpty()
}

// Clone returns a deep copy of the mapping table.
func (m *Map) Clone() *Map {
	return &Map{
		realToVirt: m.realToVirt.Clone(),
		virtToReal: m.virtToReal.Clone(),
	}
}

// Equal reports whether two tables hold identical mappings.
func (m *Map) Equal(other *Map) bool {
	return m.realToVirt.Equal(other.realToVirt)
}

// DataInserted adjusts the mappings for bytes inserted into the file at the
// given real offset. A mapping spanning the insertion point splits around
// it; mappings at or after it move along. Virtual addresses are unaffected.
// Returns true if any mapping changed.
func (m *Map) DataInserted(offset, length int64) bool {
	if length <= 0 {
		return false
	}

	changed := false
	var keep []Mapping
	for _, mp := range m.Mappings() {
		switch {
		case mp.Real >= offset:
			mp.Real += length
			keep = append(keep, mp)
			changed = true
		case mp.realEnd() > offset:
			d := offset - mp.Real
			keep = append(keep, Mapping{Real: mp.Real, Virtual: mp.Virtual, Length: d})
			keep = append(keep, Mapping{Real: offset + length, Virtual: mp.Virtual + d, Length: mp.Length - d})
			changed = true
		default:
			keep = append(keep, mp)
		}
	}
	if changed {
		m.rebuild(keep)
	}
	return changed
}

// DataErased adjusts the mappings for bytes erased from the file. Mapped
// bytes inside the erased window lose their mapping; surviving bytes keep
// their virtual addresses. Returns true if any mapping changed.
func (m *Map) DataErased(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	end := offset + length

	changed := false
	var keep []Mapping
	for _, mp := range m.Mappings() {
		switch {
		case mp.realEnd() <= offset:
			keep = append(keep, mp)
		case mp.Real >= end:
			mp.Real -= length
			keep = append(keep, mp)
			changed = true
		case mp.Real >= offset && mp.realEnd() <= end:
			// Wholly erased.
			changed = true
		case mp.Real <= offset && mp.realEnd() >= end:
			if d := offset - mp.Real; d > 0 {
				keep = append(keep, Mapping{Real: mp.Real, Virtual: mp.Virtual, Length: d})
			}
			if tail := mp.realEnd() - end; tail > 0 {
				keep = append(keep, Mapping{Real: offset, Virtual: mp.Virtual + (end - mp.Real), Length: tail})
			}
			changed = true
		case mp.Real < offset:
			// Window takes the tail of the mapping.
			keep = append(keep, Mapping{Real: mp.Real, Virtual: mp.Virtual, Length: offset - mp.Real})
			changed = true
		default:
			// Window takes the head of the mapping.
			d := end - mp.Real
			keep = append(keep, Mapping{Real: offset, Virtual: mp.Virtual + d, Length: mp.Length - d})
			changed = true
		}
	}
	if changed {
		m.rebuild(keep)
	}
	return changed
}

func (m *Map) add(mp Mapping) {
	m.realToVirt.Set(mp.Real, mp.Length, mp.Virtual)
	m.virtToReal.Set(mp.Virtual, mp.Length, mp.Real)
}

func (m *Map) rebuild(keep []Mapping) {
	m.realToVirt.ClearAll()
	m.virtToReal.ClearAll()
	for _, mp := range keep {
		m.add(mp)
	}
}
