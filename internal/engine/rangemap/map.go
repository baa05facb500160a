package rangemap

import "sort"

// Entry is a single range-to-value association stored in a Map.
type Entry[T comparable] struct {
	Range ByteRange
	Value T
}

// Map is an ordered associative container mapping byte ranges to values.
//
// Entries are kept sorted by offset and pairwise disjoint. Setting a value
// over part of an existing entry splits it, and adjacent entries holding
// equal values are merged, so each contiguous run of a value occupies exactly
// one entry.
type Map[T comparable] struct {
	entries []Entry[T]
}

// NewMap creates an empty range map.
func NewMap[T comparable]() *Map[T] {
	return &Map[T]{}
}

// Set assigns a value to the byte range [offset, offset+length).
//
// Existing entries partially overlapping the range are split so that only the
// exact sub-range receives the new value; entries fully covered are replaced.
// The new entry absorbs any overlapping or directly adjacent entries holding
// an equal value. A non-positive length is a no-op.
func (m *Map[T]) Set(offset, length int64, value T) {
	if length <= 0 {
		return
	}
	end := offset + length
	newOff, newEnd := offset, end

	// First entry that overlaps or touches the new range.
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Range.End() >= offset })
	j := i

	var before, after []Entry[T]
	for ; j < len(m.entries); j++ {
		e := m.entries[j]
		if e.Range.Offset > end {
			break
		}
		if e.Value == value {
			// Equal value, absorb the whole entry.
			newOff = min(newOff, e.Range.Offset)
			newEnd = max(newEnd, e.Range.End())
			continue
		}
		// Different value, preserve the parts outside the new range.
		if e.Range.Offset < offset {
			before = append(before, Entry[T]{NewRange(e.Range.Offset, offset-e.Range.Offset), e.Value})
		}
		if e.Range.End() > end {
			after = append(after, Entry[T]{NewRange(end, e.Range.End()-end), e.Value})
		}
	}

	repl := make([]Entry[T], 0, len(before)+1+len(after))
	repl = append(repl, before...)
	repl = append(repl, Entry[T]{NewRange(newOff, newEnd-newOff), value})
	repl = append(repl, after...)

	m.entries = append(m.entries[:i], append(repl, m.entries[j:]...)...)
}

// Clear removes any association for the byte range [offset, offset+length).
// Entries partially intersecting the range keep the portion outside it.
// A non-positive length is a no-op.
func (m *Map[T]) Clear(offset, length int64) {
	if length <= 0 {
		return
	}
	end := offset + length

	out := m.entries[:0]
	for _, e := range m.entries {
		if e.Range.End() <= offset || e.Range.Offset >= end {
			out = append(out, e)
			continue
		}
		if e.Range.Offset < offset {
			out = append(out, Entry[T]{NewRange(e.Range.Offset, offset-e.Range.Offset), e.Value})
		}
		if e.Range.End() > end {
			out = append(out, Entry[T]{NewRange(end, e.Range.End()-end), e.Value})
		}
	}
	m.entries = out
}

// ClearAll removes every entry from the map.
func (m *Map[T]) ClearAll() {
	m.entries = nil
}

// Get returns the value covering the given offset.
func (m *Map[T]) Get(offset int64) (T, bool) {
	e, ok := m.GetEntry(offset)
	return e.Value, ok
}

// GetEntry returns the entry covering the given offset.
func (m *Map[T]) GetEntry(offset int64) (Entry[T], bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Range.End() > offset })
	if i < len(m.entries) && m.entries[i].Range.Offset <= offset {
		return m.entries[i], true
	}
	return Entry[T]{}, false
}

// FirstOverlapping returns the first entry intersecting [offset, offset+length).
func (m *Map[T]) FirstOverlapping(offset, length int64) (Entry[T], bool) {
	if length <= 0 {
		return Entry[T]{}, false
	}
	end := offset + length
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Range.End() > offset })
	if i < len(m.entries) && m.entries[i].Range.Offset < end {
		return m.entries[i], true
	}
	return Entry[T]{}, false
}

// Slice returns a new map holding the associations intersecting
// [offset, offset+length), clamped to the ends of that window.
func (m *Map[T]) Slice(offset, length int64) *Map[T] {
	out := NewMap[T]()
	if length <= 0 {
		return out
	}
	end := offset + length
	for _, e := range m.entries {
		if e.Range.End() <= offset {
			continue
		}
		if e.Range.Offset >= end {
			break
		}
		o := max(e.Range.Offset, offset)
		l := min(e.Range.End(), end) - o
		out.Set(o, l, e.Value)
	}
	return out
}

// SetSlice copies every association from another map into this one,
// overwriting whatever the copied ranges previously covered.
func (m *Map[T]) SetSlice(other *Map[T]) {
	for _, e := range other.entries {
		m.Set(e.Range.Offset, e.Range.Length, e.Value)
	}
}

// Len returns the number of stored entries.
func (m *Map[T]) Len() int {
	return len(m.entries)
}

// IsEmpty returns true if the map holds no entries.
func (m *Map[T]) IsEmpty() bool {
	return len(m.entries) == 0
}

// Entries returns a copy of the stored entries in ascending offset order.
func (m *Map[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(m.entries))
	copy(out, m.entries)
	return out
}

// Clone returns a deep copy of the map.
func (m *Map[T]) Clone() *Map[T] {
	return &Map[T]{entries: m.Entries()}
}

// Equal reports whether two maps hold identical entries.
func (m *Map[T]) Equal(other *Map[T]) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for i, e := range m.entries {
		if e != other.entries[i] {
			return false
		}
	}
	return true
}

// DataInserted adjusts the map for bytes inserted into the underlying
// sequence at the given offset. Entries after the insertion point move along
// by the insertion length; an entry spanning the insertion point is split,
// leaving the same value on either side. Returns true if any entry was
// modified.
func (m *Map[T]) DataInserted(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	changed := false
	out := make([]Entry[T], 0, len(m.entries)+1)
	for _, e := range m.entries {
		switch {
		case e.Range.Offset >= offset:
			e.Range = e.Range.Shift(length)
			changed = true
		case e.Range.End() > offset:
			out = append(out, Entry[T]{NewRange(e.Range.Offset, offset-e.Range.Offset), e.Value})
			e = Entry[T]{NewRange(offset+length, e.Range.End()-offset), e.Value}
			changed = true
		}
		out = append(out, e)
	}
	m.entries = out
	return changed
}

// DataErased adjusts the map for bytes erased from the underlying sequence.
// Entries after the erased window move back; entries wholly inside it are
// removed; entries cut by it are truncated, with equal-valued pieces that
// meet across the cut merged back together. Returns true if any entry was
// modified.
func (m *Map[T]) DataErased(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	end := offset + length

	changed := false
	out := make([]Entry[T], 0, len(m.entries))
	for _, e := range m.entries {
		switch {
		case e.Range.End() <= offset:
			out = append(out, e)
			continue
		case e.Range.Offset >= end:
			e.Range = e.Range.Shift(-length)
		default:
			head := max(int64(0), offset-e.Range.Offset)
			tail := max(int64(0), e.Range.End()-end)
			if head+tail == 0 {
				changed = true
				continue
			}
			e = Entry[T]{NewRange(min(e.Range.Offset, offset), head + tail), e.Value}
		}
		changed = true
		if n := len(out); n > 0 && out[n-1].Range.End() == e.Range.Offset && out[n-1].Value == e.Value {
			out[n-1].Range.Length += e.Range.Length
		} else {
			out = append(out, e)
		}
	}
	m.entries = out
	return changed
}
