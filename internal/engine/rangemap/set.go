package rangemap

import "sort"

// Set is an ordered set of disjoint byte ranges.
//
// Ranges are kept sorted by offset. Ranges that overlap or touch are merged
// into a single stored range, so each contiguous extent occupies exactly one
// entry regardless of how it was built up.
type Set struct {
	ranges []ByteRange
}

// NewSet creates an empty range set.
func NewSet() *Set {
	return &Set{}
}

// Set adds a range of bytes to the set, merging with any existing ranges
// that overlap or touch it. A non-positive length is a no-op.
func (s *Set) Set(offset, length int64) {
	if length <= 0 {
		return
	}
	end := offset + length

	// First stored range that overlaps or touches the new one.
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End() >= offset })
	j := i
	for ; j < len(s.ranges); j++ {
		if s.ranges[j].Offset > end {
			break
		}
		if s.ranges[j].Offset < offset {
			offset = s.ranges[j].Offset
		}
		if s.ranges[j].End() > end {
			end = s.ranges[j].End()
		}
	}

	s.ranges = append(s.ranges[:i], append([]ByteRange{NewRange(offset, end-offset)}, s.ranges[j:]...)...)
}

// Clear removes a range of bytes from the set. Stored ranges partially
// intersecting the cleared window are truncated; ranges fully covered are
// removed. A non-positive length is a no-op.
func (s *Set) Clear(offset, length int64) {
	if length <= 0 {
		return
	}
	end := offset + length

	out := s.ranges[:0]
	for _, r := range s.ranges {
		if r.End() <= offset || r.Offset >= end {
			out = append(out, r)
			continue
		}
		if r.Offset < offset {
			out = append(out, NewRange(r.Offset, offset-r.Offset))
		}
		if r.End() > end {
			out = append(out, NewRange(end, r.End()-end))
		}
	}
	s.ranges = out
}

// ClearAll removes every range from the set.
func (s *Set) ClearAll() {
	s.ranges = nil
}

// Contains returns true if the given offset is within a stored range.
func (s *Set) Contains(offset int64) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End() > offset })
	return i < len(s.ranges) && s.ranges[i].Offset <= offset
}

// ContainsRange returns true if every byte of [offset, offset+length) is
// within a single stored range.
func (s *Set) ContainsRange(offset, length int64) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End() > offset })
	return i < len(s.ranges) && s.ranges[i].Offset <= offset && s.ranges[i].End() >= offset+length
}

// OverlapsRange returns true if any byte of [offset, offset+length) is
// within a stored range.
func (s *Set) OverlapsRange(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	end := offset + length
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End() > offset })
	return i < len(s.ranges) && s.ranges[i].Offset < end
}

// TotalBytes returns the total number of bytes covered by the set.
func (s *Set) TotalBytes() int64 {
	var total int64
	for _, r := range s.ranges {
		total += r.Length
	}
	return total
}

// Len returns the number of stored ranges.
func (s *Set) Len() int {
	return len(s.ranges)
}

// IsEmpty returns true if the set contains no ranges.
func (s *Set) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Ranges returns a copy of the stored ranges in ascending offset order.
func (s *Set) Ranges() []ByteRange {
	out := make([]ByteRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{ranges: s.Ranges()}
}

// DataInserted adjusts the set for bytes inserted into the underlying
// sequence at the given offset. Ranges after the insertion point move along
// by the insertion length; a range spanning the insertion point is split.
// Returns true if any range was modified.
func (s *Set) DataInserted(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	changed := false
	out := make([]ByteRange, 0, len(s.ranges)+1)
	for _, r := range s.ranges {
		switch {
		case r.Offset >= offset:
			out = append(out, r.Shift(length))
			changed = true
		case r.End() > offset:
			out = append(out,
				NewRange(r.Offset, offset-r.Offset),
				NewRange(offset+length, r.End()-offset))
			changed = true
		default:
			out = append(out, r)
		}
	}
	s.ranges = out
	return changed
}

// DataErased adjusts the set for bytes erased from the underlying sequence.
// Ranges after the erased window move back; ranges wholly inside it are
// removed; ranges cut by it are truncated, merging across the cut where the
// remaining pieces meet. Returns true if any range was modified.
func (s *Set) DataErased(offset, length int64) bool {
	if length <= 0 {
		return false
	}
	end := offset + length

	changed := false
	out := make([]ByteRange, 0, len(s.ranges))
	for _, r := range s.ranges {
		switch {
		case r.End() <= offset:
			out = append(out, r)
			continue
		case r.Offset >= end:
			r = r.Shift(-length)
		default:
			head := max(int64(0), offset-r.Offset)
			tail := max(int64(0), r.End()-end)
			if head+tail == 0 {
				changed = true
				continue
			}
			r = NewRange(min(r.Offset, offset), head+tail)
		}
		changed = true
		if n := len(out); n > 0 && out[n-1].End() >= r.Offset {
			out[n-1].Length = r.End() - out[n-1].Offset
		} else {
			out = append(out, r)
		}
	}
	s.ranges = out
	return changed
}
