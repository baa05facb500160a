package rangemap

import "fmt"

// ByteRange represents a half-open range of bytes [Offset, Offset+Length)
// in a linear address space.
type ByteRange struct {
	Offset int64 // First byte covered by the range
	Length int64 // Number of bytes covered
}

// NewRange creates a new ByteRange from an offset and length.
func NewRange(offset, length int64) ByteRange {
	return ByteRange{Offset: offset, Length: length}
}

// String returns a human-readable representation of the range.
func (r ByteRange) String() string {
	return fmt.Sprintf("[%d:%d)", r.Offset, r.Offset+r.Length)
}

// End returns the exclusive end offset of the range.
func (r ByteRange) End() int64 {
	return r.Offset + r.Length
}

// IsEmpty returns true if the range has zero length.
func (r ByteRange) IsEmpty() bool {
	return r.Length == 0
}

// IsValid returns true if the range has a non-negative offset and length.
func (r ByteRange) IsValid() bool {
	return r.Offset >= 0 && r.Length >= 0
}

// Contains returns true if the given offset is within the range.
func (r ByteRange) Contains(offset int64) bool {
	return offset >= r.Offset && offset < r.End()
}

// ContainsRange returns true if the given range is entirely within this range.
// A zero-length range is contained if its offset lies inside [Offset, End].
func (r ByteRange) ContainsRange(other ByteRange) bool {
	return other.Offset >= r.Offset && other.End() <= r.End()
}

// Overlaps returns true if this range shares at least one byte with another.
func (r ByteRange) Overlaps(other ByteRange) bool {
	return r.Offset < other.End() && other.Offset < r.End()
}

// Touches returns true if the ranges overlap or are directly adjacent.
func (r ByteRange) Touches(other ByteRange) bool {
	return r.Offset <= other.End() && other.Offset <= r.End()
}

// Intersect returns the intersection of two ranges, or an empty range at the
// greater of the two offsets if they don't overlap.
func (r ByteRange) Intersect(other ByteRange) ByteRange {
	start := max(r.Offset, other.Offset)
	end := min(r.End(), other.End())
	if start >= end {
		return ByteRange{Offset: start}
	}
	return ByteRange{Offset: start, Length: end - start}
}

// Shift returns a new range moved by the given delta.
func (r ByteRange) Shift(delta int64) ByteRange {
	return ByteRange{Offset: r.Offset + delta, Length: r.Length}
}

// Compare orders ranges by offset, then by length.
func (r ByteRange) Compare(other ByteRange) int {
	switch {
	case r.Offset < other.Offset:
		return -1
	case r.Offset > other.Offset:
		return 1
	case r.Length < other.Length:
		return -1
	case r.Length > other.Length:
		return 1
	default:
		return 0
	}
}
