package meta

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bytedoc/bytedoc/internal/engine/nestedmap"
	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
	"github.com/bytedoc/bytedoc/internal/engine/vmap"
	"github.com/bytedoc/bytedoc/internal/palette"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid metadata")

// Comment is one serialised comment.
type Comment struct {
	Offset int64
	Length int64
	Text   string
}

// Highlight is one serialised highlight run.
type Highlight struct {
	Offset int64
	Length int64
	Colour int
}

// TypeSpan is one serialised data type run. Untyped spans are never
// serialised.
type TypeSpan struct {
	Offset int64
	Length int64
	Type   string
}

// Mapping is one serialised virtual address mapping.
type Mapping struct {
	RealOffset int64
	VirtOffset int64
	Length     int64
}

// Record is the complete metadata of one document, as stored in its
// side-car file.
type Record struct {
	Comments   []Comment
	Highlights []Highlight
	Types      []TypeSpan
	Mappings   []Mapping
}

// IsEmpty returns true if the record holds nothing worth persisting.
func (r *Record) IsEmpty() bool {
	return len(r.Comments) == 0 && len(r.Highlights) == 0 && len(r.Types) == 0 && len(r.Mappings) == 0
}

// Validate checks the record against a document of dataLen bytes: every
// range in bounds, comments and highlights nesting without partial overlap
// or duplicate keys, colours naming palette slots, type spans named and
// disjoint, and mappings free of conflicts on both sides.
func (r *Record) Validate(dataLen int64) error {
	for _, c := range r.Comments {
		if err := checkRange(c.Offset, c.Length, dataLen); err != nil {
			return fmt.Errorf("comment [%d, %d): %w", c.Offset, c.Offset+c.Length, err)
		}
	}

	// Comments must form a containment hierarchy. Feeding them to a
	// nested map outermost first surfaces any partial overlap.
	sorted := append([]Comment{}, r.Comments...)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Offset != sorted[b].Offset {
			return sorted[a].Offset < sorted[b].Offset
		}
		return sorted[a].Length > sorted[b].Length
	})
	tree := nestedmap.NewMap[string]()
	for _, c := range sorted {
		if tree.Has(c.Offset, c.Length) {
			return fmt.Errorf("duplicate comment [%d, %d): %w", c.Offset, c.Offset+c.Length, ErrInvalid)
		}
		if !tree.Set(c.Offset, c.Length, c.Text) {
			return fmt.Errorf("comment [%d, %d) partially overlaps another: %w", c.Offset, c.Offset+c.Length, ErrInvalid)
		}
	}

	// Highlights nest like comments and get the same containment check.
	hsorted := append([]Highlight{}, r.Highlights...)
	sort.Slice(hsorted, func(a, b int) bool {
		if hsorted[a].Offset != hsorted[b].Offset {
			return hsorted[a].Offset < hsorted[b].Offset
		}
		return hsorted[a].Length > hsorted[b].Length
	})
	htree := nestedmap.NewMap[int]()
	for _, h := range hsorted {
		if err := checkRange(h.Offset, h.Length, dataLen); err != nil {
			return fmt.Errorf("highlight [%d, %d): %w", h.Offset, h.Offset+h.Length, err)
		}
		if !palette.Valid(h.Colour) {
			return fmt.Errorf("highlight colour %d: %w", h.Colour, ErrInvalid)
		}
		if htree.Has(h.Offset, h.Length) {
			return fmt.Errorf("duplicate highlight [%d, %d): %w", h.Offset, h.Offset+h.Length, ErrInvalid)
		}
		if !htree.Set(h.Offset, h.Length, h.Colour) {
			return fmt.Errorf("highlight [%d, %d) partially overlaps another: %w", h.Offset, h.Offset+h.Length, ErrInvalid)
		}
	}

	// Type spans must be disjoint; overlapping spans would silently
	// last-writer-win when loaded into the document's type map.
	covered := rangemap.NewSet()
	for _, ts := range r.Types {
		if err := checkRange(ts.Offset, ts.Length, dataLen); err != nil {
			return fmt.Errorf("data type [%d, %d): %w", ts.Offset, ts.Offset+ts.Length, err)
		}
		if ts.Type == "" {
			return fmt.Errorf("data type [%d, %d) has no name: %w", ts.Offset, ts.Offset+ts.Length, ErrInvalid)
		}
		if covered.OverlapsRange(ts.Offset, ts.Length) {
			return fmt.Errorf("data type [%d, %d) overlaps another: %w", ts.Offset, ts.Offset+ts.Length, ErrInvalid)
		}
		covered.Set(ts.Offset, ts.Length)
	}

	vm := vmap.NewMap()
	for _, m := range r.Mappings {
		if m.Length <= 0 || m.VirtOffset < 0 {
			return fmt.Errorf("mapping %d -> %d (+%d): %w", m.RealOffset, m.VirtOffset, m.Length, ErrInvalid)
		}
		if err := checkRange(m.RealOffset, m.Length, dataLen); err != nil {
			return fmt.Errorf("mapping at %d: %w", m.RealOffset, err)
		}
		if !vm.Set(m.RealOffset, m.VirtOffset, m.Length) {
			return fmt.Errorf("mapping %d -> %d (+%d) conflicts with another: %w", m.RealOffset, m.VirtOffset, m.Length, ErrInvalid)
		}
	}

	return nil
}

func checkRange(offset, length, dataLen int64) error {
	if offset < 0 || length < 0 || offset+length > dataLen {
		return fmt.Errorf("out of bounds for %d byte document: %w", dataLen, ErrInvalid)
	}
	return nil
}
