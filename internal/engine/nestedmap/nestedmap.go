package nestedmap

import (
	"sort"

	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
)

// Entry is a single range-to-value association stored in a Map.
type Entry[T comparable] struct {
	Range rangemap.ByteRange
	Value T
}

// node is a tree node. Children are fully contained within their parent and
// kept sorted by offset; offsets are unique among siblings.
type node[T comparable] struct {
	key      rangemap.ByteRange
	value    T
	parent   *node[T]
	children []*node[T]
}

// Map is an ordered collection of byte ranges with values, where one range
// may strictly contain another but partial overlap is rejected.
//
// Entries are implicitly arranged into a tree: an entry whose range is fully
// encompassed by another is stored beneath it. Flattened iteration is
// outside-in: offset ascending, with a containing range immediately before
// the ranges it contains (equivalently offset ascending, then length
// descending). Zero-length entries are point annotations: they are contained
// by any range whose half-open extent includes the point and never contain
// anything themselves.
type Map[T comparable] struct {
	roots []*node[T]
	size  int
}

// NewMap creates an empty nested range map.
func NewMap[T comparable]() *Map[T] {
	return &Map[T]{}
}

// Len returns the number of stored entries.
func (m *Map[T]) Len() int {
	return m.size
}

// IsEmpty returns true if the map holds no entries.
func (m *Map[T]) IsEmpty() bool {
	return m.size == 0
}

// CanSet returns true if an entry with the given range could be inserted
// without partially overlapping an existing entry.
func (m *Map[T]) CanSet(offset, length int64) bool {
	if offset < 0 || length < 0 {
		return false
	}
	end := offset + length
	nodes := m.roots

	for {
		i := upperBound(nodes, offset)

		// Would we straddle the start of a following node?
		for j := i; j < len(nodes) && end > nodes[j].key.Offset; j++ {
			if end < nodes[j].key.End() {
				return false
			}
		}

		if i > 0 {
			prev := nodes[i-1]
			pOff, pEnd := prev.key.Offset, prev.key.End()

			if pEnd > offset && pEnd >= end {
				// Contained (or an exact match), check within.
				nodes = prev.children
				continue
			}
			if pOff < offset && pEnd > offset && pEnd < end {
				// Straddles the end of prev.
				return false
			}
		}

		return true
	}
}

// Set inserts or replaces the entry with the given range. It returns false,
// making no change, if the range would partially overlap an existing entry.
func (m *Map[T]) Set(offset, length int64, value T) bool {
	if offset < 0 || length < 0 {
		return false
	}
	end := offset + length

	var parent *node[T]
	container := &m.roots

	for {
		nodes := *container
		i := upperBound(nodes, offset)

		for j := i; j < len(nodes) && end > nodes[j].key.Offset; j++ {
			if end < nodes[j].key.End() {
				return false
			}
		}

		adoptFrom := i
		if i > 0 {
			prev := nodes[i-1]
			pOff, pEnd := prev.key.Offset, prev.key.End()

			if prev.key == rangemap.NewRange(offset, length) {
				prev.value = value
				return true
			}
			if pEnd > offset && pEnd >= end {
				parent = prev
				container = &prev.children
				continue
			}
			if pOff < offset && pEnd > offset && pEnd < end {
				return false
			}
			if pOff == offset {
				// prev shares our offset with a shorter length, adopt it.
				adoptFrom = i - 1
			}
		}

		adoptTo := i
		for adoptTo < len(nodes) && nodes[adoptTo].key.Offset < end {
			adoptTo++
		}

		n := &node[T]{key: rangemap.NewRange(offset, length), value: value, parent: parent}
		n.children = append(n.children, nodes[adoptFrom:adoptTo]...)
		for _, c := range n.children {
			c.parent = n
		}

		rest := append([]*node[T]{n}, nodes[adoptTo:]...)
		*container = append(nodes[:adoptFrom], rest...)
		m.size++
		return true
	}
}

// Get returns the value stored under the exact (offset, length) key.
func (m *Map[T]) Get(offset, length int64) (T, bool) {
	if n := m.findNode(offset, length); n != nil {
		return n.value, true
	}
	var zero T
	return zero, false
}

// Has returns true if an entry with the exact (offset, length) key exists.
func (m *Map[T]) Has(offset, length int64) bool {
	return m.findNode(offset, length) != nil
}

// Erase removes the entry with the exact (offset, length) key, promoting any
// entries nested beneath it. It returns false if no such entry exists; a
// request covering only part of an entry is not honoured at this layer.
func (m *Map[T]) Erase(offset, length int64) bool {
	n := m.findNode(offset, length)
	if n == nil {
		return false
	}

	container := m.containerOf(n)
	i := indexOf(*container, n)

	for _, c := range n.children {
		c.parent = n.parent
	}
	promoted := append([]*node[T]{}, n.children...)
	rest := append(promoted, (*container)[i+1:]...)
	*container = append((*container)[:i], rest...)

	m.size--
	return true
}

// EraseRecursive removes the entry with the exact (offset, length) key along
// with every entry nested beneath it, returning the number of entries
// removed.
func (m *Map[T]) EraseRecursive(offset, length int64) int {
	n := m.findNode(offset, length)
	if n == nil {
		return 0
	}

	container := m.containerOf(n)
	i := indexOf(*container, n)
	*container = append((*container)[:i], (*container)[i+1:]...)

	removed := subtreeSize(n)
	m.size -= removed
	return removed
}

// Innermost returns the most specific entry whose range covers the given
// point. Zero-length entries are never matched.
func (m *Map[T]) Innermost(offset int64) (Entry[T], bool) {
	if n := m.innermostNode(offset); n != nil {
		return Entry[T]{Range: n.key, Value: n.value}, true
	}
	return Entry[T]{}, false
}

// AllAt returns every entry applying to the given point, from most specific
// to least. Unlike Innermost, a zero-length entry sitting exactly at the
// point is included (first).
func (m *Map[T]) AllAt(offset int64) []Entry[T] {
	n := m.innermostNode(offset)

	// A point at the offset always nests directly under the innermost
	// covering range (or at the root when nothing covers it). Sibling
	// offsets are unique, so upperBound lands just past the only
	// candidate.
	siblings := m.roots
	if n != nil {
		siblings = n.children
	}

	var out []Entry[T]
	if i := upperBound(siblings, offset); i > 0 {
		if c := siblings[i-1]; c.key.Offset == offset && c.key.Length == 0 {
			out = append(out, Entry[T]{Range: c.key, Value: c.value})
		}
	}
	for ; n != nil; n = n.parent {
		out = append(out, Entry[T]{Range: n.key, Value: n.value})
	}
	return out
}

// Entries returns every entry in outside-in order: offset ascending, with a
// containing range immediately before its contents.
func (m *Map[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, m.size)
	var walk func(ns []*node[T])
	walk = func(ns []*node[T]) {
		for _, n := range ns {
			out = append(out, Entry[T]{Range: n.key, Value: n.value})
			walk(n.children)
		}
	}
	walk(m.roots)
	return out
}

// EntriesInsideOut returns every entry in inside-out order: contained ranges
// before their containers.
func (m *Map[T]) EntriesInsideOut() []Entry[T] {
	out := make([]Entry[T], 0, m.size)
	var walk func(ns []*node[T])
	walk = func(ns []*node[T]) {
		for _, n := range ns {
			walk(n.children)
			out = append(out, Entry[T]{Range: n.key, Value: n.value})
		}
	}
	walk(m.roots)
	return out
}

// Clone returns a deep copy of the map.
func (m *Map[T]) Clone() *Map[T] {
	c := &Map[T]{size: m.size}
	var copyNodes func(ns []*node[T], parent *node[T]) []*node[T]
	copyNodes = func(ns []*node[T], parent *node[T]) []*node[T] {
		if len(ns) == 0 {
			return nil
		}
		out := make([]*node[T], len(ns))
		for i, n := range ns {
			nc := &node[T]{key: n.key, value: n.value, parent: parent}
			nc.children = copyNodes(n.children, nc)
			out[i] = nc
		}
		return out
	}
	c.roots = copyNodes(m.roots, nil)
	return c
}

// Equal reports whether two maps hold identical entries.
func (m *Map[T]) Equal(other *Map[T]) bool {
	if m.size != other.size {
		return false
	}
	a, b := m.Entries(), other.Entries()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DataInserted adjusts the keys for bytes inserted into the underlying
// sequence at the given offset. Keys at or after the insertion point move
// along; keys spanning it grow. Returns the number of keys modified.
func (m *Map[T]) DataInserted(offset, length int64) int {
	if length <= 0 {
		return 0
	}
	modified := 0
	var walk func(ns []*node[T])
	walk = func(ns []*node[T]) {
		for _, n := range ns {
			switch {
			case n.key.Offset >= offset:
				n.key.Offset += length
				modified++
			case n.key.End() > offset:
				n.key.Length += length
				modified++
			}
			walk(n.children)
		}
	}
	walk(m.roots)
	return modified
}

// DataErased adjusts the keys for bytes erased from the underlying sequence.
// Keys wholly inside the erased window are removed along with their nested
// entries (a zero-length point sitting exactly at the window end survives);
// other keys are shifted and truncated as the window demands. Returns the
// number of keys modified or removed.
func (m *Map[T]) DataErased(offset, length int64) int {
	if length <= 0 {
		return 0
	}
	end := offset + length
	modified := 0

	keep := make([]Entry[T], 0, m.size)
	var walk func(ns []*node[T])
	walk = func(ns []*node[T]) {
		for _, n := range ns {
			iOff, iLen := n.key.Offset, n.key.Length
			iEnd := iOff + iLen

			if offset <= iOff && (end > iEnd || (iEnd > iOff && end == iEnd)) {
				// Wholly encompassed by the erased window.
				modified += subtreeSize(n)
				continue
			}

			if offset >= iOff && offset < iEnd {
				iLen -= min(length, iLen-(offset-iOff))
			} else if end > iOff && end < iEnd {
				iLen -= end - iOff
			}
			if iOff > offset {
				iOff -= min(length, iOff-offset)
			}

			if iOff != n.key.Offset || iLen != n.key.Length {
				modified++
			}
			keep = append(keep, Entry[T]{Range: rangemap.NewRange(iOff, iLen), Value: n.value})
			walk(n.children)
		}
	}
	walk(m.roots)

	// Shifting can re-parent entries (a point pushed onto the start of a
	// surviving range, pieces meeting across the cut), so rebuild the tree
	// from the adjusted keys.
	m.roots = nil
	m.size = 0
	sort.Slice(keep, func(a, b int) bool {
		if keep[a].Range.Offset != keep[b].Range.Offset {
			return keep[a].Range.Offset < keep[b].Range.Offset
		}
		return keep[a].Range.Length > keep[b].Range.Length
	})
	for _, e := range keep {
		m.Set(e.Range.Offset, e.Range.Length, e.Value)
	}

	return modified
}

// upperBound returns the index of the first node whose offset is greater
// than the given offset.
func upperBound[T comparable](ns []*node[T], offset int64) int {
	return sort.Search(len(ns), func(i int) bool { return ns[i].key.Offset > offset })
}

func indexOf[T comparable](ns []*node[T], n *node[T]) int {
	for i, c := range ns {
		if c == n {
			return i
		}
	}
	return -1
}

func subtreeSize[T comparable](n *node[T]) int {
	total := 1
	for _, c := range n.children {
		total += subtreeSize(c)
	}
	return total
}

func (m *Map[T]) containerOf(n *node[T]) *[]*node[T] {
	if n.parent != nil {
		return &n.parent.children
	}
	return &m.roots
}

func (m *Map[T]) findNode(offset, length int64) *node[T] {
	end := offset + length
	nodes := m.roots

	for {
		i := upperBound(nodes, offset)
		if i == 0 {
			return nil
		}
		prev := nodes[i-1]
		if prev.key == rangemap.NewRange(offset, length) {
			return prev
		}
		if pEnd := prev.key.End(); pEnd > offset && pEnd >= end {
			nodes = prev.children
			continue
		}
		return nil
	}
}

func (m *Map[T]) innermostNode(offset int64) *node[T] {
	var best *node[T]
	nodes := m.roots

	for {
		i := upperBound(nodes, offset)
		if i == 0 {
			return best
		}
		prev := nodes[i-1]
		if prev.key.Offset <= offset && prev.key.End() > offset {
			best = prev
			nodes = prev.children
			continue
		}
		return best
	}
}
