// Package dirty tracks which bytes of a document have been modified since
// the last save.
//
// Rather than a plain set of dirty ranges, every byte carries the sequence
// number of the last modification that touched it. A byte is dirty when its
// stamp is newer than the sequence at the last save. This survives undo and
// redo: replaying an old edit re-stamps the bytes with a fresh sequence
// number, so a byte edited, saved and then un-edited is correctly reported
// dirty again.
package dirty

import (
	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
)

// Tracker records per-byte modification stamps for one document. Not safe
// for concurrent use.
type Tracker struct {
	stamps   *rangemap.Map[uint64]
	current  uint64
	savedSeq uint64
}

// NewTracker creates a tracker for a document of the given length, with the
// whole document considered clean.
func NewTracker(length int64) *Tracker {
	t := &Tracker{stamps: rangemap.NewMap[uint64]()}
	if length > 0 {
		t.stamps.Set(0, length, 0)
	}
	return t
}

// MarkDirty stamps the given byte range with a fresh modification sequence
// number, which it returns.
func (t *Tracker) MarkDirty(offset, length int64) uint64 {
	t.current++
	if length > 0 {
		t.stamps.Set(offset, length, t.current)
	}
	return t.current
}

// DataInserted shifts the stamps for bytes inserted at the given offset and
// stamps the inserted range itself.
func (t *Tracker) DataInserted(offset, length int64) uint64 {
	t.current++
	if length > 0 {
		t.stamps.DataInserted(offset, length)
		t.stamps.Set(offset, length, t.current)
	}
	return t.current
}

// DataErased shifts the stamps back for bytes erased at the given offset.
// The erasure itself advances the document sequence, so the document as a
// whole reports dirty even though no surviving byte was restamped.
func (t *Tracker) DataErased(offset, length int64) uint64 {
	t.current++
	if length > 0 {
		t.stamps.DataErased(offset, length)
	}
	return t.current
}

// DataReplaced applies an erase followed by an insert at the same offset as
// one edit: the sequence advances exactly once and the inserted bytes carry
// its stamp.
func (t *Tracker) DataReplaced(offset, erased, inserted int64) uint64 {
	t.current++
	if erased > 0 {
		t.stamps.DataErased(offset, erased)
	}
	if inserted > 0 {
		t.stamps.DataInserted(offset, inserted)
		t.stamps.Set(offset, inserted, t.current)
	}
	return t.current
}

// IsByteDirty returns true if the byte at the given offset was modified
// after the last save.
func (t *Tracker) IsByteDirty(offset int64) bool {
	stamp, ok := t.stamps.Get(offset)
	if !ok {
		// No stamp recorded, treat it as touched by the latest change.
		stamp = t.current
	}
	return stamp > t.savedSeq
}

// IsDirty returns true if any change was made after the last save.
func (t *Tracker) IsDirty() bool {
	return t.current != t.savedSeq
}

// MarkSaved records the present state as saved. Every byte becomes clean.
func (t *Tracker) MarkSaved() {
	t.savedSeq = t.current
}

// Seq returns the current modification sequence number.
func (t *Tracker) Seq() uint64 {
	return t.current
}

// Reset discards all stamps and re-initialises the tracker for a document
// of the given length, considered clean.
func (t *Tracker) Reset(length int64) {
	t.stamps.ClearAll()
	if length > 0 {
		t.stamps.Set(0, length, 0)
	}
	t.current = 0
	t.savedSeq = 0
}
