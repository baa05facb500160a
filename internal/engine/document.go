package engine

import (
	"fmt"
	"strings"

	"github.com/bytedoc/bytedoc/internal/engine/buffer"
	"github.com/bytedoc/bytedoc/internal/engine/dirty"
	"github.com/bytedoc/bytedoc/internal/engine/history"
	"github.com/bytedoc/bytedoc/internal/engine/nestedmap"
	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
	"github.com/bytedoc/bytedoc/internal/engine/vmap"
	"github.com/bytedoc/bytedoc/internal/palette"
)

// Comment is an annotation attached to a byte range. A zero-length comment
// marks a single position.
type Comment struct {
	Offset int64
	Length int64
	Text   string
}

// Preview returns the first line of the comment trimmed to at most max
// runes, for single-line listings. Truncated text ends with an ellipsis.
func (c Comment) Preview(max int) string {
	text := c.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimRight(text, "\r")

	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// Highlight is a coloured byte range. Colour is a palette index.
type Highlight struct {
	Offset int64
	Length int64
	Colour int
}

// TypeSpan labels a byte range with a data type name. An empty name means
// untyped; the type map covers the whole document at all times.
type TypeSpan struct {
	Offset int64
	Length int64
	Type   string
}

// Mapping is one virtual address mapping run.
type Mapping = vmap.Mapping

// CursorState is the position restored alongside metadata on undo.
type CursorState struct {
	Offset int64
}

// docState is the metadata snapshot a transaction captures when it opens.
type docState struct {
	comments   *nestedmap.Map[string]
	highlights *nestedmap.Map[int]
	types      *rangemap.Map[string]
	vmaps      *vmap.Map
	cursor     CursorState
}

// Document is the core model of an open binary file: its bytes, the
// annotations attached to them, virtual address mappings, dirty state and
// the transaction log that makes every change undoable. Not safe for
// concurrent use.
type Document struct {
	buf buffer.Buffer

	comments   *nestedmap.Map[string]
	highlights *nestedmap.Map[int]
	types      *rangemap.Map[string]
	vmaps      *vmap.Map

	tracker   *dirty.Tracker
	metaDirty bool

	stack *history.Stack[docState]
	open  *history.Transaction[docState]
	depth int

	cursor  CursorState
	events  []Event
	changed *rangemap.Set

	maxUndoEntries int
}

// New creates a Document over the given buffer.
func New(buf buffer.Buffer, opts ...Option) *Document {
	d := &Document{
		buf:            buf,
		comments:       nestedmap.NewMap[string](),
		highlights:     nestedmap.NewMap[int](),
		types:          rangemap.NewMap[string](),
		vmaps:          vmap.NewMap(),
		changed:        rangemap.NewSet(),
		maxUndoEntries: history.DefaultMaxEntries,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.tracker = dirty.NewTracker(buf.Length())
	d.stack = history.NewStack[docState](d.maxUndoEntries)
	if buf.Length() > 0 {
		d.types.Set(0, buf.Length(), "")
	}

	return d
}

// ============================================================================
// Read Operations
// ============================================================================

// Read copies length bytes starting at offset.
func (d *Document) Read(offset, length int64) ([]byte, error) {
	return d.buf.Read(offset, length)
}

// Length returns the current data size in bytes.
func (d *Document) Length() int64 {
	return d.buf.Length()
}

// ============================================================================
// Data Operations
// ============================================================================

// OverwriteData replaces len(data) bytes at offset in place. If cur is
// non-nil the cursor moves there once the write succeeds. A zero-length
// edit is a no-op: nothing is recorded and the document stays clean.
func (d *Document) OverwriteData(offset int64, data []byte, cur *CursorState) error {
	if len(data) == 0 {
		return nil
	}
	tx, fresh := d.ensureTx("overwrite data")

	old, err := d.buf.Read(offset, int64(len(data)))
	if err != nil {
		d.abortIfFresh(fresh)
		return err
	}
	if err := d.buf.Overwrite(offset, data); err != nil {
		d.abortIfFresh(fresh)
		return err
	}

	d.tracker.MarkDirty(offset, int64(len(data)))
	tx.Record(history.Op{Kind: history.OpOverwrite, Offset: offset, Length: int64(len(old)), Bytes: old})
	d.noteDataChanged(offset, int64(len(data)))
	d.applyCursor(cur)
	d.commitIfFresh(fresh)
	return nil
}

// InsertData inserts data at offset, shifting everything behind it: bytes,
// comments, highlights, types, mappings and dirty stamps alike.
func (d *Document) InsertData(offset int64, data []byte, cur *CursorState) error {
	if len(data) == 0 {
		return nil
	}
	tx, fresh := d.ensureTx("insert data")

	if err := d.buf.Insert(offset, data); err != nil {
		d.abortIfFresh(fresh)
		return err
	}

	n := int64(len(data))
	d.tracker.DataInserted(offset, n)
	d.shiftMetaInserted(offset, n)
	tx.Record(history.Op{Kind: history.OpErase, Offset: offset, Length: n})
	d.noteDataChanged(offset, d.buf.Length()-offset)
	d.applyCursor(cur)
	d.commitIfFresh(fresh)
	return nil
}

// EraseData removes length bytes at offset. Annotations wholly inside the
// erased range disappear; the rest shift or shrink to fit.
func (d *Document) EraseData(offset, length int64, cur *CursorState) error {
	if length == 0 {
		return nil
	}
	tx, fresh := d.ensureTx("erase data")

	old, err := d.buf.Read(offset, length)
	if err != nil {
		d.abortIfFresh(fresh)
		return err
	}
	if err := d.buf.Erase(offset, length); err != nil {
		d.abortIfFresh(fresh)
		return err
	}

	d.tracker.DataErased(offset, length)
	d.shiftMetaErased(offset, length)
	tx.Record(history.Op{Kind: history.OpInsert, Offset: offset, Bytes: old})
	d.noteDataChanged(offset, d.buf.Length()-offset)
	d.applyCursor(cur)
	d.commitIfFresh(fresh)
	return nil
}

// ReplaceData removes length bytes at offset and inserts data in their
// place, as a single undoable step.
func (d *Document) ReplaceData(offset, length int64, data []byte, cur *CursorState) error {
	if length == 0 && len(data) == 0 {
		return nil
	}
	tx, fresh := d.ensureTx("replace data")

	old, err := d.buf.Read(offset, length)
	if err != nil {
		d.abortIfFresh(fresh)
		return err
	}
	if err := d.buf.Erase(offset, length); err != nil {
		d.abortIfFresh(fresh)
		return err
	}
	// Cannot fail: offset is within the shrunk buffer.
	if err := d.buf.Insert(offset, data); err != nil {
		d.abortIfFresh(fresh)
		return err
	}

	n := int64(len(data))
	d.tracker.DataReplaced(offset, length, n)
	d.shiftMetaErased(offset, length)
	if n > 0 {
		d.shiftMetaInserted(offset, n)
	}
	tx.Record(history.Op{Kind: history.OpReplace, Offset: offset, Length: n, Bytes: old})
	d.noteDataChanged(offset, d.buf.Length()-offset)
	d.applyCursor(cur)
	d.commitIfFresh(fresh)
	return nil
}

// ============================================================================
// Comments
// ============================================================================

// SetComment attaches a comment to the given range, replacing any comment
// already keyed by it. Comments nest; a range partially overlapping an
// existing comment is rejected.
func (d *Document) SetComment(offset, length int64, text string) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}

	_, fresh := d.ensureTx("set comment")
	if !d.comments.Set(offset, length, text) {
		d.abortIfFresh(fresh)
		return fmt.Errorf("comment [%d, %d): %w", offset, offset+length, ErrPartialOverlap)
	}
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventCommentsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// EraseComment removes the comment keyed by exactly (offset, length).
// Comments nested beneath it survive.
func (d *Document) EraseComment(offset, length int64) error {
	_, fresh := d.ensureTx("erase comment")
	if !d.comments.Erase(offset, length) {
		d.abortIfFresh(fresh)
		return fmt.Errorf("comment [%d, %d): %w", offset, offset+length, ErrNotFound)
	}
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventCommentsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// Comment returns the comment keyed by exactly (offset, length).
func (d *Document) Comment(offset, length int64) (string, bool) {
	return d.comments.Get(offset, length)
}

// Comments returns every comment, offset ascending with containing ranges
// before their contents.
func (d *Document) Comments() []Comment {
	entries := d.comments.Entries()
	out := make([]Comment, len(entries))
	for i, e := range entries {
		out[i] = Comment{Offset: e.Range.Offset, Length: e.Range.Length, Text: e.Value}
	}
	return out
}

// CommentsAt returns the comments covering a position, innermost first. A
// zero-length comment exactly at the position counts as innermost.
func (d *Document) CommentsAt(offset int64) []Comment {
	entries := d.comments.AllAt(offset)
	out := make([]Comment, len(entries))
	for i, e := range entries {
		out[i] = Comment{Offset: e.Range.Offset, Length: e.Range.Length, Text: e.Value}
	}
	return out
}

// ============================================================================
// Highlights
// ============================================================================

// SetHighlight colours the given range with a palette index. Highlights
// nest the way comments do: one range may strictly contain another, but a
// partial overlap is rejected with ErrPartialOverlap. Setting an existing
// range replaces its colour.
func (d *Document) SetHighlight(offset, length int64, colour int) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}
	if !palette.Valid(colour) {
		return fmt.Errorf("colour %d: %w", colour, ErrInvalidColour)
	}

	_, fresh := d.ensureTx("set highlight")
	if !d.highlights.Set(offset, length, colour) {
		d.abortIfFresh(fresh)
		return fmt.Errorf("highlight [%d, %d): %w", offset, offset+length, ErrPartialOverlap)
	}
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventHighlightsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// EraseHighlight removes the highlight with exactly the given range.
func (d *Document) EraseHighlight(offset, length int64) error {
	_, fresh := d.ensureTx("erase highlight")
	if !d.highlights.Erase(offset, length) {
		d.abortIfFresh(fresh)
		return fmt.Errorf("highlight [%d, %d): %w", offset, offset+length, ErrNotFound)
	}
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventHighlightsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// HighlightAt returns the innermost highlight colour at a position.
func (d *Document) HighlightAt(offset int64) (int, bool) {
	e, ok := d.highlights.Innermost(offset)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

// Highlights returns every highlight run in offset order.
func (d *Document) Highlights() []Highlight {
	entries := d.highlights.Entries()
	out := make([]Highlight, len(entries))
	for i, e := range entries {
		out[i] = Highlight{Offset: e.Range.Offset, Length: e.Range.Length, Colour: e.Value}
	}
	return out
}

// ============================================================================
// Data Types
// ============================================================================

// SetDataType labels the given range with a type name. An empty name
// resets the range to untyped.
func (d *Document) SetDataType(offset, length int64, typeName string) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}

	_, fresh := d.ensureTx("set data type")
	d.types.Set(offset, length, typeName)
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventTypesChanged)
	d.commitIfFresh(fresh)
	return nil
}

// TypeAt returns the type name at a position, empty for untyped bytes.
func (d *Document) TypeAt(offset int64) (string, bool) {
	return d.types.Get(offset)
}

// Types returns the full type coverage in offset order, untyped spans
// included.
func (d *Document) Types() []TypeSpan {
	entries := d.types.Entries()
	out := make([]TypeSpan, len(entries))
	for i, e := range entries {
		out[i] = TypeSpan{Offset: e.Range.Offset, Length: e.Range.Length, Type: e.Value}
	}
	return out
}

// ============================================================================
// Virtual Mappings
// ============================================================================

// SetVirtMapping maps length bytes at the given real offset to a virtual
// address. The run must be free on both sides.
func (d *Document) SetVirtMapping(real, virtual, length int64) error {
	if err := d.checkRange(real, length); err != nil {
		return err
	}

	_, fresh := d.ensureTx("set virtual mapping")
	if !d.vmaps.Set(real, virtual, length) {
		d.abortIfFresh(fresh)
		return fmt.Errorf("mapping %d -> %d (+%d): %w", real, virtual, length, ErrMappingConflict)
	}
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventMappingsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// ClearVirtMappingsReal removes virtual mappings within a real byte range.
func (d *Document) ClearVirtMappingsReal(offset, length int64) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("range [%d, %d): %w", offset, offset+length, ErrRangeInvalid)
	}

	_, fresh := d.ensureTx("clear virtual mappings")
	d.vmaps.ClearReal(offset, length)
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventMappingsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// ClearVirtMappingsVirtual removes virtual mappings within a virtual
// address range.
func (d *Document) ClearVirtMappingsVirtual(virtual, length int64) error {
	if virtual < 0 || length < 0 {
		return fmt.Errorf("range [%d, %d): %w", virtual, virtual+length, ErrRangeInvalid)
	}

	_, fresh := d.ensureTx("clear virtual mappings")
	d.vmaps.ClearVirtual(virtual, length)
	d.noteMetaChanged(history.Op{Kind: history.OpMetadata}, EventMappingsChanged)
	d.commitIfFresh(fresh)
	return nil
}

// RealToVirtual resolves a real offset to its virtual address. An offset
// outside every mapping returns (real, false): callers wanting the identity
// convention use the returned offset unchanged, callers wanting the
// original's not-mapped sentinel test ok.
func (d *Document) RealToVirtual(real int64) (int64, bool) {
	if v, ok := d.vmaps.RealToVirtual(real); ok {
		return v, true
	}
	return real, false
}

// VirtualToReal resolves a virtual address to its real offset, with the
// same (virtual, false) convention for unmapped addresses as RealToVirtual.
func (d *Document) VirtualToReal(virtual int64) (int64, bool) {
	if r, ok := d.vmaps.VirtualToReal(virtual); ok {
		return r, true
	}
	return virtual, false
}

// Mappings returns every virtual mapping run ordered by real offset.
func (d *Document) Mappings() []Mapping {
	return d.vmaps.Mappings()
}

// ============================================================================
// Cursor
// ============================================================================

// Cursor returns the current cursor state.
func (d *Document) Cursor() CursorState {
	return d.cursor
}

// SetCursor moves the cursor. The move itself is not undoable, but edits
// record the cursor in their transaction and undo restores it.
func (d *Document) SetCursor(cur CursorState) {
	d.cursor = cur
}

// ============================================================================
// Dirty State
// ============================================================================

// IsDirty returns true if the document differs from its last saved state,
// in data or metadata.
func (d *Document) IsDirty() bool {
	return d.tracker.IsDirty() || d.metaDirty
}

// IsByteDirty returns true if the byte at offset was modified after the
// last save.
func (d *Document) IsByteDirty(offset int64) bool {
	return d.tracker.IsByteDirty(offset)
}

// MarkSaved records the present state, data and metadata, as saved.
func (d *Document) MarkSaved() {
	d.tracker.MarkSaved()
	d.metaDirty = false
}

// Seq returns the current modification sequence number.
func (d *Document) Seq() uint64 {
	return d.tracker.Seq()
}

// ============================================================================
// Events
// ============================================================================

// DrainEvents returns the queued change notifications and clears the queue.
func (d *Document) DrainEvents() []Event {
	out := d.events
	d.events = nil
	return out
}

// TakeChangedRanges returns the accumulated changed data ranges and resets
// the accumulator. Adjacent and overlapping ranges come back merged.
func (d *Document) TakeChangedRanges() []rangemap.ByteRange {
	out := d.changed.Ranges()
	d.changed.ClearAll()
	return out
}

// ============================================================================
// Internals
// ============================================================================

func (d *Document) checkRange(offset, length int64) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("range [%d, %d): %w", offset, offset+length, ErrRangeInvalid)
	}
	if offset+length > d.buf.Length() {
		return fmt.Errorf("range [%d, %d) in %d byte document: %w", offset, offset+length, d.buf.Length(), ErrOffsetOutOfRange)
	}
	return nil
}

func (d *Document) shiftMetaInserted(offset, n int64) {
	if d.comments.DataInserted(offset, n) > 0 {
		d.pushEvent(EventCommentsChanged, 0, 0)
	}
	if d.highlights.DataInserted(offset, n) > 0 {
		d.pushEvent(EventHighlightsChanged, 0, 0)
	}
	d.types.DataInserted(offset, n)
	d.types.Set(offset, n, "")
	d.pushEvent(EventTypesChanged, offset, n)
	if d.vmaps.DataInserted(offset, n) {
		d.pushEvent(EventMappingsChanged, 0, 0)
	}
}

func (d *Document) shiftMetaErased(offset, length int64) {
	if d.comments.DataErased(offset, length) > 0 {
		d.pushEvent(EventCommentsChanged, 0, 0)
	}
	if d.highlights.DataErased(offset, length) > 0 {
		d.pushEvent(EventHighlightsChanged, 0, 0)
	}
	d.types.DataErased(offset, length)
	d.pushEvent(EventTypesChanged, offset, 0)
	if d.vmaps.DataErased(offset, length) {
		d.pushEvent(EventMappingsChanged, 0, 0)
	}
}

func (d *Document) noteDataChanged(offset, length int64) {
	if length > 0 {
		d.changed.Set(offset, length)
	}
	d.pushEvent(EventDataChanged, offset, length)
}

// noteMetaChanged records a metadata edit in the open transaction and
// queues its event.
func (d *Document) noteMetaChanged(op history.Op, kind EventKind) {
	d.metaDirty = true
	if d.open != nil {
		d.open.Record(op)
	}
	d.pushEvent(kind, 0, 0)
}

func (d *Document) pushEvent(kind EventKind, offset, length int64) {
	d.events = append(d.events, Event{Kind: kind, Offset: offset, Length: length})
}

func (d *Document) applyCursor(cur *CursorState) {
	if cur != nil {
		d.cursor = *cur
	}
}
