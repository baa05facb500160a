package engine

import (
	"github.com/bytedoc/bytedoc/internal/engine/history"
)

// ============================================================================
// Transactions
// ============================================================================

// TransactBegin opens a transaction. Every edit until the matching
// TransactCommit becomes a single undo step. Nested calls join the
// outermost transaction.
func (d *Document) TransactBegin(desc string) {
	if d.open == nil {
		d.open = history.NewTransaction(desc, d.snapshot())
	}
	d.depth++
}

// TransactCommit closes the innermost TransactBegin. When the outermost
// level commits, the transaction lands on the undo stack; a transaction
// that recorded no changes is discarded.
func (d *Document) TransactCommit() error {
	if d.open == nil {
		return ErrNoTransaction
	}
	d.depth--
	if d.depth > 0 {
		return nil
	}

	tx := d.open
	d.open = nil
	if len(tx.Ops) > 0 {
		d.stack.Push(tx)
	}
	return nil
}

// TransactRollback aborts the whole open transaction, however deeply
// nested the call, and restores the document to its state at the outermost
// TransactBegin. Nothing reaches the undo stack.
func (d *Document) TransactRollback() error {
	if d.open == nil {
		return ErrNoTransaction
	}
	tx := d.open
	d.open = nil
	d.depth = 0

	return d.revert(tx, nil)
}

// InTransaction returns true while a transaction is open.
func (d *Document) InTransaction() bool {
	return d.open != nil
}

// ensureTx returns the open transaction, opening a single-edit one if none
// is. The second return is true if the transaction was opened here and must
// be committed (or aborted) by the caller.
func (d *Document) ensureTx(desc string) (*history.Transaction[docState], bool) {
	if d.open != nil {
		return d.open, false
	}
	d.open = history.NewTransaction(desc, d.snapshot())
	d.depth = 1
	return d.open, true
}

func (d *Document) commitIfFresh(fresh bool) {
	if fresh {
		// Cannot fail: the transaction is known open.
		_ = d.TransactCommit()
	}
}

// abortIfFresh discards a single-edit transaction whose edit failed before
// changing anything.
func (d *Document) abortIfFresh(fresh bool) {
	if fresh {
		d.open = nil
		d.depth = 0
	}
}

// ============================================================================
// Undo / Redo
// ============================================================================

// Undo reverts the most recent undo step and moves it to the redo stack.
func (d *Document) Undo() error {
	if d.open != nil {
		return ErrTransactionOpen
	}
	tx, err := d.stack.PopUndo()
	if err != nil {
		return err
	}

	redo := history.NewTransaction(tx.Desc, d.snapshot())
	if err := d.revert(tx, redo); err != nil {
		return err
	}
	d.stack.PushRedo(redo)
	return nil
}

// Redo re-applies the most recent undone step.
func (d *Document) Redo() error {
	if d.open != nil {
		return ErrTransactionOpen
	}
	tx, err := d.stack.PopRedo()
	if err != nil {
		return err
	}

	undo := history.NewTransaction(tx.Desc, d.snapshot())
	if err := d.revert(tx, undo); err != nil {
		return err
	}
	d.stack.PushUndo(undo)
	return nil
}

// CanUndo returns true if undo is available.
func (d *Document) CanUndo() bool {
	return d.stack.CanUndo()
}

// CanRedo returns true if redo is available.
func (d *Document) CanRedo() bool {
	return d.stack.CanRedo()
}

// UndoInfo describes every undo step, oldest first.
func (d *Document) UndoInfo() []history.EntryInfo {
	return d.stack.UndoInfo()
}

// RedoInfo describes every redo step, oldest first.
func (d *Document) RedoInfo() []history.EntryInfo {
	return d.stack.RedoInfo()
}

// ClearHistory removes all undo and redo state.
func (d *Document) ClearHistory() {
	d.stack.Clear()
}

// revert restores a transaction's snapshot and plays its ops back newest
// first. When counterpart is non-nil, each op's inverse is recorded there.
// The snapshot goes first: ops only touch data and dirty state, so the
// metadata restored from the snapshot is already consistent with the data
// the ops rebuild.
func (d *Document) revert(tx *history.Transaction[docState], counterpart *history.Transaction[docState]) error {
	d.restoreSnapshot(tx.Snapshot)
	for i := len(tx.Ops) - 1; i >= 0; i-- {
		inv, err := tx.Ops[i].Apply(d)
		if err != nil {
			return err
		}
		if counterpart != nil {
			counterpart.Record(inv)
		}
	}
	return nil
}

// ============================================================================
// Snapshots
// ============================================================================

func (d *Document) snapshot() docState {
	return docState{
		comments:   d.comments.Clone(),
		highlights: d.highlights.Clone(),
		types:      d.types.Clone(),
		vmaps:      d.vmaps.Clone(),
		cursor:     d.cursor,
	}
}

// restoreSnapshot swaps metadata back to a captured state, queuing change
// events only for the structures that actually differ.
func (d *Document) restoreSnapshot(s docState) {
	if !d.comments.Equal(s.comments) {
		d.comments = s.comments.Clone()
		d.metaDirty = true
		d.pushEvent(EventCommentsChanged, 0, 0)
	}
	if !d.highlights.Equal(s.highlights) {
		d.highlights = s.highlights.Clone()
		d.metaDirty = true
		d.pushEvent(EventHighlightsChanged, 0, 0)
	}
	if !d.types.Equal(s.types) {
		d.types = s.types.Clone()
		d.metaDirty = true
		d.pushEvent(EventTypesChanged, 0, 0)
	}
	if !d.vmaps.Equal(s.vmaps) {
		d.vmaps = s.vmaps.Clone()
		d.metaDirty = true
		d.pushEvent(EventMappingsChanged, 0, 0)
	}
	d.cursor = s.cursor
}

// ============================================================================
// history.Target
// ============================================================================

// ReadData copies length bytes starting at offset.
func (d *Document) ReadData(offset, length int64) ([]byte, error) {
	return d.buf.Read(offset, length)
}

// UntrackedOverwrite replays an overwrite against the data, updating dirty
// stamps and change accounting but no metadata.
func (d *Document) UntrackedOverwrite(offset int64, data []byte) error {
	if err := d.buf.Overwrite(offset, data); err != nil {
		return err
	}
	d.tracker.MarkDirty(offset, int64(len(data)))
	d.noteDataChanged(offset, int64(len(data)))
	return nil
}

// UntrackedInsert replays an insert against the data, updating dirty
// stamps and change accounting but no metadata.
func (d *Document) UntrackedInsert(offset int64, data []byte) error {
	if err := d.buf.Insert(offset, data); err != nil {
		return err
	}
	d.tracker.DataInserted(offset, int64(len(data)))
	d.noteDataChanged(offset, d.buf.Length()-offset)
	return nil
}

// UntrackedErase replays an erase against the data, updating dirty stamps
// and change accounting but no metadata.
func (d *Document) UntrackedErase(offset, length int64) error {
	if err := d.buf.Erase(offset, length); err != nil {
		return err
	}
	d.tracker.DataErased(offset, length)
	d.noteDataChanged(offset, d.buf.Length()-offset)
	return nil
}

// UntrackedReplace replays an erase-then-insert against the data as one
// edit, updating dirty stamps and change accounting but no metadata.
func (d *Document) UntrackedReplace(offset, length int64, data []byte) error {
	if err := d.buf.Erase(offset, length); err != nil {
		return err
	}
	if err := d.buf.Insert(offset, data); err != nil {
		return err
	}
	d.tracker.DataReplaced(offset, length, int64(len(data)))
	d.noteDataChanged(offset, d.buf.Length()-offset)
	return nil
}
