package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries is the undo depth used when none is configured.
const DefaultMaxEntries = 64

// Transaction is one undoable unit of work. Ops revert its data edits when
// applied in reverse order; Snapshot carries whatever surrounding state the
// owner wants restored wholesale (metadata, cursor).
type Transaction[S any] struct {
	ID        uuid.UUID
	Desc      string
	Timestamp time.Time
	Ops       []Op
	Snapshot  S
}

// NewTransaction creates an empty transaction with a fresh ID and the given
// state snapshot.
func NewTransaction[S any](desc string, snapshot S) *Transaction[S] {
	return &Transaction[S]{
		ID:        uuid.New(),
		Desc:      desc,
		Timestamp: time.Now(),
		Snapshot:  snapshot,
	}
}

// Record appends an op reverting the latest edit.
func (t *Transaction[S]) Record(op Op) {
	t.Ops = append(t.Ops, op)
}

// EntryInfo describes one stack entry.
type EntryInfo struct {
	Desc      string
	Timestamp time.Time
}

// Stack holds the undo and redo transactions of one document. Not safe for
// concurrent use.
type Stack[S any] struct {
	undo       []*Transaction[S]
	redo       []*Transaction[S]
	maxEntries int
}

// NewStack creates an empty stack keeping at most maxEntries undo steps.
func NewStack[S any](maxEntries int) *Stack[S] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Stack[S]{maxEntries: maxEntries}
}

// Push adds a completed transaction to the undo stack and clears the redo
// stack. The oldest entry falls off when the depth limit is reached.
func (s *Stack[S]) Push(t *Transaction[S]) {
	s.undo = append(s.undo, t)
	s.redo = nil

	if len(s.undo) > s.maxEntries {
		excess := len(s.undo) - s.maxEntries
		s.undo = append([]*Transaction[S]{}, s.undo[excess:]...)
	}
}

// PopUndo removes and returns the most recent undo transaction.
func (s *Stack[S]) PopUndo() (*Transaction[S], error) {
	if len(s.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	t := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return t, nil
}

// PopRedo removes and returns the most recent redo transaction.
func (s *Stack[S]) PopRedo() (*Transaction[S], error) {
	if len(s.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	t := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	return t, nil
}

// PushRedo adds a transaction to the redo stack, as the counterpart of an
// undo just performed.
func (s *Stack[S]) PushRedo(t *Transaction[S]) {
	s.redo = append(s.redo, t)
}

// PushUndo adds a transaction back to the undo stack without clearing redo,
// as the counterpart of a redo just performed.
func (s *Stack[S]) PushUndo(t *Transaction[S]) {
	s.undo = append(s.undo, t)
}

// CanUndo returns true if undo is available.
func (s *Stack[S]) CanUndo() bool {
	return len(s.undo) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack[S]) CanRedo() bool {
	return len(s.redo) > 0
}

// UndoCount returns the number of undo steps available.
func (s *Stack[S]) UndoCount() int {
	return len(s.undo)
}

// RedoCount returns the number of redo steps available.
func (s *Stack[S]) RedoCount() int {
	return len(s.redo)
}

// PeekUndo describes the next undo step without removing it.
func (s *Stack[S]) PeekUndo() (EntryInfo, bool) {
	if len(s.undo) == 0 {
		return EntryInfo{}, false
	}
	t := s.undo[len(s.undo)-1]
	return EntryInfo{Desc: t.Desc, Timestamp: t.Timestamp}, true
}

// PeekRedo describes the next redo step without removing it.
func (s *Stack[S]) PeekRedo() (EntryInfo, bool) {
	if len(s.redo) == 0 {
		return EntryInfo{}, false
	}
	t := s.redo[len(s.redo)-1]
	return EntryInfo{Desc: t.Desc, Timestamp: t.Timestamp}, true
}

// UndoInfo describes every undo step, oldest first.
func (s *Stack[S]) UndoInfo() []EntryInfo {
	out := make([]EntryInfo, len(s.undo))
	for i, t := range s.undo {
		out[i] = EntryInfo{Desc: t.Desc, Timestamp: t.Timestamp}
	}
	return out
}

// RedoInfo describes every redo step, oldest first.
func (s *Stack[S]) RedoInfo() []EntryInfo {
	out := make([]EntryInfo, len(s.redo))
	for i, t := range s.redo {
		out[i] = EntryInfo{Desc: t.Desc, Timestamp: t.Timestamp}
	}
	return out
}

// Clear removes all undo and redo state.
func (s *Stack[S]) Clear() {
	s.undo = nil
	s.redo = nil
}

// SetMaxEntries changes the undo depth limit, dropping the oldest entries
// if the stack is already deeper.
func (s *Stack[S]) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	s.maxEntries = max
	if len(s.undo) > max {
		excess := len(s.undo) - max
		s.undo = append([]*Transaction[S]{}, s.undo[excess:]...)
	}
}

// MaxEntries returns the undo depth limit.
func (s *Stack[S]) MaxEntries() int {
	return s.maxEntries
}
