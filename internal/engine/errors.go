package engine

import (
	"errors"

	"github.com/bytedoc/bytedoc/internal/engine/history"
)

// Errors returned by document operations.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the valid data range.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates an invalid range (negative offset or length).
	ErrRangeInvalid = errors.New("invalid range")

	// ErrPartialOverlap indicates a range partially overlaps an existing
	// comment, which the containment rules forbid.
	ErrPartialOverlap = errors.New("range partially overlaps an existing entry")

	// ErrNotFound indicates no entry exists with the given key.
	ErrNotFound = errors.New("entry not found")

	// ErrMappingConflict indicates a virtual mapping overlaps an existing
	// one on the real or the virtual side.
	ErrMappingConflict = errors.New("mapping conflicts with an existing one")

	// ErrInvalidColour indicates a highlight colour index outside the
	// palette.
	ErrInvalidColour = errors.New("invalid highlight colour")

	// ErrNoTransaction indicates a commit or rollback with no transaction
	// open.
	ErrNoTransaction = errors.New("no transaction open")

	// ErrTransactionOpen indicates undo or redo was attempted while a
	// transaction is open.
	ErrTransactionOpen = errors.New("transaction still open")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo
)
