package history

import (
	"errors"
	"fmt"
)

// ErrUnknownOp is returned when an operation record has an unrecognised kind.
var ErrUnknownOp = errors.New("unknown operation kind")

// OpKind identifies a primitive data operation.
type OpKind uint8

const (
	// OpOverwrite writes Bytes over the data at Offset.
	OpOverwrite OpKind = iota

	// OpInsert inserts Bytes at Offset.
	OpInsert

	// OpErase removes Length bytes at Offset.
	OpErase

	// OpReplace removes Length bytes at Offset and inserts Bytes in
	// their place.
	OpReplace

	// OpMetadata marks a metadata-only change. It replays as a no-op;
	// the transaction snapshots restore metadata wholesale.
	OpMetadata
)

// String returns a short name for the kind.
func (k OpKind) String() string {
	switch k {
	case OpOverwrite:
		return "overwrite"
	case OpInsert:
		return "insert"
	case OpErase:
		return "erase"
	case OpReplace:
		return "replace"
	case OpMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Op is one replayable primitive data operation. A transaction records the
// ops that revert its edits; applying them in reverse order undoes the
// transaction, and each application yields the op that will redo it.
type Op struct {
	Kind   OpKind
	Offset int64
	Length int64
	Bytes  []byte
}

// Target is the data store ops replay against. The untracked mutators
// change the stored bytes and their dirty state only; metadata is restored
// separately from transaction snapshots.
type Target interface {
	ReadData(offset, length int64) ([]byte, error)
	UntrackedOverwrite(offset int64, data []byte) error
	UntrackedInsert(offset int64, data []byte) error
	UntrackedErase(offset, length int64) error
	UntrackedReplace(offset, length int64, data []byte) error
}

// Apply performs the operation against the target and returns its inverse,
// captured from the data the operation displaced.
func (op Op) Apply(t Target) (Op, error) {
	switch op.Kind {
	case OpOverwrite:
		displaced, err := t.ReadData(op.Offset, int64(len(op.Bytes)))
		if err != nil {
			return Op{}, fmt.Errorf("applying overwrite at %d: %w", op.Offset, err)
		}
		if err := t.UntrackedOverwrite(op.Offset, op.Bytes); err != nil {
			return Op{}, fmt.Errorf("applying overwrite at %d: %w", op.Offset, err)
		}
		return Op{Kind: OpOverwrite, Offset: op.Offset, Length: int64(len(displaced)), Bytes: displaced}, nil

	case OpInsert:
		if err := t.UntrackedInsert(op.Offset, op.Bytes); err != nil {
			return Op{}, fmt.Errorf("applying insert at %d: %w", op.Offset, err)
		}
		return Op{Kind: OpErase, Offset: op.Offset, Length: int64(len(op.Bytes))}, nil

	case OpErase:
		displaced, err := t.ReadData(op.Offset, op.Length)
		if err != nil {
			return Op{}, fmt.Errorf("applying erase at %d: %w", op.Offset, err)
		}
		if err := t.UntrackedErase(op.Offset, op.Length); err != nil {
			return Op{}, fmt.Errorf("applying erase at %d: %w", op.Offset, err)
		}
		return Op{Kind: OpInsert, Offset: op.Offset, Bytes: displaced}, nil

	case OpReplace:
		displaced, err := t.ReadData(op.Offset, op.Length)
		if err != nil {
			return Op{}, fmt.Errorf("applying replace at %d: %w", op.Offset, err)
		}
		if err := t.UntrackedReplace(op.Offset, op.Length, op.Bytes); err != nil {
			return Op{}, fmt.Errorf("applying replace at %d: %w", op.Offset, err)
		}
		return Op{Kind: OpReplace, Offset: op.Offset, Length: int64(len(op.Bytes)), Bytes: displaced}, nil

	case OpMetadata:
		return Op{Kind: OpMetadata}, nil

	default:
		return Op{}, fmt.Errorf("%w: %d", ErrUnknownOp, op.Kind)
	}
}
