package history

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// fakeTarget is a plain byte slice implementing Target.
type fakeTarget struct {
	data []byte
}

func (f *fakeTarget) ReadData(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(f.data)) {
		return nil, fmt.Errorf("read [%d, %d) out of bounds", offset, offset+length)
	}
	out := make([]byte, length)
	copy(out, f.data[offset:offset+length])
	return out, nil
}

func (f *fakeTarget) UntrackedOverwrite(offset int64, data []byte) error {
	if offset < 0 || offset+int64(len(data)) > int64(len(f.data)) {
		return fmt.Errorf("overwrite at %d out of bounds", offset)
	}
	copy(f.data[offset:], data)
	return nil
}

func (f *fakeTarget) UntrackedInsert(offset int64, data []byte) error {
	if offset < 0 || offset > int64(len(f.data)) {
		return fmt.Errorf("insert at %d out of bounds", offset)
	}
	f.data = append(f.data[:offset], append(append([]byte{}, data...), f.data[offset:]...)...)
	return nil
}

func (f *fakeTarget) UntrackedErase(offset, length int64) error {
	if offset < 0 || length < 0 || offset+length > int64(len(f.data)) {
		return fmt.Errorf("erase [%d, %d) out of bounds", offset, offset+length)
	}
	f.data = append(f.data[:offset], f.data[offset+length:]...)
	return nil
}

func (f *fakeTarget) UntrackedReplace(offset, length int64, data []byte) error {
	if err := f.UntrackedErase(offset, length); err != nil {
		return err
	}
	return f.UntrackedInsert(offset, data)
}

func TestOpApplyRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		op    Op
		want  string // after applying op
		start string
	}{
		{
			name:  "overwrite",
			start: "hello world",
			op:    Op{Kind: OpOverwrite, Offset: 6, Bytes: []byte("WORLD")},
			want:  "hello WORLD",
		},
		{
			name:  "insert",
			start: "hello",
			op:    Op{Kind: OpInsert, Offset: 2, Bytes: []byte("XX")},
			want:  "heXXllo",
		},
		{
			name:  "erase",
			start: "hello world",
			op:    Op{Kind: OpErase, Offset: 5, Length: 6},
			want:  "hello",
		},
		{
			name:  "replace shrinking",
			start: "hello world",
			op:    Op{Kind: OpReplace, Offset: 5, Length: 6, Bytes: []byte("!")},
			want:  "hello!",
		},
		{
			name:  "replace growing",
			start: "hi",
			op:    Op{Kind: OpReplace, Offset: 0, Length: 2, Bytes: []byte("hello")},
			want:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTarget{data: []byte(tt.start)}

			inv, err := tt.op.Apply(ft)
			if err != nil {
				t.Fatalf("Apply error: %v", err)
			}
			if !bytes.Equal(ft.data, []byte(tt.want)) {
				t.Fatalf("after Apply: %q, want %q", ft.data, tt.want)
			}

			// Applying the returned inverse restores the original.
			if _, err := inv.Apply(ft); err != nil {
				t.Fatalf("Apply(inverse) error: %v", err)
			}
			if !bytes.Equal(ft.data, []byte(tt.start)) {
				t.Errorf("after inverse: %q, want %q", ft.data, tt.start)
			}
		})
	}
}

func TestOpApplyMetadataIsNoOp(t *testing.T) {
	ft := &fakeTarget{data: []byte("hello")}

	inv, err := Op{Kind: OpMetadata}.Apply(ft)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if inv.Kind != OpMetadata {
		t.Errorf("inverse kind = %v, want metadata", inv.Kind)
	}
	if !bytes.Equal(ft.data, []byte("hello")) {
		t.Errorf("data changed by a metadata op: %q", ft.data)
	}
}

func TestOpApplyUnknownKind(t *testing.T) {
	ft := &fakeTarget{data: []byte("hello")}

	if _, err := (Op{Kind: OpKind(99)}).Apply(ft); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("error = %v, want ErrUnknownOp", err)
	}
}

func TestOpApplyFailureLeavesTargetAlone(t *testing.T) {
	ft := &fakeTarget{data: []byte("hello")}

	op := Op{Kind: OpOverwrite, Offset: 3, Bytes: []byte("toolong")}
	if _, err := op.Apply(ft); err == nil {
		t.Fatal("expected an error for an out of bounds overwrite")
	}
	if !bytes.Equal(ft.data, []byte("hello")) {
		t.Errorf("data changed by a failed op: %q", ft.data)
	}
}

func TestStackPushClearsRedo(t *testing.T) {
	s := NewStack[int](8)
	s.Push(NewTransaction("first", 1))

	u, err := s.PopUndo()
	if err != nil {
		t.Fatal(err)
	}
	s.PushRedo(u)

	if !s.CanRedo() {
		t.Fatal("CanRedo() = false after PushRedo")
	}

	s.Push(NewTransaction("second", 2))
	if s.CanRedo() {
		t.Error("CanRedo() = true after Push")
	}
}

func TestStackUndoRedoOrder(t *testing.T) {
	s := NewStack[int](8)
	s.Push(NewTransaction("first", 1))
	s.Push(NewTransaction("second", 2))

	u, err := s.PopUndo()
	if err != nil {
		t.Fatal(err)
	}
	if u.Desc != "second" {
		t.Errorf("PopUndo() = %q, want \"second\"", u.Desc)
	}
	s.PushRedo(u)

	r, err := s.PopRedo()
	if err != nil {
		t.Fatal(err)
	}
	if r.Desc != "second" {
		t.Errorf("PopRedo() = %q, want \"second\"", r.Desc)
	}
	s.PushUndo(r)

	if s.UndoCount() != 2 || s.RedoCount() != 0 {
		t.Errorf("counts = %d/%d, want 2/0", s.UndoCount(), s.RedoCount())
	}
}

func TestStackEmptyErrors(t *testing.T) {
	s := NewStack[int](8)

	if _, err := s.PopUndo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("PopUndo error = %v, want ErrNothingToUndo", err)
	}
	if _, err := s.PopRedo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("PopRedo error = %v, want ErrNothingToRedo", err)
	}
}

func TestStackDepthLimit(t *testing.T) {
	s := NewStack[int](3)
	for i := 0; i < 5; i++ {
		s.Push(NewTransaction(fmt.Sprintf("tx%d", i), i))
	}

	if s.UndoCount() != 3 {
		t.Fatalf("UndoCount() = %d, want 3", s.UndoCount())
	}

	info := s.UndoInfo()
	if info[0].Desc != "tx2" || info[2].Desc != "tx4" {
		t.Errorf("UndoInfo() = %v, oldest should be tx2 and newest tx4", info)
	}
}

func TestStackSetMaxEntriesTrims(t *testing.T) {
	s := NewStack[int](8)
	for i := 0; i < 5; i++ {
		s.Push(NewTransaction(fmt.Sprintf("tx%d", i), i))
	}

	s.SetMaxEntries(2)
	if s.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", s.UndoCount())
	}
	if got, _ := s.PeekUndo(); got.Desc != "tx4" {
		t.Errorf("PeekUndo() = %q, want \"tx4\"", got.Desc)
	}
}

func TestStackPeek(t *testing.T) {
	s := NewStack[string](8)

	if _, ok := s.PeekUndo(); ok {
		t.Error("PeekUndo() ok on an empty stack")
	}

	s.Push(NewTransaction("edit", "snap"))
	got, ok := s.PeekUndo()
	if !ok || got.Desc != "edit" {
		t.Errorf("PeekUndo() = %v, %v; want edit, true", got, ok)
	}
	if s.UndoCount() != 1 {
		t.Error("PeekUndo() removed the entry")
	}
}

func TestTransactionIDsAreUnique(t *testing.T) {
	a := NewTransaction("a", 0)
	b := NewTransaction("b", 0)
	if a.ID == b.ID {
		t.Error("two transactions share an ID")
	}
}

func TestTransactionSnapshotCarriesState(t *testing.T) {
	type snap struct{ cursor int64 }

	tx := NewTransaction("move", snap{cursor: 42})
	tx.Record(Op{Kind: OpMetadata})

	if tx.Snapshot.cursor != 42 {
		t.Errorf("Snapshot.cursor = %d, want 42", tx.Snapshot.cursor)
	}
	if len(tx.Ops) != 1 {
		t.Errorf("len(Ops) = %d, want 1", len(tx.Ops))
	}
}
