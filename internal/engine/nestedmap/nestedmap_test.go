package nestedmap

import (
	"testing"

	"github.com/bytedoc/bytedoc/internal/engine/rangemap"
)

func entriesEqual(a, b []Entry[string]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func e(off, length int64, v string) Entry[string] {
	return Entry[string]{Range: rangemap.NewRange(off, length), Value: v}
}

func mustSet(t *testing.T, m *Map[string], off, length int64, v string) {
	t.Helper()
	if !m.Set(off, length, v) {
		t.Fatalf("Set(%d, %d, %q) rejected", off, length, v)
	}
}

func TestSetDisjoint(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 5, "a")
	mustSet(t, m, 20, 5, "b")
	mustSet(t, m, 0, 5, "c")

	want := []Entry[string]{e(0, 5, "c"), e(10, 5, "a"), e(20, 5, "b")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestSetNested(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")

	want := []Entry[string]{e(0, 100, "outer"), e(10, 20, "mid"), e(15, 5, "inner")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestSetAdoptsExistingEntries(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 5, "a")
	mustSet(t, m, 20, 5, "b")
	mustSet(t, m, 0, 100, "outer")

	want := []Entry[string]{e(0, 100, "outer"), e(10, 5, "a"), e(20, 5, "b")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestSetAdoptsSameOffsetShorter(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 5, "short")
	mustSet(t, m, 10, 20, "long")

	want := []Entry[string]{e(10, 20, "long"), e(10, 5, "short")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestSetReplacesExactKey(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 5, "old")
	mustSet(t, m, 10, 5, "new")

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if v, ok := m.Get(10, 5); !ok || v != "new" {
		t.Errorf("Get(10, 5) = %q, %v; want \"new\", true", v, ok)
	}
}

func TestSetRejectsPartialOverlap(t *testing.T) {
	tests := []struct {
		name        string
		off, length int64
	}{
		{"straddles start", 5, 10},
		{"straddles end", 12, 10},
		{"straddles from inside", 14, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap[string]()
			mustSet(t, m, 10, 5, "a")

			if m.CanSet(tt.off, tt.length) {
				t.Errorf("CanSet(%d, %d) = true, want false", tt.off, tt.length)
			}
			if m.Set(tt.off, tt.length, "b") {
				t.Errorf("Set(%d, %d) accepted, want rejected", tt.off, tt.length)
			}
			if m.Len() != 1 {
				t.Errorf("Len() = %d after rejected Set, want 1", m.Len())
			}
		})
	}
}

func TestCanSetAllowsContainmentAndTouching(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 10, "a")

	tests := []struct {
		name        string
		off, length int64
	}{
		{"identical", 10, 10},
		{"contained", 12, 4},
		{"containing", 0, 100},
		{"touching before", 0, 10},
		{"touching after", 20, 10},
		{"point inside", 15, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !m.CanSet(tt.off, tt.length) {
				t.Errorf("CanSet(%d, %d) = false, want true", tt.off, tt.length)
			}
		})
	}
}

func TestZeroLengthEntries(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 10, "range")
	mustSet(t, m, 15, 0, "point")

	// The point nests inside the range.
	want := []Entry[string]{e(10, 10, "range"), e(15, 0, "point")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	// A point at the end of a range is outside it.
	mustSet(t, m, 20, 0, "end point")
	want = []Entry[string]{e(10, 10, "range"), e(15, 0, "point"), e(20, 0, "end point")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestErasePromotesChildren(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")

	if !m.Erase(10, 20) {
		t.Fatal("Erase(10, 20) = false, want true")
	}

	want := []Entry[string]{e(0, 100, "outer"), e(15, 5, "inner")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestEraseRequiresExactKey(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 20, "a")

	if m.Erase(10, 5) {
		t.Error("Erase(10, 5) matched a (10, 20) entry")
	}
	if m.Erase(12, 18) {
		t.Error("Erase(12, 18) matched a (10, 20) entry")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestEraseRecursive(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")
	mustSet(t, m, 50, 10, "other")

	if got := m.EraseRecursive(10, 20); got != 2 {
		t.Fatalf("EraseRecursive(10, 20) = %d, want 2", got)
	}

	want := []Entry[string]{e(0, 100, "outer"), e(50, 10, "other")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestInnermost(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")
	mustSet(t, m, 15, 0, "point")

	tests := []struct {
		name   string
		off    int64
		want   string
		wantOK bool
	}{
		{"inside all", 16, "inner", true},
		{"at inner start", 15, "inner", true},
		{"at inner end", 20, "mid", true},
		{"mid only", 25, "mid", true},
		{"outer only", 50, "outer", true},
		{"at outer end", 100, "", false},
		{"before everything", -1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Innermost(tt.off)
			if ok != tt.wantOK {
				t.Fatalf("Innermost(%d) ok = %v, want %v", tt.off, ok, tt.wantOK)
			}
			if ok && got.Value != tt.want {
				t.Errorf("Innermost(%d) = %q, want %q", tt.off, got.Value, tt.want)
			}
		})
	}
}

func TestInnermostSkipsZeroLength(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 15, 0, "point")

	if _, ok := m.Innermost(15); ok {
		t.Error("Innermost(15) matched a zero-length entry")
	}
}

func TestAllAt(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")
	mustSet(t, m, 15, 0, "point")

	got := m.AllAt(15)
	want := []Entry[string]{e(15, 0, "point"), e(15, 5, "inner"), e(10, 20, "mid"), e(0, 100, "outer")}
	if !entriesEqual(got, want) {
		t.Errorf("AllAt(15) = %v, want %v", got, want)
	}

	got = m.AllAt(25)
	want = []Entry[string]{e(10, 20, "mid"), e(0, 100, "outer")}
	if !entriesEqual(got, want) {
		t.Errorf("AllAt(25) = %v, want %v", got, want)
	}

	if got := m.AllAt(200); got != nil {
		t.Errorf("AllAt(200) = %v, want nil", got)
	}
}

func TestAllAtFindsPointAfterSibling(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 10, "outer")
	mustSet(t, m, 2, 3, "low")
	mustSet(t, m, 5, 0, "point")

	// The point sits after a lower-offset sibling inside the outer range.
	got := m.AllAt(5)
	want := []Entry[string]{e(5, 0, "point"), e(0, 10, "outer")}
	if !entriesEqual(got, want) {
		t.Errorf("AllAt(5) = %v, want %v", got, want)
	}
}

func TestAllAtRootPoint(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 3, "low")
	mustSet(t, m, 7, 0, "point")

	got := m.AllAt(7)
	want := []Entry[string]{e(7, 0, "point")}
	if !entriesEqual(got, want) {
		t.Errorf("AllAt(7) = %v, want %v", got, want)
	}
}

func TestEntriesInsideOut(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")
	mustSet(t, m, 15, 5, "inner")
	mustSet(t, m, 50, 10, "other")

	want := []Entry[string]{e(15, 5, "inner"), e(10, 20, "mid"), e(0, 100, "outer"), e(50, 10, "other")}
	if got := m.EntriesInsideOut(); !entriesEqual(got, want) {
		t.Errorf("EntriesInsideOut() = %v, want %v", got, want)
	}
}

func TestDataInserted(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 10, "before")
	mustSet(t, m, 20, 10, "spans")
	mustSet(t, m, 22, 2, "nested")
	mustSet(t, m, 40, 5, "after")

	if got := m.DataInserted(25, 100); got != 3 {
		t.Errorf("DataInserted(25, 100) = %d, want 3", got)
	}

	want := []Entry[string]{
		e(0, 10, "before"),
		e(20, 110, "spans"),
		e(122, 2, "nested"),
		e(140, 5, "after"),
	}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestDataInsertedAtEntryStart(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 10, 5, "a")

	m.DataInserted(10, 3)

	want := []Entry[string]{e(13, 5, "a")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestDataErased(t *testing.T) {
	tests := []struct {
		name        string
		off, length int64
		want        []Entry[string]
	}{
		{
			name: "before all entries",
			off:  0, length: 5,
			want: []Entry[string]{e(5, 20, "outer"), e(10, 5, "inner"), e(35, 5, "after")},
		},
		{
			name: "inside the outer entry",
			off:  11, length: 2,
			want: []Entry[string]{e(10, 18, "outer"), e(13, 5, "inner"), e(38, 5, "after")},
		},
		{
			name: "straddling the outer start",
			off:  5, length: 10,
			want: []Entry[string]{e(5, 15, "outer"), e(5, 5, "inner"), e(30, 5, "after")},
		},
		{
			name: "covering the inner entry",
			off:  12, length: 15,
			want: []Entry[string]{e(10, 5, "outer"), e(25, 5, "after")},
		},
		{
			name: "covering everything",
			off:  0, length: 100,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap[string]()
			mustSet(t, m, 10, 20, "outer")
			mustSet(t, m, 15, 5, "inner")
			mustSet(t, m, 40, 5, "after")

			m.DataErased(tt.off, tt.length)

			if got := m.Entries(); !entriesEqual(got, tt.want) {
				t.Errorf("Entries() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDataErasedZeroLengthAtWindowEnd(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 20, 0, "point")

	// A point exactly at the end of the erased window survives and
	// shifts to the window start.
	m.DataErased(10, 10)

	want := []Entry[string]{e(10, 0, "point")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestDataErasedZeroLengthInsideWindow(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 15, 0, "point")

	m.DataErased(10, 10)

	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0; entries %v", m.Len(), m.Entries())
	}
}

func TestDataErasedReparentsShiftedPoint(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 5, 5, "range")
	mustSet(t, m, 25, 0, "point")

	// The point lands on the end of the surviving range and stays a
	// sibling; iteration order remains offset ascending.
	m.DataErased(10, 15)

	want := []Entry[string]{e(5, 5, "range"), e(10, 0, "point")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMap[string]()
	mustSet(t, m, 0, 100, "outer")
	mustSet(t, m, 10, 20, "mid")

	c := m.Clone()
	if !c.Equal(m) {
		t.Fatal("clone differs from original")
	}

	mustSet(t, c, 50, 5, "added")
	c.Erase(10, 20)

	want := []Entry[string]{e(0, 100, "outer"), e(10, 20, "mid")}
	if got := m.Entries(); !entriesEqual(got, want) {
		t.Errorf("original mutated through clone: %v", got)
	}
}

func TestEqual(t *testing.T) {
	a := NewMap[string]()
	b := NewMap[string]()
	mustSet(t, a, 0, 10, "x")
	mustSet(t, b, 0, 10, "x")

	if !a.Equal(b) {
		t.Error("Equal() = false for identical maps")
	}

	mustSet(t, b, 0, 10, "y")
	if a.Equal(b) {
		t.Error("Equal() = true for maps with differing values")
	}
}
