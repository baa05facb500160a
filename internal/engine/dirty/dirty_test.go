package dirty

import "testing"

func TestFreshTrackerIsClean(t *testing.T) {
	tr := NewTracker(16)

	if tr.IsDirty() {
		t.Error("IsDirty() = true for a fresh tracker")
	}
	for _, off := range []int64{0, 8, 15} {
		if tr.IsByteDirty(off) {
			t.Errorf("IsByteDirty(%d) = true for a fresh tracker", off)
		}
	}
}

func TestMarkDirtyStampsOnlyTouchedBytes(t *testing.T) {
	tr := NewTracker(16)
	tr.MarkDirty(5, 2)

	if !tr.IsDirty() {
		t.Error("IsDirty() = false after MarkDirty")
	}
	for _, tc := range []struct {
		off  int64
		want bool
	}{
		{4, false},
		{5, true},
		{6, true},
		{7, false},
	} {
		if got := tr.IsByteDirty(tc.off); got != tc.want {
			t.Errorf("IsByteDirty(%d) = %v, want %v", tc.off, got, tc.want)
		}
	}
}

func TestMarkSavedClearsEverything(t *testing.T) {
	tr := NewTracker(16)
	tr.MarkDirty(5, 2)
	tr.MarkSaved()

	if tr.IsDirty() {
		t.Error("IsDirty() = true after MarkSaved")
	}
	if tr.IsByteDirty(5) {
		t.Error("IsByteDirty(5) = true after MarkSaved")
	}
}

func TestReplayedEditIsDirtyAgain(t *testing.T) {
	// Edit, save, then replay the same bytes (as an undo would). The
	// fresh stamp must outrank the save watermark.
	tr := NewTracker(16)
	tr.MarkDirty(5, 2)
	tr.MarkSaved()
	tr.MarkDirty(5, 2)

	if !tr.IsByteDirty(5) {
		t.Error("IsByteDirty(5) = false after re-editing a saved byte")
	}
	if !tr.IsDirty() {
		t.Error("IsDirty() = false after re-editing a saved byte")
	}
}

func TestDataInsertedStampsAndShifts(t *testing.T) {
	tr := NewTracker(16)
	tr.MarkDirty(10, 2)
	tr.DataInserted(4, 3)

	for _, tc := range []struct {
		off  int64
		want bool
	}{
		{3, false},
		{4, true},  // inserted
		{6, true},  // inserted
		{7, false}, // previously byte 4
		{12, false},
		{13, true}, // previously dirty byte 10
		{14, true},
		{15, false},
	} {
		if got := tr.IsByteDirty(tc.off); got != tc.want {
			t.Errorf("IsByteDirty(%d) = %v, want %v", tc.off, got, tc.want)
		}
	}
}

func TestDataErasedShiftsStamps(t *testing.T) {
	tr := NewTracker(16)
	tr.MarkDirty(10, 2)
	tr.DataErased(2, 4)

	if tr.IsByteDirty(5) {
		t.Error("IsByteDirty(5) = true for a clean shifted byte")
	}
	if !tr.IsByteDirty(6) {
		t.Error("IsByteDirty(6) = false for the shifted dirty byte")
	}
	if !tr.IsDirty() {
		t.Error("IsDirty() = false after an erase")
	}
}

func TestDataReplacedAdvancesOnce(t *testing.T) {
	tr := NewTracker(16)

	before := tr.Seq()
	tr.DataReplaced(4, 6, 2)

	if got := tr.Seq(); got != before+1 {
		t.Errorf("Seq() = %d, want %d", got, before+1)
	}
	for _, tc := range []struct {
		off  int64
		want bool
	}{
		{3, false},
		{4, true},
		{5, true},
		{6, false},
	} {
		if got := tr.IsByteDirty(tc.off); got != tc.want {
			t.Errorf("IsByteDirty(%d) = %v, want %v", tc.off, got, tc.want)
		}
	}
}

func TestEraseAloneDirtiesDocumentOnly(t *testing.T) {
	tr := NewTracker(16)
	tr.DataErased(10, 6)

	if !tr.IsDirty() {
		t.Error("IsDirty() = false after an erase")
	}
	if tr.IsByteDirty(5) {
		t.Error("IsByteDirty(5) = true, no surviving byte was modified")
	}
}

func TestUnstampedByteFallsBackToCurrentSeq(t *testing.T) {
	// Bytes with no stamp at all count as touched by the latest change.
	tr := NewTracker(0)
	tr.MarkDirty(0, 0)

	if !tr.IsByteDirty(0) {
		t.Error("IsByteDirty(0) = false for an unstamped byte after a change")
	}

	tr.MarkSaved()
	if tr.IsByteDirty(0) {
		t.Error("IsByteDirty(0) = true for an unstamped byte after save")
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker(16)
	tr.MarkDirty(0, 16)
	tr.Reset(8)

	if tr.IsDirty() {
		t.Error("IsDirty() = true after Reset")
	}
	if tr.IsByteDirty(4) {
		t.Error("IsByteDirty(4) = true after Reset")
	}
	if tr.Seq() != 0 {
		t.Errorf("Seq() = %d after Reset, want 0", tr.Seq())
	}
}
