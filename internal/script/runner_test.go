package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedoc/bytedoc/internal/engine"
	"github.com/bytedoc/bytedoc/internal/engine/buffer"
)

func newDoc(t *testing.T, data string) *engine.Document {
	t.Helper()
	return engine.New(buffer.NewMemBuffer([]byte(data)))
}

func readAll(t *testing.T, d *engine.Document) string {
	t.Helper()
	data, err := d.Read(0, d.Length())
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	return string(data)
}

func TestRunCommitsAsOneStep(t *testing.T) {
	d := newDoc(t, "hello world")
	r := NewRunner(d)
	defer r.Close()

	code := `
		doc.overwrite(0, "H")
		doc.overwrite(6, "W")
	`
	if err := r.Run(context.Background(), "capitalise", code); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := readAll(t, d); got != "Hello World" {
		t.Errorf("document = %q, want %q", got, "Hello World")
	}

	if err := d.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := readAll(t, d); got != "hello world" {
		t.Errorf("one undo must revert the whole script, document = %q", got)
	}
	if d.CanUndo() {
		t.Error("script left more than one undo step")
	}
}

func TestRunErrorRollsBack(t *testing.T) {
	d := newDoc(t, "hello")
	r := NewRunner(d)
	defer r.Close()

	code := `
		doc.overwrite(0, "X")
		doc.insert(5, "!!")
		error("boom")
	`
	err := r.Run(context.Background(), "failing", code)
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Run error = %v, want ErrScriptFailed", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not carry the script message", err)
	}

	if got := readAll(t, d); got != "hello" {
		t.Errorf("document = %q, rollback must undo the script's edits", got)
	}
	if d.CanUndo() {
		t.Error("failed script left an undo step")
	}
}

func TestRunReadsDocument(t *testing.T) {
	d := newDoc(t, "\x7fELF rest")
	r := NewRunner(d)
	defer r.Close()

	code := `
		if doc.read(1, 3) == "ELF" then
			doc.set_comment(0, 4, "elf header")
		end
	`
	if err := r.Run(context.Background(), "detect", code); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if text, ok := d.Comment(0, 4); !ok || text != "elf header" {
		t.Errorf("Comment(0, 4) = %q, %v", text, ok)
	}
}

func TestMetadataFunctions(t *testing.T) {
	d := newDoc(t, strings.Repeat("\x00", 64))
	r := NewRunner(d)
	defer r.Close()

	code := `
		doc.set_comment(0, 16, "block")
		assert(doc.get_comment(0, 16) == "block")
		assert(doc.get_comment(1, 4) == nil)

		doc.set_highlight(8, 4, 2)
		assert(doc.highlight_at(9) == 2)
		assert(doc.highlight_at(20) == nil)

		doc.set_type(4, 8, "u64le")
		assert(doc.type_at(4) == "u64le")

		doc.map_virt(32, 0x8000, 16)
		assert(doc.real_to_virt(36) == 0x8004)
		assert(doc.virt_to_real(0x8004) == 36)
		assert(doc.real_to_virt(0) == nil)

		local cs = doc.comments_at(2)
		assert(#cs == 1)
		assert(cs[1].text == "block")
		assert(cs[1].offset == 0)
	`
	if err := r.Run(context.Background(), "annotate", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestScriptCanCatchFailures(t *testing.T) {
	d := newDoc(t, "data")
	r := NewRunner(d)
	defer r.Close()

	// An out of range colour raises a Lua error the script catches itself.
	code := `
		local ok = pcall(doc.set_highlight, 0, 2, 42)
		assert(not ok, "bad colour must raise")
		doc.set_highlight(0, 2, 1)
	`
	if err := r.Run(context.Background(), "caught", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if colour, ok := d.HighlightAt(0); !ok || colour != 1 {
		t.Errorf("HighlightAt(0) = %d, %v", colour, ok)
	}
}

func TestEmptyScriptLeavesNoUndoStep(t *testing.T) {
	d := newDoc(t, "data")
	r := NewRunner(d)
	defer r.Close()

	if err := r.Run(context.Background(), "noop", `local x = doc.length()`); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.CanUndo() {
		t.Error("read-only script left an undo step")
	}
}

func TestCursorFunctions(t *testing.T) {
	d := newDoc(t, "0123456789")
	r := NewRunner(d)
	defer r.Close()

	code := `
		doc.set_cursor(7)
		assert(doc.cursor() == 7)
	`
	if err := r.Run(context.Background(), "cursor", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := d.Cursor().Offset; got != 7 {
		t.Errorf("cursor = %d, want 7", got)
	}
}

func TestTimeoutInterruptsScript(t *testing.T) {
	d := newDoc(t, "data")
	r := NewRunner(d, WithTimeout(50*time.Millisecond))
	defer r.Close()

	err := r.Run(context.Background(), "spin", `while true do end`)
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Run error = %v, want ErrScriptFailed", err)
	}
	if d.CanUndo() {
		t.Error("interrupted script left an undo step")
	}
}

func TestClosedRunner(t *testing.T) {
	d := newDoc(t, "data")
	r := NewRunner(d)
	r.Close()
	r.Close()

	if err := r.Run(context.Background(), "late", `doc.length()`); !errors.Is(err, ErrRunnerClosed) {
		t.Errorf("Run error = %v, want ErrRunnerClosed", err)
	}
}
