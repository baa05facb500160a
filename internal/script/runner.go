package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/bytedoc/bytedoc/internal/engine"
)

// DefaultTimeout bounds a single script run. Scripts that compute past it
// are interrupted between instructions.
const DefaultTimeout = 10 * time.Second

// Runner executes Lua scripts against a document.
//
// Each run is wrapped in a single transaction named after the script, so a
// script's edits undo as one step and a failed script leaves the document
// untouched.
//
// The underlying Lua state is not goroutine-safe. A Runner must be used
// from one goroutine at a time.
type Runner struct {
	L       *lua.LState
	doc     *engine.Document
	timeout time.Duration
	closed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout bounds each script run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a runner bound to a document. Only the base, table,
// string and math libraries are opened; io, os, debug and package stay
// out of reach of scripts.
func NewRunner(doc *engine.Document, opts ...Option) *Runner {
	r := &Runner{
		doc:     doc,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	r.L = L
	r.registerDocModule()
	return r
}

// Run executes a script. Its edits commit as one undo step named after
// name; any Lua error rolls the whole run back.
func (r *Runner) Run(ctx context.Context, name, code string) error {
	if r.closed {
		return ErrRunnerClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	r.doc.TransactBegin(name)

	if err := r.doString(code); err != nil {
		if rbErr := r.doc.TransactRollback(); rbErr != nil {
			return fmt.Errorf("rolling back %s: %w", name, rbErr)
		}
		return fmt.Errorf("%s: %w: %w", name, ErrScriptFailed, err)
	}

	return r.doc.TransactCommit()
}

// doString executes code with panic recovery. gopher-lua raises Go panics
// for some stack misuse from registered functions.
func (r *Runner) doString(code string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return r.L.DoString(code)
}

// Close releases the Lua state. The runner cannot be reused.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

// ============================================================================
// Document module
// ============================================================================

// registerDocModule installs the "doc" global. All offsets are zero based
// byte offsets, matching the rest of the system. Failures surface as Lua
// errors so scripts can pcall around them.
func (r *Runner) registerDocModule() {
	funcs := map[string]lua.LGFunction{
		"length":        r.luaLength,
		"read":          r.luaRead,
		"overwrite":     r.luaOverwrite,
		"insert":        r.luaInsert,
		"erase":         r.luaErase,
		"replace":       r.luaReplace,
		"set_comment":   r.luaSetComment,
		"get_comment":   r.luaGetComment,
		"comments_at":   r.luaCommentsAt,
		"set_highlight": r.luaSetHighlight,
		"highlight_at":  r.luaHighlightAt,
		"set_type":      r.luaSetType,
		"type_at":       r.luaTypeAt,
		"map_virt":      r.luaMapVirt,
		"real_to_virt":  r.luaRealToVirt,
		"virt_to_real":  r.luaVirtToReal,
		"cursor":        r.luaCursor,
		"set_cursor":    r.luaSetCursor,
	}
	mod := r.L.SetFuncs(r.L.NewTable(), funcs)
	r.L.SetGlobal("doc", mod)
}

func (r *Runner) luaLength(L *lua.LState) int {
	L.Push(lua.LNumber(r.doc.Length()))
	return 1
}

func (r *Runner) luaRead(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	data, err := r.doc.Read(offset, length)
	if err != nil {
		L.RaiseError("read: %s", err.Error())
		return 0
	}
	L.Push(lua.LString(data))
	return 1
}

func (r *Runner) luaOverwrite(L *lua.LState) int {
	offset := L.CheckInt64(1)
	data := L.CheckString(2)
	if err := r.doc.OverwriteData(offset, []byte(data), nil); err != nil {
		L.RaiseError("overwrite: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaInsert(L *lua.LState) int {
	offset := L.CheckInt64(1)
	data := L.CheckString(2)
	if err := r.doc.InsertData(offset, []byte(data), nil); err != nil {
		L.RaiseError("insert: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaErase(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	if err := r.doc.EraseData(offset, length, nil); err != nil {
		L.RaiseError("erase: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaReplace(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	data := L.CheckString(3)
	if err := r.doc.ReplaceData(offset, length, []byte(data), nil); err != nil {
		L.RaiseError("replace: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaSetComment(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	text := L.CheckString(3)
	if err := r.doc.SetComment(offset, length, text); err != nil {
		L.RaiseError("set_comment: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaGetComment(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	text, ok := r.doc.Comment(offset, length)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(text))
	return 1
}

func (r *Runner) luaCommentsAt(L *lua.LState) int {
	offset := L.CheckInt64(1)
	t := L.NewTable()
	for i, c := range r.doc.CommentsAt(offset) {
		entry := L.NewTable()
		entry.RawSetString("offset", lua.LNumber(c.Offset))
		entry.RawSetString("length", lua.LNumber(c.Length))
		entry.RawSetString("text", lua.LString(c.Text))
		t.RawSetInt(i+1, entry)
	}
	L.Push(t)
	return 1
}

func (r *Runner) luaSetHighlight(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	colour := L.CheckInt(3)
	if err := r.doc.SetHighlight(offset, length, colour); err != nil {
		L.RaiseError("set_highlight: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaHighlightAt(L *lua.LState) int {
	offset := L.CheckInt64(1)
	colour, ok := r.doc.HighlightAt(offset)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(colour))
	return 1
}

func (r *Runner) luaSetType(L *lua.LState) int {
	offset := L.CheckInt64(1)
	length := L.CheckInt64(2)
	typeName := L.CheckString(3)
	if err := r.doc.SetDataType(offset, length, typeName); err != nil {
		L.RaiseError("set_type: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaTypeAt(L *lua.LState) int {
	offset := L.CheckInt64(1)
	typeName, ok := r.doc.TypeAt(offset)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(typeName))
	return 1
}

func (r *Runner) luaMapVirt(L *lua.LState) int {
	real := L.CheckInt64(1)
	virt := L.CheckInt64(2)
	length := L.CheckInt64(3)
	if err := r.doc.SetVirtMapping(real, virt, length); err != nil {
		L.RaiseError("map_virt: %s", err.Error())
	}
	return 0
}

func (r *Runner) luaRealToVirt(L *lua.LState) int {
	real := L.CheckInt64(1)
	virt, ok := r.doc.RealToVirtual(real)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(virt))
	return 1
}

func (r *Runner) luaVirtToReal(L *lua.LState) int {
	virt := L.CheckInt64(1)
	real, ok := r.doc.VirtualToReal(virt)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(real))
	return 1
}

func (r *Runner) luaCursor(L *lua.LState) int {
	L.Push(lua.LNumber(r.doc.Cursor().Offset))
	return 1
}

func (r *Runner) luaSetCursor(L *lua.LState) int {
	offset := L.CheckInt64(1)
	r.doc.SetCursor(engine.CursorState{Offset: offset})
	return 0
}
