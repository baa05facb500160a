package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedoc/bytedoc/internal/config"
	"github.com/bytedoc/bytedoc/internal/engine"
	"github.com/bytedoc/bytedoc/internal/engine/buffer"
	"github.com/bytedoc/bytedoc/internal/meta"
	"github.com/bytedoc/bytedoc/internal/script"
)

// Session is an open data file with its metadata side-car loaded.
type Session struct {
	path     string
	metaPath string
	buf      *buffer.MemBuffer
	doc      *engine.Document
	cfg      config.Config
	log      *Logger
	closed   bool
}

// Open loads a data file and its side-car. A nil logger discards output.
func Open(path string, cfg config.Config, log *Logger) (*Session, error) {
	if log == nil {
		log = NullLogger
	}
	log = log.WithComponent("session")

	buf, err := buffer.NewMemBufferFromFile(path)
	if err != nil {
		return nil, &OperationError{Op: "open", Target: path, Err: err}
	}

	var opts []engine.Option
	if cfg.MaxUndoEntries > 0 {
		opts = append(opts, engine.WithMaxUndoEntries(cfg.MaxUndoEntries))
	}
	doc := engine.New(buf, opts...)

	metaPath := meta.SidecarPath(path, cfg.MetaSuffix)
	rec, err := meta.LoadFile(metaPath, buf.Length())
	if err != nil {
		return nil, &OperationError{Op: "load metadata", Target: metaPath, Err: err}
	}
	if !rec.IsEmpty() {
		if err := meta.ApplyToDocument(doc, rec); err != nil {
			return nil, &OperationError{Op: "apply metadata", Target: metaPath, Err: err}
		}
		log.Debug("loaded side-car %s: %d comments, %d highlights, %d types, %d mappings",
			metaPath, len(rec.Comments), len(rec.Highlights), len(rec.Types), len(rec.Mappings))
	}

	log.Info("opened %s (%d bytes)", path, buf.Length())
	return &Session{
		path:     path,
		metaPath: metaPath,
		buf:      buf,
		doc:      doc,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Document returns the session's document.
func (s *Session) Document() *engine.Document {
	return s.doc
}

// Path returns the data file's path.
func (s *Session) Path() string {
	return s.path
}

// MetaPath returns the side-car's path.
func (s *Session) MetaPath() string {
	return s.metaPath
}

// Save writes the data file and its side-car, then marks the document
// saved. A clean document returns ErrNoChanges and writes nothing.
func (s *Session) Save() error {
	if s.closed {
		return ErrSessionClosed
	}
	if !s.doc.IsDirty() {
		return ErrNoChanges
	}

	if err := s.buf.WriteFile(s.path); err != nil {
		return &OperationError{Op: "save", Target: s.path, Err: err}
	}
	if err := meta.SaveFile(s.metaPath, meta.FromDocument(s.doc)); err != nil {
		return &OperationError{Op: "save metadata", Target: s.metaPath, Err: err}
	}

	s.doc.MarkSaved()
	s.log.Info("saved %s", s.path)
	return nil
}

// RunScript executes a Lua script file against the document as one undo
// step.
func (s *Session) RunScript(ctx context.Context, scriptPath string) error {
	if s.closed {
		return ErrSessionClosed
	}

	code, err := os.ReadFile(scriptPath)
	if err != nil {
		return &OperationError{Op: "script", Target: scriptPath, Err: err}
	}

	var opts []script.Option
	if sec := s.cfg.ScriptTimeoutSec; sec > 0 {
		opts = append(opts, script.WithTimeout(time.Duration(sec)*time.Second))
	} else if sec < 0 {
		opts = append(opts, script.WithTimeout(0))
	}

	r := script.NewRunner(s.doc, opts...)
	defer r.Close()

	name := filepath.Base(scriptPath)
	s.log.Debug("running script %s", name)
	if err := r.Run(ctx, name, string(code)); err != nil {
		s.log.Error("script %s: %v", name, err)
		return err
	}
	s.log.Info("script %s done", name)
	return nil
}

// Close releases the session. Unsaved changes are discarded.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.doc.IsDirty() {
		s.log.Warn("closing %s with unsaved changes", s.path)
	}
}

// Summary describes a session for display.
type Summary struct {
	Path       string
	Length     int64
	Dirty      bool
	Comments   int
	Highlights int
	Types      int
	Mappings   int
	UndoSteps  int
}

// Summarize collects display counts from the document. Untyped spans do
// not count as types.
func (s *Session) Summarize() Summary {
	typed := 0
	for _, ts := range s.doc.Types() {
		if ts.Type != "" {
			typed++
		}
	}

	return Summary{
		Path:       s.path,
		Length:     s.doc.Length(),
		Dirty:      s.doc.IsDirty(),
		Comments:   len(s.doc.Comments()),
		Highlights: len(s.doc.Highlights()),
		Types:      typed,
		Mappings:   len(s.doc.Mappings()),
		UndoSteps:  len(s.doc.UndoInfo()),
	}
}

// String formats the summary for the terminal.
func (sm Summary) String() string {
	state := "clean"
	if sm.Dirty {
		state = "modified"
	}
	return fmt.Sprintf("%s: %d bytes (%s), %d comments, %d highlights, %d typed ranges, %d mappings, %d undo steps",
		sm.Path, sm.Length, state, sm.Comments, sm.Highlights, sm.Types, sm.Mappings, sm.UndoSteps)
}
