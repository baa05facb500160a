package meta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bytedoc/bytedoc/internal/engine"
)

// DefaultSuffix is appended to a data file's path to name its side-car.
const DefaultSuffix = ".bytedoc.json"

// SidecarPath returns the metadata path for a data file. An empty suffix
// selects the default.
func SidecarPath(dataPath, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return dataPath + suffix
}

// SaveFile writes a record beside its data file. An empty record removes
// the side-car instead, so files with no annotations leave nothing behind.
func SaveFile(path string, r *Record) error {
	if r.IsEmpty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		return nil
	}

	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadFile reads and validates a record for a document of dataLen bytes. A
// missing side-car yields an empty record.
func LoadFile(path string, dataLen int64) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	r, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := r.Validate(dataLen); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return r, nil
}

// FromDocument captures a document's metadata as a record, ready to
// serialise. Untyped spans are dropped.
func FromDocument(d *engine.Document) *Record {
	r := &Record{}

	for _, c := range d.Comments() {
		r.Comments = append(r.Comments, Comment{Offset: c.Offset, Length: c.Length, Text: c.Text})
	}
	for _, h := range d.Highlights() {
		r.Highlights = append(r.Highlights, Highlight{Offset: h.Offset, Length: h.Length, Colour: h.Colour})
	}
	for _, ts := range d.Types() {
		if ts.Type == "" {
			continue
		}
		r.Types = append(r.Types, TypeSpan{Offset: ts.Offset, Length: ts.Length, Type: ts.Type})
	}
	for _, m := range d.Mappings() {
		r.Mappings = append(r.Mappings, Mapping{RealOffset: m.Real, VirtOffset: m.Virtual, Length: m.Length})
	}

	return r
}

// ApplyToDocument loads a validated record into a freshly opened document.
// The load is not an edit: history is cleared and the document reports
// clean afterwards.
func ApplyToDocument(d *engine.Document, r *Record) error {
	for _, c := range r.Comments {
		if err := d.SetComment(c.Offset, c.Length, c.Text); err != nil {
			return fmt.Errorf("loading comment at %d: %w", c.Offset, err)
		}
	}
	for _, h := range r.Highlights {
		if err := d.SetHighlight(h.Offset, h.Length, h.Colour); err != nil {
			return fmt.Errorf("loading highlight at %d: %w", h.Offset, err)
		}
	}
	for _, ts := range r.Types {
		if err := d.SetDataType(ts.Offset, ts.Length, ts.Type); err != nil {
			return fmt.Errorf("loading data type at %d: %w", ts.Offset, err)
		}
	}
	for _, m := range r.Mappings {
		if err := d.SetVirtMapping(m.RealOffset, m.VirtOffset, m.Length); err != nil {
			return fmt.Errorf("loading mapping at %d: %w", m.RealOffset, err)
		}
	}

	d.ClearHistory()
	d.MarkSaved()
	d.DrainEvents()
	d.TakeChangedRanges()
	return nil
}
