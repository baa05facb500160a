package meta

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Encode serialises a record to its JSON side-car form. Entries are written
// in offset order with stable key layout, so identical metadata always
// produces identical bytes.
func Encode(r *Record) ([]byte, error) {
	out := []byte("{}")
	var err error

	for i, c := range r.Comments {
		base := fmt.Sprintf("comments.%d", i)
		if out, err = sjson.SetBytes(out, base+".offset", c.Offset); err != nil {
			return nil, fmt.Errorf("encoding comments: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".length", c.Length); err != nil {
			return nil, fmt.Errorf("encoding comments: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".text", c.Text); err != nil {
			return nil, fmt.Errorf("encoding comments: %w", err)
		}
	}

	for i, h := range r.Highlights {
		base := fmt.Sprintf("highlights.%d", i)
		if out, err = sjson.SetBytes(out, base+".offset", h.Offset); err != nil {
			return nil, fmt.Errorf("encoding highlights: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".length", h.Length); err != nil {
			return nil, fmt.Errorf("encoding highlights: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".colour", h.Colour); err != nil {
			return nil, fmt.Errorf("encoding highlights: %w", err)
		}
	}

	for i, ts := range r.Types {
		base := fmt.Sprintf("data_types.%d", i)
		if out, err = sjson.SetBytes(out, base+".offset", ts.Offset); err != nil {
			return nil, fmt.Errorf("encoding data types: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".length", ts.Length); err != nil {
			return nil, fmt.Errorf("encoding data types: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".type", ts.Type); err != nil {
			return nil, fmt.Errorf("encoding data types: %w", err)
		}
	}

	for i, m := range r.Mappings {
		base := fmt.Sprintf("virt_mappings.%d", i)
		if out, err = sjson.SetBytes(out, base+".real_offset", m.RealOffset); err != nil {
			return nil, fmt.Errorf("encoding mappings: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".virt_offset", m.VirtOffset); err != nil {
			return nil, fmt.Errorf("encoding mappings: %w", err)
		}
		if out, err = sjson.SetBytes(out, base+".length", m.Length); err != nil {
			return nil, fmt.Errorf("encoding mappings: %w", err)
		}
	}

	return out, nil
}

// Decode parses a JSON side-car document into a record. Unknown keys are
// ignored; missing required fields within an entry are an error.
func Decode(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("malformed JSON: %w", ErrInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("top level is not an object: %w", ErrInvalid)
	}

	r := &Record{}

	for _, item := range root.Get("comments").Array() {
		off, length := item.Get("offset"), item.Get("length")
		text := item.Get("text")
		if !off.Exists() || !length.Exists() || !text.Exists() {
			return nil, fmt.Errorf("comment entry missing a field: %w", ErrInvalid)
		}
		r.Comments = append(r.Comments, Comment{Offset: off.Int(), Length: length.Int(), Text: text.String()})
	}

	for _, item := range root.Get("highlights").Array() {
		off, length := item.Get("offset"), item.Get("length")
		colour := item.Get("colour")
		if !off.Exists() || !length.Exists() || !colour.Exists() {
			return nil, fmt.Errorf("highlight entry missing a field: %w", ErrInvalid)
		}
		r.Highlights = append(r.Highlights, Highlight{Offset: off.Int(), Length: length.Int(), Colour: int(colour.Int())})
	}

	for _, item := range root.Get("data_types").Array() {
		off, length := item.Get("offset"), item.Get("length")
		typ := item.Get("type")
		if !off.Exists() || !length.Exists() || !typ.Exists() {
			return nil, fmt.Errorf("data type entry missing a field: %w", ErrInvalid)
		}
		r.Types = append(r.Types, TypeSpan{Offset: off.Int(), Length: length.Int(), Type: typ.String()})
	}

	for _, item := range root.Get("virt_mappings").Array() {
		real, virt := item.Get("real_offset"), item.Get("virt_offset")
		length := item.Get("length")
		if !real.Exists() || !virt.Exists() || !length.Exists() {
			return nil, fmt.Errorf("mapping entry missing a field: %w", ErrInvalid)
		}
		r.Mappings = append(r.Mappings, Mapping{RealOffset: real.Int(), VirtOffset: virt.Int(), Length: length.Int()})
	}

	return r, nil
}
