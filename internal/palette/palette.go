// Package palette defines the highlight colours available to documents.
//
// Highlights are stored as palette indices, not raw colours, so a file
// annotated on one machine renders with the local scheme on another. The
// palette carries a light and a dark variant per slot and derives a
// contrasting text colour for each.
package palette

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// NumColours is the number of highlight slots in every palette.
const NumColours = 6

// Colour is one highlight slot.
type Colour struct {
	Name  string
	Light colorful.Color
	Dark  colorful.Color
}

// Palette is a fixed set of highlight colours.
type Palette struct {
	colours [NumColours]Colour
}

// Valid returns true if idx names a palette slot.
func Valid(idx int) bool {
	return idx >= 0 && idx < NumColours
}

// Default returns the standard six-colour palette.
func Default() *Palette {
	return &Palette{colours: [NumColours]Colour{
		{Name: "red", Light: mustHex("#f4b8b8"), Dark: mustHex("#8a2f2f")},
		{Name: "orange", Light: mustHex("#f7d5ae"), Dark: mustHex("#95571b")},
		{Name: "yellow", Light: mustHex("#f5eeb0"), Dark: mustHex("#6e6512")},
		{Name: "green", Light: mustHex("#bfe3b8"), Dark: mustHex("#2f7a2a")},
		{Name: "blue", Light: mustHex("#b8cef4"), Dark: mustHex("#2c4f8f")},
		{Name: "violet", Light: mustHex("#dcc0ee"), Dark: mustHex("#6a3390")},
	}}
}

// Colour returns the slot at idx.
func (p *Palette) Colour(idx int) (Colour, error) {
	if !Valid(idx) {
		return Colour{}, fmt.Errorf("palette index %d out of range [0, %d)", idx, NumColours)
	}
	return p.colours[idx], nil
}

// Names returns the slot names in index order.
func (p *Palette) Names() []string {
	out := make([]string, NumColours)
	for i, c := range p.colours {
		out[i] = c.Name
	}
	return out
}

// IndexOf returns the slot index for a colour name.
func (p *Palette) IndexOf(name string) (int, bool) {
	for i, c := range p.colours {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// TextColour returns black or white, whichever reads better over bg.
func TextColour(bg colorful.Color) colorful.Color {
	if _, _, l := bg.Hcl(); l > 0.5 {
		return colorful.Color{R: 0, G: 0, B: 0}
	}
	return colorful.Color{R: 1, G: 1, B: 1}
}

// Blend interpolates between the light and dark variant of a slot. t is 0
// for light and 1 for dark.
func (c Colour) Blend(t float64) colorful.Color {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return c.Light.BlendLab(c.Dark, t).Clamped()
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
