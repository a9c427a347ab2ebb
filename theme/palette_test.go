package theme

import (
	"strings"
	"testing"
)

const gpl = `GIMP Palette
Name: mono
Columns: 2
# comment
  0   0   0	Black
255 255 255	White
300 0 0	out of range
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Name != "mono" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if p.Lookup(0.5) != (RGB{127, 127, 127}) && p.Lookup(0.5) != (RGB{128, 128, 128}) {
		t.Fatalf("midpoint %v", p.Lookup(0.5))
	}
	if p.Lookup(-1) != p.Colors[0] || p.Lookup(2) != p.Colors[1] {
		t.Fatal("lookup is not clamped")
	}
}

func TestParseGPLEmpty(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLightThemeReversesPalette(t *testing.T) {
	dark := New(nil, "dark")
	light := New(nil, "light")
	if dark.Palette != Plasma {
		t.Fatal("nil palette should fall back to plasma")
	}
	n := len(Plasma.Colors)
	if light.Palette.Colors[0] != Plasma.Colors[n-1] || light.Palette.Colors[n-1] != Plasma.Colors[0] {
		t.Fatal("light palette not reversed")
	}
}
