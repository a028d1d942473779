package theme

import (
	"strings"
	"testing"
)

const gpl = `GIMP Palette
Name: Two Tone
Columns: 2
# comment
  0   0   0	Black
255 255 255	White
300   0   0	ignored
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	if err != nil {
		t.Fatalf("ParseGPL: %v", err)
	}
	if p.Name != "Two Tone" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Error("palette without colors: expected error")
	}
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	if got := p.Lookup(-1); got != (RGB{0, 0, 0}) {
		t.Errorf("Lookup(-1) = %v", got)
	}
	if got := p.Lookup(0.5); got != (RGB{100, 50, 25}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{200, 100, 50}) {
		t.Errorf("Lookup(2) = %v", got)
	}
}

func TestClassColors(t *testing.T) {
	th := New(Plasma)
	if th.Class("crash") != th.Color(1.0) {
		t.Error("crash should use the bright end of the palette")
	}
	if th.Class("nonsense") != th.Class("default") {
		t.Error("unknown class should fall back to default")
	}
	if p, err := LoadOrDefault(""); err != nil || p != Plasma {
		t.Errorf("LoadOrDefault(\"\") = %v, %v", p, err)
	}
}
