package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	SlotDone    rune // ● already triggered
	SlotCurrent rune // ▶ sounding now
	SlotPending rune // · still to come

	BarFull  rune
	BarEmpty rune
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			SlotDone:    '●',
			SlotCurrent: '▶',
			SlotPending: '·',

			BarFull:  '█',
			BarEmpty: '░',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// classRoles places each duration class on the palette, short decays at
// the dark end and cymbals at the bright end
var classRoles = map[string]float64{
	"short":     0.35,
	"hat":       0.45,
	"default":   0.5,
	"tom":       0.6,
	"sustained": 0.65,
	"open-hat":  0.75,
	"ride":      0.9,
	"crash":     1.0,
}

// Style helpers

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Class returns the color for a duration class
func (t *Theme) Class(class string) lipgloss.Color {
	norm, ok := classRoles[class]
	if !ok {
		norm = classRoles["default"]
	}
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
