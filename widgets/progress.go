package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"drum-trigger/theme"
)

// RenderSlots draws one symbol per entry: done, current or pending.
// current is -1 before the first trigger.
func RenderSlots(th *theme.Theme, total, current int, done bool) string {
	doneStyle := lipgloss.NewStyle().Foreground(th.Muted())
	curStyle := lipgloss.NewStyle().Foreground(th.Active()).Bold(true)
	pendingStyle := lipgloss.NewStyle().Foreground(th.FG())

	var out strings.Builder
	for i := 0; i < total; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		switch {
		case done || i < current:
			out.WriteString(doneStyle.Render(string(th.Symbols.SlotDone)))
		case i == current:
			out.WriteString(curStyle.Render(string(th.Symbols.SlotCurrent)))
		default:
			out.WriteString(pendingStyle.Render(string(th.Symbols.SlotPending)))
		}
	}
	return out.String()
}

// ProgressBar draws a bar width cells wide, filled to frac (0-1)
func ProgressBar(th *theme.Theme, frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	full := lipgloss.NewStyle().Foreground(th.Accent())
	empty := lipgloss.NewStyle().Foreground(th.Muted())
	return full.Render(strings.Repeat(string(th.Symbols.BarFull), filled)) +
		empty.Render(strings.Repeat(string(th.Symbols.BarEmpty), width-filled))
}
