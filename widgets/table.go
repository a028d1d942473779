package widgets

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"drum-trigger/sequencer"
	"drum-trigger/theme"
)

// OPXYFirstSlot is the note of the first sampler slot on an OP-XY (F#3)
const OPXYFirstSlot = 53

// MappingRows builds one row per entry: slot, OP-XY note, source note,
// name, duration class and scaled duration.
func MappingRows(seq sequencer.DrumSequence, multiplier float64) [][]string {
	rows := make([][]string, len(seq))
	for i, e := range seq {
		class, _ := sequencer.ClassifyRule(e.Name)
		rows[i] = []string{
			strconv.Itoa(i),
			strconv.Itoa(OPXYFirstSlot + i),
			strconv.Itoa(int(e.Note)),
			e.Name,
			class,
			fmt.Sprintf("%.1fs", e.BaseDuration*multiplier),
		}
	}
	return rows
}

// MappingTable renders the mapping as a bordered table with each row
// colored by its duration class.
func MappingTable(th *theme.Theme, seq sequencer.DrumSequence, multiplier float64) string {
	rows := MappingRows(seq, multiplier)

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(th.Muted())).
		Headers("Slot", "OP-XY", "Note", "Name", "Class", "Duration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(rows) {
				return cellStyle
			}
			if col == 4 {
				return cellStyle.Foreground(th.Class(rows[row][4]))
			}
			return cellStyle.Foreground(th.FG())
		})
	return t.String()
}
