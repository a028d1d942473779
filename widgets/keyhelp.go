package widgets

import (
	"fmt"
	"strings"
)

// HelpEntry is a command or key with what it does
type HelpEntry struct {
	Name string
	Desc string
}

// HelpSection is a titled group of entries
type HelpSection struct {
	Title   string
	Entries []HelpEntry
}

// RenderHelp lists the sections with descriptions aligned one column past
// the widest name across all of them.
func RenderHelp(sections []HelpSection) string {
	width := 0
	for _, sec := range sections {
		for _, e := range sec.Entries {
			width = max(width, len(e.Name))
		}
	}

	var lines []string
	for i, sec := range sections {
		if i > 0 {
			lines = append(lines, "")
		}
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, e := range sec.Entries {
			lines = append(lines, fmt.Sprintf("  %-*s  %s", width, e.Name, e.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine puts the entries on one line: "q:stop  space:pause"
func RenderKeyLine(keys []HelpEntry) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Name + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}
