package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"

	"drum-trigger/midi"
	"drum-trigger/sequencer"
	"drum-trigger/theme"
	"drum-trigger/widgets"
)

const barWidth = 40

// Model shows live playback of a trigger stream
type Model struct {
	Theme   *theme.Theme
	Port    string
	Seq     sequencer.DrumSequence
	Records []sequencer.TimingRecord
	BPM     int
	Total   time.Duration

	progress <-chan midi.Progress
	cancel   context.CancelFunc

	current  int
	elapsed  time.Duration
	done     bool
	err      error
	quitting bool
}

// ProgressMsg wraps a player update
type ProgressMsg midi.Progress

// TickMsg refreshes the elapsed time between notes
type TickMsg time.Time

func NewModel(th *theme.Theme, port string, seq sequencer.DrumSequence, records []sequencer.TimingRecord, bpm int, total time.Duration, progress <-chan midi.Progress, cancel context.CancelFunc) Model {
	return Model{
		Theme:    th,
		Port:     port,
		Seq:      seq,
		Records:  records,
		BPM:      bpm,
		Total:    total,
		progress: progress,
		cancel:   cancel,
		current:  -1,
	}
}

// ListenForProgress waits for the next player update
func ListenForProgress(ch <-chan midi.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return ProgressMsg{Index: -1, Done: true}
		}
		return ProgressMsg(p)
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(ListenForProgress(m.progress), tick())
}

// Err is the playback error, if any, once the program has exited
func (m Model) Err() error {
	return m.err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case ProgressMsg:
		if msg.Done {
			m.done = true
			if msg.Err != nil && m.err == nil {
				m.err = msg.Err
			}
			if msg.Elapsed > 0 {
				m.elapsed = msg.Elapsed
			}
			return m, tea.Quit
		}
		m.current = msg.Index
		m.elapsed = msg.Elapsed
		return m, ListenForProgress(m.progress)

	case TickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed += 100 * time.Millisecond
		return m, tick()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	nameStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Bold(true)

	state := "PLAY"
	if m.done {
		state = "DONE"
	}
	slot := "--"
	if m.current >= 0 {
		slot = fmt.Sprintf("%02d", m.current)
	}
	header := headerStyle.Render(fmt.Sprintf("drum-trigger  %s  %3dbpm  slot:%s/%02d  %s", state, m.BPM, slot, len(m.Seq), m.Port))

	var now string
	if m.current >= 0 && m.current < len(m.Seq) {
		e := m.Seq[m.current]
		class, _ := sequencer.ClassifyRule(e.Name)
		classStyle := lipgloss.NewStyle().Foreground(m.Theme.Class(class))
		now = fmt.Sprintf("%s  note %d  %s", nameStyle.Render(e.Name), e.Note, classStyle.Render(class))
		if m.current < len(m.Records) {
			now += dimStyle.Render(fmt.Sprintf("  @%.2fs", m.Records[m.current].Start))
		}
	} else {
		now = dimStyle.Render("lead-in")
	}

	frac := 0.0
	if m.Total > 0 {
		frac = float64(m.elapsed) / float64(m.Total)
	}
	clock := fmt.Sprintf("%s / %s", formatDuration(m.elapsed), formatDuration(m.Total))

	help := dimStyle.Render(widgets.RenderKeyLine([]widgets.HelpEntry{{Name: "q", Desc: "stop"}}))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderSlots(m.Theme, len(m.Seq), m.current, m.done))
	out.WriteString("\n\n")
	out.WriteString(now)
	out.WriteString("\n")
	out.WriteString(widgets.ProgressBar(m.Theme, frac, barWidth))
	out.WriteString("  ")
	out.WriteString(clock)
	out.WriteString("\n\n")
	out.WriteString(help)
	if m.err != nil {
		out.WriteString("\n")
		out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(m.err.Error()))
	}
	return out.String()
}

// formatDuration keeps the two largest units, e.g. "1 minute 12 seconds"
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0 seconds"
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}
