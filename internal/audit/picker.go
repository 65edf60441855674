package audit

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ossi-voice/ossi/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Filter narrows the classification log to the records a reviewer cares about.
type Filter struct {
	Label string
	Match func(model.ClassificationRecord) bool
}

// Filters returns the picker choices: everything, one per intent, and degraded fallbacks.
func Filters() []Filter {
	out := []Filter{{Label: "All classifications", Match: func(model.ClassificationRecord) bool { return true }}}
	for _, intent := range model.IntentTypes {
		out = append(out, Filter{
			Label: "Intent: " + string(intent),
			Match: func(r model.ClassificationRecord) bool { return r.Intent == intent },
		})
	}
	out = append(out, Filter{
		Label: "Degraded (classifier fallback)",
		Match: func(r model.ClassificationRecord) bool { return r.Degraded },
	})
	return out
}

// Apply returns the records matched by f, preserving order.
func (f Filter) Apply(records []model.ClassificationRecord) []model.ClassificationRecord {
	out := make([]model.ClassificationRecord, 0, len(records))
	for _, r := range records {
		if f.Match == nil || f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type pickerModel struct {
	filters []Filter
	counts  []int
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.filters)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Classification Audit: select a filter")
	s += "\n"

	for i, f := range m.filters {
		label := fmt.Sprintf("%s (%d)", f.Label, m.counts[i])
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunFilterPicker shows an interactive filter selector with per-filter record counts.
// Returns the index of the chosen filter, or -1 if the user quit.
func RunFilterPicker(filters []Filter, records []model.ClassificationRecord) (int, error) {
	counts := make([]int, len(filters))
	for i, f := range filters {
		counts[i] = len(f.Apply(records))
	}

	m := pickerModel{
		filters: filters,
		counts:  counts,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
