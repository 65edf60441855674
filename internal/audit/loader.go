package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ossi-voice/ossi/internal/model"
)

// ErrLoadCancelled is returned when the user aborts loading with ctrl+c.
var ErrLoadCancelled = errors.New("loading cancelled")

const loadTimeout = 30 * time.Second

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// LoadRequest describes which classification log to read and how the loaded
// records are summarised.
type LoadRequest struct {
	StorePath string
	Limit     int
	// Threshold is the confidence below which a record counts as needing review.
	Threshold float64
	Load      func(ctx context.Context, limit int) ([]model.ClassificationRecord, error)
}

// LoadSummary counts what a load returned.
type LoadSummary struct {
	Total       int
	Degraded    int
	NeedsReview int
	// Truncated reports that the limit was reached, so older records exist.
	Truncated bool
}

func summarize(records []model.ClassificationRecord, limit int, threshold float64) LoadSummary {
	s := LoadSummary{Total: len(records), Truncated: limit > 0 && len(records) >= limit}
	for _, r := range records {
		if r.Degraded {
			s.Degraded++
		}
		if needsReview(r, threshold) {
			s.NeedsReview++
		}
	}
	return s
}

func (s LoadSummary) String() string {
	out := fmt.Sprintf("Loaded %d classifications (%d degraded, %d need review)", s.Total, s.Degraded, s.NeedsReview)
	if s.Truncated {
		out += ", older records not shown"
	}
	return out
}

type loadDoneMsg struct {
	records []model.ClassificationRecord
	err     error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	req     LoadRequest
	frame   int
	records []model.ClassificationRecord
	summary LoadSummary
	err     error
	done    bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.tick())
}

func (m loaderModel) doLoad() tea.Cmd {
	req := m.req
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		records, err := req.Load(ctx, req.Limit)
		return loadDoneMsg{records: records, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.done = true
		if msg.err != nil {
			m.err = fmt.Errorf("read %s: %w", m.req.StorePath, msg.err)
			return m, tea.Quit
		}
		m.records = msg.records
		m.summary = summarize(msg.records, m.req.Limit, m.req.Threshold)
		return m, tea.Quit
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrLoadCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		if m.err != nil || m.summary.Total == 0 {
			return ""
		}
		return recordSubtitleStyle.Render(m.summary.String()) + "\n"
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Loading up to %d classifications from %s...\n", spinner, m.req.Limit, m.req.StorePath)
}

// RunLoader shows a spinner while the classification log is read, then leaves
// a one-line summary behind. It renders inline (no alt screen).
func RunLoader(req LoadRequest) ([]model.ClassificationRecord, LoadSummary, error) {
	p := tea.NewProgram(loaderModel{req: req})
	result, err := p.Run()
	if err != nil {
		return nil, LoadSummary{}, err
	}
	final := result.(loaderModel)
	return final.records, final.summary, final.err
}
