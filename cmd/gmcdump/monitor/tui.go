package monitor

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const history = 64

type reading struct {
	at  time.Time
	cpm uint16
	err error
}

type tickMsg time.Time

type model struct {
	table    table.Model
	fetch    func() (uint16, error)
	interval time.Duration
	readings []reading
}

func newTUI(fetch func() (uint16, error), interval time.Duration) *model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "CPM", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table:    t,
		fetch:    fetch,
		interval: interval,
	}
}

func (m *model) Init() tea.Cmd {
	return m.read
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height)
	case tickMsg:
		return m, m.read
	case reading:
		m.update(msg)
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return m.table.View()
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// read polls the device off the interaction loop. One outstanding request at
// a time: the next poll is only scheduled once this one answered.
func (m *model) read() tea.Msg {
	cpm, err := m.fetch()
	return reading{at: time.Now(), cpm: cpm, err: err}
}

func (m *model) update(r reading) {
	m.readings = append(m.readings, r)
	if len(m.readings) > history {
		m.readings = m.readings[1:]
	}

	rows := make([]table.Row, 0, len(m.readings))
	for i := len(m.readings) - 1; i >= 0; i-- {
		r := m.readings[i]

		value := fmt.Sprintf("%d", r.cpm)
		if r.err != nil {
			value = r.err.Error()
		}

		rows = append(rows, table.Row{
			r.at.Format("2006-01-02 15:04:05"),
			value,
		})
	}

	m.table.SetRows(rows)
}
