package dump

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/gmcdump"
)

var titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00afff"))

type resultMsg struct {
	image []byte
	err   error
}

type model struct {
	progress progress.Model
	blocks   int
	current  int
	cancel   context.CancelFunc
	image    []byte
	err      error
}

func newTUI(blocks int, cancel context.CancelFunc) *model {
	return &model{
		progress: progress.New(progress.WithDefaultGradient()),
		blocks:   blocks,
		cancel:   cancel,
	}
}

// readTUI runs the bulk read behind a progress display. The read itself runs
// off the interaction loop, one Progress message per assembled block.
func readTUI(ctx context.Context, cancel context.CancelFunc, dumper *gmcdump.Dumper) ([]byte, error) {
	m := newTUI(dumper.Blocks(), cancel)
	tui := tea.NewProgram(m)

	dumper.OnProgress(func(p gmcdump.Progress) {
		tui.Send(p)
	})

	go func() {
		image, err := dumper.Read(ctx)
		tui.Send(resultMsg{image: image, err: err})
	}()

	out, err := tui.Run()
	if err != nil {
		return nil, err
	}

	m = out.(*model)
	return m.image, m.err
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4
	case gmcdump.Progress:
		m.current = msg.Block
	case resultMsg:
		m.image, m.err = msg.image, msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// The read stops at the next block boundary and reports
			// context.Canceled through resultMsg.
			m.cancel()
		}
	}
	return m, nil
}

func (m *model) View() string {
	percent := float64(m.current) / float64(m.blocks)
	return fmt.Sprintf("%s\n\n  %s\n\n  Block %d of %d\n",
		titleStyle.Render("  Reading history flash"),
		m.progress.ViewAs(percent), m.current, m.blocks)
}
