package monitor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mdouchement/gmcdump"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var cpath, port string
	var dummy bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the TUI counts-per-minute monitor display",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := gmcdump.LoadOrDefault(cpath)
			if err != nil {
				return err
			}
			log := gmcdump.NewLogger(cfg.Debug)

			dev, err := gmcdump.OpenDevice(cfg, port, dummy, log)
			if err != nil {
				return err
			}
			defer dev.Close()

			m := newTUI(dev.CPM, interval)
			tui := tea.NewProgram(m, tea.WithAltScreen())

			_, err = tui.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/gmcdump/gmcdump.yml", "Configfile path")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Serial port (default: auto-detection)")
	cmd.Flags().BoolVar(&dummy, "dummy", false, "Use a dummy device instead of real hardware")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Polling interval")

	return cmd
}
