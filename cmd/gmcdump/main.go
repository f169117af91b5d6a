package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mdouchement/gmcdump"
	"github.com/mdouchement/gmcdump/cmd/gmcdump/chart"
	"github.com/mdouchement/gmcdump/cmd/gmcdump/dump"
	"github.com/mdouchement/gmcdump/cmd/gmcdump/monitor"
	"github.com/mdouchement/gmcdump/gmc"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

const defaultConfigPath = "/etc/gmcdump/gmcdump.yml"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"
)

func main() {
	cmd := &cobra.Command{
		Use:     "gmcdump",
		Short:   "A history export tool for GQ GMC-500+ Geiger counters",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
	}
	cmd.AddCommand(portsCommand())
	cmd.AddCommand(infoCommand())
	cmd.AddCommand(cpmCommand())
	cmd.AddCommand(powerCommand())
	cmd.AddCommand(clockCommand())
	cmd.AddCommand(exportCommand())
	cmd.AddCommand(dump.Command())
	cmd.AddCommand(monitor.Command())
	cmd.AddCommand(chart.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for gmcdump",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func deviceFlags(cmd *cobra.Command, cpath, port *string, dummy *bool) {
	cmd.Flags().StringVarP(cpath, "config", "c", defaultConfigPath, "Configfile path")
	cmd.Flags().StringVarP(port, "port", "p", "", "Serial port (default: auto-detection)")
	cmd.Flags().BoolVar(dummy, "dummy", false, "Use a dummy device instead of real hardware")
}

func connect(cpath, port string, dummy bool) (gmcdump.Config, logger.Logger, gmcdump.Device, error) {
	cfg, err := gmcdump.LoadOrDefault(cpath)
	if err != nil {
		return cfg, nil, nil, err
	}

	log := gmcdump.NewLogger(cfg.Debug)

	dev, err := gmcdump.OpenDevice(cfg, port, dummy, log)
	return cfg, log, dev, err
}

func portsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports available on this host",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("No serial port found")
				return nil
			}

			for _, p := range ports {
				if !p.IsUSB {
					fmt.Println(p.Name)
					continue
				}
				fmt.Printf("%s - PID: %s - VID: %s - SN: %s\n", p.Name, p.PID, p.VID, p.SerialNumber)
			}
			return nil
		},
	}
}

func infoCommand() *cobra.Command {
	var cpath, port string
	var dummy bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show version, serial number, voltage and clock of the device",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, log, dev, err := connect(cpath, port, dummy)
			if err != nil {
				return err
			}
			defer dev.Close()

			ver, err := dev.Version()
			if err != nil {
				return err
			}
			log.Infof("Version: %s", ver)

			sn, err := dev.SerialNumber()
			if err != nil {
				return err
			}
			log.Infof("Serial number: %s", sn)

			volt, err := dev.Voltage()
			if err != nil {
				return err
			}
			log.Infof("Battery voltage: %s", volt)

			clock, err := dev.Clock()
			if err != nil {
				return err
			}
			log.Infof("Device clock: %s", clock.Time().Format("2006-01-02 15:04:05"))

			return nil
		},
	}
	deviceFlags(cmd, &cpath, &port, &dummy)

	return cmd
}

func cpmCommand() *cobra.Command {
	var cpath, port string
	var dummy bool

	cmd := &cobra.Command{
		Use:   "cpm",
		Short: "Read the current counts per minute",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, _, dev, err := connect(cpath, port, dummy)
			if err != nil {
				return err
			}
			defer dev.Close()

			cpm, err := dev.CPM()
			if err != nil {
				return err
			}

			fmt.Println(cpm)
			return nil
		},
	}
	deviceFlags(cmd, &cpath, &port, &dummy)

	return cmd
}

func powerCommand() *cobra.Command {
	var cpath, port string
	var dummy bool

	cmd := &cobra.Command{
		Use:       "power on|off",
		Short:     "Power the device on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(_ *cobra.Command, args []string) error {
			_, log, dev, err := connect(cpath, port, dummy)
			if err != nil {
				return err
			}
			defer dev.Close()

			switch args[0] {
			case "on":
				err = dev.PowerOn()
			case "off":
				err = dev.PowerOff()
			}
			if err != nil {
				// Power commands are not acknowledged, a failure here is
				// reported but does not end the session.
				log.WithError(err).Warnf("Could not power %s the device", args[0])
				return nil
			}

			log.Infof("Device powered %s", args[0])
			return nil
		},
	}
	deviceFlags(cmd, &cpath, &port, &dummy)

	return cmd
}

func clockCommand() *cobra.Command {
	var cpath, port string
	var dummy bool

	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Read the device clock",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, log, dev, err := connect(cpath, port, dummy)
			if err != nil {
				return err
			}
			defer dev.Close()

			clock, err := dev.Clock()
			if err != nil {
				return err
			}

			log.Infof("Device clock: %s", clock.Time().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	deviceFlags(cmd, &cpath, &port, &dummy)

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Set the device clock from the host clock",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, log, dev, err := connect(cpath, port, dummy)
			if err != nil {
				return err
			}
			defer dev.Close()

			now := time.Now()
			if err := dev.SetClock(gmc.ClockOf(now)); err != nil {
				return err
			}

			log.Infof("Device clock set to %s", now.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	cmd.AddCommand(sync)

	return cmd
}

func exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export file.bin",
		Short: "Parse a history image file and export it to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log := gmcdump.NewLogger(false)

			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rows, err := gmcdump.DecodeHistory(image)
			if err != nil {
				// The image itself was fully read: export what decoded.
				var derr *gmcdump.DecodeError
				if !errors.As(err, &derr) {
					return err
				}
				log.WithError(derr).Warn("Corrupt history stream")
			}
			log.Infof("Decoded %d rows", len(rows))

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".csv"
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := gmcdump.WriteCSV(f, rows); err != nil {
				return err
			}

			log.Infof("Wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file path (default: the image path with a .csv extension)")

	return cmd
}
