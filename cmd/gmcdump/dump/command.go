package dump

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mdouchement/gmcdump"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var cpath, port, output string
	var dummy, plain bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Read the whole history flash into a binary image file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			dumper, err := gmcdump.NewDumper(dev, cfg.FlashSize, cfg.BlockSize)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var image []byte
			if plain {
				dumper.OnProgress(func(p gmcdump.Progress) {
					log.Infof("Reading block %d of %d", p.Block, p.Blocks)
				})
				image, err = dumper.Read(ctx)
			} else {
				image, err = readTUI(ctx, cancel, dumper)
			}
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("GMC-500-History-%s.bin", time.Now().Format("20060102_15_04_05"))
			}

			// The image is written verbatim, no framing added: export reads
			// this same byte layout back.
			if err := os.WriteFile(output, image, 0o644); err != nil {
				return err
			}

			log.Infof("Received %d bytes, wrote %s", len(image), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/gmcdump/gmcdump.yml", "Configfile path")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Serial port (default: auto-detection)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Image file path (default: GMC-500-History-<stamp>.bin)")
	cmd.Flags().BoolVar(&dummy, "dummy", false, "Use a dummy device instead of real hardware")
	cmd.Flags().BoolVar(&plain, "plain", false, "Log progress line by line instead of the TUI")

	return cmd
}
