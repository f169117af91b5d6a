package gmcdump

import (
	"log/slog"
	"os"
	"regexp"

	"github.com/mdouchement/gmcdump/gmc"
	"github.com/mdouchement/logger"
)

// NewLogger returns the logger used by all gmcdump commands.
func NewLogger(debug bool) logger.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := logger.NewSlogTextHandler(os.Stdout, &logger.SlogTextOption{
		Level:           level,
		ForceColors:     true,
		ForceFormatting: true,
		PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger.WrapSlogHandler(h)
}

// OpenDevice opens the counter for one command invocation. The port flag
// wins over the configfile, an empty port means auto-detection, and dummy
// replaces the hardware with an in-memory device.
func OpenDevice(cfg Config, port string, dummy bool, log logger.Logger) (Device, error) {
	if dummy {
		dev := NewDummyDevice(cfg.FlashSize)
		dev.SetLogger(log)
		return dev, nil
	}

	if port == "" {
		port = cfg.Port
	}

	var ctrl *gmc.Controller
	var err error
	if port == "" {
		ctrl, err = gmc.OpenAuto(cfg.Timeout.Duration)
	} else {
		ctrl, err = gmc.Open(port, cfg.Timeout.Duration)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		ctrl.SetLogger(log)
	}

	return ctrl, nil
}
