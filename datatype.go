package gmcdump

import (
	"fmt"
	"time"

	"github.com/mdouchement/gmcdump/gmc"
)

// Device is the command surface of a GQ Geiger counter.
type Device interface {
	Version() (string, error)
	SerialNumber() (string, error)
	CPM() (uint16, error)
	Voltage() (string, error)
	Clock() (gmc.Clock, error)
	SetClock(gmc.Clock) error
	PowerOn() error
	PowerOff() error
	ReadFlash(address uint32, length uint16) ([]byte, error)
	Port() string
	Close() error
}

// SaveMode is the device-configured sampling cadence of the history log.
type SaveMode uint8

const (
	SaveOff SaveMode = iota
	SaveEverySecond
	SaveEveryMinute
	SaveEveryHour
	SaveEverySecondThreshold
	SaveEveryMinuteThreshold
)

// ParseSaveMode maps a history record mode byte to a SaveMode. Codes outside
// 0-5 are a decode error, never a silent default.
func ParseSaveMode(b byte) (SaveMode, error) {
	if b > byte(SaveEveryMinuteThreshold) {
		return 0, fmt.Errorf("unknown save mode %d (allowed: 0-5)", b)
	}
	return SaveMode(b), nil
}

// Interval returns the time covered by one sample in this mode.
func (m SaveMode) Interval() time.Duration {
	switch m {
	case SaveEverySecond, SaveEverySecondThreshold:
		return time.Second
	case SaveEveryMinute, SaveEveryMinuteThreshold:
		return time.Minute
	case SaveEveryHour:
		return time.Hour
	default:
		return 0
	}
}

func (m SaveMode) String() string {
	switch m {
	case SaveOff:
		return "history saving deactivated"
	case SaveEverySecond:
		return "Every Second"
	case SaveEveryMinute:
		return "Every Minute"
	case SaveEveryHour:
		return "Every Hour"
	case SaveEverySecondThreshold:
		return "Every Second if exceeding threshold"
	case SaveEveryMinuteThreshold:
		return "Every Minute if exceeding threshold"
	default:
		return fmt.Sprintf("SaveMode(%d)", uint8(m))
	}
}

func ToPtr[T any](v T) *T {
	return &v
}

// Progress reports one completed flash block of a bulk read.
type Progress struct {
	Block  int // 1-based index of the block just assembled
	Blocks int
	Bytes  int // total bytes assembled so far
}
