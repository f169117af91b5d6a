package gmc

import "time"

const (
	CommRequestCharacter = '<'
	CommEndCharacters    = ">>"
	CommAckCharacter     = 0xAA
	DefaultBaudRate      = 115200
	DefaultTimeout       = 1 * time.Second
)

const (
	// GMC-500+ flash geometry. Other models carry a different flash size,
	// check the user manual before pointing this tool at them.
	DefaultFlashSize = 1 << 20
	DefaultBlockSize = 4096

	// MaxFlashReadLen is the biggest length a single SPIR request may carry.
	MaxFlashReadLen = 4096

	// MaxFlashAddress is the biggest address encodable on the 3 wire bytes.
	MaxFlashAddress = 1<<24 - 1
)

const (
	CommandGetVersion Command = iota
	CommandGetSerial
	CommandGetCPM
	CommandGetVoltage
	CommandPowerOn
	CommandPowerOff
	CommandGetClock
	CommandSetClock
	CommandReadFlash
)

// Command names and fixed response lengths of the GQ ASCII protocol.
// ReadFlash responses are sized by the request, see FrameReadFlash.
var commands = [...]struct {
	name string
	rlen int
}{
	CommandGetVersion: {"GETVER", 15},
	CommandGetSerial:  {"GETSERIAL", 7},
	CommandGetCPM:     {"GETCPM", 4},
	CommandGetVoltage: {"GETVOLT", 5},
	CommandPowerOn:    {"POWERON", 0},
	CommandPowerOff:   {"POWEROFF", 0},
	CommandGetClock:   {"GETDATETIME", 7},
	CommandSetClock:   {"SETDATETIME", 1},
	CommandReadFlash:  {"SPIR", -1},
}
