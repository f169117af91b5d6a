package gmc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// A FramingError reports a device response whose length does not match the
// one expected for the command.
type FramingError struct {
	Command Command
	Want    int
	Got     int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s: response length %d, want %d", e.Command, e.Got, e.Want)
}

// Frame renders the on-wire request for a command: '<' + name + payload + ">>".
// Payload bytes, when any, are big-endian packed integers.
func Frame(cmd Command, payload ...byte) []byte {
	name := commands[cmd].name
	frame := make([]byte, 0, 3+len(name)+len(payload))
	frame = append(frame, CommRequestCharacter)
	frame = append(frame, name...)
	frame = append(frame, payload...)
	return append(frame, CommEndCharacters...)
}

// FrameReadFlash renders the SPIR request for one flash block: the address is
// packed MSB first on 3 bytes, the length on 2. The device answers with
// exactly length raw bytes, no framing added.
func FrameReadFlash(address uint32, length uint16) []byte {
	var payload [5]byte
	payload[0] = byte(address >> 16)
	payload[1] = byte(address >> 8)
	payload[2] = byte(address)
	binary.BigEndian.PutUint16(payload[3:], length)
	return Frame(CommandReadFlash, payload[:]...)
}

// FrameSetClock renders the SETDATETIME request carrying the six clock fields.
func FrameSetClock(c Clock) []byte {
	return Frame(CommandSetClock, c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
}

// ResponseLength returns the exact number of response bytes of a command.
func ResponseLength(cmd Command) int {
	return commands[cmd].rlen
}

func checkLength(cmd Command, p []byte) error {
	if want := ResponseLength(cmd); len(p) != want {
		return &FramingError{Command: cmd, Want: want, Got: len(p)}
	}
	return nil
}

// DecodeVersion decodes the GETVER response, an ASCII model+firmware string.
func DecodeVersion(p []byte) (string, error) {
	if err := checkLength(CommandGetVersion, p); err != nil {
		return "", err
	}
	return string(p), nil
}

// DecodeSerial decodes the GETSERIAL response, stripping carriage returns.
func DecodeSerial(p []byte) (string, error) {
	if err := checkLength(CommandGetSerial, p); err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(p), "\r", ""), nil
}

// DecodeCPM decodes the GETCPM response. The count sits at byte offset 2.
func DecodeCPM(p []byte) (uint16, error) {
	if err := checkLength(CommandGetCPM, p); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p[2:4]), nil
}

// DecodeVoltage decodes the GETVOLT response, an ASCII battery voltage.
func DecodeVoltage(p []byte) (string, error) {
	if err := checkLength(CommandGetVoltage, p); err != nil {
		return "", err
	}
	return string(p), nil
}

// DecodeClock decodes the GETDATETIME response: six clock fields, one byte
// each, plus a final byte that is ignored.
func DecodeClock(p []byte) (Clock, error) {
	if err := checkLength(CommandGetClock, p); err != nil {
		return Clock{}, err
	}
	return Clock{
		Year:   p[0],
		Month:  p[1],
		Day:    p[2],
		Hour:   p[3],
		Minute: p[4],
		Second: p[5],
	}, nil
}
