package gmc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mdouchement/logger"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var (
	ErrNotFound = errors.New("device not found/plugged")
	ErrTimeout  = errors.New("device response timeout")
)

// Controller owns the serial session with one Geiger counter. Calls are
// serialized: the device is half-duplex and answers one request at a time.
type Controller struct {
	sync    sync.Mutex
	pname   string
	serial  serial.Port
	timeout time.Duration
	log     logger.Logger
}

// OpenAuto scans the serial ports for the counter's USB bridge.
func OpenAuto(timeout time.Duration) (*Controller, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var port *enumerator.PortDetails
	for _, p := range ports {
		// GQ counters ship with a WCH CH340 USB-serial bridge.
		if p.VID == "1a86" && p.PID == "7523" {
			port = p
			break
		}
	}
	if port == nil {
		return nil, ErrNotFound
	}

	fmt.Printf("Found GMC on %s - PID: %s - VID: %s\n", port.Name, port.PID, port.VID)
	return Open(port.Name, timeout)
}

func Open(port string, timeout time.Duration) (*Controller, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Controller{
		pname:   port,
		timeout: timeout,
	}

	var err error
	c.serial, err = serial.Open(port, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	if err = c.serial.SetReadTimeout(timeout); err != nil {
		return nil, err
	}

	if err = c.serial.ResetInputBuffer(); err != nil {
		return nil, err
	}

	if err = c.serial.ResetOutputBuffer(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Controller) SetLogger(l logger.Logger) {
	c.log = l
}

func (c *Controller) Close() error {
	if err := c.serial.ResetInputBuffer(); err != nil {
		return err
	}

	if err := c.serial.ResetOutputBuffer(); err != nil {
		return err
	}

	return c.serial.Close()
}

func (c *Controller) Port() string {
	return c.pname
}

// Version reads the model and firmware version of the device.
func (c *Controller) Version() (string, error) {
	p, err := c.run(CommandGetVersion)
	if err != nil {
		return "", fmt.Errorf("get_version: %w", err)
	}
	return DecodeVersion(p)
}

// SerialNumber reads the serial number of the device.
func (c *Controller) SerialNumber() (string, error) {
	p, err := c.run(CommandGetSerial)
	if err != nil {
		return "", fmt.Errorf("get_serial: %w", err)
	}
	return DecodeSerial(p)
}

// CPM reads the current counts per minute.
func (c *Controller) CPM() (uint16, error) {
	p, err := c.run(CommandGetCPM)
	if err != nil {
		return 0, fmt.Errorf("get_cpm: %w", err)
	}
	return DecodeCPM(p)
}

// Voltage reads the battery voltage.
func (c *Controller) Voltage() (string, error) {
	p, err := c.run(CommandGetVoltage)
	if err != nil {
		return "", fmt.Errorf("get_voltage: %w", err)
	}
	return DecodeVoltage(p)
}

// Clock reads the device's own real-time clock, independent of host time.
func (c *Controller) Clock() (Clock, error) {
	p, err := c.run(CommandGetClock)
	if err != nil {
		return Clock{}, fmt.Errorf("get_datetime: %w", err)
	}
	return DecodeClock(p)
}

// SetClock writes the given clock value to the device. It never substitutes
// host time itself, the caller decides what the device clock becomes.
func (c *Controller) SetClock(clock Clock) error {
	_, err := c.roundtrip(CommandSetClock, FrameSetClock(clock), ResponseLength(CommandSetClock))
	if err != nil {
		return fmt.Errorf("set_datetime: %w", err)
	}
	return nil
}

// PowerOn turns the device on. The command is not acknowledged.
func (c *Controller) PowerOn() error {
	if _, err := c.run(CommandPowerOn); err != nil {
		return fmt.Errorf("power_on: %w", err)
	}
	return nil
}

// PowerOff turns the device off. The command is not acknowledged.
func (c *Controller) PowerOff() error {
	if _, err := c.run(CommandPowerOff); err != nil {
		return fmt.Errorf("power_off: %w", err)
	}
	return nil
}

// ReadFlash reads one block of the history flash memory.
func (c *Controller) ReadFlash(address uint32, length uint16) ([]byte, error) {
	if length > MaxFlashReadLen {
		return nil, fmt.Errorf("read_flash: length %d exceeds %d", length, MaxFlashReadLen)
	}
	if address > MaxFlashAddress {
		return nil, fmt.Errorf("read_flash: address 0x%X does not fit on 3 bytes", address)
	}

	p, err := c.roundtrip(CommandReadFlash, FrameReadFlash(address, length), int(length))
	if err != nil {
		return nil, fmt.Errorf("read_flash: %w", err)
	}
	return p, nil
}

// run frames a fixed-length command without payload and performs one round trip.
func (c *Controller) run(cmd Command) ([]byte, error) {
	return c.roundtrip(cmd, Frame(cmd), ResponseLength(cmd))
}

// roundtrip writes one frame and reads exactly want response bytes, or fails
// with ErrTimeout once the read timeout expires on an incomplete response.
func (c *Controller) roundtrip(cmd Command, frame []byte, want int) ([]byte, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	n, err := c.serial.Write(frame)
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if n != len(frame) && c.log != nil {
		c.log.Warnf("Invalid write: %d of %d", n, len(frame))
	}

	if want == 0 {
		return nil, nil
	}

	buf := make([]byte, want)
	var got int
	for got < want {
		n, err = c.serial.Read(buf[got:])
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %d of %d bytes", ErrTimeout, got, want)
		}
		got += n
	}

	if c.log != nil {
		c.log.Debugf("%s: %d response bytes", cmd, got)
	}

	return buf, nil
}
