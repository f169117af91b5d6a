package gmcdump

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mdouchement/gmcdump/gmc"
	"github.com/mdouchement/logger"
)

// A DummyDevice should only be used for dev & tests. It serves a synthetic
// but well formed history flash so every command runs hardware-free.
type DummyDevice struct {
	sync    sync.Mutex
	log     logger.Logger
	rand    *rand.Rand
	clock   gmc.Clock
	image   []byte
	powered bool
}

func NewDummyDevice(flashSize int) *DummyDevice {
	c := &DummyDevice{
		rand:    rand.New(rand.NewPCG(925, 0)),
		clock:   gmc.ClockOf(time.Now()),
		powered: true,
	}
	c.image = c.synthFlash(flashSize)

	return c
}

func (c *DummyDevice) SetLogger(l logger.Logger) {
	c.log = l
}

func (c *DummyDevice) Close() error {
	return nil
}

func (c *DummyDevice) Port() string {
	return "x-testing"
}

func (c *DummyDevice) Version() (string, error) {
	return "GMC-500+Re 2.22", nil
}

func (c *DummyDevice) SerialNumber() (string, error) {
	return "F488007", nil
}

func (c *DummyDevice) CPM() (uint16, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	return uint16(15 + c.rand.IntN(25)), nil
}

func (c *DummyDevice) Voltage() (string, error) {
	return "4.80v", nil
}

func (c *DummyDevice) Clock() (gmc.Clock, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	return c.clock, nil
}

func (c *DummyDevice) SetClock(clock gmc.Clock) error {
	c.sync.Lock()
	defer c.sync.Unlock()

	c.clock = clock
	return nil
}

func (c *DummyDevice) PowerOn() error {
	c.sync.Lock()
	defer c.sync.Unlock()

	c.powered = true
	return nil
}

func (c *DummyDevice) PowerOff() error {
	c.sync.Lock()
	defer c.sync.Unlock()

	c.powered = false
	return nil
}

// ReadFlash serves one block of the synthetic flash. Reads past the end wrap
// around to address 0, the way the hardware answers the documented bulk-read
// sequence whose last block runs past the nominal flash end.
func (c *DummyDevice) ReadFlash(address uint32, length uint16) ([]byte, error) {
	if length > gmc.MaxFlashReadLen {
		return nil, fmt.Errorf("read_flash: length %d exceeds %d", length, gmc.MaxFlashReadLen)
	}

	c.sync.Lock()
	defer c.sync.Unlock()

	if c.log != nil {
		c.log.Debugf("Dummy flash read of %d bytes at 0x%06X", length, address)
	}

	block := make([]byte, length)
	for i := range block {
		block[i] = c.image[(int(address)+i)%len(c.image)]
	}

	return block, nil
}

// synthFlash builds an erased flash image holding a plausible history
// stream: a new-window timestamp record every three minutes, pseudo random
// per-second counts with the occasional wide value, 0xFF everywhere else.
// The stream starts where the first bulk-read block lands so a dump of this
// device decodes cleanly.
func (c *DummyDevice) synthFlash(size int) []byte {
	image := make([]byte, size)
	for i := range image {
		image[i] = 0xFF
	}

	start := gmc.DefaultBlockSize
	if start >= size {
		start = 0
	}

	at := time.Now().Add(-6 * time.Hour).Truncate(time.Minute)
	pos := start
	for minute := range 180 {
		if pos+timestampRecordLen+RowSamples*wideValueRecordLen+3 > len(image) {
			break
		}

		if minute%3 == 0 {
			pos += c.synthTimestamp(image[pos:], at)
		}

		for range RowSamples {
			v := c.rand.IntN(40)
			if c.rand.IntN(400) == 0 {
				v = 256 + c.rand.IntN(200)
			}

			if v > 255 {
				image[pos] = markerByte1
				image[pos+1] = markerByte2
				image[pos+2] = tagWideValue
				image[pos+3] = byte(v >> 8)
				image[pos+4] = byte(v)
				pos += wideValueRecordLen
				continue
			}

			image[pos] = byte(v)
			pos++
		}

		at = at.Add(time.Minute)
	}

	return image
}

func (c *DummyDevice) synthTimestamp(p []byte, at time.Time) int {
	clock := gmc.ClockOf(at)

	p[0] = markerByte1
	p[1] = markerByte2
	p[2] = tagNewWindow
	p[3] = 0x00
	p[4] = clock.Year
	p[5] = clock.Month
	p[6] = clock.Day
	p[7] = clock.Hour
	p[8] = clock.Minute
	p[9] = clock.Second
	p[10] = 0x00
	p[11] = byte(SaveEverySecond)

	return timestampRecordLen
}
