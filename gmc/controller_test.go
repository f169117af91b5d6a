package gmc

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort scripts one device exchange: everything written is recorded, reads
// drain the canned response then behave like an expired read timeout.
type fakePort struct {
	written  bytes.Buffer
	response bytes.Reader
	chunk    int // Biggest read served at once, 0 means all at once.
}

func newFakePort(response []byte) *fakePort {
	p := &fakePort{}
	p.response.Reset(response)
	return p
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.written.Write(b)
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.chunk > 0 && len(b) > p.chunk {
		b = b[:p.chunk]
	}

	n, err := p.response.Read(b)
	if err != nil {
		return 0, nil // Out of scripted data: the hardware stays silent.
	}
	return n, nil
}

func (p *fakePort) SetMode(mode *serial.Mode) error                      { return nil }
func (p *fakePort) Drain() error                                         { return nil }
func (p *fakePort) ResetInputBuffer() error                              { return nil }
func (p *fakePort) ResetOutputBuffer() error                             { return nil }
func (p *fakePort) SetDTR(dtr bool) error                                { return nil }
func (p *fakePort) SetRTS(rts bool) error                                { return nil }
func (p *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (p *fakePort) SetReadTimeout(t time.Duration) error                 { return nil }
func (p *fakePort) Close() error                                         { return nil }
func (p *fakePort) Break(d time.Duration) error                          { return nil }

func controllerWith(port serial.Port) *Controller {
	return &Controller{pname: "x-testing", serial: port, timeout: DefaultTimeout}
}

func TestControllerVersion(t *testing.T) {
	port := newFakePort([]byte("GMC-500+Re 2.22"))
	c := controllerWith(port)

	v, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "GMC-500+Re 2.22", v)
	assert.Equal(t, "<GETVER>>", port.written.String())
}

func TestControllerVersionChunkedReads(t *testing.T) {
	port := newFakePort([]byte("GMC-500+Re 2.22"))
	port.chunk = 4
	c := controllerWith(port)

	v, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "GMC-500+Re 2.22", v)
}

func TestControllerCPM(t *testing.T) {
	port := newFakePort([]byte{0x00, 0x00, 0x00, 0x21})
	c := controllerWith(port)

	cpm, err := c.CPM()
	require.NoError(t, err)
	assert.Equal(t, uint16(33), cpm)
	assert.Equal(t, "<GETCPM>>", port.written.String())
}

func TestControllerClock(t *testing.T) {
	port := newFakePort([]byte{23, 10, 7, 17, 19, 34, 0xAA})
	c := controllerWith(port)

	clock, err := c.Clock()
	require.NoError(t, err)
	assert.Equal(t, Clock{Year: 23, Month: 10, Day: 7, Hour: 17, Minute: 19, Second: 34}, clock)
	assert.Equal(t, "<GETDATETIME>>", port.written.String())
}

func TestControllerSetClock(t *testing.T) {
	port := newFakePort([]byte{CommAckCharacter})
	c := controllerWith(port)

	err := c.SetClock(Clock{Year: 26, Month: 8, Day: 31, Hour: 9, Minute: 30, Second: 12})
	require.NoError(t, err)

	expected := append([]byte("<SETDATETIME"), 26, 8, 31, 9, 30, 12)
	expected = append(expected, ">>"...)
	assert.Equal(t, expected, port.written.Bytes())
}

func TestControllerPowerOn(t *testing.T) {
	port := newFakePort(nil)
	c := controllerWith(port)

	// No acknowledgement expected: a silent device is a success.
	require.NoError(t, c.PowerOn())
	assert.Equal(t, "<POWERON>>", port.written.String())

	port.written.Reset()
	require.NoError(t, c.PowerOff())
	assert.Equal(t, "<POWEROFF>>", port.written.String())
}

func TestControllerTimeout(t *testing.T) {
	port := newFakePort(nil)
	c := controllerWith(port)

	_, err := c.Version()
	require.ErrorIs(t, err, ErrTimeout)
}

func TestControllerShortResponseTimeout(t *testing.T) {
	port := newFakePort([]byte("GMC-500"))
	c := controllerWith(port)

	_, err := c.Version()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "7 of 15")
}

func TestControllerReadFlash(t *testing.T) {
	block := bytes.Repeat([]byte{0x2A}, 256)
	port := newFakePort(block)
	c := controllerWith(port)

	p, err := c.ReadFlash(0x012345, 256)
	require.NoError(t, err)
	assert.Equal(t, block, p)

	expected := append([]byte("<SPIR"), 0x01, 0x23, 0x45, 0x01, 0x00)
	expected = append(expected, ">>"...)
	assert.Equal(t, expected, port.written.Bytes())
}

func TestControllerReadFlashValidation(t *testing.T) {
	c := controllerWith(newFakePort(nil))

	_, err := c.ReadFlash(0, MaxFlashReadLen+1)
	assert.ErrorContains(t, err, "length")

	_, err = c.ReadFlash(MaxFlashAddress+1, 16)
	assert.ErrorContains(t, err, "address")
}
