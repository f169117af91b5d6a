package gmcdump

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mdouchement/logger"
)

const (
	markerByte1 = 0x55
	markerByte2 = 0xAA

	tagTimestamp = 0x00
	tagWideValue = 0x01
	tagNewWindow = 0x05

	timestampRecordLen = 12
	wideValueRecordLen = 5

	// RowSamples is the number of samples aggregated into one Row.
	RowSamples = 60
)

// A Row is one decoded aggregation window of the history log. Total is
// always the sum of Samples.
type Row struct {
	Timestamp time.Time
	Mode      SaveMode
	Total     uint32
	Samples   []uint16
}

// A DecodeError reports where a scan stopped and how many rows were emitted
// before that point. Rows returned alongside it remain valid.
type DecodeError struct {
	Pos  int
	Rows int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("history decode stopped at byte %d after %d rows: %s", e.Pos, e.Rows, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder scans a flash history image left to right, one row at a time. It
// never looks backward and is single use: a finished or failed scan cannot be
// resumed, decode a fresh image instead.
//
// The stream interleaves single-byte counts with 0x55 0xAA marker records
// (timestamp, new window, wide value). A lone 0x55 not followed by 0xAA is a
// genuine count, one byte of lookahead disambiguates.
type Decoder struct {
	data []byte
	pos  int

	ts      time.Time
	mode    SaveMode
	haveTS  bool
	samples []uint16

	rows    int
	dropped int
	done    bool
	err     error

	log logger.Logger
}

func NewDecoder(image []byte) *Decoder {
	return &Decoder{
		data:    image,
		samples: make([]uint16, 0, RowSamples),
	}
}

func (d *Decoder) SetLogger(l logger.Logger) {
	d.log = l
}

// Rows reports how many rows have been emitted so far.
func (d *Decoder) Rows() int {
	return d.rows
}

// Dropped reports how many partially filled windows were discarded, either by
// a new-window marker or by the end of the recorded area.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Next returns the following row of the image. It returns io.EOF once the
// unused-flash sentinel or the end of the image is reached, and a
// *DecodeError if the stream is corrupt. Both are terminal.
func (d *Decoder) Next() (Row, error) {
	if d.err != nil {
		return Row{}, d.err
	}
	if d.done {
		return Row{}, io.EOF
	}

	for d.pos < len(d.data) {
		// Unused flash is erased to 0xFF. Three in a row mark the end of
		// the recorded area.
		if d.sentinel() {
			break
		}

		b := d.data[d.pos]
		if b == markerByte1 && d.pos+1 < len(d.data) && d.data[d.pos+1] == markerByte2 {
			row, emitted, err := d.record()
			if err != nil {
				return Row{}, err
			}
			if emitted {
				return row, nil
			}
			continue
		}

		d.pos++
		if row, emitted := d.sample(uint16(b)); emitted {
			return row, nil
		}
	}

	d.done = true
	if n := len(d.samples); n > 0 {
		d.dropped++
		if d.log != nil {
			d.log.Debugf("Dropping partial window of %d samples at end of recorded data", n)
		}
	}

	return Row{}, io.EOF
}

// record consumes the marker record at the cursor. Timestamp records update
// the held timestamp and mode, wide-value records contribute one sample and
// may complete a row.
func (d *Decoder) record() (Row, bool, error) {
	if d.pos+2 >= len(d.data) {
		return Row{}, false, d.fail(errors.New("truncated record: marker without tag"))
	}

	switch tag := d.data[d.pos+2]; tag {
	case tagTimestamp, tagNewWindow:
		if d.pos+timestampRecordLen > len(d.data) {
			return Row{}, false, d.fail(errors.New("truncated timestamp record"))
		}

		if tag == tagNewWindow && len(d.samples) > 0 {
			// The device opens a new aggregation window: whatever was
			// collected for the previous one is discarded.
			d.dropped++
			if d.log != nil {
				d.log.Debugf("New window at byte %d, dropping %d pending samples", d.pos, len(d.samples))
			}
			d.samples = d.samples[:0]
		}

		mode, err := ParseSaveMode(d.data[d.pos+11])
		if err != nil {
			return Row{}, false, d.fail(err)
		}

		p := d.data[d.pos+4 : d.pos+10]
		d.ts = time.Date(2000+int(p[0]), time.Month(p[1]), int(p[2]),
			int(p[3]), int(p[4]), int(p[5]), 0, time.Local)
		d.mode = mode
		d.haveTS = true
		d.pos += timestampRecordLen
		return Row{}, false, nil

	case tagWideValue:
		if d.pos+wideValueRecordLen > len(d.data) {
			return Row{}, false, d.fail(errors.New("truncated wide-value record"))
		}

		v := uint16(d.data[d.pos+3])<<8 | uint16(d.data[d.pos+4])
		d.pos += wideValueRecordLen
		row, emitted := d.sample(v)
		return row, emitted, nil

	default:
		return Row{}, false, d.fail(fmt.Errorf("unknown record tag 0x%02X", tag))
	}
}

// sample appends one count to the pending window and finalizes a Row once 60
// are collected. Counts recorded before the first timestamp cannot be dated
// and are skipped.
func (d *Decoder) sample(v uint16) (Row, bool) {
	if !d.haveTS {
		return Row{}, false
	}

	d.samples = append(d.samples, v)
	if len(d.samples) < RowSamples {
		return Row{}, false
	}

	row := Row{
		Timestamp: d.ts,
		Mode:      d.mode,
		Samples:   make([]uint16, RowSamples),
	}
	copy(row.Samples, d.samples)
	for _, s := range row.Samples {
		row.Total += uint32(s)
	}

	d.samples = d.samples[:0]
	d.ts = d.ts.Add(time.Minute) // Next window, unless a timestamp marker overrides it.
	d.rows++
	return row, true
}

func (d *Decoder) sentinel() bool {
	return d.pos+2 < len(d.data) &&
		d.data[d.pos] == 0xFF && d.data[d.pos+1] == 0xFF && d.data[d.pos+2] == 0xFF
}

func (d *Decoder) fail(err error) error {
	d.err = &DecodeError{Pos: d.pos, Rows: d.rows, Err: err}
	return d.err
}

// DecodeHistory scans a whole image. On a corrupt stream the rows decoded
// before the failure are returned alongside the *DecodeError.
func DecodeHistory(image []byte) ([]Row, error) {
	d := NewDecoder(image)

	var rows []Row
	for {
		row, err := d.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}
