package gmcdump

import (
	"context"
	"fmt"

	"github.com/mdouchement/gmcdump/gmc"
)

// A Dumper assembles the full history image of the device flash, one block
// per request, in increasing address order. The device is half-duplex and
// stateful per request: blocks are never read in parallel.
type Dumper struct {
	dev       Device
	flashSize int
	blockSize int
	progress  func(Progress)
}

func NewDumper(dev Device, flashSize, blockSize int) (*Dumper, error) {
	if flashSize <= 0 {
		return nil, fmt.Errorf("invalid flash size %d", flashSize)
	}
	if blockSize <= 0 || blockSize > gmc.MaxFlashReadLen {
		return nil, fmt.Errorf("invalid block size %d (allowed: 1-%d)", blockSize, gmc.MaxFlashReadLen)
	}

	return &Dumper{
		dev:       dev,
		flashSize: flashSize,
		blockSize: blockSize,
	}, nil
}

// OnProgress registers a callback invoked after each assembled block.
func (d *Dumper) OnProgress(fn func(Progress)) {
	d.progress = fn
}

// Blocks returns the number of requests a full read issues.
func (d *Dumper) Blocks() int {
	return (d.flashSize + d.blockSize - 1) / d.blockSize
}

// Read performs the bulk read. Cancellation is honored between blocks only, a
// block transfer in flight always runs to completion. Any block failure
// aborts the whole read, no partial image is ever returned. The per-call
// timeout of the device applies to each block, not to the whole read.
func (d *Dumper) Read(ctx context.Context) ([]byte, error) {
	blocks := d.Blocks()
	image := make([]byte, 0, d.flashSize)

	for i := 1; i <= blocks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		length := d.blockSize
		if remaining := d.flashSize - (i-1)*d.blockSize; remaining < length {
			length = remaining
		}

		block, err := d.dev.ReadFlash(uint32(d.blockSize*i), uint16(length))
		if err != nil {
			return nil, fmt.Errorf("block %d of %d: %w", i, blocks, err)
		}
		if len(block) != length {
			return nil, fmt.Errorf("block %d of %d: got %d bytes, want %d", i, blocks, len(block), length)
		}

		image = append(image, block...)
		if d.progress != nil {
			d.progress(Progress{Block: i, Blocks: blocks, Bytes: len(image)})
		}
	}

	return image, nil
}
