package gmcdump

import (
	"context"
	"testing"

	"github.com/mdouchement/gmcdump/gmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flashRead struct {
	address uint32
	length  uint16
}

// fakeFlash is a Device whose flash reads echo the low byte of the address,
// making block boundaries visible in the assembled image.
type fakeFlash struct {
	DummyDevice
	reads  []flashRead
	failAt int // 1-based block index to fail at, 0 means never.
}

func (c *fakeFlash) ReadFlash(address uint32, length uint16) ([]byte, error) {
	c.reads = append(c.reads, flashRead{address: address, length: length})

	if c.failAt > 0 && len(c.reads) == c.failAt {
		return nil, gmc.ErrTimeout
	}

	block := make([]byte, length)
	for i := range block {
		block[i] = byte(address)
	}
	return block, nil
}

func TestDumperFullRead(t *testing.T) {
	dev := &fakeFlash{}
	d, err := NewDumper(dev, gmc.DefaultFlashSize, gmc.DefaultBlockSize)
	require.NoError(t, err)
	require.Equal(t, 256, d.Blocks())

	var progress []Progress
	d.OnProgress(func(p Progress) {
		progress = append(progress, p)
	})

	image, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, image, gmc.DefaultFlashSize)

	// Strictly increasing addresses: 4096, 8192, ..., 1048576.
	require.Len(t, dev.reads, 256)
	for i, read := range dev.reads {
		assert.Equal(t, uint32(gmc.DefaultBlockSize*(i+1)), read.address)
		assert.Equal(t, uint16(gmc.DefaultBlockSize), read.length)
	}

	require.Len(t, progress, 256)
	for i, p := range progress {
		assert.Equal(t, i+1, p.Block)
		assert.Equal(t, 256, p.Blocks)
		assert.Equal(t, (i+1)*gmc.DefaultBlockSize, p.Bytes)
	}
}

func TestDumperShortFinalBlock(t *testing.T) {
	dev := &fakeFlash{}
	d, err := NewDumper(dev, 10000, 4096)
	require.NoError(t, err)
	require.Equal(t, 3, d.Blocks())

	image, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, image, 10000)

	require.Len(t, dev.reads, 3)
	assert.Equal(t, flashRead{address: 4096, length: 4096}, dev.reads[0])
	assert.Equal(t, flashRead{address: 8192, length: 4096}, dev.reads[1])
	assert.Equal(t, flashRead{address: 12288, length: 1808}, dev.reads[2])
}

func TestDumperAbortsOnBlockFailure(t *testing.T) {
	dev := &fakeFlash{failAt: 2}
	d, err := NewDumper(dev, 16384, 4096)
	require.NoError(t, err)

	image, err := d.Read(context.Background())
	assert.Nil(t, image) // No partial image on failure.
	require.ErrorIs(t, err, gmc.ErrTimeout)
	assert.ErrorContains(t, err, "block 2 of 4")
	assert.Len(t, dev.reads, 2)
}

func TestDumperCancellation(t *testing.T) {
	dev := &fakeFlash{}
	d, err := NewDumper(dev, 16384, 4096)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d.OnProgress(func(p Progress) {
		if p.Block == 1 {
			cancel()
		}
	})

	image, err := d.Read(ctx)
	assert.Nil(t, image)
	require.ErrorIs(t, err, context.Canceled)

	// Cancellation is only honored at block boundaries.
	assert.Len(t, dev.reads, 1)
}

func TestDumperValidation(t *testing.T) {
	dev := &fakeFlash{}

	_, err := NewDumper(dev, 0, 4096)
	assert.ErrorContains(t, err, "flash size")

	_, err = NewDumper(dev, 16384, 0)
	assert.ErrorContains(t, err, "block size")

	_, err = NewDumper(dev, 16384, gmc.MaxFlashReadLen+1)
	assert.ErrorContains(t, err, "block size")
}

func TestDumpedDummyDeviceDecodes(t *testing.T) {
	dev := NewDummyDevice(64 << 10)
	d, err := NewDumper(dev, 64<<10, 4096)
	require.NoError(t, err)

	image, err := d.Read(context.Background())
	require.NoError(t, err)

	rows, err := DecodeHistory(image)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	for _, row := range rows {
		require.Len(t, row.Samples, RowSamples)

		var sum uint32
		for _, s := range row.Samples {
			sum += uint32(s)
		}
		assert.Equal(t, sum, row.Total)
	}
}
