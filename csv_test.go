package gmcdump

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	samples := make([]uint16, RowSamples)
	var total uint32
	for i := range samples {
		samples[i] = uint16(i)
		total += uint32(i)
	}

	rows := []Row{
		{
			Timestamp: time.Date(2023, 10, 7, 17, 19, 0, 0, time.Local),
			Mode:      SaveEverySecond,
			Total:     total,
			Samples:   samples,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	content := buf.String()
	i := strings.Index(content, "\n")
	require.Positive(t, i)
	assert.Equal(t, "GMC-500+ Data Tool", content[:i])

	records, err := csv.NewReader(strings.NewReader(content[i+1:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Len(t, records[0], 3+RowSamples)
	assert.Equal(t, "DateTime", records[0][0])
	assert.Equal(t, "Type", records[0][1])
	assert.Equal(t, "CPM", records[0][2])
	assert.Equal(t, "# 1 CPS", records[0][3])
	assert.Equal(t, "# 60 CPS", records[0][62])

	assert.Equal(t, "2023-10-07 17:19:00", records[1][0])
	assert.Equal(t, "Every Second", records[1][1])
	assert.Equal(t, "1770", records[1][2])
	assert.Equal(t, "0", records[1][3])
	assert.Equal(t, "59", records[1][62])
}
