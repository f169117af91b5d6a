package gmcdump

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV renders decoded rows as the tabular export: timestamp, save mode,
// per-window total and one column per sample.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, "GMC-500+ Data Tool"); err != nil {
		return err
	}

	codec := csv.NewWriter(w)

	header := make([]string, 0, 3+RowSamples)
	header = append(header, "DateTime", "Type", "CPM")
	for i := 1; i <= RowSamples; i++ {
		header = append(header, fmt.Sprintf("# %d CPS", i))
	}
	if err := codec.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		record = append(record,
			row.Timestamp.Format("2006-01-02 15:04:05"),
			row.Mode.String(),
			strconv.FormatUint(uint64(row.Total), 10),
		)
		for _, s := range row.Samples {
			record = append(record, strconv.FormatUint(uint64(s), 10))
		}

		if err := codec.Write(record); err != nil {
			return err
		}
	}

	codec.Flush()
	return codec.Error()
}
