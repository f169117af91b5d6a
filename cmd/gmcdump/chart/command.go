package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/gmcdump"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var resolution int

	cmd := &cobra.Command{
		Use:   "chart file.bin",
		Short: "Render a history image as a counts-per-minute chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log := gmcdump.NewLogger(false)

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rows, err := gmcdump.DecodeHistory(raw)
			if err != nil {
				var derr *gmcdump.DecodeError
				if !errors.As(err, &derr) {
					return err
				}
				log.WithError(derr).Warn("Corrupt history stream")
			}
			if len(rows) == 0 {
				return errors.New("no decodable row in the image")
			}

			return render(rows, resolution)
		},
	}
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of the graph")

	return cmd
}

func render(rows []gmcdump.Row, resolution int) error {
	series := charts.LineSeries{Name: "CPM"}
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		series.Values = append(series.Values, float64(row.Total))
		labels = append(labels, row.Timestamp.Format("01-02 15:04"))
	}

	opt := charts.NewLineChartOptionWithSeries(charts.LineSeriesList{series})
	opt.Theme = charts.GetTheme(charts.ThemeVividDark)
	opt.Padding = charts.NewBox(20, 20, 20, 20)
	opt.Title.Text = fmt.Sprintf("History: %s - %s",
		rows[0].Timestamp.Format("2006-01-02 15:04"),
		rows[len(rows)-1].Timestamp.Format("2006-01-02 15:04"))
	opt.Title.FontStyle.FontSize = 16
	opt.Title.Offset = charts.OffsetLeft
	opt.Symbol = charts.SymbolNone
	opt.LineStrokeWidth = 2
	opt.XAxis.Show = gmcdump.ToPtr(true)
	opt.XAxis.Labels = labels
	opt.XAxis.LabelCount = min(len(labels), 12)
	opt.YAxis = []charts.YAxisOption{
		{
			Show:  gmcdump.ToPtr(true),
			Title: "CPM",
			Min:   gmcdump.ToPtr(float64(0)),
		},
	}

	p := charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        resolution,
		Height:       int(float64(resolution) / (16.0 / 9.0)),
	})

	if err := p.LineChart(opt); err != nil {
		return err
	}

	mPNG, err := p.Bytes()
	if err != nil {
		return err
	}

	m, _, err := image.Decode(bytes.NewReader(mPNG))
	if err != nil {
		return err
	}

	codec := sixel.NewEncoder(os.Stdout)
	return codec.Encode(m)
}
