// Package chart renders usage-vs-temperature line charts as standalone HTML
// files, one per utility, with usage and temperature on separate y-axes.
package chart

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"utilstats/internal/meter"
)

// UtilityChart describes one chart: a temperature series on the left axis
// and a usage series on the right axis, sharing measurement dates on x.
type UtilityChart struct {
	Title      string
	TempLabel  string // e.g. "Avg Low Temp (F)"
	UsageLabel string // e.g. "CCF used / day"
	Temps      []meter.Point
	Usage      []meter.Point
}

// Render writes the chart to an HTML file at outPath.
func Render(c UtilityChart, outPath string) error {
	if len(c.Usage) != len(c.Temps) {
		return fmt.Errorf("series length mismatch: %d usage vs %d temperature points",
			len(c.Usage), len(c.Temps))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Measurement Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.TempLabel}),
	)
	line.ExtendYAxis(opts.YAxis{Name: c.UsageLabel, Type: "value", Position: "right"})

	dates := make([]string, len(c.Usage))
	for i, p := range c.Usage {
		dates[i] = p.Date.String()
	}

	line.SetXAxis(dates).
		AddSeries(c.TempLabel, lineData(c.Temps)).
		AddSeries(c.UsageLabel, lineData(c.Usage),
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return line.Render(f)
}

func lineData(points []meter.Point) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = opts.LineData{Value: p.Value}
	}
	return data
}
