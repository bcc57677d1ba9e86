package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"utilstats/internal/chart"
	"utilstats/internal/config"
	"utilstats/internal/meter"
	"utilstats/internal/tempdata"
	"utilstats/internal/wunderground"
)

func newChartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chart GAS_FILE ELEC_FILE",
		Short: "Render usage-vs-temperature charts from meter reading files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			return runChart(cmd.Context(), cfg, logger, args[0], args[1])
		},
	}
}

func runChart(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger, gasFile, elecFile string) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := wunderground.NewClient(httpClient, cfg.URLTemplate, logger)

	store, err := tempdata.NewStore(cfg.DataDir, fetcher, logger)
	if err != nil {
		return err
	}

	gas, err := readTimed(gasFile, meter.Gas, logger)
	if err != nil {
		return err
	}
	elec, err := readTimed(elecFile, meter.Electric, logger)
	if err != nil {
		return err
	}

	// Gas usage tracks heating, so it is charted against average lows;
	// electric usage tracks cooling, so against average highs.
	if err := renderUtility(ctx, store, gas, utilityChartSpec{
		utility:    meter.Gas,
		title:      "Gas Usage",
		tempLabel:  "Avg Low Temp (F)",
		usageLabel: "CCF used / day",
		stat:       tempdata.StatMin,
		outFile:    filepath.Join(cfg.OutDir, "gas.html"),
	}, logger); err != nil {
		return err
	}

	return renderUtility(ctx, store, elec, utilityChartSpec{
		utility:    meter.Electric,
		title:      "Electricity Usage",
		tempLabel:  "Avg High Temp (F)",
		usageLabel: "kWh used / day",
		stat:       tempdata.StatMax,
		outFile:    filepath.Join(cfg.OutDir, "electric.html"),
	}, logger)
}

type utilityChartSpec struct {
	utility    meter.Utility
	title      string
	tempLabel  string
	usageLabel string
	stat       tempdata.Stat
	outFile    string
}

func renderUtility(ctx context.Context, store *tempdata.Store, readings []meter.Reading, spec utilityChartSpec, logger zerolog.Logger) error {
	start := time.Now()

	usage, err := meter.UsageSeries(readings)
	if err != nil {
		return err
	}
	temps, err := meter.TemperatureSeries(ctx, store, readings, spec.stat)
	if err != nil {
		return err
	}

	if err := chart.Render(chart.UtilityChart{
		Title:      spec.title,
		TempLabel:  spec.tempLabel,
		UsageLabel: spec.usageLabel,
		Temps:      temps,
		Usage:      usage,
	}, spec.outFile); err != nil {
		return err
	}

	logger.Info().
		Str("utility", spec.utility.Name).
		Str("file", spec.outFile).
		Dur("elapsed", time.Since(start)).
		Msg("chart rendered")

	printSummary(spec, usage, temps)
	return nil
}

func readTimed(path string, u meter.Utility, logger zerolog.Logger) ([]meter.Reading, error) {
	start := time.Now()
	readings, err := meter.ReadFile(path, u, logger)
	if err != nil {
		return nil, err
	}

	covered := 0
	if len(readings) > 1 {
		covered = readings[0].Date.DaysUntil(readings[len(readings)-1].Date)
	}
	logger.Info().
		Str("utility", u.Name).
		Int("readings", len(readings)).
		Int("days_covered", covered).
		Dur("elapsed", time.Since(start)).
		Msg("meter data loaded")
	return readings, nil
}

func printSummary(spec utilityChartSpec, usage, temps []meter.Point) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(spec.title)
	t.AppendHeader(table.Row{"Date", spec.usageLabel, spec.tempLabel})
	for i := range usage {
		t.AppendRow(table.Row{
			usage[i].Date.String(),
			fmt.Sprintf("%.2f", usage[i].Value),
			fmt.Sprintf("%.1f", temps[i].Value),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
