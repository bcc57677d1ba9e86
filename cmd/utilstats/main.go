// utilstats turns utility meter readings and weather-station history into
// usage-vs-temperature charts, and can serve the cached temperature data
// over HTTP.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "utilstats",
		Short:         "Generate charts correlating utility usage with temperature",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newChartCommand())
	root.AddCommand(newServeCommand())
	return root
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
