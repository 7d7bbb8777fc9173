package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weather-pipeline",
	Short: "Weather ETL pipeline and dashboard read API",
	Long: `weather-pipeline periodically pulls current weather for a fixed city,
normalizes it into a flat row, appends it to Postgres and serves the
dashboard's read queries over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
