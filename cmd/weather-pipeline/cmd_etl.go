package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-pipeline/internal/scheduler"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Run one fetch-normalize-load invocation",
	Long: `Run the pipeline once and exit. Intended for external schedulers
(cron, Airflow, Kubernetes CronJob); a failed run exits non-zero and is
retried by the scheduler on its next trigger.`,
	RunE: runETL,
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the weather schema and table if missing",
	RunE:  runProvision,
}

func init() {
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(provisionCmd)
}

func runETL(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), scheduler.DefaultRunTimeout)
	defer cancel()

	res, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run %s failed: %w", res.RunID, err)
	}
	log.Printf("INFO: pipeline run %s stored %d row(s) for %s", res.RunID, res.Rows, res.City)
	return nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := a.db.Provision(ctx); err != nil {
		return fmt.Errorf("failed to provision storage: %w", err)
	}
	log.Printf("INFO: schema %q provisioned", a.db.Schema())
	return nil
}
