package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-pipeline/internal/api/http"
	"github.com/i474232898/weather-pipeline/internal/scheduler"
	"github.com/i474232898/weather-pipeline/internal/store"
	"github.com/i474232898/weather-pipeline/internal/weather"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled pipeline and the dashboard read API",
	RunE:  runServe,
}

var noScheduler bool

func init() {
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the read API only; pipeline runs are triggered externally")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Scheduler that periodically runs the pipeline.
	if !noScheduler {
		sched := scheduler.New(a.cfg.FetchInterval, a.pipeline)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	// Read path: time-boxed cache in front of Postgres.
	reader := store.NewCachedReader(a.db, a.cfg.RefreshInterval, a.cfg.CacheMaxEntries)
	service := weather.NewQueryService(reader)

	app := fiber.New(fiber.Config{
		AppName:               "weather-pipeline",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, storage := "ok", "ok"
		if err := a.db.Ping(ctx); err != nil {
			status, storage = "degraded", err.Error()
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"service": "weather-pipeline",
			"storage": storage,
			"city":    a.cfg.City,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + a.cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: serving dashboard API on :%s", a.cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}
