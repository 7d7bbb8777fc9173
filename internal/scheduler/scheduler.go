package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

// DefaultRunTimeout bounds a single pipeline invocation.
const DefaultRunTimeout = 30 * time.Second

// Runner is one pipeline invocation.
type Runner interface {
	Run(ctx context.Context) (weather.RunResult, error)
}

// Scheduler periodically triggers the weather pipeline.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, runner Runner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		runner:     runner,
		interval:   interval,
		runTimeout: DefaultRunTimeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: weather pipeline scheduled every %s", interval)
	return nil
}

// runOnce executes one invocation. Failures are logged and left for the
// next tick; nothing is retried here.
func (s *Scheduler) runOnce() {
	log.Println("scheduler: running weather pipeline job")

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx)
	if err != nil {
		log.Printf("scheduler: pipeline run %s failed: %v", res.RunID, err)
		return
	}
	log.Printf("scheduler: completed pipeline run %s (%d row(s))", res.RunID, res.Rows)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
