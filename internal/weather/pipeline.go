package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Pipeline runs one extract-transform-load invocation for a fixed city.
type Pipeline struct {
	city       string
	fetcher    Fetcher
	normalizer *Normalizer
	sink       Sink
}

// RunResult summarizes a successful invocation.
type RunResult struct {
	RunID    string
	City     string
	Rows     int
	Duration time.Duration
}

// NewPipeline creates a new Pipeline.
func NewPipeline(city string, fetcher Fetcher, normalizer *Normalizer, sink Sink) *Pipeline {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &Pipeline{
		city:       city,
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       sink,
	}
}

// City returns the configured target city.
func (p *Pipeline) City() string {
	return p.city
}

// Run fetches, normalizes, provisions and appends strictly in sequence.
// Any stage error aborts the invocation and is returned as a *StageError;
// retrying is left to whoever triggers the next run.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	started := time.Now()
	res := RunResult{RunID: uuid.NewString(), City: p.city}

	log.Printf("DEBUG: pipeline[%s]: run started for %s via %s", res.RunID, p.city, p.fetcher.Name())

	raw, err := p.fetcher.Fetch(ctx, p.city)
	if err != nil {
		return res, p.fail(res.RunID, StageFetch, err)
	}

	norm, err := p.normalizer.Normalize(raw)
	if err != nil {
		return res, p.fail(res.RunID, StageNormalize, err)
	}
	if norm.ExtraConditions > 0 {
		log.Printf("WARN: pipeline[%s]: provider returned %d extra weather conditions; only the first is kept", res.RunID, norm.ExtraConditions)
	}

	if err := p.sink.Provision(ctx); err != nil {
		return res, p.fail(res.RunID, StageProvision, err)
	}

	rows := []WeatherRow{norm.Row}
	if err := p.sink.Append(ctx, rows); err != nil {
		if errors.Is(err, ErrConstraintViolation) {
			log.Printf("ERROR: pipeline[%s]: normalized row for %s at %s was rejected by storage constraints; normalizer produced an invalid row: %v",
				res.RunID, norm.Row.City, norm.Row.CollectionTimestamp.Format(time.RFC3339), err)
		}
		return res, p.fail(res.RunID, StageAppend, err)
	}

	res.Rows = len(rows)
	res.Duration = time.Since(started)
	log.Printf("INFO: pipeline[%s]: appended %d row(s) for %s in %s", res.RunID, res.Rows, p.city, res.Duration)
	return res, nil
}

func (p *Pipeline) fail(runID string, stage Stage, err error) error {
	log.Printf("pipeline[%s]: %s stage failed for %s: %v", runID, stage, p.city, err)
	return &StageError{Stage: stage, Err: fmt.Errorf("run %s: %w", runID, err)}
}
