package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeFetcher struct {
	raw   RawObservation
	err   error
	calls int
	city  string
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, city string) (RawObservation, error) {
	f.calls++
	f.city = city
	return f.raw, f.err
}

type fakeSink struct {
	provisionErr error
	appendErr    error
	events       []string
	rows         []WeatherRow
}

func (s *fakeSink) Provision(ctx context.Context) error {
	s.events = append(s.events, "provision")
	return s.provisionErr
}

func (s *fakeSink) Append(ctx context.Context, rows []WeatherRow) error {
	s.events = append(s.events, "append")
	if s.appendErr != nil {
		return s.appendErr
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func TestPipelineRunSuccess(t *testing.T) {
	fetcher := &fakeFetcher{raw: rioObservation()}
	sink := &fakeSink{}
	p := NewPipeline("Rio de Janeiro", fetcher, newTestNormalizer(), sink)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows != 1 || res.RunID == "" {
		t.Errorf("unexpected result %+v", res)
	}
	if fetcher.city != "Rio de Janeiro" {
		t.Errorf("expected fetch for configured city, got %q", fetcher.city)
	}
	if fmt.Sprint(sink.events) != "[provision append]" {
		t.Errorf("expected provision before append, got %v", sink.events)
	}
	if len(sink.rows) != 1 || sink.rows[0].SysCountry != "BR" {
		t.Errorf("unexpected appended rows %+v", sink.rows)
	}
}

func TestPipelineStageFailures(t *testing.T) {
	badRaw := rioObservation()
	badRaw.Weather = nil

	tests := []struct {
		name       string
		fetcher    *fakeFetcher
		sink       *fakeSink
		wantStage  Stage
		wantErr    error
		wantEvents string
	}{
		{
			name:       "auth",
			fetcher:    &fakeFetcher{err: fmt.Errorf("%w: 401", ErrAuth)},
			sink:       &fakeSink{},
			wantStage:  StageFetch,
			wantErr:    ErrAuth,
			wantEvents: "[]",
		},
		{
			name:       "transient",
			fetcher:    &fakeFetcher{err: fmt.Errorf("%w: 503", ErrTransient)},
			sink:       &fakeSink{},
			wantStage:  StageFetch,
			wantErr:    ErrTransient,
			wantEvents: "[]",
		},
		{
			name:       "schema violation",
			fetcher:    &fakeFetcher{raw: badRaw},
			sink:       &fakeSink{},
			wantStage:  StageNormalize,
			wantErr:    ErrSchemaViolation,
			wantEvents: "[]",
		},
		{
			name:       "storage unavailable on provision",
			fetcher:    &fakeFetcher{raw: rioObservation()},
			sink:       &fakeSink{provisionErr: fmt.Errorf("%w: refused", ErrStorageUnavailable)},
			wantStage:  StageProvision,
			wantErr:    ErrStorageUnavailable,
			wantEvents: "[provision]",
		},
		{
			name:       "constraint violation on append",
			fetcher:    &fakeFetcher{raw: rioObservation()},
			sink:       &fakeSink{appendErr: fmt.Errorf("%w: not null", ErrConstraintViolation)},
			wantStage:  StageAppend,
			wantErr:    ErrConstraintViolation,
			wantEvents: "[provision append]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline("Rio de Janeiro", tt.fetcher, newTestNormalizer(), tt.sink)

			_, err := p.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("expected *StageError, got %T", err)
			}
			if stageErr.Stage != tt.wantStage {
				t.Errorf("expected stage %s, got %s", tt.wantStage, stageErr.Stage)
			}
			if got := fmt.Sprint(tt.sink.events); got != tt.wantEvents {
				t.Errorf("expected sink events %s, got %s", tt.wantEvents, got)
			}
			if tt.fetcher.calls != 1 {
				t.Errorf("expected exactly one fetch attempt, got %d", tt.fetcher.calls)
			}
		})
	}
}
