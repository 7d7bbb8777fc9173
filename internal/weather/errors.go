package weather

import (
	"errors"
	"fmt"
)

var (
	// Fetch stage.
	ErrAuth              = errors.New("weather api credential missing or rejected")
	ErrCityNotFound      = errors.New("city unknown to weather provider")
	ErrTransient         = errors.New("transient weather api failure")
	ErrMalformedResponse = errors.New("malformed weather api response")

	// Normalize stage.
	ErrSchemaViolation = errors.New("observation violates row schema")

	// Provision and append stages.
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrConstraintViolation = errors.New("storage constraint violated")

	// Read path.
	ErrInvalidRange = errors.New("range start is after range end")
)

// Stage names a step of one pipeline invocation.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageProvision Stage = "provision"
	StageAppend    Stage = "append"
)

// StageError records which pipeline stage failed. The wrapped error keeps
// its sentinel so errors.Is still works through it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func schemaViolation(field string) error {
	return fmt.Errorf("%w: %s is missing", ErrSchemaViolation, field)
}
