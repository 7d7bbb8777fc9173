package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/i474232898/weather-pipeline/internal/common"
	"github.com/i474232898/weather-pipeline/internal/weather"
)

// SQLSTATE codes treated specially.
const (
	codeUniqueViolation = "23505"
	codeDuplicateSchema = "42P06"
	codeDuplicateTable  = "42P07"
	codeUndefinedTable  = "42P01"
)

// classify maps a driver error onto the storage error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23": // data exception, integrity constraint violation
			return fmt.Errorf("%w: %s: %s (%s)", weather.ErrConstraintViolation, op, pqErr.Message, pqErr.Code)
		case "08", "28", "3D", "53", "57": // connection, auth, catalog, resources, operator intervention
			return fmt.Errorf("%w: %s: %s (%s)", weather.ErrStorageUnavailable, op, pqErr.Message, pqErr.Code)
		}
		return fmt.Errorf("storage %s failed: %w", op, err)
	}

	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %v", weather.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("storage %s failed: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return common.HasAny(err.Error(),
		"connection refused",
		"no such host",
		"i/o timeout",
		"connection reset",
		"broken pipe",
		"bad connection",
		"ssl is not enabled",
		"database is closed",
	)
}

// isAlreadyExists reports whether err is a lost "create if not exists" race.
func isAlreadyExists(err error) bool {
	return hasCode(err, codeDuplicateSchema, codeDuplicateTable, codeUniqueViolation)
}

func isUndefinedTable(err error) bool {
	return hasCode(err, codeUndefinedTable)
}

func hasCode(err error, codes ...pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	for _, c := range codes {
		if pqErr.Code == c {
			return true
		}
	}
	return false
}
