package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrDatabaseTimeout    = errors.New("database timeout")
	ErrUnsupportedStore   = errors.New("unsupported store type")
)

// NewStoreUnavailableError wraps a store failure that is not part of the
// issue error taxonomy. The result always matches ErrStoreUnavailable.
func NewStoreUnavailableError(operation string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s", operation)

	if cause != nil {
		errStr := cause.Error()
		switch {
		case errors.Is(cause, context.DeadlineExceeded):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        fmt.Errorf("%w: %w", ErrStoreUnavailable, ErrDatabaseTimeout),
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "connection"), strings.Contains(errStr, "server selection"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        fmt.Errorf("%w: %w", ErrStoreUnavailable, ErrDatabaseConnection),
				Details:    details,
				Cause:      cause,
			}
		}
	}

	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrStoreUnavailable,
		Details:    details,
		Cause:      cause,
	}
}

func NewUnsupportedStoreError(storeType string) error {
	return fmt.Errorf("%w: %q (expected postgres, sqlite or mongo)", ErrUnsupportedStore, storeType)
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
