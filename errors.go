package dbdeploy

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvFileNotFound is returned when the environment file does not exist.
	ErrEnvFileNotFound = errors.New("env file not found")

	// ErrMissingSettings is returned when required keys are absent or empty.
	ErrMissingSettings = errors.New("missing required settings")

	// ErrMigrationNotFound is returned when the migration file does not exist.
	ErrMigrationNotFound = errors.New("migration file not found")

	// ErrChecksumMismatch is returned when a migration recorded in the ledger
	// no longer matches the file on disk.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnknownExecuteMode is returned for an unsupported Config.Execute value.
	ErrUnknownExecuteMode = errors.New("unknown execute mode")
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
