package backend

import (
	"context"

	"duebook/internal/persistence"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the repository and an optional cleanup function
type BackendResult struct {
	Repository persistence.Repository
	Cleanup    CleanupFunc
}

// Close runs the cleanup function when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates repositories based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// CSV specific
	DataFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
