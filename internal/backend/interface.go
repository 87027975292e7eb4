package backend

import (
	"context"

	"txview/internal/services"
	"txview/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is the store behind the mock API plus the approval path in
// front of it.
type BackendResult struct {
	Store store.Store

	// Approvals writes through Store and publishes approval.changed events
	// when AMQP is configured.
	Approvals *services.ApprovalService

	// Recorder keeps the approval audit trail.
	Recorder store.ApprovalEventRecorder

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend: optional employees.json / transactions.json. Also the
	// seed source of an empty SQLite database.
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Optional approval events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
