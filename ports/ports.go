// Package ports defines interfaces (contracts) between the core and its
// infrastructure. Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Diagnostic Journal
// -----------------------------------------------------------------------------

// DiagnosticRecord is one discovery diagnostic as persisted.
type DiagnosticRecord struct {
	ID        string    `json:"id" yaml:"id"`
	Module    string    `json:"module" yaml:"module"`
	Entity    string    `json:"entity,omitempty" yaml:"entity,omitempty"`
	Code      string    `json:"code" yaml:"code"`
	Message   string    `json:"message" yaml:"message"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// DiagnosticJournal keeps discovery diagnostics across runs so they can be
// inspected after startup.
type DiagnosticJournal interface {
	// Record stores one diagnostic.
	Record(ctx context.Context, rec DiagnosticRecord) error

	// List returns the most recent diagnostics, newest first.
	// A limit of zero or less returns everything.
	List(ctx context.Context, limit int) ([]DiagnosticRecord, error)

	// ListByModule returns a module's diagnostics, newest first.
	ListByModule(ctx context.Context, module string) ([]DiagnosticRecord, error)
}
