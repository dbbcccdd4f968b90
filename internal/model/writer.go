package model

import "context"

// Writer defines a generic interface for shipping a ranked report to an external store.
type Writer interface {
	// Name returns the writer type, e.g. "clickhouse".
	Name() string

	// Write persists or publishes the report. Entries are read-only.
	Write(ctx context.Context, report Report) error

	// Close releases the writer's connection.
	Close() error
}
