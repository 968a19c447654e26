// Package executor runs validated SQL against the data store with a bounded
// result size.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/melivision/chatbot/foundation/duckdb"
)

// ExecutionError reports a database-level failure. The driver diagnostic is
// preserved for display.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// =============================================================================

// Store is the read-only query surface the executor runs against.
type Store interface {
	Query(ctx context.Context, query string) (duckdb.ResultSet, error)
}

// Executor runs one validated statement per interaction.
type Executor struct {
	store   Store
	maxRows int
}

// New constructs an Executor with the configured result row cap.
func New(store Store, maxRows int) *Executor {
	return &Executor{
		store:   store,
		maxRows: maxRows,
	}
}

// Run executes the statement and returns its rows. The statement is wrapped
// in an outer LIMIT so a runaway SELECT cannot produce an unbounded result.
func (e *Executor) Run(ctx context.Context, query string) (duckdb.ResultSet, error) {
	limited := limitRows(query, e.maxRows)

	result, err := e.store.Query(ctx, limited)
	if err != nil {
		return duckdb.ResultSet{}, &ExecutionError{Err: err}
	}

	return result, nil
}

// limitRows wraps the statement as a subquery with an outer LIMIT. Trailing
// semicolons have to go first so the statement can nest.
func limitRows(query string, maxRows int) string {
	trimmed := strings.TrimSpace(query)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}

	if maxRows <= 0 {
		return trimmed
	}

	return fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", trimmed, maxRows)
}
