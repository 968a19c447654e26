// Package duckdb provides support for using an embedded duckdb database
// through the sqlx API.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
)

// Config holds the settings for opening a database.
type Config struct {
	Path         string // empty means in-memory
	MaxOpenConns int
}

// Open creates a database handle backed by the file at cfg.Path. The file is
// created when it does not exist.
func Open(cfg Config) (*sqlx.DB, error) {
	connector, err := duckdb.NewConnector(cfg.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating connector: %w", err)
	}

	db := sqlx.NewDb(sql.OpenDB(connector), "duckdb")

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// StatusCheck validates the database is ready to accept queries.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var tmp bool
	if err := db.QueryRowContext(ctx, "SELECT true").Scan(&tmp); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	return nil
}

// =============================================================================

// ResultSet holds the outcome of a query with the column order preserved.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the set.
func (rs ResultSet) RowCount() int {
	return len(rs.Rows)
}

// Query executes the specified query and captures every row. Values are
// normalized so byte slices come back as strings.
func Query(ctx context.Context, db *sqlx.DB, query string) (ResultSet, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return ResultSet{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, fmt.Errorf("query columns: %w", err)
	}

	result := ResultSet{
		Columns: columns,
	}

	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return ResultSet{}, fmt.Errorf("scan row: %w", err)
		}

		result.Rows = append(result.Rows, normalizeValues(values))
	}

	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}

	return normalized
}

// =============================================================================

// QuoteIdent quotes an identifier so it is safe to splice into SQL text.
func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// QuoteString quotes a string literal so it is safe to splice into SQL text.
func QuoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
