// Package store owns the embedded seller dataset: it loads the source CSV
// files into duckdb once at startup and exposes a read-only query surface.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/duckdb"
)

// csvTables maps each source file to the table it feeds.
var csvTables = map[string]string{
	"produtos.csv":              "produtos",
	"clientes.csv":              "clientes",
	"vendas.csv":                "vendas",
	"campanhas.csv":             "campanhas",
	"estoque_movimentacoes.csv": "estoque_movimentacoes",
	"metricas_performance.csv":  "metricas_performance",
}

// Config holds the settings for constructing a Store.
type Config struct {
	DBPath       string
	DataDir      string
	QueryTimeout time.Duration
}

// Store provides read access to the seller dataset.
type Store struct {
	db           *sqlx.DB
	log          *zap.Logger
	queryTimeout time.Duration
}

// New opens the database and ingests any table whose data is not present
// yet. Restarting against an existing database file is a no-op.
func New(ctx context.Context, log *zap.Logger, cfg Config) (*Store, error) {
	db, err := duckdb.Open(duckdb.Config{
		Path: cfg.DBPath,
	})
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if err := duckdb.StatusCheck(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("status check: %w", err)
	}

	s := Store{
		db:           db,
		log:          log,
		queryTimeout: cfg.QueryTimeout,
	}

	if err := s.ingest(ctx, cfg.DataDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("ingest: %w", err)
	}

	return &s, nil
}

// DB exposes the underlying handle for schema introspection at startup.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query runs a read-only statement under the store's query timeout and
// captures every row in column order.
func (s *Store) Query(ctx context.Context, query string) (duckdb.ResultSet, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	return duckdb.Query(ctx, s.db, query)
}

// =============================================================================

func (s *Store) ingest(ctx context.Context, dataDir string) error {
	for csvFile, tableName := range csvTables {
		exists, err := s.tableExists(ctx, tableName)
		if err != nil {
			return fmt.Errorf("check table %q: %w", tableName, err)
		}

		if exists {
			s.log.Debug("table already loaded", zap.String("table", tableName))
			continue
		}

		path := filepath.Join(dataDir, csvFile)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("data file %q: %w", path, err)
		}

		loadSQL := ingestSQL(tableName, path)
		if _, err := s.db.ExecContext(ctx, loadSQL); err != nil {
			return fmt.Errorf("load %q: %w", path, err)
		}

		var rows int
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", duckdb.QuoteIdent(tableName))
		if err := s.db.QueryRowContext(ctx, countSQL).Scan(&rows); err != nil {
			return fmt.Errorf("count %q: %w", tableName, err)
		}

		s.log.Info("table loaded", zap.String("table", tableName), zap.Int("rows", rows))
	}

	return nil
}

func (s *Store) tableExists(ctx context.Context, tableName string) (bool, error) {
	const checkSQL = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_name = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, checkSQL, tableName).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

func ingestSQL(tableName string, path string) string {
	return fmt.Sprintf(
		"CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		duckdb.QuoteIdent(tableName),
		duckdb.QuoteString(path),
	)
}
