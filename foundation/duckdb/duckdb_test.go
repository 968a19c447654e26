package duckdb_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/melivision/chatbot/foundation/duckdb"
)

func TestQueryPreservesColumnOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"nome", "preco"}).
		AddRow([]byte("Fone Bluetooth"), 199.9).
		AddRow([]byte("Mouse"), 59.9)

	mock.ExpectQuery("SELECT nome, preco FROM produtos").WillReturnRows(rows)

	rs, err := duckdb.Query(context.Background(), sqlx.NewDb(db, "sqlmock"), "SELECT nome, preco FROM produtos")
	require.NoError(t, err)

	require.Equal(t, []string{"nome", "preco"}, rs.Columns)
	require.Equal(t, 2, rs.RowCount())

	// Byte slices come back as strings.
	require.Equal(t, "Fone Bluetooth", rs.Rows[0][0])
	require.Equal(t, 199.9, rs.Rows[0][1])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPropagatesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT precco").WillReturnError(context.DeadlineExceeded)

	_, err = duckdb.Query(context.Background(), sqlx.NewDb(db, "sqlmock"), "SELECT precco FROM produtos")
	require.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	require.Equal(t, `"produtos"`, duckdb.QuoteIdent("produtos"))
	require.Equal(t, `"pro""dutos"`, duckdb.QuoteIdent(`pro"dutos`))
}

func TestQuoteString(t *testing.T) {
	require.Equal(t, `'dados/produtos.csv'`, duckdb.QuoteString("dados/produtos.csv"))
	require.Equal(t, `'it''s'`, duckdb.QuoteString("it's"))
}
