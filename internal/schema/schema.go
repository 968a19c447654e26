// Package schema builds an immutable description of the queryable tables
// from the database metadata. The descriptor is computed once at startup and
// shared read-only by every interaction.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Column describes one column of a table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table describes one table with its columns in declaration order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Descriptor is the immutable schema of the dataset.
type Descriptor struct {
	Tables []Table `json:"tables"`
}

// Load introspects information_schema and captures every table in the main
// schema with its columns in ordinal position order.
func Load(ctx context.Context, db *sqlx.DB) (Descriptor, error) {
	const introspectSQL = `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'main'
		ORDER BY table_name, ordinal_position`

	rows, err := db.QueryContext(ctx, introspectSQL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("introspect: %w", err)
	}
	defer rows.Close()

	var desc Descriptor

	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return Descriptor{}, fmt.Errorf("scan column: %w", err)
		}

		n := len(desc.Tables)
		if n == 0 || desc.Tables[n-1].Name != tableName {
			desc.Tables = append(desc.Tables, Table{Name: tableName})
			n++
		}

		desc.Tables[n-1].Columns = append(desc.Tables[n-1].Columns, Column{
			Name: columnName,
			Type: dataType,
		})
	}

	if err := rows.Err(); err != nil {
		return Descriptor{}, fmt.Errorf("iterate columns: %w", err)
	}

	if len(desc.Tables) == 0 {
		return Descriptor{}, fmt.Errorf("no tables found")
	}

	return desc, nil
}

// HasTable reports whether the descriptor knows the specified table.
func (d Descriptor) HasTable(name string) bool {
	for _, table := range d.Tables {
		if strings.EqualFold(table.Name, name) {
			return true
		}
	}

	return false
}

// TableNames returns the table names in descriptor order.
func (d Descriptor) TableNames() []string {
	names := make([]string, len(d.Tables))
	for i, table := range d.Tables {
		names[i] = table.Name
	}

	return names
}

// Prompt renders the descriptor as text suitable for embedding in a model
// prompt.
func (d Descriptor) Prompt() string {
	var sb strings.Builder

	for _, table := range d.Tables {
		sb.WriteString("TABELA ")
		sb.WriteString(table.Name)
		sb.WriteString(" (")

		for i, column := range table.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(column.Name)
			sb.WriteString(" ")
			sb.WriteString(column.Type)
		}

		sb.WriteString(")\n")
	}

	return sb.String()
}
