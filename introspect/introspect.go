// Package introspect reads the live Postgres catalogue and compares it with
// the state replayed from migration history.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Querier is the read-only subset of *sql.DB used here.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ExistingTable is one base table in the public schema.
type ExistingTable struct {
	TableName string
	Columns   []ExistingColumn
}

// ExistingColumn is one column of an ExistingTable.
type ExistingColumn struct {
	ColumnName string
	DataType   string
	IsNullable bool
}

// Column looks a column up by name.
func (t ExistingTable) Column(name string) (ExistingColumn, bool) {
	for _, c := range t.Columns {
		if c.ColumnName == name {
			return c, true
		}
	}
	return ExistingColumn{}, false
}

const columnsQuery = `
	SELECT c.table_name, c.column_name, c.data_type, (c.is_nullable = 'YES') AS is_nullable
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON t.table_schema = c.table_schema AND t.table_name = c.table_name
	WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
	ORDER BY c.table_name, c.ordinal_position;
	`

// Tables returns every base table in the public schema with its columns, in
// table name order.
func Tables(ctx context.Context, q Querier) ([]ExistingTable, error) {
	rows, err := q.QueryContext(ctx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var tables []ExistingTable
	for rows.Next() {
		var table string
		var col ExistingColumn
		if err := rows.Scan(&table, &col.ColumnName, &col.DataType, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		if n := len(tables); n == 0 || tables[n-1].TableName != table {
			tables = append(tables, ExistingTable{TableName: table})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column rows: %w", err)
	}

	sort.SliceStable(tables, func(i, j int) bool { return tables[i].TableName < tables[j].TableName })
	return tables, nil
}

// AppliedMigrations lists migrations recorded as applied in the
// schema_migrations table, oldest first. A database without that table has
// applied nothing.
func AppliedMigrations(ctx context.Context, q Querier) ([]string, error) {
	exists, err := tableExists(ctx, q, "schema_migrations")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT filename FROM schema_migrations WHERE status = 'success' ORDER BY applied_at, filename;`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		applied = append(applied, strings.TrimSuffix(filename, filepath.Ext(filename)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applied migrations: %w", err)
	}
	return applied, nil
}

func tableExists(ctx context.Context, q Querier, table string) (bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT to_regclass($1) IS NOT NULL;`, "public."+table)
	if err != nil {
		return false, fmt.Errorf("checking for %s: %w", table, err)
	}
	defer rows.Close()

	var exists bool
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, fmt.Errorf("checking for %s: %w", table, err)
		}
	}
	return exists, rows.Err()
}
