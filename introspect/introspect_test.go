package introspect

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/automigrate/schema"
)

var columnRows = []string{"table_name", "column_name", "data_type", "is_nullable"}

func newMock(t *testing.T) (sqlmock.Sqlmock, Querier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, db
}

func TestTables(t *testing.T) {
	mock, db := newMock(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WillReturnRows(sqlmock.NewRows(columnRows).
			AddRow("authors", "id", "integer", false).
			AddRow("authors", "name", "text", false).
			AddRow("books", "id", "integer", false).
			AddRow("books", "title", "text", true))

	tables, err := Tables(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "authors", tables[0].TableName)
	assert.Len(t, tables[0].Columns, 2)
	title, ok := tables[1].Column("title")
	require.True(t, ok)
	assert.True(t, title.IsNullable)
	assert.Equal(t, "text", title.DataType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTables_QueryError(t *testing.T) {
	mock, db := newMock(t)

	mock.ExpectQuery("FROM information_schema.columns").WillReturnError(errors.New("boom"))

	_, err := Tables(context.Background(), db)
	assert.ErrorContains(t, err, "querying columns")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppliedMigrations(t *testing.T) {
	mock, db := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_regclass($1) IS NOT NULL")).
		WithArgs("public.schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT filename FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).
			AddRow("m0001_initial.yaml").
			AddRow("m0002_add_book_isbn"))

	applied, err := AppliedMigrations(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"m0001_initial", "m0002_add_book_isbn"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppliedMigrations_NoTable(t *testing.T) {
	mock, db := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_regclass($1) IS NOT NULL")).
		WithArgs("public.schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	applied, err := AppliedMigrations(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectDrift(t *testing.T) {
	state := schema.NewProjectState(
		schema.NewModelState("Author", "",
			schema.Field{Name: "id", Type: "serial", Primary: true},
			schema.Field{Name: "name", Type: "text"},
		),
		schema.NewModelState("Book", "",
			schema.Field{Name: "id", Type: "serial", Primary: true},
			schema.Field{Name: "title", Type: "text"},
			schema.Field{Name: "author", Kind: schema.ForeignKey, To: "Author"},
			schema.Field{Name: "tags", Kind: schema.ManyToMany, To: "Tag"},
		),
		schema.NewModelState("Tag", "", schema.Field{Name: "name", Type: "text"}),
	)
	legacy := schema.NewModelState("Legacy", "legacy_rows", schema.Field{Name: "x", Type: "text"})
	legacy.Managed = false
	state.Models[legacy.Key()] = legacy

	tables := []ExistingTable{
		{TableName: "authors", Columns: []ExistingColumn{
			{ColumnName: "id"}, {ColumnName: "name"},
		}},
		{TableName: "books", Columns: []ExistingColumn{
			{ColumnName: "id"},
			{ColumnName: "title", IsNullable: true},
			{ColumnName: "author_id"},
			{ColumnName: "legacy"},
		}},
		{TableName: "books_tags", Columns: []ExistingColumn{
			{ColumnName: "id"}, {ColumnName: "book_id"}, {ColumnName: "tag_id"},
		}},
		{TableName: "legacy_rows", Columns: []ExistingColumn{{ColumnName: "x"}}},
		{TableName: "old_stuff", Columns: []ExistingColumn{{ColumnName: "id"}}},
		{TableName: "schema_migrations", Columns: []ExistingColumn{{ColumnName: "filename"}}},
	}

	drifts := DetectDrift(state, tables)
	require.Len(t, drifts, 4)

	assert.Equal(t, ExtraColumn, drifts[0].Kind)
	assert.Equal(t, "legacy", drifts[0].Column)
	assert.Equal(t, NullMismatch, drifts[1].Kind)
	assert.Equal(t, "title", drifts[1].Column)
	assert.Equal(t, Drift{Kind: ExtraTable, Table: "old_stuff"}, drifts[2])
	assert.Equal(t, Drift{Kind: MissingTable, Table: "tags", Detail: "Tag"}, drifts[3])
	assert.Equal(t, "missing_table: tags", drifts[3].String())
}

func TestDetectDrift_InSync(t *testing.T) {
	state := schema.NewProjectState(
		schema.NewModelState("Tag", "", schema.Field{Name: "name", Type: "text", Null: true}),
	)
	tables := []ExistingTable{{TableName: "tags", Columns: []ExistingColumn{
		{ColumnName: "id"}, {ColumnName: "name", IsNullable: true},
	}}}
	assert.Empty(t, DetectDrift(state, tables))
}
