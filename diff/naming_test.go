package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/automigrate/schema"
)

func TestSuggestName(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)
	addIsbn := &Operation{Type: AddField, Model: "Book", Fields: []schema.Field{text("isbn")}}

	tests := []struct {
		name   string
		ops    []*Operation
		number int
		want   string
	}{
		{name: "initial", ops: []*Operation{addIsbn}, number: 1, want: "m0001_initial"},
		{name: "single add", ops: []*Operation{addIsbn}, number: 2, want: "m0002_add_book_isbn"},
		{name: "create", ops: []*Operation{{Type: CreateModel, Model: "BlogPost"}}, number: 12, want: "m0012_create_model_blog_post"},
		{name: "rename model", ops: []*Operation{{Type: RenameModel, Model: "Pupil", OldName: "Student", NewName: "Pupil"}}, number: 3, want: "m0003_rename_model_student_pupil"},
		{name: "rename field", ops: []*Operation{{Type: RenameField, Model: "Book", OldName: "name", NewName: "title"}}, number: 4, want: "m0004_rename_field_book_title"},
		{name: "alter", ops: []*Operation{{Type: AlterField, Model: "Book", Fields: []schema.Field{text("title")}}}, number: 5, want: "m0005_modify_field_book_title"},
		{name: "several", ops: []*Operation{addIsbn, addIsbn}, number: 6, want: "m0006_auto_20260309_1405"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestName(tt.ops, tt.number, now))
		})
	}
}

func TestMigrationNumber(t *testing.T) {
	n, err := MigrationNumber("m0004_add_book_isbn")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = MigrationNumber("m0001_initial")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = MigrationNumber("initial")
	assert.Error(t, err)
}

func TestOperation_Describe(t *testing.T) {
	tests := map[OperationType]string{
		CreateModel:  "create_model",
		DropModel:    "drop_model",
		RenameModel:  "rename_model",
		AddField:     "add",
		DropField:    "drop",
		AlterField:   "modify_field",
		RenameField:  "rename_field",
		AddJunction:  "add_m2m",
		DropJunction: "drop_m2m",
	}
	for typ, want := range tests {
		assert.Equal(t, want, (&Operation{Type: typ}).Describe())
	}
}
