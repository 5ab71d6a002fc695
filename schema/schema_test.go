package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSkeleton_IgnoresNameAndTransientKeys(t *testing.T) {
	a := Field{Name: "created", Type: "timestamp", Kind: Scalar, AutoNowAdd: true, ConstraintName: "c1"}
	b := Field{Name: "added", Type: "TIMESTAMP", Kind: Scalar, AutoNow: true}

	assert.True(t, SameSkeleton(a.Skeleton(), b.Skeleton()))
}

func TestSameSkeleton(t *testing.T) {
	tests := []struct {
		name string
		a    Field
		b    Field
		want bool
	}{
		{
			name: "identical",
			a:    Field{Type: "text", Kind: Scalar},
			b:    Field{Type: "text", Kind: Scalar},
			want: true,
		},
		{
			name: "null differs",
			a:    Field{Type: "text", Kind: Scalar},
			b:    Field{Type: "text", Kind: Scalar, Null: true},
			want: false,
		},
		{
			name: "default added",
			a:    Field{Type: "text", Kind: Scalar},
			b:    Field{Type: "text", Kind: Scalar, Default: strPtr("x")},
			want: false,
		},
		{
			name: "relation target case-insensitive",
			a:    Field{Type: "integer", Kind: ForeignKey, To: "Author"},
			b:    Field{Type: "integer", Kind: ForeignKey, To: "author"},
			want: true,
		},
		{
			name: "missing type never equal",
			a:    Field{Kind: Scalar},
			b:    Field{Kind: Scalar},
			want: false,
		},
		{
			name: "missing kind never equal",
			a:    Field{Type: "text"},
			b:    Field{Type: "text"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameSkeleton(tt.a.Skeleton(), tt.b.Skeleton()))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Scalar, Field{Type: "text"}.Normalize().Kind)
	assert.Equal(t, "integer", Field{Kind: ForeignKey, To: "A"}.Normalize().Type)
	assert.Equal(t, "many_to_many", Field{Kind: ManyToMany, To: "A"}.Normalize().Type)
}

func TestField_Column(t *testing.T) {
	assert.Equal(t, "title", Field{Name: "title", Kind: Scalar}.Column())
	assert.Equal(t, "author_id", Field{Name: "author", Kind: ForeignKey, To: "Author"}.Column())
	assert.Equal(t, "owner_id", Field{Name: "owner_id", Kind: OneToOne, To: "User"}.Column())
	assert.Empty(t, Field{Name: "tags", Kind: ManyToMany, To: "Tag"}.Column())
	assert.Empty(t, Field{Name: "books", Kind: ForeignKey, To: "Book", Inverse: true}.Column())
}

func TestTableName(t *testing.T) {
	tests := map[string]string{
		"User":        "users",
		"Category":    "categories",
		"BlogPost":    "blog_posts",
		"Address":     "address",
		"Key":         "keys",
		"OAuth2Token": "oauth2_tokens",
	}
	for in, want := range tests {
		assert.Equal(t, want, TableName(in), in)
	}
}

func TestModelState_FieldEditing(t *testing.T) {
	m := NewModelState("Book", "",
		Field{Name: "id", Type: "serial", Primary: true},
		Field{Name: "title", Type: "text"},
	)
	assert.Equal(t, "books", m.Table)
	assert.True(t, m.Managed)

	require.NoError(t, m.AddField(Field{Name: "isbn", Type: "text", Kind: Scalar}))
	assert.Error(t, m.AddField(Field{Name: "isbn", Type: "text", Kind: Scalar}))

	require.NoError(t, m.RenameField("title", "name"))
	assert.Equal(t, []string{"id", "name", "isbn"}, m.FieldNames())

	removed, err := m.RemoveField("isbn")
	require.NoError(t, err)
	assert.Equal(t, "isbn", removed.Name)
	assert.Equal(t, []string{"id", "name"}, m.FieldNames())

	_, err = m.RemoveField("isbn")
	assert.Error(t, err)
}

func TestModelState_CloneIsDeep(t *testing.T) {
	m := NewModelState("Book", "", Field{Name: "title", Type: "text", Default: strPtr("x")})
	c := m.Clone()
	*c.Fields[0].Default = "y"
	c.Fields[0].Name = "other"

	assert.Equal(t, "x", *m.Fields[0].Default)
	assert.Equal(t, "title", m.Fields[0].Name)
}

func TestModelState_Dependencies(t *testing.T) {
	m := NewModelState("Book", "",
		Field{Name: "author", Kind: ForeignKey, To: "Author"},
		Field{Name: "parent", Kind: ForeignKey, To: "Book"},
		Field{Name: "tags", Kind: ManyToMany, To: "Tag", Through: "BookTag"},
		Field{Name: "reviews", Kind: ForeignKey, To: "Review", Inverse: true},
	)
	assert.Equal(t, []string{"author", "tag", "booktag"}, m.Dependencies())
	assert.Len(t, m.LocalFields(), 0)
	assert.Len(t, m.RelationFields(), 3)
}

func TestNewJunction(t *testing.T) {
	book := NewModelState("Book", "")
	j := NewJunction(book, Field{Name: "tags", Kind: ManyToMany, To: "Tag"})
	assert.Equal(t, Junction{
		Table:        "books_tags",
		Owner:        "book",
		OwnerColumn:  "book_id",
		Target:       "tag",
		TargetColumn: "tag_id",
	}, j)

	person := NewModelState("Person", "people")
	self := NewJunction(person, Field{Name: "friends", Kind: ManyToMany, To: "Person"})
	assert.Equal(t, "people_friends", self.Table)
	assert.Equal(t, "from_person_id", self.OwnerColumn)
	assert.Equal(t, "to_person_id", self.TargetColumn)
}

func TestProjectState_RenameModelRewritesReferences(t *testing.T) {
	state := NewProjectState(
		NewModelState("Writer", "", Field{Name: "id", Type: "serial", Primary: true}),
		NewModelState("Book", "", Field{Name: "writer", Kind: ForeignKey, To: "Writer"}),
	)

	require.NoError(t, state.RenameModel("Writer", "Author", "authors"))

	_, ok := state.Model("writer")
	assert.False(t, ok)
	author, ok := state.Model("AUTHOR")
	require.True(t, ok)
	assert.Equal(t, "authors", author.Table)

	book, _ := state.Model("book")
	f, _ := book.Field("writer")
	assert.Equal(t, "Author", f.To)
}

func TestProjectState_SkeletonSkipsUnmanaged(t *testing.T) {
	legacy := NewModelState("Legacy", "")
	legacy.Managed = false
	state := NewProjectState(legacy, NewModelState("Book", "", Field{Name: "title", Type: "text"}))

	sk := state.Skeleton()
	assert.Len(t, sk, 1)
	assert.Contains(t, sk, "book")
}

func TestFromRegistry(t *testing.T) {
	reg := NewRegistry(
		NewModelState("Author", "", Field{Name: "id", Type: "serial", Primary: true}),
		&ModelState{Name: "Book", Managed: true, Fields: []Field{{Name: "author", Kind: ForeignKey, To: "author"}}},
	)

	state, err := FromRegistry(reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "book"}, state.Names())

	book, _ := state.Model("Book")
	assert.Equal(t, "books", book.Table)
	assert.Equal(t, "integer", book.Fields[0].Type)
}

func TestFromRegistry_UnresolvedTarget(t *testing.T) {
	reg := NewRegistry(NewModelState("Book", "", Field{Name: "author", Kind: ForeignKey, To: "Author"}))

	_, err := FromRegistry(reg)
	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "Author", resErr.Target)
	assert.Equal(t, "author", resErr.Field)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewModelState("Book", "")))
	assert.Error(t, reg.Register(NewModelState("book", "")))
	assert.Equal(t, []string{"Book"}, reg.Names())
}
