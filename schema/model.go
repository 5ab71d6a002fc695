package schema

import (
	"fmt"
	"strings"
)

// FieldKind distinguishes plain columns from the relation shapes.
type FieldKind string

const (
	Scalar     FieldKind = "scalar"
	ForeignKey FieldKind = "foreign_key"
	OneToOne   FieldKind = "one_to_one"
	ManyToMany FieldKind = "many_to_many"
)

// Field is one field's shape at a point in time.
type Field struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Kind     FieldKind `yaml:"kind"`
	Primary  bool      `yaml:"primary,omitempty"`
	Null     bool      `yaml:"null,omitempty"`
	Unique   bool      `yaml:"unique,omitempty"`
	Index    bool      `yaml:"index,omitempty"`
	Default  *string   `yaml:"default,omitempty"`
	To       string    `yaml:"to,omitempty"`
	Through  string    `yaml:"through,omitempty"`
	OnDelete string    `yaml:"on_delete,omitempty"`

	// Inverse marks the reverse side of a relation declared on another model.
	Inverse bool `yaml:"inverse,omitempty"`

	// Transient keys, ignored by skeleton comparison.
	ConstraintName string `yaml:"constraint_name,omitempty"`
	AutoNow        bool   `yaml:"auto_now,omitempty"`
	AutoNowAdd     bool   `yaml:"auto_now_add,omitempty"`
}

// IsRelation reports whether the field references another model.
func (f Field) IsRelation() bool {
	switch f.Kind {
	case ForeignKey, OneToOne, ManyToMany:
		return true
	default:
		return false
	}
}

// IsM2M reports whether the field is a many-to-many relation.
func (f Field) IsM2M() bool {
	return f.Kind == ManyToMany
}

// HasDefault reports whether a default value was provided.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// Target returns the lowercase name of the related model, or "".
func (f Field) Target() string {
	if !f.IsRelation() {
		return ""
	}
	return strings.ToLower(f.To)
}

// Column returns the column the field occupies in its model's table, or ""
// for many-to-many and inverse fields.
func (f Field) Column() string {
	switch {
	case f.Inverse, f.IsM2M():
		return ""
	case f.IsRelation() && !strings.HasSuffix(f.Name, "_id"):
		return f.Name + "_id"
	default:
		return f.Name
	}
}

// Normalize fills the implied parts of a declared field.
func (f Field) Normalize() Field {
	if f.Kind == "" {
		f.Kind = Scalar
	}
	if f.Type == "" && f.IsRelation() {
		switch f.Kind {
		case ManyToMany:
			f.Type = string(ManyToMany)
		default:
			f.Type = "integer"
		}
	}
	return f
}

// ModelState is an immutable-by-convention snapshot of one model.
type ModelState struct {
	Name    string  `yaml:"name"`
	Table   string  `yaml:"table"`
	Fields  []Field `yaml:"fields"`
	Managed bool    `yaml:"managed"`
	Proxy   bool    `yaml:"proxy,omitempty"`
}

// NewModelState creates a managed model. An empty table defaults to the
// snake_case plural of the name.
func NewModelState(name, table string, fields ...Field) *ModelState {
	if table == "" {
		table = TableName(name)
	}
	m := &ModelState{Name: name, Table: table, Managed: true}
	for _, f := range fields {
		m.Fields = append(m.Fields, f.Normalize())
	}
	return m
}

// Key is the case-insensitive identity of the model.
func (m *ModelState) Key() string {
	return strings.ToLower(m.Name)
}

// Field looks a field up by name.
func (m *ModelState) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns every field name in declaration order.
func (m *ModelState) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return names
}

// LocalFields returns the fields that live in the model's own table and do
// not reference another model.
func (m *ModelState) LocalFields() []Field {
	var fields []Field
	for _, f := range m.Fields {
		if !f.IsRelation() && !f.Inverse {
			fields = append(fields, f)
		}
	}
	return fields
}

// RelationFields returns the forward relation fields.
func (m *ModelState) RelationFields() []Field {
	var fields []Field
	for _, f := range m.Fields {
		if f.IsRelation() && !f.Inverse {
			fields = append(fields, f)
		}
	}
	return fields
}

// Dependencies returns the models this one references, excluding itself.
func (m *ModelState) Dependencies() []string {
	seen := map[string]bool{m.Key(): true}
	var deps []string
	for _, f := range m.RelationFields() {
		for _, name := range []string{f.Target(), strings.ToLower(f.Through)} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}

// Clone returns a deep copy.
func (m *ModelState) Clone() *ModelState {
	c := *m
	if m.Fields == nil {
		return &c
	}
	c.Fields = make([]Field, len(m.Fields))
	for i, f := range m.Fields {
		if f.Default != nil {
			v := *f.Default
			f.Default = &v
		}
		c.Fields[i] = f
	}
	return &c
}

// AddField appends a field.
func (m *ModelState) AddField(f Field) error {
	if _, exists := m.Field(f.Name); exists {
		return fmt.Errorf("model %s already has a field %s", m.Name, f.Name)
	}
	m.Fields = append(m.Fields, f)
	return nil
}

// RemoveField removes a field and returns it.
func (m *ModelState) RemoveField(name string) (Field, error) {
	for i, f := range m.Fields {
		if f.Name == name {
			m.Fields = append(m.Fields[:i:i], m.Fields[i+1:]...)
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("model %s has no field %s", m.Name, name)
}

// ReplaceField swaps a field for a new shape with the same name.
func (m *ModelState) ReplaceField(f Field) error {
	for i := range m.Fields {
		if m.Fields[i].Name == f.Name {
			m.Fields[i] = f
			return nil
		}
	}
	return fmt.Errorf("model %s has no field %s", m.Name, f.Name)
}

// RenameField renames a field in place, keeping its position.
func (m *ModelState) RenameField(oldName, newName string) error {
	if _, exists := m.Field(newName); exists {
		return fmt.Errorf("model %s already has a field %s", m.Name, newName)
	}
	for i := range m.Fields {
		if m.Fields[i].Name == oldName {
			m.Fields[i].Name = newName
			return nil
		}
	}
	return fmt.Errorf("model %s has no field %s", m.Name, oldName)
}

// Junction describes the implicit linking table of a many-to-many field
// declared without a through model.
type Junction struct {
	Table        string `yaml:"table"`
	Owner        string `yaml:"owner"`
	OwnerColumn  string `yaml:"owner_column"`
	Target       string `yaml:"target"`
	TargetColumn string `yaml:"target_column"`
}

// NewJunction builds the junction descriptor for field on owner.
func NewJunction(owner *ModelState, field Field) Junction {
	ownerKey := owner.Key()
	target := field.Target()
	j := Junction{
		Table:        owner.Table + "_" + ToSnakeCase(field.Name),
		Owner:        ownerKey,
		OwnerColumn:  ToSnakeCase(owner.Name) + "_id",
		Target:       target,
		TargetColumn: ToSnakeCase(field.To) + "_id",
	}
	if target == ownerKey {
		j.OwnerColumn = "from_" + j.OwnerColumn
		j.TargetColumn = "to_" + j.TargetColumn
	}
	return j
}
