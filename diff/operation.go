package diff

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/automigrate/schema"
)

type OperationType string

const (
	CreateModel  OperationType = "create_model"
	DropModel    OperationType = "drop_model"
	RenameModel  OperationType = "rename_model"
	AddField     OperationType = "add_field"
	DropField    OperationType = "drop_field"
	AlterField   OperationType = "alter_field"
	RenameField  OperationType = "rename_field"
	AddJunction  OperationType = "add_m2m_junction"
	DropJunction OperationType = "drop_m2m_junction"
)

// Dependency names a model that must exist before an operation runs.
type Dependency struct {
	Model  string `yaml:"model"`
	Action string `yaml:"action"`
}

const (
	ActionCreated = "created"
	ActionExists  = "exists"
)

// Operation is a single schema change. Which payload fields are set depends
// on Type.
type Operation struct {
	Type     OperationType  `yaml:"type"`
	Model    string         `yaml:"model"`
	Table    string         `yaml:"table,omitempty"`
	Fields   []schema.Field `yaml:"fields,omitempty"`   // CreateModel, AddField, AlterField, DropField, junctions
	Previous []schema.Field `yaml:"previous,omitempty"` // AlterField
	OldName  string         `yaml:"old_name,omitempty"` // RenameModel, RenameField
	NewName  string         `yaml:"new_name,omitempty"` // RenameModel, RenameField

	// TransientDefaults lists fields whose default only backfills existing
	// rows and is not kept in the replayed state.
	TransientDefaults []string `yaml:"transient_defaults,omitempty"`

	Junction  *schema.Junction `yaml:"junction,omitempty"`
	Proxy     bool             `yaml:"proxy,omitempty"`
	DependsOn []Dependency     `yaml:"depends_on,omitempty"`
}

// Key is the lowercase name of the model the operation acts on.
func (o *Operation) Key() string {
	return strings.ToLower(o.Model)
}

// Describe returns the short label used in migration names.
func (o *Operation) Describe() string {
	switch o.Type {
	case AddField:
		return "add"
	case DropField:
		return "drop"
	case AlterField:
		return "modify_field"
	case AddJunction:
		return "add_m2m"
	case DropJunction:
		return "drop_m2m"
	default:
		return string(o.Type)
	}
}

// FieldNames returns the names of the fields carried by the operation.
func (o *Operation) FieldNames() []string {
	switch o.Type {
	case RenameField:
		return []string{o.OldName, o.NewName}
	}
	names := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (o *Operation) String() string {
	switch o.Type {
	case CreateModel:
		return fmt.Sprintf("Create model %s", o.Model)
	case DropModel:
		return fmt.Sprintf("Drop model %s", o.Model)
	case RenameModel:
		if strings.EqualFold(o.OldName, o.NewName) {
			return fmt.Sprintf("Move model %s to table %s", o.Model, o.Table)
		}
		return fmt.Sprintf("Rename model %s to %s", o.OldName, o.NewName)
	case AddField:
		return fmt.Sprintf("Add field %s to %s", strings.Join(o.FieldNames(), ", "), o.Model)
	case DropField:
		return fmt.Sprintf("Remove field %s from %s", strings.Join(o.FieldNames(), ", "), o.Model)
	case AlterField:
		return fmt.Sprintf("Alter field %s on %s", strings.Join(o.FieldNames(), ", "), o.Model)
	case RenameField:
		return fmt.Sprintf("Rename field %s on %s to %s", o.OldName, o.Model, o.NewName)
	case AddJunction:
		return fmt.Sprintf("Add many-to-many %s to %s", strings.Join(o.FieldNames(), ", "), o.Model)
	case DropJunction:
		return fmt.Sprintf("Remove many-to-many %s from %s", strings.Join(o.FieldNames(), ", "), o.Model)
	}
	return string(o.Type)
}

// Clone returns a copy whose slices can be changed independently.
func (o *Operation) Clone() *Operation {
	c := *o
	c.Fields = append([]schema.Field(nil), o.Fields...)
	c.Previous = append([]schema.Field(nil), o.Previous...)
	c.TransientDefaults = append([]string(nil), o.TransientDefaults...)
	c.DependsOn = append([]Dependency(nil), o.DependsOn...)
	if o.Junction != nil {
		j := *o.Junction
		c.Junction = &j
	}
	return &c
}

// Apply replays the forward effect of the operation on state.
func (o *Operation) Apply(state *schema.ProjectState) error {
	switch o.Type {
	case CreateModel:
		m := &schema.ModelState{Name: o.Model, Table: o.Table, Managed: true}
		for _, f := range o.Fields {
			m.Fields = append(m.Fields, o.persisted(f))
		}
		if m.Table == "" {
			m.Table = schema.TableName(o.Model)
		}
		return state.AddModel(m)
	case DropModel:
		return state.RemoveModel(o.Model)
	case RenameModel:
		return state.RenameModel(o.OldName, o.NewName, o.Table)
	}

	m, ok := state.Model(o.Model)
	if !ok {
		return fmt.Errorf("%s: model %s does not exist", o.Type, o.Model)
	}
	switch o.Type {
	case AddField, AddJunction:
		for _, f := range o.Fields {
			if err := m.AddField(o.persisted(f)); err != nil {
				return err
			}
		}
	case DropField, DropJunction:
		for _, f := range o.Fields {
			if _, err := m.RemoveField(f.Name); err != nil {
				return err
			}
		}
	case AlterField:
		for _, f := range o.Fields {
			if err := m.ReplaceField(o.persisted(f)); err != nil {
				return err
			}
		}
	case RenameField:
		return m.RenameField(o.OldName, o.NewName)
	default:
		return fmt.Errorf("unknown operation type %q", o.Type)
	}
	return nil
}

// persisted strips a one-off backfill default.
func (o *Operation) persisted(f schema.Field) schema.Field {
	for _, name := range o.TransientDefaults {
		if name == f.Name {
			f.Default = nil
		}
	}
	return f
}

// Apply replays ops in order on a copy of state.
func Apply(state *schema.ProjectState, ops []*Operation) (*schema.ProjectState, error) {
	out := state.Clone()
	for i, op := range ops {
		if err := op.Apply(out); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op, err)
		}
	}
	return out, nil
}

func (o *Operation) dependsOn(model, action string) {
	key := strings.ToLower(model)
	for _, d := range o.DependsOn {
		if d.Model == key {
			return
		}
	}
	o.DependsOn = append(o.DependsOn, Dependency{Model: key, Action: action})
}
