package schema

import (
	"fmt"
	"strings"
)

// Registry is a source of declared models.
type Registry interface {
	Names() []string
	Model(name string) (*ModelState, bool)
}

// MemoryRegistry keeps declared models in declaration order.
type MemoryRegistry struct {
	order  []string
	models map[string]*ModelState
}

// NewRegistry creates a registry holding models. Duplicate names keep the
// last declaration.
func NewRegistry(models ...*ModelState) *MemoryRegistry {
	r := &MemoryRegistry{models: make(map[string]*ModelState)}
	for _, m := range models {
		if _, exists := r.models[m.Key()]; !exists {
			r.order = append(r.order, m.Name)
		}
		r.models[m.Key()] = m
	}
	return r
}

// Register adds a model, failing on a duplicate name.
func (r *MemoryRegistry) Register(m *ModelState) error {
	if _, exists := r.models[m.Key()]; exists {
		return fmt.Errorf("model %s is declared twice", m.Name)
	}
	r.order = append(r.order, m.Name)
	r.models[m.Key()] = m
	return nil
}

func (r *MemoryRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *MemoryRegistry) Model(name string) (*ModelState, bool) {
	m, ok := r.models[strings.ToLower(name)]
	return m, ok
}

// FromRegistry snapshots every declared model into a ProjectState and checks
// that all relations resolve.
func FromRegistry(reg Registry) (*ProjectState, error) {
	state := NewProjectState()
	for _, name := range reg.Names() {
		declared, ok := reg.Model(name)
		if !ok {
			return nil, fmt.Errorf("registry lists model %s but cannot return it", name)
		}
		m := declared.Clone()
		if m.Table == "" {
			m.Table = TableName(m.Name)
		}
		for i, f := range m.Fields {
			m.Fields[i] = f.Normalize()
		}
		if err := state.AddModel(m); err != nil {
			return nil, err
		}
	}
	if err := state.Resolve(); err != nil {
		return nil, err
	}
	return state, nil
}
