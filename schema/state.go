package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ProjectState is the set of all models at one point in time, keyed by the
// lowercase model name.
type ProjectState struct {
	Models map[string]*ModelState
}

// NewProjectState builds a state from the given models.
func NewProjectState(models ...*ModelState) *ProjectState {
	s := &ProjectState{Models: make(map[string]*ModelState, len(models))}
	for _, m := range models {
		s.Models[m.Key()] = m
	}
	return s
}

// Model returns the model with the given name, ignoring case.
func (s *ProjectState) Model(name string) (*ModelState, bool) {
	m, ok := s.Models[strings.ToLower(name)]
	return m, ok
}

// Names returns the sorted model keys.
func (s *ProjectState) Names() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Migrated returns the keys of the managed, non-proxy models.
func (s *ProjectState) Migrated() []string {
	var names []string
	for _, name := range s.Names() {
		if m := s.Models[name]; m.Managed && !m.Proxy {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a deep copy.
func (s *ProjectState) Clone() *ProjectState {
	c := &ProjectState{Models: make(map[string]*ModelState, len(s.Models))}
	for name, m := range s.Models {
		c.Models[name] = m.Clone()
	}
	return c
}

// AddModel inserts a model that must not already exist.
func (s *ProjectState) AddModel(m *ModelState) error {
	if _, exists := s.Models[m.Key()]; exists {
		return fmt.Errorf("model %s already exists", m.Name)
	}
	if s.Models == nil {
		s.Models = make(map[string]*ModelState)
	}
	s.Models[m.Key()] = m
	return nil
}

// RemoveModel deletes a model.
func (s *ProjectState) RemoveModel(name string) error {
	key := strings.ToLower(name)
	if _, exists := s.Models[key]; !exists {
		return fmt.Errorf("model %s does not exist", name)
	}
	delete(s.Models, key)
	return nil
}

// RenameModel renames a model and rewrites every reference to it.
func (s *ProjectState) RenameModel(oldName, newName, table string) error {
	m, ok := s.Model(oldName)
	if !ok {
		return fmt.Errorf("model %s does not exist", oldName)
	}
	if _, exists := s.Model(newName); exists && !strings.EqualFold(oldName, newName) {
		return fmt.Errorf("model %s already exists", newName)
	}
	delete(s.Models, m.Key())
	m.Name = newName
	if table != "" {
		m.Table = table
	}
	s.Models[m.Key()] = m

	renames := map[string]string{strings.ToLower(oldName): newName}
	for _, other := range s.Models {
		for i, f := range other.Fields {
			other.Fields[i] = Retarget(f, renames)
		}
	}
	return nil
}

// ModelSkeleton is the comparable shape of one model.
type ModelSkeleton struct {
	Table  string
	Fields []Definition
}

// Skeleton returns the comparable shape of every migrated model. Two states
// with equal skeletons need no migration between them.
func (s *ProjectState) Skeleton() map[string]ModelSkeleton {
	out := make(map[string]ModelSkeleton)
	for _, name := range s.Migrated() {
		m := s.Models[name]
		out[name] = ModelSkeleton{Table: m.Table, Fields: m.Definitions(nil)}
	}
	return out
}

// Resolve checks that every forward relation points at a declared model.
func (s *ProjectState) Resolve() error {
	for _, name := range s.Names() {
		m := s.Models[name]
		for _, f := range m.RelationFields() {
			if _, ok := s.Models[f.Target()]; !ok {
				return &ResolutionError{Model: m.Name, Field: f.Name, Target: f.To}
			}
			if f.Through != "" {
				if _, ok := s.Model(f.Through); !ok {
					return &ResolutionError{Model: m.Name, Field: f.Name, Target: f.Through}
				}
			}
		}
	}
	return nil
}
