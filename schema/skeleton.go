package schema

import (
	"sort"
	"strconv"
	"strings"
)

// Option is one key/value pair of a field skeleton.
type Option struct {
	Key   string
	Value string
}

// requiredKeys must be present on both sides for skeletons to be comparable.
var requiredKeys = []string{"kind", "type"}

// Skeleton returns the canonical option set used for equality checks. The
// field name and the transient keys (constraint name, trigger timestamps) are
// left out.
func (f Field) Skeleton() []Option {
	var opts []Option
	add := func(key, value string) {
		opts = append(opts, Option{Key: key, Value: value})
	}

	if f.Kind != "" {
		add("kind", string(f.Kind))
	}
	if f.Type != "" {
		add("type", strings.ToLower(f.Type))
	}
	add("primary", strconv.FormatBool(f.Primary))
	add("null", strconv.FormatBool(f.Null))
	add("unique", strconv.FormatBool(f.Unique))
	add("index", strconv.FormatBool(f.Index))
	if f.Default != nil {
		add("default", *f.Default)
	}
	if f.To != "" {
		add("to", strings.ToLower(f.To))
	}
	if f.Through != "" {
		add("through", strings.ToLower(f.Through))
	}
	if f.OnDelete != "" {
		add("on_delete", strings.ToUpper(f.OnDelete))
	}
	return opts
}

// SameSkeleton compares two skeletons. A skeleton missing one of the required
// keys is never equal to anything.
func SameSkeleton(a, b []Option) bool {
	if !hasRequired(a) || !hasRequired(b) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasRequired(opts []Option) bool {
	for _, key := range requiredKeys {
		found := false
		for _, o := range opts {
			if o.Key == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Definition pairs a field name with its skeleton.
type Definition struct {
	Name     string
	Skeleton []Option
}

// Definitions returns the name-sorted definitions of the model's non-inverse
// fields. Relation targets found in renames are rewritten to their new name
// before the skeleton is taken.
func (m *ModelState) Definitions(renames map[string]string) []Definition {
	var defs []Definition
	for _, f := range m.Fields {
		if f.Inverse {
			continue
		}
		defs = append(defs, Definition{Name: f.Name, Skeleton: Retarget(f, renames).Skeleton()})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// SameDefinitions compares two definition lists pairwise.
func SameDefinitions(a, b []Definition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !SameSkeleton(a[i].Skeleton, b[i].Skeleton) {
			return false
		}
	}
	return true
}

// Retarget rewrites relation references according to renames (lowercase old
// name to new name).
func Retarget(f Field, renames map[string]string) Field {
	if len(renames) == 0 {
		return f
	}
	if to, ok := renames[strings.ToLower(f.To)]; ok && f.IsRelation() {
		f.To = to
	}
	if through, ok := renames[strings.ToLower(f.Through)]; ok && f.Through != "" {
		f.Through = through
	}
	return f
}
