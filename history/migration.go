package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/automigrate/diff"
)

// Extension of migration artifacts on disk.
const Extension = ".yaml"

// Migration is one generated artifact: a name, the migrations it follows
// and the operations it applies.
type Migration struct {
	Name         string            `yaml:"name"`
	Dependencies []string          `yaml:"dependencies,omitempty"`
	Operations   []*diff.Operation `yaml:"operations"`
}

// FileName returns the artifact file name for the migration.
func (m *Migration) FileName() string {
	return m.Name + Extension
}

// Parse decodes one artifact.
func Parse(data []byte) (*Migration, error) {
	var m Migration
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads every artifact in dir. A missing directory means no history.
func Load(dir string) ([]*Migration, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	migrations := make([]*Migration, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		m, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse migration %s: %w", name, err)
		}
		stem := strings.TrimSuffix(name, Extension)
		if m.Name == "" {
			m.Name = stem
		}
		if m.Name != stem {
			return nil, fmt.Errorf("migration file %s declares name %s", name, m.Name)
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}
