package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/automigrate/schema"
)

type yamlFile struct {
	Models []yamlModel `yaml:"models"`
}

type yamlModel struct {
	Name    string         `yaml:"name"`
	Table   string         `yaml:"table"`
	Managed *bool          `yaml:"managed"`
	Proxy   bool           `yaml:"proxy"`
	Fields  []schema.Field `yaml:"fields"`
}

// LoadYAML reads declared models from a schema file.
func LoadYAML(filename string) (*schema.MemoryRegistry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes declared models from YAML.
func ParseYAML(data []byte) (*schema.MemoryRegistry, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	reg := schema.NewRegistry()
	for i, m := range yf.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("model #%d has no name", i+1)
		}
		model := schema.NewModelState(m.Name, m.Table, m.Fields...)
		if m.Managed != nil {
			model.Managed = *m.Managed
		}
		model.Proxy = m.Proxy
		for j, f := range model.Fields {
			if f.Name == "" {
				return nil, fmt.Errorf("model %s field #%d has no name", m.Name, j+1)
			}
		}
		if err := reg.Register(model); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
