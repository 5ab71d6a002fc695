package validator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/automigrate/schema"
)

// Severity levels
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a validation finding with details
type ValidationError struct {
	Type     string `json:"type"`
	Model    string `json:"model,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

func (r *ValidationResult) addError(typ, model, field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Type:     typ,
		Model:    model,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (r *ValidationResult) addWarning(typ, model, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{
		Type:     typ,
		Model:    model,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

var validOnDelete = map[string]bool{
	"CASCADE": true, "RESTRICT": true, "SET NULL": true, "SET DEFAULT": true, "NO ACTION": true,
}

var reservedKeywords = map[string]bool{
	"user": true, "order": true, "group": true, "table": true, "index": true, "view": true, "schema": true,
}

// Validate checks declared models without touching a database.
func Validate(reg schema.Registry) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	tables := make(map[string]string)
	for _, name := range reg.Names() {
		model, ok := reg.Model(name)
		if !ok {
			continue
		}
		validateModel(reg, model, result)

		if model.Proxy {
			continue
		}
		if other, exists := tables[model.Table]; exists {
			result.addError("duplicate_table", model.Name, "", "models %s and %s share table '%s'", other, model.Name, model.Table)
			continue
		}
		tables[model.Table] = model.Name
	}

	// Implicit junction tables must not collide with model tables
	for _, name := range reg.Names() {
		model, ok := reg.Model(name)
		if !ok {
			continue
		}
		for _, f := range model.RelationFields() {
			if !f.IsM2M() || f.Through != "" {
				continue
			}
			j := schema.NewJunction(model, f)
			if other, exists := tables[j.Table]; exists {
				result.addError("junction_table", model.Name, f.Name,
					"junction table '%s' for %s.%s collides with model %s", j.Table, model.Name, f.Name, other)
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateModel validates a single model
func validateModel(reg schema.Registry, model *schema.ModelState, result *ValidationResult) {
	if err := validateIdentifier("table", model.Table); err != nil {
		result.addError("table_name", model.Name, "", "%s", err)
	} else if reservedKeywords[strings.ToLower(model.Table)] {
		result.addWarning("table_name", model.Name, "", "table name '%s' is a reserved keyword and must be quoted", model.Table)
	}

	if len(model.Fields) == 0 {
		result.addError("no_fields", model.Name, "", "model '%s' must have at least one field", model.Name)
		return
	}

	seen := make(map[string]bool)
	hasPrimaryKey := false

	for _, f := range model.Fields {
		// Check for duplicate field names
		if seen[f.Name] {
			result.addError("duplicate_field", model.Name, f.Name, "duplicate field name '%s' in model '%s'", f.Name, model.Name)
			continue
		}
		seen[f.Name] = true

		if err := validateIdentifier("field", f.Name); err != nil {
			result.addError("field_name", model.Name, f.Name, "%s", err)
		}
		if f.Primary {
			hasPrimaryKey = true
		}

		if f.IsRelation() {
			validateRelation(reg, model, f, result)
			continue
		}
		if f.Kind != schema.Scalar && f.Kind != "" {
			result.addError("field_kind", model.Name, f.Name, "unknown field kind '%s'", f.Kind)
			continue
		}

		if err := validateDataType(f.Type); err != nil {
			result.addError("data_type", model.Name, f.Name, "%s", err)
			continue
		}
		if f.Default != nil {
			if err := validateDefaultValue(f.Type, *f.Default); err != nil {
				result.addWarning("default_value", model.Name, f.Name, "%s", err)
			}
		}
	}

	if !hasPrimaryKey && model.Managed && !model.Proxy {
		result.addWarning("no_primary_key", model.Name, "", "model '%s' has no primary key defined", model.Name)
	}
}

// validateRelation checks that a relation points at a declared model
func validateRelation(reg schema.Registry, model *schema.ModelState, f schema.Field, result *ValidationResult) {
	if f.To == "" {
		result.addError("relation_target", model.Name, f.Name, "relation '%s' has no target model", f.Name)
		return
	}
	if _, ok := reg.Model(f.To); !ok && !f.Inverse {
		result.addError("relation_target", model.Name, f.Name, "relation '%s' references non-existent model '%s'", f.Name, f.To)
	}
	if f.Through != "" {
		if !f.IsM2M() {
			result.addError("through", model.Name, f.Name, "only many-to-many relations can use a through model")
		} else if _, ok := reg.Model(f.Through); !ok {
			result.addError("through", model.Name, f.Name, "through model '%s' does not exist", f.Through)
		}
	}
	if f.OnDelete != "" {
		action := strings.ToUpper(f.OnDelete)
		if !validOnDelete[action] {
			result.addError("on_delete", model.Name, f.Name, "invalid on_delete action '%s'", f.OnDelete)
		} else if action == "SET NULL" && !f.Null {
			result.addWarning("on_delete", model.Name, f.Name, "on_delete SET NULL on non-nullable relation '%s'", f.Name)
		}
	}
	if f.IsM2M() && f.Default != nil {
		result.addError("default_value", model.Name, f.Name, "many-to-many relation '%s' cannot have a default", f.Name)
	}
}

// validateIdentifier checks PostgreSQL identifier rules
func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}
	return nil
}

var validTypes = map[string]bool{
	// Numeric types
	"smallint": true, "integer": true, "bigint": true,
	"decimal": true, "numeric": true, "real": true, "double precision": true,
	"serial": true, "bigserial": true, "smallserial": true,

	// Character types
	"character varying": true, "varchar": true, "character": true, "char": true,
	"text": true,

	"bytea": true,

	// Date/time types
	"timestamp": true, "timestamp with time zone": true, "timestamptz": true,
	"date": true, "time": true, "time with time zone": true, "timetz": true,
	"interval": true,

	"boolean": true, "bool": true,
	"json": true, "jsonb": true,
	"uuid": true,

	// Network address types
	"cidr": true, "inet": true, "macaddr": true, "macaddr8": true,
}

// validateDataType validates a column type. Length and precision
// modifiers and array suffixes are accepted on any known type.
func validateDataType(dataType string) error {
	base := strings.ToLower(strings.TrimSpace(dataType))
	base = strings.TrimSuffix(base, "[]")
	if i := strings.Index(base, "("); i >= 0 {
		if !strings.HasSuffix(base, ")") {
			return fmt.Errorf("malformed data type '%s'", dataType)
		}
		base = strings.TrimSpace(base[:i])
	}
	if !validTypes[base] {
		return fmt.Errorf("unsupported data type '%s'", dataType)
	}
	return nil
}

// validateDefaultValue validates default value against data type
func validateDefaultValue(dataType, defaultValue string) error {
	dataType = strings.ToLower(dataType)
	isCall := strings.Contains(defaultValue, "(")

	switch {
	case strings.Contains(dataType, "int") || strings.Contains(dataType, "serial"):
		if !isCall && !strings.Contains(defaultValue, "'") && strings.Contains(defaultValue, ".") {
			return fmt.Errorf("integer type cannot have decimal default value '%s'", defaultValue)
		}
	case strings.Contains(dataType, "char") || dataType == "text":
		if !isCall && !strings.HasPrefix(defaultValue, "'") {
			return fmt.Errorf("string type should have quoted default value '%s'", defaultValue)
		}
	case dataType == "boolean" || dataType == "bool":
		switch strings.ToLower(defaultValue) {
		case "true", "false":
		default:
			return fmt.Errorf("boolean type should have true/false default value, got '%s'", defaultValue)
		}
	}
	return nil
}
