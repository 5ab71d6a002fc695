package loader

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/ridoystarlord/automigrate/schema"
)

// TagKey is the struct tag read by the tag loader.
const TagKey = "automigrate"

// TagLoader loads declared models from Go structs with automigrate tags
type TagLoader struct {
	modelsDir string
}

// NewTagLoader creates a new tag loader
func NewTagLoader(modelsDir string) *TagLoader {
	return &TagLoader{
		modelsDir: modelsDir,
	}
}

// LoadTags loads declared models from Go structs under modelsDir
func LoadTags(modelsDir string) (*schema.MemoryRegistry, error) {
	return NewTagLoader(modelsDir).Load()
}

// Load parses every Go file in the models directory
func (tl *TagLoader) Load() (*schema.MemoryRegistry, error) {
	// Check if models directory exists
	if _, err := os.Stat(tl.modelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("models directory '%s' does not exist. Run 'automigrate init' first", tl.modelsDir)
	}

	var models []*schema.ModelState

	err := filepath.Walk(tl.modelsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories, non-Go files and tests
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fileModels, err := tl.parseGoFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		models = append(models, fileModels...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	// Registry order must not depend on file layout
	sort.SliceStable(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	reg := schema.NewRegistry()
	for _, m := range models {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// parseGoFile parses a single Go file and extracts models
func (tl *TagLoader) parseGoFile(filePath string) ([]*schema.ModelState, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file: %w", err)
	}

	var models []*schema.ModelState
	var parseErr error

	ast.Inspect(node, func(n ast.Node) bool {
		if parseErr != nil {
			return false
		}
		spec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		structType, ok := spec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		model, err := tl.parseStruct(spec.Name.Name, structType)
		if err != nil {
			parseErr = err
			return false
		}
		if model != nil {
			models = append(models, model)
		}
		return true
	})

	return models, parseErr
}

// parseStruct converts a tagged struct to a model. Structs without any
// automigrate tag are not models.
func (tl *TagLoader) parseStruct(structName string, structType *ast.StructType) (*schema.ModelState, error) {
	model := schema.NewModelState(structName, "")
	tagged := false

	for _, field := range structType.Fields.List {
		tag, ok := lookupTag(field.Tag)
		if !ok {
			continue
		}
		tagged = true

		// Embedded or blank fields carry model options
		if len(field.Names) == 0 || field.Names[0].Name == "_" {
			if err := applyModelOptions(model, tag); err != nil {
				return nil, fmt.Errorf("%s: %w", structName, err)
			}
			continue
		}

		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) || tag == "-" {
			continue
		}

		f, err := tl.parseField(fieldName, field.Type, tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", structName, fieldName, err)
		}
		if err := model.AddField(f); err != nil {
			return nil, err
		}
	}

	if !tagged {
		return nil, nil
	}
	return model, nil
}

// parseField converts a struct field and its tag to a schema field
func (tl *TagLoader) parseField(fieldName string, expr ast.Expr, tag string) (schema.Field, error) {
	f := schema.Field{Kind: schema.Scalar}

	// Pointers are nullable unless the tag says otherwise
	if _, ok := expr.(*ast.StarExpr); ok {
		f.Null = true
	}

	// Parse tag parts (e.g. "column:name;type:text;unique;default:value")
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if hasValue {
			switch key {
			case "column":
				f.Name = value
			case "type":
				f.Type = value
			case "default":
				v := value
				f.Default = &v
			case "fk":
				f.Kind, f.To = schema.ForeignKey, value
			case "o2o":
				f.Kind, f.To = schema.OneToOne, value
			case "m2m":
				f.Kind, f.To = schema.ManyToMany, value
			case "through":
				f.Through = value
			case "on_delete":
				f.OnDelete = value
			case "constraint":
				f.ConstraintName = value
			default:
				return f, fmt.Errorf("unknown tag option %q", key)
			}
			continue
		}

		// Boolean flags
		switch key {
		case "primary":
			f.Primary = true
		case "unique":
			f.Unique = true
		case "index":
			f.Index = true
		case "null":
			f.Null = true
		case "not_null":
			f.Null = false
		case "inverse":
			f.Inverse = true
		case "auto_now":
			f.AutoNow = true
		case "auto_now_add":
			f.AutoNowAdd = true
		default:
			return f, fmt.Errorf("unknown tag option %q", key)
		}
	}

	// If no column name specified, use the field name (converted to snake_case)
	if f.Name == "" {
		f.Name = schema.ToSnakeCase(fieldName)
	}

	// If no data type specified, infer from Go type
	if f.Type == "" && !f.IsRelation() {
		f.Type = inferDataType(getFieldType(expr))
	}

	return f.Normalize(), nil
}

func applyModelOptions(model *schema.ModelState, tag string) error {
	for _, part := range strings.Split(tag, ";") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), ":")
		switch strings.TrimSpace(key) {
		case "":
		case "table":
			model.Table = strings.TrimSpace(value)
		case "unmanaged":
			model.Managed = false
		case "proxy":
			model.Proxy = true
		default:
			return fmt.Errorf("unknown model option %q", key)
		}
	}
	return nil
}

// lookupTag returns the automigrate tag of a struct field, if any
func lookupTag(tag *ast.BasicLit) (string, bool) {
	if tag == nil {
		return "", false
	}
	return reflect.StructTag(strings.Trim(tag.Value, "`")).Lookup(TagKey)
}

// getFieldType extracts the Go type name from an ast.Expr
func getFieldType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return getFieldType(t.X)
	case *ast.ArrayType:
		return "[]" + getFieldType(t.Elt)
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
	}
	return ""
}

// inferDataType infers a column type from a Go type
func inferDataType(goType string) string {
	switch goType {
	case "int", "int32":
		return "integer"
	case "int64":
		return "bigint"
	case "string":
		return "text"
	case "bool":
		return "boolean"
	case "float32", "float64":
		return "numeric"
	case "time.Time":
		return "timestamp"
	case "uuid.UUID":
		return "uuid"
	case "[]byte":
		return "bytea"
	default:
		if strings.HasPrefix(goType, "[]") {
			return "jsonb"
		}
		return "text"
	}
}
