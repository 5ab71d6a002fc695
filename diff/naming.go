package diff

import (
	"fmt"
	"strings"
	"time"

	"github.com/ridoystarlord/automigrate/schema"
)

// SuggestName proposes a migration name. The first migration is always
// "m0001_initial"; a single operation is described, anything larger gets
// a timestamp.
func SuggestName(ops []*Operation, number int, now time.Time) string {
	if number <= 1 {
		return "m0001_initial"
	}
	if len(ops) == 1 {
		return fmt.Sprintf("m%04d_%s", number, fragment(ops[0]))
	}
	return fmt.Sprintf("m%04d_auto_%s", number, now.Format("20060102_1504"))
}

// MigrationNumber parses the number out of a name like "m0004_add_book".
func MigrationNumber(name string) (int, error) {
	prefix, _, _ := strings.Cut(name, "_")
	var n int
	if _, err := fmt.Sscanf(prefix, "m%d", &n); err != nil {
		return 0, fmt.Errorf("migration name %q has no number: %w", name, err)
	}
	return n, nil
}

func fragment(op *Operation) string {
	parts := []string{op.Describe(), schema.ToSnakeCase(op.Model)}
	switch op.Type {
	case CreateModel, DropModel:
	case RenameModel:
		parts = []string{op.Describe(), schema.ToSnakeCase(op.OldName), schema.ToSnakeCase(op.NewName)}
	case RenameField:
		parts = append(parts, op.NewName)
	default:
		parts = append(parts, op.FieldNames()...)
	}
	return strings.ToLower(strings.Join(parts, "_"))
}
