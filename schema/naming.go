package schema

import "strings"

// ToSnakeCase converts PascalCase to snake_case.
func ToSnakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && ((prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9')) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}

// TableName derives the default table for a model name.
func TableName(model string) string {
	table := ToSnakeCase(model)
	switch {
	case table == "":
		return table
	case strings.HasSuffix(table, "y") && !strings.HasSuffix(table, "ey"):
		return strings.TrimSuffix(table, "y") + "ies"
	case strings.HasSuffix(table, "s"):
		return table
	default:
		return table + "s"
	}
}
