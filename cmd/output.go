package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ridoystarlord/automigrate/diff"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderPlan prints operations in execution order.
func renderPlan(w io.Writer, ops []*diff.Operation) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Operation", "Model", "Fields", "Depends on"})
	for i, op := range ops {
		t.AppendRow(table.Row{i + 1, op.Describe(), modelLabel(op), strings.Join(op.FieldNames(), ", "), dependencyLabel(op)})
	}
	t.Render()
}

func modelLabel(op *diff.Operation) string {
	if op.Type == diff.RenameModel && !strings.EqualFold(op.OldName, op.NewName) {
		return op.OldName + " → " + op.NewName
	}
	if op.Type == diff.RenameModel {
		return fmt.Sprintf("%s (table %s)", op.Model, op.Table)
	}
	return op.Model
}

func dependencyLabel(op *diff.Operation) string {
	deps := make([]string, 0, len(op.DependsOn))
	for _, d := range op.DependsOn {
		deps = append(deps, fmt.Sprintf("%s (%s)", d.Model, d.Action))
	}
	return strings.Join(deps, ", ")
}
