package introspect

import (
	"fmt"
	"sort"

	"github.com/ridoystarlord/automigrate/schema"
)

// DriftKind classifies one difference between history and the database.
type DriftKind string

const (
	MissingTable  DriftKind = "missing_table"
	ExtraTable    DriftKind = "extra_table"
	MissingColumn DriftKind = "missing_column"
	ExtraColumn   DriftKind = "extra_column"
	NullMismatch  DriftKind = "null_mismatch"
)

// BookkeepingTables are never reported as extra.
var BookkeepingTables = []string{"schema_migrations", "migration_logs"}

// Drift is one difference between the replayed state and the catalogue.
type Drift struct {
	Kind   DriftKind
	Table  string
	Column string
	Detail string
}

func (d Drift) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Table)
	}
	return fmt.Sprintf("%s: %s.%s (%s)", d.Kind, d.Table, d.Column, d.Detail)
}

type expectedColumn struct {
	name     string
	nullable bool
	// checkNull is false for columns whose nullability the database decides.
	checkNull bool
}

type expectedTable struct {
	name    string
	owner   string
	columns []expectedColumn
	// loose tables may carry columns that are not declared.
	loose bool
}

// DetectDrift compares the tables the migrated models of state expect with
// tables read from the database. Results are sorted by table, then column.
func DetectDrift(state *schema.ProjectState, tables []ExistingTable) []Drift {
	existing := make(map[string]ExistingTable, len(tables))
	for _, t := range tables {
		existing[t.TableName] = t
	}

	var drifts []Drift
	expected := expectedTables(state)
	wanted := make(map[string]bool, len(expected))
	for _, want := range expected {
		wanted[want.name] = true
		have, ok := existing[want.name]
		if !ok {
			drifts = append(drifts, Drift{Kind: MissingTable, Table: want.name, Detail: want.owner})
			continue
		}
		drifts = append(drifts, compareColumns(want, have)...)
	}

	for _, name := range BookkeepingTables {
		wanted[name] = true
	}
	// Unmanaged and proxy models point at tables owned elsewhere.
	for _, m := range state.Models {
		wanted[m.Table] = true
	}
	for _, t := range tables {
		if !wanted[t.TableName] {
			drifts = append(drifts, Drift{Kind: ExtraTable, Table: t.TableName})
		}
	}

	sort.SliceStable(drifts, func(i, j int) bool {
		if drifts[i].Table != drifts[j].Table {
			return drifts[i].Table < drifts[j].Table
		}
		return drifts[i].Column < drifts[j].Column
	})
	return drifts
}

func compareColumns(want expectedTable, have ExistingTable) []Drift {
	var drifts []Drift
	declared := make(map[string]bool, len(want.columns))
	for _, col := range want.columns {
		declared[col.name] = true
		got, ok := have.Column(col.name)
		if !ok {
			drifts = append(drifts, Drift{Kind: MissingColumn, Table: want.name, Column: col.name, Detail: "declared in " + want.owner})
			continue
		}
		if col.checkNull && got.IsNullable != col.nullable {
			drifts = append(drifts, Drift{
				Kind:   NullMismatch,
				Table:  want.name,
				Column: col.name,
				Detail: fmt.Sprintf("history null=%t, database null=%t", col.nullable, got.IsNullable),
			})
		}
	}
	if want.loose {
		return drifts
	}
	for _, got := range have.Columns {
		if !declared[got.ColumnName] {
			drifts = append(drifts, Drift{Kind: ExtraColumn, Table: want.name, Column: got.ColumnName, Detail: "not in history"})
		}
	}
	return drifts
}

func expectedTables(state *schema.ProjectState) []expectedTable {
	var out []expectedTable
	for _, key := range state.Migrated() {
		m, _ := state.Model(key)
		t := expectedTable{name: m.Table, owner: m.Name}
		hasPrimary := false
		for _, f := range m.Fields {
			if f.Primary {
				hasPrimary = true
			}
			if col := f.Column(); col != "" {
				t.columns = append(t.columns, expectedColumn{name: col, nullable: f.Null, checkNull: !f.Primary})
			}
		}
		// Models without a declared key get an implicit id column.
		if !hasPrimary {
			t.columns = append([]expectedColumn{{name: "id"}}, t.columns...)
		}
		out = append(out, t)

		for _, f := range m.RelationFields() {
			if !f.IsM2M() || f.Through != "" {
				continue
			}
			j := schema.NewJunction(m, f)
			out = append(out, expectedTable{
				name:  j.Table,
				owner: m.Name + "." + f.Name,
				columns: []expectedColumn{
					{name: j.OwnerColumn, checkNull: true},
					{name: j.TargetColumn, checkNull: true},
				},
				loose: true,
			})
		}
	}
	return out
}
