package diff

// mergeable lists the (earlier, later) type pairs that can be folded.
var mergeable = map[OperationType]map[OperationType]bool{
	CreateModel: {AddField: true},
	AddField:    {AddField: true},
	DropField:   {DropField: true},
	AlterField:  {AlterField: true},
}

// Optimize folds later operations into earlier ones on the same model when
// the pair is mergeable and the later operation's dependencies are already
// met at the earlier one's position. Surviving operations keep their order.
// known holds the models that exist before the plan runs.
func Optimize(ops []*Operation, known map[string]bool) []*Operation {
	work := make([]*Operation, len(ops))
	kept := make([]bool, len(ops))
	for i, op := range ops {
		work[i] = op.Clone()
		kept[i] = true
	}

	for j, main := range work {
		if !kept[j] || mergeable[main.Type] == nil {
			continue
		}
		for i := j + 1; i < len(work); i++ {
			candidate := work[i]
			if !kept[i] || candidate.Key() != main.Key() || !mergeable[main.Type][candidate.Type] {
				continue
			}
			if !satisfiedAt(work, kept, j, candidate, known) {
				continue
			}
			if touchedBetween(work, kept, j, i, candidate) {
				continue
			}
			merge(main, candidate)
			kept[i] = false
		}
	}

	out := make([]*Operation, 0, len(work))
	for i, op := range work {
		if kept[i] {
			out = append(out, op)
		}
	}
	return out
}

// satisfiedAt reports whether every dependency of candidate exists at the
// position of work[pos]. The model the main operation acts on only counts
// when it existed before the plan.
func satisfiedAt(work []*Operation, kept []bool, pos int, candidate *Operation, known map[string]bool) bool {
	available := make(map[string]bool, len(known))
	for name := range known {
		available[name] = true
	}
	for k := 0; k < pos; k++ {
		if !kept[k] {
			continue
		}
		switch work[k].Type {
		case CreateModel, RenameModel:
			available[work[k].Key()] = true
		}
	}
	main := work[pos].Key()
	available[main] = known[main]

	for _, dep := range candidate.DependsOn {
		if !available[dep.Model] {
			return false
		}
	}
	return true
}

// touchedBetween reports whether an operation between from and to acts on
// the candidate's model as a whole or on one of its fields.
func touchedBetween(work []*Operation, kept []bool, from, to int, candidate *Operation) bool {
	names := toSet(candidate.FieldNames())
	for k := from + 1; k < to; k++ {
		op := work[k]
		if !kept[k] || op.Key() != candidate.Key() {
			continue
		}
		switch op.Type {
		case CreateModel, DropModel, RenameModel:
			return true
		}
		for _, name := range op.FieldNames() {
			if names[name] {
				return true
			}
		}
	}
	return false
}

func merge(main, candidate *Operation) {
	if main.Type == AlterField {
		for _, f := range candidate.Fields {
			replaced := false
			for i := range main.Fields {
				if main.Fields[i].Name == f.Name {
					main.Fields[i] = f
					replaced = true
				}
			}
			if !replaced {
				main.Fields = append(main.Fields, f)
			}
		}
		for _, f := range candidate.Previous {
			if _, ok := lookup(main.Previous, f.Name); !ok {
				main.Previous = append(main.Previous, f)
			}
		}
	} else {
		main.Fields = append(main.Fields, candidate.Fields...)
	}

	for _, name := range candidate.TransientDefaults {
		if !contains(main.TransientDefaults, name) {
			main.TransientDefaults = append(main.TransientDefaults, name)
		}
	}
	for _, dep := range candidate.DependsOn {
		main.dependsOn(dep.Model, dep.Action)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
