package diff

// Order arranges ops in three tiers: operations without dependencies in
// detection order, then dependent operations, then operations on proxy and
// junction models. Each dependent operation must find its own model and
// every dependency among the models known so far, otherwise a
// *ResolutionError is returned.
//
// Proxy operations come last even when a dependent operation needs the
// model they introduce; such a plan fails with a ResolutionError.
func Order(ops []*Operation, known map[string]bool) ([]*Operation, error) {
	available := make(map[string]bool, len(known))
	for name := range known {
		available[name] = true
	}

	ordered := make([]*Operation, 0, len(ops))
	var dependent, proxied []*Operation

	for _, op := range ops {
		switch {
		case len(op.DependsOn) == 0:
			ordered = append(ordered, op)
			if op.Type != DropModel {
				available[op.Key()] = true
			}
		case op.Proxy:
			proxied = append(proxied, op)
		default:
			dependent = append(dependent, op)
		}
	}

	for _, tier := range [][]*Operation{dependent, proxied} {
		for _, op := range tier {
			if missing := missingModels(op, available); len(missing) > 0 {
				return nil, &ResolutionError{Operation: op.Type, Model: op.Model, Missing: missing}
			}
			ordered = append(ordered, op)
			available[op.Key()] = true
		}
	}
	return ordered, nil
}

func missingModels(op *Operation, available map[string]bool) []string {
	var missing []string
	seen := make(map[string]bool)
	check := func(name string) {
		if !available[name] && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}
	check(op.Key())
	for _, dep := range op.DependsOn {
		check(dep.Model)
	}
	return missing
}
