package diff

import (
	"sort"

	"github.com/ridoystarlord/automigrate/schema"
)

// ResolutionOrder orders models so each one comes after the models it
// references. known holds models that already exist. Models whose
// references never resolve (cycles) are appended last in name order.
func ResolutionOrder(models []*schema.ModelState, known map[string]bool) []*schema.ModelState {
	available := make(map[string]bool, len(known))
	for name := range known {
		available[name] = true
	}

	ordered := make([]*schema.ModelState, 0, len(models))
	placed := make(map[string]bool, len(models))

	for pass := 0; pass < len(models); pass++ {
		progress := false
		for _, m := range models {
			if placed[m.Key()] {
				continue
			}
			ready := true
			for _, dep := range m.Dependencies() {
				if !available[dep] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			ordered = append(ordered, m)
			placed[m.Key()] = true
			available[m.Key()] = true
			progress = true
		}
		if !progress {
			break
		}
	}

	var rest []*schema.ModelState
	for _, m := range models {
		if !placed[m.Key()] {
			rest = append(rest, m)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Key() < rest[j].Key() })
	return append(ordered, rest...)
}
