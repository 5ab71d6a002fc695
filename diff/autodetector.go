package diff

import (
	"io"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/automigrate/schema"
)

// AutoDetector computes the operations that turn one project state into
// another. The states it is given are never modified.
type AutoDetector struct {
	from       *schema.ProjectState
	to         *schema.ProjectState
	questioner Questioner
	logger     *slog.Logger

	ops []*Operation

	// renamedModels maps a new model key to the old key it replaces.
	renamedModels map[string]string
	// renamedModelsTo maps an old model key to the new model name.
	renamedModelsTo map[string]string
	// renamedFields maps a model key to new field name -> old field name.
	renamedFields map[string]map[string]string
	// detachedFields maps a model key to relation fields already dropped
	// ahead of the model they point at.
	detachedFields map[string]map[string]bool
}

// Option configures an AutoDetector.
type Option func(*AutoDetector)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *AutoDetector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewAutoDetector creates a detector diffing from (history) against to
// (declared models). A nil questioner declines every question.
func NewAutoDetector(from, to *schema.ProjectState, q Questioner, opts ...Option) *AutoDetector {
	if from == nil {
		from = schema.NewProjectState()
	}
	if to == nil {
		to = schema.NewProjectState()
	}
	if q == nil {
		q = declineAll{}
	}
	d := &AutoDetector{
		from:       from,
		to:         to,
		questioner: q,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Changes runs every scan, merges what can be merged and returns the
// operations in dependency order.
func (d *AutoDetector) Changes() ([]*Operation, error) {
	d.ops = nil
	d.renamedModels = make(map[string]string)
	d.renamedModelsTo = make(map[string]string)
	d.renamedFields = make(map[string]map[string]string)
	d.detachedFields = make(map[string]map[string]bool)

	// Renames first so later scans see the new names
	d.detectRenamedModels()
	d.detectDroppedModels()
	d.detectCreatedModels()
	d.detectMovedTables()
	d.detectRenamedFields()
	d.detectDroppedFields()
	d.detectAddedFields()
	d.detectAlteredFields()

	known := d.knownModels()
	detected := len(d.ops)
	ops := Optimize(d.ops, known)
	ordered, err := Order(ops, known)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("changes detected", "detected", detected, "operations", len(ordered))
	return ordered, nil
}

func (d *AutoDetector) add(op *Operation) {
	d.logger.Debug("operation detected", "type", op.Type, "model", op.Model, "fields", op.FieldNames())
	d.ops = append(d.ops, op)
}

// oldMigrated and newMigrated are the model keys that take part in the diff.
func (d *AutoDetector) oldMigrated() map[string]bool {
	return toSet(d.from.Migrated())
}

func (d *AutoDetector) newMigrated() map[string]bool {
	return toSet(d.to.Migrated())
}

// addedModels returns new model keys with no counterpart in history.
func (d *AutoDetector) addedModels() []string {
	old := d.oldMigrated()
	var keys []string
	for _, key := range d.to.Migrated() {
		if old[key] {
			continue
		}
		if _, renamed := d.renamedModels[key]; renamed {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// removedModels returns history model keys missing from the declared models.
func (d *AutoDetector) removedModels() []string {
	current := d.newMigrated()
	var keys []string
	for _, key := range d.from.Migrated() {
		if current[key] {
			continue
		}
		if _, renamed := d.renamedModelsTo[key]; renamed {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

type modelPair struct {
	old *schema.ModelState
	new *schema.ModelState
}

// commonModels pairs every declared model with its history counterpart,
// following model renames.
func (d *AutoDetector) commonModels() []modelPair {
	old := d.oldMigrated()
	var pairs []modelPair
	for _, key := range d.to.Migrated() {
		oldKey := key
		if renamed, ok := d.renamedModels[key]; ok {
			oldKey = renamed
		}
		if !old[oldKey] {
			continue
		}
		pairs = append(pairs, modelPair{old: d.from.Models[oldKey], new: d.to.Models[key]})
	}
	return pairs
}

// knownModels is the set of models that exist before the plan runs, under
// their new names.
func (d *AutoDetector) knownModels() map[string]bool {
	known := make(map[string]bool)
	for key := range d.from.Models {
		if newName, renamed := d.renamedModelsTo[key]; renamed {
			known[strings.ToLower(newName)] = true
			continue
		}
		known[key] = true
	}
	for key, m := range d.to.Models {
		if !m.Managed || m.Proxy {
			known[key] = true
		}
	}
	return known
}

// actionFor tells whether a referenced model already exists or is created
// by the plan.
func (d *AutoDetector) actionFor(model string) string {
	key := strings.ToLower(model)
	if d.knownModels()[key] {
		return ActionExists
	}
	return ActionCreated
}

func (d *AutoDetector) detectRenamedModels() {
	for _, newKey := range d.addedModels() {
		newModel := d.to.Models[newKey]
		newDefs := newModel.Definitions(nil)

		for _, oldKey := range d.removedModels() {
			oldModel := d.from.Models[oldKey]

			renames := make(map[string]string, len(d.renamedModelsTo)+1)
			for k, v := range d.renamedModelsTo {
				renames[k] = v
			}
			renames[oldKey] = newModel.Name

			if !schema.SameDefinitions(oldModel.Definitions(renames), newDefs) {
				continue
			}
			if !d.questioner.AskRenameModel(oldModel.Name, newModel.Name) {
				continue
			}
			d.add(&Operation{
				Type:    RenameModel,
				Model:   newModel.Name,
				Table:   newModel.Table,
				OldName: oldModel.Name,
				NewName: newModel.Name,
			})
			d.renamedModels[newKey] = oldKey
			d.renamedModelsTo[oldKey] = newModel.Name
			break
		}
	}
}

// detectDroppedModels drops models that are gone. Relations from surviving
// models into them are dropped first, and a dropped model goes before the
// dropped models it references.
func (d *AutoDetector) detectDroppedModels() {
	removed := d.removedModels()
	if len(removed) == 0 {
		return
	}
	gone := toSet(removed)

	for _, pair := range d.commonModels() {
		newFields := forward(pair.new)
		for _, of := range d.oldFields(pair.old) {
			if !gone[of.Target()] && !gone[strings.ToLower(of.Through)] {
				continue
			}
			if _, kept := lookup(newFields, of.Name); kept {
				continue
			}
			d.dropField(pair, of)
			if d.detachedFields[pair.new.Key()] == nil {
				d.detachedFields[pair.new.Key()] = make(map[string]bool)
			}
			d.detachedFields[pair.new.Key()][of.Name] = true
		}
	}

	models := make([]*schema.ModelState, 0, len(removed))
	remaining := make(map[string]bool)
	for _, key := range d.from.Names() {
		if !gone[key] {
			remaining[key] = true
		}
	}
	for _, key := range removed {
		models = append(models, d.from.Models[key])
	}
	ordered := ResolutionOrder(models, remaining)
	for i := len(ordered) - 1; i >= 0; i-- {
		m := ordered[i]
		d.add(&Operation{
			Type:   DropModel,
			Model:  m.Name,
			Table:  m.Table,
			Fields: append([]schema.Field(nil), m.Fields...),
		})
	}
}

func (d *AutoDetector) detectCreatedModels() {
	var created []*schema.ModelState
	for _, key := range d.addedModels() {
		created = append(created, d.to.Models[key])
	}

	for _, m := range ResolutionOrder(created, d.knownModels()) {
		// Local fields travel with the model, relations follow separately
		d.add(&Operation{
			Type:   CreateModel,
			Model:  m.Name,
			Table:  m.Table,
			Fields: m.LocalFields(),
		})
		for _, f := range m.RelationFields() {
			d.add(d.relationOp(m, f, ActionCreated))
		}
	}
}

// detectMovedTables catches models that kept their name but changed table.
func (d *AutoDetector) detectMovedTables() {
	for _, pair := range d.commonModels() {
		if _, renamed := d.renamedModels[pair.new.Key()]; renamed {
			continue
		}
		if pair.old.Table == pair.new.Table {
			continue
		}
		d.add(&Operation{
			Type:    RenameModel,
			Model:   pair.new.Name,
			Table:   pair.new.Table,
			OldName: pair.old.Name,
			NewName: pair.new.Name,
		})
	}
}

func (d *AutoDetector) detectRenamedFields() {
	for _, pair := range d.commonModels() {
		oldFields := d.oldFields(pair.old)
		newFields := forward(pair.new)

		var added, removed []schema.Field
		for _, f := range newFields {
			if _, ok := lookup(oldFields, f.Name); !ok {
				added = append(added, f)
			}
		}
		for _, f := range oldFields {
			if d.detachedFields[pair.new.Key()][f.Name] {
				continue
			}
			if _, ok := lookup(newFields, f.Name); !ok {
				removed = append(removed, f)
			}
		}

		used := make(map[string]bool)
		for _, nf := range added {
			for _, of := range removed {
				if used[of.Name] {
					continue
				}
				if !schema.SameSkeleton(of.Skeleton(), nf.Skeleton()) {
					continue
				}
				if !d.questioner.AskRenameField(pair.new.Name, of.Name, nf.Name) {
					continue
				}
				d.add(&Operation{
					Type:    RenameField,
					Model:   pair.new.Name,
					Table:   pair.new.Table,
					OldName: of.Name,
					NewName: nf.Name,
				})
				if d.renamedFields[pair.new.Key()] == nil {
					d.renamedFields[pair.new.Key()] = make(map[string]string)
				}
				d.renamedFields[pair.new.Key()][nf.Name] = of.Name
				used[of.Name] = true
				break
			}
		}
	}
}

func (d *AutoDetector) detectDroppedFields() {
	for _, pair := range d.commonModels() {
		renamedFrom := make(map[string]bool)
		for _, old := range d.renamedFields[pair.new.Key()] {
			renamedFrom[old] = true
		}
		newFields := forward(pair.new)
		for _, of := range d.oldFields(pair.old) {
			if renamedFrom[of.Name] || d.detachedFields[pair.new.Key()][of.Name] {
				continue
			}
			if _, ok := lookup(newFields, of.Name); ok {
				continue
			}
			d.dropField(pair, of)
		}
	}
}

func (d *AutoDetector) detectAddedFields() {
	for _, pair := range d.commonModels() {
		oldFields := d.oldFields(pair.old)
		for _, nf := range forward(pair.new) {
			if _, ok := lookup(oldFields, d.previousName(pair.new, nf.Name)); ok {
				continue
			}
			d.addField(pair.new, nf)
		}
	}
}

func (d *AutoDetector) detectAlteredFields() {
	for _, pair := range d.commonModels() {
		oldFields := d.oldFields(pair.old)
		for _, nf := range forward(pair.new) {
			of, ok := lookup(oldFields, d.previousName(pair.new, nf.Name))
			if !ok {
				continue
			}
			if schema.SameSkeleton(of.Skeleton(), nf.Skeleton()) {
				continue
			}

			// A many-to-many on either side cannot be altered in place
			if of.IsM2M() || nf.IsM2M() {
				d.dropField(pair, of)
				d.addField(pair.new, nf)
				continue
			}

			previous := of
			previous.Name = nf.Name
			op := &Operation{
				Type:     AlterField,
				Model:    pair.new.Name,
				Table:    pair.new.Table,
				Fields:   []schema.Field{nf},
				Previous: []schema.Field{previous},
			}
			if nf.IsRelation() {
				op.dependsOn(pair.new.Name, ActionExists)
				op.dependsOn(nf.To, d.actionFor(nf.Target()))
			}
			if of.Null && !nf.Null && !nf.HasDefault() {
				if value, ok := d.questioner.AskNotNullAlteration(pair.new.Name, nf.Name); ok {
					op.Fields[0].Default = &value
					op.TransientDefaults = []string{nf.Name}
				}
			}
			d.add(op)
		}
	}
}

// relationOp builds the operation adding relation field f to m.
func (d *AutoDetector) relationOp(m *schema.ModelState, f schema.Field, selfAction string) *Operation {
	op := &Operation{
		Type:   AddField,
		Model:  m.Name,
		Table:  m.Table,
		Fields: []schema.Field{f},
	}
	if f.IsM2M() && f.Through == "" {
		j := schema.NewJunction(m, f)
		op.Type = AddJunction
		op.Junction = &j
		op.Proxy = true
	}
	op.dependsOn(m.Name, selfAction)
	op.dependsOn(f.To, d.actionFor(f.Target()))
	if f.Through != "" {
		op.dependsOn(f.Through, d.actionFor(f.Through))
	}
	return op
}

// addField adds f to an existing model, asking for a backfill value when
// existing rows would violate NOT NULL.
func (d *AutoDetector) addField(m *schema.ModelState, f schema.Field) {
	var op *Operation
	if f.IsRelation() {
		op = d.relationOp(m, f, ActionExists)
	} else {
		op = &Operation{Type: AddField, Model: m.Name, Table: m.Table, Fields: []schema.Field{f}}
	}
	if !f.IsM2M() && needsBackfill(f) {
		if value, ok := d.questioner.AskNotNullDefault(m.Name, f.Name); ok {
			op.Fields[0].Default = &value
			op.TransientDefaults = []string{f.Name}
		}
	}
	d.add(op)
}

// dropField removes the history shape of f from the model.
func (d *AutoDetector) dropField(pair modelPair, f schema.Field) {
	op := &Operation{
		Type:   DropField,
		Model:  pair.new.Name,
		Table:  pair.new.Table,
		Fields: []schema.Field{f},
	}
	if f.IsM2M() && f.Through == "" {
		j := schema.NewJunction(pair.old, f)
		op.Type = DropJunction
		op.Junction = &j
		op.Proxy = true
	}
	d.add(op)
}

// oldFields returns the forward fields of a history model with relation
// targets mapped to renamed models.
func (d *AutoDetector) oldFields(m *schema.ModelState) []schema.Field {
	fields := forward(m)
	for i, f := range fields {
		fields[i] = schema.Retarget(f, d.renamedModelsTo)
	}
	return fields
}

// previousName maps a field name on a declared model to its history name.
func (d *AutoDetector) previousName(m *schema.ModelState, name string) string {
	if old, ok := d.renamedFields[m.Key()][name]; ok {
		return old
	}
	return name
}

func needsBackfill(f schema.Field) bool {
	return !f.Null && !f.HasDefault() && !f.AutoNow && !f.AutoNowAdd
}

func forward(m *schema.ModelState) []schema.Field {
	var fields []schema.Field
	for _, f := range m.Fields {
		if !f.Inverse {
			fields = append(fields, f)
		}
	}
	return fields
}

func lookup(fields []schema.Field, name string) (schema.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
