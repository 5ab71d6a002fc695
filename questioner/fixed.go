package questioner

import "strings"

// Fixed gives scripted answers and records every question asked.
type Fixed struct {
	// ModelRenames maps old model name to new model name.
	ModelRenames map[string]string
	// FieldRenames maps "model.old" to the new field name.
	FieldRenames map[string]string
	// Defaults maps "model.field" to a one-off value.
	Defaults map[string]string

	Asked []string
}

func (q *Fixed) AskRenameModel(oldName, newName string) bool {
	q.Asked = append(q.Asked, "rename_model:"+oldName+"->"+newName)
	return strings.EqualFold(q.ModelRenames[strings.ToLower(oldName)], newName) ||
		strings.EqualFold(q.ModelRenames[oldName], newName)
}

func (q *Fixed) AskRenameField(model, oldName, newName string) bool {
	q.Asked = append(q.Asked, "rename_field:"+model+"."+oldName+"->"+newName)
	return q.FieldRenames[strings.ToLower(model)+"."+oldName] == newName
}

func (q *Fixed) AskNotNullDefault(model, field string) (string, bool) {
	q.Asked = append(q.Asked, "not_null:"+model+"."+field)
	v, ok := q.Defaults[strings.ToLower(model)+"."+field]
	return v, ok
}

func (q *Fixed) AskNotNullAlteration(model, field string) (string, bool) {
	q.Asked = append(q.Asked, "not_null_alter:"+model+"."+field)
	v, ok := q.Defaults[strings.ToLower(model)+"."+field]
	return v, ok
}
