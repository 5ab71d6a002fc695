package questioner

import (
	"log/slog"
	"strings"
)

// NonInteractive answers from configuration. Renames are only accepted when
// AssumeRenames is set; defaults come from a "model.field" keyed map.
type NonInteractive struct {
	Defaults      map[string]string
	AssumeRenames bool
	Logger        *slog.Logger
}

func (q *NonInteractive) AskRenameModel(oldName, newName string) bool {
	q.log("rename model", "from", oldName, "to", newName, "accepted", q.AssumeRenames)
	return q.AssumeRenames
}

func (q *NonInteractive) AskRenameField(model, oldName, newName string) bool {
	q.log("rename field", "model", model, "from", oldName, "to", newName, "accepted", q.AssumeRenames)
	return q.AssumeRenames
}

func (q *NonInteractive) AskNotNullDefault(model, field string) (string, bool) {
	return q.lookup(model, field)
}

func (q *NonInteractive) AskNotNullAlteration(model, field string) (string, bool) {
	return q.lookup(model, field)
}

func (q *NonInteractive) lookup(model, field string) (string, bool) {
	key := model + "." + field
	for k, v := range q.Defaults {
		if strings.EqualFold(k, key) {
			q.log("one-off default", "field", key, "value", v)
			return v, true
		}
	}
	q.log("no one-off default configured", "field", key)
	return "", false
}

func (q *NonInteractive) log(msg string, args ...any) {
	if q.Logger != nil {
		q.Logger.Debug(msg, args...)
	}
}
