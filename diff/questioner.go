package diff

// Questioner resolves what the detector cannot decide alone.
type Questioner interface {
	// AskRenameModel reports whether oldName was renamed to newName.
	AskRenameModel(oldName, newName string) bool
	// AskRenameField reports whether a field on model was renamed.
	AskRenameField(model, oldName, newName string) bool
	// AskNotNullDefault asks for a one-off value to fill existing rows when
	// a NOT NULL field without default is added. ok is false when declined.
	AskNotNullDefault(model, field string) (value string, ok bool)
	// AskNotNullAlteration is like AskNotNullDefault for a field that
	// changes from nullable to NOT NULL.
	AskNotNullAlteration(model, field string) (value string, ok bool)
}

// declineAll answers no to everything.
type declineAll struct{}

func (declineAll) AskRenameModel(string, string) bool              { return false }
func (declineAll) AskRenameField(string, string, string) bool      { return false }
func (declineAll) AskNotNullDefault(string, string) (string, bool) { return "", false }
func (declineAll) AskNotNullAlteration(string, string) (string, bool) {
	return "", false
}
