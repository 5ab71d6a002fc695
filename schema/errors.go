package schema

import "fmt"

// ResolutionError reports a relation whose target model is not declared.
type ResolutionError struct {
	Model  string
	Field  string
	Target string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("model %s field %s references model %s that does not seem to exist", e.Model, e.Field, e.Target)
}
