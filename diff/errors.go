package diff

import (
	"fmt"
	"strings"
)

// ResolutionError is returned when an operation needs a model that is
// neither migrated nor created earlier in the plan.
type ResolutionError struct {
	Operation OperationType
	Model     string
	Missing   []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("trying %s on %s that depends on model %s that does not seem to exist",
		e.Operation, e.Model, strings.Join(e.Missing, ", "))
}
