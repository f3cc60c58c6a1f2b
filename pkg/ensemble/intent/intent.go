// Package intent classifies a user request so the orchestrator can pick
// a pipeline configuration.
package intent

import "fmt"

// Intent is the classification label driving pipeline selection.
type Intent int

const (
	Factual Intent = iota
	Creative
)

// String implements fmt.Stringer
func (i Intent) String() string {
	switch i {
	case Factual:
		return "factual"
	case Creative:
		return "creative"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}
