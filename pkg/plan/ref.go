package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// refPattern matches the reference placeholder grammar
// ${step_ref.outputs.output_name}. Neither segment may contain '}',
// whitespace, or (for the step segment) '.'. No nesting, no escaping.
var refPattern = regexp.MustCompile(`^\$\{([^}.\s]+)\.outputs\.([^}\s]+)\}$`)

// Ref is a parsed reference to another step's declared output.
type Ref struct {
	StepID string
	Output string
}

// String renders the placeholder form of the reference.
func (r Ref) String() string {
	return fmt.Sprintf("${%s.outputs.%s}", r.StepID, r.Output)
}

// ParseRef reports whether value is a reference placeholder and, if so,
// returns the parsed (step, output) pair. Anything that does not match the
// grammar, including malformed placeholders, is a literal.
func ParseRef(value any) (Ref, bool) {
	s, ok := value.(string)
	if !ok {
		return Ref{}, false
	}
	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Ref{}, false
	}
	return Ref{StepID: m[1], Output: m[2]}, true
}

// IsRef reports whether value parses as a reference placeholder.
func IsRef(value any) bool {
	_, ok := ParseRef(value)
	return ok
}
