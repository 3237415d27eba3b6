package skillgraph

import (
	"fmt"
	"strings"
)

// GraphError reports structural problems in a skill graph document. All
// problems found during validation are collected into one error so a broken
// document can be fixed in a single pass. Fatal at load time.
type GraphError struct {
	Problems []string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("skill graph validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// UnknownRoleError is returned when a role has no target-mastery entries in
// the graph. Recoverable: the caller should pick one of Known.
type UnknownRoleError struct {
	Role  string
	Known []string
}

func (e *UnknownRoleError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown role %q (graph defines no roles)", e.Role)
	}
	return fmt.Sprintf("unknown role %q (known roles: %s)", e.Role, strings.Join(e.Known, ", "))
}
