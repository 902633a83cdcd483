package cte

import (
	"fmt"
	"strings"
)

// BuildError reports a fragment the builder could not wrap. Fatal; no
// partial chain is returned.
type BuildError struct {
	Index int // zero-based position of the offending fragment
	Msg   string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cte build error at fragment %d: %s", e.Index, e.Msg)
}

// DuplicateNameError reports CTE names that appear more than once in one
// assembly input. All offenders are listed, not just the first.
type DuplicateNameError struct {
	Names []string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate CTE name(s): %s", strings.Join(e.Names, ", "))
}

// MissingDependencyError reports every distinct dependency name that no CTE
// in the input defines.
type MissingDependencyError struct {
	Names []string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("missing CTE dependenc(ies): %s", strings.Join(e.Names, ", "))
}

// CycleError reports a dependency cycle with one concrete offending path.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}
