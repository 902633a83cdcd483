package translator

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/core"
)

// context is the mutable traversal state of one in-flight translation. It is
// created at the start of every Translate call and never shared; the
// translator instance itself stays stateless, which is what makes it safe to
// call concurrently.
type context struct {
	resourceType string

	// currentTable is the table or CTE the next step reads from.
	currentTable string
	// tableIsCTE is true once currentTable names a generated CTE rather
	// than the caller's source table.
	tableIsCTE bool

	// sourceCol is the renderable column expression holding the JSON of the
	// current element: the resource column before any flatten, the quoted
	// flatten alias after.
	sourceCol string

	// pathPrefix is the navigation path from the resource root to the
	// current element (empty before the first flatten). Metadata lookups
	// prepend it.
	pathPrefix string

	// pathStack is the pending navigation accumulated since the last
	// flattening boundary, not yet rendered into SQL.
	pathStack []string

	// pendingExpr is a computed expression awaiting its wrapping fragment;
	// set by value-producing functions (first, boundaries, casts). Mutually
	// exclusive with a non-empty pathStack.
	pendingExpr string

	// pendingAlias is the output column name the final flush should use.
	pendingAlias string

	// pendingType is the canonical FHIR type of the pending value, when the
	// metadata provider declared one.
	pendingType string

	// pendingIsArray is true when the pending path resolves to a repeating
	// field that has not been flattened yet.
	pendingIsArray bool

	// exprScope is the path prefix identifiers resolve against inside a
	// predicate (set while translating where/select arguments).
	exprScope string

	// bindings maps variable names ($this) to their current source column.
	bindings map[string]string

	cteCounter  int
	unnestDepth int
	aliasCounts map[string]int

	fragments []core.Fragment
}

func newContext(resourceType, table string) *context {
	return &context{
		resourceType: resourceType,
		currentTable: table,
		sourceCol:    core.ResourceColumn,
		bindings:     map[string]string{},
		aliasCounts:  map[string]int{},
	}
}

// snapshot captures every field a nested sub-translation may modify, so that
// sibling branches never observe each other's intermediate state.
type snapshot struct {
	sourceCol      string
	pathPrefix     string
	pathStack      []string
	pendingExpr    string
	pendingAlias   string
	pendingType    string
	pendingIsArray bool
	exprScope      string
	bindings       map[string]string
}

func (c *context) snapshot() snapshot {
	stack := make([]string, len(c.pathStack))
	copy(stack, c.pathStack)
	bindings := make(map[string]string, len(c.bindings))
	for k, v := range c.bindings {
		bindings[k] = v
	}
	return snapshot{
		sourceCol:      c.sourceCol,
		pathPrefix:     c.pathPrefix,
		pathStack:      stack,
		pendingExpr:    c.pendingExpr,
		pendingAlias:   c.pendingAlias,
		pendingType:    c.pendingType,
		pendingIsArray: c.pendingIsArray,
		exprScope:      c.exprScope,
		bindings:       bindings,
	}
}

func (c *context) restore(s snapshot) {
	c.sourceCol = s.sourceCol
	c.pathPrefix = s.pathPrefix
	c.pathStack = s.pathStack
	c.pendingExpr = s.pendingExpr
	c.pendingAlias = s.pendingAlias
	c.pendingType = s.pendingType
	c.pendingIsArray = s.pendingIsArray
	c.exprScope = s.exprScope
	c.bindings = s.bindings
}

// emit appends a fragment and advances the current table to the CTE name the
// builder will assign to it. The translator and the builder share the same
// cte_N naming scheme, counted per call, which is what lets pre-formed
// SELECTs reference earlier steps by name.
func (c *context) emit(f core.Fragment) {
	c.fragments = append(c.fragments, f)
	c.cteCounter++
	c.currentTable = fmt.Sprintf("cte_%d", c.cteCounter)
	c.tableIsCTE = true
}

// joinedPath returns the pending navigation path relative to the current
// element.
func (c *context) joinedPath() string {
	return strings.Join(c.pathStack, ".")
}

// fullPath returns the navigation path from the resource root, for metadata
// lookups and diagnostics.
func (c *context) fullPath(rel string) string {
	parts := make([]string, 0, 3)
	if c.pathPrefix != "" {
		parts = append(parts, c.pathPrefix)
	}
	if c.exprScope != "" {
		parts = append(parts, c.exprScope)
	}
	if rel != "" {
		parts = append(parts, rel)
	}
	return strings.Join(parts, ".")
}

// uniqueAlias returns base on first use and base_2, base_3, ... when the
// same base recurs within one translation, so repeated sibling arrays never
// collide.
func (c *context) uniqueAlias(base string) string {
	c.aliasCounts[base]++
	if n := c.aliasCounts[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

// dependencies returns the dependency list for a fragment reading from the
// current table: the current CTE name when one exists, nothing when the
// fragment reads the caller's source table.
func (c *context) dependencies() []string {
	if c.tableIsCTE {
		return []string{c.currentTable}
	}
	return nil
}
