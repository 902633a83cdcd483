package core

// CTE is one named, orderable unit of the final WITH statement. A CTE is
// created once by the builder from exactly one fragment and is immutable
// thereafter; the assembler only reads it.
type CTE struct {
	// Name is the unique identifier within one statement (e.g. "cte_1").
	// Uniqueness is enforced at assembly time, not by construction.
	Name string

	// Query is the fully formed SELECT body, without WITH or terminator.
	Query string

	// DependsOn lists CTE names that must appear earlier in the statement.
	// Duplicates in input are permitted; the builder de-duplicates while
	// preserving first-seen order.
	DependsOn []string

	// RequiresUnnest is carried from the originating fragment.
	RequiresUnnest bool

	// SourceFragment is an optional back-reference for debugging.
	SourceFragment *Fragment

	// Metadata is copied (never aliased) from the fragment's metadata.
	Metadata map[string]any
}
