package core

// IDColumn is the row-identity column every source table and generated CTE
// must carry. Preserving it through every compilation step is what keeps the
// output joinable at population scale.
const IDColumn = "id"

// ResourceColumn is the column holding the raw JSON resource in a source
// table, per the tabular FHIR storage convention.
const ResourceColumn = "resource"

// Metadata keys recognized on fragments and CTEs. The metadata map is a
// loosely typed side channel for exactly these keys; new behavior belongs in
// typed fields, not here.
const (
	// MetaArrayColumn names the repeating field being flattened.
	MetaArrayColumn = "array_column"
	// MetaResultAlias names the column bound to each expanded element, or to
	// the result of a scalar extraction.
	MetaResultAlias = "result_alias"
	// MetaSourcePath is the full navigation path, kept for diagnostics.
	MetaSourcePath = "source_path"
	// MetaUnnestDepth is the 1-based nesting level of a flatten step.
	MetaUnnestDepth = "unnest_depth"
)

// Fragment is the translator's intermediate, engine-agnostic representation
// of one compiled step. Expression is either a bare SQL expression or a
// complete SELECT statement; the CTE builder respects a pre-formed SELECT
// and never re-wraps it.
type Fragment struct {
	// Expression is the SQL expression or full SELECT for this step.
	Expression string

	// SourceTable names the table or CTE this fragment reads from. Empty
	// means "inherited from the preceding fragment".
	SourceTable string

	// RequiresFlatten is true when this step expands a repeating field into
	// one row per element. When set, Metadata must carry MetaArrayColumn and
	// MetaResultAlias.
	RequiresFlatten bool

	// IsAggregate is true when the expression collapses many rows into one.
	IsAggregate bool

	// Dependencies lists names of other fragments/CTEs this fragment's SQL
	// references, in first-reference order.
	Dependencies []string

	// Metadata carries the documented optional keys (Meta* constants).
	Metadata map[string]any
}

// Meta returns the string value of a metadata key, or "" when absent.
func (f *Fragment) Meta(key string) string {
	if f.Metadata == nil {
		return ""
	}
	if v, ok := f.Metadata[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MetaInt returns the integer value of a metadata key, or 0 when absent.
func (f *Fragment) MetaInt(key string) int {
	if f.Metadata == nil {
		return 0
	}
	if v, ok := f.Metadata[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// CloneMetadata returns an independent copy of the fragment's metadata map.
// CTEs must never alias a fragment's map.
func (f *Fragment) CloneMetadata() map[string]any {
	if f.Metadata == nil {
		return nil
	}
	out := make(map[string]any, len(f.Metadata))
	for k, v := range f.Metadata {
		out[k] = v
	}
	return out
}
