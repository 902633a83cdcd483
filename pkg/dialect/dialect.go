// Package dialect defines the syntax-only contract between the compiler core
// and a specific SQL engine. The translator and the CTE builder call these
// methods and never branch on which engine they target; concrete
// implementations live in pkg/dialects/*/ and register themselves here.
package dialect

// Dialect renders engine-specific SQL syntax. Every method returns syntax
// for exactly one engine and performs no semantic decisions. Implementations
// must be stateless and safe for concurrent use.
type Dialect interface {
	// Name returns the dialect identifier (e.g. "duckdb", "postgres").
	Name() string

	// QuoteIdentifier quotes an identifier using the engine's quote style.
	QuoteIdentifier(name string) string

	// ExtractField extracts a scalar field from a JSON column as text.
	// Source is a column reference; path is a dotted navigation path.
	ExtractField(source, path string) string

	// ExtractJSON extracts a field from a JSON column preserving its JSON
	// type (object or array), for use as flatten input or nested navigation.
	ExtractJSON(source, path string) string

	// ArrayLength returns the element count of a JSON array field.
	ArrayLength(source, path string) string

	// ArrayIndex extracts the element at a zero-based position from a JSON
	// array field.
	ArrayIndex(source, path string, index int) string

	// LateralFlatten returns a complete SELECT body that expands the JSON
	// array column arrayColumn of sourceTable into one row per element,
	// binding each element to alias and carrying the row-identity column
	// through.
	LateralFlatten(sourceTable, arrayColumn, alias string) string

	// StringConcat joins expressions with the engine's concatenation syntax.
	StringConcat(parts ...string) string

	// Cast renders a cast of expr to the engine spelling of sqlType.
	Cast(expr, sqlType string) string

	// StringLiteral renders a single-quoted, escaped string literal.
	StringLiteral(value string) string

	// DateLiteral renders a date or datetime literal.
	DateLiteral(value string) string

	// Aggregate renders an aggregate call (fn is COUNT, SUM, AVG, MIN, MAX).
	Aggregate(fn, expr string) string

	// LowBoundary returns the inclusive lower boundary of a partial
	// date/decimal value; typ is the canonical FHIR type of expr.
	LowBoundary(expr, typ string) string

	// HighBoundary returns the inclusive upper boundary of a partial
	// date/decimal value.
	HighBoundary(expr, typ string) string

	// SQLType maps a canonical FHIR type name to the engine's type spelling
	// for casts. Unknown types map to the engine's text type.
	SQLType(canonical string) string
}
