// Package postgres implements the PostgreSQL dialect. Resources are assumed
// stored as jsonb; navigation uses the #> / #>> path operators and
// flattening uses jsonb_array_elements behind CROSS JOIN LATERAL.
package postgres

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func init() {
	dialect.Register(&Postgres{})
}

// Postgres renders PostgreSQL syntax. Stateless; safe to share.
type Postgres struct{}

// Name returns the dialect identifier.
func (p *Postgres) Name() string { return "postgres" }

// QuoteIdentifier quotes an identifier with double quotes.
func (p *Postgres) QuoteIdentifier(name string) string {
	return dialect.QuoteDouble(name)
}

// pathArray renders a dotted path as a Postgres text-array path: '{a,b}'.
func pathArray(path string) string {
	return "'{" + strings.Join(dialect.SplitPath(path), ",") + "}'"
}

// ExtractField extracts a scalar field as text with #>>.
func (p *Postgres) ExtractField(source, path string) string {
	return fmt.Sprintf("(%s #>> %s)", source, pathArray(path))
}

// ExtractJSON extracts a field as jsonb with #>.
func (p *Postgres) ExtractJSON(source, path string) string {
	return fmt.Sprintf("(%s #> %s)", source, pathArray(path))
}

// ArrayLength returns the element count of a jsonb array field.
func (p *Postgres) ArrayLength(source, path string) string {
	return fmt.Sprintf("jsonb_array_length(%s #> %s)", source, pathArray(path))
}

// ArrayIndex extracts the element at a zero-based position.
func (p *Postgres) ArrayIndex(source, path string, index int) string {
	segs := append(dialect.SplitPath(path), fmt.Sprintf("%d", index))
	return fmt.Sprintf("(%s #>> '{%s}')", source, strings.Join(segs, ","))
}

// LateralFlatten expands a jsonb array column into one row per element.
func (p *Postgres) LateralFlatten(sourceTable, arrayColumn, alias string) string {
	src := p.QuoteIdentifier(sourceTable)
	return fmt.Sprintf("SELECT %s.id, elem.value AS %s\nFROM %s\nCROSS JOIN LATERAL jsonb_array_elements(%s.%s) AS elem(value)",
		src, p.QuoteIdentifier(alias), src, src, p.QuoteIdentifier(arrayColumn))
}

// StringConcat joins expressions with ||.
func (p *Postgres) StringConcat(parts ...string) string {
	return strings.Join(parts, " || ")
}

// Cast renders a CAST expression.
func (p *Postgres) Cast(expr, sqlType string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, sqlType)
}

// StringLiteral renders a single-quoted string literal.
func (p *Postgres) StringLiteral(value string) string {
	return "'" + dialect.EscapeString(value) + "'"
}

// DateLiteral renders a DATE or TIMESTAMP literal.
func (p *Postgres) DateLiteral(value string) string {
	if strings.Contains(value, "T") {
		return fmt.Sprintf("TIMESTAMP '%s'", strings.Replace(value, "T", " ", 1))
	}
	return fmt.Sprintf("DATE '%s'", value)
}

// Aggregate renders an aggregate call.
func (p *Postgres) Aggregate(fn, expr string) string {
	return fmt.Sprintf("%s(%s)", fn, expr)
}

// LowBoundary pads a partial date down to its earliest instant.
func (p *Postgres) LowBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CAST(substr(%s || '-01-01', 1, 10) AS DATE)", expr)
	default:
		return p.Cast(expr, "NUMERIC(38,8)")
	}
}

// HighBoundary pads a partial date up to its latest instant. A year-month
// value needs the actual end of its month; Postgres has no LAST_DAY, so the
// month branch steps one month forward and one day back.
func (p *Postgres) HighBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CASE WHEN length(%s) = 7 THEN CAST(CAST(%s || '-01' AS DATE) + INTERVAL '1 month - 1 day' AS DATE) ELSE CAST(substr(%s || '-12-31', 1, 10) AS DATE) END",
			expr, expr, expr)
	default:
		return p.Cast(expr, "NUMERIC(38,8)")
	}
}

// SQLType maps a canonical FHIR type to Postgres' type spelling.
func (p *Postgres) SQLType(canonical string) string {
	switch canonical {
	case "integer", "positiveInt", "unsignedInt":
		return "BIGINT"
	case "decimal":
		return "NUMERIC(38,8)"
	case "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "dateTime", "instant":
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
