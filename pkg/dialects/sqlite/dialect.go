// Package sqlite implements the SQLite dialect using the json1 extension.
// Dates are compared as ISO-8601 text, which collates correctly.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func init() {
	dialect.Register(&SQLite{})
}

// SQLite renders SQLite syntax. Stateless; safe to share.
type SQLite struct{}

// Name returns the dialect identifier.
func (s *SQLite) Name() string { return "sqlite" }

// QuoteIdentifier quotes an identifier with double quotes.
func (s *SQLite) QuoteIdentifier(name string) string {
	return dialect.QuoteDouble(name)
}

// ExtractField extracts a scalar field. json_extract unwraps scalars to SQL
// values in SQLite.
func (s *SQLite) ExtractField(source, path string) string {
	return fmt.Sprintf("json_extract(%s, '%s')", source, dialect.JSONPath(path))
}

// ExtractJSON extracts a field preserving JSON structure.
func (s *SQLite) ExtractJSON(source, path string) string {
	return fmt.Sprintf("json_extract(%s, '%s')", source, dialect.JSONPath(path))
}

// ArrayLength returns the element count of a JSON array field.
func (s *SQLite) ArrayLength(source, path string) string {
	return fmt.Sprintf("json_array_length(%s, '%s')", source, dialect.JSONPath(path))
}

// ArrayIndex extracts the element at a zero-based position.
func (s *SQLite) ArrayIndex(source, path string, index int) string {
	return fmt.Sprintf("json_extract(%s, '%s[%d]')", source, dialect.JSONPath(path), index)
}

// LateralFlatten expands a JSON array column into one row per element.
func (s *SQLite) LateralFlatten(sourceTable, arrayColumn, alias string) string {
	src := s.QuoteIdentifier(sourceTable)
	return fmt.Sprintf("SELECT %s.id, je.value AS %s\nFROM %s, json_each(%s.%s) AS je",
		src, s.QuoteIdentifier(alias), src, src, s.QuoteIdentifier(arrayColumn))
}

// StringConcat joins expressions with ||.
func (s *SQLite) StringConcat(parts ...string) string {
	return strings.Join(parts, " || ")
}

// Cast renders a CAST expression.
func (s *SQLite) Cast(expr, sqlType string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, sqlType)
}

// StringLiteral renders a single-quoted string literal.
func (s *SQLite) StringLiteral(value string) string {
	return "'" + dialect.EscapeString(value) + "'"
}

// DateLiteral renders a date as a plain string literal; SQLite has no date
// type and ISO text ordering matches chronological ordering.
func (s *SQLite) DateLiteral(value string) string {
	return "'" + dialect.EscapeString(strings.Replace(value, "T", " ", 1)) + "'"
}

// Aggregate renders an aggregate call.
func (s *SQLite) Aggregate(fn, expr string) string {
	return fmt.Sprintf("%s(%s)", fn, expr)
}

// LowBoundary pads a partial date down to its earliest instant.
func (s *SQLite) LowBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("substr(%s || '-01-01', 1, 10)", expr)
	default:
		return s.Cast(expr, "REAL")
	}
}

// HighBoundary pads a partial date up to its latest instant. A year-month
// value needs the actual end of its month; the date() modifiers step one
// month forward and one day back.
func (s *SQLite) HighBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CASE WHEN length(%s) = 7 THEN date(%s || '-01', '+1 month', '-1 day') ELSE substr(%s || '-12-31', 1, 10) END",
			expr, expr, expr)
	default:
		return s.Cast(expr, "REAL")
	}
}

// SQLType maps a canonical FHIR type to SQLite's type spelling.
func (s *SQLite) SQLType(canonical string) string {
	switch canonical {
	case "integer", "positiveInt", "unsignedInt":
		return "INTEGER"
	case "decimal":
		return "REAL"
	case "boolean":
		return "INTEGER"
	default:
		return "TEXT"
	}
}
