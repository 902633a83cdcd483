// Package snowflake implements the Snowflake dialect. Resources are assumed
// stored as VARIANT; navigation uses GET_PATH and flattening uses the
// LATERAL FLATTEN table function.
package snowflake

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func init() {
	dialect.Register(&Snowflake{})
}

// Snowflake renders Snowflake syntax. Stateless; safe to share.
type Snowflake struct{}

// Name returns the dialect identifier.
func (s *Snowflake) Name() string { return "snowflake" }

// QuoteIdentifier quotes an identifier with double quotes.
func (s *Snowflake) QuoteIdentifier(name string) string {
	return dialect.QuoteDouble(name)
}

// ExtractField extracts a scalar field as text.
func (s *Snowflake) ExtractField(source, path string) string {
	return fmt.Sprintf("TO_VARCHAR(GET_PATH(%s, '%s'))", source, path)
}

// ExtractJSON extracts a field preserving its VARIANT type.
func (s *Snowflake) ExtractJSON(source, path string) string {
	return fmt.Sprintf("GET_PATH(%s, '%s')", source, path)
}

// ArrayLength returns the element count of an array field.
func (s *Snowflake) ArrayLength(source, path string) string {
	return fmt.Sprintf("ARRAY_SIZE(GET_PATH(%s, '%s'))", source, path)
}

// ArrayIndex extracts the element at a zero-based position.
func (s *Snowflake) ArrayIndex(source, path string, index int) string {
	return fmt.Sprintf("TO_VARCHAR(GET_PATH(%s, '%s[%d]'))", source, path, index)
}

// LateralFlatten expands an array column into one row per element.
func (s *Snowflake) LateralFlatten(sourceTable, arrayColumn, alias string) string {
	src := s.QuoteIdentifier(sourceTable)
	return fmt.Sprintf("SELECT %s.id, f.value AS %s\nFROM %s, LATERAL FLATTEN(input => %s.%s) f",
		src, s.QuoteIdentifier(alias), src, src, s.QuoteIdentifier(arrayColumn))
}

// StringConcat joins expressions with ||.
func (s *Snowflake) StringConcat(parts ...string) string {
	return strings.Join(parts, " || ")
}

// Cast renders a CAST expression.
func (s *Snowflake) Cast(expr, sqlType string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, sqlType)
}

// StringLiteral renders a single-quoted string literal.
func (s *Snowflake) StringLiteral(value string) string {
	return "'" + dialect.EscapeString(value) + "'"
}

// DateLiteral renders a DATE or TIMESTAMP literal.
func (s *Snowflake) DateLiteral(value string) string {
	if strings.Contains(value, "T") {
		return fmt.Sprintf("TIMESTAMP '%s'", strings.Replace(value, "T", " ", 1))
	}
	return fmt.Sprintf("DATE '%s'", value)
}

// Aggregate renders an aggregate call.
func (s *Snowflake) Aggregate(fn, expr string) string {
	return fmt.Sprintf("%s(%s)", fn, expr)
}

// LowBoundary pads a partial date down to its earliest instant.
func (s *Snowflake) LowBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CAST(SUBSTR(%s || '-01-01', 1, 10) AS DATE)", expr)
	default:
		return s.Cast(expr, "NUMBER(38,8)")
	}
}

// HighBoundary pads a partial date up to its latest instant. A year-month
// value needs the actual end of its month, not flat padding.
func (s *Snowflake) HighBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CASE WHEN LENGTH(%s) = 7 THEN LAST_DAY(CAST(%s || '-01' AS DATE)) ELSE CAST(SUBSTR(%s || '-12-31', 1, 10) AS DATE) END",
			expr, expr, expr)
	default:
		return s.Cast(expr, "NUMBER(38,8)")
	}
}

// SQLType maps a canonical FHIR type to Snowflake's type spelling.
func (s *Snowflake) SQLType(canonical string) string {
	switch canonical {
	case "integer", "positiveInt", "unsignedInt":
		return "NUMBER(38,0)"
	case "decimal":
		return "NUMBER(38,8)"
	case "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "dateTime", "instant":
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}
