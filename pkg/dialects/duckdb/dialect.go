// Package duckdb implements the DuckDB SQL dialect. JSON navigation uses the
// json extension's json_extract family; flattening uses the json_each table
// function.
package duckdb

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func init() {
	dialect.Register(&DuckDB{})
}

// DuckDB renders DuckDB syntax. Stateless; safe to share.
type DuckDB struct{}

// Name returns the dialect identifier.
func (d *DuckDB) Name() string { return "duckdb" }

// QuoteIdentifier quotes an identifier with double quotes.
func (d *DuckDB) QuoteIdentifier(name string) string {
	return dialect.QuoteDouble(name)
}

// ExtractField extracts a scalar field as text.
func (d *DuckDB) ExtractField(source, path string) string {
	return fmt.Sprintf("json_extract_string(%s, '%s')", source, dialect.JSONPath(path))
}

// ExtractJSON extracts a field preserving its JSON type.
func (d *DuckDB) ExtractJSON(source, path string) string {
	return fmt.Sprintf("json_extract(%s, '%s')", source, dialect.JSONPath(path))
}

// ArrayLength returns the element count of a JSON array field.
func (d *DuckDB) ArrayLength(source, path string) string {
	return fmt.Sprintf("json_array_length(%s, '%s')", source, dialect.JSONPath(path))
}

// ArrayIndex extracts the element at a zero-based position.
func (d *DuckDB) ArrayIndex(source, path string, index int) string {
	return fmt.Sprintf("json_extract_string(%s, '%s[%d]')", source, dialect.JSONPath(path), index)
}

// LateralFlatten expands a JSON array column into one row per element.
func (d *DuckDB) LateralFlatten(sourceTable, arrayColumn, alias string) string {
	src := d.QuoteIdentifier(sourceTable)
	return fmt.Sprintf("SELECT %s.id, je.value AS %s\nFROM %s, json_each(%s.%s) AS je",
		src, d.QuoteIdentifier(alias), src, src, d.QuoteIdentifier(arrayColumn))
}

// StringConcat joins expressions with ||.
func (d *DuckDB) StringConcat(parts ...string) string {
	return strings.Join(parts, " || ")
}

// Cast renders a CAST expression.
func (d *DuckDB) Cast(expr, sqlType string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, sqlType)
}

// StringLiteral renders a single-quoted string literal.
func (d *DuckDB) StringLiteral(value string) string {
	return "'" + dialect.EscapeString(value) + "'"
}

// DateLiteral renders a DATE or TIMESTAMP literal.
func (d *DuckDB) DateLiteral(value string) string {
	if strings.Contains(value, "T") {
		return fmt.Sprintf("TIMESTAMP '%s'", strings.Replace(value, "T", " ", 1))
	}
	return fmt.Sprintf("DATE '%s'", value)
}

// Aggregate renders an aggregate call.
func (d *DuckDB) Aggregate(fn, expr string) string {
	return fmt.Sprintf("%s(%s)", fn, expr)
}

// LowBoundary pads a partial date down to its earliest instant, or widens a
// decimal to full precision.
func (d *DuckDB) LowBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CAST(substr(%s || '-01-01', 1, 10) AS DATE)", expr)
	default:
		return d.Cast(expr, "DECIMAL(38,8)")
	}
}

// HighBoundary pads a partial date up to its latest instant. A year-month
// value needs the actual end of its month, so it gets its own branch; flat
// padding would turn '2010-05' into '2010-05-12'.
func (d *DuckDB) HighBoundary(expr, typ string) string {
	switch typ {
	case "date", "dateTime", "instant":
		return fmt.Sprintf("CASE WHEN length(%s) = 7 THEN last_day(CAST(%s || '-01' AS DATE)) ELSE CAST(substr(%s || '-12-31', 1, 10) AS DATE) END",
			expr, expr, expr)
	default:
		return d.Cast(expr, "DECIMAL(38,8)")
	}
}

// SQLType maps a canonical FHIR type to DuckDB's type spelling.
func (d *DuckDB) SQLType(canonical string) string {
	switch canonical {
	case "integer", "positiveInt", "unsignedInt":
		return "BIGINT"
	case "decimal":
		return "DECIMAL(38,8)"
	case "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "dateTime", "instant":
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
