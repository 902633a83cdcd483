package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	p := &Postgres{}
	assert.Equal(t, "(resource #>> '{birthDate}')", p.ExtractField("resource", "birthDate"))
	assert.Equal(t, "(resource #> '{name}')", p.ExtractJSON("resource", "name"))
	assert.Equal(t, "(resource #>> '{name,given,0}')", p.ArrayIndex("resource", "name.given", 0))
	assert.Equal(t, "jsonb_array_length(resource #> '{name}')", p.ArrayLength("resource", "name"))
}

func TestLateralFlatten(t *testing.T) {
	p := &Postgres{}
	want := "SELECT \"cte_1\".id, elem.value AS \"name_item\"\nFROM \"cte_1\"\nCROSS JOIN LATERAL jsonb_array_elements(\"cte_1\".\"name\") AS elem(value)"
	assert.Equal(t, want, p.LateralFlatten("cte_1", "name", "name_item"))
}

func TestNestedPath(t *testing.T) {
	p := &Postgres{}
	assert.Equal(t, "(resource #>> '{valueQuantity,value}')", p.ExtractField("resource", "valueQuantity.value"))
}

func TestSQLType(t *testing.T) {
	p := &Postgres{}
	assert.Equal(t, "NUMERIC(38,8)", p.SQLType("decimal"))
	assert.Equal(t, "TEXT", p.SQLType("string"))
}

func TestBoundaries(t *testing.T) {
	p := &Postgres{}
	assert.Equal(t, "CAST(substr(x || '-01-01', 1, 10) AS DATE)", p.LowBoundary("x", "date"))
	assert.Equal(t, "CAST(x AS NUMERIC(38,8))", p.HighBoundary("x", "decimal"))

	// year-month values resolve to the real end of month, not '-12' padding
	assert.Equal(t, "CASE WHEN length(x) = 7 THEN CAST(CAST(x || '-01' AS DATE) + INTERVAL '1 month - 1 day' AS DATE) ELSE CAST(substr(x || '-12-31', 1, 10) AS DATE) END",
		p.HighBoundary("x", "date"))
}
