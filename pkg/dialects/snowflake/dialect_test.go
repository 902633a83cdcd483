package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	s := &Snowflake{}
	assert.Equal(t, "TO_VARCHAR(GET_PATH(resource, 'birthDate'))", s.ExtractField("resource", "birthDate"))
	assert.Equal(t, "GET_PATH(resource, 'name')", s.ExtractJSON("resource", "name"))
	assert.Equal(t, "ARRAY_SIZE(GET_PATH(resource, 'name'))", s.ArrayLength("resource", "name"))
	assert.Equal(t, "TO_VARCHAR(GET_PATH(resource, 'name[0]'))", s.ArrayIndex("resource", "name", 0))
}

func TestLateralFlatten(t *testing.T) {
	s := &Snowflake{}
	want := "SELECT \"cte_1\".id, f.value AS \"name_item\"\nFROM \"cte_1\", LATERAL FLATTEN(input => \"cte_1\".\"name\") f"
	assert.Equal(t, want, s.LateralFlatten("cte_1", "name", "name_item"))
}

func TestSQLType(t *testing.T) {
	s := &Snowflake{}
	assert.Equal(t, "NUMBER(38,0)", s.SQLType("integer"))
	assert.Equal(t, "TIMESTAMP_NTZ", s.SQLType("instant"))
	assert.Equal(t, "VARCHAR", s.SQLType("code"))
}

func TestBoundaries(t *testing.T) {
	s := &Snowflake{}
	assert.Equal(t, "CAST(SUBSTR(x || '-01-01', 1, 10) AS DATE)", s.LowBoundary("x", "date"))

	// year-month values resolve to the real end of month, not '-12' padding
	assert.Equal(t, "CASE WHEN LENGTH(x) = 7 THEN LAST_DAY(CAST(x || '-01' AS DATE)) ELSE CAST(SUBSTR(x || '-12-31', 1, 10) AS DATE) END",
		s.HighBoundary("x", "date"))
}
