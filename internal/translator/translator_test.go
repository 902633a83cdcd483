package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhirlake-labs/fhirsql/internal/parser"
	"github.com/fhirlake-labs/fhirsql/pkg/core"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
	"github.com/fhirlake-labs/fhirsql/pkg/schema"

	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/duckdb"
)

func translate(t *testing.T, expression, resource string) []core.Fragment {
	t.Helper()
	fragments, err := translateErr(t, expression, resource)
	require.NoError(t, err)
	return fragments
}

func translateErr(t *testing.T, expression, resource string) ([]core.Fragment, error) {
	t.Helper()
	d, ok := dialect.Get("duckdb")
	require.True(t, ok)
	root, err := parser.Parse(expression)
	require.NoError(t, err, "parse %q", expression)
	return New(d, schema.R4()).Translate(root, resource, "patient")
}

func TestTranslateScalarPath(t *testing.T) {
	fragments := translate(t, "Patient.birthDate", "Patient")
	require.Len(t, fragments, 1)

	frag := fragments[0]
	assert.Equal(t, "json_extract_string(resource, '$.birthDate')", frag.Expression)
	assert.Equal(t, "patient", frag.SourceTable)
	assert.False(t, frag.RequiresFlatten)
	assert.Equal(t, "birthDate", frag.Meta(core.MetaResultAlias))
	assert.Equal(t, "birthDate", frag.Meta(core.MetaSourcePath))
}

func TestTranslateNestedScalarPath(t *testing.T) {
	fragments := translate(t, "Observation.valueQuantity.value", "Observation")
	require.Len(t, fragments, 1)
	assert.Equal(t, "json_extract_string(resource, '$.valueQuantity.value')", fragments[0].Expression)
}

func TestTranslateArrayPathFlattens(t *testing.T) {
	fragments := translate(t, "Patient.name", "Patient")
	require.Len(t, fragments, 2)

	extract, flatten := fragments[0], fragments[1]
	assert.Equal(t, "json_extract(resource, '$.name')", extract.Expression)
	assert.Equal(t, "patient", extract.SourceTable)
	assert.Equal(t, "name", extract.Meta(core.MetaResultAlias))

	assert.True(t, flatten.RequiresFlatten)
	assert.Equal(t, "cte_1", flatten.SourceTable)
	assert.Equal(t, "name", flatten.Meta(core.MetaArrayColumn))
	assert.Equal(t, "name_item", flatten.Meta(core.MetaResultAlias))
	assert.Equal(t, 1, flatten.MetaInt(core.MetaUnnestDepth))
}

func TestTranslateNestedArraysIncreaseDepth(t *testing.T) {
	fragments := translate(t, "Patient.name.given", "Patient")
	require.Len(t, fragments, 4)

	assert.True(t, fragments[1].RequiresFlatten)
	assert.Equal(t, 1, fragments[1].MetaInt(core.MetaUnnestDepth))

	// second boundary extracts from the flattened element, not the resource
	assert.Equal(t, `json_extract("name_item", '$.given')`, fragments[2].Expression)

	assert.True(t, fragments[3].RequiresFlatten)
	assert.Equal(t, 2, fragments[3].MetaInt(core.MetaUnnestDepth))
	assert.Equal(t, "given_item", fragments[3].Meta(core.MetaResultAlias))
	assert.Equal(t, "name.given", fragments[3].Meta(core.MetaSourcePath))
}

func TestTranslateWhereFilter(t *testing.T) {
	fragments := translate(t, "Patient.name.where(use = 'official')", "Patient")
	require.Len(t, fragments, 3)

	filter := fragments[2]
	assert.Equal(t, "SELECT *\nFROM \"cte_2\"\nWHERE (json_extract_string(\"name_item\", '$.use') = 'official')", filter.Expression)
	assert.Equal(t, []string{"cte_2"}, filter.Dependencies)
	assert.False(t, filter.RequiresFlatten)
}

func TestTranslateWhereThenNavigate(t *testing.T) {
	fragments := translate(t, "Patient.name.where(use = 'official').family", "Patient")
	require.Len(t, fragments, 4)

	final := fragments[3]
	assert.Equal(t, `json_extract_string("name_item", '$.family')`, final.Expression)
	assert.Equal(t, "family", final.Meta(core.MetaResultAlias))
}

func TestTranslateExistsOnScalar(t *testing.T) {
	fragments := translate(t, "Patient.birthDate.exists()", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"CASE WHEN json_extract_string(resource, '$.birthDate') IS NOT NULL THEN TRUE ELSE FALSE END",
		fragments[0].Expression)
}

func TestTranslateExistsOnArrayUsesLength(t *testing.T) {
	// an unflattened array answers exists() with a length test: one row per
	// resource, no flatten needed
	fragments := translate(t, "Patient.name.exists()", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"CASE WHEN json_array_length(resource, '$.name') > 0 THEN TRUE ELSE FALSE END",
		fragments[0].Expression)
}

func TestTranslateExistsAfterFilterAggregates(t *testing.T) {
	fragments := translate(t, "Patient.name.where(use = 'official').exists()", "Patient")
	require.Len(t, fragments, 4)

	agg := fragments[3]
	assert.True(t, agg.IsAggregate)
	assert.Contains(t, agg.Expression, "GROUP BY id")
	assert.Contains(t, agg.Expression, `COUNT("name_item") > 0`)
}

func TestTranslateCountOnArray(t *testing.T) {
	fragments := translate(t, "Patient.name.count()", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t, "json_array_length(resource, '$.name')", fragments[0].Expression)
}

func TestTranslateFirstUsesPositionalIndex(t *testing.T) {
	fragments := translate(t, "Patient.name.first()", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t, "json_extract_string(resource, '$.name[0]')", fragments[0].Expression)
	assert.NotContains(t, fragments[0].Expression, "LIMIT")
}

func TestTranslateExplicitIndex(t *testing.T) {
	fragments := translate(t, "Patient.name[1]", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t, "json_extract_string(resource, '$.name[1]')", fragments[0].Expression)
}

func TestTranslateComparisonCastsExtraction(t *testing.T) {
	fragments := translate(t, "Patient.birthDate >= @1970-01-01", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"(CAST(json_extract_string(resource, '$.birthDate') AS DATE) >= DATE '1970-01-01')",
		fragments[0].Expression)
}

func TestTranslateBooleanCombination(t *testing.T) {
	fragments := translate(t, "Patient.gender = 'female' and Patient.active = true", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"((json_extract_string(resource, '$.gender') = 'female') AND (json_extract_string(resource, '$.active') = TRUE))",
		fragments[0].Expression)
}

func TestTranslateTypeCast(t *testing.T) {
	fragments := translate(t, "Observation.valueQuantity.value as decimal", "Observation")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"CAST(json_extract_string(resource, '$.valueQuantity.value') AS DECIMAL(38,8))",
		fragments[0].Expression)
}

func TestTranslateTypeTestResolvesStatically(t *testing.T) {
	fragments := translate(t, "Patient.birthDate is date", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t, "TRUE", fragments[0].Expression)

	fragments = translate(t, "Patient.birthDate is integer", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t, "FALSE", fragments[0].Expression)
}

func TestTranslateUnknownTypeRejected(t *testing.T) {
	_, err := translateErr(t, "Patient.birthDate is frobnicate", "Patient")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindUnknownType, terr.Kind)
}

func TestTranslateUnsupportedFunction(t *testing.T) {
	_, err := translateErr(t, "Patient.name.resolve()", "Patient")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindUnsupportedFunction, terr.Kind)
}

func TestTranslateArityError(t *testing.T) {
	_, err := translateErr(t, "Patient.name.where()", "Patient")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindArity, terr.Kind)
}

func TestTranslateAggregateCastsNumeric(t *testing.T) {
	fragments := translate(t, "Observation.valueQuantity.value.sum()", "Observation")
	frag := fragments[len(fragments)-1]
	assert.True(t, frag.IsAggregate)
	assert.Contains(t, frag.Expression, "SUM(CAST(")
	assert.Contains(t, frag.Expression, "GROUP BY id")
}

func TestTranslateLowBoundary(t *testing.T) {
	fragments := translate(t, "Patient.birthDate.lowBoundary()", "Patient")
	require.Len(t, fragments, 1)
	assert.Equal(t,
		"CAST(substr(json_extract_string(resource, '$.birthDate') || '-01-01', 1, 10) AS DATE)",
		fragments[0].Expression)
}

func TestTranslateExtension(t *testing.T) {
	fragments := translate(t, "Patient.extension('http://example.org/race')", "Patient")
	// extract + flatten + url filter
	require.Len(t, fragments, 3)
	assert.True(t, fragments[1].RequiresFlatten)
	assert.Contains(t, fragments[2].Expression, "'http://example.org/race'")
	assert.Contains(t, fragments[2].Expression, `json_extract_string("extension_item", '$.url')`)
}

func TestTranslateRepeatedAliasesStayUnique(t *testing.T) {
	// two flattens of fields that share a base name must not collide
	fragments := translate(t, "Patient.name.given.where($this = 'Anna')", "Patient")
	aliases := map[string]bool{}
	for _, f := range fragments {
		if f.RequiresFlatten {
			alias := f.Meta(core.MetaResultAlias)
			assert.False(t, aliases[alias], "alias %q reused", alias)
			aliases[alias] = true
		}
	}
}

func TestTranslateNilExpression(t *testing.T) {
	d, _ := dialect.Get("duckdb")
	_, err := New(d, schema.R4()).Translate(nil, "Patient", "patient")
	require.Error(t, err)
}

func TestTranslateSourceTableThreading(t *testing.T) {
	fragments := translate(t, "Patient.name.where(use = 'official').family", "Patient")
	// every fragment names its source so the builder never guesses
	sources := []string{"patient", "cte_1", "cte_2", "cte_3"}
	require.Len(t, fragments, len(sources))
	for i, f := range fragments {
		assert.Equal(t, sources[i], f.SourceTable, "fragment %d", i)
	}
}
