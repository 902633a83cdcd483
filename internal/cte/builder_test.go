package cte

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhirlake-labs/fhirsql/pkg/core"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"

	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/duckdb"
)

func duckdbDialect(t *testing.T) dialect.Dialect {
	t.Helper()
	d, ok := dialect.Get("duckdb")
	require.True(t, ok, "duckdb dialect must be registered")
	return d
}

func TestBuildChainScalar(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	ctes, err := b.BuildChain([]core.Fragment{
		{
			Expression:  "json_extract_string(resource, '$.birthDate')",
			SourceTable: "patient",
			Metadata:    map[string]any{core.MetaResultAlias: "birthDate"},
		},
	})
	require.NoError(t, err)
	require.Len(t, ctes, 1)

	assert.Equal(t, "cte_1", ctes[0].Name)
	assert.Equal(t, "SELECT id, json_extract_string(resource, '$.birthDate') AS \"birthDate\"\nFROM \"patient\"", ctes[0].Query)
	assert.Empty(t, ctes[0].DependsOn)
	assert.False(t, ctes[0].RequiresUnnest)
	require.NotNil(t, ctes[0].SourceFragment)
	assert.Equal(t, "patient", ctes[0].SourceFragment.SourceTable)
}

func TestBuildChainLinksToPredecessor(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	ctes, err := b.BuildChain([]core.Fragment{
		{Expression: "json_extract(resource, '$.name')", SourceTable: "patient", Metadata: map[string]any{core.MetaResultAlias: "name"}},
		{Expression: "json_extract_string(resource, '$.family')", Metadata: map[string]any{core.MetaResultAlias: "family"}},
	})
	require.NoError(t, err)
	require.Len(t, ctes, 2)

	assert.Equal(t, "cte_2", ctes[1].Name)
	assert.Equal(t, []string{"cte_1"}, ctes[1].DependsOn)
	assert.Contains(t, ctes[1].Query, "FROM \"cte_1\"")
}

func TestBuildChainFlatten(t *testing.T) {
	d := duckdbDialect(t)
	b := NewBuilder(d)

	ctes, err := b.BuildChain([]core.Fragment{
		{Expression: "json_extract(resource, '$.name')", SourceTable: "patient", Metadata: map[string]any{core.MetaResultAlias: "name"}},
		{
			RequiresFlatten: true,
			Metadata: map[string]any{
				core.MetaArrayColumn: "name",
				core.MetaResultAlias: "name_item",
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, ctes, 2)

	assert.True(t, ctes[1].RequiresUnnest)
	assert.Equal(t, d.LateralFlatten("cte_1", "name", "name_item"), ctes[1].Query)
}

func TestBuildChainFlattenMissingMetadata(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	_, err := b.BuildChain([]core.Fragment{
		{Expression: "json_extract(resource, '$.name')", SourceTable: "patient"},
		{RequiresFlatten: true},
	})
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 1, buildErr.Index)
}

func TestBuildChainPreformedSelectPassesThrough(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	query := "SELECT *\nFROM \"cte_1\"\nWHERE json_extract_string(resource, '$.use') = 'official'"
	ctes, err := b.BuildChain([]core.Fragment{
		{Expression: "json_extract(resource, '$.name')", SourceTable: "patient"},
		{Expression: query, Dependencies: []string{"cte_1"}},
	})
	require.NoError(t, err)
	require.Len(t, ctes, 2)

	assert.Equal(t, query, ctes[1].Query)
	// implicit predecessor and declared dependency collapse to one entry
	assert.Equal(t, []string{"cte_1"}, ctes[1].DependsOn)
}

func TestBuildChainNoSource(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	_, err := b.BuildChain([]core.Fragment{
		{Expression: "json_extract_string(resource, '$.birthDate')"},
	})
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 0, buildErr.Index)
}

func TestBuildChainEmptyExpression(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	_, err := b.BuildChain([]core.Fragment{
		{SourceTable: "patient"},
	})
	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
}

func TestBuildChainEmptyInput(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))
	ctes, err := b.BuildChain(nil)
	require.NoError(t, err)
	assert.Empty(t, ctes)
}

func TestBuildChainWrapsSelectPrefixedIdentifier(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))

	// a column name starting with "select" is a bare expression, not a query
	ctes, err := b.BuildChain([]core.Fragment{
		{Expression: "selected_flag", SourceTable: "patient", Metadata: map[string]any{core.MetaResultAlias: "flag"}},
	})
	require.NoError(t, err)
	require.Len(t, ctes, 1)
	assert.Equal(t, "SELECT id, selected_flag AS \"flag\"\nFROM \"patient\"", ctes[0].Query)
}

func TestBuildChainDefaultAlias(t *testing.T) {
	b := NewBuilder(duckdbDialect(t))
	ctes, err := b.BuildChain([]core.Fragment{
		{Expression: "1 + 1", SourceTable: "patient"},
	})
	require.NoError(t, err)
	assert.Contains(t, ctes[0].Query, "AS \"result\"")
}
