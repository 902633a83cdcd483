// Package cte converts translator fragments into named common table
// expressions and assembles them into one dependency-ordered SQL statement.
package cte

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/core"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

// Builder wraps fragments into CTEs. It never invents business logic: a
// pre-formed SELECT passes through verbatim and flatten syntax comes from
// the dialect. Name generation is scoped per BuildChain call, so one shared
// Builder is safe for concurrent use.
type Builder struct {
	dialect dialect.Dialect
}

// NewBuilder creates a Builder over the given dialect.
func NewBuilder(d dialect.Dialect) *Builder {
	return &Builder{dialect: d}
}

// BuildChain converts fragments, in order, into CTEs named cte_1, cte_2,
// .... Each CTE implicitly depends on its predecessor, plus whatever the
// fragment declares. Queries that are not already full SELECTs are wrapped
// so the row-identity column survives every step.
func (b *Builder) BuildChain(fragments []core.Fragment) ([]core.CTE, error) {
	ctes := make([]core.CTE, 0, len(fragments))
	prev := ""

	for i := range fragments {
		frag := fragments[i]
		name := fmt.Sprintf("cte_%d", i+1)

		source := frag.SourceTable
		if source == "" {
			source = prev
		}
		if source == "" {
			return nil, &BuildError{Index: i, Msg: "source table cannot be resolved: no previous CTE and none provided"}
		}

		query, err := b.buildQuery(i, frag, source)
		if err != nil {
			return nil, err
		}

		deps := frag.Dependencies
		if prev != "" {
			deps = append([]string{prev}, deps...)
		}

		fragCopy := frag
		ctes = append(ctes, core.CTE{
			Name:           name,
			Query:          query,
			DependsOn:      dedupe(deps),
			RequiresUnnest: frag.RequiresFlatten,
			SourceFragment: &fragCopy,
			Metadata:       frag.CloneMetadata(),
		})
		prev = name
	}

	return ctes, nil
}

func (b *Builder) buildQuery(i int, frag core.Fragment, source string) (string, error) {
	if frag.RequiresFlatten {
		arrayColumn := frag.Meta(core.MetaArrayColumn)
		alias := frag.Meta(core.MetaResultAlias)
		if arrayColumn == "" || alias == "" {
			return "", &BuildError{Index: i, Msg: "flatten fragment is missing array_column or result_alias metadata"}
		}
		return b.dialect.LateralFlatten(source, arrayColumn, alias), nil
	}

	expression := strings.TrimSpace(frag.Expression)
	if expression == "" {
		return "", &BuildError{Index: i, Msg: "fragment expression is empty"}
	}
	if isSelect(expression) {
		// the translator already formed a complete query; respect it
		return expression, nil
	}

	alias := frag.Meta(core.MetaResultAlias)
	if alias == "" {
		alias = "result"
	}
	return fmt.Sprintf("SELECT %s, %s AS %s\nFROM %s",
		core.IDColumn, expression, b.dialect.QuoteIdentifier(alias), b.dialect.QuoteIdentifier(source)), nil
}

// isSelect reports whether the expression is already a complete SELECT
// statement rather than a bare expression. The keyword must be followed by
// whitespace so identifiers like selected_flag still get wrapped.
func isSelect(expression string) bool {
	if len(expression) < 7 || !strings.EqualFold(expression[:6], "SELECT") {
		return false
	}
	switch expression[6] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
