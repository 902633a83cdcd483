// Package translator lowers a FHIRPath AST into an ordered sequence of
// engine-agnostic SQL fragments. It walks the tree with one mutable context
// per call, asks the metadata provider whether each navigation step crosses
// a repeating field, and delegates all engine syntax to the dialect.
package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/ast"
	"github.com/fhirlake-labs/fhirsql/pkg/core"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
	"github.com/fhirlake-labs/fhirsql/pkg/schema"
)

// Translator lowers FHIRPath ASTs to fragments. It holds only read-only
// collaborators and is safe for concurrent use; all mutable traversal state
// lives in a per-call context.
type Translator struct {
	dialect  dialect.Dialect
	provider schema.Provider
}

// New creates a Translator over a dialect and a metadata provider.
func New(d dialect.Dialect, p schema.Provider) *Translator {
	return &Translator{dialect: d, provider: p}
}

// Translate lowers one expression tree into an ordered fragment sequence.
// resourceType anchors metadata lookups; table is the source table the first
// fragment reads from. No state survives across calls.
func (t *Translator) Translate(root ast.Expr, resourceType, table string) ([]core.Fragment, error) {
	if root == nil {
		return nil, errMalformed("nil expression")
	}
	ctx := newContext(schema.NormalizeResource(resourceType), table)

	switch root.(type) {
	case *ast.Ident, *ast.Path, *ast.FuncCall, *ast.IndexExpr, *ast.TypeExpr:
		if err := t.visitChain(ctx, root); err != nil {
			return nil, err
		}
	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.Literal:
		expr, _, err := t.renderExpr(ctx, root)
		if err != nil {
			return nil, err
		}
		ctx.pendingExpr = expr
		ctx.pendingAlias = "result"
	default:
		return nil, errMalformed(fmt.Sprintf("unknown AST node %T", root))
	}

	if err := t.flush(ctx); err != nil {
		return nil, err
	}
	if len(ctx.fragments) == 0 {
		return nil, errMalformed("expression produced no fragments")
	}
	return ctx.fragments, nil
}

// visitChain walks the navigation spine of the expression: identifiers, path
// steps, function calls, indexing, and type operations.
func (t *Translator) visitChain(ctx *context, node ast.Expr) error {
	switch n := node.(type) {
	case *ast.Ident:
		if n.Name == "$this" {
			return nil
		}
		if schema.NormalizeResource(n.Name) == ctx.resourceType &&
			len(ctx.fragments) == 0 && len(ctx.pathStack) == 0 && ctx.pendingExpr == "" {
			// root resource anchor
			return nil
		}
		return t.step(ctx, n.Name)

	case *ast.Path:
		if err := t.visitChain(ctx, n.Base); err != nil {
			return err
		}
		return t.step(ctx, n.Name)

	case *ast.IndexExpr:
		if err := t.visitChain(ctx, n.Expr); err != nil {
			return err
		}
		lit, ok := n.Index.(*ast.Literal)
		if !ok || lit.Kind != ast.LiteralNumber {
			return errMalformed("collection index must be an integer literal")
		}
		idx, err := strconv.Atoi(lit.Value)
		if err != nil {
			return errMalformed("collection index must be an integer literal")
		}
		return t.indexPending(ctx, idx)

	case *ast.TypeExpr:
		if n.Expr != nil {
			if err := t.visitChain(ctx, n.Expr); err != nil {
				return err
			}
		}
		return t.typeOp(ctx, n)

	case *ast.FuncCall:
		if n.Target != nil {
			if err := t.visitChain(ctx, n.Target); err != nil {
				return err
			}
		}
		handler, ok := functionHandlers[n.Name]
		if !ok {
			return errUnsupported(n.Name)
		}
		return handler(t, ctx, n)

	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.Literal:
		expr, typ, err := t.renderExpr(ctx, node)
		if err != nil {
			return err
		}
		ctx.pendingExpr = expr
		ctx.pendingType = typ
		return nil

	default:
		return errMalformed(fmt.Sprintf("unknown AST node %T", node))
	}
}

// step handles one navigation step. Array detection is lazy: a step onto a
// repeating field only records that fact; the flatten is materialized when a
// later step descends into the elements, when a filter needs element rows,
// or at the final flush.
func (t *Translator) step(ctx *context, name string) error {
	if ctx.pendingIsArray {
		if err := t.flattenPending(ctx); err != nil {
			return err
		}
	}
	if ctx.pendingExpr != "" {
		// navigating into a computed value: nest the extraction
		ctx.pendingExpr = t.dialect.ExtractField("("+ctx.pendingExpr+")", name)
		ctx.pendingAlias = name
		ctx.pendingType = ""
		return nil
	}

	ctx.pathStack = append(ctx.pathStack, name)
	ctx.pendingAlias = name

	info, ok := t.provider.Lookup(ctx.resourceType, ctx.fullPath(ctx.joinedPath()))
	if !ok {
		// unknown paths are presumed user-supplied scalars
		ctx.pendingType = ""
		ctx.pendingIsArray = false
		return nil
	}
	ctx.pendingType = info.Type
	ctx.pendingIsArray = info.Array
	return nil
}

// flattenPending materializes the pending array path as two fragments: one
// extracting the raw array, one expanding it into element rows. Subsequent
// lookups happen relative to the flattened alias.
func (t *Translator) flattenPending(ctx *context) error {
	if !ctx.pendingIsArray || len(ctx.pathStack) == 0 {
		return errMalformed("no pending array path to flatten")
	}
	arrayColumn := ctx.pathStack[len(ctx.pathStack)-1]
	sourcePath := ctx.fullPath(ctx.joinedPath())

	ctx.emit(core.Fragment{
		Expression:  t.dialect.ExtractJSON(ctx.sourceCol, ctx.joinedPath()),
		SourceTable: ctx.currentTable,
		Metadata: map[string]any{
			core.MetaResultAlias: arrayColumn,
			core.MetaSourcePath:  sourcePath,
		},
	})

	alias := ctx.uniqueAlias(arrayColumn + "_item")
	ctx.unnestDepth++
	ctx.emit(core.Fragment{
		SourceTable:     ctx.currentTable,
		RequiresFlatten: true,
		Metadata: map[string]any{
			core.MetaArrayColumn: arrayColumn,
			core.MetaResultAlias: alias,
			core.MetaSourcePath:  sourcePath,
			core.MetaUnnestDepth: ctx.unnestDepth,
		},
	})

	ctx.sourceCol = t.dialect.QuoteIdentifier(alias)
	ctx.pathPrefix = sourcePath
	ctx.pathStack = nil
	ctx.pendingExpr = ""
	ctx.pendingAlias = alias
	ctx.pendingIsArray = false
	return nil
}

// indexPending lowers positional access on the pending array using array
// indexing rather than row limiting, so population batching stays valid.
func (t *Translator) indexPending(ctx *context, idx int) error {
	if !ctx.pendingIsArray {
		return errMalformed("index applied to a non-repeating element")
	}
	ctx.pendingExpr = t.dialect.ArrayIndex(ctx.sourceCol, ctx.joinedPath(), idx)
	ctx.pendingIsArray = false
	ctx.pathStack = nil
	return nil
}

// canonicalTypes is the closed set of target types accepted by is/as/ofType.
var canonicalTypes = map[string]string{
	"string":          "string",
	"code":            "code",
	"uri":             "uri",
	"id":              "id",
	"boolean":         "boolean",
	"integer":         "integer",
	"decimal":         "decimal",
	"date":            "date",
	"datetime":        "dateTime",
	"instant":         "instant",
	"quantity":        "Quantity",
	"humanname":       "HumanName",
	"identifier":      "Identifier",
	"reference":       "Reference",
	"coding":          "Coding",
	"codeableconcept": "CodeableConcept",
}

// typeOp lowers is/as/ofType. The AST is statically typed, so a type test
// resolves at compile time from the declared metadata.
func (t *Translator) typeOp(ctx *context, n *ast.TypeExpr) error {
	canonical, ok := canonicalTypes[strings.ToLower(n.Type)]
	if !ok {
		return errUnknownType(n.Type)
	}

	switch n.Op {
	case ast.TypeIs:
		result := "FALSE"
		if strings.EqualFold(ctx.pendingType, canonical) {
			result = "TRUE"
		}
		ctx.pendingExpr = result
		ctx.pendingType = "boolean"
		ctx.pendingIsArray = false
		ctx.pathStack = nil
		return nil
	case ast.TypeAs:
		ctx.pendingExpr = t.dialect.Cast(t.currentExtract(ctx), t.dialect.SQLType(canonical))
		ctx.pendingType = canonical
		ctx.pendingIsArray = false
		ctx.pathStack = nil
		return nil
	default:
		return errMalformed("unknown type operation")
	}
}

// currentExtract renders the pending value as a SQL expression.
func (t *Translator) currentExtract(ctx *context) string {
	if ctx.pendingExpr != "" {
		return ctx.pendingExpr
	}
	if len(ctx.pathStack) > 0 {
		return t.dialect.ExtractField(ctx.sourceCol, ctx.joinedPath())
	}
	return ctx.sourceCol
}

// flush emits the final fragment for whatever is still pending. A pending
// array becomes an extract+flatten pair so the statement yields one row per
// element; a pending scalar becomes a plain extraction.
func (t *Translator) flush(ctx *context) error {
	if ctx.pendingIsArray {
		return t.flattenPending(ctx)
	}
	if ctx.pendingExpr == "" && len(ctx.pathStack) == 0 {
		if len(ctx.fragments) > 0 {
			return nil
		}
		// bare resource reference: project the row identity
		ctx.emit(core.Fragment{
			Expression:  core.ResourceColumn,
			SourceTable: ctx.currentTable,
			Metadata:    map[string]any{core.MetaResultAlias: "result"},
		})
		return nil
	}

	alias := ctx.pendingAlias
	if alias == "" {
		alias = "result"
	}
	meta := map[string]any{core.MetaResultAlias: alias}
	if p := ctx.fullPath(ctx.joinedPath()); p != "" {
		meta[core.MetaSourcePath] = p
	}
	ctx.emit(core.Fragment{
		Expression:  t.currentExtract(ctx),
		SourceTable: ctx.currentTable,
		Metadata:    meta,
	})
	return nil
}
