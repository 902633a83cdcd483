package translator

import (
	"fmt"

	"github.com/fhirlake-labs/fhirsql/pkg/ast"
	"github.com/fhirlake-labs/fhirsql/pkg/core"
)

// handlerFunc lowers one function invocation. The target chain has already
// been visited when a handler runs.
type handlerFunc func(*Translator, *context, *ast.FuncCall) error

var functionHandlers map[string]handlerFunc

func init() {
	// populated in init to avoid an initialization cycle with handlers that
	// recurse through the dispatch map
	functionHandlers = map[string]handlerFunc{
		"where":        fnWhere,
		"select":       fnSelect,
		"exists":       fnExists,
		"empty":        fnEmpty,
		"not":          fnNot,
		"count":        fnCount,
		"sum":          fnAggregate("SUM"),
		"avg":          fnAggregate("AVG"),
		"min":          fnAggregate("MIN"),
		"max":          fnAggregate("MAX"),
		"first":        fnFirst,
		"extension":    fnExtension,
		"lowBoundary":  fnBoundary(false),
		"highBoundary": fnBoundary(true),
	}
}

// applyFilter flattens the pending array if needed, translates the predicate
// against the candidate row source, and emits a population-preserving filter
// step. The context is snapshotted around the nested translation so sibling
// branches never see predicate-local state.
func (t *Translator) applyFilter(ctx *context, pred ast.Expr) error {
	if ctx.pendingIsArray {
		if err := t.flattenPending(ctx); err != nil {
			return err
		}
	}

	saved := ctx.snapshot()
	ctx.exprScope = ctx.joinedPath()
	ctx.bindings["$this"] = ctx.sourceCol
	condition, _, err := t.renderExpr(ctx, pred)
	ctx.restore(saved)
	if err != nil {
		return err
	}

	ctx.emit(core.Fragment{
		Expression:   fmt.Sprintf("SELECT *\nFROM %s\nWHERE %s", t.dialect.QuoteIdentifier(ctx.currentTable), condition),
		SourceTable:  ctx.currentTable,
		Dependencies: ctx.dependencies(),
		Metadata:     map[string]any{core.MetaSourcePath: ctx.fullPath(ctx.joinedPath())},
	})
	return nil
}

func fnWhere(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 1 {
		return errArity("where", 1, len(call.Args))
	}
	return t.applyFilter(ctx, call.Args[0])
}

func fnSelect(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 1 {
		return errArity("select", 1, len(call.Args))
	}
	if ctx.pendingIsArray {
		if err := t.flattenPending(ctx); err != nil {
			return err
		}
	}

	saved := ctx.snapshot()
	ctx.exprScope = ctx.joinedPath()
	ctx.bindings["$this"] = ctx.sourceCol
	projected, typ, err := t.renderExpr(ctx, call.Args[0])
	ctx.restore(saved)
	if err != nil {
		return err
	}

	ctx.pathStack = nil
	ctx.pendingIsArray = false
	ctx.pendingExpr = projected
	ctx.pendingType = typ
	if rel, ok := exprPathOf(call.Args[0]); ok {
		ctx.pendingAlias = lastSegment(rel)
	} else {
		ctx.pendingAlias = "result"
	}
	return nil
}

func fnExists(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) > 1 {
		return errArity("exists", 1, len(call.Args))
	}
	if len(call.Args) == 1 {
		if err := t.applyFilter(ctx, call.Args[0]); err != nil {
			return err
		}
	}

	switch {
	case ctx.pendingIsArray:
		// array never flattened: a length test keeps it to one row per record
		ctx.pendingExpr = fmt.Sprintf("CASE WHEN %s > 0 THEN TRUE ELSE FALSE END",
			t.dialect.ArrayLength(ctx.sourceCol, ctx.joinedPath()))
	case ctx.pendingExpr != "" || len(ctx.pathStack) > 0:
		ctx.pendingExpr = fmt.Sprintf("CASE WHEN %s IS NOT NULL THEN TRUE ELSE FALSE END", t.currentExtract(ctx))
	default:
		// element rows after a flatten: collapse back to one row per record
		t.emitAggregate(ctx, fmt.Sprintf("CASE WHEN COUNT(%s) > 0 THEN TRUE ELSE FALSE END", ctx.sourceCol))
	}
	ctx.pendingType = "boolean"
	ctx.pendingIsArray = false
	ctx.pathStack = nil
	return nil
}

func fnEmpty(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 0 {
		return errArity("empty", 0, len(call.Args))
	}

	switch {
	case ctx.pendingIsArray:
		ctx.pendingExpr = fmt.Sprintf("CASE WHEN %s > 0 THEN FALSE ELSE TRUE END",
			t.dialect.ArrayLength(ctx.sourceCol, ctx.joinedPath()))
	case ctx.pendingExpr != "" || len(ctx.pathStack) > 0:
		ctx.pendingExpr = fmt.Sprintf("CASE WHEN %s IS NULL THEN TRUE ELSE FALSE END", t.currentExtract(ctx))
	default:
		t.emitAggregate(ctx, fmt.Sprintf("CASE WHEN COUNT(%s) = 0 THEN TRUE ELSE FALSE END", ctx.sourceCol))
	}
	ctx.pendingType = "boolean"
	ctx.pendingIsArray = false
	ctx.pathStack = nil
	return nil
}

func fnNot(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 0 {
		return errArity("not", 0, len(call.Args))
	}
	ctx.pendingExpr = fmt.Sprintf("NOT (%s)", t.currentExtract(ctx))
	ctx.pendingType = "boolean"
	ctx.pendingIsArray = false
	ctx.pathStack = nil
	return nil
}

func fnCount(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 0 {
		return errArity("count", 0, len(call.Args))
	}

	switch {
	case ctx.pendingIsArray:
		ctx.pendingExpr = t.dialect.ArrayLength(ctx.sourceCol, ctx.joinedPath())
	case ctx.pendingExpr != "" || len(ctx.pathStack) > 0:
		ctx.pendingExpr = fmt.Sprintf("CASE WHEN %s IS NOT NULL THEN 1 ELSE 0 END", t.currentExtract(ctx))
	default:
		t.emitAggregate(ctx, t.dialect.Aggregate("COUNT", ctx.sourceCol))
	}
	ctx.pendingType = "integer"
	ctx.pendingIsArray = false
	ctx.pathStack = nil
	return nil
}

// fnAggregate builds the handler for sum/avg/min/max. Sum and avg cast their
// operand so text-typed JSON extractions aggregate numerically.
func fnAggregate(fn string) handlerFunc {
	return func(t *Translator, ctx *context, call *ast.FuncCall) error {
		if len(call.Args) != 0 {
			return errArity(fn, 0, len(call.Args))
		}
		if ctx.pendingIsArray {
			if err := t.flattenPending(ctx); err != nil {
				return err
			}
		}

		value := t.currentExtract(ctx)
		resultType := ctx.pendingType
		if fn == "SUM" || fn == "AVG" {
			value = t.dialect.Cast(value, t.dialect.SQLType("decimal"))
			resultType = "decimal"
		}
		t.emitAggregate(ctx, t.dialect.Aggregate(fn, value))
		ctx.pendingType = resultType
		ctx.pendingIsArray = false
		ctx.pathStack = nil
		return nil
	}
}

func fnFirst(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 0 {
		return errArity("first", 0, len(call.Args))
	}

	switch {
	case ctx.pendingIsArray:
		// positional indexing, never LIMIT 1
		return t.indexPending(ctx, 0)
	case ctx.pendingExpr != "" || len(ctx.pathStack) > 0:
		// a scalar is its own first element
		return nil
	default:
		t.emitAggregate(ctx, t.dialect.Aggregate("MIN", ctx.sourceCol))
		return nil
	}
}

func fnExtension(t *Translator, ctx *context, call *ast.FuncCall) error {
	if len(call.Args) != 1 {
		return errArity("extension", 1, len(call.Args))
	}
	lit, ok := call.Args[0].(*ast.Literal)
	if !ok || lit.Kind != ast.LiteralString {
		return errMalformed("extension expects a URL string literal")
	}

	if ctx.pendingIsArray {
		if err := t.flattenPending(ctx); err != nil {
			return err
		}
	}
	if err := t.step(ctx, "extension"); err != nil {
		return err
	}
	// extension is always a repeating element, declared or not
	ctx.pendingIsArray = true
	ctx.pendingType = "Extension"
	if err := t.flattenPending(ctx); err != nil {
		return err
	}

	condition := fmt.Sprintf("%s = %s",
		t.dialect.ExtractField(ctx.sourceCol, "url"),
		t.dialect.StringLiteral(lit.Value))
	ctx.emit(core.Fragment{
		Expression:   fmt.Sprintf("SELECT *\nFROM %s\nWHERE %s", t.dialect.QuoteIdentifier(ctx.currentTable), condition),
		SourceTable:  ctx.currentTable,
		Dependencies: ctx.dependencies(),
		Metadata:     map[string]any{core.MetaSourcePath: ctx.pathPrefix},
	})
	return nil
}

// fnBoundary builds the lowBoundary/highBoundary handlers.
func fnBoundary(high bool) handlerFunc {
	return func(t *Translator, ctx *context, call *ast.FuncCall) error {
		name := "lowBoundary"
		if high {
			name = "highBoundary"
		}
		if len(call.Args) != 0 {
			return errArity(name, 0, len(call.Args))
		}

		typ := ctx.pendingType
		if typ == "" {
			typ = "date"
		}
		if high {
			ctx.pendingExpr = t.dialect.HighBoundary(t.currentExtract(ctx), typ)
		} else {
			ctx.pendingExpr = t.dialect.LowBoundary(t.currentExtract(ctx), typ)
		}
		ctx.pendingIsArray = false
		ctx.pathStack = nil
		return nil
	}
}

// emitAggregate emits a pre-formed per-record aggregate SELECT and points
// the context at its result column.
func (t *Translator) emitAggregate(ctx *context, aggExpr string) {
	ctx.emit(core.Fragment{
		Expression: fmt.Sprintf("SELECT %s, %s AS result\nFROM %s\nGROUP BY %s",
			core.IDColumn, aggExpr, t.dialect.QuoteIdentifier(ctx.currentTable), core.IDColumn),
		SourceTable:  ctx.currentTable,
		IsAggregate:  true,
		Dependencies: ctx.dependencies(),
	})
	ctx.sourceCol = t.dialect.QuoteIdentifier("result")
	ctx.pendingExpr = ""
	ctx.pendingAlias = "result"
	ctx.pathStack = nil
}
