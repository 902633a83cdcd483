package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/ast"
	"github.com/fhirlake-labs/fhirsql/pkg/schema"
)

// renderExpr lowers a predicate or operand to a single SQL expression
// against the current element scope. Unlike visitChain it never emits
// fragments. It returns the SQL text and the canonical FHIR type of the
// value when the metadata declares one.
func (t *Translator) renderExpr(ctx *context, node ast.Expr) (string, string, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return t.renderLiteral(n)

	case *ast.Ident:
		if bound, ok := ctx.bindings[n.Name]; ok {
			return bound, ctx.pendingType, nil
		}
		if n.Name == "$this" {
			return ctx.sourceCol, ctx.pendingType, nil
		}
		rel := t.relative(ctx, n.Name)
		if rel == "" {
			return ctx.sourceCol, ctx.pendingType, nil
		}
		return t.renderPath(ctx, rel), t.pathType(ctx, rel), nil

	case *ast.Path:
		if rel, ok := exprPathOf(n); ok {
			rel = t.relative(ctx, rel)
			if rel == "" {
				return ctx.sourceCol, ctx.pendingType, nil
			}
			return t.renderPath(ctx, rel), t.pathType(ctx, rel), nil
		}
		base, _, err := t.renderExpr(ctx, n.Base)
		if err != nil {
			return "", "", err
		}
		return t.dialect.ExtractField("("+base+")", n.Name), "", nil

	case *ast.BinaryExpr:
		return t.renderBinary(ctx, n)

	case *ast.UnaryExpr:
		if n.Op != ast.OpNeg {
			return "", "", errMalformed("unknown unary operator")
		}
		inner, typ, err := t.renderExpr(ctx, n.Expr)
		if err != nil {
			return "", "", err
		}
		return "(-" + inner + ")", typ, nil

	case *ast.FuncCall:
		return t.renderCall(ctx, n)

	case *ast.TypeExpr:
		return t.renderTypeExpr(ctx, n)

	case *ast.IndexExpr:
		rel, ok := exprPathOf(n.Expr)
		if !ok {
			return "", "", errMalformed("index applied to a non-path expression")
		}
		rel = t.relative(ctx, rel)
		lit, ok := n.Index.(*ast.Literal)
		if !ok || lit.Kind != ast.LiteralNumber {
			return "", "", errMalformed("collection index must be an integer literal")
		}
		idx, err := strconv.Atoi(lit.Value)
		if err != nil {
			return "", "", errMalformed("collection index must be an integer literal")
		}
		return t.dialect.ArrayIndex(ctx.sourceCol, ctx.scopedRel(rel), idx), t.pathType(ctx, rel), nil

	default:
		return "", "", errMalformed(fmt.Sprintf("unknown AST node %T", node))
	}
}

func (t *Translator) renderLiteral(n *ast.Literal) (string, string, error) {
	switch n.Kind {
	case ast.LiteralString:
		return t.dialect.StringLiteral(n.Value), "string", nil
	case ast.LiteralNumber:
		if strings.Contains(n.Value, ".") {
			return n.Value, "decimal", nil
		}
		return n.Value, "integer", nil
	case ast.LiteralBoolean:
		return strings.ToUpper(n.Value), "boolean", nil
	case ast.LiteralDate:
		return t.dialect.DateLiteral(n.Value), "date", nil
	case ast.LiteralDateTime:
		return t.dialect.DateLiteral(n.Value), "dateTime", nil
	case ast.LiteralNull:
		return "NULL", "", nil
	default:
		return "", "", errMalformed("unknown literal kind")
	}
}

// scopedRel joins the predicate scope prefix with a relative path for
// extraction against the current source column.
func (c *context) scopedRel(rel string) string {
	if c.exprScope == "" {
		return rel
	}
	if rel == "" {
		return c.exprScope
	}
	return c.exprScope + "." + rel
}

// renderPath renders a relative navigation path inside the current scope.
func (t *Translator) renderPath(ctx *context, rel string) string {
	return t.dialect.ExtractField(ctx.sourceCol, ctx.scopedRel(rel))
}

// pathType returns the declared canonical type of a scoped relative path.
func (t *Translator) pathType(ctx *context, rel string) string {
	if info, ok := t.provider.Lookup(ctx.resourceType, ctx.fullPath(rel)); ok {
		return info.Type
	}
	return ""
}

// pathIsArray reports whether a scoped relative path is declared repeating.
func (t *Translator) pathIsArray(ctx *context, rel string) bool {
	info, ok := t.provider.Lookup(ctx.resourceType, ctx.fullPath(rel))
	return ok && info.Array
}

var dateFamily = map[string]bool{"date": true, "dateTime": true, "instant": true}
var numericFamily = map[string]bool{"integer": true, "decimal": true, "positiveInt": true, "unsignedInt": true}

func (t *Translator) renderBinary(ctx *context, n *ast.BinaryExpr) (string, string, error) {
	left, leftType, err := t.renderExpr(ctx, n.Left)
	if err != nil {
		return "", "", err
	}
	right, rightType, err := t.renderExpr(ctx, n.Right)
	if err != nil {
		return "", "", err
	}

	switch n.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		left, right = t.alignComparison(n, left, leftType, right, rightType)
		op := map[ast.Operator]string{
			ast.OpEq: "=", ast.OpNe: "<>", ast.OpLt: "<",
			ast.OpLe: "<=", ast.OpGt: ">", ast.OpGe: ">=",
		}[n.Op]
		return fmt.Sprintf("(%s %s %s)", left, op, right), "boolean", nil

	case ast.OpAnd:
		return fmt.Sprintf("(%s AND %s)", left, right), "boolean", nil
	case ast.OpOr:
		return fmt.Sprintf("(%s OR %s)", left, right), "boolean", nil
	case ast.OpXor:
		return fmt.Sprintf("((%s) <> (%s))", left, right), "boolean", nil
	case ast.OpImplies:
		return fmt.Sprintf("((NOT (%s)) OR (%s))", left, right), "boolean", nil

	case ast.OpAdd:
		return fmt.Sprintf("(%s + %s)", left, right), arithmeticType(leftType, rightType), nil
	case ast.OpSub:
		return fmt.Sprintf("(%s - %s)", left, right), arithmeticType(leftType, rightType), nil
	case ast.OpMul:
		return fmt.Sprintf("(%s * %s)", left, right), arithmeticType(leftType, rightType), nil
	case ast.OpDiv:
		return fmt.Sprintf("(%s / %s)", left, right), "decimal", nil
	case ast.OpIntDiv:
		return t.dialect.Cast(fmt.Sprintf("(%s / %s)", left, right), t.dialect.SQLType("integer")), "integer", nil
	case ast.OpMod:
		return fmt.Sprintf("(%s %% %s)", left, right), "integer", nil
	case ast.OpConcat:
		return t.dialect.StringConcat(left, right), "string", nil

	case ast.OpUnion:
		return "", "", errUnsupported("| (collection union)")

	default:
		return "", "", errMalformed("unknown binary operator")
	}
}

// alignComparison casts a JSON extraction so it compares against a typed
// literal on the other side. JSON extraction yields text on most engines;
// comparing text to DATE or to a number needs the extraction side cast.
func (t *Translator) alignComparison(n *ast.BinaryExpr, left, leftType, right, rightType string) (string, string) {
	_, leftLit := n.Left.(*ast.Literal)
	_, rightLit := n.Right.(*ast.Literal)

	castable := func(typ string) bool { return dateFamily[typ] || numericFamily[typ] }

	if rightLit && !leftLit && castable(rightType) && leftType != "" && castable(leftType) {
		left = t.dialect.Cast(left, t.dialect.SQLType(leftType))
	}
	if leftLit && !rightLit && castable(leftType) && rightType != "" && castable(rightType) {
		right = t.dialect.Cast(right, t.dialect.SQLType(rightType))
	}
	return left, right
}

func arithmeticType(a, b string) string {
	if a == "decimal" || b == "decimal" {
		return "decimal"
	}
	return "integer"
}

// renderCall lowers the function subset valid inside an expression. Filters
// and projections need their own row source and cannot appear here.
func (t *Translator) renderCall(ctx *context, n *ast.FuncCall) (string, string, error) {
	switch n.Name {
	case "where", "select":
		return "", "", errUnsupported(n.Name + " inside a predicate")
	}

	var target string
	var targetType string
	rel, isPath := exprPathOf(n.Target)
	if isPath {
		rel = t.relative(ctx, rel)
	}
	switch {
	case n.Target == nil, isPath && rel == "":
		// no target, or the target is the resource anchor itself
		target = ctx.sourceCol
		targetType = ctx.pendingType
		isPath = false
	case isPath:
		target = t.renderPath(ctx, rel)
		targetType = t.pathType(ctx, rel)
	default:
		var err error
		target, targetType, err = t.renderExpr(ctx, n.Target)
		if err != nil {
			return "", "", err
		}
	}

	arity := func(want int) error {
		if len(n.Args) != want {
			return errArity(n.Name, want, len(n.Args))
		}
		return nil
	}

	switch n.Name {
	case "exists":
		if err := arity(0); err != nil {
			return "", "", err
		}
		if isPath && t.pathIsArray(ctx, rel) {
			return fmt.Sprintf("CASE WHEN %s > 0 THEN TRUE ELSE FALSE END",
				t.dialect.ArrayLength(ctx.sourceCol, ctx.scopedRel(rel))), "boolean", nil
		}
		return fmt.Sprintf("CASE WHEN %s IS NOT NULL THEN TRUE ELSE FALSE END", target), "boolean", nil

	case "empty":
		if err := arity(0); err != nil {
			return "", "", err
		}
		if isPath && t.pathIsArray(ctx, rel) {
			return fmt.Sprintf("CASE WHEN %s > 0 THEN FALSE ELSE TRUE END",
				t.dialect.ArrayLength(ctx.sourceCol, ctx.scopedRel(rel))), "boolean", nil
		}
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN TRUE ELSE FALSE END", target), "boolean", nil

	case "not":
		if err := arity(0); err != nil {
			return "", "", err
		}
		return fmt.Sprintf("NOT (%s)", target), "boolean", nil

	case "count":
		if err := arity(0); err != nil {
			return "", "", err
		}
		if isPath && t.pathIsArray(ctx, rel) {
			return t.dialect.ArrayLength(ctx.sourceCol, ctx.scopedRel(rel)), "integer", nil
		}
		return fmt.Sprintf("CASE WHEN %s IS NOT NULL THEN 1 ELSE 0 END", target), "integer", nil

	case "first":
		if err := arity(0); err != nil {
			return "", "", err
		}
		if isPath && t.pathIsArray(ctx, rel) {
			return t.dialect.ArrayIndex(ctx.sourceCol, ctx.scopedRel(rel), 0), targetType, nil
		}
		return target, targetType, nil

	case "lowBoundary", "highBoundary":
		if err := arity(0); err != nil {
			return "", "", err
		}
		typ := targetType
		if typ == "" {
			typ = "date"
		}
		if n.Name == "highBoundary" {
			return t.dialect.HighBoundary(target, typ), typ, nil
		}
		return t.dialect.LowBoundary(target, typ), typ, nil

	default:
		return "", "", errUnsupported(n.Name)
	}
}

func (t *Translator) renderTypeExpr(ctx *context, n *ast.TypeExpr) (string, string, error) {
	canonical, ok := canonicalTypes[strings.ToLower(n.Type)]
	if !ok {
		return "", "", errUnknownType(n.Type)
	}

	inner, innerType, err := t.renderExpr(ctx, n.Expr)
	if err != nil {
		return "", "", err
	}

	switch n.Op {
	case ast.TypeIs:
		if strings.EqualFold(innerType, canonical) {
			return "TRUE", "boolean", nil
		}
		return "FALSE", "boolean", nil
	case ast.TypeAs:
		return t.dialect.Cast(inner, t.dialect.SQLType(canonical)), canonical, nil
	default:
		return "", "", errMalformed("unknown type operation")
	}
}

// relative strips the resource-type anchor from a path rendered at root
// scope, so "Patient.birthDate" and "birthDate" extract identically. Inside a
// flatten or predicate scope paths are already element-relative and pass
// through unchanged.
func (t *Translator) relative(ctx *context, rel string) string {
	if ctx.pathPrefix != "" || ctx.exprScope != "" {
		return rel
	}
	first, rest, found := strings.Cut(rel, ".")
	if schema.NormalizeResource(first) != ctx.resourceType {
		return rel
	}
	if !found {
		return ""
	}
	return rest
}

// exprPathOf flattens a pure identifier chain into a dotted relative path.
// Returns ok=false for anything containing calls, literals, or operators.
func exprPathOf(node ast.Expr) (string, bool) {
	switch n := node.(type) {
	case *ast.Ident:
		if n.Name == "$this" || strings.HasPrefix(n.Name, "$") {
			return "", false
		}
		return n.Name, true
	case *ast.Path:
		base, ok := exprPathOf(n.Base)
		if !ok {
			return "", false
		}
		return base + "." + n.Name, true
	default:
		return "", false
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
