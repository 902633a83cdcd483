package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhirlake-labs/fhirsql/pkg/ast"
)

func TestParsePathChain(t *testing.T) {
	expr, err := Parse("Patient.name.family")
	require.NoError(t, err)

	family, ok := expr.(*ast.Path)
	require.True(t, ok)
	assert.Equal(t, "family", family.Name)

	name, ok := family.Base.(*ast.Path)
	require.True(t, ok)
	assert.Equal(t, "name", name.Name)

	root, ok := name.Base.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "Patient", root.Name)
}

func TestParseFunctionCall(t *testing.T) {
	expr, err := Parse("Patient.name.where(use = 'official')")
	require.NoError(t, err)

	call, ok := expr.(*ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "where", call.Name)
	require.Len(t, call.Args, 1)

	pred, ok := call.Args[0].(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, pred.Op)

	lit, ok := pred.Right.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LiteralString, lit.Kind)
	assert.Equal(t, "official", lit.Value)
}

func TestParseBareCall(t *testing.T) {
	expr, err := Parse("exists()")
	require.NoError(t, err)
	call, ok := expr.(*ast.FuncCall)
	require.True(t, ok)
	assert.Nil(t, call.Target)
	assert.Equal(t, "exists", call.Name)
	assert.Empty(t, call.Args)
}

func TestParseIndex(t *testing.T) {
	expr, err := Parse("Patient.name[0]")
	require.NoError(t, err)
	idx, ok := expr.(*ast.IndexExpr)
	require.True(t, ok)
	lit, ok := idx.Index.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "0", lit.Value)
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.LiteralKind
		value string
	}{
		{"42", ast.LiteralNumber, "42"},
		{"3.14", ast.LiteralNumber, "3.14"},
		{"'hello'", ast.LiteralString, "hello"},
		{"true", ast.LiteralBoolean, "true"},
		{"false", ast.LiteralBoolean, "false"},
		{"@2013-06-10", ast.LiteralDate, "2013-06-10"},
		{"@2013-06-10T12:00:00", ast.LiteralDateTime, "2013-06-10T12:00:00"},
		{"{}", ast.LiteralNull, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := Parse(tt.input)
			require.NoError(t, err)
			lit, ok := expr.(*ast.Literal)
			require.True(t, ok, "want literal, got %T", expr)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.value, lit.Value)
		})
	}
}

func TestParseStringEscapes(t *testing.T) {
	expr, err := Parse(`'it\'s'`)
	require.NoError(t, err)
	lit := expr.(*ast.Literal)
	assert.Equal(t, "it's", lit.Value)
}

func TestParsePrecedence(t *testing.T) {
	// and binds tighter than or
	expr, err := Parse("a = 1 or b = 2 and c = 3")
	require.NoError(t, err)
	or, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpOr, or.Op)
	and, ok := or.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, and.Op)
}

func TestParseParensOverridePrecedence(t *testing.T) {
	expr, err := Parse("(a = 1 or b = 2) and c = 3")
	require.NoError(t, err)
	and, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, and.Op)
	or, ok := and.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpOr, or.Op)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	expr, err := Parse("1 + 2 * 3")
	require.NoError(t, err)
	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestParseTypeOperators(t *testing.T) {
	expr, err := Parse("value is Quantity")
	require.NoError(t, err)
	te, ok := expr.(*ast.TypeExpr)
	require.True(t, ok)
	assert.Equal(t, ast.TypeIs, te.Op)
	assert.Equal(t, "Quantity", te.Type)

	expr, err = Parse("value as decimal")
	require.NoError(t, err)
	te = expr.(*ast.TypeExpr)
	assert.Equal(t, ast.TypeAs, te.Op)
	assert.Equal(t, "decimal", te.Type)
}

func TestParseOfTypeNormalizesToCast(t *testing.T) {
	expr, err := Parse("Observation.value.ofType(Quantity)")
	require.NoError(t, err)
	te, ok := expr.(*ast.TypeExpr)
	require.True(t, ok)
	assert.Equal(t, ast.TypeAs, te.Op)
	assert.Equal(t, "Quantity", te.Type)
}

func TestParseUnaryMinus(t *testing.T) {
	expr, err := Parse("-5")
	require.NoError(t, err)
	neg, ok := expr.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpNeg, neg.Op)
}

func TestParseImplies(t *testing.T) {
	expr, err := Parse("a.exists() implies b.exists()")
	require.NoError(t, err)
	bin, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpImplies, bin.Op)
}

func TestParseConcat(t *testing.T) {
	expr, err := Parse("given & ' ' & family")
	require.NoError(t, err)
	bin, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpConcat, bin.Op)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"Patient.",
		"Patient.name.where(",
		"Patient.name[",
		"= 5",
		"Patient..name",
		"'unterminated",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err, "input %q should not parse", input)
		})
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse("Patient..name")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 8, perr.Pos)
}

func TestParseTrailingGarbage(t *testing.T) {
	_, err := Parse("Patient.name extra")
	require.Error(t, err)
}

func TestParseBacktickIdentifier(t *testing.T) {
	expr, err := Parse("Patient.`div`")
	require.NoError(t, err)
	p, ok := expr.(*ast.Path)
	require.True(t, ok)
	assert.Equal(t, "div", p.Name)
}
