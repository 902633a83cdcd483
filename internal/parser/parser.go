// Package parser turns FHIRPath source text into the typed AST consumed by
// the translator. It is a hand-written Pratt parser over a small token set;
// the grammar subset matches what the translator supports.
package parser

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/ast"
)

// ParseError reports a syntax error with its byte offset in the expression.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}

// Parse parses a FHIRPath expression into an AST.
func Parse(input string) (ast.Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{0, "empty expression"}
	}
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokEOF {
		t := p.peek()
		return nil, &ParseError{t.pos, fmt.Sprintf("unexpected token %q", t.value)}
	}
	return expr, nil
}

// Operator precedence levels, lowest binds loosest.
const (
	precLowest = iota
	precImplies
	precOr
	precAnd
	precEquality
	precComparison
	precUnion
	precAdditive
	precMultiplicative
	precUnary
)

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	t := p.peek()
	if t.typ != typ {
		return token{}, &ParseError{t.pos, fmt.Sprintf("expected %s, got %q", what, t.value)}
	}
	return p.next(), nil
}

// infixPrecedence returns the binding power of the upcoming infix operator,
// or precLowest when the token is not an operator.
func (p *parser) infixPrecedence() int {
	t := p.peek()
	switch t.typ {
	case tokEq, tokNe:
		return precEquality
	case tokLt, tokLe, tokGt, tokGe:
		return precComparison
	case tokPipe:
		return precUnion
	case tokPlus, tokMinus, tokAmp:
		return precAdditive
	case tokStar, tokSlash:
		return precMultiplicative
	case tokIdent:
		switch t.value {
		case "implies":
			return precImplies
		case "or", "xor":
			return precOr
		case "and":
			return precAnd
		case "is", "as":
			return precComparison
		case "div", "mod":
			return precMultiplicative
		}
	}
	return precLowest
}

func binaryOp(t token) (ast.Operator, bool) {
	switch t.typ {
	case tokEq:
		return ast.OpEq, true
	case tokNe:
		return ast.OpNe, true
	case tokLt:
		return ast.OpLt, true
	case tokLe:
		return ast.OpLe, true
	case tokGt:
		return ast.OpGt, true
	case tokGe:
		return ast.OpGe, true
	case tokPipe:
		return ast.OpUnion, true
	case tokPlus:
		return ast.OpAdd, true
	case tokMinus:
		return ast.OpSub, true
	case tokAmp:
		return ast.OpConcat, true
	case tokStar:
		return ast.OpMul, true
	case tokSlash:
		return ast.OpDiv, true
	case tokIdent:
		switch t.value {
		case "implies":
			return ast.OpImplies, true
		case "or":
			return ast.OpOr, true
		case "xor":
			return ast.OpXor, true
		case "and":
			return ast.OpAnd, true
		case "div":
			return ast.OpIntDiv, true
		case "mod":
			return ast.OpMod, true
		}
	}
	return 0, false
}

func (p *parser) parseExpression(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec := p.infixPrecedence()
		if prec <= minPrec {
			return left, nil
		}
		t := p.next()

		// type operators take a type name, not an expression
		if t.typ == tokIdent && (t.value == "is" || t.value == "as") {
			typeTok, err := p.expect(tokIdent, "type name")
			if err != nil {
				return nil, err
			}
			op := ast.TypeIs
			if t.value == "as" {
				op = ast.TypeAs
			}
			left = &ast.TypeExpr{Expr: left, Op: op, Type: typeTok.value}
			continue
		}

		op, ok := binaryOp(t)
		if !ok {
			return nil, &ParseError{t.pos, fmt.Sprintf("unexpected operator %q", t.value)}
		}
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.peek().typ == tokMinus {
		p.next()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.OpNeg, Expr: expr}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of
// invocations: .name, .name(args), [index].
func (p *parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().typ {
		case tokDot:
			p.next()
			name, err := p.expect(tokIdent, "identifier after '.'")
			if err != nil {
				return nil, err
			}
			if p.peek().typ == tokLParen {
				expr, err = p.parseCall(expr, name)
				if err != nil {
					return nil, err
				}
			} else {
				expr = &ast.Path{Base: expr, Name: name.value}
			}
		case tokLBrack:
			p.next()
			index, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBrack, "']'"); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Expr: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

// parseCall parses the argument list of target.name(...). ofType is
// normalized to a TypeExpr so the translator sees a single type-cast shape.
func (p *parser) parseCall(target ast.Expr, name token) (ast.Expr, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	var args []ast.Expr
	if p.peek().typ != tokRParen {
		for {
			arg, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().typ != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if name.value == "ofType" {
		if len(args) != 1 {
			return nil, &ParseError{name.pos, "ofType expects exactly one type argument"}
		}
		ident, ok := args[0].(*ast.Ident)
		if !ok {
			return nil, &ParseError{name.pos, "ofType argument must be a type name"}
		}
		return &ast.TypeExpr{Expr: target, Op: ast.TypeAs, Type: ident.Name}, nil
	}

	return &ast.FuncCall{Target: target, Name: name.value, Args: args}, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	switch t.typ {
	case tokNumber:
		p.next()
		return &ast.Literal{Kind: ast.LiteralNumber, Value: t.value}, nil
	case tokString:
		p.next()
		return &ast.Literal{Kind: ast.LiteralString, Value: t.value}, nil
	case tokDate:
		p.next()
		kind := ast.LiteralDate
		if strings.Contains(t.value, "T") {
			kind = ast.LiteralDateTime
		}
		return &ast.Literal{Kind: kind, Value: t.value}, nil
	case tokLBrace:
		p.next()
		if _, err := p.expect(tokRBrace, "'}'"); err != nil {
			return nil, err
		}
		return &ast.Literal{Kind: ast.LiteralNull, Value: ""}, nil
	case tokLParen:
		p.next()
		expr, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case tokIdent:
		p.next()
		switch t.value {
		case "true", "false":
			return &ast.Literal{Kind: ast.LiteralBoolean, Value: t.value}, nil
		}
		if p.peek().typ == tokLParen {
			// bare function call on the implicit context, e.g. exists() in a
			// predicate
			return p.parseCall(nil, t)
		}
		return &ast.Ident{Name: t.value}, nil
	case tokEOF:
		return nil, &ParseError{t.pos, "unexpected end of expression"}
	default:
		return nil, &ParseError{t.pos, fmt.Sprintf("unexpected token %q", t.value)}
	}
}
