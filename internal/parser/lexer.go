package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenType identifies a lexical token kind.
type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokDate // @2000-01-01 or @2000-01-01T12:30:00
	tokDot
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokLBrace
	tokRBrace
	tokComma
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokPipe
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokAmp
)

// token is one lexical token with its source offset.
type token struct {
	typ   tokenType
	value string
	pos   int
}

// lexError reports a lexical error at a byte offset.
type lexError struct {
	Pos int
	Msg string
}

func (e *lexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Pos, e.Msg)
}

// tokenize splits a FHIRPath expression into tokens.
func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	n := len(input)

	for i < n {
		ch := input[i]

		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		start := i
		switch {
		case ch == '.':
			tokens = append(tokens, token{tokDot, ".", start})
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", start})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", start})
			i++
		case ch == '[':
			tokens = append(tokens, token{tokLBrack, "[", start})
			i++
		case ch == ']':
			tokens = append(tokens, token{tokRBrack, "]", start})
			i++
		case ch == '{':
			tokens = append(tokens, token{tokLBrace, "{", start})
			i++
		case ch == '}':
			tokens = append(tokens, token{tokRBrace, "}", start})
			i++
		case ch == ',':
			tokens = append(tokens, token{tokComma, ",", start})
			i++
		case ch == '|':
			tokens = append(tokens, token{tokPipe, "|", start})
			i++
		case ch == '+':
			tokens = append(tokens, token{tokPlus, "+", start})
			i++
		case ch == '-':
			tokens = append(tokens, token{tokMinus, "-", start})
			i++
		case ch == '*':
			tokens = append(tokens, token{tokStar, "*", start})
			i++
		case ch == '/':
			tokens = append(tokens, token{tokSlash, "/", start})
			i++
		case ch == '&':
			tokens = append(tokens, token{tokAmp, "&", start})
			i++
		case ch == '=':
			tokens = append(tokens, token{tokEq, "=", start})
			i++
		case ch == '!':
			if i+1 < n && input[i+1] == '=' {
				tokens = append(tokens, token{tokNe, "!=", start})
				i += 2
			} else {
				return nil, &lexError{start, "unexpected character '!'"}
			}
		case ch == '<':
			if i+1 < n && input[i+1] == '=' {
				tokens = append(tokens, token{tokLe, "<=", start})
				i += 2
			} else {
				tokens = append(tokens, token{tokLt, "<", start})
				i++
			}
		case ch == '>':
			if i+1 < n && input[i+1] == '=' {
				tokens = append(tokens, token{tokGe, ">=", start})
				i += 2
			} else {
				tokens = append(tokens, token{tokGt, ">", start})
				i++
			}
		case ch == '\'':
			value, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, value, start})
			i = next
		case ch == '@':
			j := i + 1
			for j < n && (isDateChar(input[j])) {
				j++
			}
			if j == i+1 {
				return nil, &lexError{start, "empty date literal"}
			}
			tokens = append(tokens, token{tokDate, input[i+1 : j], start})
			i = j
		case ch == '$':
			j := i + 1
			for j < n && isIdentChar(rune(input[j])) {
				j++
			}
			tokens = append(tokens, token{tokIdent, input[i:j], start})
			i = j
		case ch >= '0' && ch <= '9':
			j := i
			for j < n && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				// a trailing dot belongs to an invocation, not the number
				if input[j] == '.' && (j+1 >= n || input[j+1] < '0' || input[j+1] > '9') {
					break
				}
				j++
			}
			tokens = append(tokens, token{tokNumber, input[i:j], start})
			i = j
		case isIdentStart(rune(ch)):
			j := i
			for j < n && isIdentChar(rune(input[j])) {
				j++
			}
			tokens = append(tokens, token{tokIdent, input[i:j], start})
			i = j
		case ch == '`':
			// backtick-quoted identifier
			end := strings.IndexByte(input[i+1:], '`')
			if end < 0 {
				return nil, &lexError{start, "unterminated quoted identifier"}
			}
			tokens = append(tokens, token{tokIdent, input[i+1 : i+1+end], start})
			i = i + end + 2
		default:
			return nil, &lexError{start, fmt.Sprintf("unexpected character %q", ch)}
		}
	}

	tokens = append(tokens, token{tokEOF, "", n})
	return tokens, nil
}

// lexString consumes a single-quoted string literal starting at input[start]
// and returns its unescaped value and the index after the closing quote.
func lexString(input string, start int) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	n := len(input)
	for i < n {
		switch input[i] {
		case '\'':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= n {
				return "", 0, &lexError{start, "unterminated string literal"}
			}
			switch input[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\'', '\\', '"', '`':
				sb.WriteByte(input[i+1])
			default:
				sb.WriteByte(input[i+1])
			}
			i += 2
		default:
			sb.WriteByte(input[i])
			i++
		}
	}
	return "", 0, &lexError{start, "unterminated string literal"}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDateChar(b byte) bool {
	return b >= '0' && b <= '9' || b == '-' || b == ':' || b == 'T' || b == '.' || b == '+' || b == 'Z'
}
