// Package ast defines the typed FHIRPath abstract syntax tree consumed by the
// translator. The node set is closed: every variant implements the unexported
// exprNode marker, so consumers can switch exhaustively over node kinds and
// treat anything else as a malformed tree.
package ast

// Expr is the interface implemented by all FHIRPath expression nodes.
type Expr interface {
	exprNode()
}

// LiteralKind classifies a literal value.
type LiteralKind int

// LiteralKind constants for FHIRPath literal value types.
const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralDate
	LiteralDateTime
	LiteralNull
)

// String returns the string representation of LiteralKind.
func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "string"
	case LiteralNumber:
		return "number"
	case LiteralBoolean:
		return "boolean"
	case LiteralDate:
		return "date"
	case LiteralDateTime:
		return "datetime"
	case LiteralNull:
		return "null"
	default:
		return "unknown"
	}
}

// Literal represents a literal value ('active', 42, true, @2000-01-01, {}).
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// Ident represents a bare identifier: a resource name at the root of an
// expression, a field name inside a predicate, or the $this variable.
type Ident struct {
	Name string
}

func (*Ident) exprNode() {}

// Path represents one navigation step: Base.Name.
type Path struct {
	Base Expr
	Name string
}

func (*Path) exprNode() {}

// Operator identifies a binary or unary FHIRPath operator.
type Operator int

// Operator constants, grouped by precedence class.
const (
	OpImplies Operator = iota
	OpOr
	OpXor
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpUnion
	OpAdd
	OpSub
	OpConcat
	OpMul
	OpDiv
	OpIntDiv
	OpMod
	OpNeg
)

// String returns the FHIRPath spelling of the operator.
func (op Operator) String() string {
	switch op {
	case OpImplies:
		return "implies"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpAnd:
		return "and"
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpUnion:
		return "|"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpConcat:
		return "&"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpIntDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpNeg:
		return "-"
	default:
		return "unknown"
	}
}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression (negation, unary minus).
type UnaryExpr struct {
	Op   Operator
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall represents a function invocation on a target collection:
// Target.Name(Args...). Target is nil when the function is invoked on the
// root context (e.g. a bare exists() inside a predicate).
type FuncCall struct {
	Target Expr
	Name   string
	Args   []Expr
}

func (*FuncCall) exprNode() {}

// IndexExpr represents positional indexing: Expr[Index].
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// TypeOp classifies a type operation.
type TypeOp int

// TypeOp constants for the FHIRPath type operators.
const (
	TypeIs TypeOp = iota
	TypeAs
)

// TypeExpr represents a type test or cast: Expr is Type / Expr as Type.
// The ofType(Type) function is normalized to a TypeExpr with Op=TypeAs by
// the parser.
type TypeExpr struct {
	Expr Expr
	Op   TypeOp
	Type string
}

func (*TypeExpr) exprNode() {}
