package translator

import "fmt"

// ErrorKind classifies a translation failure.
type ErrorKind int

// ErrorKind constants. All translation failures are deterministic and
// non-retryable; the pipeline aborts on the first one.
const (
	// KindUnsupportedFunction means the expression used a function the
	// translator has no handler for.
	KindUnsupportedFunction ErrorKind = iota
	// KindArity means a function was called with the wrong argument count.
	KindArity
	// KindUnknownType means a type operation named a type outside the
	// canonical set.
	KindUnknownType
	// KindMalformedNode means the AST contained a node shape the translator
	// cannot lower (unknown variant, non-literal index, ...).
	KindMalformedNode
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFunction:
		return "unsupported function"
	case KindArity:
		return "wrong argument count"
	case KindUnknownType:
		return "unknown type"
	case KindMalformedNode:
		return "malformed node"
	default:
		return "unknown"
	}
}

// Error is a fatal translation failure. It is never retried internally and
// no partial fragment output accompanies it.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation error (%s): %s", e.Kind, e.Detail)
}

func errUnsupported(name string) *Error {
	return &Error{Kind: KindUnsupportedFunction, Detail: fmt.Sprintf("function %q is not supported", name)}
}

func errArity(name string, want, got int) *Error {
	return &Error{Kind: KindArity, Detail: fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got)}
}

func errUnknownType(name string) *Error {
	return &Error{Kind: KindUnknownType, Detail: fmt.Sprintf("unknown target type %q", name)}
}

func errMalformed(detail string) *Error {
	return &Error{Kind: KindMalformedNode, Detail: detail}
}
