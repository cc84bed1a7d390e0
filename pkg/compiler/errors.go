package compiler

import "fmt"

// ErrorKind classifies a compilation failure. Every kind aborts the whole
// compilation; no partial artifact is ever returned.
type ErrorKind int

const (
	// ErrFolding: the constant-folding pass could not safely reduce a
	// constant subexpression (e.g. division by a folded zero).
	ErrFolding ErrorKind = iota
	// ErrUnresolvedSymbol: a name matches neither the current function's
	// locals nor the global table.
	ErrUnresolvedSymbol
	// ErrUnresolvedFunction: a call references a name absent from both the
	// function table and the builtin registry.
	ErrUnresolvedFunction
	// ErrUnsupportedExpression: an expression or operator form the
	// generator does not lower.
	ErrUnsupportedExpression
)

func (k ErrorKind) String() string {
	switch k {
	case ErrFolding:
		return "folding error"
	case ErrUnresolvedSymbol:
		return "unresolved symbol"
	case ErrUnresolvedFunction:
		return "unresolved function"
	case ErrUnsupportedExpression:
		return "unsupported expression"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// CompileError is a structured compilation failure carrying the offending
// name (when one exists) and the 1-based source line.
type CompileError struct {
	Kind ErrorKind
	Name string // offending symbol/function name, "" when not applicable
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	var loc string
	if e.Line > 0 {
		loc = fmt.Sprintf("line %d: ", e.Line)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s%s: %q: %s", loc, e.Kind, e.Name, e.Msg)
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Kind, e.Msg)
}

func unresolvedSymbol(name string, line int) *CompileError {
	return &CompileError{
		Kind: ErrUnresolvedSymbol,
		Name: name,
		Line: line,
		Msg:  "not a local, parameter or declared in/out",
	}
}

func unresolvedFunction(name string, line int) *CompileError {
	return &CompileError{
		Kind: ErrUnresolvedFunction,
		Name: name,
		Line: line,
		Msg:  "no such function or builtin",
	}
}

func unsupportedExpr(line int, format string, args ...any) *CompileError {
	return &CompileError{
		Kind: ErrUnsupportedExpression,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func foldingError(line int, format string, args ...any) *CompileError {
	return &CompileError{
		Kind: ErrFolding,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	}
}
