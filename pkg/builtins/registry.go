// Package builtins holds the native function registry shared by the code
// generator (resolution) and the VM (execution). Operators are keyed by
// (operator, operand type signature) and library functions by (name,
// argument signature); the compiler resolves both against static operand
// types and emits CALL.B with the registry index as immediate.
package builtins

import (
	"fmt"

	"goshade/pkg/bytecode"
)

// Func is a native implementation. Arguments arrive in source order.
type Func func(args []Value) (Value, error)

// Builtin describes one native function: its signature and implementation.
type Builtin struct {
	Name   string
	Params []bytecode.TypeKind
	Result bytecode.TypeKind
	Fn     Func
}

type binaryKey struct {
	Op          string
	Left, Right bytecode.TypeKind
}

type unaryKey struct {
	Op      string
	Operand bytecode.TypeKind
}

// Registry maps names and operator signatures to builtin indices. Indices
// are baked into compiled artifacts, so a program must be executed against
// a registry composed in the same order it was compiled against.
type Registry struct {
	fns    []Builtin
	binary map[binaryKey]int
	unary  map[unaryKey]int
	named  map[string][]int
}

func NewRegistry() *Registry {
	return &Registry{
		binary: make(map[binaryKey]int),
		unary:  make(map[unaryKey]int),
		named:  make(map[string][]int),
	}
}

func (r *Registry) add(b Builtin) int {
	r.fns = append(r.fns, b)
	return len(r.fns) - 1
}

// Register adds a callable library function, overloaded by argument
// signature.
func (r *Registry) Register(b Builtin) int {
	idx := r.add(b)
	r.named[b.Name] = append(r.named[b.Name], idx)
	return idx
}

// RegisterBinary adds an operator overload for op ("+", "-", "*", "/")
// with the two operand types taken from b.Params.
func (r *Registry) RegisterBinary(op string, b Builtin) int {
	if len(b.Params) != 2 {
		panic(fmt.Sprintf("builtins: binary operator %q needs 2 params, got %d", op, len(b.Params)))
	}
	idx := r.add(b)
	r.binary[binaryKey{Op: op, Left: b.Params[0], Right: b.Params[1]}] = idx
	return idx
}

// RegisterUnary adds a unary operator overload for op ("-").
func (r *Registry) RegisterUnary(op string, b Builtin) int {
	if len(b.Params) != 1 {
		panic(fmt.Sprintf("builtins: unary operator %q needs 1 param, got %d", op, len(b.Params)))
	}
	idx := r.add(b)
	r.unary[unaryKey{Op: op, Operand: b.Params[0]}] = idx
	return idx
}

// ResolveName finds the overload of name matching the argument signature.
func (r *Registry) ResolveName(name string, args []bytecode.TypeKind) (int, Builtin, bool) {
	for _, idx := range r.named[name] {
		if signatureMatches(r.fns[idx].Params, args) {
			return idx, r.fns[idx], true
		}
	}
	return 0, Builtin{}, false
}

// HasName reports whether any overload of name exists.
func (r *Registry) HasName(name string) bool {
	return len(r.named[name]) > 0
}

// ResolveBinary finds the operator implementation for op with the given
// operand types.
func (r *Registry) ResolveBinary(op string, left, right bytecode.TypeKind) (int, Builtin, bool) {
	idx, ok := r.binary[binaryKey{Op: op, Left: left, Right: right}]
	if !ok {
		return 0, Builtin{}, false
	}
	return idx, r.fns[idx], true
}

// ResolveUnary finds the operator implementation for unary op.
func (r *Registry) ResolveUnary(op string, operand bytecode.TypeKind) (int, Builtin, bool) {
	idx, ok := r.unary[unaryKey{Op: op, Operand: operand}]
	if !ok {
		return 0, Builtin{}, false
	}
	return idx, r.fns[idx], true
}

// At returns the builtin at a registry index, as referenced by a CALL.B
// immediate.
func (r *Registry) At(idx int) (Builtin, bool) {
	if idx < 0 || idx >= len(r.fns) {
		return Builtin{}, false
	}
	return r.fns[idx], true
}

// Len returns the number of registered builtins.
func (r *Registry) Len() int {
	return len(r.fns)
}

func signatureMatches(params, args []bytecode.TypeKind) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if params[i] != args[i] {
			return false
		}
	}
	return true
}
