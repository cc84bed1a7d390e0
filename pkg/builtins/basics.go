package builtins

import (
	"fmt"

	"goshade/pkg/bytecode"
)

// Default returns the standard registry: the vec3 constructor, the vector
// library functions and the vector operator overloads. Registration order
// is fixed; compiled artifacts reference builtins by index.
func Default() *Registry {
	r := NewRegistry()

	r.Register(Builtin{
		Name:   "vec3",
		Params: []bytecode.TypeKind{bytecode.TypeF32, bytecode.TypeF32, bytecode.TypeF32},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			return NewVec3(args[0].F, args[1].F, args[2].F), nil
		},
	})

	r.Register(Builtin{
		Name:   "normalize",
		Params: []bytecode.TypeKind{bytecode.TypeVec3},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			v := args[0].V
			len := v.Length()
			if len == 0 {
				return Value{}, fmt.Errorf("normalize: zero-length vector")
			}
			return NewVec3(v[0]/len, v[1]/len, v[2]/len), nil
		},
	})

	r.Register(Builtin{
		Name:   "dot",
		Params: []bytecode.TypeKind{bytecode.TypeVec3, bytecode.TypeVec3},
		Result: bytecode.TypeF32,
		Fn: func(args []Value) (Value, error) {
			a, b := args[0].V, args[1].V
			return Float(a[0]*b[0] + a[1]*b[1] + a[2]*b[2]), nil
		},
	})

	r.Register(Builtin{
		Name:   "length",
		Params: []bytecode.TypeKind{bytecode.TypeVec3},
		Result: bytecode.TypeF32,
		Fn: func(args []Value) (Value, error) {
			return Float(args[0].V.Length()), nil
		},
	})

	r.RegisterBinary("*", Builtin{
		Name:   "mul",
		Params: []bytecode.TypeKind{bytecode.TypeF32, bytecode.TypeVec3},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			a, v := args[0].F, args[1].V
			return NewVec3(v[0]*a, v[1]*a, v[2]*a), nil
		},
	})

	r.RegisterBinary("*", Builtin{
		Name:   "mul",
		Params: []bytecode.TypeKind{bytecode.TypeVec3, bytecode.TypeF32},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			v, a := args[0].V, args[1].F
			return NewVec3(v[0]*a, v[1]*a, v[2]*a), nil
		},
	})

	r.RegisterBinary("/", Builtin{
		Name:   "div",
		Params: []bytecode.TypeKind{bytecode.TypeVec3, bytecode.TypeF32},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			v, a := args[0].V, args[1].F
			if a == 0 {
				return Value{}, fmt.Errorf("div: vec3 division by zero")
			}
			return NewVec3(v[0]/a, v[1]/a, v[2]/a), nil
		},
	})

	r.RegisterBinary("+", Builtin{
		Name:   "add",
		Params: []bytecode.TypeKind{bytecode.TypeVec3, bytecode.TypeVec3},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			a, b := args[0].V, args[1].V
			return NewVec3(a[0]+b[0], a[1]+b[1], a[2]+b[2]), nil
		},
	})

	r.RegisterBinary("-", Builtin{
		Name:   "sub",
		Params: []bytecode.TypeKind{bytecode.TypeVec3, bytecode.TypeVec3},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			a, b := args[0].V, args[1].V
			return NewVec3(a[0]-b[0], a[1]-b[1], a[2]-b[2]), nil
		},
	})

	r.RegisterUnary("-", Builtin{
		Name:   "neg",
		Params: []bytecode.TypeKind{bytecode.TypeVec3},
		Result: bytecode.TypeVec3,
		Fn: func(args []Value) (Value, error) {
			v := args[0].V
			return NewVec3(-v[0], -v[1], -v[2]), nil
		},
	})

	return r
}
