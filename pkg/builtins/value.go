package builtins

import (
	"fmt"
	"math"

	"goshade/pkg/bytecode"
)

// Vec3 is a 3-component float vector.
type Vec3 [3]float32

func (v Vec3) String() string {
	return fmt.Sprintf("vec3(%v, %v, %v)", v[0], v[1], v[2])
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

// Value is one runtime cell: a float, a vec3 or the empty value. A value
// occupies exactly one 4-byte storage slot regardless of kind.
type Value struct {
	Kind bytecode.TypeKind
	F    float32
	V    Vec3
}

// Float wraps a float32 as a Value.
func Float(f float32) Value {
	return Value{Kind: bytecode.TypeF32, F: f}
}

// NewVec3 wraps three components as a Value.
func NewVec3(x, y, z float32) Value {
	return Value{Kind: bytecode.TypeVec3, V: Vec3{x, y, z}}
}

// Void is the empty value pushed by the VOID opcode.
func Void() Value {
	return Value{Kind: bytecode.TypeVoid}
}

func (v Value) String() string {
	switch v.Kind {
	case bytecode.TypeF32:
		return fmt.Sprintf("%v", v.F)
	case bytecode.TypeVec3:
		return v.V.String()
	default:
		return "void"
	}
}
