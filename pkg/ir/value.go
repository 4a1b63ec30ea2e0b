package ir

import "fmt"

// Value is a resolved compile-time constant, produced by
// ComputeConstantValue during ConstantPropagation. It is a
// closed sum type mirroring Type's shape: NoValue (not constant), a single
// scalar, a 2/3/4-component vector, or an array of Values.
type Value interface {
	fmt.Stringer
	IsConstant() bool
}

// NoValue marks an expression that ConstantPropagation determined is not a
// compile-time constant.
type NoValue struct{}

func (NoValue) String() string    { return "<non-constant>" }
func (NoValue) IsConstant() bool  { return false }

// Bits is the untyped 64-bit payload backing a scalar constant; Base says
// how to interpret it (float bits via math.Float64bits, int/uint stored
// directly, bool as 0/1).
type Bits struct {
	Base Base
	Bits uint64
}

// Single is a scalar constant value.
type Single struct {
	V Bits
}

func (s Single) String() string   { return fmt.Sprintf("%s(%#x)", s.V.Base, s.V.Bits) }
func (Single) IsConstant() bool   { return true }

// Vector2, Vector3, Vector4 are fixed-size constant vectors.
type Vector2 struct{ X, Y Bits }
type Vector3 struct{ X, Y, Z Bits }
type Vector4 struct{ X, Y, Z, W Bits }

func (v Vector2) String() string { return fmt.Sprintf("vec2(%v, %v)", v.X, v.Y) }
func (Vector2) IsConstant() bool { return true }

func (v Vector3) String() string { return fmt.Sprintf("vec3(%v, %v, %v)", v.X, v.Y, v.Z) }
func (Vector3) IsConstant() bool { return true }

func (v Vector4) String() string { return fmt.Sprintf("vec4(%v, %v, %v, %v)", v.X, v.Y, v.Z, v.W) }
func (Vector4) IsConstant() bool { return true }

// ArrayValue is a constant array.
type ArrayValue struct {
	Elems []Value
}

func (a ArrayValue) String() string  { return fmt.Sprintf("array(%d elems)", len(a.Elems)) }
func (ArrayValue) IsConstant() bool  { return true }
