package abi

import (
	"encoding/hex"
	"math/big"
)

// Value is one node of the decoded value tree (spec §3 "Decoded value").
// Every node carries its byte range and raw bytes in addition to its kind.
type Value struct {
	Offset   int
	Length   int
	RawBytes []byte
	TypeName string
	Kind     ValueKind
}

// RawHex returns the lowercase hex encoding of the node's raw bytes.
func (v *Value) RawHex() string {
	return hex.EncodeToString(v.RawBytes)
}

// ValueKind is the tagged sum of decoded-value variants from spec §3.
type ValueKind interface {
	valueTag() string
}

// PrimitiveValue carries a decoded scalar. Integer kinds (and f16, whose
// 16-bit pattern is never float-converted per spec §9) populate Numeric,
// widened to arbitrary precision so u64/i64 values outside the float64
// mantissa survive intact. f32/f64 populate Float instead and leave
// Numeric nil; a field-ref expression that ends at one of them truncates
// Float toward zero to obtain an integer.
type PrimitiveValue struct {
	Prim    PrimKind
	Numeric *big.Int
	Float   float64
}

func (*PrimitiveValue) valueTag() string { return "primitive" }

// StructValue holds fields in declaration order, indexed by name.
type StructValue struct {
	Names  []string
	ByName map[string]*Value
}

func (*StructValue) valueTag() string { return "struct" }

// ArrayValue is a fixed sequence of same-shaped elements.
type ArrayValue struct {
	Elements []*Value
}

func (*ArrayValue) valueTag() string { return "array" }

// EnumValue records the tag that selected Inner, and the variant name.
type EnumValue struct {
	TagValue    *big.Int
	VariantName string
	Inner       *Value
}

func (*EnumValue) valueTag() string { return "enum" }

// UnionInterpretation is one variant's speculative-decode outcome: either
// a successfully decoded Value, or an *OpaqueValue describing the failure.
type UnionInterpretation struct {
	Name  string
	Value *Value
}

// UnionValue carries every variant's interpretation; the decoder never
// picks a winner for a plain union (spec §4.4, §9 "Ambiguity in unions").
type UnionValue struct {
	Interpretations []UnionInterpretation
	Note            string
}

func (*UnionValue) valueTag() string { return "union" }

// SizeDiscUnionValue is the single variant that matched the exact byte window.
type SizeDiscUnionValue struct {
	ChosenVariant string
	ExpectedSize  int
	Inner         *Value
}

func (*SizeDiscUnionValue) valueTag() string { return "size_discriminated_union" }

// OpaqueValue preserves a union variant's decode failure as a human
// description. It keeps no raw bytes: the enclosing Value records only the
// offset the variant was attempted at, with zero Length and no RawBytes.
type OpaqueValue struct {
	Description string
}

func (*OpaqueValue) valueTag() string { return "opaque" }
