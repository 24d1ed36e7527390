package abi

import (
	"math/big"
	"testing"
)

func primitiveValue(n int64) *Value {
	return &Value{Kind: &PrimitiveValue{Prim: PrimU32, Numeric: big.NewInt(n)}}
}

func TestEvalExprLiteralAndBinary(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	e := BinaryExpr{
		Op:   "add",
		Left: LiteralExpr{Value: big.NewInt(2)},
		Right: BinaryExpr{
			Op:    "mul",
			Left:  LiteralExpr{Value: big.NewInt(3)},
			Right: LiteralExpr{Value: big.NewInt(4)},
		},
	}
	v, err := evalExpr(e, nil, reg, "test")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Int64() != 14 {
		t.Fatalf("result = %s, want 14", v.String())
	}
}

func TestEvalExprFieldRefWalksParentScope(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	parent := newScope(nil)
	parent.bind("n", primitiveValue(7))
	child := newScope(parent)

	v, err := evalExpr(FieldRefExpr{Path: []string{"..", "n"}}, child, reg, "test")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Int64() != 7 {
		t.Fatalf("result = %s, want 7", v.String())
	}
}

func TestEvalExprFieldRefRetriesParentOnMiss(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	parent := newScope(nil)
	parent.bind("n", primitiveValue(9))
	child := newScope(parent)

	// "n" is not bound in child; resolution retries against the parent
	// without an explicit ".." segment.
	v, err := evalExpr(FieldRefExpr{Path: []string{"n"}}, child, reg, "test")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Int64() != 9 {
		t.Fatalf("result = %s, want 9", v.String())
	}
}

func TestEvalExprDivisionByZero(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	e := BinaryExpr{Op: "div", Left: LiteralExpr{Value: big.NewInt(1)}, Right: LiteralExpr{Value: big.NewInt(0)}}
	if _, err := evalExpr(e, nil, reg, "test"); err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}

func TestEvalExprShiftAmountBound(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	e := BinaryExpr{
		Op:    "left-shift",
		Left:  LiteralExpr{Value: big.NewInt(1)},
		Right: LiteralExpr{Value: big.NewInt(maxShiftAmount + 1)},
	}
	if _, err := evalExpr(e, nil, reg, "test"); err == nil {
		t.Fatalf("expected shift amount to be rejected")
	}
}

func TestEvalExprSizeofAndAlignof(t *testing.T) {
	const doc = `
Point:
  kind: struct
  packed: true
  fields:
    - name: x
      kind: {kind: primitive, prim: u32}
    - name: y
      kind: {kind: primitive, prim: u32}
`
	reg := mustRegistry(t, doc)
	sz, err := evalExpr(SizeofExpr{TypeName: "Point"}, nil, reg, "test")
	if err != nil {
		t.Fatalf("sizeof: %v", err)
	}
	if sz.Int64() != 8 {
		t.Fatalf("sizeof(Point) = %s, want 8", sz.String())
	}
	al, err := evalExpr(AlignofExpr{TypeName: "Point"}, nil, reg, "test")
	if err != nil {
		t.Fatalf("alignof: %v", err)
	}
	if al.Int64() != 4 {
		t.Fatalf("alignof(Point) = %s, want 4", al.String())
	}
}

func TestConstEvalRejectsFieldRef(t *testing.T) {
	e := BinaryExpr{Op: "add", Left: LiteralExpr{Value: big.NewInt(1)}, Right: FieldRefExpr{Path: []string{"n"}}}
	if _, ok := constEval(e); ok {
		t.Fatalf("constEval must reject expressions referencing fields")
	}
}
