package abi

import "testing"

func TestConstSizeOfStructAndArray(t *testing.T) {
	const doc = `
Point:
  kind: struct
  packed: true
  fields:
    - name: x
      kind: {kind: primitive, prim: u32}
    - name: y
      kind: {kind: primitive, prim: u32}
Path:
  kind: array
  element: {kind: type_ref, name: Point}
  size: {kind: literal, value: "4"}
`
	reg := mustRegistry(t, doc)
	point, err := reg.Get("Point")
	if err != nil {
		t.Fatalf("get Point: %v", err)
	}
	sz, ok := reg.ConstSize(point)
	if !ok || sz != 8 {
		t.Fatalf("ConstSize(Point) = (%d, %v), want (8, true)", sz, ok)
	}
	path, err := reg.Get("Path")
	if err != nil {
		t.Fatalf("get Path: %v", err)
	}
	sz, ok = reg.ConstSize(path)
	if !ok || sz != 32 {
		t.Fatalf("ConstSize(Path) = (%d, %v), want (32, true)", sz, ok)
	}
}

func TestConstSizeNotConstantForFieldRefArray(t *testing.T) {
	const doc = `
Holder:
  kind: struct
  fields:
    - name: n
      kind: {kind: primitive, prim: u8}
    - name: data
      kind:
        kind: array
        element: {kind: primitive, prim: u8}
        size: {kind: field_ref, path: [n]}
`
	reg := mustRegistry(t, doc)
	holder, err := reg.Get("Holder")
	if err != nil {
		t.Fatalf("get Holder: %v", err)
	}
	if _, ok := reg.ConstSize(holder); ok {
		t.Fatalf("expected Holder to have no constant size")
	}
}

func TestConstSizeNotConstantForSizeDiscriminatedUnion(t *testing.T) {
	reg := mustRegistry(t, payloadDoc)
	payload, err := reg.Get("Payload")
	if err != nil {
		t.Fatalf("get Payload: %v", err)
	}
	if _, ok := reg.ConstSize(payload); ok {
		t.Fatalf("size-discriminated-union must never report a constant size")
	}
}

func TestAlignMatchesWidestMember(t *testing.T) {
	const doc = `
Mixed:
  kind: struct
  fields:
    - name: a
      kind: {kind: primitive, prim: u8}
    - name: b
      kind: {kind: primitive, prim: u64}
`
	reg := mustRegistry(t, doc)
	mixed, err := reg.Get("Mixed")
	if err != nil {
		t.Fatalf("get Mixed: %v", err)
	}
	if a := reg.Align(mixed); a != 8 {
		t.Fatalf("Align(Mixed) = %d, want 8", a)
	}
}

func TestAlignedAttributeOverridesComputedAlignment(t *testing.T) {
	const doc = `
Over:
  kind: struct
  aligned: 16
  fields:
    - name: a
      kind: {kind: primitive, prim: u8}
`
	reg := mustRegistry(t, doc)
	over, err := reg.Get("Over")
	if err != nil {
		t.Fatalf("get Over: %v", err)
	}
	if a := reg.Align(over); a != 16 {
		t.Fatalf("Align(Over) = %d, want 16", a)
	}
}
