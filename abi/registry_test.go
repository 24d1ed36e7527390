package abi

import "testing"

func TestParseDocumentRejectsDuplicateTypeName(t *testing.T) {
	const doc = `
Foo:
  kind: primitive
  prim: u8
Foo:
  kind: primitive
  prim: u16
`
	_, err := ParseDocument([]byte(doc))
	if err == nil {
		t.Fatalf("expected duplicate type name to be rejected")
	}
}

func TestNewRegistryRejectsUnknownReference(t *testing.T) {
	const doc = `
Holder:
  kind: struct
  fields:
    - name: x
      kind: {kind: type_ref, name: Missing}
`
	parsed, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := NewRegistry(parsed); err == nil {
		t.Fatalf("expected unknown reference to be rejected")
	}
}

func TestNewRegistryAllowsDiamondReferences(t *testing.T) {
	const doc = `
Leaf:
  kind: primitive
  prim: u8
Left:
  kind: struct
  fields:
    - name: v
      kind: {kind: type_ref, name: Leaf}
Right:
  kind: struct
  fields:
    - name: v
      kind: {kind: type_ref, name: Leaf}
Top:
  kind: struct
  fields:
    - name: l
      kind: {kind: type_ref, name: Left}
    - name: r
      kind: {kind: type_ref, name: Right}
`
	parsed, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := NewRegistry(parsed); err != nil {
		t.Fatalf("diamond reference shape should not be flagged as a cycle: %v", err)
	}
}

func TestRegistryGetUnknownType(t *testing.T) {
	reg := mustRegistry(t, "Foo:\n  kind: primitive\n  prim: u8\n")
	if _, err := reg.Get("Bar"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
