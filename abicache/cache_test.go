package abicache

import (
	"path/filepath"
	"testing"
)

const sampleDoc = `
Point:
  kind: struct
  fields:
    - name: x
      kind: {kind: primitive, prim: i32}
    - name: y
      kind: {kind: primitive, prim: i32}
`

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abicache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetOrParseMissThenHit(t *testing.T) {
	c := openTestCache(t)

	reg1, err := c.GetOrParse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("GetOrParse (miss): %v", err)
	}
	if _, err := reg1.Get("Point"); err != nil {
		t.Fatalf("Get(Point) on first registry: %v", err)
	}

	reg2, err := c.GetOrParse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("GetOrParse (hit): %v", err)
	}
	if _, err := reg2.Get("Point"); err != nil {
		t.Fatalf("Get(Point) on cached registry: %v", err)
	}
}

func TestGetOrParseDecodesThroughCachedRegistry(t *testing.T) {
	c := openTestCache(t)

	if _, err := c.GetOrParse([]byte(sampleDoc)); err != nil {
		t.Fatalf("GetOrParse (prime cache): %v", err)
	}
	reg, err := c.GetOrParse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("GetOrParse (cached): %v", err)
	}

	buf := []byte{1, 0, 0, 0, 2, 0, 0, 0}
	v, err := reg.Decode("Point", buf)
	if err != nil {
		t.Fatalf("Decode via cached registry: %v", err)
	}
	if v == nil {
		t.Fatalf("Decode returned nil value")
	}
}

func TestGetOrParseRejectsInvalidDocument(t *testing.T) {
	c := openTestCache(t)
	if _, err := c.GetOrParse([]byte("Bad:\n  kind: struct\n  fields:\n    - name: f\n      kind: {kind: type_ref, name: Missing}\n")); err == nil {
		t.Fatalf("expected validation error for unknown type_ref")
	}
}

func TestGetOrParseDistinctDocumentsDoNotCollide(t *testing.T) {
	c := openTestCache(t)
	const other = `
Line:
  kind: struct
  fields:
    - name: len
      kind: {kind: primitive, prim: u8}
`
	if _, err := c.GetOrParse([]byte(sampleDoc)); err != nil {
		t.Fatalf("GetOrParse(sampleDoc): %v", err)
	}
	reg, err := c.GetOrParse([]byte(other))
	if err != nil {
		t.Fatalf("GetOrParse(other): %v", err)
	}
	if _, err := reg.Get("Line"); err != nil {
		t.Fatalf("Get(Line): %v", err)
	}
	if _, err := reg.Get("Point"); err == nil {
		t.Fatalf("expected Point to be absent from the other document's registry")
	}
}
