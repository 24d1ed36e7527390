// Command thru-decode-fixtures generates JSON conformance fixtures for the
// abi decoding scenarios: for each scenario it writes the ABI document
// source, the input buffer (hex), and either the decoded value tree or the
// error category raised while decoding it. The package tests do not read
// these files; they carry their own inline documents and buffers.
//
// This is a fixture generator, not a decode CLI: thru-go ships no
// general-purpose "decode arbitrary bytes against an arbitrary schema" tool,
// by design (see the module's non-goals).
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thru-labs/thru-go/abi"
)

type scenarioFixture struct {
	Gate      string         `json:"gate"`
	ID        string         `json:"id"`
	Doc       string         `json:"doc_yaml"`
	TypeName  string         `json:"type_name"`
	BufferHex string         `json:"buffer_hex"`
	Decoded   map[string]any `json:"decoded,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
}

type scenario struct {
	id       string
	doc      string
	typeName string
	buf      []byte
}

const (
	docAllPrimitives = `
AllPrimitives:
  kind: struct
  packed: true
  fields:
    - name: u8
      kind: {kind: primitive, prim: u8}
    - name: u16
      kind: {kind: primitive, prim: u16}
    - name: u32
      kind: {kind: primitive, prim: u32}
    - name: u64
      kind: {kind: primitive, prim: u64}
    - name: i8
      kind: {kind: primitive, prim: i8}
    - name: i16
      kind: {kind: primitive, prim: i16}
    - name: i32
      kind: {kind: primitive, prim: i32}
    - name: i64
      kind: {kind: primitive, prim: i64}
    - name: f32
      kind: {kind: primitive, prim: f32}
    - name: f64
      kind: {kind: primitive, prim: f64}
`

	docDualArrays = `
DualArrays:
  kind: struct
  packed: true
  fields:
    - name: len1
      kind: {kind: primitive, prim: u8}
    - name: arr1
      kind: {kind: array, element: {kind: primitive, prim: u8}, size: {kind: field_ref, path: [len1]}}
    - name: len2
      kind: {kind: primitive, prim: u8}
    - name: arr2
      kind: {kind: array, element: {kind: primitive, prim: u16}, size: {kind: field_ref, path: [len2]}}
`

	docMatrix = `
Matrix:
  kind: struct
  packed: true
  fields:
    - name: rows
      kind: {kind: primitive, prim: u8}
    - name: cols
      kind: {kind: primitive, prim: u8}
    - name: data
      kind:
        kind: array
        element: {kind: primitive, prim: u8}
        size:
          kind: binary
          op: add
          left:
            kind: binary
            op: mul
            left: {kind: field_ref, path: [rows]}
            right: {kind: field_ref, path: [cols]}
          right: {kind: literal, value: "1"}
`

	docPayload = `
Payload:
  kind: size_discriminated_union
  variants:
    - name: Short
      expected_size: 4
      kind:
        kind: struct
        fields:
          - name: value
            kind: {kind: primitive, prim: u32}
    - name: Long
      expected_size: 8
      kind:
        kind: struct
        fields:
          - name: head
            kind: {kind: primitive, prim: u32}
          - name: tail
            kind: {kind: primitive, prim: u32}
`

	docLoop = `
Loop:
  kind: struct
  fields:
    - name: next
      kind: {kind: type_ref, name: Loop}
`

	docUnsupportedOp = `
PowArray:
  kind: struct
  packed: true
  fields:
    - name: n
      kind: {kind: primitive, prim: u8}
    - name: data
      kind:
        kind: array
        element: {kind: primitive, prim: u8}
        size:
          kind: binary
          op: pow
          left: {kind: field_ref, path: [n]}
          right: {kind: literal, value: "2"}
`
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func scenarios() []scenario {
	return []scenario{
		{
			id:       "primitive-struct",
			doc:      docAllPrimitives,
			typeName: "AllPrimitives",
			buf: mustHex(
				"2a" + // u8 = 42
					"e803" + // u16 = 1000
					"78563412" + // u32 = 0x12345678
					"f0debc9a78563412" + // u64 = 0x123456789abcdef0
					"d6" + // i8 = -42
					"2efb" + // i16 = -1234
					"c01dfeff" + // i32 = -123456
					"eb32a4f8ffffffff" + // i64 = -123456789
					"d00f4940" + // f32 ~= 3.14159
					"6957148b0abf0540", // f64 = 2.718281828459045
			),
		},
		{
			id:       "dual-arrays",
			doc:      docDualArrays,
			typeName: "DualArrays",
			buf:      mustHex("03112233024444" + "5555"),
		},
		{
			id:       "array-size-expr",
			doc:      docMatrix,
			typeName: "Matrix",
			buf:      mustHex("0203" + "010203040506ff"),
		},
		{
			id:       "size-disc-union-short",
			doc:      docPayload,
			typeName: "Payload",
			buf:      mustHex("04000000"),
		},
		{
			id:       "size-disc-union-long",
			doc:      docPayload,
			typeName: "Payload",
			buf:      mustHex("0100000002000000"),
		},
		{
			id:       "cycle-detection",
			doc:      docLoop,
			typeName: "Loop",
			buf:      mustHex("00000000"),
		},
		{
			id:       "unsupported-operator",
			doc:      docUnsupportedOp,
			typeName: "PowArray",
			buf:      mustHex("02" + "0102"),
		},
	}
}

func renderValue(v *abi.Value) map[string]any {
	if v == nil {
		return nil
	}
	out := map[string]any{
		"type_name": v.TypeName,
		"offset":    v.Offset,
		"length":    v.Length,
		"raw_hex":   v.RawHex(),
	}
	switch k := v.Kind.(type) {
	case *abi.PrimitiveValue:
		out["prim"] = string(k.Prim)
		if k.Numeric != nil {
			out["numeric"] = k.Numeric.String()
		} else {
			out["float"] = k.Float
		}
	case *abi.StructValue:
		fields := make(map[string]any, len(k.Names))
		for _, name := range k.Names {
			fields[name] = renderValue(k.ByName[name])
		}
		out["fields"] = fields
		out["field_order"] = k.Names
	case *abi.ArrayValue:
		elems := make([]any, len(k.Elements))
		for i, e := range k.Elements {
			elems[i] = renderValue(e)
		}
		out["elements"] = elems
	case *abi.EnumValue:
		out["tag_value"] = k.TagValue.String()
		out["variant_name"] = k.VariantName
		out["inner"] = renderValue(k.Inner)
	case *abi.UnionValue:
		interps := make([]any, len(k.Interpretations))
		for i, in := range k.Interpretations {
			interps[i] = map[string]any{
				"name":  in.Name,
				"value": renderValue(in.Value),
			}
		}
		out["interpretations"] = interps
		out["note"] = k.Note
	case *abi.SizeDiscUnionValue:
		out["chosen_variant"] = k.ChosenVariant
		out["expected_size"] = k.ExpectedSize
		out["inner"] = renderValue(k.Inner)
	case *abi.OpaqueValue:
		out["description"] = k.Description
	}
	return out
}

func errorKind(err error) string {
	switch err.(type) {
	case *abi.ParseError:
		return "parse-error"
	case *abi.ValidationError:
		return "validation-error"
	case *abi.DecodeError:
		return "decode-error"
	default:
		return "error"
	}
}

func buildFixture(s scenario) scenarioFixture {
	f := scenarioFixture{
		Gate:      "abi-scenarios",
		ID:        s.id,
		Doc:       s.doc,
		TypeName:  s.typeName,
		BufferHex: hex.EncodeToString(s.buf),
	}

	doc, err := abi.ParseDocument([]byte(s.doc))
	if err != nil {
		f.ErrorKind = errorKind(err)
		return f
	}
	reg, err := abi.NewRegistry(doc)
	if err != nil {
		f.ErrorKind = errorKind(err)
		return f
	}
	v, err := reg.Decode(s.typeName, s.buf)
	if err != nil {
		f.ErrorKind = errorKind(err)
		return f
	}
	f.Decoded = renderValue(v)
	return f
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "conformance/fixtures/abi", "directory to write scenario fixture JSON files into")
	flag.Parse()

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(2)
	}

	for _, s := range scenarios() {
		fixture := buildFixture(s)
		b, err := json.MarshalIndent(fixture, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal %s: %v\n", s.id, err)
			os.Exit(2)
		}
		path := filepath.Join(outDir, s.id+".json")
		if err := os.WriteFile(path, b, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	}
}
