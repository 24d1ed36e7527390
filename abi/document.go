package abi

import (
	"math/big"

	"gopkg.in/yaml.v3"
)

// PrimKind enumerates the fixed-width primitive types of spec §3.
type PrimKind string

const (
	PrimU8  PrimKind = "u8"
	PrimI8  PrimKind = "i8"
	PrimU16 PrimKind = "u16"
	PrimI16 PrimKind = "i16"
	PrimU32 PrimKind = "u32"
	PrimI32 PrimKind = "i32"
	PrimU64 PrimKind = "u64"
	PrimI64 PrimKind = "i64"
	PrimF16 PrimKind = "f16"
	PrimF32 PrimKind = "f32"
	PrimF64 PrimKind = "f64"
)

// PrimByteLen returns the fixed byte length of a primitive kind, or 0 and
// false for an unrecognized primitive name.
func PrimByteLen(p PrimKind) (int, bool) {
	switch p {
	case PrimU8, PrimI8:
		return 1, true
	case PrimU16, PrimI16, PrimF16:
		return 2, true
	case PrimU32, PrimI32, PrimF32:
		return 4, true
	case PrimU64, PrimI64, PrimF64:
		return 8, true
	default:
		return 0, false
	}
}

// Attrs carries the shared "packed"/"aligned" attributes spec §3 allows on
// struct, enum, union, and size-discriminated-union kinds.
type Attrs struct {
	Packed  bool
	Aligned int
}

// Kind is the tagged sum of type-kinds from spec §3: primitive, struct,
// array, enum, union, size-discriminated-union, and type-ref.
type Kind interface {
	kindTag() string
}

// PrimitiveKind is a fixed-width scalar.
type PrimitiveKind struct {
	Prim PrimKind
}

func (PrimitiveKind) kindTag() string { return "primitive" }

// StructField is one (name, kind) pair in declaration order.
type StructField struct {
	Name string
	Kind Kind
}

// StructKind is an ordered sequence of named fields.
type StructKind struct {
	Fields []StructField
	Attrs  Attrs
}

func (StructKind) kindTag() string { return "struct" }

// ArrayKind is a fixed-element-type, expression-sized sequence.
type ArrayKind struct {
	Elem Kind
	Size Expr
}

func (ArrayKind) kindTag() string { return "array" }

// EnumVariant is one (name, tag-value, kind) triple.
type EnumVariant struct {
	Name     string
	TagValue *big.Int
	Kind     Kind
}

// EnumKind dispatches on a runtime tag expression to one of its variants.
type EnumKind struct {
	Tag      Expr
	Variants []EnumVariant
	Attrs    Attrs
}

func (EnumKind) kindTag() string { return "enum" }

// UnionVariant is one (name, kind) pair; plain unions carry no discriminator.
type UnionVariant struct {
	Name string
	Kind Kind
}

// UnionKind is a set of variants speculatively attempted at the same offset.
type UnionKind struct {
	Variants []UnionVariant
	Attrs    Attrs
}

func (UnionKind) kindTag() string { return "union" }

// SizeDiscVariant is one (name, expected-size, kind) triple.
type SizeDiscVariant struct {
	Name         string
	ExpectedSize int
	Kind         Kind
}

// SizeDiscUnionKind is a set of variants disambiguated by exact byte size.
type SizeDiscUnionKind struct {
	Variants []SizeDiscVariant
	Attrs    Attrs
}

func (SizeDiscUnionKind) kindTag() string { return "size_discriminated_union" }

// TypeRefKind is an indirection to a named type in the same document.
type TypeRefKind struct {
	Name string
}

func (TypeRefKind) kindTag() string { return "type_ref" }

// Document is a parsed ABI document: a mapping from unique type-name to
// its type-kind, in declaration order (order is preserved for
// deterministic cycle-detection diagnostics).
type Document struct {
	Order []string
	Types map[string]Kind
}

// ParseDocument parses an ABI document from its YAML source. Parse
// failures (malformed YAML, an unknown "kind" discriminator, a malformed
// expression node) are reported as *ParseError.
func ParseDocument(yamlSource []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(yamlSource, &root); err != nil {
		return nil, parseerr("invalid yaml: %v", err)
	}
	if len(root.Content) == 0 {
		return &Document{Types: map[string]Kind{}}, nil
	}
	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return nil, parseerr("document must be a mapping of type-name to type-definition")
	}

	doc := &Document{Types: make(map[string]Kind, len(docNode.Content)/2)}
	for i := 0; i+1 < len(docNode.Content); i += 2 {
		nameNode := docNode.Content[i]
		defNode := docNode.Content[i+1]
		name := nameNode.Value
		if name == "" {
			return nil, parseerr("type name must be a non-empty string")
		}
		if _, exists := doc.Types[name]; exists {
			return nil, parseerr("duplicate type name %q", name)
		}
		kind, err := decodeKindNode(defNode)
		if err != nil {
			return nil, parseerr("type %q: %v", name, err)
		}
		doc.Types[name] = kind
		doc.Order = append(doc.Order, name)
	}
	return doc, nil
}

func findChild(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func decodeAttrs(node *yaml.Node) (Attrs, error) {
	attrs := Attrs{}
	if n := findChild(node, "packed"); n != nil {
		if err := n.Decode(&attrs.Packed); err != nil {
			return attrs, err
		}
	}
	if n := findChild(node, "aligned"); n != nil {
		if err := n.Decode(&attrs.Aligned); err != nil {
			return attrs, err
		}
	}
	return attrs, nil
}

func decodeKindNode(node *yaml.Node) (Kind, error) {
	if node == nil {
		return nil, parseerr("missing type-kind")
	}
	tagNode := findChild(node, "kind")
	if tagNode == nil {
		return nil, parseerr("type-kind missing \"kind\" discriminator")
	}
	switch tagNode.Value {
	case "primitive":
		var prim string
		if n := findChild(node, "prim"); n != nil {
			if err := n.Decode(&prim); err != nil {
				return nil, err
			}
		}
		return PrimitiveKind{Prim: PrimKind(prim)}, nil

	case "struct":
		attrs, err := decodeAttrs(node)
		if err != nil {
			return nil, err
		}
		fieldsNode := findChild(node, "fields")
		var fields []StructField
		if fieldsNode != nil {
			for _, fn := range fieldsNode.Content {
				var name string
				if n := findChild(fn, "name"); n != nil {
					if err := n.Decode(&name); err != nil {
						return nil, err
					}
				}
				kn := findChild(fn, "kind")
				k, err := decodeKindNode(kn)
				if err != nil {
					return nil, err
				}
				fields = append(fields, StructField{Name: name, Kind: k})
			}
		}
		return StructKind{Fields: fields, Attrs: attrs}, nil

	case "array":
		elemNode := findChild(node, "element")
		elem, err := decodeKindNode(elemNode)
		if err != nil {
			return nil, err
		}
		sizeNode := findChild(node, "size")
		size, err := decodeExprNode(sizeNode)
		if err != nil {
			return nil, err
		}
		return ArrayKind{Elem: elem, Size: size}, nil

	case "enum":
		attrs, err := decodeAttrs(node)
		if err != nil {
			return nil, err
		}
		tag, err := decodeExprNode(findChild(node, "tag"))
		if err != nil {
			return nil, err
		}
		variantsNode := findChild(node, "variants")
		var variants []EnumVariant
		if variantsNode != nil {
			for _, vn := range variantsNode.Content {
				var name string
				if n := findChild(vn, "name"); n != nil {
					if err := n.Decode(&name); err != nil {
						return nil, err
					}
				}
				var tagValueStr string
				if n := findChild(vn, "tag_value"); n != nil {
					if err := n.Decode(&tagValueStr); err != nil {
						return nil, err
					}
				}
				tagValue, ok := new(big.Int).SetString(tagValueStr, 0)
				if !ok {
					return nil, parseerr("enum variant %q: invalid tag_value %q", name, tagValueStr)
				}
				k, err := decodeKindNode(findChild(vn, "kind"))
				if err != nil {
					return nil, err
				}
				variants = append(variants, EnumVariant{Name: name, TagValue: tagValue, Kind: k})
			}
		}
		return EnumKind{Tag: tag, Variants: variants, Attrs: attrs}, nil

	case "union":
		attrs, err := decodeAttrs(node)
		if err != nil {
			return nil, err
		}
		variantsNode := findChild(node, "variants")
		var variants []UnionVariant
		if variantsNode != nil {
			for _, vn := range variantsNode.Content {
				var name string
				if n := findChild(vn, "name"); n != nil {
					if err := n.Decode(&name); err != nil {
						return nil, err
					}
				}
				k, err := decodeKindNode(findChild(vn, "kind"))
				if err != nil {
					return nil, err
				}
				variants = append(variants, UnionVariant{Name: name, Kind: k})
			}
		}
		return UnionKind{Variants: variants, Attrs: attrs}, nil

	case "size_discriminated_union":
		attrs, err := decodeAttrs(node)
		if err != nil {
			return nil, err
		}
		variantsNode := findChild(node, "variants")
		var variants []SizeDiscVariant
		if variantsNode != nil {
			for _, vn := range variantsNode.Content {
				var name string
				if n := findChild(vn, "name"); n != nil {
					if err := n.Decode(&name); err != nil {
						return nil, err
					}
				}
				var expectedSize int
				if n := findChild(vn, "expected_size"); n != nil {
					if err := n.Decode(&expectedSize); err != nil {
						return nil, err
					}
				}
				k, err := decodeKindNode(findChild(vn, "kind"))
				if err != nil {
					return nil, err
				}
				variants = append(variants, SizeDiscVariant{Name: name, ExpectedSize: expectedSize, Kind: k})
			}
		}
		return SizeDiscUnionKind{Variants: variants, Attrs: attrs}, nil

	case "type_ref":
		var name string
		if n := findChild(node, "name"); n != nil {
			if err := n.Decode(&name); err != nil {
				return nil, err
			}
		}
		return TypeRefKind{Name: name}, nil

	default:
		return nil, parseerr("unknown type-kind discriminator %q", tagNode.Value)
	}
}
