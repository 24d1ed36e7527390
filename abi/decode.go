package abi

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// maxArrayLength bounds a decoded array's element count. Spec §9 leaves the
// exact bound to the implementation ("large array lengths fail" without
// naming one); this guards against a hostile or malformed size expression
// forcing an unbounded element slice before the per-element insufficient-
// data check would otherwise catch it.
const maxArrayLength = 1 << 24

// decoder walks a single buffer left to right, maintaining the current
// offset, an exact upper bound (limit, narrower than len(buf) inside a
// size-discriminated-union variant's window), and the live scope chain.
type decoder struct {
	reg   *Registry
	buf   []byte
	limit int
	off   int
	scope *Scope
}

// decoderSnapshot captures everything a speculative decode attempt (union,
// size-discriminated-union variant) must roll back on failure or rejection.
type decoderSnapshot struct {
	off   int
	scope *Scope
}

func (d *decoder) snapshot() decoderSnapshot {
	return decoderSnapshot{off: d.off, scope: d.scope}
}

func (d *decoder) restore(s decoderSnapshot) {
	d.off = s.off
	d.scope = s.scope
}

// Decode parses buf as an instance of the named type. It requires the
// entire buffer to be consumed (spec §4.4 "Top-level decode").
func (r *Registry) Decode(typeName string, buf []byte) (*Value, error) {
	kind, err := r.Get(typeName)
	if err != nil {
		return nil, err
	}
	d := &decoder{reg: r, buf: buf, limit: len(buf)}
	v, err := d.decodeKind(kind, nil, "Root")
	if err != nil {
		return nil, err
	}
	if v.TypeName == "" {
		v.TypeName = typeName
	}
	if d.off != d.limit {
		return nil, decodeerrd("Root", ERR_TRAILING_BYTES,
			TrailingBytesDetails{Expected: d.limit, Consumed: d.off, Remaining: d.limit - d.off},
			"did not consume full buffer: %d bytes remain", d.limit-d.off)
	}
	return v, nil
}

// decodeKind dispatches on kind's dynamic type. budget, when non-nil, is
// the byte count the enclosing struct field computed as available to this
// node (spec §4.4); only size-discriminated-union and nested struct kinds
// consult it. Every other kind is bounded solely by d.limit.
func (d *decoder) decodeKind(kind Kind, budget *int, path string) (*Value, error) {
	switch x := kind.(type) {
	case PrimitiveKind:
		return d.decodePrimitive(x, path)
	case TypeRefKind:
		target, err := d.reg.Get(x.Name)
		if err != nil {
			return nil, err
		}
		v, err := d.decodeKind(target, budget, path)
		if err != nil {
			return nil, err
		}
		v.TypeName = x.Name
		return v, nil
	case StructKind:
		return d.decodeStruct(x, budget, path)
	case ArrayKind:
		return d.decodeArray(x, path)
	case EnumKind:
		return d.decodeEnum(x, path)
	case UnionKind:
		return d.decodeUnion(x, path)
	case SizeDiscUnionKind:
		return d.decodeSizeDiscUnion(x, budget, path)
	default:
		return nil, decodeerr(path, ERR_VALIDATION, "unrecognized type-kind %T", kind)
	}
}

func (d *decoder) decodePrimitive(pk PrimitiveKind, path string) (*Value, error) {
	n, ok := PrimByteLen(pk.Prim)
	if !ok {
		return nil, decodeerr(path, ERR_UNSUPPORTED_PRIM, "unsupported primitive %q", pk.Prim)
	}
	if d.limit-d.off < n {
		return nil, decodeerrd(path, ERR_INSUFFICIENT,
			InsufficientDataDetails{Requested: n, Remaining: d.limit - d.off},
			"insufficient data for %s: need %d bytes, have %d", pk.Prim, n, d.limit-d.off)
	}
	start := d.off
	raw := d.buf[start : start+n]
	pv := widenPrimitive(pk.Prim, raw)
	d.off += n
	return &Value{
		Offset:   start,
		Length:   n,
		RawBytes: append([]byte(nil), raw...),
		Kind:     pv,
	}, nil
}

// widenPrimitive reads raw (little-endian) and produces the numeric
// representation described in spec §9: integer kinds and f16 widen to
// *big.Int (u64 via SetUint64 so values above math.MaxInt64 survive
// intact); f32/f64 are converted to a native float and carry no Numeric.
func widenPrimitive(p PrimKind, raw []byte) *PrimitiveValue {
	switch p {
	case PrimU8:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(raw[0]))}
	case PrimI8:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(int8(raw[0])))}
	case PrimU16:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(binary.LittleEndian.Uint16(raw)))}
	case PrimI16:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(int16(binary.LittleEndian.Uint16(raw))))}
	case PrimU32:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(binary.LittleEndian.Uint32(raw)))}
	case PrimI32:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(int32(binary.LittleEndian.Uint32(raw))))}
	case PrimU64:
		return &PrimitiveValue{Prim: p, Numeric: new(big.Int).SetUint64(binary.LittleEndian.Uint64(raw))}
	case PrimI64:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(binary.LittleEndian.Uint64(raw)))}
	case PrimF16:
		return &PrimitiveValue{Prim: p, Numeric: big.NewInt(int64(binary.LittleEndian.Uint16(raw)))}
	case PrimF32:
		bits := binary.LittleEndian.Uint32(raw)
		return &PrimitiveValue{Prim: p, Float: float64(math.Float32frombits(bits))}
	case PrimF64:
		bits := binary.LittleEndian.Uint64(raw)
		return &PrimitiveValue{Prim: p, Float: math.Float64frombits(bits)}
	default:
		return &PrimitiveValue{Prim: p}
	}
}

func (d *decoder) decodeStruct(sk StructKind, budget *int, path string) (*Value, error) {
	start := d.off
	prevScope := d.scope
	sc := newScope(prevScope)
	d.scope = sc
	defer func() { d.scope = prevScope }()

	n := len(sk.Fields)
	trailing := make([]*int, n)
	if n > 0 {
		zero := 0
		trailing[n-1] = &zero
		for i := n - 2; i >= 0; i-- {
			if trailing[i+1] == nil {
				continue
			}
			sz, ok := d.reg.ConstSize(sk.Fields[i+1].Kind)
			if !ok {
				continue
			}
			v := sz + *trailing[i+1]
			trailing[i] = &v
		}
	}

	names := make([]string, 0, n)
	byName := make(map[string]*Value, n)

	for i, field := range sk.Fields {
		fieldPath := path + "." + field.Name
		if !sk.Attrs.Packed {
			a := d.reg.Align(field.Kind)
			aligned := alignUp(d.off, a)
			if aligned > d.limit {
				return nil, decodeerrd(fieldPath, ERR_INSUFFICIENT,
					InsufficientDataDetails{Requested: aligned - d.off, Remaining: d.limit - d.off},
					"alignment padding exceeds available bytes")
			}
			d.off = aligned
		}

		consumed := d.off - start
		var available int
		if budget != nil {
			available = *budget - consumed
		} else {
			available = d.limit - d.off
		}

		var fieldBudget *int
		if trailing[i] != nil {
			fb := available - *trailing[i]
			if fb < 0 {
				fb = 0
			}
			fieldBudget = &fb
		}

		fv, err := d.decodeKind(field.Kind, fieldBudget, fieldPath)
		if err != nil {
			return nil, err
		}
		sc.bind(field.Name, fv)
		names = append(names, field.Name)
		byName[field.Name] = fv
	}

	return &Value{
		Offset:   start,
		Length:   d.off - start,
		RawBytes: append([]byte(nil), d.buf[start:d.off]...),
		Kind:     &StructValue{Names: names, ByName: byName},
	}, nil
}

func (d *decoder) decodeArray(ak ArrayKind, path string) (*Value, error) {
	n, err := evalExpr(ak.Size, d.scope, d.reg, path+".size")
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() > maxArrayLength {
		return nil, decodeerr(path, ERR_ARRAY_LENGTH, "array length out of range: %s", n.String())
	}
	length := int(n.Int64())

	start := d.off
	elements := make([]*Value, 0, length)
	for i := 0; i < length; i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		// Elements receive no budget (spec §4.4): only d.limit bounds them.
		ev, err := d.decodeKind(ak.Elem, nil, elemPath)
		if err != nil {
			return nil, err
		}
		elements = append(elements, ev)
	}

	return &Value{
		Offset:   start,
		Length:   d.off - start,
		RawBytes: append([]byte(nil), d.buf[start:d.off]...),
		Kind:     &ArrayValue{Elements: elements},
	}, nil
}

func (d *decoder) decodeEnum(ek EnumKind, path string) (*Value, error) {
	tagVal, err := evalExpr(ek.Tag, d.scope, d.reg, path+".tag")
	if err != nil {
		return nil, err
	}
	var variant *EnumVariant
	for i := range ek.Variants {
		if ek.Variants[i].TagValue.Cmp(tagVal) == 0 {
			variant = &ek.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, decodeerr(path, ERR_EXPRESSION, "no enum variant with tag %s", tagVal.String())
	}

	start := d.off
	inner, err := d.decodeKind(variant.Kind, nil, path+"."+variant.Name)
	if err != nil {
		return nil, err
	}
	return &Value{
		Offset:   start,
		Length:   d.off - start,
		RawBytes: append([]byte(nil), d.buf[start:d.off]...),
		Kind:     &EnumValue{TagValue: tagVal, VariantName: variant.Name, Inner: inner},
	}, nil
}

// decodeUnion speculatively decodes every variant at the same starting
// offset, always rolling back afterward, then advances past the longest
// variant's byte span. It never picks a winner (spec §4.4, §9): the caller
// receives every interpretation and disambiguates out of band.
func (d *decoder) decodeUnion(uk UnionKind, path string) (*Value, error) {
	start := d.off
	snap := d.snapshot()
	maxSize := 0
	interps := make([]UnionInterpretation, 0, len(uk.Variants))

	for _, v := range uk.Variants {
		val, err := d.decodeKind(v.Kind, nil, path+"."+v.Name)
		if err != nil {
			interps = append(interps, UnionInterpretation{
				Name:  v.Name,
				Value: &Value{Offset: snap.off, Kind: &OpaqueValue{Description: err.Error()}},
			})
			d.restore(snap)
			continue
		}
		if size := val.Length; size > maxSize {
			maxSize = size
		}
		interps = append(interps, UnionInterpretation{Name: v.Name, Value: val})
		d.restore(snap)
	}

	d.off = start + maxSize
	return &Value{
		Offset:   start,
		Length:   maxSize,
		RawBytes: append([]byte(nil), d.buf[start:start+maxSize]...),
		Kind: &UnionValue{
			Interpretations: interps,
			Note:            "ambiguous: every variant interpretation is provided; the decoder does not disambiguate a plain union",
		},
	}, nil
}

type sizeDiscMatch struct {
	variant *SizeDiscVariant
	val     *Value
}

// decodeSizeDiscUnion attempts each variant in an exact expected_size byte
// window, keeping only variants that both decode without error and consume
// the window exactly. A single match commits; zero matches or an ambiguous
// multi-match (unresolvable even against budget, spec §9 "Union byte
// budget") fails.
func (d *decoder) decodeSizeDiscUnion(sk SizeDiscUnionKind, budget *int, path string) (*Value, error) {
	start := d.off
	var matches []sizeDiscMatch
	var attempts []UnionAttempt

	for i := range sk.Variants {
		v := &sk.Variants[i]
		if budget != nil && v.ExpectedSize > *budget {
			attempts = append(attempts, UnionAttempt{Variant: v.Name, Err: "expected_size exceeds byte budget"})
			continue
		}
		if d.off+v.ExpectedSize > d.limit {
			attempts = append(attempts, UnionAttempt{Variant: v.Name, Err: "insufficient data for expected_size window"})
			continue
		}

		snap := d.snapshot()
		savedLimit := d.limit
		d.limit = d.off + v.ExpectedSize
		val, err := d.decodeKind(v.Kind, nil, path+"."+v.Name)
		d.limit = savedLimit
		if err != nil {
			attempts = append(attempts, UnionAttempt{Variant: v.Name, Err: err.Error()})
			d.restore(snap)
			continue
		}
		consumed := d.off - snap.off
		d.restore(snap)
		if consumed != v.ExpectedSize {
			attempts = append(attempts, UnionAttempt{
				Variant: v.Name,
				Err:     fmt.Sprintf("consumed %d bytes, expected %d", consumed, v.ExpectedSize),
			})
			continue
		}
		matches = append(matches, sizeDiscMatch{variant: v, val: val})
	}

	winner, err := chooseSizeDiscWinner(matches, budget)
	if err != nil {
		if _, ok := err.(*ambiguousErr); ok {
			names := make([]string, len(matches))
			for i, m := range matches {
				names[i] = m.variant.Name
			}
			return nil, decodeerrd(path, ERR_MULTI_UNION, MultipleUnionMatchDetails{Winners: names},
				"ambiguous size-discriminated-union: %d variants matched", len(matches))
		}
		return nil, decodeerrd(path, ERR_NO_UNION_MATCH, NoUnionMatchDetails{Attempts: attempts},
			"no size-discriminated-union variant matched")
	}

	d.off = start + winner.variant.ExpectedSize
	return &Value{
		Offset:   start,
		Length:   winner.variant.ExpectedSize,
		RawBytes: append([]byte(nil), d.buf[start:d.off]...),
		Kind: &SizeDiscUnionValue{
			ChosenVariant: winner.variant.Name,
			ExpectedSize:  winner.variant.ExpectedSize,
			Inner:         winner.val,
		},
	}, nil
}

type ambiguousErr struct{}

func (*ambiguousErr) Error() string { return "ambiguous" }

// chooseSizeDiscWinner picks the single matching variant. With more than
// one match it tries to resolve via budget: if exactly one match's
// expected_size equals budget precisely, that one wins; otherwise the
// ambiguity is unresolvable (spec §9's Open Question decision: a union
// byte budget is not passed through to plain unions, but size-
// discriminated-unions may still use it to break a tie when available).
func chooseSizeDiscWinner(matches []sizeDiscMatch, budget *int) (sizeDiscMatch, error) {
	switch len(matches) {
	case 0:
		return sizeDiscMatch{}, fmt.Errorf("no match")
	case 1:
		return matches[0], nil
	default:
		if budget == nil {
			return sizeDiscMatch{}, &ambiguousErr{}
		}
		var exact []sizeDiscMatch
		for _, m := range matches {
			if m.variant.ExpectedSize == *budget {
				exact = append(exact, m)
			}
		}
		if len(exact) == 1 {
			return exact[0], nil
		}
		return sizeDiscMatch{}, &ambiguousErr{}
	}
}
