package abi

// ConstSize computes the packed constant byte size of kind, per spec §4.3.
// It returns (size, true) when constant, or (0, false) otherwise (e.g. a
// size-discriminated-union, or an array/struct depending on one). Lookups
// through type_ref are memoized by type name on the Registry.
func (r *Registry) ConstSize(kind Kind) (int, bool) {
	return r.constSize(kind, map[string]bool{})
}

func (r *Registry) constSize(kind Kind, visiting map[string]bool) (int, bool) {
	switch x := kind.(type) {
	case PrimitiveKind:
		return PrimByteLen(x.Prim)

	case ArrayKind:
		elemSize, ok := r.constSize(x.Elem, visiting)
		if !ok {
			return 0, false
		}
		n, ok := constEval(x.Size)
		if !ok || !n.IsInt64() || n.Sign() < 0 {
			return 0, false
		}
		return elemSize * int(n.Int64()), true

	case StructKind:
		total := 0
		for _, f := range x.Fields {
			sz, ok := r.constSize(f.Kind, visiting)
			if !ok {
				return 0, false
			}
			total += sz
		}
		return total, true

	case EnumKind:
		if len(x.Variants) == 0 {
			return 0, false
		}
		first, ok := r.constSize(x.Variants[0].Kind, visiting)
		if !ok {
			return 0, false
		}
		for _, v := range x.Variants[1:] {
			sz, ok := r.constSize(v.Kind, visiting)
			if !ok || sz != first {
				return 0, false
			}
		}
		return first, true

	case UnionKind:
		max := 0
		for _, v := range x.Variants {
			sz, ok := r.constSize(v.Kind, visiting)
			if !ok {
				return 0, false
			}
			if sz > max {
				max = sz
			}
		}
		return max, true

	case SizeDiscUnionKind:
		// Intentionally not constant: the discriminator is runtime (spec §4.3).
		return 0, false

	case TypeRefKind:
		if visiting[x.Name] {
			return 0, false
		}
		if cached, ok := r.constSizeCache[x.Name]; ok {
			return cached.size, cached.ok
		}
		target, err := r.Get(x.Name)
		if err != nil {
			return 0, false
		}
		visiting[x.Name] = true
		size, ok := r.constSize(target, visiting)
		delete(visiting, x.Name)
		r.constSizeCache[x.Name] = constSizeEntry{size: size, ok: ok}
		return size, ok

	default:
		return 0, false
	}
}

// Align computes the alignment of kind, always >= 1, per spec §4.3.
func (r *Registry) Align(kind Kind) int {
	return r.align(kind, map[string]bool{})
}

func (r *Registry) align(kind Kind, visiting map[string]bool) int {
	switch x := kind.(type) {
	case PrimitiveKind:
		n, ok := PrimByteLen(x.Prim)
		if !ok {
			return 1
		}
		return n

	case ArrayKind:
		return r.align(x.Elem, visiting)

	case StructKind:
		if x.Attrs.Aligned > 0 {
			return x.Attrs.Aligned
		}
		return maxAlignOf(r, x.Fields, visiting)

	case EnumKind:
		if x.Attrs.Aligned > 0 {
			return x.Attrs.Aligned
		}
		if len(x.Variants) == 0 {
			return 1
		}
		max := 1
		for _, v := range x.Variants {
			if a := r.align(v.Kind, visiting); a > max {
				max = a
			}
		}
		return max

	case UnionKind:
		if x.Attrs.Aligned > 0 {
			return x.Attrs.Aligned
		}
		max := 1
		for _, v := range x.Variants {
			if a := r.align(v.Kind, visiting); a > max {
				max = a
			}
		}
		return max

	case SizeDiscUnionKind:
		if x.Attrs.Aligned > 0 {
			return x.Attrs.Aligned
		}
		max := 1
		for _, v := range x.Variants {
			if a := r.align(v.Kind, visiting); a > max {
				max = a
			}
		}
		return max

	case TypeRefKind:
		if visiting[x.Name] {
			return 1
		}
		if cached, ok := r.alignCache[x.Name]; ok {
			return cached
		}
		target, err := r.Get(x.Name)
		if err != nil {
			return 1
		}
		visiting[x.Name] = true
		a := r.align(target, visiting)
		delete(visiting, x.Name)
		r.alignCache[x.Name] = a
		return a

	default:
		return 1
	}
}

func maxAlignOf(r *Registry, fields []StructField, visiting map[string]bool) int {
	max := 1
	for _, f := range fields {
		if a := r.align(f.Kind, visiting); a > max {
			max = a
		}
	}
	return max
}

// alignUp rounds offset up to the next multiple of align (align >= 1).
func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}
