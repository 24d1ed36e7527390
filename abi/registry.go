package abi

// Registry is an ABI document after reference validation and cycle
// detection (spec §4.2). It is immutable after construction and safe to
// share across concurrent decodes (spec §5).
type Registry struct {
	doc            *Document
	constSizeCache map[string]constSizeEntry
	alignCache     map[string]int
}

type constSizeEntry struct {
	size int
	ok   bool
}

// NewRegistry validates doc (reference check, then cycle detection) and
// returns a ready-to-use Registry.
func NewRegistry(doc *Document) (*Registry, error) {
	if err := validateReferences(doc); err != nil {
		return nil, err
	}
	if err := detectCycles(doc); err != nil {
		return nil, err
	}
	r := &Registry{
		doc:            doc,
		constSizeCache: make(map[string]constSizeEntry),
		alignCache:     make(map[string]int),
	}
	// Fill the layout caches for every declared type now, so decodes only
	// read them.
	for _, name := range doc.Order {
		ref := TypeRefKind{Name: name}
		r.ConstSize(ref)
		r.Align(ref)
	}
	return r, nil
}

// Get looks up a named type's kind, failing with a *ValidationError when
// the type is missing.
func (r *Registry) Get(name string) (Kind, error) {
	k, ok := r.doc.Types[name]
	if !ok {
		return nil, validationerr("unknown type %q", name)
	}
	return k, nil
}

// validateReferences walks every declared type's kind and requires that
// every type_ref names a type present in the document.
func validateReferences(doc *Document) error {
	for _, name := range doc.Order {
		if err := validateKindRefs(doc, doc.Types[name], name); err != nil {
			return err
		}
	}
	return nil
}

func validateKindRefs(doc *Document, k Kind, context string) error {
	switch x := k.(type) {
	case PrimitiveKind:
		return nil
	case StructKind:
		for _, f := range x.Fields {
			if err := validateKindRefs(doc, f.Kind, context+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	case ArrayKind:
		return validateKindRefs(doc, x.Elem, context+"[]")
	case EnumKind:
		for _, v := range x.Variants {
			if err := validateKindRefs(doc, v.Kind, context+"."+v.Name); err != nil {
				return err
			}
		}
		return nil
	case UnionKind:
		for _, v := range x.Variants {
			if err := validateKindRefs(doc, v.Kind, context+"."+v.Name); err != nil {
				return err
			}
		}
		return nil
	case SizeDiscUnionKind:
		for _, v := range x.Variants {
			if err := validateKindRefs(doc, v.Kind, context+"."+v.Name); err != nil {
				return err
			}
		}
		return nil
	case TypeRefKind:
		if _, ok := doc.Types[x.Name]; !ok {
			return validationerr("%s: reference to unknown type %q", context, x.Name)
		}
		return nil
	default:
		return validationerr("%s: unrecognized type-kind %T", context, k)
	}
}

// detectCycles runs a white/gray/black DFS over the reference graph whose
// nodes are type names and whose edges are type_ref occurrences (spec
// §4.2). Only type_ref edges count for termination; struct/array/enum/
// union members are traversed to *find* nested type_refs but do not
// themselves become graph nodes.
func detectCycles(doc *Document) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(doc.Order))

	var dfs func(name string, path []string) error
	dfs = func(name string, path []string) error {
		color[name] = gray
		kind := doc.Types[name]
		for _, ref := range collectDirectRefs(kind) {
			switch color[ref] {
			case gray:
				full := append(append([]string{}, path...), ref)
				return validationerr("cycle detected: %s", joinPath(full))
			case white:
				next := append(append([]string{}, path...), ref)
				if err := dfs(ref, next); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}

	for _, name := range doc.Order {
		if color[name] == white {
			if err := dfs(name, []string{name}); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}

// collectDirectRefs returns the type_ref names reachable from kind without
// crossing another type_ref boundary (those become separate graph nodes,
// visited in their own DFS step).
func collectDirectRefs(kind Kind) []string {
	var refs []string
	var walk func(k Kind)
	walk = func(k Kind) {
		switch x := k.(type) {
		case PrimitiveKind:
		case StructKind:
			for _, f := range x.Fields {
				walk(f.Kind)
			}
		case ArrayKind:
			walk(x.Elem)
		case EnumKind:
			for _, v := range x.Variants {
				walk(v.Kind)
			}
		case UnionKind:
			for _, v := range x.Variants {
				walk(v.Kind)
			}
		case SizeDiscUnionKind:
			for _, v := range x.Variants {
				walk(v.Kind)
			}
		case TypeRefKind:
			refs = append(refs, x.Name)
		}
	}
	walk(kind)
	return refs
}
