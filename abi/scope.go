package abi

import (
	"fmt"
	"math/big"
)

// Scope is a per-struct mapping of already-decoded sibling fields, chained
// to the enclosing struct's scope. A new Scope is created whenever a
// struct begins decoding (spec §3 "Scope") and lives exactly as long as
// that struct's decode frame.
type Scope struct {
	Fields map[string]*Value
	Parent *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{Fields: make(map[string]*Value), Parent: parent}
}

func (s *Scope) bind(name string, v *Value) {
	s.Fields[name] = v
}

// resolveFieldRef implements spec §4.1's retry-on-miss field-ref
// resolution: ".." climbs to the parent scope; a first segment present in
// the current scope is walked through struct fields; otherwise the whole
// path is retried against the parent scope.
func resolveFieldRef(scope *Scope, path []string) (*big.Int, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	if scope == nil {
		return nil, fmt.Errorf("unbound field reference %v", path)
	}
	first := path[0]
	if first == ".." {
		return resolveFieldRef(scope.Parent, path[1:])
	}
	if v, ok := scope.Fields[first]; ok {
		return walkValue(v, path[1:])
	}
	return resolveFieldRef(scope.Parent, path)
}

// walkValue walks the remaining path segments through struct fields of v,
// requiring the terminal value to be a primitive, widened to *big.Int.
func walkValue(v *Value, segments []string) (*big.Int, error) {
	for _, seg := range segments {
		sv, ok := v.Kind.(*StructValue)
		if !ok {
			return nil, fmt.Errorf("field %q: not a struct", seg)
		}
		next, ok := sv.ByName[seg]
		if !ok {
			return nil, fmt.Errorf("field %q: not found", seg)
		}
		v = next
	}
	pv, ok := v.Kind.(*PrimitiveValue)
	if !ok {
		return nil, fmt.Errorf("terminal value is not a primitive")
	}
	if pv.Numeric == nil {
		truncated, _ := big.NewFloat(pv.Float).Int(nil)
		return truncated, nil
	}
	return new(big.Int).Set(pv.Numeric), nil
}
