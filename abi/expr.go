package abi

import (
	"math/big"

	"gopkg.in/yaml.v3"
)

// Expr is the tagged sum of expression forms from spec §3/§4.1: literal,
// field-ref, binary, unary, sizeof, alignof.
type Expr interface {
	exprTag() string
}

// LiteralExpr is a constant integer.
type LiteralExpr struct {
	Value *big.Int
}

func (LiteralExpr) exprTag() string { return "literal" }

// FieldRefExpr resolves along the scope chain; ".." path segments climb to
// the parent scope.
type FieldRefExpr struct {
	Path []string
}

func (FieldRefExpr) exprTag() string { return "field_ref" }

// BinaryExpr applies a binary operator to two sub-expressions.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprTag() string { return "binary" }

// UnaryExpr applies a unary operator (only bit-not is defined) to a sub-expression.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (UnaryExpr) exprTag() string { return "unary" }

// SizeofExpr delegates to the layout engine's constant-size computation.
type SizeofExpr struct {
	TypeName string
}

func (SizeofExpr) exprTag() string { return "sizeof" }

// AlignofExpr delegates to the layout engine's alignment computation.
type AlignofExpr struct {
	TypeName string
}

func (AlignofExpr) exprTag() string { return "alignof" }

// maxShiftAmount bounds left-shift/right-shift so a pathological expression
// (e.g. "1 << huge_field") cannot force an unbounded allocation. Spec §4.1
// leaves the exact bound to the implementation ("the reference uses
// unbounded arithmetic"). Shift amounts up to and including this value are
// accepted.
const maxShiftAmount = 1 << 20

func decodeExprNode(node *yaml.Node) (Expr, error) {
	if node == nil {
		return nil, parseerr("missing expression")
	}
	tagNode := findChild(node, "kind")
	if tagNode == nil {
		return nil, parseerr("expression missing \"kind\" discriminator")
	}
	switch tagNode.Value {
	case "literal":
		var s string
		if n := findChild(node, "value"); n != nil {
			if err := n.Decode(&s); err != nil {
				return nil, err
			}
		}
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, parseerr("literal expression: invalid integer %q", s)
		}
		return LiteralExpr{Value: v}, nil

	case "field_ref":
		pathNode := findChild(node, "path")
		var path []string
		if pathNode != nil {
			if err := pathNode.Decode(&path); err != nil {
				return nil, err
			}
		}
		if len(path) == 0 {
			return nil, parseerr("field_ref expression: empty path")
		}
		return FieldRefExpr{Path: path}, nil

	case "binary":
		var op string
		if n := findChild(node, "op"); n != nil {
			if err := n.Decode(&op); err != nil {
				return nil, err
			}
		}
		left, err := decodeExprNode(findChild(node, "left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExprNode(findChild(node, "right"))
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, Left: left, Right: right}, nil

	case "unary":
		var op string
		if n := findChild(node, "op"); n != nil {
			if err := n.Decode(&op); err != nil {
				return nil, err
			}
		}
		operand, err := decodeExprNode(findChild(node, "operand"))
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, Operand: operand}, nil

	case "sizeof":
		var typeName string
		if n := findChild(node, "type"); n != nil {
			if err := n.Decode(&typeName); err != nil {
				return nil, err
			}
		}
		return SizeofExpr{TypeName: typeName}, nil

	case "alignof":
		var typeName string
		if n := findChild(node, "type"); n != nil {
			if err := n.Decode(&typeName); err != nil {
				return nil, err
			}
		}
		return AlignofExpr{TypeName: typeName}, nil

	default:
		return nil, parseerr("unknown expression discriminator %q", tagNode.Value)
	}
}

// evalExpr evaluates e against scope, consulting reg for sizeof/alignof.
// path is the current decode context path, used only to annotate errors.
func evalExpr(e Expr, scope *Scope, reg *Registry, path string) (*big.Int, error) {
	switch x := e.(type) {
	case LiteralExpr:
		return new(big.Int).Set(x.Value), nil

	case FieldRefExpr:
		v, err := resolveFieldRef(scope, x.Path)
		if err != nil {
			return nil, decodeerr(path, ERR_EXPRESSION, "field-ref %v: %v", x.Path, err)
		}
		return v, nil

	case BinaryExpr:
		l, err := evalExpr(x.Left, scope, reg, path)
		if err != nil {
			return nil, err
		}
		r, err := evalExpr(x.Right, scope, reg, path)
		if err != nil {
			return nil, err
		}
		return evalBinary(x.Op, l, r, path)

	case UnaryExpr:
		v, err := evalExpr(x.Operand, scope, reg, path)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "bit-not":
			return new(big.Int).Not(v), nil
		default:
			return nil, decodeerr(path, ERR_EXPRESSION, "unsupported unary operator %q", x.Op)
		}

	case SizeofExpr:
		k, err := reg.Get(x.TypeName)
		if err != nil {
			return nil, err
		}
		size, ok := reg.ConstSize(k)
		if !ok {
			return nil, decodeerr(path, ERR_EXPRESSION, "sizeof(%s): type has no constant size", x.TypeName)
		}
		return big.NewInt(int64(size)), nil

	case AlignofExpr:
		k, err := reg.Get(x.TypeName)
		if err != nil {
			return nil, err
		}
		return big.NewInt(int64(reg.Align(k))), nil

	default:
		return nil, decodeerr(path, ERR_EXPRESSION, "unknown expression node %T", e)
	}
}

func evalBinary(op string, l, r *big.Int, path string) (*big.Int, error) {
	switch op {
	case "add":
		return new(big.Int).Add(l, r), nil
	case "sub":
		return new(big.Int).Sub(l, r), nil
	case "mul":
		return new(big.Int).Mul(l, r), nil
	case "div":
		if r.Sign() == 0 {
			return nil, decodeerr(path, ERR_EXPRESSION, "division by zero")
		}
		return new(big.Int).Quo(l, r), nil
	case "mod":
		if r.Sign() == 0 {
			return nil, decodeerr(path, ERR_EXPRESSION, "modulo by zero")
		}
		return new(big.Int).Rem(l, r), nil
	case "bit-and":
		return new(big.Int).And(l, r), nil
	case "bit-or":
		return new(big.Int).Or(l, r), nil
	case "bit-xor":
		return new(big.Int).Xor(l, r), nil
	case "left-shift":
		n, err := shiftAmount(r, path)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Lsh(l, n), nil
	case "right-shift":
		n, err := shiftAmount(r, path)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Rsh(l, n), nil
	default:
		return nil, decodeerr(path, ERR_EXPRESSION, "unsupported binary operator %q", op)
	}
}

func shiftAmount(r *big.Int, path string) (uint, error) {
	if r.Sign() < 0 {
		return 0, decodeerr(path, ERR_EXPRESSION, "negative shift amount")
	}
	if !r.IsUint64() || r.Uint64() > maxShiftAmount {
		return 0, decodeerr(path, ERR_EXPRESSION, "shift amount exceeds %d", maxShiftAmount)
	}
	return uint(r.Uint64()), nil
}

// constEval evaluates an expression that may reference only literals and
// arithmetic binary operators (used by the layout engine's const-size
// computation, which has no scope to resolve field-refs against).
func constEval(e Expr) (*big.Int, bool) {
	switch x := e.(type) {
	case LiteralExpr:
		return new(big.Int).Set(x.Value), true
	case BinaryExpr:
		l, ok := constEval(x.Left)
		if !ok {
			return nil, false
		}
		r, ok := constEval(x.Right)
		if !ok {
			return nil, false
		}
		v, err := evalBinary(x.Op, l, r, "")
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}
