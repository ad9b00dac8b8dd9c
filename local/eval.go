package local

import (
	"fmt"

	"github.com/radhaisme/flumebase/sql"
)

// Eval evaluates a scalar (non-aggregate) expression against one input
// Event, following the same tagged-sum dispatch the type checker uses in
// exec.checkExpr. Aggregate FuncCallExpr nodes are not handled here; the
// aggregate operator evaluates those itself against its running state.
func Eval(e sql.Expr, ev Event) (interface{}, error) {
	switch v := e.(type) {
	case *sql.ConstExpr:
		return constValue(v), nil

	case *sql.IdentExpr:
		name := v.Name
		if v.Qualifier != "" {
			name = v.Qualifier + "." + v.Name
		}
		if val, ok := ev[name]; ok {
			return val, nil
		}
		if val, ok := ev[v.Name]; ok {
			return val, nil
		}
		return nil, nil

	case *sql.UnaryExpr:
		return evalUnary(v, ev)

	case *sql.BinaryExpr:
		return evalBinary(v, ev)

	case *sql.FuncCallExpr:
		return nil, fmt.Errorf("eval: aggregate function %q cannot be evaluated outside an aggregate operator", v.Name)

	default:
		return nil, fmt.Errorf("eval: unsupported expression kind %T", e)
	}
}

func constValue(c *sql.ConstExpr) interface{} {
	switch c.Kind {
	case sql.ConstNull:
		return nil
	case sql.ConstBool:
		return c.Bool
	case sql.ConstInt:
		return c.Int
	case sql.ConstFloat:
		return c.Float
	case sql.ConstString:
		return c.String
	default:
		return nil
	}
}

func evalUnary(v *sql.UnaryExpr, ev Event) (interface{}, error) {
	inner, err := Eval(v.Expr, ev)
	if err != nil {
		return nil, err
	}
	switch v.Op {
	case sql.OpNot:
		if inner == nil {
			return nil, nil
		}
		b, ok := inner.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: NOT requires a boolean operand")
		}
		return !b, nil

	case sql.OpNeg:
		if inner == nil {
			return nil, nil
		}
		return negate(inner)

	case sql.OpPos:
		return inner, nil

	case sql.OpIsNull:
		return inner == nil, nil

	case sql.OpIsNotNull:
		return inner != nil, nil

	default:
		return nil, fmt.Errorf("eval: unsupported unary operator %s", v.Op)
	}
}

func negate(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	default:
		return nil, fmt.Errorf("eval: cannot negate %T", v)
	}
}

func evalBinary(v *sql.BinaryExpr, ev Event) (interface{}, error) {
	left, err := Eval(v.Left, ev)
	if err != nil {
		return nil, err
	}
	right, err := Eval(v.Right, ev)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case sql.OpAnd:
		return boolOp(left, right, func(a, b bool) bool { return a && b })
	case sql.OpOr:
		return boolOp(left, right, func(a, b bool) bool { return a || b })
	case sql.OpAdd, sql.OpSub, sql.OpMul, sql.OpDiv, sql.OpMod:
		return arith(v.Op, left, right)
	case sql.OpEq:
		return compareEq(left, right)
	case sql.OpNe:
		eq, err := compareEq(left, right)
		if err != nil || eq == nil {
			return eq, err
		}
		return !eq.(bool), nil
	case sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe:
		return compareOrd(v.Op, left, right)
	default:
		return nil, fmt.Errorf("eval: unsupported binary operator %s", v.Op)
	}
}

func boolOp(left, right interface{}, f func(a, b bool) bool) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	lb, ok1 := left.(bool)
	rb, ok2 := right.(bool)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("eval: AND/OR require boolean operands")
	}
	return f(lb, rb), nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func arith(op sql.BinaryOp, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	if lInt && rInt {
		switch op {
		case sql.OpAdd:
			return li + ri, nil
		case sql.OpSub:
			return li - ri, nil
		case sql.OpMul:
			return li * ri, nil
		case sql.OpDiv:
			if ri == 0 {
				return nil, fmt.Errorf("eval: division by zero")
			}
			return li / ri, nil
		case sql.OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("eval: division by zero")
			}
			return li % ri, nil
		}
	}
	lf, ok1 := asFloat(left)
	rf, ok2 := asFloat(right)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("eval: arithmetic requires numeric operands, got %T and %T", left, right)
	}
	switch op {
	case sql.OpAdd:
		return lf + rf, nil
	case sql.OpSub:
		return lf - rf, nil
	case sql.OpMul:
		return lf * rf, nil
	case sql.OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("eval: division by zero")
		}
		return lf / rf, nil
	case sql.OpMod:
		return nil, fmt.Errorf("eval: modulo requires integer operands")
	default:
		return nil, fmt.Errorf("eval: unsupported arithmetic operator %s", op)
	}
}

func compareEq(left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	if lf, ok := asFloat(left); ok {
		if rf, ok := asFloat(right); ok {
			return lf == rf, nil
		}
	}
	return left == right, nil
}

func compareOrd(op sql.BinaryOp, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	lf, ok1 := asFloat(left)
	rf, ok2 := asFloat(right)
	if ok1 && ok2 {
		switch op {
		case sql.OpLt:
			return lf < rf, nil
		case sql.OpLe:
			return lf <= rf, nil
		case sql.OpGt:
			return lf > rf, nil
		case sql.OpGe:
			return lf >= rf, nil
		}
	}
	ls, ok1 := left.(string)
	rs, ok2 := right.(string)
	if ok1 && ok2 {
		switch op {
		case sql.OpLt:
			return ls < rs, nil
		case sql.OpLe:
			return ls <= rs, nil
		case sql.OpGt:
			return ls > rs, nil
		case sql.OpGe:
			return ls >= rs, nil
		}
	}
	return nil, fmt.Errorf("eval: cannot compare %T and %T", left, right)
}
