package exec

import (
	"fmt"

	"github.com/SolieSoftware/db-engine/internal/sqlparser"
	"github.com/SolieSoftware/db-engine/internal/types"
)

// CompilePredicate turns a WHERE-clause expression tree into a Predicate
// closure over rows of schema. A nil expr compiles to an always-true
// predicate, matching a SELECT with no WHERE clause.
func CompilePredicate(schema types.Schema, expr *sqlparser.Expr) (Predicate, error) {
	if expr == nil {
		return func(types.Row) (bool, error) { return true, nil }, nil
	}
	if expr.Kind != sqlparser.ExprBinary {
		return nil, fmt.Errorf("exec: expression is not a boolean predicate")
	}
	switch expr.Op {
	case sqlparser.OpAnd:
		left, err := CompilePredicate(schema, expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := CompilePredicate(schema, expr.Right)
		if err != nil {
			return nil, err
		}
		return func(row types.Row) (bool, error) {
			ok, err := left(row)
			if err != nil || !ok {
				return false, err
			}
			return right(row)
		}, nil
	case sqlparser.OpOr:
		left, err := CompilePredicate(schema, expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := CompilePredicate(schema, expr.Right)
		if err != nil {
			return nil, err
		}
		return func(row types.Row) (bool, error) {
			ok, err := left(row)
			if err != nil || ok {
				return ok, err
			}
			return right(row)
		}, nil
	default:
		return compileComparison(schema, expr)
	}
}

func compileComparison(schema types.Schema, expr *sqlparser.Expr) (Predicate, error) {
	return func(row types.Row) (bool, error) {
		left, err := evalValue(schema, row, expr.Left)
		if err != nil {
			return false, err
		}
		right, err := evalValue(schema, row, expr.Right)
		if err != nil {
			return false, err
		}
		if left.Kind != right.Kind {
			return false, fmt.Errorf("exec: cannot compare %s to %s", left.Kind, right.Kind)
		}
		cmp := left.Compare(right)
		switch expr.Op {
		case sqlparser.OpEq:
			return cmp == 0, nil
		case sqlparser.OpNeq:
			return cmp != 0, nil
		case sqlparser.OpLt:
			return cmp < 0, nil
		case sqlparser.OpGt:
			return cmp > 0, nil
		case sqlparser.OpLe:
			return cmp <= 0, nil
		case sqlparser.OpGe:
			return cmp >= 0, nil
		default:
			return false, fmt.Errorf("exec: operator %s is not a comparison", expr.Op)
		}
	}, nil
}

func evalValue(schema types.Schema, row types.Row, expr *sqlparser.Expr) (types.Value, error) {
	switch expr.Kind {
	case sqlparser.ExprInt:
		return types.NewInteger(expr.Int), nil
	case sqlparser.ExprStr:
		return types.NewVarchar(expr.Str), nil
	case sqlparser.ExprColumn:
		v, ok := row.Get(schema, expr.Column)
		if !ok {
			return types.Value{}, fmt.Errorf("exec: unknown column %q", expr.Column)
		}
		return v, nil
	default:
		return types.Value{}, fmt.Errorf("exec: expected a value expression, got a boolean expression")
	}
}
