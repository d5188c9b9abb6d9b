package sqlparser

import "testing"

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("select id, name from people")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("got %T, want *SelectStmt", stmt)
	}
	if sel.Table != "people" {
		t.Fatalf("Table = %q, want people", sel.Table)
	}
	if len(sel.Columns) != 2 || sel.Columns[0] != "id" || sel.Columns[1] != "name" {
		t.Fatalf("Columns = %v", sel.Columns)
	}
	if sel.Where != nil {
		t.Fatalf("Where = %v, want nil", sel.Where)
	}
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM people")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if len(sel.Columns) != 1 || sel.Columns[0] != "*" {
		t.Fatalf("Columns = %v", sel.Columns)
	}
}

func TestParseWhereOperatorPrecedence(t *testing.T) {
	// AND binds tighter than OR: a OR b AND c == a OR (b AND c)
	stmt, err := Parse("select * from t where id = 1 or age > 2 and age < 5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.Where == nil || sel.Where.Kind != ExprBinary || sel.Where.Op != OpOr {
		t.Fatalf("top-level op = %+v, want OR", sel.Where)
	}
	right := sel.Where.Right
	if right.Kind != ExprBinary || right.Op != OpAnd {
		t.Fatalf("right operand = %+v, want AND", right)
	}
}

func TestParseComparisonOperators(t *testing.T) {
	cases := []struct {
		sql string
		op  Op
	}{
		{"select * from t where a = 1", OpEq},
		{"select * from t where a != 1", OpNeq},
		{"select * from t where a < 1", OpLt},
		{"select * from t where a > 1", OpGt},
		{"select * from t where a <= 1", OpLe},
		{"select * from t where a >= 1", OpGe},
	}
	for _, c := range cases {
		stmt, err := Parse(c.sql)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.sql, err)
		}
		sel := stmt.(*SelectStmt)
		if sel.Where == nil || sel.Where.Op != c.op {
			t.Fatalf("Parse(%q) op = %v, want %v", c.sql, sel.Where, c.op)
		}
	}
}

func TestParseStringLiteralWhereClause(t *testing.T) {
	stmt, err := Parse("select * from t where name = 'bob'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if sel.Where.Right.Kind != ExprStr || sel.Where.Right.Str != "bob" {
		t.Fatalf("Where.Right = %+v", sel.Where.Right)
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("insert into people (id, name) values (1, 'alice'), (2, 'bob')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ins, ok := stmt.(*InsertStmt)
	if !ok {
		t.Fatalf("got %T, want *InsertStmt", stmt)
	}
	if ins.Table != "people" {
		t.Fatalf("Table = %q", ins.Table)
	}
	if len(ins.Columns) != 2 {
		t.Fatalf("Columns = %v", ins.Columns)
	}
	if len(ins.Values) != 2 {
		t.Fatalf("Values = %v", ins.Values)
	}
	if ins.Values[0][0].Int != 1 || ins.Values[0][1].Str != "alice" {
		t.Fatalf("Values[0] = %v", ins.Values[0])
	}
	if ins.Values[1][0].Int != 2 || ins.Values[1][1].Str != "bob" {
		t.Fatalf("Values[1] = %v", ins.Values[1])
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse("select * from t where a = 1 garbage"); err == nil {
		t.Fatal("expected an error for trailing input")
	}
}

func TestParseInsertRejectsColumnAsValue(t *testing.T) {
	if _, err := Parse("insert into t (a) values (b)"); err == nil {
		t.Fatal("expected an error: column reference is not a valid literal value")
	}
}
