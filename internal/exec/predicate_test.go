package exec

import (
	"testing"

	"github.com/SolieSoftware/db-engine/internal/sqlparser"
	"github.com/SolieSoftware/db-engine/internal/types"
)

func TestCompilePredicateNilIsAlwaysTrue(t *testing.T) {
	pred, err := CompilePredicate(personSchema(), nil)
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}
	ok, err := pred(types.Row{types.NewInteger(1), types.NewVarchar("a")})
	if err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestCompilePredicateComparisonAndConnectives(t *testing.T) {
	stmt, err := sqlparser.Parse("select * from people where id > 1 and name = 'bob'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*sqlparser.SelectStmt)

	pred, err := CompilePredicate(personSchema(), sel.Where)
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}

	cases := []struct {
		row  types.Row
		want bool
	}{
		{types.Row{types.NewInteger(2), types.NewVarchar("bob")}, true},
		{types.Row{types.NewInteger(1), types.NewVarchar("bob")}, false},
		{types.Row{types.NewInteger(2), types.NewVarchar("alice")}, false},
	}
	for _, c := range cases {
		got, err := pred(c.row)
		if err != nil {
			t.Fatalf("pred(%v): %v", c.row, err)
		}
		if got != c.want {
			t.Fatalf("pred(%v) = %v, want %v", c.row, got, c.want)
		}
	}
}

func TestCompilePredicateKindMismatchErrors(t *testing.T) {
	stmt, err := sqlparser.Parse("select * from people where id = 'x'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*sqlparser.SelectStmt)
	pred, err := CompilePredicate(personSchema(), sel.Where)
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}
	if _, err := pred(types.Row{types.NewInteger(1), types.NewVarchar("a")}); err == nil {
		t.Fatal("expected a kind-mismatch error")
	}
}
