package types

import "testing"

func TestValueEncodeDecodeRoundTrip(t *testing.T) {
	values := []Value{NewInteger(42), NewInteger(-7), NewVarchar("hello"), NewVarchar("")}
	for _, v := range values {
		buf := v.Encode(nil)
		got, n, err := DecodeValue(buf)
		if err != nil {
			t.Fatalf("DecodeValue(%v) error: %v", v, err)
		}
		if n != len(buf) {
			t.Fatalf("DecodeValue consumed %d bytes, want %d", n, len(buf))
		}
		if !got.Equal(v) {
			t.Fatalf("round trip = %v, want %v", got, v)
		}
	}
}

func TestValueCompare(t *testing.T) {
	if NewInteger(1).Compare(NewInteger(2)) >= 0 {
		t.Fatal("1 should compare less than 2")
	}
	if NewVarchar("a").Compare(NewVarchar("b")) >= 0 {
		t.Fatal("\"a\" should compare less than \"b\"")
	}
}

func TestRowEncodeDecodeRoundTrip(t *testing.T) {
	schema := NewSchema(Column{Name: "id", Kind: Integer}, Column{Name: "name", Kind: Varchar})
	row := Row{NewInteger(7), NewVarchar("gopher")}

	decoded, err := DecodeRow(schema, row.Encode())
	if err != nil {
		t.Fatalf("DecodeRow error: %v", err)
	}
	if len(decoded) != len(row) {
		t.Fatalf("decoded %d values, want %d", len(decoded), len(row))
	}
	for i := range row {
		if !decoded[i].Equal(row[i]) {
			t.Fatalf("column %d = %v, want %v", i, decoded[i], row[i])
		}
	}
}

func TestSchemaIndexOf(t *testing.T) {
	schema := NewSchema(Column{Name: "id", Kind: Integer}, Column{Name: "name", Kind: Varchar})
	if idx := schema.IndexOf("name"); idx != 1 {
		t.Fatalf("IndexOf(name) = %d, want 1", idx)
	}
	if idx := schema.IndexOf("missing"); idx != -1 {
		t.Fatalf("IndexOf(missing) = %d, want -1", idx)
	}
}
