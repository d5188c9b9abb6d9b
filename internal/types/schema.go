package types

import "fmt"

// Column names and types one field of a row.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered list of columns. A Row is meaningful only relative
// to the Schema that produced it: values appear in column order.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema from name/kind pairs, in the order given.
func NewSchema(columns ...Column) Schema {
	return Schema{Columns: columns}
}

// IndexOf returns the position of name within the schema, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row is a tuple of values, one per column of some Schema.
type Row []Value

// Get returns the value at column name, per schema.
func (r Row) Get(schema Schema, name string) (Value, bool) {
	idx := schema.IndexOf(name)
	if idx < 0 || idx >= len(r) {
		return Value{}, false
	}
	return r[idx], true
}

// Encode serializes a row as the concatenation of its values' wire
// representations, suitable for storage as a single heap-file record.
func (r Row) Encode() []byte {
	var buf []byte
	for _, v := range r {
		buf = v.Encode(buf)
	}
	return buf
}

// DecodeRow parses a row of len(schema.Columns) values out of data.
func DecodeRow(schema Schema, data []byte) (Row, error) {
	row := make(Row, len(schema.Columns))
	offset := 0
	for i := range schema.Columns {
		v, n, err := DecodeValue(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("types: decoding column %d (%s): %w", i, schema.Columns[i].Name, err)
		}
		row[i] = v
		offset += n
	}
	return row, nil
}
