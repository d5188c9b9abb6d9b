// Package types defines the value and schema model shared by the heap
// file, executors, parser, and catalog: a small tagged union of column
// types and the schema that names and orders them within a row.
package types

import (
	"encoding/binary"
	"fmt"
)

// Kind tags which variant of Value is populated.
type Kind uint8

const (
	Integer Kind = iota
	Varchar
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "INTEGER"
	case Varchar:
		return "VARCHAR"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a tagged union holding either an INTEGER or a VARCHAR literal.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Int  int64
	Str  string
}

func NewInteger(v int64) Value  { return Value{Kind: Integer, Int: v} }
func NewVarchar(v string) Value { return Value{Kind: Varchar, Str: v} }

// Equal reports whether two values of the same kind carry the same
// contents. Values of differing kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Integer:
		return v.Int == other.Int
	case Varchar:
		return v.Str == other.Str
	default:
		return false
	}
}

// Compare orders two values of the same kind: negative if v < other, zero
// if equal, positive if v > other. Comparing across kinds panics; the
// executor's comparison predicate checks kinds before calling Compare.
func (v Value) Compare(other Value) int {
	if v.Kind != other.Kind {
		panic(fmt.Sprintf("types: cannot compare %s to %s", v.Kind, other.Kind))
	}
	switch v.Kind {
	case Integer:
		switch {
		case v.Int < other.Int:
			return -1
		case v.Int > other.Int:
			return 1
		default:
			return 0
		}
	case Varchar:
		switch {
		case v.Str < other.Str:
			return -1
		case v.Str > other.Str:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return fmt.Sprintf("%d", v.Int)
	case Varchar:
		return v.Str
	default:
		return "<invalid>"
	}
}

// Encode appends v's wire representation to buf: a 1-byte kind tag,
// followed by either 8 bytes of little-endian int64 (INTEGER) or a
// uint16 length prefix plus raw bytes (VARCHAR).
func (v Value) Encode(buf []byte) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case Integer:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.Int))
		return append(buf, b[:]...)
	case Varchar:
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(v.Str)))
		buf = append(buf, lb[:]...)
		return append(buf, v.Str...)
	default:
		panic(fmt.Sprintf("types: cannot encode value of kind %d", v.Kind))
	}
}

// DecodeValue reads one Encode-d value from the front of data, returning
// it along with the number of bytes consumed.
func DecodeValue(data []byte) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, fmt.Errorf("types: truncated value: missing kind tag")
	}
	kind := Kind(data[0])
	switch kind {
	case Integer:
		if len(data) < 9 {
			return Value{}, 0, fmt.Errorf("types: truncated integer value")
		}
		n := int64(binary.LittleEndian.Uint64(data[1:9]))
		return Value{Kind: Integer, Int: n}, 9, nil
	case Varchar:
		if len(data) < 3 {
			return Value{}, 0, fmt.Errorf("types: truncated varchar length")
		}
		n := int(binary.LittleEndian.Uint16(data[1:3]))
		if len(data) < 3+n {
			return Value{}, 0, fmt.Errorf("types: truncated varchar data")
		}
		return Value{Kind: Varchar, Str: string(data[3 : 3+n])}, 3 + n, nil
	default:
		return Value{}, 0, fmt.Errorf("types: unknown value kind %d", kind)
	}
}
