package sqlparser

import "fmt"

// ParseError reports a lexical or grammatical failure at a byte offset into
// the original input.
type ParseError struct {
	Message string
	Pos     int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("sqlparser: parse error at position %d: %s", e.Pos, e.Message)
}
