package sqlparser

import (
	"strings"
	"unicode"
)

var keywordSet = map[string]bool{
	"select": true, "from": true, "where": true,
	"insert": true, "into": true, "values": true,
	"and": true, "or": true,
}

func skipSpace(p *Parser) {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func isIdentStart(b byte) bool {
	return unicode.IsLetter(rune(b)) || b == '_'
}

func isIdent(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || b == '_'
}

// keyword matches a single case-insensitive keyword or punctuation token,
// consuming it and any leading whitespace on success, and leaves p
// untouched on failure.
func keyword(p *Parser, kw string) bool {
	save := p.pos
	skipSpace(p)
	end := p.pos + len(kw)
	if end > len(p.input) {
		p.pos = save
		return false
	}
	if !strings.EqualFold(string(p.input[p.pos:end]), kw) {
		p.pos = save
		return false
	}
	// For alphabetic keywords, require a word boundary after the match so
	// an identifier such as "order" is not matched as the "or" keyword.
	if isIdent(kw[len(kw)-1]) && end < len(p.input) && isIdent(p.input[end]) {
		p.pos = save
		return false
	}
	p.pos = end
	return true
}

// ident parses an identifier that is not a reserved keyword.
func ident(p *Parser) (string, bool) {
	skipSpace(p)
	start := p.pos
	if start >= len(p.input) || !isIdentStart(p.input[start]) {
		return "", false
	}
	end := start + 1
	for end < len(p.input) && isIdent(p.input[end]) {
		end++
	}
	name := string(p.input[start:end])
	if keywordSet[strings.ToLower(name)] {
		return "", false
	}
	p.pos = end
	return name, true
}

// integer parses an unsigned run of digits. No caller accepts a leading
// '-', so INTEGER literals are always non-negative.
func integer(p *Parser) (int64, bool) {
	skipSpace(p)
	start := p.pos
	for p.pos < len(p.input) && unicode.IsDigit(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	var n int64
	for _, ch := range p.input[start:p.pos] {
		n = n*10 + int64(ch-'0')
	}
	return n, true
}

// stringLiteral parses a single-quoted VARCHAR literal; '' inside the
// literal is an escaped quote.
func stringLiteral(p *Parser) (string, bool) {
	skipSpace(p)
	if p.pos >= len(p.input) || p.input[p.pos] != '\'' {
		return "", false
	}
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		if p.input[p.pos] == '\'' {
			if p.pos+1 < len(p.input) && p.input[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), true
		}
		b.WriteByte(p.input[p.pos])
		p.pos++
	}
	p.pos = start
	return "", false
}
