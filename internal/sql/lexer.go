package sql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

type TokenType int

const (
	TokenKeyword TokenType = iota
	TokenIdentifier
	TokenLiteral // 'string' or 123
	TokenSymbol  // = , ( ) * ; and comparison operators
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenKeyword:
		return "keyword"
	case TokenIdentifier:
		return "identifier"
	case TokenLiteral:
		return "literal"
	case TokenSymbol:
		return "symbol"
	case TokenEOF:
		return "EOF"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

type Token struct {
	Type  TokenType
	Value string
	// Quoted is set for string literals, so '12' stays a VARCHAR.
	Quoted bool
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Value)
}

var keywords = map[string]bool{
	"CREATE": true, "TABLE": true, "INSERT": true, "INTO": true, "VALUES": true,
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "INNER": true,
	"ON": true, "AND": true, "LIKE": true, "INT": true, "VARCHAR": true,
}

type Lexer struct {
	input string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF}, nil
	}

	ch := l.input[l.pos]
	switch {
	case isAlpha(ch) || ch == '_':
		return l.scanIdentifier(), nil
	case isDigit(ch):
		return l.scanNumber(), nil
	case ch == '-' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]):
		return l.scanNumber(), nil
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	}

	if l.pos+1 < len(l.input) {
		switch two := l.input[l.pos : l.pos+2]; two {
		case "<=", ">=", "<>", "!=", "==":
			l.pos += 2
			return Token{Type: TokenSymbol, Value: two}, nil
		}
	}
	if strings.IndexByte("=<>,()*;", ch) < 0 {
		return Token{}, errors.Newf("unexpected character %q at offset %d", ch, l.pos)
	}
	l.pos++
	return Token{Type: TokenSymbol, Value: string(ch)}, nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// scanIdentifier reads a keyword, a name or a qualified name (t.col).
func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isAlpha(ch) && !isDigit(ch) && ch != '_' && ch != '.' {
			break
		}
		l.pos++
	}
	val := l.input[start:l.pos]
	if upper := strings.ToUpper(val); keywords[upper] {
		return Token{Type: TokenKeyword, Value: upper}
	}
	return Token{Type: TokenIdentifier, Value: val}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	l.pos++ // digit or sign
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenLiteral, Value: l.input[start:l.pos]}
}

func (l *Lexer) scanString(quote byte) (Token, error) {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, errors.Newf("unterminated string starting at offset %d", start-1)
	}
	val := l.input[start:l.pos]
	l.pos++ // closing quote
	return Token{Type: TokenLiteral, Value: val, Quoted: true}, nil
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
