// Package parser turns SQL-subset text into a queryir.Query.
//
// The grammar is small enough for a hand-written lexer and a recursive
// descent parser. Every construct outside the grammar is rejected with an
// "unsupported feature" SyntaxError instead of being skipped.
package parser

import (
	"fmt"
	"strings"
)

// TokenType represents the type of token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Keywords
	TokenSelect
	TokenFrom
	TokenJoin
	TokenOn
	TokenWhere
	TokenAnd
	TokenLimit
	TokenAs

	// Identifiers and literals
	TokenIdentifier // item, P17_qid, Q845945, aliases, unsupported keywords
	TokenString     // 'quoted' or "quoted"
	TokenNumber     // 10

	// Operators and delimiters
	TokenEqual      // =
	TokenOperator   // != <> < <= > >=
	TokenComma      // ,
	TokenDot        // .
	TokenColon      // :
	TokenStar       // *
	TokenSemicolon  // ;
	TokenLeftParen  // (
	TokenRightParen // )
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string // string tokens hold the unescaped value
	Pos     int    // 1-based byte offset of the first character
}

// Lexer tokenizes SQL-subset queries
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // next position to read
	ch           byte // current char
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar looks ahead one character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.position
	tok := Token{Pos: start + 1}

	switch l.ch {
	case 0:
		if l.position < len(l.input) {
			// NUL byte inside the input
			tok.Type = TokenIllegal
			tok.Literal = "\\x00"
			l.readChar()
			return tok
		}
		tok.Type = TokenEOF
		return tok
	case ',':
		tok.Type = TokenComma
	case '.':
		tok.Type = TokenDot
	case ':':
		tok.Type = TokenColon
	case '*':
		tok.Type = TokenStar
	case ';':
		tok.Type = TokenSemicolon
	case '(':
		tok.Type = TokenLeftParen
	case ')':
		tok.Type = TokenRightParen
	case '=':
		tok.Type = TokenEqual
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TokenOperator
		} else {
			tok.Type = TokenIllegal
		}
	case '<':
		if l.peekChar() == '=' || l.peekChar() == '>' {
			l.readChar()
		}
		tok.Type = TokenOperator
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
		}
		tok.Type = TokenOperator
	case '\'', '"':
		value, ok := l.readString(l.ch)
		if !ok {
			tok.Type = TokenIllegal
			tok.Literal = l.input[start:]
			return tok
		}
		tok.Type = TokenString
		tok.Literal = value
		return tok
	default:
		if isLetter(l.ch) || l.ch == '_' {
			tok.Literal = l.readIdentifier()
			tok.Type = lookupKeyword(tok.Literal)
			return tok
		}
		if isDigit(l.ch) {
			tok.Literal = l.readNumber()
			tok.Type = TokenNumber
			return tok
		}
		tok.Type = TokenIllegal
	}

	l.readChar()
	tok.Literal = l.input[start:l.position]
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a quoted string starting at the opening quote and returns
// its unescaped value. A backslash escapes the next character and a doubled
// quote stands for one quote. ok is false when the string is unterminated.
func (l *Lexer) readString(quote byte) (string, bool) {
	var sb strings.Builder
	for {
		l.readChar()
		switch {
		case l.ch == 0 && l.position >= len(l.input):
			return "", false
		case l.ch == '\\' && l.peekChar() != 0:
			l.readChar()
			sb.WriteByte(l.ch)
		case l.ch == quote && l.peekChar() == quote:
			l.readChar()
			sb.WriteByte(quote)
		case l.ch == quote:
			l.readChar()
			return sb.String(), true
		default:
			sb.WriteByte(l.ch)
		}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

var keywords = map[string]TokenType{
	"SELECT": TokenSelect,
	"FROM":   TokenFrom,
	"JOIN":   TokenJoin,
	"ON":     TokenOn,
	"WHERE":  TokenWhere,
	"AND":    TokenAnd,
	"LIMIT":  TokenLimit,
	"AS":     TokenAs,
}

func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return TokenIdentifier
}

// unsupportedKeywords maps SQL words outside the subset to the feature
// name reported to the user.
var unsupportedKeywords = map[string]string{
	"ORDER":     "ORDER BY",
	"GROUP":     "GROUP BY",
	"HAVING":    "HAVING",
	"UNION":     "UNION",
	"INTERSECT": "INTERSECT",
	"EXCEPT":    "EXCEPT",
	"OFFSET":    "OFFSET",
	"FETCH":     "FETCH",
	"DISTINCT":  "DISTINCT",
	"TOP":       "TOP",
	"LEFT":      "LEFT JOIN",
	"RIGHT":     "RIGHT JOIN",
	"INNER":     "INNER JOIN",
	"OUTER":     "OUTER JOIN",
	"FULL":      "FULL JOIN",
	"CROSS":     "CROSS JOIN",
	"NATURAL":   "NATURAL JOIN",
	"USING":     "JOIN ... USING",
	"OR":        "OR",
	"NOT":       "NOT",
	"LIKE":      "LIKE",
	"IN":        "IN",
	"IS":        "IS",
	"BETWEEN":   "BETWEEN",
	"EXISTS":    "EXISTS",
	"WITH":      "WITH",
	"INSERT":    "INSERT",
	"UPDATE":    "UPDATE",
	"DELETE":    "DELETE",
	"CASE":      "CASE",
	"WINDOW":    "WINDOW",
}

// unsupportedFeature returns the feature name if ident is an unsupported
// SQL keyword.
func unsupportedFeature(ident string) (string, bool) {
	feature, ok := unsupportedKeywords[strings.ToUpper(ident)]
	return feature, ok
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenSelect:
		return "SELECT"
	case TokenFrom:
		return "FROM"
	case TokenJoin:
		return "JOIN"
	case TokenOn:
		return "ON"
	case TokenWhere:
		return "WHERE"
	case TokenAnd:
		return "AND"
	case TokenLimit:
		return "LIMIT"
	case TokenAs:
		return "AS"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenString:
		return "STRING"
	case TokenNumber:
		return "NUMBER"
	case TokenEqual:
		return "="
	case TokenOperator:
		return "OPERATOR"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenColon:
		return ":"
	case TokenStar:
		return "*"
	case TokenSemicolon:
		return ";"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	default:
		return fmt.Sprintf("TokenType(%d)", t)
	}
}

// describe renders a token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return fmt.Sprintf("'%s'", t.Literal)
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
