// Package token defines the lexical tokens of the Lotus language. Tokens
// borrow their lexeme from the source text, they never copy it.
package token

import "github.com/dolthub/swiss"

// A Kind identifies the lexical class of a token.
type Kind int8

//nolint:revive
const (
	ILLEGAL Kind = iota
	EOF

	// Tokens with values
	IDENT  // x
	NUMBER // 1.23
	STRING // "foo", quotes included in the lexeme

	// Punctuation
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	COMMA  // ,
	DOT    // .
	MINUS  // -
	PLUS   // +
	SEMI   // ;
	SLASH  // /
	STAR   // *

	// One or two characters
	BANG    // !
	BANGEQ  // !=
	EQ      // =
	EQEQ    // ==
	GT      // >
	GE      // >=
	LT      // <
	LE      // <=

	// Keywords
	AND
	CLASS
	ELSE
	FALSE
	FOR
	FUN
	IF
	NIL
	OR
	PRINT
	RETURN
	SUPER
	THIS
	TRUE
	VAR
	WHILE

	maxKind
)

// NumKinds is the number of token kinds, for tables indexed by Kind.
const NumKinds = int(maxKind)

func (k Kind) String() string { return kindNames[k] }

// GoString is like String but quotes punctuation tokens. Use Sprintf("%#v",
// k) when constructing error messages.
func (k Kind) GoString() string {
	if k >= LPAREN && k <= LE {
		return "'" + kindNames[k] + "'"
	}
	return kindNames[k]
}

var kindNames = [...]string{
	ILLEGAL: "illegal token",
	EOF:     "end of file",
	IDENT:   "identifier",
	NUMBER:  "number literal",
	STRING:  "string literal",
	LPAREN:  "(",
	RPAREN:  ")",
	LBRACE:  "{",
	RBRACE:  "}",
	COMMA:   ",",
	DOT:     ".",
	MINUS:   "-",
	PLUS:    "+",
	SEMI:    ";",
	SLASH:   "/",
	STAR:    "*",
	BANG:    "!",
	BANGEQ:  "!=",
	EQ:      "=",
	EQEQ:    "==",
	GT:      ">",
	GE:      ">=",
	LT:      "<",
	LE:      "<=",
	AND:     "and",
	CLASS:   "class",
	ELSE:    "else",
	FALSE:   "false",
	FOR:     "for",
	FUN:     "fun",
	IF:      "if",
	NIL:     "nil",
	OR:      "or",
	PRINT:   "print",
	RETURN:  "return",
	SUPER:   "super",
	THIS:    "this",
	VAR:     "var",
	TRUE:    "true",
	WHILE:   "while",
}

var keywords = func() *swiss.Map[string, Kind] {
	m := swiss.NewMap[string, Kind](16)
	for k := AND; k < maxKind; k++ {
		m.Put(kindNames[k], k)
	}
	return m
}()

// Lookup maps an identifier to its keyword kind, or IDENT if it is not a
// keyword.
func Lookup(ident string) Kind {
	if k, ok := keywords.Get(ident); ok {
		return k
	}
	return IDENT
}

// A Token is a lexical token produced by the scanner. The lexeme is a slice
// of the source text, except for ILLEGAL tokens where it is a static error
// message, and for synthetic tokens.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

// Synthetic returns an identifier token for text that does not originate
// from the source. The compiler uses it to resolve the hidden 'this' and
// 'super' names through the same paths as real identifiers.
func Synthetic(text string) Token {
	return Token{Kind: IDENT, Lexeme: text}
}
