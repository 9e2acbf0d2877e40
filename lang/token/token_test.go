package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	cases := map[string]Kind{
		"and":     AND,
		"class":   CLASS,
		"else":    ELSE,
		"false":   FALSE,
		"for":     FOR,
		"fun":     FUN,
		"if":      IF,
		"nil":     NIL,
		"or":      OR,
		"print":   PRINT,
		"return":  RETURN,
		"super":   SUPER,
		"this":    THIS,
		"true":    TRUE,
		"var":     VAR,
		"while":   WHILE,
		"classy":  IDENT,
		"andy":    IDENT,
		"x":       IDENT,
		"initial": IDENT,
	}
	for s, want := range cases {
		assert.Equal(t, want, Lookup(s), s)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "identifier", IDENT.String())
	assert.Equal(t, "==", EQEQ.String())
	assert.Equal(t, "'=='", EQEQ.GoString())
	assert.Equal(t, "class", CLASS.String())
	assert.Equal(t, "class", CLASS.GoString(), "keywords are not quoted")
	assert.Equal(t, "end of file", EOF.String())
}

func TestSynthetic(t *testing.T) {
	tok := Synthetic("this")
	assert.Equal(t, IDENT, tok.Kind)
	assert.Equal(t, "this", tok.Lexeme)
}
