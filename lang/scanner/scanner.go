// Package scanner tokenizes Lotus source text for the compiler to consume.
// It yields one token at a time, on demand, and never allocates: every
// lexeme is a slice of the source string.
package scanner

import "github.com/mna/lotus/lang/token"

// Scanner tokenizes a source buffer. The zero value is not usable, call
// Init first. A Scanner can be reused for a different source by calling
// Init again.
type Scanner struct {
	src string

	start int // start of the token being scanned
	off   int // current reading offset
	line  int
}

// Init initializes the scanner to tokenize src.
func (s *Scanner) Init(src string) {
	s.src = src
	s.start = 0
	s.off = 0
	s.line = 1
}

// Scan returns the next token. Once EOF is reached, subsequent calls keep
// returning EOF tokens.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespace()
	s.start = s.off

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMI)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		if s.match('=') {
			return s.make(token.BANGEQ)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQEQ)
		}
		return s.make(token.EQ)
	case '<':
		if s.match('=') {
			return s.make(token.LE)
		}
		return s.make(token.LT)
	case '>':
		if s.match('=') {
			return s.make(token.GE)
		}
		return s.make(token.GT)
	case '"':
		return s.stringLit()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.off++
		case '\n':
			s.line++
			s.off++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			// line comment, runs to end of line
			for !s.atEnd() && s.peek() != '\n' {
				s.off++
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifier() token.Token {
	for !s.atEnd() && (isAlpha(s.peek()) || isDigit(s.peek())) {
		s.off++
	}
	tok := s.make(token.Lookup(s.src[s.start:s.off]))
	return tok
}

func (s *Scanner) number() token.Token {
	for !s.atEnd() && isDigit(s.peek()) {
		s.off++
	}

	// fractional part, only if the dot is followed by a digit
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.off++
		for !s.atEnd() && isDigit(s.peek()) {
			s.off++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) stringLit() token.Token {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.off++
	}

	if s.atEnd() {
		return s.errorToken("Unterminated string.")
	}

	s.off++ // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: s.src[s.start:s.off],
		Line:   s.line,
	}
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{Kind: token.ILLEGAL, Lexeme: msg, Line: s.line}
}

func (s *Scanner) atEnd() bool { return s.off >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.off]
	s.off++
	return c
}

func (s *Scanner) match(c byte) bool {
	if s.atEnd() || s.src[s.off] != c {
		return false
	}
	s.off++
	return true
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.off]
}

func (s *Scanner) peekNext() byte {
	if s.off+1 >= len(s.src) {
		return 0
	}
	return s.src[s.off+1]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
