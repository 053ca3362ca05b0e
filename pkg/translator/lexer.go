package translator

import "unicode"

// Lexer scans VM source text on demand. It never fails: characters that do
// not start a word or a number are returned as single SYMBOL tokens and left
// for the parser to reject.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything up to the next control character.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && !unicode.IsControl(l.peek()) {
		l.advance()
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '$'
}

func (l *Lexer) scan(tt TokenType, keep func(rune) bool) Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && keep(l.peek()) {
		l.advance()
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// Next skips whitespace and comments and returns the next Token, or an EOF
// token once the input is exhausted.
func (l *Lexer) Next() Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Line: l.line}
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.skipLineComment()
			continue
		}
		break
	}

	ch := l.peek()
	switch {
	case unicode.IsDigit(ch):
		return l.scan(NUMBER, unicode.IsDigit)
	case unicode.IsLetter(ch) || ch == '_':
		return l.scan(WORD, isWordRune)
	}

	line := l.line
	l.advance()
	return Token{Type: SYMBOL, Lexeme: string(ch), Line: line}
}

// Lex scans the whole source. The returned slice always ends with an EOF
// token.
func Lex(src string) []Token {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}
