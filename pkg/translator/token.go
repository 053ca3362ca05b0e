package translator

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	WORD   // keyword, segment name, label or function name
	NUMBER // unsigned decimal literal
	SYMBOL // any other single character, e.g. the '-' in "if-goto"
)

var tokenNames = [...]string{
	EOF:    "EOF",
	WORD:   "WORD",
	NUMBER: "NUMBER",
	SYMBOL: "SYMBOL",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-7s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
