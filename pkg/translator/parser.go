package translator

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// callScope is the function a command appears in. Labels are qualified with
// its name and each call site gets the next return-address ordinal.
type callScope struct {
	function string
	calls    int
}

func (s *callScope) qualify(label string) string {
	return s.function + "$" + label
}

func (s *callScope) nextReturnAddress() string {
	addr := fmt.Sprintf("%s:ret.%d", s.function, s.calls)
	s.calls++
	return addr
}

// Parser turns the token stream of one translation unit into Commands, one
// VM instruction per call to Next.
//
// Grammar:
//
//	command  = op
//	         | ("push" | "pop") segment NUMBER
//	         | ("label" | "goto") WORD
//	         | "if" "-" "goto" WORD
//	         | ("function" | "call") WORD NUMBER
//	         | "return"
//	op       = "add" | "sub" | "neg" | "eq" | "gt" | "lt" | "and" | "or" | "not"
//	segment  = "local" | "argument" | "this" | "that" | "constant" | "static" | "pointer" | "temp"
type Parser struct {
	lex   *Lexer
	unit  string
	scope *callScope
	count int // commands parsed so far
	line  int // line of the keyword being parsed
}

func NewParser(unit, src string) *Parser {
	return &Parser{lex: NewLexer(src), unit: unit}
}

// Unit returns the translation unit name given to NewParser.
func (p *Parser) Unit() string { return p.unit }

// Function returns the name of the enclosing function, or "" before the
// first function declaration.
func (p *Parser) Function() string {
	if p.scope == nil {
		return ""
	}
	return p.scope.function
}

// Next returns the next command, or (nil, nil) at end of input. Errors are
// *SyntaxError values wrapping one of the Err* sentinels.
func (p *Parser) Next() (Command, error) {
	tok := p.lex.Next()
	if tok.Type == EOF {
		return nil, nil
	}
	p.line = tok.Line

	cmd, err := p.parseCommand(tok, Pos{Line: tok.Line, Ordinal: p.count})
	if err != nil {
		return nil, &SyntaxError{Unit: p.unit, Line: p.line, Ordinal: p.count, Err: err}
	}
	p.count++
	return cmd, nil
}

// All parses the remaining input.
func (p *Parser) All() ([]Command, error) {
	var cmds []Command
	for {
		cmd, err := p.Next()
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			return cmds, nil
		}
		cmds = append(cmds, cmd)
	}
}

func (p *Parser) parseCommand(tok Token, pos Pos) (Command, error) {
	if tok.Type != WORD {
		return nil, errors.Wrapf(ErrInvalidCommand, "%q", tok.Lexeme)
	}

	if op, ok := opsByName[tok.Lexeme]; ok {
		return Arithmetic{Pos: pos, Op: op}, nil
	}

	switch tok.Lexeme {
	case "push", "pop":
		return p.parseAccess(tok.Lexeme == "pop", pos)

	case "label", "goto":
		name, err := p.expectWord("label name")
		if err != nil {
			return nil, err
		}
		scope, err := p.enclosing(tok.Lexeme)
		if err != nil {
			return nil, err
		}
		if tok.Lexeme == "label" {
			return Label{Pos: pos, Name: scope.qualify(name)}, nil
		}
		return Goto{Pos: pos, Name: scope.qualify(name)}, nil

	case "if":
		if err := p.expectLexeme("-"); err != nil {
			return nil, err
		}
		if err := p.expectLexeme("goto"); err != nil {
			return nil, err
		}
		name, err := p.expectWord("label name")
		if err != nil {
			return nil, err
		}
		scope, err := p.enclosing("if-goto")
		if err != nil {
			return nil, err
		}
		return IfGoto{Pos: pos, Name: scope.qualify(name)}, nil

	case "function":
		name, err := p.expectWord("function name")
		if err != nil {
			return nil, err
		}
		locals, err := p.expectNumber("local count")
		if err != nil {
			return nil, err
		}
		p.scope = &callScope{function: name}
		return Function{Pos: pos, Name: name, Locals: locals}, nil

	case "call":
		callee, err := p.expectWord("function name")
		if err != nil {
			return nil, err
		}
		args, err := p.expectNumber("argument count")
		if err != nil {
			return nil, err
		}
		scope, err := p.enclosing("call")
		if err != nil {
			return nil, err
		}
		return Call{Pos: pos, Callee: callee, Args: args, ReturnAddress: scope.nextReturnAddress()}, nil

	case "return":
		if _, err := p.enclosing("return"); err != nil {
			return nil, err
		}
		return Return{Pos: pos}, nil
	}

	return nil, errors.Wrapf(ErrInvalidCommand, "%q", tok.Lexeme)
}

func (p *Parser) parseAccess(pop bool, pos Pos) (Command, error) {
	tok := p.lex.Next()
	if tok.Type == EOF {
		return nil, errors.Wrap(ErrUnexpectedEOF, "memory segment expected")
	}
	segment, ok := segmentsByName[tok.Lexeme]
	if !ok || tok.Type != WORD {
		return nil, errors.Wrapf(ErrInvalidSegment, "%q", tok.Lexeme)
	}

	index, err := p.expectNumber("segment index")
	if err != nil {
		return nil, err
	}
	if err := checkAccess(pop, segment, index); err != nil {
		return nil, err
	}

	if pop {
		return Pop{Pos: pos, Segment: segment, Index: index}, nil
	}
	return Push{Pos: pos, Segment: segment, Index: index}, nil
}

// enclosing returns the current function scope, failing for commands that
// are only meaningful inside a function.
func (p *Parser) enclosing(what string) (*callScope, error) {
	if p.scope == nil {
		return nil, errors.Wrap(ErrOutsideFunction, what)
	}
	return p.scope, nil
}

func (p *Parser) expectWord(what string) (string, error) {
	tok := p.lex.Next()
	switch tok.Type {
	case EOF:
		return "", errors.Wrapf(ErrUnexpectedEOF, "%s expected", what)
	case WORD:
		return tok.Lexeme, nil
	}
	return "", errors.Wrapf(ErrInvalidCommand, "%s expected, found %q", what, tok.Lexeme)
}

func (p *Parser) expectNumber(what string) (uint16, error) {
	tok := p.lex.Next()
	switch tok.Type {
	case EOF:
		return 0, errors.Wrapf(ErrUnexpectedEOF, "%s expected", what)
	case NUMBER:
		n, err := strconv.ParseUint(tok.Lexeme, 10, 16)
		if err != nil {
			return 0, errors.Wrapf(ErrMalformedNumber, "%s %s", what, tok.Lexeme)
		}
		return uint16(n), nil
	}
	return 0, errors.Wrapf(ErrMalformedNumber, "%s expected, found %q", what, tok.Lexeme)
}

func (p *Parser) expectLexeme(want string) error {
	tok := p.lex.Next()
	if tok.Type == EOF {
		return errors.Wrapf(ErrUnexpectedEOF, "%q expected", want)
	}
	if tok.Lexeme != want {
		return errors.Wrapf(ErrInvalidCommand, "%q expected, found %q", want, tok.Lexeme)
	}
	return nil
}
