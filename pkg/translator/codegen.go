package translator

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultStackBase is the RAM address the bootstrap points SP at.
const DefaultStackBase = 256

// BootstrapScope is the pseudo function the bootstrap call is issued from.
// It is never defined, so its return label cannot clash with real code.
const BootstrapScope = "Bootstrap"

// StaticScope selects how static segment cells are named.
type StaticScope int

const (
	// StaticPerUnit gives every translation unit its own statics: <unit>.<i>.
	StaticPerUnit StaticScope = iota
	// StaticGlobal shares one static segment across all units: static.<i>.
	StaticGlobal
)

func (s StaticScope) String() string {
	if s == StaticGlobal {
		return "global"
	}
	return "unit"
}

// ParseStaticScope accepts "unit" (or "") and "global".
func ParseStaticScope(s string) (StaticScope, error) {
	switch strings.ToLower(s) {
	case "", "unit":
		return StaticPerUnit, nil
	case "global":
		return StaticGlobal, nil
	}
	return StaticPerUnit, errors.Errorf("unknown static scope %q", s)
}

type Options struct {
	StackBase uint16
	Statics   StaticScope
}

// Generator lowers Commands of one translation unit to Hack assembly.
type Generator struct {
	unit        string
	opts        Options
	comparisons int
}

func NewGenerator(unit string, opts Options) *Generator {
	if opts.StackBase == 0 {
		opts.StackBase = DefaultStackBase
	}
	return &Generator{unit: unit, opts: opts}
}

func (g *Generator) Unit() string { return g.unit }

// block accumulates the assembly lines of one command.
type block []string

func (b *block) emit(lines ...string) { *b = append(*b, lines...) }

// loadA sets A to k. Values above 32767 do not fit an A-instruction and are
// loaded as their complement.
func (b *block) loadA(k uint16) {
	if k <= 0x7FFF {
		b.emit("@" + strconv.Itoa(int(k)))
		return
	}
	b.emit("@"+strconv.Itoa(int(^k)), "A=!A")
}

// pushD stores D at the stack top and advances SP.
func (b *block) pushD() {
	b.emit("@SP", "A=M", "M=D", "@SP", "M=M+1")
}

// popD decrements SP and loads the old top into D.
func (b *block) popD() {
	b.emit("@SP", "AM=M-1", "D=M")
}

// Translate returns the assembly for cmd. It fails only for pointer and
// temp indices out of range and for pop constant.
func (g *Generator) Translate(cmd Command) ([]string, error) {
	var b block

	switch c := cmd.(type) {
	case Arithmetic:
		if err := g.arithmetic(&b, c.Op); err != nil {
			return nil, g.fail(c.Pos, err)
		}
	case Push:
		if err := g.push(&b, c.Segment, c.Index); err != nil {
			return nil, g.fail(c.Pos, err)
		}
	case Pop:
		if err := g.pop(&b, c.Segment, c.Index); err != nil {
			return nil, g.fail(c.Pos, err)
		}
	case Label:
		b.emit("(" + c.Name + ")")
	case Goto:
		b.emit("@"+c.Name, "0;JMP")
	case IfGoto:
		b.popD()
		b.emit("@"+c.Name, "D;JNE")
	case Function:
		g.function(&b, c.Name, c.Locals)
	case Call:
		g.call(&b, c.Callee, c.Args, c.ReturnAddress)
	case Return:
		g.ret(&b)
	default:
		return nil, errors.Errorf("unsupported command %T", cmd)
	}

	return b, nil
}

// Bootstrap sets SP to the stack base and calls entry with no arguments. A
// self-loop follows so a returning entry function halts instead of running
// into the first unit.
func (g *Generator) Bootstrap(entry string) []string {
	var b block
	b.loadA(g.opts.StackBase)
	b.emit("D=A", "@SP", "M=D")

	scope := &callScope{function: BootstrapScope}
	g.call(&b, entry, 0, scope.nextReturnAddress())

	halt := BootstrapScope + ":halt"
	b.emit("("+halt+")", "@"+halt, "0;JMP")
	return b
}

func (g *Generator) fail(pos Pos, err error) error {
	return &SyntaxError{Unit: g.unit, Line: pos.Line, Ordinal: pos.Ordinal, Err: err}
}

func (g *Generator) arithmetic(b *block, op Op) error {
	switch op {
	case Add, Sub, And, Or:
		b.popD()
		b.emit("A=A-1")
		switch op {
		case Add:
			b.emit("M=D+M")
		case Sub:
			b.emit("M=M-D")
		case And:
			b.emit("M=D&M")
		case Or:
			b.emit("M=D|M")
		}

	case Neg:
		b.emit("@SP", "A=M-1", "M=-M")
	case Not:
		b.emit("@SP", "A=M-1", "M=!M")

	case Eq, Gt, Lt:
		label := g.unit + ":cmp." + strconv.Itoa(g.comparisons)
		g.comparisons++

		jump := map[Op]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op]
		b.popD()
		b.emit("A=A-1", "D=M-D", "M=-1", "@"+label, "D;"+jump)
		b.emit("@SP", "A=M-1", "M=0", "("+label+")")

	default:
		return errors.Wrapf(ErrInvalidCommand, "arithmetic %s", op)
	}
	return nil
}

var segmentBase = map[Segment]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// checkAccess rejects pointer indices other than 0 and 1, temp indices past
// the temp block, and pops into the constant segment.
func checkAccess(pop bool, segment Segment, index uint16) error {
	switch segment {
	case Pointer:
		if index > 1 {
			return errors.Wrapf(ErrOutOfRange, "pointer %d", index)
		}
	case Temp:
		if index >= TempSize {
			return errors.Wrapf(ErrOutOfRange, "temp %d", index)
		}
	case Constant:
		if pop {
			return errors.Wrap(ErrOutOfRange, "pop constant")
		}
	case Local, Argument, This, That, Static:
	default:
		return errors.Wrapf(ErrInvalidSegment, "%s", segment)
	}
	return nil
}

// directAddress names the cell a static, pointer or temp access touches.
func (g *Generator) directAddress(segment Segment, index uint16) string {
	switch segment {
	case Static:
		if g.opts.Statics == StaticGlobal {
			return "static." + strconv.Itoa(int(index))
		}
		return g.unit + "." + strconv.Itoa(int(index))
	case Pointer:
		if index == 0 {
			return "THIS"
		}
		return "THAT"
	}
	return "R" + strconv.Itoa(5+int(index))
}

func (g *Generator) push(b *block, segment Segment, index uint16) error {
	if err := checkAccess(false, segment, index); err != nil {
		return err
	}

	switch segment {
	case Constant:
		b.loadA(index)
		b.emit("D=A")
	case Local, Argument, This, That:
		b.loadA(index)
		b.emit("D=A", "@"+segmentBase[segment], "A=D+M", "D=M")
	default:
		b.emit("@"+g.directAddress(segment, index), "D=M")
	}

	b.pushD()
	return nil
}

func (g *Generator) pop(b *block, segment Segment, index uint16) error {
	if err := checkAccess(true, segment, index); err != nil {
		return err
	}

	switch segment {
	case Local, Argument, This, That:
		b.loadA(index)
		b.emit("D=A", "@"+segmentBase[segment], "D=D+M", "@R13", "M=D")
		b.popD()
		b.emit("@R13", "A=M", "M=D")
	default:
		b.popD()
		b.emit("@"+g.directAddress(segment, index), "M=D")
	}
	return nil
}

func (g *Generator) function(b *block, name string, locals uint16) {
	b.emit("(" + name + ")")
	if locals == 0 {
		return
	}

	loop := name + ":locals.loop"
	end := name + ":locals.end"
	b.loadA(locals)
	b.emit("D=A")
	b.emit("(" + loop + ")")
	b.emit("@SP", "A=M", "M=0", "@SP", "M=M+1")
	b.emit("D=D-1", "@"+loop, "D;JNE")
	b.emit("(" + end + ")")
}

// frameSize is the number of words a call pushes between the arguments and
// the callee's locals: return address, LCL, ARG, THIS, THAT.
const frameSize = 5

var savedFrame = []string{"LCL", "ARG", "THIS", "THAT"}

func (g *Generator) call(b *block, callee string, args uint16, returnAddress string) {
	b.emit("@"+returnAddress, "D=A")
	b.pushD()
	for _, reg := range savedFrame {
		b.emit("@"+reg, "D=M")
		b.pushD()
	}

	// ARG = SP - 5 - args
	b.emit("@SP", "D=M", "@"+strconv.Itoa(frameSize), "D=D-A")
	b.loadA(args)
	b.emit("D=D-A", "@ARG", "M=D")

	// LCL = SP
	b.emit("@SP", "D=M", "@LCL", "M=D")

	b.emit("@"+callee, "0;JMP")
	b.emit("(" + returnAddress + ")")
}

func (g *Generator) ret(b *block) {
	// R13 = frame, R14 = return address
	b.emit("@LCL", "D=M", "@R13", "M=D")
	b.emit("@"+strconv.Itoa(frameSize), "A=D-A", "D=M", "@R14", "M=D")

	// *ARG = pop(), SP = ARG + 1
	b.popD()
	b.emit("@ARG", "A=M", "M=D")
	b.emit("D=A", "@SP", "M=D+1")

	for i := len(savedFrame) - 1; i >= 0; i-- {
		b.emit("@R13", "AM=M-1", "D=M", "@"+savedFrame[i], "M=D")
	}

	b.emit("@R14", "A=M", "0;JMP")
}
