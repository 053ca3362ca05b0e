package translator

import "fmt"

// Op is a stack arithmetic or logical operation.
type Op int

const (
	Add Op = iota
	Sub
	Neg
	Eq
	Gt
	Lt
	And
	Or
	Not
)

var opNames = [...]string{
	Add: "add",
	Sub: "sub",
	Neg: "neg",
	Eq:  "eq",
	Gt:  "gt",
	Lt:  "lt",
	And: "and",
	Or:  "or",
	Not: "not",
}

var opsByName = map[string]Op{
	"add": Add,
	"sub": Sub,
	"neg": Neg,
	"eq":  Eq,
	"gt":  Gt,
	"lt":  Lt,
	"and": And,
	"or":  Or,
	"not": Not,
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Segment is a VM memory segment addressed by push and pop.
type Segment int

const (
	Local Segment = iota
	Argument
	This
	That
	Constant
	Static
	Pointer
	Temp
)

var segmentNames = [...]string{
	Local:    "local",
	Argument: "argument",
	This:     "this",
	That:     "that",
	Constant: "constant",
	Static:   "static",
	Pointer:  "pointer",
	Temp:     "temp",
}

var segmentsByName = map[string]Segment{
	"local":    Local,
	"argument": Argument,
	"this":     This,
	"that":     That,
	"constant": Constant,
	"static":   Static,
	"pointer":  Pointer,
	"temp":     Temp,
}

func (s Segment) String() string {
	if int(s) >= 0 && int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// TempSize is the number of cells in the temp segment (R5..R12).
const TempSize = 8

// Pos locates a command in its translation unit. Synthesized commands carry
// the zero value.
type Pos struct {
	Line    int // 1-based source line of the keyword
	Ordinal int // zero-based index of the command within the unit
}

func (p Pos) Position() Pos { return p }

// Command is one parsed VM instruction. String renders it back as VM text,
// with labels in their function-qualified form.
type Command interface {
	fmt.Stringer
	Position() Pos
}

type Arithmetic struct {
	Pos
	Op Op
}

type Push struct {
	Pos
	Segment Segment
	Index   uint16
}

type Pop struct {
	Pos
	Segment Segment
	Index   uint16
}

// Label, Goto and IfGoto carry the function-qualified label name.
type Label struct {
	Pos
	Name string
}

type Goto struct {
	Pos
	Name string
}

type IfGoto struct {
	Pos
	Name string
}

type Function struct {
	Pos
	Name   string
	Locals uint16
}

// Call carries the return-address label synthesized by the parser.
type Call struct {
	Pos
	Callee        string
	Args          uint16
	ReturnAddress string
}

type Return struct {
	Pos
}

func (c Arithmetic) String() string { return c.Op.String() }
func (c Push) String() string       { return fmt.Sprintf("push %s %d", c.Segment, c.Index) }
func (c Pop) String() string        { return fmt.Sprintf("pop %s %d", c.Segment, c.Index) }
func (c Label) String() string      { return "label " + c.Name }
func (c Goto) String() string       { return "goto " + c.Name }
func (c IfGoto) String() string     { return "if-goto " + c.Name }
func (c Function) String() string   { return fmt.Sprintf("function %s %d", c.Name, c.Locals) }
func (c Call) String() string       { return fmt.Sprintf("call %s %d", c.Callee, c.Args) }
func (c Return) String() string     { return "return" }
