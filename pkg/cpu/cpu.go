package cpu

import (
	"errors"
	"fmt"
)

// Memory map of the Hack platform. All addresses are word addresses.
const (
	ROMSize = 32768
	RAMSize = 32768

	ScreenBase  uint16 = 0x4000
	ScreenWords        = 8192
	KBD         uint16 = 0x6000
)

// Reserved RAM cells used by the VM calling convention.
const (
	SP   uint16 = 0
	LCL  uint16 = 1
	ARG  uint16 = 2
	THIS uint16 = 3
	THAT uint16 = 4
	R13  uint16 = 13
	R14  uint16 = 14
	R15  uint16 = 15
)

// Instruction fields of a C-instruction: 111a cccc ccdd djjj.
const (
	CInstruction uint16 = 0xE000
	ABit         uint16 = 0x1000

	DestM uint16 = 0x1
	DestD uint16 = 0x2
	DestA uint16 = 0x4

	JGT uint16 = 0x1
	JEQ uint16 = 0x2
	JGE uint16 = 0x3
	JLT uint16 = 0x4
	JNE uint16 = 0x5
	JLE uint16 = 0x6
	JMP uint16 = 0x7
)

// ErrCycleLimit is returned by RunFor when the program is still running after
// the allotted number of cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	ROM [ROMSize]uint16
	RAM [RAMSize]uint16

	// ProgramSize is the number of ROM words loaded by Load. Execution past it
	// halts the machine instead of running through zeroed ROM.
	ProgramSize int

	Halted bool
	Cycles uint64
}

// NewCPU creates a machine with cleared memory and PC at 0.
func NewCPU() *CPU {
	return &CPU{}
}

// Load copies program words into ROM and resets the registers. RAM is kept so
// callers can preload data before running.
func (c *CPU) Load(program []uint16) error {
	if len(program) > ROMSize {
		return fmt.Errorf("program of %d words does not fit in ROM (%d words)", len(program), ROMSize)
	}
	c.ROM = [ROMSize]uint16{}
	copy(c.ROM[:], program)
	c.ProgramSize = len(program)
	c.Reset()
	return nil
}

// Reset clears the registers and the halted flag.
func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Halted = false
	c.Cycles = 0
}

// Read16 reads a RAM word. Addresses wrap to the 15-bit address space.
func (c *CPU) Read16(addr uint16) uint16 {
	return c.RAM[addr&0x7FFF]
}

// Write16 writes a RAM word. The keyboard register is read-only for programs.
func (c *CPU) Write16(addr uint16, val uint16) {
	addr &= 0x7FFF
	if addr == KBD {
		return
	}
	c.RAM[addr] = val
}

// SetKey publishes the currently pressed key in the keyboard register; 0
// means no key.
func (c *CPU) SetKey(code uint16) {
	c.RAM[KBD] = code
}

// StackTop returns the word just below the stack pointer.
func (c *CPU) StackTop() uint16 {
	return c.RAM[(c.RAM[SP]-1)&0x7FFF]
}

// Compute evaluates the Hack ALU for the six control bits zx nx zy ny f no.
func Compute(x, y uint16, control uint16) uint16 {
	if control&0x20 != 0 {
		x = 0
	}
	if control&0x10 != 0 {
		x = ^x
	}
	if control&0x08 != 0 {
		y = 0
	}
	if control&0x04 != 0 {
		y = ^y
	}
	var out uint16
	if control&0x02 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if control&0x01 != 0 {
		out = ^out
	}
	return out
}

func jumps(cond uint16, out uint16) bool {
	neg := out&0x8000 != 0
	zero := out == 0
	switch cond {
	case JGT:
		return !neg && !zero
	case JEQ:
		return zero
	case JGE:
		return !neg
	case JLT:
		return neg
	case JNE:
		return !zero
	case JLE:
		return neg || zero
	case JMP:
		return true
	}
	return false
}

func (c *CPU) Step() {
	if c.Halted {
		return
	}
	if int(c.PC) >= c.ProgramSize {
		c.Halted = true
		return
	}

	pc := c.PC
	instr := c.ROM[pc]
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
		c.PC++
		return
	}

	comp := (instr >> 6) & 0x7F
	dest := (instr >> 3) & 0x7
	jump := instr & 0x7

	y := c.A
	if comp&0x40 != 0 {
		y = c.Read16(c.A)
	}
	out := Compute(c.D, y, comp&0x3F)

	addr := c.A
	if dest&DestM != 0 {
		c.Write16(addr, out)
	}
	if dest&DestA != 0 {
		c.A = out
	}
	if dest&DestD != 0 {
		c.D = out
	}

	if !jumps(jump, out) {
		c.PC++
		return
	}

	target := c.A & 0x7FFF
	// The conventional end-of-program idiom is "@END / 0;JMP" where @END
	// loads its own address, or any unconditional jump to itself.
	if jump == JMP && dest == 0 {
		if target == pc || (target == pc-1 && c.ROM[target] == target) {
			c.Halted = true
		}
	}
	c.PC = target
}

func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunFor executes at most max instructions and reports ErrCycleLimit if the
// program has not halted by then.
func (c *CPU) RunFor(max uint64) error {
	for i := uint64(0); i < max; i++ {
		if c.Halted {
			return nil
		}
		c.Step()
	}
	if c.Halted {
		return nil
	}
	return ErrCycleLimit
}

// EncodeInstruction builds a C-instruction from a 7-bit comp field (a-bit
// included), a dest mask and a jump condition.
func EncodeInstruction(comp, dest, jump uint16) uint16 {
	return CInstruction | (comp&0x7F)<<6 | (dest&0x7)<<3 | jump&0x7
}
