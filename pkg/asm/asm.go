package asm

import (
	"fmt"
	"hackvm/pkg/cpu"
	"strconv"
	"strings"
	"unicode"
)

// firstVariable is the RAM address handed to the first undeclared symbol.
const firstVariable = 16

var predefinedSymbols = map[string]uint16{
	"SP":     cpu.SP,
	"LCL":    cpu.LCL,
	"ARG":    cpu.ARG,
	"THIS":   cpu.THIS,
	"THAT":   cpu.THAT,
	"SCREEN": cpu.ScreenBase,
	"KBD":    cpu.KBD,
}

func init() {
	for i := uint16(0); i < 16; i++ {
		predefinedSymbols["R"+strconv.Itoa(int(i))] = i
	}
}

// compCodes maps the canonical comp mnemonics to their 7-bit a+c field.
var compCodes = map[string]uint16{
	"0":   0x2A,
	"1":   0x3F,
	"-1":  0x3A,
	"D":   0x0C,
	"A":   0x30,
	"!D":  0x0D,
	"!A":  0x31,
	"-D":  0x0F,
	"-A":  0x33,
	"D+1": 0x1F,
	"A+1": 0x37,
	"D-1": 0x0E,
	"A-1": 0x32,
	"D+A": 0x02,
	"D-A": 0x13,
	"A-D": 0x07,
	"D&A": 0x00,
	"D|A": 0x15,
	"M":   0x70,
	"!M":  0x71,
	"-M":  0x73,
	"M+1": 0x77,
	"M-1": 0x72,
	"D+M": 0x42,
	"D-M": 0x53,
	"M-D": 0x47,
	"D&M": 0x40,
	"D|M": 0x55,
}

// commutedComps accepts operand-swapped spellings of commutative operations.
var commutedComps = map[string]string{
	"A+D": "D+A",
	"A&D": "D&A",
	"A|D": "D|A",
	"M+D": "D+M",
	"M&D": "D&M",
	"M|D": "D|M",
	"1+D": "D+1",
	"1+A": "A+1",
	"1+M": "M+1",
}

var jumpCodes = map[string]uint16{
	"JGT": cpu.JGT,
	"JEQ": cpu.JEQ,
	"JGE": cpu.JGE,
	"JLT": cpu.JLT,
	"JNE": cpu.JNE,
	"JLE": cpu.JLE,
	"JMP": cpu.JMP,
}

type lineKind int

const (
	kindEmpty lineKind = iota
	kindLabel
	kindA
	kindC
)

type parsedLine struct {
	lineNo int
	kind   lineKind
	symbol string // label name or A-instruction operand
	dest   string
	comp   string
	jump   string
}

type Assembler struct {
	symbols      map[string]uint16
	nextVariable uint16
}

func NewAssembler() *Assembler {
	a := &Assembler{
		symbols:      make(map[string]uint16, len(predefinedSymbols)),
		nextVariable: firstVariable,
	}
	for k, v := range predefinedSymbols {
		a.symbols[k] = v
	}
	return a
}

// Assemble translates Hack assembly into ROM words. The returned source map
// associates each ROM address with its 1-based source line.
func Assemble(code string) ([]uint16, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]uint16, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	parsed, err := a.pass1(lines)
	if err != nil {
		return nil, nil, err
	}

	return a.pass2(parsed)
}

func (a *Assembler) pass1(lines []string) ([]parsedLine, error) {
	var address uint32
	labels := make(map[string]bool)
	parsed := make([]parsedLine, 0, len(lines))

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		switch p.kind {
		case kindEmpty:
			continue
		case kindLabel:
			if address >= cpu.ROMSize {
				return nil, fmt.Errorf("label '%s' on line %d points past ROM", p.symbol, lineNo)
			}
			if _, predefined := predefinedSymbols[p.symbol]; predefined {
				return nil, fmt.Errorf("label '%s' on line %d redefines a predefined symbol", p.symbol, lineNo)
			}
			if labels[p.symbol] {
				return nil, fmt.Errorf("duplicate label '%s' on line %d", p.symbol, lineNo)
			}
			labels[p.symbol] = true
			a.symbols[p.symbol] = uint16(address)
		default:
			if address >= cpu.ROMSize {
				return nil, fmt.Errorf("program too large near line %d", lineNo)
			}
			address++
		}
		parsed = append(parsed, p)
	}

	return parsed, nil
}

func (a *Assembler) pass2(parsed []parsedLine) ([]uint16, map[uint16]int, error) {
	program := make([]uint16, 0, len(parsed))
	sourceMap := make(map[uint16]int)

	for _, p := range parsed {
		switch p.kind {
		case kindA:
			val, err := a.resolve(p.symbol, p.lineNo)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, val)

		case kindC:
			instr, err := encodeC(p)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, instr)
		}
	}

	return program, sourceMap, nil
}

// resolve returns the value of an A-instruction operand, allocating a new
// variable for symbols that are neither predefined nor labels.
func (a *Assembler) resolve(token string, lineNo int) (uint16, error) {
	if token[0] >= '0' && token[0] <= '9' {
		value, err := strconv.ParseUint(token, 10, 16)
		if err != nil || value > 0x7FFF {
			return 0, fmt.Errorf("constant out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.symbols[token]; ok {
		return addr, nil
	}

	if a.nextVariable >= cpu.ScreenBase {
		return 0, fmt.Errorf("out of variable space at '%s' on line %d", token, lineNo)
	}
	addr := a.nextVariable
	a.symbols[token] = addr
	a.nextVariable++
	return addr, nil
}

func encodeC(p parsedLine) (uint16, error) {
	comp := p.comp
	if canonical, ok := commutedComps[comp]; ok {
		comp = canonical
	}
	c, ok := compCodes[comp]
	if !ok {
		return 0, fmt.Errorf("invalid computation '%s' on line %d", p.comp, p.lineNo)
	}

	var dest uint16
	for _, r := range p.dest {
		var bit uint16
		switch r {
		case 'A':
			bit = cpu.DestA
		case 'D':
			bit = cpu.DestD
		case 'M':
			bit = cpu.DestM
		default:
			return 0, fmt.Errorf("invalid destination '%s' on line %d", p.dest, p.lineNo)
		}
		if dest&bit != 0 {
			return 0, fmt.Errorf("repeated destination '%s' on line %d", p.dest, p.lineNo)
		}
		dest |= bit
	}

	var jump uint16
	if p.jump != "" {
		j, ok := jumpCodes[p.jump]
		if !ok {
			return 0, fmt.Errorf("invalid jump '%s' on line %d", p.jump, p.lineNo)
		}
		jump = j
	}

	return cpu.EncodeInstruction(c, dest, jump), nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := stripComments(raw)
	line = strings.Join(strings.Fields(line), "")
	if line == "" {
		return p, nil
	}

	switch {
	case line[0] == '(':
		if !strings.HasSuffix(line, ")") {
			return p, fmt.Errorf("unterminated label on line %d", lineNo)
		}
		name := line[1 : len(line)-1]
		if !isIdentifier(name) {
			return p, fmt.Errorf("invalid label '%s' on line %d", name, lineNo)
		}
		p.kind = kindLabel
		p.symbol = name

	case line[0] == '@':
		operand := line[1:]
		if operand == "" {
			return p, fmt.Errorf("missing operand on line %d", lineNo)
		}
		if !isNumber(operand) && !isIdentifier(operand) {
			return p, fmt.Errorf("invalid operand '%s' on line %d", operand, lineNo)
		}
		p.kind = kindA
		p.symbol = operand

	default:
		p.kind = kindC
		rest := line
		if eq := strings.IndexByte(rest, '='); eq >= 0 {
			p.dest = rest[:eq]
			rest = rest[eq+1:]
			if p.dest == "" {
				return p, fmt.Errorf("empty destination on line %d", lineNo)
			}
		}
		if semi := strings.IndexByte(rest, ';'); semi >= 0 {
			p.jump = rest[semi+1:]
			rest = rest[:semi]
			if p.jump == "" {
				return p, fmt.Errorf("empty jump on line %d", lineNo)
			}
		}
		p.comp = rest
		if p.comp == "" {
			return p, fmt.Errorf("missing computation on line %d", lineNo)
		}
	}

	return p, nil
}

func stripComments(line string) string {
	if cut := strings.Index(line, "//"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// isIdentifier reports whether s is a valid Hack symbol: letters, digits,
// '_', '.', '$' and ':', not starting with a digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_.$:", r) {
			return false
		}
	}

	return true
}
