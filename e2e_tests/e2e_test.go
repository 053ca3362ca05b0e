package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/driver"
)

// build writes units into a fresh directory and builds it as one program.
func build(t *testing.T, units map[string]string) []uint16 {
	t.Helper()
	dir := t.TempDir()
	for name, src := range units {
		if err := os.WriteFile(filepath.Join(dir, name+".vm"), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	words, err := driver.New(config.Default(), log).Build(dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return words
}

func run(t *testing.T, words []uint16, setup func(vm *cpu.CPU)) *cpu.CPU {
	t.Helper()
	vm := cpu.NewCPU()
	if err := vm.Load(words); err != nil {
		t.Fatal(err)
	}
	if setup != nil {
		setup(vm)
	}
	if err := vm.RunFor(5_000_000); err != nil {
		t.Fatalf("program did not halt: %v (PC=%d)", err, vm.PC)
	}
	return vm
}

func expectRAM(t *testing.T, vm *cpu.CPU, want map[uint16]uint16) {
	t.Helper()
	for addr, v := range want {
		if got := vm.RAM[addr]; got != v {
			t.Errorf("RAM[%d] = %d (%d), want %d", addr, got, int16(got), int16(v))
		}
	}
}

func neg(v int16) uint16 { return uint16(v) }

func TestStaticsAcrossUnits(t *testing.T) {
	class := func(name string) string {
		return `
function ` + name + `.set 0
push argument 0
pop static 0
push argument 1
pop static 1
push constant 0
return

function ` + name + `.get 0
push static 0
push static 1
sub
return
`
	}

	words := build(t, map[string]string{
		"Class1": class("Class1"),
		"Class2": class("Class2"),
		"Sys": `
function Sys.init 0
push constant 6
push constant 8
call Class1.set 2
pop temp 0
push constant 23
push constant 15
call Class2.set 2
pop temp 0
call Class1.get 0
call Class2.get 0
label WHILE
goto WHILE
`,
	})

	vm := run(t, words, nil)
	expectRAM(t, vm, map[uint16]uint16{
		cpu.SP: 263,
		261:    neg(-2),
		262:    8,
	})
}

func TestNestedCall(t *testing.T) {
	words := build(t, map[string]string{"Sys": `
function Sys.init 0
push constant 4000
pop pointer 0
push constant 5000
pop pointer 1
call Sys.main 0
pop temp 1
label LOOP
goto LOOP

// locals 0 and 4 stay zero
function Sys.main 5
push constant 4001
pop pointer 0
push constant 5001
pop pointer 1
push constant 200
pop local 1
push constant 40
pop local 2
push constant 6
pop local 3
push constant 123
call Sys.add12 1
pop temp 0
push local 0
push local 1
push local 2
push local 3
push local 4
add
add
add
add
return

function Sys.add12 0
push constant 4002
pop pointer 0
push constant 5002
pop pointer 1
push argument 0
push constant 12
add
return
`})

	vm := run(t, words, nil)
	expectRAM(t, vm, map[uint16]uint16{
		cpu.SP:   261,
		cpu.LCL:  261,
		cpu.ARG:  256,
		cpu.THIS: 4000,
		cpu.THAT: 5000,
		5:        135,
		6:        246,
	})
}

func TestFibonacciSeries(t *testing.T) {
	words := build(t, map[string]string{
		"Main": `
// Writes the first argument(0) Fibonacci numbers from address argument(1).
function Main.series 0
push argument 1
pop pointer 1
push constant 0
pop that 0
push constant 1
pop that 1
push argument 0
push constant 2
sub
pop argument 0
label LOOP
push argument 0
if-goto COMPUTE
goto END
label COMPUTE
push that 0
push that 1
add
pop that 2
push pointer 1
push constant 1
add
pop pointer 1
push argument 0
push constant 1
sub
pop argument 0
goto LOOP
label END
push constant 0
return
`,
		"Sys": `
function Sys.init 0
push constant 8
push constant 3000
call Main.series 2
pop temp 0
label HALT
goto HALT
`,
	})

	vm := run(t, words, nil)
	want := []uint16{0, 1, 1, 2, 3, 5, 8, 13}
	for i, v := range want {
		if got := vm.RAM[3000+i]; got != v {
			t.Errorf("fib[%d] = %d, want %d", i, got, v)
		}
	}
	if vm.RAM[3008] != 0 {
		t.Errorf("series overran: RAM[3008] = %d", vm.RAM[3008])
	}
}

func TestComparisons(t *testing.T) {
	words := build(t, map[string]string{"Sys": `
function Sys.init 0
push constant 17
push constant 17
eq
push constant 892
push constant 891
lt
push constant 32767
push constant 32766
gt
push constant 1
neg
push constant 1
lt
push constant 57
push constant 31
push constant 53
add
push constant 112
sub
neg
and
push constant 82
or
not
label HALT
goto HALT
`})

	vm := run(t, words, nil)
	expectRAM(t, vm, map[uint16]uint16{
		cpu.SP: 266,
		261:    neg(-1),
		262:    0,
		263:    neg(-1),
		264:    neg(-1),
		265:    neg(-91),
	})
}

func TestScreenAndKeyboard(t *testing.T) {
	words := build(t, map[string]string{"Sys": `
function Sys.init 0
push constant 16384
pop pointer 1
push constant 0
not
pop that 0
push constant 24576
pop pointer 0
push this 0
pop static 0
label HALT
goto HALT
`})

	vm := run(t, words, func(vm *cpu.CPU) { vm.SetKey('K') })

	if vm.RAM[16] != 'K' {
		t.Errorf("Sys.0 = %d, want key code %d", vm.RAM[16], 'K')
	}
	pixels := vm.GetFramebufferRGBA()
	for x := 0; x < 16; x++ {
		if pixels[x*4] != 0x00 {
			t.Errorf("pixel %d not black", x)
		}
	}
	if pixels[16*4] != 0xFF {
		t.Errorf("pixel 16 should stay white")
	}
}
