package main

import (
	"strings"

	"hackvm/pkg/cpu"
)

// renderScreen draws the Hack screen as text, one character per cellW×cellH
// block of pixels: '#' when any pixel in the block is black. Blank rows at
// the bottom are dropped.
func renderScreen(vm *cpu.CPU, cellW, cellH int) string {
	cols := cpu.ScreenWidth / cellW
	rows := cpu.ScreenHeight / cellH

	lines := make([]string, rows)
	last := -1
	for r := 0; r < rows; r++ {
		var sb strings.Builder
		sb.Grow(cols + 1)
		for c := 0; c < cols; c++ {
			if blockSet(vm, c*cellW, r*cellH, cellW, cellH) {
				sb.WriteByte('#')
				last = r
			} else {
				sb.WriteByte('.')
			}
		}
		lines[r] = sb.String()
	}

	if last < 0 {
		return ""
	}
	return strings.Join(lines[:last+1], "\n") + "\n"
}

func blockSet(vm *cpu.CPU, x0, y0, w, h int) bool {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			word := vm.RAM[int(cpu.ScreenBase)+y*(cpu.ScreenWidth/16)+x/16]
			if word&(1<<(x%16)) != 0 {
				return true
			}
		}
	}
	return false
}
