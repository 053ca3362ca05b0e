package main

import "github.com/hajimehoshi/ebiten/v2"

// Hack keyboard codes for keys without a printable character.
const (
	keyNewline   = 128
	keyBackspace = 129
	keyLeft      = 130
	keyUp        = 131
	keyRight     = 132
	keyDown      = 133
	keyHome      = 134
	keyEnd       = 135
	keyPageUp    = 136
	keyPageDown  = 137
	keyInsert    = 138
	keyDelete    = 139
	keyEscape    = 140
	keyF1        = 141
)

var specialKeys = []struct {
	key  ebiten.Key
	code uint16
}{
	{ebiten.KeyEnter, keyNewline},
	{ebiten.KeyBackspace, keyBackspace},
	{ebiten.KeyArrowLeft, keyLeft},
	{ebiten.KeyArrowUp, keyUp},
	{ebiten.KeyArrowRight, keyRight},
	{ebiten.KeyArrowDown, keyDown},
	{ebiten.KeyHome, keyHome},
	{ebiten.KeyEnd, keyEnd},
	{ebiten.KeyPageUp, keyPageUp},
	{ebiten.KeyPageDown, keyPageDown},
	{ebiten.KeyInsert, keyInsert},
	{ebiten.KeyDelete, keyDelete},
	{ebiten.KeyEscape, keyEscape},
	{ebiten.KeySpace, ' '},
	{ebiten.KeyMinus, '-'},
	{ebiten.KeyEqual, '='},
	{ebiten.KeyComma, ','},
	{ebiten.KeyPeriod, '.'},
	{ebiten.KeySlash, '/'},
	{ebiten.KeySemicolon, ';'},
}

// hackKey returns the Hack code of the first held key, or 0. Letters are
// reported upper case, as the Hack keyboard does.
func hackKey(pressed func(ebiten.Key) bool) uint16 {
	for _, k := range specialKeys {
		if pressed(k.key) {
			return k.code
		}
	}
	for i := 0; i < 26; i++ {
		if pressed(ebiten.KeyA + ebiten.Key(i)) {
			return uint16('A' + i)
		}
	}
	for i := 0; i < 10; i++ {
		if pressed(ebiten.KeyDigit0 + ebiten.Key(i)) {
			return uint16('0' + i)
		}
	}
	for i := 0; i < 12; i++ {
		if pressed(ebiten.KeyF1 + ebiten.Key(i)) {
			return uint16(keyF1 + i)
		}
	}
	return 0
}
