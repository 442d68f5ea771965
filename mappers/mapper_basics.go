// Package mappers implements and registers mappers that are
// referenced numerically by iNES ROM headers.
package mappers

import (
	"fmt"

	"github.com/bdwalton/nescore/ines"
)

// Mapper is the only coupling between the cartridge and the rest of
// the system: translate a CPU or PPU bus address into a byte.
type Mapper interface {
	PrgRead(addr uint16) uint8
	PrgWrite(addr uint16, val uint8)
	ChrRead(addr uint16) uint8
	ChrWrite(addr uint16, val uint8)
	MirroringMode() ines.Mirroring
	HasSaveRAM() bool
}

// ErrUnsupportedMapper is wrapped with the offending mapper id and
// returned by Get when no constructor is registered for it.
var ErrUnsupportedMapper = fmt.Errorf("unsupported mapper")

type constructor func(*ines.Cartridge) Mapper

var registry = map[uint8]constructor{}

// register associates a mapper id with a constructor. Called from
// package init() in each mapperN.go file.
func register(id uint8, c constructor) {
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("mappers: id %d already registered", id))
	}
	registry[id] = c
}

// Get constructs the Mapper appropriate for the cartridge's header
// mapper id.
func Get(c *ines.Cartridge) (Mapper, error) {
	ctor, ok := registry[c.MapperID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnsupportedMapper, c.MapperID)
	}
	return ctor(c), nil
}
