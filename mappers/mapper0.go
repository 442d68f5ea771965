package mappers

import "github.com/bdwalton/nescore/ines"

func init() {
	register(0, newNROM)
}

// nrom is mapper 0: no bank switching. A single 16KiB PRG bank is
// mirrored across both halves of $8000-$FFFF; two banks map
// contiguously. CHR is a fixed 8KiB window, RAM if the cartridge
// carries no CHR ROM.
type nrom struct {
	cart    *ines.Cartridge
	prgMask uint32 // PRG address mask; handles the single-bank mirror
}

func newNROM(c *ines.Cartridge) Mapper {
	mask := uint32(len(c.PRG) - 1)
	return &nrom{cart: c, prgMask: mask}
}

func (m *nrom) PrgRead(addr uint16) uint8 {
	off := uint32(addr-0x8000) & m.prgMask
	return m.cart.PRG[off]
}

// PrgWrite is a no-op: NROM has no registers and no writable PRG.
func (m *nrom) PrgWrite(addr uint16, val uint8) {}

func (m *nrom) ChrRead(addr uint16) uint8 {
	return m.cart.CHR[addr]
}

func (m *nrom) ChrWrite(addr uint16, val uint8) {
	if m.cart.ChrIsRAM {
		m.cart.CHR[addr] = val
	}
}

func (m *nrom) MirroringMode() ines.Mirroring {
	return m.cart.Mirroring
}

func (m *nrom) HasSaveRAM() bool {
	return m.cart.Battery
}
