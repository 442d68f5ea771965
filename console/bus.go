package console

import (
	"github.com/bdwalton/nescore/controller"
	"github.com/bdwalton/nescore/ines"
	"github.com/bdwalton/nescore/mappers"
	"github.com/bdwalton/nescore/mos6502"
	"github.com/bdwalton/nescore/ppu"
)

// Memory map boundaries, as seen by the CPU.
// https://www.nesdev.org/wiki/CPU_memory_map
const (
	ramSize      = 0x0800
	ramMirror    = 0x1FFF
	ppuRegMirror = 0x3FFF
	apuIOEnd     = 0x4017
	cpuTestEnd   = 0x401F
	cartStart    = 0x4020

	oamDMAReg = 0x4014
	joy1Reg   = 0x4016
	joy2Reg   = 0x4017
)

// Bus arbitrates every CPU-visible memory access across RAM, the PPU's
// registers, the controller ports, OAM DMA and the cartridge mapper. It
// also backs the PPU's own bus contract (CHR access, mirroring, NMI
// signalling), closing the CPU<->PPU reference loop rooted at the
// Console.
type Bus struct {
	cpu    *mos6502.CPU
	ppu    *ppu.PPU
	mapper mappers.Mapper
	ram    [ramSize]uint8
	ctrl   [2]*controller.Controller

	openBus uint8
}

// newBus constructs a Bus and wires the CPU and PPU to it in the
// two-phase sequence the cyclic Bus<->CPU<->PPU reference requires:
// the Bus exists first (so it can be handed to both cores), then the
// PPU and CPU are built against it.
func newBus(m mappers.Mapper, sink FrameSink) *Bus {
	b := &Bus{mapper: m}
	b.ctrl[0] = controller.New(func() uint8 { return sink.PollButtons(0) })
	b.ctrl[1] = controller.New(func() uint8 { return sink.PollButtons(1) })
	b.ppu = ppu.New(b)
	b.cpu = mos6502.New(b)
	return b
}

// ChrRead/ChrWrite/Mirroring/TriggerNMI satisfy ppu.Bus.

func (b *Bus) ChrRead(addr uint16) uint8       { return b.mapper.ChrRead(addr) }
func (b *Bus) ChrWrite(addr uint16, val uint8) { b.mapper.ChrWrite(addr, val) }
func (b *Bus) Mirroring() ines.Mirroring       { return b.mapper.MirroringMode() }
func (b *Bus) TriggerNMI()                     { b.cpu.TriggerNMI() }

// Read satisfies mos6502.Bus: every CPU memory access in the system
// passes through here.
func (b *Bus) Read(addr uint16) uint8 {
	var v uint8
	switch {
	case addr <= ramMirror:
		v = b.ram[addr&0x07FF]
	case addr <= ppuRegMirror:
		v = b.ppu.ReadReg(addr & 0x2007)
	case addr == joy1Reg:
		v = (b.ctrl[0].Read() & 0x01) | (b.openBus &^ 0x01)
	case addr == joy2Reg:
		v = (b.ctrl[1].Read() & 0x01) | (b.openBus &^ 0x01)
	case addr <= apuIOEnd:
		v = 0 // APU region: open-bus simplification, no APU in scope
	case addr <= cpuTestEnd:
		panic(busFault{addr: addr})
	case addr < cartStart:
		v = 0 // unused I/O expansion space
	default:
		v = b.mapper.PrgRead(addr)
	}
	b.openBus = v
	return v
}

// Write satisfies mos6502.Bus.
func (b *Bus) Write(addr uint16, val uint8) {
	b.openBus = val
	switch {
	case addr <= ramMirror:
		b.ram[addr&0x07FF] = val
	case addr <= ppuRegMirror:
		b.ppu.WriteReg(addr&0x2007, val)
	case addr == oamDMAReg:
		b.oamDMA(val)
	case addr == joy1Reg:
		strobe := val&0x01 != 0
		b.ctrl[0].WriteStrobe(strobe)
		b.ctrl[1].WriteStrobe(strobe)
	case addr <= apuIOEnd:
		// APU register writes: no-op, APU is out of scope
	case addr <= cpuTestEnd:
		panic(busFault{addr: addr, write: true})
	case addr < cartStart:
		// unused I/O expansion space
	default:
		b.mapper.PrgWrite(addr, val)
	}
}

// oamDMA copies 256 bytes starting at page val<<8 into OAM, starting
// at the PPU's current OAM address, and stalls the CPU by 513 cycles
// (514 if DMA started on an odd CPU cycle).
func (b *Bus) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.ppu.WriteOAMByte(b.Read(base + uint16(i)))
	}

	stall := 513
	if b.cpu.Cycles()%2 != 0 {
		stall = 514
	}
	b.cpu.Stall(stall)
}
