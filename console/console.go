// Package console implements the NES "motherboard": the shared Bus,
// the owning Console shell that steps the CPU and PPU in lockstep, and
// a small BIOS inspection REPL over the shell's public surface.
package console

import (
	"fmt"

	"github.com/bdwalton/nescore/ines"
	"github.com/bdwalton/nescore/mappers"
	"github.com/bdwalton/nescore/mos6502"
	"github.com/bdwalton/nescore/ppu"
)

// FrameSink is the external collaborator contract the Console drives
// against: it receives completed frames and supplies live input and
// shutdown state. Window creation, key mapping and surface blitting
// are all the sink's concern, not the Console's.
type FrameSink interface {
	// Present is called once per completed visible region, with a
	// 256x240 row-major slice of RGBA pixels the sink must not retain
	// past the call (the Console overwrites it in place next frame).
	Present(pixels []ppu.Color)
	// PollButtons returns the live 8-bit button mask for port 0 or 1.
	PollButtons(port int) uint8
	// ShouldQuit is polled once per Step; when true StepFrame returns
	// ErrFrameSinkClosed.
	ShouldQuit() bool
}

// Console owns the Cartridge, Mapper, Bus, CPU and PPU for one loaded
// game. It is the sole root of the Bus<->CPU<->PPU reference cycle:
// nothing else in this package holds a package-level reference to any
// of them.
type Console struct {
	sink FrameSink
	cart *ines.Cartridge
	bus  *Bus

	lastScanline int
}

// New constructs a Console driven by sink. Call Load before stepping.
func New(sink FrameSink) *Console {
	return &Console{sink: sink, lastScanline: -1}
}

// Load parses rom as an iNES image, selects its mapper, and installs a
// freshly constructed Cartridge/Bus/CPU/PPU, replacing anything
// previously loaded. Load errors (bad header, unsupported mapper) are
// returned to the caller; once loaded, only Step/StepFrame can fail.
func (c *Console) Load(rom []byte) error {
	cart, err := ines.Load(rom)
	if err != nil {
		return err
	}
	m, err := mappers.Get(cart)
	if err != nil {
		return err
	}

	c.cart = cart
	c.bus = newBus(m, c.sink)
	c.lastScanline = c.bus.ppu.Scanline()
	return nil
}

// Reset re-reads the reset vector and restores CPU power-up register
// state, per the 6502's documented reset behavior. RAM and VRAM
// contents are left as-is (implementation-defined but reproducible).
func (c *Console) Reset() {
	if c.bus == nil {
		return
	}
	c.bus.cpu.Reset()
}

// Step runs exactly one unit of CPU work (an interrupt entry, a stall
// cycle, or one instruction) and advances the PPU 3 dots per elapsed
// CPU cycle, the NTSC ratio the whole timing contract depends on. It
// returns the number of CPU cycles elapsed.
//
// A bus fault (access to the unmapped $4018-$401F CPU test region) is
// recovered here and reported as ErrBusFault; any other error from the
// CPU (an unrecognized opcode) is returned unchanged. Either leaves the
// Console not safely resumable: callers should stop stepping this
// Console after an error.
func (c *Console) Step() (n int, err error) {
	if c.bus == nil {
		return 0, fmt.Errorf("console: Step called before Load")
	}

	defer func() {
		if r := recover(); r != nil {
			bf, ok := r.(busFault)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: $%04X", ErrBusFault, bf.addr)
		}
	}()

	n, err = c.bus.cpu.Step()
	if err != nil {
		return 0, err
	}
	c.bus.ppu.Tick(3 * n)
	return n, nil
}

// StepFrame runs the Console until one complete frame has been handed
// to the sink's Present, which fires only on entry to the post-render
// scanline: a frame boundary is the only place StepFrame returns
// control to the caller mid-emulation.
func (c *Console) StepFrame() error {
	if c.bus == nil {
		return fmt.Errorf("console: StepFrame called before Load")
	}

	for {
		if c.sink != nil && c.sink.ShouldQuit() {
			return ErrFrameSinkClosed
		}

		if _, err := c.Step(); err != nil {
			return err
		}

		sl := c.bus.ppu.Scanline()
		entered := sl == ppu.PostRenderScanline && c.lastScanline != ppu.PostRenderScanline
		c.lastScanline = sl
		if entered {
			if c.sink != nil {
				c.sink.Present(c.bus.ppu.GetPixels())
			}
			return nil
		}
	}
}

// CPURegisters snapshots the CPU's visible register state, for
// tracing and inspection.
func (c *Console) CPURegisters() mos6502.Registers {
	return c.bus.cpu.Registers()
}

// CPUTrace renders the nestest.log-style line for the instruction
// about to execute.
func (c *Console) CPUTrace() string {
	return c.bus.cpu.Trace()
}

// Peek reads a CPU-visible address without side effects observable to
// the running program beyond what a real read would cause (PPUDATA's
// buffer churns, $2002's vblank-clear fires, exactly as on hardware):
// it is a real Read, not a side-effect-free debugger peek. Used by the
// BIOS REPL's memory dump.
func (c *Console) Peek(addr uint16) uint8 {
	return c.bus.Read(addr)
}

// PPU exposes the PPU for inspection (BIOS REPL dumps, tests). Callers
// outside this package should not mutate PPU state directly; Step is
// the only sanctioned way to advance it.
func (c *Console) PPU() *ppu.PPU { return c.bus.ppu }
