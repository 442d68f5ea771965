package console

import (
	"errors"
	"testing"

	"github.com/bdwalton/nescore/ppu"
)

const (
	iNESMagic   = "NES\x1A"
	prgBankSize = 16 * 1024
	chrBankSize = 8 * 1024
)

// buildROM assembles a minimal one-bank NROM image with prg at $8000
// and a reset vector pointing there, so Load/Step have something
// well-defined to execute.
func buildROM(prg []byte) []byte {
	buf := make([]byte, 0, 16+prgBankSize+chrBankSize)
	buf = append(buf, []byte(iNESMagic)...)
	buf = append(buf, 1, 1, 0, 0)
	buf = append(buf, make([]byte, 8)...)

	prgImage := make([]byte, prgBankSize)
	copy(prgImage, prg)
	// Reset vector at the end of the bank ($FFFC/$FFFD -> $8000).
	prgImage[prgBankSize-4] = 0x00
	prgImage[prgBankSize-3] = 0x80
	buf = append(buf, prgImage...)
	buf = append(buf, make([]byte, chrBankSize)...)
	return buf
}

type fakeSink struct {
	presented [][]ppu.Color
	buttons   [2]uint8
	quit      bool
}

func (f *fakeSink) Present(px []ppu.Color) {
	cp := make([]ppu.Color, len(px))
	copy(cp, px)
	f.presented = append(f.presented, cp)
}
func (f *fakeSink) PollButtons(port int) uint8 { return f.buttons[port] }
func (f *fakeSink) ShouldQuit() bool           { return f.quit }

func TestLoadRejectsBadHeader(t *testing.T) {
	c := New(&fakeSink{})
	if err := c.Load([]byte{'N', 'O', 'P', 'E'}); err == nil {
		t.Errorf("Load() = nil error, want invalid ROM error")
	}
}

func TestLoadAndStepExecutesInstructions(t *testing.T) {
	// JMP $8000, an infinite loop, at the reset vector.
	rom := buildROM([]byte{0x4C, 0x00, 0x80})

	c := New(&fakeSink{})
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	n, err := c.Step()
	if err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	if n != 3 {
		t.Errorf("Step() cycles = %d, want 3 (JMP absolute)", n)
	}
	if got := c.CPURegisters().PC; got != 0x8000 {
		t.Errorf("PC after JMP = 0x%04x, want 0x8000", got)
	}
}

func TestStepAdvancesPPUThreeDotsPerCycle(t *testing.T) {
	rom := buildROM([]byte{0x4C, 0x00, 0x80})
	c := New(&fakeSink{})
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	startDot, startLine := c.PPU().Dot(), c.PPU().Scanline()
	n, err := c.Step()
	if err != nil {
		t.Fatalf("Step() = %v", err)
	}

	wantDots := startDot + 3*n
	gotDots := c.PPU().Dot()
	if startLine != c.PPU().Scanline() {
		// crossed a scanline boundary; just sanity check total elapsed
		// dots via frame-relative accounting isn't worth the complexity
		// here, so only assert same-scanline steps exactly.
		return
	}
	if gotDots != wantDots {
		t.Errorf("ppu dot = %d, want %d (3x%d)", gotDots, wantDots, n)
	}
}

func TestOAMDMAStallParity(t *testing.T) {
	// STA $4014 triggers DMA from page $02.
	rom := buildROM([]byte{
		0xA9, 0x02, // LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x05, 0x80, // JMP $8005 (settle into a loop)
	})
	c := New(&fakeSink{})
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	// LDA #$02 costs 2 cycles starting from 0, leaving an even count
	// at the moment STA $4014 runs.
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	before := c.bus.cpu.Cycles()
	wantStall := 513
	if before%2 != 0 {
		wantStall = 514
	}

	if _, err := c.Step(); err != nil { // STA $4014, triggers DMA
		t.Fatalf("Step() = %v", err)
	}

	for i := 0; i < wantStall; i++ {
		n, err := c.Step()
		if err != nil {
			t.Fatalf("Step() during stall = %v", err)
		}
		if n != 1 {
			t.Fatalf("stall step %d returned %d cycles, want 1", i, n)
		}
	}
}

func TestBusFaultPropagatesAsError(t *testing.T) {
	// LDA $4018 (absolute): reading the CPU test region should
	// surface as ErrBusFault from Step, not crash the test binary.
	rom := buildROM([]byte{0xAD, 0x18, 0x40})
	c := New(&fakeSink{})
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	_, err := c.Step()
	if !errors.Is(err, ErrBusFault) {
		t.Fatalf("Step() = %v, want ErrBusFault", err)
	}
}

func TestVblankNMIDeliveredOncePerFrame(t *testing.T) {
	rom := buildROM([]byte{
		0xA9, 0x80, // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000 (enable NMI at vblank)
		0x4C, 0x05, 0x80, // JMP $8005
	})
	// NMI handler at $8010: INC $10 / RTI, plus the NMI vector
	// ($FFFA/$FFFB) pointing at it.
	const hdr = 16
	rom[hdr+0x10] = 0xE6
	rom[hdr+0x11] = 0x10
	rom[hdr+0x12] = 0x40
	rom[hdr+prgBankSize-6] = 0x10
	rom[hdr+prgBankSize-5] = 0x80

	c := New(&fakeSink{})
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	// The PPU powers on past vblank, so the first frame delivers no
	// NMI; each of the following three does, at scanline 241 dot 1.
	for i := 0; i < 4; i++ {
		if err := c.StepFrame(); err != nil {
			t.Fatalf("StepFrame %d = %v", i, err)
		}
	}
	if got := c.Peek(0x0010); got != 3 {
		t.Errorf("NMI handler ran %d times, want 3", got)
	}
}

func TestStepFrameReturnsFrameSinkClosed(t *testing.T) {
	rom := buildROM([]byte{0x4C, 0x00, 0x80})
	sink := &fakeSink{quit: true}
	c := New(sink)
	if err := c.Load(rom); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if err := c.StepFrame(); !errors.Is(err, ErrFrameSinkClosed) {
		t.Errorf("StepFrame() = %v, want ErrFrameSinkClosed", err)
	}
}
