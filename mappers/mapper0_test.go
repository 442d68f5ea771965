package mappers

import (
	"testing"

	"github.com/bdwalton/nescore/ines"
)

func cartWithPRG(banks int) *ines.Cartridge {
	prg := make([]byte, banks*16*1024)
	for i := range prg {
		prg[i] = byte(i)
	}
	return &ines.Cartridge{PRG: prg, CHR: make([]byte, 8*1024), ChrIsRAM: true}
}

func TestNROMSingleBankMirrors(t *testing.T) {
	c := cartWithPRG(1)
	m, err := Get(&ines.Cartridge{PRG: c.PRG, CHR: c.CHR, ChrIsRAM: true, MapperID: 0})
	if err != nil {
		t.Fatalf("Get() = %v, want nil", err)
	}

	if got, want := m.PrgRead(0x8000), c.PRG[0]; got != want {
		t.Errorf("PrgRead(0x8000) = %d, want %d", got, want)
	}
	if got, want := m.PrgRead(0xC000), c.PRG[0]; got != want {
		t.Errorf("PrgRead(0xC000) = %d, want %d (mirrors first bank)", got, want)
	}
	if got, want := m.PrgRead(0xFFFF), c.PRG[0x3FFF]; got != want {
		t.Errorf("PrgRead(0xFFFF) = %d, want %d", got, want)
	}
}

func TestNROMTwoBanksContiguous(t *testing.T) {
	c := cartWithPRG(2)
	m, _ := Get(&ines.Cartridge{PRG: c.PRG, CHR: c.CHR, ChrIsRAM: true, MapperID: 0})

	if got, want := m.PrgRead(0x8000), c.PRG[0]; got != want {
		t.Errorf("PrgRead(0x8000) = %d, want %d", got, want)
	}
	if got, want := m.PrgRead(0xC000), c.PRG[0x4000]; got != want {
		t.Errorf("PrgRead(0xC000) = %d, want %d (second bank, no mirror)", got, want)
	}
}

func TestNROMPrgWriteIgnored(t *testing.T) {
	c := cartWithPRG(1)
	m, _ := Get(&ines.Cartridge{PRG: c.PRG, CHR: c.CHR, ChrIsRAM: true, MapperID: 0})
	before := m.PrgRead(0x8000)
	m.PrgWrite(0x8000, before+1)
	if got := m.PrgRead(0x8000); got != before {
		t.Errorf("PrgRead(0x8000) after write = %d, want unchanged %d", got, before)
	}
}

func TestNROMChrRAMWritable(t *testing.T) {
	m, _ := Get(&ines.Cartridge{PRG: cartWithPRG(1).PRG, CHR: make([]byte, 8*1024), ChrIsRAM: true, MapperID: 0})
	m.ChrWrite(0x0010, 0x42)
	if got := m.ChrRead(0x0010); got != 0x42 {
		t.Errorf("ChrRead(0x0010) = %#x, want 0x42", got)
	}
}

func TestNROMChrROMNotWritable(t *testing.T) {
	chr := make([]byte, 8*1024)
	chr[0x10] = 0x11
	m, _ := Get(&ines.Cartridge{PRG: cartWithPRG(1).PRG, CHR: chr, ChrIsRAM: false, MapperID: 0})
	m.ChrWrite(0x10, 0x99)
	if got := m.ChrRead(0x10); got != 0x11 {
		t.Errorf("ChrRead(0x10) = %#x, want unchanged 0x11", got)
	}
}

func TestGetUnsupportedMapper(t *testing.T) {
	if _, err := Get(&ines.Cartridge{MapperID: 255}); err == nil {
		t.Errorf("Get() = nil error, want ErrUnsupportedMapper")
	}
}
