package mos6502

import "fmt"

// Trace renders the instruction about to execute in the classic
// nestest.log layout: address, raw opcode bytes, mnemonic + operand,
// registers and a PPU-dot-normalized cycle count (three dots per CPU
// cycle, wrapped to a 341-dot scanline).
func (c *CPU) Trace() string {
	op := opcodeTable[c.Read(c.pc)]
	bytes := make([]byte, op.bytes)
	for i := range bytes {
		bytes[i] = c.Read(c.pc + uint16(i))
	}

	hex := ""
	for i := 0; i < 3; i++ {
		if i < len(bytes) {
			hex += fmt.Sprintf("%02X ", bytes[i])
		} else {
			hex += "   "
		}
	}

	name := op.name
	if op.illegal {
		name = "*" + name
	}

	asm := name
	if o := c.operandString(op, bytes); o != "" {
		asm += " " + o
	}

	return fmt.Sprintf("%04X  %s%-31s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.pc, hex, asm, c.acc, c.x, c.y, c.status, c.sp, (c.cycles*3)%341)
}

// operandString disassembles the operand bytes already fetched for the
// trace line; it never touches the bus again, so tracing is free of
// side effects beyond the instruction fetch reads themselves.
func (c *CPU) operandString(op instruction, bytes []byte) string {
	var lo, hi uint8
	if len(bytes) > 1 {
		lo = bytes[1]
	}
	if len(bytes) > 2 {
		hi = bytes[2]
	}
	abs := uint16(hi)<<8 | uint16(lo)

	switch op.mode {
	case ACCUMULATOR:
		return "A"
	case IMMEDIATE:
		return fmt.Sprintf("#$%02X", lo)
	case ZERO_PAGE:
		return fmt.Sprintf("$%02X", lo)
	case ZERO_PAGE_X:
		return fmt.Sprintf("$%02X,X", lo)
	case ZERO_PAGE_Y:
		return fmt.Sprintf("$%02X,Y", lo)
	case RELATIVE:
		return fmt.Sprintf("$%04X", c.pc+2+uint16(int8(lo)))
	case ABSOLUTE:
		return fmt.Sprintf("$%04X", abs)
	case ABSOLUTE_X:
		return fmt.Sprintf("$%04X,X", abs)
	case ABSOLUTE_Y:
		return fmt.Sprintf("$%04X,Y", abs)
	case INDIRECT:
		return fmt.Sprintf("($%04X)", abs)
	case INDIRECT_X:
		return fmt.Sprintf("($%02X,X)", lo)
	case INDIRECT_Y:
		return fmt.Sprintf("($%02X),Y", lo)
	}
	return ""
}
