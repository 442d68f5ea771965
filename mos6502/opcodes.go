package mos6502

// addrMode identifies how an instruction's operand address is formed.
// https://www.nesdev.org/obelisk-6502-guide/addressing.html
type addrMode uint8

const (
	IMPLICIT addrMode = iota
	ACCUMULATOR
	IMMEDIATE
	ZERO_PAGE
	ZERO_PAGE_X
	ZERO_PAGE_Y
	RELATIVE
	ABSOLUTE
	ABSOLUTE_X
	ABSOLUTE_Y
	INDIRECT
	INDIRECT_X // Indexed Indirect
	INDIRECT_Y // Indirect Indexed
)

// penaltyKind marks instructions whose base cycle count can take an
// extra cycle at runtime.
type penaltyKind uint8

const (
	penaltyNone penaltyKind = iota
	penaltyPageCross
	penaltyBranch
)

// instruction is one decode-table entry: a dispatchable function
// plus the bookkeeping Step needs to account cycles and advance PC.
type instruction struct {
	name    string
	mode    addrMode
	bytes   uint8
	cycles  uint8
	penalty penaltyKind
	fn      func(c *CPU, mode addrMode)
	illegal bool
}

// opcodeTable is indexed directly by opcode byte; entries with a nil
// fn are unassigned and decode as UnknownOpcode. Built in init rather
// than as a literal so duplicate unofficial-NOP variants can share one
// definition line.
var opcodeTable [256]instruction

func def(b byte, name string, mode addrMode, bytes, cycles uint8, penalty penaltyKind, fn func(c *CPU, mode addrMode)) {
	opcodeTable[b] = instruction{name: name, mode: mode, bytes: bytes, cycles: cycles, penalty: penalty, fn: fn}
}

func init() {
	def(0x69, "ADC", IMMEDIATE, 2, 2, penaltyNone, (*CPU).ADC)
	def(0x65, "ADC", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).ADC)
	def(0x75, "ADC", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).ADC)
	def(0x6D, "ADC", ABSOLUTE, 3, 4, penaltyNone, (*CPU).ADC)
	def(0x7D, "ADC", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).ADC)
	def(0x79, "ADC", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).ADC)
	def(0x61, "ADC", INDIRECT_X, 2, 6, penaltyNone, (*CPU).ADC)
	def(0x71, "ADC", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).ADC)

	def(0x29, "AND", IMMEDIATE, 2, 2, penaltyNone, (*CPU).AND)
	def(0x25, "AND", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).AND)
	def(0x35, "AND", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).AND)
	def(0x2D, "AND", ABSOLUTE, 3, 4, penaltyNone, (*CPU).AND)
	def(0x3D, "AND", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).AND)
	def(0x39, "AND", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).AND)
	def(0x21, "AND", INDIRECT_X, 2, 6, penaltyNone, (*CPU).AND)
	def(0x31, "AND", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).AND)

	def(0x0A, "ASL", ACCUMULATOR, 1, 2, penaltyNone, (*CPU).ASL)
	def(0x06, "ASL", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).ASL)
	def(0x16, "ASL", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).ASL)
	def(0x0E, "ASL", ABSOLUTE, 3, 6, penaltyNone, (*CPU).ASL)
	def(0x1E, "ASL", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).ASL)

	def(0x90, "BCC", RELATIVE, 2, 2, penaltyBranch, (*CPU).BCC)
	def(0xB0, "BCS", RELATIVE, 2, 2, penaltyBranch, (*CPU).BCS)
	def(0xF0, "BEQ", RELATIVE, 2, 2, penaltyBranch, (*CPU).BEQ)
	def(0x30, "BMI", RELATIVE, 2, 2, penaltyBranch, (*CPU).BMI)
	def(0xD0, "BNE", RELATIVE, 2, 2, penaltyBranch, (*CPU).BNE)
	def(0x10, "BPL", RELATIVE, 2, 2, penaltyBranch, (*CPU).BPL)
	def(0x50, "BVC", RELATIVE, 2, 2, penaltyBranch, (*CPU).BVC)
	def(0x70, "BVS", RELATIVE, 2, 2, penaltyBranch, (*CPU).BVS)

	def(0x24, "BIT", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).BIT)
	def(0x2C, "BIT", ABSOLUTE, 3, 4, penaltyNone, (*CPU).BIT)

	def(0x00, "BRK", IMPLICIT, 2, 7, penaltyNone, (*CPU).BRK)

	def(0x18, "CLC", IMPLICIT, 1, 2, penaltyNone, (*CPU).CLC)
	def(0xD8, "CLD", IMPLICIT, 1, 2, penaltyNone, (*CPU).CLD)
	def(0x58, "CLI", IMPLICIT, 1, 2, penaltyNone, (*CPU).CLI)
	def(0xB8, "CLV", IMPLICIT, 1, 2, penaltyNone, (*CPU).CLV)
	def(0x38, "SEC", IMPLICIT, 1, 2, penaltyNone, (*CPU).SEC)
	def(0xF8, "SED", IMPLICIT, 1, 2, penaltyNone, (*CPU).SED)
	def(0x78, "SEI", IMPLICIT, 1, 2, penaltyNone, (*CPU).SEI)

	def(0xC9, "CMP", IMMEDIATE, 2, 2, penaltyNone, (*CPU).CMP)
	def(0xC5, "CMP", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).CMP)
	def(0xD5, "CMP", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).CMP)
	def(0xCD, "CMP", ABSOLUTE, 3, 4, penaltyNone, (*CPU).CMP)
	def(0xDD, "CMP", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).CMP)
	def(0xD9, "CMP", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).CMP)
	def(0xC1, "CMP", INDIRECT_X, 2, 6, penaltyNone, (*CPU).CMP)
	def(0xD1, "CMP", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).CMP)

	def(0xE0, "CPX", IMMEDIATE, 2, 2, penaltyNone, (*CPU).CPX)
	def(0xE4, "CPX", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).CPX)
	def(0xEC, "CPX", ABSOLUTE, 3, 4, penaltyNone, (*CPU).CPX)

	def(0xC0, "CPY", IMMEDIATE, 2, 2, penaltyNone, (*CPU).CPY)
	def(0xC4, "CPY", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).CPY)
	def(0xCC, "CPY", ABSOLUTE, 3, 4, penaltyNone, (*CPU).CPY)

	def(0xC6, "DEC", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).DEC)
	def(0xD6, "DEC", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).DEC)
	def(0xCE, "DEC", ABSOLUTE, 3, 6, penaltyNone, (*CPU).DEC)
	def(0xDE, "DEC", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).DEC)
	def(0xCA, "DEX", IMPLICIT, 1, 2, penaltyNone, (*CPU).DEX)
	def(0x88, "DEY", IMPLICIT, 1, 2, penaltyNone, (*CPU).DEY)

	def(0x49, "EOR", IMMEDIATE, 2, 2, penaltyNone, (*CPU).EOR)
	def(0x45, "EOR", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).EOR)
	def(0x55, "EOR", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).EOR)
	def(0x4D, "EOR", ABSOLUTE, 3, 4, penaltyNone, (*CPU).EOR)
	def(0x5D, "EOR", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).EOR)
	def(0x59, "EOR", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).EOR)
	def(0x41, "EOR", INDIRECT_X, 2, 6, penaltyNone, (*CPU).EOR)
	def(0x51, "EOR", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).EOR)

	def(0xE6, "INC", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).INC)
	def(0xF6, "INC", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).INC)
	def(0xEE, "INC", ABSOLUTE, 3, 6, penaltyNone, (*CPU).INC)
	def(0xFE, "INC", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).INC)
	def(0xE8, "INX", IMPLICIT, 1, 2, penaltyNone, (*CPU).INX)
	def(0xC8, "INY", IMPLICIT, 1, 2, penaltyNone, (*CPU).INY)

	def(0x4C, "JMP", ABSOLUTE, 3, 3, penaltyNone, (*CPU).JMP)
	def(0x6C, "JMP", INDIRECT, 3, 5, penaltyNone, (*CPU).JMP)
	def(0x20, "JSR", ABSOLUTE, 3, 6, penaltyNone, (*CPU).JSR)

	def(0xA9, "LDA", IMMEDIATE, 2, 2, penaltyNone, (*CPU).LDA)
	def(0xA5, "LDA", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).LDA)
	def(0xB5, "LDA", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).LDA)
	def(0xAD, "LDA", ABSOLUTE, 3, 4, penaltyNone, (*CPU).LDA)
	def(0xBD, "LDA", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).LDA)
	def(0xB9, "LDA", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).LDA)
	def(0xA1, "LDA", INDIRECT_X, 2, 6, penaltyNone, (*CPU).LDA)
	def(0xB1, "LDA", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).LDA)

	def(0xA2, "LDX", IMMEDIATE, 2, 2, penaltyNone, (*CPU).LDX)
	def(0xA6, "LDX", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).LDX)
	def(0xB6, "LDX", ZERO_PAGE_Y, 2, 4, penaltyNone, (*CPU).LDX)
	def(0xAE, "LDX", ABSOLUTE, 3, 4, penaltyNone, (*CPU).LDX)
	def(0xBE, "LDX", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).LDX)

	def(0xA0, "LDY", IMMEDIATE, 2, 2, penaltyNone, (*CPU).LDY)
	def(0xA4, "LDY", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).LDY)
	def(0xB4, "LDY", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).LDY)
	def(0xAC, "LDY", ABSOLUTE, 3, 4, penaltyNone, (*CPU).LDY)
	def(0xBC, "LDY", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).LDY)

	def(0x4A, "LSR", ACCUMULATOR, 1, 2, penaltyNone, (*CPU).LSR)
	def(0x46, "LSR", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).LSR)
	def(0x56, "LSR", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).LSR)
	def(0x4E, "LSR", ABSOLUTE, 3, 6, penaltyNone, (*CPU).LSR)
	def(0x5E, "LSR", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).LSR)

	def(0xEA, "NOP", IMPLICIT, 1, 2, penaltyNone, (*CPU).NOP)

	def(0x09, "ORA", IMMEDIATE, 2, 2, penaltyNone, (*CPU).ORA)
	def(0x05, "ORA", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).ORA)
	def(0x15, "ORA", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).ORA)
	def(0x0D, "ORA", ABSOLUTE, 3, 4, penaltyNone, (*CPU).ORA)
	def(0x1D, "ORA", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).ORA)
	def(0x19, "ORA", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).ORA)
	def(0x01, "ORA", INDIRECT_X, 2, 6, penaltyNone, (*CPU).ORA)
	def(0x11, "ORA", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).ORA)

	def(0x48, "PHA", IMPLICIT, 1, 3, penaltyNone, (*CPU).PHA)
	def(0x08, "PHP", IMPLICIT, 1, 3, penaltyNone, (*CPU).PHP)
	def(0x68, "PLA", IMPLICIT, 1, 4, penaltyNone, (*CPU).PLA)
	def(0x28, "PLP", IMPLICIT, 1, 4, penaltyNone, (*CPU).PLP)

	def(0x2A, "ROL", ACCUMULATOR, 1, 2, penaltyNone, (*CPU).ROL)
	def(0x26, "ROL", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).ROL)
	def(0x36, "ROL", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).ROL)
	def(0x2E, "ROL", ABSOLUTE, 3, 6, penaltyNone, (*CPU).ROL)
	def(0x3E, "ROL", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).ROL)

	def(0x6A, "ROR", ACCUMULATOR, 1, 2, penaltyNone, (*CPU).ROR)
	def(0x66, "ROR", ZERO_PAGE, 2, 5, penaltyNone, (*CPU).ROR)
	def(0x76, "ROR", ZERO_PAGE_X, 2, 6, penaltyNone, (*CPU).ROR)
	def(0x6E, "ROR", ABSOLUTE, 3, 6, penaltyNone, (*CPU).ROR)
	def(0x7E, "ROR", ABSOLUTE_X, 3, 7, penaltyNone, (*CPU).ROR)

	def(0x40, "RTI", IMPLICIT, 1, 6, penaltyNone, (*CPU).RTI)
	def(0x60, "RTS", IMPLICIT, 1, 6, penaltyNone, (*CPU).RTS)

	def(0xE9, "SBC", IMMEDIATE, 2, 2, penaltyNone, (*CPU).SBC)
	def(0xE5, "SBC", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).SBC)
	def(0xF5, "SBC", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).SBC)
	def(0xED, "SBC", ABSOLUTE, 3, 4, penaltyNone, (*CPU).SBC)
	def(0xFD, "SBC", ABSOLUTE_X, 3, 4, penaltyPageCross, (*CPU).SBC)
	def(0xF9, "SBC", ABSOLUTE_Y, 3, 4, penaltyPageCross, (*CPU).SBC)
	def(0xE1, "SBC", INDIRECT_X, 2, 6, penaltyNone, (*CPU).SBC)
	def(0xF1, "SBC", INDIRECT_Y, 2, 5, penaltyPageCross, (*CPU).SBC)

	def(0x85, "STA", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).STA)
	def(0x95, "STA", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).STA)
	def(0x8D, "STA", ABSOLUTE, 3, 4, penaltyNone, (*CPU).STA)
	def(0x9D, "STA", ABSOLUTE_X, 3, 5, penaltyNone, (*CPU).STA)
	def(0x99, "STA", ABSOLUTE_Y, 3, 5, penaltyNone, (*CPU).STA)
	def(0x81, "STA", INDIRECT_X, 2, 6, penaltyNone, (*CPU).STA)
	def(0x91, "STA", INDIRECT_Y, 2, 6, penaltyNone, (*CPU).STA)

	def(0x86, "STX", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).STX)
	def(0x96, "STX", ZERO_PAGE_Y, 2, 4, penaltyNone, (*CPU).STX)
	def(0x8E, "STX", ABSOLUTE, 3, 4, penaltyNone, (*CPU).STX)

	def(0x84, "STY", ZERO_PAGE, 2, 3, penaltyNone, (*CPU).STY)
	def(0x94, "STY", ZERO_PAGE_X, 2, 4, penaltyNone, (*CPU).STY)
	def(0x8C, "STY", ABSOLUTE, 3, 4, penaltyNone, (*CPU).STY)

	def(0xAA, "TAX", IMPLICIT, 1, 2, penaltyNone, (*CPU).TAX)
	def(0xA8, "TAY", IMPLICIT, 1, 2, penaltyNone, (*CPU).TAY)
	def(0xBA, "TSX", IMPLICIT, 1, 2, penaltyNone, (*CPU).TSX)
	def(0x8A, "TXA", IMPLICIT, 1, 2, penaltyNone, (*CPU).TXA)
	def(0x9A, "TXS", IMPLICIT, 1, 2, penaltyNone, (*CPU).TXS)
	def(0x98, "TYA", IMPLICIT, 1, 2, penaltyNone, (*CPU).TYA)

	defineUnofficialNOPs()
}

// defineUnofficialNOPs registers exactly the unofficial NOP variants
// nestest's documented instruction stream exercises. Every other
// illegal opcode is left undefined and decodes as UnknownOpcode.
func defineUnofficialNOPs() {
	for _, b := range []byte{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		defIllegal(b, "NOP", IMPLICIT, 1, 2, penaltyNone)
	}
	for _, b := range []byte{0x04, 0x44, 0x64} {
		defIllegal(b, "NOP", ZERO_PAGE, 2, 3, penaltyNone)
	}
	for _, b := range []byte{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		defIllegal(b, "NOP", ZERO_PAGE_X, 2, 4, penaltyNone)
	}
	defIllegal(0x0C, "NOP", ABSOLUTE, 3, 4, penaltyNone)
	for _, b := range []byte{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		defIllegal(b, "NOP", ABSOLUTE_X, 3, 4, penaltyPageCross)
	}
	for _, b := range []byte{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		defIllegal(b, "NOP", IMMEDIATE, 2, 2, penaltyNone)
	}
}

func defIllegal(b byte, name string, mode addrMode, bytes, cycles uint8, penalty penaltyKind) {
	def(b, name, mode, bytes, cycles, penalty, (*CPU).NOP)
	e := opcodeTable[b]
	e.illegal = true
	opcodeTable[b] = e
}
