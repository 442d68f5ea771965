package console

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// BIOS runs a tiny text REPL over the Console's public surface: step
// one instruction, run to completion, inspect registers/memory/stack,
// set breakpoints, or hit reset. It is an inspection loop, not a full
// debugger: no disassembly beyond CPUTrace, no watchpoints.
func (c *Console) BIOS(ctx context.Context) {
	breaks := make(map[uint16]struct{})

	for {
		fmt.Printf("%s\n\n", c.CPUTrace())
		fmt.Println("(B)reak - add breakpoint")
		fmt.Println("(C)lear - clear breakpoints")
		fmt.Println("(R)un - run to completion")
		fmt.Println("(S)tep - step the cpu one instruction")
		fmt.Println("R(e)set - hit the reset button")
		fmt.Println("(M)emory - dump a memory range")
		fmt.Println("S(t)ack - show the top of the stack")
		fmt.Println("(D)ump - spew the CPU/PPU state")
		fmt.Println("(Q)uit - leave the BIOS")
		fmt.Printf("Choice: ")

		var in rune
		fmt.Scanf("%c\n", &in)

		switch in {
		case 'b', 'B':
			breaks[readAddress("Breakpoint (eg ff15): ")] = struct{}{}
		case 'c', 'C':
			breaks = make(map[uint16]struct{})
		case 'q', 'Q':
			return
		case 'r', 'R':
			c.runUntilBreak(ctx, breaks)
		case 's', 'S':
			if _, err := c.Step(); err != nil {
				fmt.Printf("step error: %v\n", err)
				return
			}
		case 'e', 'E':
			c.Reset()
		case 't', 'T':
			c.dumpStack()
		case 'd', 'D':
			spew.Dump(c.CPURegisters())
			fmt.Printf("PPU: scanline=%d dot=%d frame=%d\n",
				c.PPU().Scanline(), c.PPU().Dot(), c.PPU().FrameCount())
		case 'm', 'M':
			low := readAddress("Low address (eg f00d): ")
			high := readAddress("High address (eg beef): ")
			c.dumpMemory(low, high)
		}
	}
}

func (c *Console) runUntilBreak(ctx context.Context, breaks map[uint16]struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, ok := breaks[c.CPURegisters().PC]; ok {
			return
		}
		if _, err := c.Step(); err != nil {
			fmt.Printf("run stopped: %v\n", err)
			return
		}
	}
}

func (c *Console) dumpStack() {
	regs := c.CPURegisters()
	base := uint16(0x0100) | uint16(regs.SP)
	for i := uint16(0); i < 3 && base+i <= 0x01FF; i++ {
		addr := base + i
		fmt.Printf("0x%04x: 0x%02x ", addr, c.Peek(addr))
	}
	fmt.Println()
}

func (c *Console) dumpMemory(low, high uint16) {
	col := 0
	for addr := low; ; addr++ {
		fmt.Printf("0x%04x: 0x%02x ", addr, c.Peek(addr))
		col++
		if col%5 == 0 {
			fmt.Println()
		}
		if addr == high || addr == 0xFFFF {
			break
		}
	}
	fmt.Println()
}

func readAddress(prompt string) uint16 {
	var a uint16
	fmt.Print(prompt)
	fmt.Scanf("%04x\n", &a)
	return a
}
