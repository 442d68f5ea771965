// Command nescore runs the NES core against an ebiten window: it reads
// an iNES ROM, drives the Console shell once per ebiten tick, and maps
// keyboard state onto the standard controller's button bits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/bdwalton/nescore/console"
	"github.com/bdwalton/nescore/controller"
	"github.com/bdwalton/nescore/ppu"
	"github.com/hajimehoshi/ebiten/v2"
)

// romFile is an optional override for the ROM path; the positional
// argument (os.Args[1]) is authoritative when present, per the core's
// CLI contract.
var romFile = flag.String("nes_rom", "", "Path to NES ROM to run.")

// port0Keys maps ebiten keys onto the controller.Button bit order:
// A, B, Select, Start, Up, Down, Left, Right.
var port0Keys = []ebiten.Key{
	ebiten.KeyA,
	ebiten.KeyB,
	ebiten.KeySpace,
	ebiten.KeyEnter,
	ebiten.KeyUp,
	ebiten.KeyDown,
	ebiten.KeyLeft,
	ebiten.KeyRight,
}

var buttonBits = []controller.Button{
	controller.A,
	controller.B,
	controller.Select,
	controller.Start,
	controller.Up,
	controller.Down,
	controller.Left,
	controller.Right,
}

// game implements both ebiten.Game and console.FrameSink, translating
// between the emulator core and the host window: frames out, button
// state and quit requests in.
type game struct {
	console *console.Console
	pixels  []ppu.Color
	quit    bool
}

func newGame() *game {
	g := &game{}
	g.console = console.New(g)
	return g
}

// Present satisfies console.FrameSink: copy the just-completed frame
// for the next Draw call.
func (g *game) Present(px []ppu.Color) {
	g.pixels = append(g.pixels[:0], px...)
}

// PollButtons satisfies console.FrameSink. Port 1 has no keyboard
// mapping in this window, so it always reads as unpressed.
func (g *game) PollButtons(port int) uint8 {
	if port != 0 {
		return 0
	}
	var v uint8
	for i, k := range port0Keys {
		if ebiten.IsKeyPressed(k) {
			v |= uint8(buttonBits[i])
		}
	}
	return v
}

// ShouldQuit satisfies console.FrameSink.
func (g *game) ShouldQuit() bool { return g.quit }

// Update drives one frame of emulation per ebiten tick.
func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		g.quit = true
	}

	if err := g.console.StepFrame(); err != nil {
		if errors.Is(err, console.ErrFrameSinkClosed) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

// Draw blits the most recently presented frame into the ebiten
// window.
func (g *game) Draw(screen *ebiten.Image) {
	if g.pixels == nil {
		return
	}
	w, h := g.console.PPU().GetResolution()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.pixels[y*w+x]
			screen.Set(x, y, color.RGBA{c.R, c.G, c.B, c.A})
		}
	}
}

// Layout pins the emulated resolution so ebiten scales the window
// instead of the core rendering at a different size.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.console.PPU().GetResolution()
}

func romPath() (string, error) {
	if flag.NArg() >= 1 {
		return flag.Arg(0), nil
	}
	if *romFile != "" {
		return *romFile, nil
	}
	return "", fmt.Errorf("usage: %s <rom.nes>", os.Args[0])
}

func main() {
	flag.Parse()

	path, err := romPath()
	if err != nil {
		log.Fatalf("%v", err)
	}

	romBytes, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading ROM %s: %v", path, err)
	}

	g := newGame()
	if err := g.console.Load(romBytes); err != nil {
		log.Fatalf("loading ROM %s: %v", path, err)
	}

	w, h := g.console.PPU().GetResolution()
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowTitle("nescore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("%v", err)
	}
	os.Exit(0)
}
