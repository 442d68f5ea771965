package ppu

// Color is a single opaque RGBA pixel value handed to the frame sink.
type Color struct {
	R, G, B, A uint8
}

func rgb(r, g, b uint8) Color { return Color{r, g, b, 0xff} }

// SystemPalette is the NES PPU's fixed 64-entry RGB palette.
var SystemPalette = [64]Color{
	rgb(0x80, 0x80, 0x80), rgb(0x00, 0x3D, 0xA6), rgb(0x00, 0x12, 0xB0), rgb(0x44, 0x00, 0x96), rgb(0xA1, 0x00, 0x5E),
	rgb(0xC7, 0x00, 0x28), rgb(0xBA, 0x06, 0x00), rgb(0x8C, 0x17, 0x00), rgb(0x5C, 0x2F, 0x00), rgb(0x10, 0x45, 0x00),
	rgb(0x05, 0x4A, 0x00), rgb(0x00, 0x47, 0x2E), rgb(0x00, 0x41, 0x66), rgb(0x00, 0x00, 0x00), rgb(0x05, 0x05, 0x05), rgb(0x05, 0x05, 0x05),
	rgb(0xC7, 0xC7, 0xC7), rgb(0x00, 0x77, 0xFF), rgb(0x21, 0x55, 0xFF), rgb(0x82, 0x37, 0xFA), rgb(0xEB, 0x2F, 0xB5),
	rgb(0xFF, 0x29, 0x50), rgb(0xFF, 0x22, 0x00), rgb(0xD6, 0x32, 0x00), rgb(0xC4, 0x62, 0x00), rgb(0x35, 0x80, 0x00),
	rgb(0x05, 0x8F, 0x00), rgb(0x00, 0x8A, 0x55), rgb(0x00, 0x99, 0xCC), rgb(0x21, 0x21, 0x21), rgb(0x09, 0x09, 0x09), rgb(0x09, 0x09, 0x09),
	rgb(0xFF, 0xFF, 0xFF), rgb(0x0F, 0xD7, 0xFF), rgb(0x69, 0xA2, 0xFF), rgb(0xD4, 0x80, 0xFF), rgb(0xFF, 0x45, 0xF3),
	rgb(0xFF, 0x61, 0x8B), rgb(0xFF, 0x88, 0x33), rgb(0xFF, 0x9C, 0x12), rgb(0xFA, 0xBC, 0x20), rgb(0x9F, 0xE3, 0x0E),
	rgb(0x2B, 0xF0, 0x35), rgb(0x0C, 0xF0, 0xA4), rgb(0x05, 0xFB, 0xFF), rgb(0x5E, 0x5E, 0x5E), rgb(0x0D, 0x0D, 0x0D), rgb(0x0D, 0x0D, 0x0D),
	rgb(0xFF, 0xFF, 0xFF), rgb(0xA6, 0xFC, 0xFF), rgb(0xB3, 0xEC, 0xFF), rgb(0xDA, 0xAB, 0xEB), rgb(0xFF, 0xA8, 0xF9),
	rgb(0xFF, 0xAB, 0xB3), rgb(0xFF, 0xD2, 0xB0), rgb(0xFF, 0xEF, 0xA6), rgb(0xFF, 0xF7, 0x9C), rgb(0xD7, 0xE8, 0x95),
	rgb(0xA6, 0xED, 0xAF), rgb(0xA2, 0xF2, 0xDA), rgb(0x99, 0xFF, 0xFC), rgb(0xDD, 0xDD, 0xDD), rgb(0x11, 0x11, 0x11), rgb(0x11, 0x11, 0x11),
}
