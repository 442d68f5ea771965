package controller

import "testing"

func TestShiftOrder(t *testing.T) {
	// A and Start only: shift order is A, B, Select, Start, Up, Down,
	// Left, Right, so the bit sequence is 1, 0, 0, 1, 0, 0, 0, 0.
	buttons := uint8(A | Start)
	c := New(func() uint8 { return buttons })

	c.WriteStrobe(true)
	c.WriteStrobe(false)

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("read %d = %d, want %d", i, got, w)
		}
	}
}

func TestReadsPastEightReturnOne(t *testing.T) {
	c := New(func() uint8 { return 0 })
	c.WriteStrobe(true)
	c.WriteStrobe(false)

	for i := 0; i < 8; i++ {
		c.Read()
	}
	for i := 0; i < 4; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("read past 8th = %d, want 1", got)
		}
	}
}

func TestStrobeHighAlwaysReturnsLiveA(t *testing.T) {
	buttons := uint8(0)
	c := New(func() uint8 { return buttons })
	c.WriteStrobe(true)

	if got := c.Read(); got != 0 {
		t.Errorf("Read() = %d, want 0", got)
	}
	buttons = uint8(A)
	if got := c.Read(); got != 1 {
		t.Errorf("Read() after A pressed = %d, want 1", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("Read() repeated while strobe high = %d, want 1", got)
	}
}

func TestRestrobeReloadsLatch(t *testing.T) {
	buttons := uint8(A)
	c := New(func() uint8 { return buttons })
	c.WriteStrobe(true)
	c.WriteStrobe(false)
	c.Read() // consume A

	buttons = uint8(B)
	c.WriteStrobe(true)
	c.WriteStrobe(false)
	if got := c.Read(); got != 0 {
		t.Errorf("Read() after restrobe = %d, want 0 (A bit, not pressed)", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("Read() = %d, want 1 (B bit)", got)
	}
}
