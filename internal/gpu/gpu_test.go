package gpu

import "testing"

type fakeIRQ struct{ asserted []uint32 }

func (f *fakeIRQ) Assert(bit uint32) { f.asserted = append(f.asserted, bit) }

func cmd(opcode uint8, low24 uint32) uint32 {
	return uint32(opcode)<<24 | (low24 & 0xFFFFFF)
}

func vertexWord(x, y int32) uint32 {
	return uint32(x)&0x7FF | (uint32(y)&0x7FF)<<16
}

func TestQuickFillThenRectBlend(t *testing.T) {
	g := New(&fakeIRQ{})

	// quick rect fill: color (0,0x7F,0), origin (0,0), extent (4,4).
	g.WriteGP0(cmd(0x02, 0x007F00))
	g.WriteGP0(vertexWord(0, 0))
	g.WriteGP0(uint32(4) | uint32(4)<<16)

	// variable mono rect: color (0xFF,0,0) at (2,2), size 2x2.
	g.WriteGP0(cmd(0x60, 0x0000FF))
	g.WriteGP0(vertexWord(2, 2))
	g.WriteGP0(uint32(2) | uint32(2)<<16)

	// read back via CopyFromVram.
	g.WriteGP0(cmd(0xC0, 0))
	g.WriteGP0(vertexWord(0, 0))
	g.WriteGP0(uint32(4) | uint32(4)<<16)

	var pixels [4][4]uint16
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x += 2 {
			word := g.readGPUREAD()
			pixels[y][x] = uint16(word)
			pixels[y][x+1] = uint16(word >> 16)
		}
	}

	green := rgb15(0, 0x7F>>3, 0)
	red := rgb15(0xFF>>3, 0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := green
			if x >= 2 && x <= 3 && y >= 2 && y <= 3 {
				want = red
			}
			if pixels[y][x] != want {
				t.Fatalf("pixel (%d,%d) = %#x, want %#x", x, y, pixels[y][x], want)
			}
		}
	}
}

func TestCopyToVramWraps(t *testing.T) {
	g := New(&fakeIRQ{})
	g.WriteGP0(cmd(0xA0, 0))
	g.WriteGP0(vertexWord(1023, 511))
	g.WriteGP0(uint32(2) | uint32(2)<<16)

	px := rgb15(5, 6, 7)
	g.WriteGP0(uint32(px) | uint32(px)<<16) // fills (1023,511) and (0,511)
	g.WriteGP0(uint32(px) | uint32(px)<<16) // fills (1023,0) and (0,0) via wrap

	if got := g.v.at(0, 0); got != px {
		t.Fatalf("wrapped pixel (0,0) = %#x, want %#x", got, px)
	}
}

func TestMaskPreservePreventsOverwrite(t *testing.T) {
	g := New(&fakeIRQ{})
	g.v.setRaw(5, 5, 0x8001) // mask bit set

	g.WriteGP0(cmd(0xE6, 2)) // mask setting: preserve-masked
	g.WriteGP0(cmd(0x68, 0x0000FF))
	g.WriteGP0(vertexWord(5, 5))

	if got := g.v.at(5, 5); got != 0x8001 {
		t.Fatalf("masked pixel overwritten: got %#x", got)
	}
}

func TestGP1DisplayModeParsesResolution(t *testing.T) {
	g := New(&fakeIRQ{})
	g.writeGP1(cmd(0x08, 0x00)) // hr bits = 0b00, vr=0, ntsc, 15bit
	if g.ctx.hres != 256 {
		t.Fatalf("hres = %d, want 256", g.ctx.hres)
	}
	g.writeGP1(cmd(0x08, 0x01)) // hr bits low = 0b01 -> 320
	if g.ctx.hres != 320 {
		t.Fatalf("hres = %d, want 320", g.ctx.hres)
	}
}

func TestGP1ResetRestoresDefaults(t *testing.T) {
	g := New(&fakeIRQ{})
	g.ctx.hres = 640
	g.writeGP1(cmd(0x00, 0))
	if g.ctx.hres != 256 {
		t.Fatalf("hres after reset = %d, want 256", g.ctx.hres)
	}
}

func TestDotClockDivisorTracksResolution(t *testing.T) {
	g := New(&fakeIRQ{})
	g.ctx.hres = 320
	if got := g.DotClockDivisor(); got != 8 {
		t.Fatalf("divisor = %d, want 8", got)
	}
}
