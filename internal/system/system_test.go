package system

import "testing"

const (
	gp0Addr  = 0x1F801810
	gp1Addr  = 0x1F801814
	dmaBase  = 0x1F801080
	timerBase = 0x1F801100
	irqStat  = 0x1F801070
	irqMask  = 0x1F801074
)

func biosSpinLoop() []byte {
	bios := make([]byte, 512*1024)
	// BEQ $0,$0,-1 (branch to self); delay slot is the following NOP.
	putWord(bios, 0, 0x1000FFFF)
	return bios
}

// biosJumpToPostInitHook builds a synthetic BIOS whose reset path
// loads 0x80030000 into $1 and jumps to it, landing System.LoadEXE's
// wait loop on the post-init hook exactly as a real BIOS reset path
// would (spec.md §4.8).
func biosJumpToPostInitHook() []byte {
	bios := make([]byte, 512*1024)
	putWord(bios, 0, encodeI(0x0F, 0, 1, 0x8003)) // LUI $1, 0x8003
	putWord(bios, 4, encodeR(1, 0, 0, 0, 0x08))    // JR $1
	putWord(bios, 8, 0)                            // delay slot NOP
	return bios
}

func putWord(b []byte, off int, w uint32) {
	b[off] = byte(w)
	b[off+1] = byte(w >> 8)
	b[off+2] = byte(w >> 16)
	b[off+3] = byte(w >> 24)
}

func encodeR(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeI(opcode, rs, rt, imm16 uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | imm16&0xFFFF
}

func TestBootIdleNeverFaults(t *testing.T) {
	s := New()
	if err := s.LoadBIOS(biosSpinLoop()); err != nil {
		t.Fatalf("LoadBIOS: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("frame stepping panicked: %v", r)
		}
	}()
	for i := 0; i < 60; i++ {
		s.StepFrame()
	}
}

func TestSideLoadEchoEmitsOneCharacter(t *testing.T) {
	s := New()
	if err := s.LoadBIOS(biosJumpToPostInitHook()); err != nil {
		t.Fatalf("LoadBIOS: %v", err)
	}

	const destAddr = 0x00010000
	payload := make([]byte, 24)
	putWord(payload, 0, encodeI(0x0D, 0, 9, 0x3C))  // ORI $9, $0, 0x3C
	putWord(payload, 4, encodeI(0x0D, 0, 4, 0x41))  // ORI $4, $0, 0x41
	putWord(payload, 8, 0x0C000028)                 // JAL 0xA0 (opcode 3, imm26=0x28)
	putWord(payload, 12, 0)                         // delay slot NOP
	putWord(payload, 16, 0x1000FFFF)                // BEQ $0,$0,-1 (spin after return)
	putWord(payload, 20, 0)                         // delay slot NOP

	image := make([]byte, exeHeaderSize+len(payload))
	putWord(image, exeOffPC, destAddr)
	putWord(image, exeOffGP, 0x80010000)
	putWord(image, exeOffDestAddr, destAddr)
	putWord(image, exeOffSize, uint32(len(payload)))
	putWord(image, exeOffSP, 0x801FFF00)
	copy(image[exeHeaderSize:], payload)

	if err := s.LoadEXE(image); err != nil {
		t.Fatalf("LoadEXE: %v", err)
	}
	if got := s.CPU.GPR(regGP); got != 0x80010000 {
		t.Fatalf("GP = %#x, want 0x80010000", got)
	}
	if got := s.CPU.GPR(regSP); got != 0x801FFF00 {
		t.Fatalf("SP = %#x, want 0x801FFF00", got)
	}

	for i := 0; i < 10; i++ {
		s.CPU.Step(s.Bus)
	}

	if string(s.CPU.TTY) != "A" {
		t.Fatalf("TTY = %q, want %q", s.CPU.TTY, "A")
	}
}

func TestDMAOTCIntegrationThroughBus(t *testing.T) {
	s := New()

	if err := s.Bus.WriteWord(dmaBase+0x60, 0x0C); err != nil { // channel 6 base
		t.Fatalf("write base: %v", err)
	}
	if err := s.Bus.WriteWord(dmaBase+0x64, 4); err != nil { // block size 4
		t.Fatalf("write block: %v", err)
	}
	if err := s.Bus.WriteWord(dmaBase+0x68, 1<<24|1<<28); err != nil { // enable|trigger
		t.Fatalf("write control: %v", err)
	}

	want := map[uint32]uint32{0x0C: 0xFFFFFF, 0x08: 0x0C, 0x04: 0x08, 0x00: 0x04}
	for addr, v := range want {
		if got := s.Bus.RAMWord(addr); got != v {
			t.Fatalf("RAM[%#x] = %#x, want %#x", addr, got, v)
		}
	}

	ctrl, err := s.Bus.ReadWord(dmaBase + 0x68)
	if err != nil {
		t.Fatalf("read control: %v", err)
	}
	if ctrl&(1<<24|1<<28) != 0 {
		t.Fatalf("channel still active after completion: %#x", ctrl)
	}
}

func TestGP0FillThenRectBlitThroughBus(t *testing.T) {
	s := New()
	cmd := func(opcode uint8, low24 uint32) uint32 { return uint32(opcode)<<24 | low24&0xFFFFFF }
	vertex := func(x, y int32) uint32 { return uint32(x)&0x7FF | (uint32(y)&0x7FF)<<16 }

	write := func(v uint32) {
		if err := s.Bus.WriteWord(gp0Addr, v); err != nil {
			t.Fatalf("GP0 write: %v", err)
		}
	}

	write(cmd(0x02, 0x007F00)) // quick fill green
	write(vertex(0, 0))
	write(uint32(4) | uint32(4)<<16)

	write(cmd(0x60, 0x0000FF)) // variable mono rect: red at (2,2), size 2x2
	write(vertex(2, 2))
	write(uint32(2) | uint32(2)<<16)

	write(cmd(0xC0, 0)) // copy-from-vram
	write(vertex(0, 0))
	write(uint32(4) | uint32(4)<<16)

	readPixel := func() uint32 {
		v, err := s.Bus.ReadWord(gp0Addr)
		if err != nil {
			t.Fatalf("GPUREAD: %v", err)
		}
		return v
	}

	var pixels [4][4]uint16
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x += 2 {
			word := readPixel()
			pixels[y][x] = uint16(word)
			pixels[y][x+1] = uint16(word >> 16)
		}
	}

	rgb15 := func(r, g, b uint16) uint16 { return r | g<<5 | b<<10 }
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

func TestTimer2CPUDiv8ThroughBus(t *testing.T) {
	s := New()

	if err := s.Bus.WriteWord(timerBase+2*0x10+4, 2<<8); err != nil { // clock_src=2 (CPU/8)
		t.Fatalf("write mode: %v", err)
	}

	s.Scheduler.Progress(800)
	s.Timers.Progress(s.Scheduler.SysClock())

	got, err := s.Bus.ReadWord(timerBase + 2*0x10)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got != 100 {
		t.Fatalf("timer2 counter = %d, want 100", got)
	}
}

func TestInterruptRoundTripThroughStep(t *testing.T) {
	s := New()

	// SR: IEc (bit0) | IM bit 10 (cause bit 10 carries the aggregated
	// device line; SR mask bit 10 unmasks it) via ORI then MTC0.
	bios := make([]byte, 512*1024)
	putWord(bios, 0, encodeI(0x0D, 0, 1, 0x401)) // ORI $1, $0, 0x401
	putWord(bios, 4, encodeCop(0x10, 0x04, 1, 12))
	putWord(bios, 8, 0x1000FFFF) // BEQ self
	putWord(bios, 12, 0)
	if err := s.LoadBIOS(bios); err != nil {
		t.Fatalf("LoadBIOS: %v", err)
	}

	s.CPU.Step(s.Bus) // ORI
	s.CPU.Step(s.Bus) // MTC0 SR = 0x401

	s.Bus.WriteWord(irqMask, 1<<4) // unmask timer0
	s.IRQ.Assert(1 << 4)          // timer0 bit

	s.CPU.Step(s.Bus)

	// MTC0 replaced SR with 0x401, so BEV is clear.
	if pc := s.CPU.PC(); pc != 0x80000080 {
		t.Fatalf("PC = %#x, want 0x80000080 (BEV cleared by MTC0)", pc)
	}
}

func encodeCop(opcode, rs, rt, rd uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | rd<<11
}
