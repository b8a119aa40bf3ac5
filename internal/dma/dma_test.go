package dma

import "testing"

type fakeRAM struct {
	words    map[uint32]uint32
	asserted []uint32
}

func newFakeRAM() *fakeRAM {
	return &fakeRAM{words: make(map[uint32]uint32)}
}

func (f *fakeRAM) RAMWord(addr uint32) uint32        { return f.words[addr&0x1FFFFC] }
func (f *fakeRAM) RAMWriteWord(addr uint32, v uint32) { f.words[addr&0x1FFFFC] = v }
func (f *fakeRAM) Assert(bit uint32)                  { f.asserted = append(f.asserted, bit) }

type fakeGPU struct{ fifo []uint32 }

func (g *fakeGPU) WriteGP0(v uint32) { g.fifo = append(g.fifo, v) }

func TestOTCSeedLength4(t *testing.T) {
	ram := newFakeRAM()
	c := New(ram)

	c.WriteWord(0x60, 0x0C)       // channel 6 (OTC) base = 0x0C
	c.WriteWord(0x64, 4)          // block size 4, block count 0
	c.WriteWord(0x68, bitEnable|bitTrigger) // dir=ToRam (bit0=0), manual sync

	if got := ram.words[0x0C]; got != 0xFFFFFF {
		t.Fatalf("RAM[0x0C] = %#x, want 0xffffff", got)
	}
	if got := ram.words[0x08]; got != 0x0C {
		t.Fatalf("RAM[0x08] = %#x, want 0x0c", got)
	}
	if got := ram.words[0x04]; got != 0x08 {
		t.Fatalf("RAM[0x04] = %#x, want 0x08", got)
	}
	if got := ram.words[0x00]; got != 0x04 {
		t.Fatalf("RAM[0x00] = %#x, want 0x04", got)
	}

	ctl := c.ReadWord(0x68)
	if ctl&(bitEnable|bitTrigger) != 0 {
		t.Fatalf("expected enable and trigger cleared after transfer, got %#x", ctl)
	}
}

func TestBlockTransferFromRamToGPU(t *testing.T) {
	ram := newFakeRAM()
	ram.words[0x100] = 0x11111111
	ram.words[0x104] = 0x22222222
	gpu := &fakeGPU{}
	c := New(ram)
	c.SetGPU(gpu)

	c.WriteWord(0x20, 0x100) // channel 2 (GPU) base
	c.WriteWord(0x24, 2)     // block size 2
	c.WriteWord(0x28, bitEnable|bitTrigger|bitDirFromRam)

	if len(gpu.fifo) != 2 || gpu.fifo[0] != 0x11111111 || gpu.fifo[1] != 0x22222222 {
		t.Fatalf("unexpected fifo contents: %#v", gpu.fifo)
	}
}

func TestLinkedListTransferTerminates(t *testing.T) {
	ram := newFakeRAM()
	// Node at 0x00: size=2, next=0x800000 (terminator bit set) -> two
	// payload words at 0x04, 0x08, then stop.
	ram.words[0x00] = (2 << 24) | 0x800000
	ram.words[0x04] = 0xAAAA
	ram.words[0x08] = 0xBBBB
	gpu := &fakeGPU{}
	c := New(ram)
	c.SetGPU(gpu)

	c.WriteWord(0x20, 0x00)
	c.WriteWord(0x28, bitEnable|bitTrigger|bitDirFromRam|(syncList<<syncShift))

	if len(gpu.fifo) != 2 || gpu.fifo[0] != 0xAAAA || gpu.fifo[1] != 0xBBBB {
		t.Fatalf("unexpected fifo contents: %#v", gpu.fifo)
	}
}

func TestDICRMasterEnableRaisesIRQ(t *testing.T) {
	ram := newFakeRAM()
	c := New(ram)
	c.SetGPU(&fakeGPU{})

	// Enable channel 2's IRQ, set master enable.
	c.WriteWord(0x74, (1<<(16+2))|(1<<23))
	c.WriteWord(0x20, 0x100)
	c.WriteWord(0x24, 1)
	c.WriteWord(0x28, bitEnable|bitTrigger|bitDirFromRam)

	if len(ram.asserted) == 0 {
		t.Fatalf("expected DMA IRQ to be asserted")
	}
}

func TestReservedPortAborts(t *testing.T) {
	ram := newFakeRAM()
	c := New(ram)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported FromRam port")
		}
	}()
	c.WriteWord(0x00, 0x100) // channel 0 (MDECin), unsupported
	c.WriteWord(0x04, 1)
	c.WriteWord(0x08, bitEnable|bitTrigger|bitDirFromRam)
}

func TestDPCRResetValue(t *testing.T) {
	ram := newFakeRAM()
	c := New(ram)
	if got := c.ReadWord(0x70); got != 0x07654321 {
		t.Fatalf("dpcr = %#x, want 0x07654321", got)
	}
}
