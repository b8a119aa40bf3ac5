package bus

import "testing"

func TestRAMRoundTrip(t *testing.T) {
	b := New()
	if err := b.WriteWord(0x00001000, 0xDEADBEEF); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := b.ReadWord(0x00001000)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got %#x, want 0xDEADBEEF", got)
	}
}

func TestKSEG0AndKSEG1AliasKUSEG(t *testing.T) {
	b := New()
	b.WriteWord(0x00002000, 0x12345678)

	if got, _ := b.ReadWord(0x80002000); got != 0x12345678 {
		t.Fatalf("kseg0 alias = %#x, want 0x12345678", got)
	}
	if got, _ := b.ReadWord(0xA0002000); got != 0x12345678 {
		t.Fatalf("kseg1 alias = %#x, want 0x12345678", got)
	}
}

func TestBIOSLoadedAndReadOnly(t *testing.T) {
	b := New()
	img := make([]byte, biosSize)
	img[0] = 0x55
	if err := b.LoadBIOS(img); err != nil {
		t.Fatalf("LoadBIOS: %v", err)
	}
	got, err := b.ReadByte(0xBFC00000)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x55 {
		t.Fatalf("bios byte = %#x, want 0x55", got)
	}
	if err := b.WriteWord(0xBFC00000, 0xFFFFFFFF); err != nil {
		t.Fatalf("write: %v", err)
	}
	got2, _ := b.ReadByte(0xBFC00000)
	if got2 != 0x55 {
		t.Fatalf("bios mutated by write: got %#x", got2)
	}
}

func TestLoadBIOSWrongSizeRejected(t *testing.T) {
	b := New()
	if err := b.LoadBIOS(make([]byte, 100)); err == nil {
		t.Fatalf("expected error for undersized BIOS image")
	}
}

func TestUnalignedWordReadIsAddrError(t *testing.T) {
	b := New()
	_, err := b.ReadWord(0x00001001)
	if err == nil {
		t.Fatalf("expected AddrError")
	}
	if _, ok := err.(*AddrError); !ok {
		t.Fatalf("expected *AddrError, got %T", err)
	}
}

func TestUnalignedHalfWriteIsAddrError(t *testing.T) {
	b := New()
	err := b.WriteHalf(0x00001001, 0x1234)
	if err == nil {
		t.Fatalf("expected AddrError")
	}
}

type fakeDevice struct {
	reads  []uint32
	writes map[uint32]uint32
}

func (f *fakeDevice) ReadWord(offset uint32) uint32 {
	f.reads = append(f.reads, offset)
	return 0xCAFE
}

func (f *fakeDevice) WriteWord(offset uint32, v uint32) {
	if f.writes == nil {
		f.writes = make(map[uint32]uint32)
	}
	f.writes[offset] = v
}

func TestMMIORoutesToWiredDevice(t *testing.T) {
	b := New()
	dev := &fakeDevice{}
	b.IRQ = dev

	if err := b.WriteWord(0x1F801070, 0x1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if dev.writes[0] != 1 {
		t.Fatalf("device did not see write")
	}
	got, err := b.ReadWord(0x1F801074)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0xCAFE {
		t.Fatalf("got %#x, want 0xcafe", got)
	}
	if len(dev.reads) != 1 || dev.reads[0] != 4 {
		t.Fatalf("unexpected offsets seen: %v", dev.reads)
	}
}

func TestStubRegionReadsZeroWithoutPanic(t *testing.T) {
	b := New()
	got, err := b.ReadWord(0x1F801000)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0 {
		t.Fatalf("stub read = %#x, want 0", got)
	}
}

func TestUnmappedAccessAborts(t *testing.T) {
	b := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unmapped access")
		}
	}()
	_, _ = b.ReadWord(0x10000000)
}

func TestScratchpadRoundTrip(t *testing.T) {
	b := New()
	if err := b.WriteByte(0x1F800010, 0x42); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := b.ReadByte(0x1F800010)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
}
