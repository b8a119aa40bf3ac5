package timer

import "testing"

type fakeIRQ struct {
	asserted []uint32
}

func (f *fakeIRQ) Assert(bit uint32) {
	f.asserted = append(f.asserted, bit)
}

func TestTimer2CPUDiv8(t *testing.T) {
	irq := &fakeIRQ{}
	bank := NewBank(irq, nil)

	bank.WriteWord(0x24, 2<<8) // timer2 mode, clock_src = 2 (CPU/8)
	bank.Progress(800)
	got := bank.ReadWord(0x20)
	if got != 100 {
		t.Fatalf("counter = %d, want 100", got)
	}
}

func TestTimer2CPUClockTicksEveryCycle(t *testing.T) {
	bank := NewBank(nil, nil)
	bank.WriteWord(0x24, 0) // clock_src = 0 -> CPU
	bank.Progress(37)
	if got := bank.ReadWord(0x20); got != 37 {
		t.Fatalf("counter = %d, want 37", got)
	}
}

func TestModeWriteResetsCounterAndSetsIRQDisabled(t *testing.T) {
	bank := NewBank(nil, nil)
	bank.WriteWord(0x20, 500)
	bank.WriteWord(0x24, 0)
	if got := bank.ReadWord(0x20); got != 0 {
		t.Fatalf("counter after mode write = %d, want 0", got)
	}
	if bank.ReadWord(0x24)&bitIRQDisabled == 0 {
		t.Fatalf("expected irq_disabled set after mode write")
	}
}

func TestTargetWrapAndStickyBits(t *testing.T) {
	irq := &fakeIRQ{}
	bank := NewBank(irq, nil)
	bank.WriteWord(0x28, 10)                                           // target = 10
	bank.WriteWord(0x24, bitResetToTarget|bitIRQOnTarget|bitIRQRepeat) // wrap modulo (target+1), irq on target
	bank.Progress(25)                                                  // 25 mod 11 == 3
	if got := bank.ReadWord(0x20); got != 3 {
		t.Fatalf("counter = %d, want 3", got)
	}
	if len(irq.asserted) == 0 {
		t.Fatalf("expected at least one IRQ assertion")
	}
}

func TestReadModeClearsStickyBits(t *testing.T) {
	bank := NewBank(nil, nil)
	bank.WriteWord(0x28, 5)
	bank.WriteWord(0x24, bitResetToTarget)
	bank.Progress(5)
	mode := bank.ReadWord(0x24)
	if mode&bitReachedTarget == 0 {
		t.Fatalf("expected reached_target set")
	}
	mode2 := bank.ReadWord(0x24)
	if mode2&bitReachedTarget != 0 {
		t.Fatalf("expected reached_target cleared after read")
	}
}

func TestHBlankSyncMode0PausesDuringBlank(t *testing.T) {
	bank := NewBank(nil, nil)
	bank.WriteWord(0x04, bitSyncEnable) // timer0, sync mode 0, sync enable
	bank.Progress(10)
	bank.OnHBlankStart() // counter reaches 10, then gate closes
	bank.Progress(30)    // 20 cycles pass while paused
	bank.OnHBlankEnd()   // gate opens again, still at 10
	bank.Progress(35)    // 5 more cycles run
	got := bank.ReadWord(0x00)
	if got != 15 { // 10 before hblank + 5 after
		t.Fatalf("counter = %d, want 15", got)
	}
}
