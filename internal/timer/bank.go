package timer

import "github.com/rcornwell/psx/internal/device"

// Bank owns the three hardware timers and the HBlank/VBlank sync wiring
// between them. Per the "avoid a single god-object" design note, Bank
// is handed only the pieces timers actually need: an IRQ asserter and a
// GPU dot-clock provider. It does not see the CPU, DMA, or anything
// else.
type Bank struct {
	timers [3]*Timer
	irq    IRQRaiser
	dot    DotClock
	now    uint64
}

// NewBank wires a fresh timer bank against the interrupt controller and
// an (optional, may be nil until the GPU exists) dot-clock source.
func NewBank(irq IRQRaiser, dot DotClock) *Bank {
	return &Bank{
		timers: [3]*Timer{
			New(Timer0, device.IRQTimer0),
			New(Timer1, device.IRQTimer1),
			New(Timer2, device.IRQTimer2),
		},
		irq: irq,
		dot: dot,
	}
}

// SetDotClock attaches or replaces the dot-clock provider after
// construction; System instead passes the GPU to NewBank.
func (b *Bank) SetDotClock(dot DotClock) {
	b.dot = dot
}

// Progress advances the bank's notion of the current cycle. System
// calls this once per scheduler progress step so register reads/writes
// lazily catch up from the correct "now".
func (b *Bank) Progress(now uint64) {
	b.now = now
}

func (b *Bank) at(idx Index) *Timer {
	return b.timers[idx]
}

// ReadWord/WriteWord implement the word-only MMIO contract over the
// three 16-byte-spaced timer register blocks at 0x1F801100-0x1F80112F.
func (b *Bank) ReadWord(offset uint32) uint32 {
	idx := Index((offset >> 4) & 0x3)
	if idx > Timer2 {
		return 0
	}
	t := b.at(idx)
	switch offset & 0xF {
	case 0x0:
		return uint32(t.ReadCounter(b.now, b.dot, b.irq))
	case 0x4:
		return t.ReadMode(b.now, b.dot, b.irq)
	case 0x8:
		return uint32(t.ReadTarget())
	default:
		return 0
	}
}

func (b *Bank) WriteWord(offset uint32, v uint32) {
	idx := Index((offset >> 4) & 0x3)
	if idx > Timer2 {
		return
	}
	t := b.at(idx)
	switch offset & 0xF {
	case 0x0:
		t.WriteCounter(b.now, b.dot, b.irq, uint16(v))
	case 0x4:
		t.WriteMode(b.now, b.dot, b.irq, v)
		b.applySyncInit(idx)
	case 0x8:
		t.WriteTarget(uint16(v))
	}
}

// applySyncInit sets the initial gate state for a timer right after its
// mode register is (re)written, before any HBlank/VBlank edge has had a
// chance to drive it.
func (b *Bank) applySyncInit(idx Index) {
	t := b.at(idx)
	if !t.syncEnabled() {
		t.setSyncGate(false)
		return
	}
	switch idx {
	case Timer0, Timer1:
		switch t.syncMode() {
		case 0, 1:
			t.setSyncGate(false)
		case 2, 3:
			t.setSyncGate(true)
		}
	case Timer2:
		switch t.syncMode() {
		case 0, 3:
			t.setSyncGate(true)
		default:
			t.setSyncGate(false)
		}
	}
}

// OnHBlankStart/OnHBlankEnd drive timer 0's sync gate; OnVBlankStart/
// OnVBlankEnd drive timer 1's. Both are invoked by the system loop when
// the scheduler dispatches the matching event.
func (b *Bank) OnHBlankStart() {
	b.gateEdge(Timer0, true)
}

func (b *Bank) OnHBlankEnd() {
	b.gateEdge(Timer0, false)
}

func (b *Bank) OnVBlankStart() {
	b.gateEdge(Timer1, true)
}

func (b *Bank) OnVBlankEnd() {
	b.gateEdge(Timer1, false)
}

func (b *Bank) gateEdge(idx Index, start bool) {
	t := b.at(idx)
	if !t.syncEnabled() {
		return
	}
	t.advance(b.now, b.dot, b.irq)
	switch t.syncMode() {
	case 0: // pause during the blanking interval, run outside it
		t.setSyncGate(start)
	case 1: // reset to 0 at the start edge, otherwise free-run
		if start {
			t.counter = 0
		}
		t.setSyncGate(false)
	case 2: // reset to 0 at the start edge, free-run only during the interval
		if start {
			t.counter = 0
			t.setSyncGate(false)
		} else {
			t.setSyncGate(true)
		}
	case 3: // stay paused until the next start edge, then free-run forever
		if start {
			t.setSyncGate(false)
			t.disableSync()
		}
	}
}
