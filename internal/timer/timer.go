/*
   PSX hardware timers: three 16-bit counters with per-timer clock source
   and sync mode selection (spec.md §4.4).

   The core is synchronous and cycle-counted (spec.md §5), so each
   timer lazily advances from its last-updated cycle against the
   scheduler's absolute cycle counter rather than ticking on a
   wall-clock source; Progress is called once per frame step with the
   scheduler's current cycle count.

   Copyright (c) 2026
*/

package timer

// ClockSource selects what increments a timer's counter.
type ClockSource int

const (
	clockCPU ClockSource = iota
	clockAlt             // dot-clock (timer 0), HBlank (timer 1), CPU/8 (timer 2)
)

// Index identifies which of the three timers a Bank slot is.
type Index int

const (
	Timer0 Index = iota
	Timer1
	Timer2
)

// Mode bit layout, word-sized register at each timer's +4 offset.
const (
	bitSyncEnable     = 1 << 0
	bitsSyncMode      = 0x3 << 1
	bitResetToTarget  = 1 << 3
	bitIRQOnTarget    = 1 << 4
	bitIRQOnFFFF      = 1 << 5
	bitIRQRepeat      = 1 << 6
	bitIRQToggle      = 1 << 7
	bitsClockSrc      = 0x3 << 8
	bitIRQDisabled    = 1 << 10
	bitReachedTarget  = 1 << 11
	bitReachedFFFF    = 1 << 12
	writableMask      = 0x3ff // bits 0..9 are guest-writable
)

// DotClock supplies the current GPU dot-clock divisor (CPU cycles per
// pixel dot at the active horizontal resolution), so timer 0 can be
// clocked from it without timer needing to know anything else about
// the GPU — the "minimal set of other components" design note.
type DotClock interface {
	DotClockDivisor() uint64
}

// IRQRaiser is the subset of the interrupt controller timers need.
type IRQRaiser interface {
	Assert(bit uint32)
}

// Timer is one of the three PSX hardware counters.
type Timer struct {
	idx         Index
	counter     uint16
	mode        uint32
	target      uint16
	lastUpdated uint64 // absolute sysclk counter was last brought forward to
	paused      bool   // sync gate closed (only meaningful while sync_enable set)
	irqBit      uint32
}

// New returns a timer at its post-reset state.
func New(idx Index, irqBit uint32) *Timer {
	return &Timer{idx: idx, irqBit: irqBit, mode: bitIRQDisabled}
}

func (t *Timer) resetValue() uint32 {
	if t.mode&bitResetToTarget != 0 {
		return uint32(t.target)
	}
	return 0xFFFF
}

func (t *Timer) divisor(dot DotClock) uint64 {
	src := (t.mode & bitsClockSrc) >> 8
	switch t.idx {
	case Timer0:
		if src&1 == 1 && dot != nil {
			d := dot.DotClockDivisor()
			if d == 0 {
				return 1
			}
			return d
		}
		return 1
	case Timer1:
		// Timer 1 ticks every CPU cycle whichever clock source is
		// selected; HBlank-clocked counting is not implemented.
		return 1
	case Timer2:
		if src&2 != 0 {
			return 8
		}
		return 1
	}
	return 1
}

// advance brings the counter forward from lastUpdated to the given
// absolute cycle, honoring the clock source divisor. It is a no-op
// while the sync gate is paused.
func (t *Timer) advance(now uint64, dot DotClock, irq IRQRaiser) {
	if now <= t.lastUpdated {
		return
	}
	elapsed := now - t.lastUpdated
	t.lastUpdated = now
	if t.paused {
		return
	}
	div := t.divisor(dot)
	ticks := elapsed / div
	if ticks == 0 {
		return
	}
	t.tick(ticks, irq)
}

func (t *Timer) tick(ticks uint64, irq IRQRaiser) {
	reset := t.resetValue()
	modulus := reset + 1
	target := uint32(t.target)
	cur := uint32(t.counter)
	crossedTarget := false
	crossedFFFF := false
	for ticks > 0 {
		// Advance in one jump across however many wraps are needed, but
		// detect at least one crossing of target/0xffff per wrap so the
		// sticky bits and pulse IRQs are accurate in the common case of
		// small tick counts (scheduler batches are small by construction).
		step := ticks
		distToWrap := uint64(modulus) - uint64(cur)
		if step > distToWrap {
			step = distToWrap
		}
		next := cur + uint32(step)
		if target > cur && target <= next {
			crossedTarget = true
		}
		if 0xFFFF > cur && 0xFFFF <= next {
			crossedFFFF = true
		}
		cur = next
		if cur >= modulus {
			cur = 0
		}
		ticks -= step
		if step == 0 {
			break
		}
	}
	t.counter = uint16(cur)
	if crossedTarget {
		t.mode |= bitReachedTarget
		if t.mode&bitIRQOnTarget != 0 {
			t.fireIRQ(irq)
		}
	}
	if crossedFFFF {
		t.mode |= bitReachedFFFF
		if t.mode&bitIRQOnFFFF != 0 {
			t.fireIRQ(irq)
		}
	}
}

func (t *Timer) fireIRQ(irq IRQRaiser) {
	if irq == nil {
		return
	}
	if t.mode&bitIRQToggle != 0 {
		// Toggle mode: flip the enable each time rather than pulsing.
		t.mode ^= bitIRQDisabled
		if t.mode&bitIRQDisabled == 0 {
			irq.Assert(t.irqBit)
		}
	} else {
		// Pulse mode: bit 10 stays set until a one-shot timer fires,
		// so a one-shot fires once per mode write; a repeating timer
		// fires on every trigger.
		if t.mode&bitIRQRepeat != 0 || t.mode&bitIRQDisabled != 0 {
			irq.Assert(t.irqBit)
			if t.mode&bitIRQRepeat == 0 {
				t.mode &^= bitIRQDisabled
			}
		}
	}
}

// ReadCounter brings the counter up to date and returns it.
func (t *Timer) ReadCounter(now uint64, dot DotClock, irq IRQRaiser) uint16 {
	t.advance(now, dot, irq)
	return t.counter
}

// WriteCounter sets the counter directly (guest write to +0).
func (t *Timer) WriteCounter(now uint64, dot DotClock, irq IRQRaiser, v uint16) {
	t.advance(now, dot, irq)
	t.counter = v
}

// ReadMode brings the counter up to date, clears the sticky reached
// bits (reading mode clears them per spec.md §4.4), and returns the
// pre-clear value.
func (t *Timer) ReadMode(now uint64, dot DotClock, irq IRQRaiser) uint32 {
	t.advance(now, dot, irq)
	v := t.mode
	t.mode &^= bitReachedTarget | bitReachedFFFF
	return v
}

// WriteMode resets the counter to 0 and sets irq_disabled, per
// spec.md §4.4.
func (t *Timer) WriteMode(now uint64, dot DotClock, irq IRQRaiser, v uint32) {
	t.advance(now, dot, irq)
	t.counter = 0
	t.mode = (t.mode &^ (writableMask | bitReachedTarget | bitReachedFFFF)) | (v & writableMask)
	t.mode |= bitIRQDisabled
}

// ReadTarget/WriteTarget access the 16-bit compare target.
func (t *Timer) ReadTarget() uint16 {
	return t.target
}

func (t *Timer) WriteTarget(v uint16) {
	t.target = v
}

// setSyncGate is called by Bank on HBlank/VBlank edges to open or close
// the counting gate per the sync-mode matrix in spec.md §4.4.
func (t *Timer) setSyncGate(paused bool) {
	t.paused = paused
}

func (t *Timer) syncMode() uint32 {
	return (t.mode & bitsSyncMode) >> 1
}

func (t *Timer) syncEnabled() bool {
	return t.mode&bitSyncEnable != 0
}

func (t *Timer) disableSync() {
	t.mode &^= bitSyncEnable
}
