/*
   R3000A-compatible integer core: 32 general-purpose registers with
   load-delay and branch-delay slots, COP0 system control, and a COP2
   (GTE) dispatch stub (spec.md §4.1).

   State lives in a single package-visible struct; each instruction is
   decoded into a scratch stepInfo record that decode and execute pass
   along, and opcodes dispatch through switch statements on the opcode
   fields (no virtual dispatch). Execute writes registers, HI/LO and
   COP0 directly as it runs; loads go through the two-slot delayed-load
   record below, and PC advances only when execute reports no
   exception.

   Copyright (c) 2026
*/

package cpu

import "github.com/rcornwell/psx/internal/device"

// Exception codes, COP0 Cause register bits [6:2].
type Exception int

const (
	ExcInterrupt           Exception = 0
	ExcAddrErrorLoad       Exception = 4
	ExcAddrErrorStore      Exception = 5
	ExcBusErrorFetch       Exception = 6
	ExcBusErrorData        Exception = 7
	ExcSyscall             Exception = 8
	ExcBreak               Exception = 9
	ExcReservedInstr       Exception = 10
	ExcCoprocessorUnusable Exception = 11
	ExcOverflow            Exception = 12
)

// Bus is the subset of the system memory bus the CPU issues accesses
// through. Unaligned half/word access returns *bus.AddrError-shaped
// errors; the CPU only inspects whether err is non-nil and pulls
// BADVADDR from the address it requested.
type Bus interface {
	ReadByte(addr uint32) (uint8, error)
	ReadHalf(addr uint32) (uint16, error)
	ReadWord(addr uint32) (uint32, error)
	WriteByte(addr uint32, v uint8) error
	WriteHalf(addr uint32, v uint16) error
	WriteWord(addr uint32, v uint32) error
}

// pendingLoad is a one-slot delayed-load record. Two of these are kept
// in a small shift register (design notes, spec.md §9): a load issued
// by instruction N is queued, promoted to "armed" while instruction
// N+1 runs (so N+1 still reads N's pre-load value: the load-delay
// slot), and only committed to the register file at the start of
// instruction N+2 — unless a nearer write to the same register beats
// it.
type pendingLoad struct {
	valid bool
	reg   uint32
	value uint32
}

// CPU is the architectural state: the committed register file (shadow
// writes land here at the next instruction boundary), PC, HI/LO, the
// branch-delay override, the two delayed-load slots, and COP0.
type CPU struct {
	regs [32]uint32
	pc   uint32
	hi, lo uint32

	branchTarget uint32
	branchPending bool

	loadArmed  pendingLoad
	loadQueued pendingLoad

	cop0 cop0State
	gte  gteState

	irq IRQLine

	// Bios putchar side-load hook accumulator; tests and the TTY
	// surface read this, not part of architectural state.
	TTY []byte

	// Trace, if set, is called with the fetch PC and raw instruction
	// word at the start of every Step. It is nil by default so the
	// --debug CLI flag costs nothing when off (SPEC_FULL.md's CPU
	// debug-tracing supplement).
	Trace func(pc, word uint32)
}

// IRQLine supplies the aggregated device interrupt state the CPU ORs
// into Cause bit 10 before each instruction.
type IRQLine interface {
	Pending() bool
}

// New returns a CPU reset to the BIOS entry vector.
func New(irq IRQLine) *CPU {
	c := &CPU{irq: irq}
	c.Reset()
	return c
}

// Reset restores power-on state: PC at the BIOS reset vector, BEV set,
// everything else zeroed.
func (c *CPU) Reset() {
	c.regs = [32]uint32{}
	c.pc = 0xBFC00000
	c.hi, c.lo = 0, 0
	c.branchPending = false
	c.loadArmed = pendingLoad{}
	c.loadQueued = pendingLoad{}
	c.cop0 = cop0State{sr: srBEV}
	c.gte = gteState{}
}

// PC returns the current program counter (used by System's side-load
// and test-visible entry points).
func (c *CPU) PC() uint32 { return c.pc }

// SetPC overrides the program counter, used by System's EXE side-load
// after it has finished walking the BIOS to its post-init hook.
func (c *CPU) SetPC(pc uint32) {
	c.pc = pc
	c.branchPending = false
}

// GPR reads/writes a general-purpose register; index 0 always reads 0
// and writes to it are discarded.
func (c *CPU) GPR(i uint32) uint32 { return c.regs[i&31] }

func (c *CPU) setGPR(i uint32, v uint32) {
	if i == 0 {
		return
	}
	c.regs[i&31] = v
	// A write in a load's delay slot to the load's destination wins.
	if c.loadArmed.valid && c.loadArmed.reg == i&31 {
		c.loadArmed.valid = false
	}
}

// SetGPR is setGPR exported for System's EXE side-load path, which
// seeds GP/SP/FP straight from the executable header (spec.md §4.8).
func (c *CPU) SetGPR(i uint32, v uint32) {
	c.setGPR(i, v)
}

// stepInfo is the per-instruction scratch struct threaded through
// decode and execute.
type stepInfo struct {
	pc     uint32
	word   uint32
	opcode uint32
	rs, rt, rd uint32
	shamt  uint32
	funct  uint32
	imm16  uint32
	imm26  uint32
	inDelaySlot bool
}

// Step advances exactly one architectural instruction: fetch, select
// next PC, commit the pending load, execute, commit register 0, and
// advance PC (spec.md §4.1's contract).
func (c *CPU) Step(bus Bus) {
	if c.checkExternalInterrupt() {
		return
	}

	if c.biosCall() {
		return
	}

	fetchPC := c.pc
	word, err := bus.ReadWord(fetchPC)
	if err != nil {
		c.raiseAddrError(ExcAddrErrorLoad, fetchPC, false)
		return
	}

	inDelaySlot := c.branchPending
	nextPC := fetchPC + 4
	if c.branchPending {
		nextPC = c.branchTarget
		c.branchPending = false
	}

	if c.Trace != nil {
		c.Trace(fetchPC, word)
	}

	si := decode(word, fetchPC, inDelaySlot)

	// Commit the load that has sat one full instruction in the armed
	// slot, then promote this step's queued load (from the PREVIOUS
	// instruction) into armed. Anything execute() queues below for the
	// CURRENT instruction lands in loadQueued and won't be visible
	// until two steps from now.
	c.commitArmedLoad()
	c.loadArmed = c.loadQueued
	c.loadQueued = pendingLoad{}

	if exc, ok := c.execute(bus, si); ok {
		c.raiseException(exc, si, 0, false)
		return
	}

	c.regs[0] = 0
	c.pc = nextPC
}

// commitArmedLoad applies the load that has been sitting in the armed
// slot since the previous step. Any ALU write the current instruction
// makes to the same register happens afterward, in execute, so the
// nearer write still wins (spec.md §4.1/§9).
func (c *CPU) commitArmedLoad() {
	if !c.loadArmed.valid {
		return
	}
	reg := c.loadArmed.reg
	c.loadArmed.valid = false
	if reg == 0 {
		return
	}
	c.regs[reg] = c.loadArmed.value
}

// queueLoad records a load this instruction issued; it sits in
// loadQueued until the next Step promotes it to armed, keeping the
// result invisible to the load-delay slot instruction immediately
// following.
func (c *CPU) queueLoad(reg uint32, value uint32) {
	c.loadQueued = pendingLoad{valid: true, reg: reg, value: value}
}

// checkExternalInterrupt ORs the aggregated device IRQ line into Cause
// bit 10 and raises ExternalInterrupt if enabled (spec.md §4.1). It
// reports whether the exception was taken, which consumes the step.
func (c *CPU) checkExternalInterrupt() bool {
	if c.irq != nil && c.irq.Pending() {
		c.cop0.cause |= 1 << 10
	} else {
		c.cop0.cause &^= 1 << 10
	}
	if c.cop0.sr&srIEc == 0 {
		return false
	}
	pending := (c.cop0.cause >> 8) & 0xFF
	mask := (c.cop0.sr >> 8) & 0xFF
	if pending&mask != 0 {
		c.raiseException(ExcInterrupt, stepInfo{pc: c.pc, inDelaySlot: c.branchPending}, 0, false)
		return true
	}
	return false
}

func (c *CPU) raiseAddrError(exc Exception, addr uint32, store bool) {
	c.cop0.badVAddr = addr
	c.raiseException(exc, stepInfo{pc: c.pc, inDelaySlot: c.branchPending}, 0, false)
}

// raiseException implements spec.md §4.1's exception-handling
// paragraph: shift the SR mode stack, set Cause's exception code and
// delay-slot bit, set EPC, and vector to 0x80000080/0xBFC00180.
func (c *CPU) raiseException(exc Exception, si stepInfo, extra uint32, _ bool) {
	mode := c.cop0.sr & 0x3F
	c.cop0.sr = (c.cop0.sr &^ 0x3F) | ((mode << 2) & 0x3F)

	c.cop0.cause = (c.cop0.cause &^ 0x7C) | (uint32(exc) << 2)

	epc := si.pc
	if si.inDelaySlot {
		epc = si.pc - 4
		c.cop0.cause |= 1 << 31
	} else {
		c.cop0.cause &^= 1 << 31
	}
	c.cop0.epc = epc

	if c.cop0.sr&srBEV != 0 {
		c.pc = 0xBFC00180
	} else {
		c.pc = 0x80000080
	}
	c.branchPending = false
}

// biosPutcharFunc is the A0-table function index real BIOS images
// assign to putchar.
const biosPutcharFunc = 0x3C

// biosCall traps PC landing on one of the three PSX BIOS function-
// table entry points (0xA0/0xB0/0xC0). Real software reaches these
// with `jal` and the function index in r9; the tables themselves are
// out of scope (high-level BIOS emulation is a non-goal), so every
// function is a no-op except putchar, which is observable enough to
// exercise the side-load/TTY test scenario without a real BIOS image.
// Returning true means the step is consumed: control returns directly
// to the caller in r31, as if the (unemulated) table function had run
// and returned.
func (c *CPU) biosCall() bool {
	switch c.pc {
	case 0xA0, 0xB0, 0xC0:
	default:
		return false
	}
	if c.pc == 0xA0 && c.GPR(9) == biosPutcharFunc {
		c.TTY = append(c.TTY, byte(c.GPR(4)))
	}
	c.pc = c.GPR(31)
	c.branchPending = false
	return true
}

// fatal wraps device.Abort for CPU-detected programming errors (a
// coprocessor command with reserved bits set, etc.)
func (c *CPU) fatal(msg string) {
	device.Abort(msg)
}
