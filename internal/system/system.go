/*
   System composition: owns the CPU, bus, DMA controller, GPU,
   interrupt controller, timer bank, scheduler, and the stubbed
   SPU/CDROM/SIO devices, and drives the outer frame-step loop
   (spec.md §4.8).

   New wires every subcomponent together and installs them on the
   bus's MMIO routing table. The core is synchronous (spec.md §5):
   StepFrame steps the CPU and drains the scheduler in-line, with no
   background goroutine, returning once per video frame.

   Copyright (c) 2026
*/

package system

import (
	"fmt"

	"github.com/rcornwell/psx/internal/bus"
	"github.com/rcornwell/psx/internal/cpu"
	"github.com/rcornwell/psx/internal/device"
	"github.com/rcornwell/psx/internal/dma"
	"github.com/rcornwell/psx/internal/gpu"
	"github.com/rcornwell/psx/internal/irq"
	"github.com/rcornwell/psx/internal/scheduler"
	"github.com/rcornwell/psx/internal/stub"
	"github.com/rcornwell/psx/internal/timer"
)

// cyclesPerFrame is the NTSC CPU-clock frame budget (33.8688 MHz /
// 60 Hz), the "per-frame cycle budget" spec.md §4.8 schedules VBlank
// against.
const cyclesPerFrame = 564480

// cyclesPerInstr models the "two cycles per instruction" accounting
// spec.md §2's control-flow paragraph specifies for the outer loop.
const cyclesPerInstr = 2

var tagVBlank = scheduler.Tag{Kind: scheduler.VBlankStart}

// busRAM adapts *bus.Bus and *irq.Controller together into
// dma.IRQRAM: the DMA controller needs both masked RAM word access
// (only Bus has it) and the ability to assert its completion IRQ
// (only Controller has it), and no single existing type implements
// both.
type busRAM struct {
	*bus.Bus
	*irq.Controller
}

// System is the sole entry point the embedding shell drives: every
// method call is synchronous, there is no internal concurrency
// (spec.md §5).
type System struct {
	Bus       *bus.Bus
	CPU       *cpu.CPU
	DMA       *dma.Controller
	GPU       *gpu.GPU
	IRQ       *irq.Controller
	Timers    *timer.Bank
	Scheduler *scheduler.Scheduler
	Cdrom     *stub.Bank
	SPU       *stub.Bank
	SIO       *stub.Bank
}

// New wires every subcomponent and returns a System at power-on reset.
func New() *System {
	b := bus.New()
	irqc := irq.New()
	g := gpu.New(irqc)
	tb := timer.NewBank(irqc, g)
	d := dma.New(busRAM{Bus: b, Controller: irqc})
	d.SetGPU(g)
	c := cpu.New(irqc)
	cdrom := stub.NewCdrom()
	spu := stub.New("spu")
	sio := stub.New("sio")

	b.GPU = g
	b.DMA = d
	b.IRQ = irqc
	b.Timers = tb
	b.Cdrom = cdrom
	b.SPU = spu
	b.SIO = sio

	return &System{
		Bus:       b,
		CPU:       c,
		DMA:       d,
		GPU:       g,
		IRQ:       irqc,
		Timers:    tb,
		Scheduler: scheduler.New(),
		Cdrom:     cdrom,
		SPU:       spu,
		SIO:       sio,
	}
}

// LoadBIOS installs the boot ROM image (spec.md §6).
func (s *System) LoadBIOS(data []byte) error {
	return s.Bus.LoadBIOS(data)
}

// StepFrame runs the CPU for one video frame: schedule a VBlank at the
// frame budget, then alternately advance the CPU and drain the
// scheduler until that VBlank fires, asserting the vblank IRQ bit on
// the way out (spec.md §2, §4.8).
func (s *System) StepFrame() {
	s.Scheduler.Schedule(tagVBlank, cyclesPerFrame, 0)

	for {
		remaining := s.Scheduler.CyclesTillNext()
		instrs := remaining / cyclesPerInstr
		if instrs == 0 {
			instrs = 1
		}
		for i := uint64(0); i < instrs; i++ {
			s.CPU.Step(s.Bus)
		}
		s.Scheduler.Progress(instrs * cyclesPerInstr)
		s.Timers.Progress(s.Scheduler.SysClock())

		tag, ok := s.Scheduler.NextEvent()
		if !ok {
			continue
		}
		switch tag.Kind {
		case scheduler.VBlankStart:
			s.Timers.OnVBlankStart()
			s.IRQ.Assert(device.IRQVBlank)
			return
		case scheduler.HBlankStart:
			s.Timers.OnHBlankStart()
		case scheduler.HBlankEnd:
			s.Timers.OnHBlankEnd()
		case scheduler.VBlankEnd:
			s.Timers.OnVBlankEnd()
		}
	}
}

const (
	exeHeaderSize      = 2048
	exeOffPC           = 0x10
	exeOffGP           = 0x14
	exeOffDestAddr     = 0x18
	exeOffSize         = 0x1C
	exeOffSP           = 0x30
	biosPostInitHook   = 0x80030000
	regGP              = 28
	regSP              = 29
	regFP              = 30
)

// LoadEXE steps the CPU until it reaches the BIOS post-init hook, then
// overwrites RAM with the executable image described by its 2048-byte
// header, seeds the matching GPRs, and sets PC (spec.md §4.8, §6).
//
// The step loop is bounded: a BIOS image whose reset path never
// reaches the hook would otherwise spin forever, which is a startup
// failure the caller should report rather than a CPU programming bug.
func (s *System) LoadEXE(image []byte) error {
	if len(image) < exeHeaderSize {
		return fmt.Errorf("psx-exe image too short: %d bytes, want at least %d", len(image), exeHeaderSize)
	}

	const maxStartupInstrs = 50_000_000
	for i := 0; s.CPU.PC() != biosPostInitHook; i++ {
		if i >= maxStartupInstrs {
			return fmt.Errorf("BIOS never reached post-init hook %#x", uint32(biosPostInitHook))
		}
		s.CPU.Step(s.Bus)
	}

	header := image[:exeHeaderSize]
	initPC := leWord(header, exeOffPC)
	initGP := leWord(header, exeOffGP)
	destAddr := leWord(header, exeOffDestAddr) & 0x1FFFFF
	size := leWord(header, exeOffSize)
	initSP := leWord(header, exeOffSP)

	payload := image[exeHeaderSize:]
	if uint32(len(payload)) < size {
		size = uint32(len(payload))
	}
	dest := s.Bus.RAMBytes(destAddr, int(size))
	copy(dest, payload[:size])

	s.CPU.SetGPR(regGP, initGP)
	if initSP != 0 {
		s.CPU.SetGPR(regSP, initSP)
		s.CPU.SetGPR(regFP, initSP)
	}
	s.CPU.SetPC(initPC)
	return nil
}

func leWord(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}
