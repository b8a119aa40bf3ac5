/*
   PSX device definitions shared across the bus, IRQ controller, DMA
   controller, and timers: the IRQ bit assignments, the Asserter
   contract a device raises its bit through, and the Fatal panic type
   used for unrecoverable programming errors.

   Copyright (c) 2024, Richard Cornwell
   Copyright (c) 2026

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
*/

package device

// IRQ bit assignments in the interrupt controller's stat/mask registers.
const (
	IRQVBlank  uint32 = 1 << 0 // Vertical blank
	IRQGPU     uint32 = 1 << 1 // GPU command FIFO ready / GP1(0x02) ack
	IRQCdrom   uint32 = 1 << 2 // CDROM controller
	IRQDMA     uint32 = 1 << 3 // DMA controller
	IRQTimer0  uint32 = 1 << 4 // Timer 0
	IRQTimer1  uint32 = 1 << 5 // Timer 1
	IRQTimer2  uint32 = 1 << 6 // Timer 2
	IRQControl uint32 = 1 << 7 // Controller/memory card
	IRQSIO     uint32 = 1 << 8 // Serial I/O port
	IRQSPU     uint32 = 1 << 9 // Sound processing unit
	IRQLightpen uint32 = 1 << 10
)

// Asserter is implemented by the interrupt controller: devices call Assert
// to raise their bit in stat without needing to know about masking policy.
type Asserter interface {
	Assert(bit uint32)
}

// Fatal is the panic payload for programming errors that spec.md §7
// classifies as process-aborting: invalid DMA configuration, MMIO writes
// to unmapped space, GPU commands with reserved/unsupported bits set.
//
// cmd/psx recovers exactly one of these at the top of main and turns it
// into a logged error plus a non-zero exit code, since these conditions
// are detected deep inside synchronous call chains (bus writes, DMA
// runs) rather than at a single top-level call site.
type Fatal struct {
	Msg  string
	Addr uint32
	HasAddr bool
}

func (f Fatal) Error() string {
	if f.HasAddr {
		return f.Msg + " (address " + hex32(f.Addr) + ")"
	}
	return f.Msg
}

// Abort panics with a Fatal carrying no address.
func Abort(msg string) {
	panic(Fatal{Msg: msg})
}

// AbortAddr panics with a Fatal carrying the offending address.
func AbortAddr(msg string, addr uint32) {
	panic(Fatal{Msg: msg, Addr: addr, HasAddr: true})
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	buf := [10]byte{'0', 'x'}
	for i := 0; i < 8; i++ {
		shift := uint(28 - 4*i)
		buf[2+i] = digits[(v>>shift)&0xf]
	}
	return string(buf[:])
}
