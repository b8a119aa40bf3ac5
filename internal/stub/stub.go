/*
   Stub register banks for the CDROM, SPU, and SIO devices: word-
   addressable surfaces that accept writes (logged, dropped) and return
   zero on reads, since only the core's contract with these devices is
   in scope, not their decoded behavior (spec.md §1, §4.2, SPEC_FULL.md
   §4.9).

   The CDROM instance is specialized with one constant status byte so
   BIOS probing code that polls for a disc does not spin forever.

   Copyright (c) 2026
*/

package stub

import "log/slog"

// cdromStatusIdle is CDROM status register bit layout: no shell open,
// no disc present, motor off. BIOS status polling loops exit as soon
// as the shell/disc bits settle rather than spinning forever.
const cdromStatusIdle = 0x00

// Bank is a word-addressable register surface that logs and drops
// writes and reads back zero, except an optionally configured status
// offset which returns a fixed value.
type Bank struct {
	name string

	hasStatus   bool
	statusOff   uint32
	statusValue uint32
}

// New returns a plain stub bank (SPU, SIO) with no special registers.
func New(name string) *Bank {
	return &Bank{name: name}
}

// NewCdrom returns the CDROM stub: its status register (offset 0)
// always reads back an idle byte instead of zero.
func NewCdrom() *Bank {
	return &Bank{name: "cdrom", hasStatus: true, statusOff: 0, statusValue: cdromStatusIdle}
}

func (b *Bank) ReadWord(offset uint32) uint32 {
	if b.hasStatus && offset == b.statusOff {
		return b.statusValue
	}
	slog.Debug("stub register read", "device", b.name, "offset", offset)
	return 0
}

func (b *Bank) WriteWord(offset uint32, v uint32) {
	slog.Debug("stub register write", "device", b.name, "offset", offset, "value", v)
}
