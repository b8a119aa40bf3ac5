package cpu

// decode slices the fixed bit fields out of a 32-bit instruction word
// (spec.md §3's "Instruction word").
func decode(word uint32, pc uint32, inDelaySlot bool) stepInfo {
	return stepInfo{
		pc:          pc,
		word:        word,
		opcode:      word >> 26,
		rs:          (word >> 21) & 0x1F,
		rt:          (word >> 16) & 0x1F,
		rd:          (word >> 11) & 0x1F,
		shamt:       (word >> 6) & 0x1F,
		funct:       word & 0x3F,
		imm16:       word & 0xFFFF,
		imm26:       word & 0x3FFFFFF,
		inDelaySlot: inDelaySlot,
	}
}

func signExtend16(v uint32) uint32 {
	return uint32(int32(int16(v)))
}

// branchTo arms the branch-delay override: the instruction at PC+4
// (already selected as nextPC by Step) executes first, then control
// transfers to target (spec.md §4.1 / §9's branch-delay note).
func (c *CPU) branchTo(target uint32) {
	c.branchTarget = target
	c.branchPending = true
}
