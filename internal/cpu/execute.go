package cpu

// execute decodes and runs one instruction against the committed
// register file (the load-delay armed slot has already been committed
// by Step before this call). Returns (exception, true) if the instruction
// faulted; the caller (Step) vectors to the handler in that case and
// discards the instruction's effects, per spec.md §4.1's contract.
func (c *CPU) execute(bus Bus, si stepInfo) (Exception, bool) {
	switch si.opcode {
	case 0x00:
		return c.execSpecial(bus, si)
	case 0x01:
		return c.execRegimm(si)
	case 0x02: // J
		c.branchTo((si.pc & 0xF0000000) | (si.imm26 << 2))
		return 0, false
	case 0x03: // JAL
		c.setGPR(31, si.pc+8)
		c.branchTo((si.pc & 0xF0000000) | (si.imm26 << 2))
		return 0, false
	case 0x04: // BEQ
		return c.execBranch(si, c.GPR(si.rs) == c.GPR(si.rt))
	case 0x05: // BNE
		return c.execBranch(si, c.GPR(si.rs) != c.GPR(si.rt))
	case 0x06: // BLEZ
		return c.execBranch(si, int32(c.GPR(si.rs)) <= 0)
	case 0x07: // BGTZ
		return c.execBranch(si, int32(c.GPR(si.rs)) > 0)
	case 0x08: // ADDI
		return c.execAddImm(si, true)
	case 0x09: // ADDIU
		return c.execAddImm(si, false)
	case 0x0A: // SLTI
		c.setGPR(si.rt, b2u(int32(c.GPR(si.rs)) < int32(signExtend16(si.imm16))))
		return 0, false
	case 0x0B: // SLTIU
		c.setGPR(si.rt, b2u(c.GPR(si.rs) < signExtend16(si.imm16)))
		return 0, false
	case 0x0C: // ANDI
		c.setGPR(si.rt, c.GPR(si.rs)&si.imm16)
		return 0, false
	case 0x0D: // ORI
		c.setGPR(si.rt, c.GPR(si.rs)|si.imm16)
		return 0, false
	case 0x0E: // XORI
		c.setGPR(si.rt, c.GPR(si.rs)^si.imm16)
		return 0, false
	case 0x0F: // LUI
		c.setGPR(si.rt, si.imm16<<16)
		return 0, false
	case 0x10: // COP0
		return c.execCop0(si)
	case 0x12: // COP2 (GTE)
		return c.execCop2(si)
	case 0x20: // LB
		return c.execLoad(bus, si, loadByte)
	case 0x21: // LH
		return c.execLoad(bus, si, loadHalf)
	case 0x22: // LWL
		return c.execLoadUnaligned(bus, si, true)
	case 0x23: // LW
		return c.execLoad(bus, si, loadWord)
	case 0x24: // LBU
		return c.execLoad(bus, si, loadByteU)
	case 0x25: // LHU
		return c.execLoad(bus, si, loadHalfU)
	case 0x26: // LWR
		return c.execLoadUnaligned(bus, si, false)
	case 0x28: // SB
		return c.execStore(bus, si, storeByte)
	case 0x29: // SH
		return c.execStore(bus, si, storeHalf)
	case 0x2A: // SWL
		return c.execStoreUnaligned(bus, si, true)
	case 0x2B: // SW
		return c.execStore(bus, si, storeWord)
	case 0x2E: // SWR
		return c.execStoreUnaligned(bus, si, false)
	case 0x32: // LWC2
		return c.execLWC2(bus, si)
	case 0x3A: // SWC2
		return c.execSWC2(bus, si)
	default:
		return ExcReservedInstr, true
	}
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func (c *CPU) execBranch(si stepInfo, taken bool) (Exception, bool) {
	if taken {
		c.branchTo(si.pc + 4 + (signExtend16(si.imm16) << 2))
	}
	return 0, false
}

func (c *CPU) execAddImm(si stepInfo, checkOverflow bool) (Exception, bool) {
	a := int32(c.GPR(si.rs))
	b := int32(signExtend16(si.imm16))
	sum := a + b
	if checkOverflow && overflowsAdd(a, b, sum) {
		return ExcOverflow, true
	}
	c.setGPR(si.rt, uint32(sum))
	return 0, false
}

func overflowsAdd(a, b, sum int32) bool {
	return ((a ^ sum) & (b ^ sum)) < 0
}

func overflowsSub(a, b, diff int32) bool {
	return ((a ^ b) & (a ^ diff)) < 0
}

// execSpecial dispatches the SPECIAL (opcode 0) function field.
func (c *CPU) execSpecial(bus Bus, si stepInfo) (Exception, bool) {
	switch si.funct {
	case 0x00: // SLL
		c.setGPR(si.rd, c.GPR(si.rt)<<si.shamt)
	case 0x02: // SRL
		c.setGPR(si.rd, c.GPR(si.rt)>>si.shamt)
	case 0x03: // SRA
		c.setGPR(si.rd, uint32(int32(c.GPR(si.rt))>>si.shamt))
	case 0x04: // SLLV
		c.setGPR(si.rd, c.GPR(si.rt)<<(c.GPR(si.rs)&0x1F))
	case 0x06: // SRLV
		c.setGPR(si.rd, c.GPR(si.rt)>>(c.GPR(si.rs)&0x1F))
	case 0x07: // SRAV
		c.setGPR(si.rd, uint32(int32(c.GPR(si.rt))>>(c.GPR(si.rs)&0x1F)))
	case 0x08: // JR
		c.branchTo(c.GPR(si.rs))
	case 0x09: // JALR
		target := c.GPR(si.rs)
		c.setGPR(si.rd, si.pc+8)
		c.branchTo(target)
	case 0x0C: // SYSCALL
		return ExcSyscall, true
	case 0x0D: // BREAK
		return ExcBreak, true
	case 0x10: // MFHI
		c.setGPR(si.rd, c.hi)
	case 0x11: // MTHI
		c.hi = c.GPR(si.rs)
	case 0x12: // MFLO
		c.setGPR(si.rd, c.lo)
	case 0x13: // MTLO
		c.lo = c.GPR(si.rs)
	case 0x18: // MULT
		c.execMult(si, true)
	case 0x19: // MULTU
		c.execMult(si, false)
	case 0x1A: // DIV
		c.execDiv(si)
	case 0x1B: // DIVU
		c.execDivU(si)
	case 0x20: // ADD
		a, b := int32(c.GPR(si.rs)), int32(c.GPR(si.rt))
		sum := a + b
		if overflowsAdd(a, b, sum) {
			return ExcOverflow, true
		}
		c.setGPR(si.rd, uint32(sum))
	case 0x21: // ADDU
		c.setGPR(si.rd, c.GPR(si.rs)+c.GPR(si.rt))
	case 0x22: // SUB
		a, b := int32(c.GPR(si.rs)), int32(c.GPR(si.rt))
		diff := a - b
		if overflowsSub(a, b, diff) {
			return ExcOverflow, true
		}
		c.setGPR(si.rd, uint32(diff))
	case 0x23: // SUBU
		c.setGPR(si.rd, c.GPR(si.rs)-c.GPR(si.rt))
	case 0x24: // AND
		c.setGPR(si.rd, c.GPR(si.rs)&c.GPR(si.rt))
	case 0x25: // OR
		c.setGPR(si.rd, c.GPR(si.rs)|c.GPR(si.rt))
	case 0x26: // XOR
		c.setGPR(si.rd, c.GPR(si.rs)^c.GPR(si.rt))
	case 0x27: // NOR
		c.setGPR(si.rd, ^(c.GPR(si.rs) | c.GPR(si.rt)))
	case 0x2A: // SLT
		c.setGPR(si.rd, b2u(int32(c.GPR(si.rs)) < int32(c.GPR(si.rt))))
	case 0x2B: // SLTU
		c.setGPR(si.rd, b2u(c.GPR(si.rs) < c.GPR(si.rt)))
	default:
		return ExcReservedInstr, true
	}
	return 0, false
}

// execRegimm dispatches BLTZ/BGEZ/BLTZAL/BGEZAL, selected by rt's low
// bit for the >=0 comparison and bit 4 of rt for the link variant
// (spec.md §4.1's decoding paragraph).
func (c *CPU) execRegimm(si stepInfo) (Exception, bool) {
	geZero := si.rt&1 != 0
	link := si.rt&0x10 != 0
	taken := int32(c.GPR(si.rs)) < 0
	if geZero {
		taken = int32(c.GPR(si.rs)) >= 0
	}
	if link {
		c.setGPR(31, si.pc+8)
	}
	return c.execBranch(si, taken)
}

// execMult/execDiv/execDivU implement spec.md §4.1's division edge
// cases and 64-bit multiply split into HI:LO.
func (c *CPU) execMult(si stepInfo, signed bool) {
	if signed {
		prod := int64(int32(c.GPR(si.rs))) * int64(int32(c.GPR(si.rt)))
		c.lo = uint32(prod)
		c.hi = uint32(prod >> 32)
		return
	}
	prod := uint64(c.GPR(si.rs)) * uint64(c.GPR(si.rt))
	c.lo = uint32(prod)
	c.hi = uint32(prod >> 32)
}

func (c *CPU) execDiv(si stepInfo) {
	dividend := int32(c.GPR(si.rs))
	divisor := int32(c.GPR(si.rt))
	switch {
	case divisor == 0:
		c.lo = 0xFFFFFFFF
		if dividend < 0 {
			c.lo = 1
		}
		c.hi = uint32(dividend)
	case dividend == int32(-0x80000000) && divisor == -1:
		c.lo = 0x80000000
		c.hi = 0
	default:
		c.lo = uint32(dividend / divisor)
		c.hi = uint32(dividend % divisor)
	}
}

func (c *CPU) execDivU(si stepInfo) {
	dividend := c.GPR(si.rs)
	divisor := c.GPR(si.rt)
	if divisor == 0 {
		c.lo = 0xFFFFFFFF
		c.hi = dividend
		return
	}
	c.lo = dividend / divisor
	c.hi = dividend % divisor
}

func (c *CPU) execCop0(si stepInfo) (Exception, bool) {
	if !c.cop0Enabled() {
		return ExcCoprocessorUnusable, true
	}
	if si.rs == 0x10 && si.funct == 0x10 {
		c.rfe()
		return 0, false
	}
	switch si.rs {
	case 0x00: // MFC0
		c.queueLoad(si.rt, c.cop0Read(si.rd))
	case 0x04: // MTC0
		c.cop0Write(si.rd, c.GPR(si.rt))
	default:
		return ExcReservedInstr, true
	}
	return 0, false
}

func (c *CPU) execCop2(si stepInfo) (Exception, bool) {
	if !c.cop2Enabled() {
		return ExcCoprocessorUnusable, true
	}
	if si.rs >= 0x10 {
		c.gteCommand(si.word)
		return 0, false
	}
	switch si.rs {
	case 0x00: // MFC2
		c.queueLoad(si.rt, c.gteReadData(si.rd))
	case 0x02: // CFC2
		c.queueLoad(si.rt, c.gteReadCtrl(si.rd))
	case 0x04: // MTC2
		c.gteWriteData(si.rd, c.GPR(si.rt))
	case 0x06: // CTC2
		c.gteWriteCtrl(si.rd, c.GPR(si.rt))
	default:
		return ExcReservedInstr, true
	}
	return 0, false
}

func (c *CPU) execLWC2(bus Bus, si stepInfo) (Exception, bool) {
	if !c.cop2Enabled() {
		return ExcCoprocessorUnusable, true
	}
	addr := c.GPR(si.rs) + signExtend16(si.imm16)
	v, err := bus.ReadWord(addr)
	if err != nil {
		c.cop0.badVAddr = addr
		return ExcAddrErrorLoad, true
	}
	c.gteWriteData(si.rt, v)
	return 0, false
}

func (c *CPU) execSWC2(bus Bus, si stepInfo) (Exception, bool) {
	if !c.cop2Enabled() {
		return ExcCoprocessorUnusable, true
	}
	addr := c.GPR(si.rs) + signExtend16(si.imm16)
	if err := bus.WriteWord(addr, c.gteReadData(si.rt)); err != nil {
		c.cop0.badVAddr = addr
		return ExcAddrErrorStore, true
	}
	return 0, false
}
