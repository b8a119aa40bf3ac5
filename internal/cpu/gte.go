package cpu

import "log/slog"

// gteState models the GTE (COP2, geometry transform engine) only at
// the register-bank and command-dispatch level (spec.md §1's scope
// note and §9's open question): 32 data registers, 32 control
// registers, and a command dispatch that logs the opcode instead of
// computing a result. Software relying on actual GTE math is outside
// this core.
type gteState struct {
	data    [32]uint32
	control [32]uint32
}

func (c *CPU) gteReadData(reg uint32) uint32    { return c.gte.data[reg&31] }
func (c *CPU) gteWriteData(reg uint32, v uint32) { c.gte.data[reg&31] = v }
func (c *CPU) gteReadCtrl(reg uint32) uint32    { return c.gte.control[reg&31] }
func (c *CPU) gteWriteCtrl(reg uint32, v uint32) { c.gte.control[reg&31] = v }

// gteCommand dispatches a COP2 imm25 command word; every command is a
// logged no-op.
func (c *CPU) gteCommand(cmd uint32) {
	slog.Debug("gte: command dispatched (stub)", "opcode", cmd&0x3F)
}
