package cpu

// COP0 status register bits relevant to this core.
const (
	srIEc            = 1 << 0  // current interrupt enable
	srCacheIsolate   = 1 << 16 // isolate cache: normal loads/stores become no-ops
	srBEV            = 1 << 22 // bootstrap exception vector
)

// cop0State holds the system-control coprocessor registers the core
// models: SR, Cause, EPC, BadVAddr, plus PRId (read-only, identifies
// the core as an R3000A).
type cop0State struct {
	sr       uint32
	cause    uint32
	epc      uint32
	badVAddr uint32
}

const prIdR3000A = 0x00000002

// cop0Read implements MFC0 for the registers this core models; any
// other register number reads as 0 (unimplemented debug/TLB registers
// have no effect on this CPU).
func (c *CPU) cop0Read(reg uint32) uint32 {
	switch reg {
	case 12:
		return c.cop0.sr
	case 13:
		return c.cop0.cause
	case 14:
		return c.cop0.epc
	case 8:
		return c.cop0.badVAddr
	case 15:
		return prIdR3000A
	default:
		return 0
	}
}

func (c *CPU) cop0Write(reg uint32, v uint32) {
	switch reg {
	case 12:
		c.cop0.sr = v
	case 13:
		// Cause's only writable bits are the two software-interrupt bits.
		c.cop0.cause = (c.cop0.cause &^ 0x300) | (v & 0x300)
	case 14:
		c.cop0.epc = v
	}
}

// rfe reverses the SR mode-stack shift performed on exception entry.
func (c *CPU) rfe() {
	mode := c.cop0.sr & 0x3F
	c.cop0.sr = (c.cop0.sr &^ 0xF) | (mode >> 2)
}

// cop0Enabled reports whether COP0 is accessible: always true in
// kernel mode, which this core treats as the only mode (no user/kernel
// split is modeled beyond the enable bits).
func (c *CPU) cop0Enabled() bool {
	return true
}

// cop2Enabled reports whether COP2 (GTE) is enabled via SR bit 30.
func (c *CPU) cop2Enabled() bool {
	return c.cop0.sr&(1<<30) != 0
}

func (c *CPU) cacheIsolated() bool {
	return c.cop0.sr&srCacheIsolate != 0
}
