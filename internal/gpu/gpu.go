/*
   PSX GPU: the GP0 command FIFO state machine, a software rasterizer,
   1 MiB of VRAM, and the GP1 display-control register surface
   (spec.md §4.7).

   A fixed lookup table maps each GP0 opcode to a handler plus its
   known argument count, and a small state struct tracks what the FIFO
   is mid-way through collecting (awaiting a command, awaiting its
   remaining argument words, or streaming a VRAM copy). The rasterizer
   itself — fill rule, interpolation, CLUT/texture sampling, dithering,
   blending — follows spec.md §4.7.3's edge-function description
   directly.

   Copyright (c) 2026
*/

package gpu

import "log/slog"

// fifoState is the GP0 FIFO's current mode (spec.md §3's "GP0 state").
type fifoState int

const (
	stateAwaitCommand fifoState = iota
	stateAwaitArgs
	statePolyLine
	stateCopyToVRAM
	stateCopyFromVRAM
)

// drawContext holds everything GP0 environment commands (0xE1-0xE6)
// and GP1 display commands configure (spec.md §3's "draw context").
type drawContext struct {
	texPageX, texPageY   uint32
	semiTransMode        uint32
	texColors            uint32 // 0=4bit, 1=8bit, 2=15bit
	dither               bool
	drawToDisplay        bool
	textureDisable       bool
	rectTextureFlipX     bool
	rectTextureFlipY     bool

	texWindowMaskX, texWindowMaskY     uint32
	texWindowOffsetX, texWindowOffsetY uint32

	drawAreaX1, drawAreaY1 int32
	drawAreaX2, drawAreaY2 int32
	drawOffsetX, drawOffsetY int32

	mask maskPolicy

	dispVramX, dispVramY     uint32
	dispHRangeX1, dispHRangeX2 uint32
	dispVRangeY1, dispVRangeY2 uint32

	hres        int
	vres        int
	pal         bool
	depth24     bool
	interlace   bool
	displayOff  bool
	dmaDir      uint32
}

// copyWindow tracks an in-progress CopyToVram/CopyFromVram transfer.
type copyWindow struct {
	x, y          uint32
	width, height uint32
	col, row      uint32
}

// pendingArgs is mid-flight state for AwaitArgs/PolyLine.
type pendingArgs struct {
	opcode   uint8
	args     []uint32
	need     int
	vertices []uint32 // for polyline: raw accumulated words
}

// GPU implements the word-only MMIO contract at 0x1F801810-0x1F801817
// (GP0/GPUREAD at offset 0, GP1/GPUSTAT at offset 4).
type GPU struct {
	v    vram
	ctx  drawContext
	irq  IRQRaiser

	state   fifoState
	pending pendingArgs
	copy    copyWindow

	cmdReady bool // GPUSTAT bit 26: ready to accept a new GP0 command word
	irqFlag  bool // GP1(0x02) latch, GPUSTAT bit 24

	field bool // even/odd toggle for interlaced display, GPUSTAT bit 31
}

// IRQRaiser is the subset of the interrupt controller the GPU needs to
// assert its completion bit.
type IRQRaiser interface {
	Assert(bit uint32)
}

const irqGPU = 1 << 1

// New returns a GPU at its GP1(0x00)-reset state.
func New(irq IRQRaiser) *GPU {
	g := &GPU{irq: irq}
	g.resetDisplay()
	return g
}

func (g *GPU) resetDisplay() {
	g.ctx = drawContext{
		hres: 256, vres: 240,
		drawAreaX2: vramWidth - 1, drawAreaY2: vramHeight - 1,
		dispHRangeX2: 256, dispVRangeY2: 240,
		displayOff: true,
	}
	g.state = stateAwaitCommand
	g.pending = pendingArgs{}
	g.cmdReady = true
}

// ReadWord/WriteWord route offset 0 to GP0 (write) / GPUREAD (read) and
// offset 4 to GP1 (write) / GPUSTAT (read).
func (g *GPU) ReadWord(offset uint32) uint32 {
	switch offset {
	case 0:
		return g.readGPUREAD()
	case 4:
		return g.gpuStat()
	default:
		return 0
	}
}

func (g *GPU) WriteWord(offset uint32, v uint32) {
	switch offset {
	case 0:
		g.WriteGP0(v)
	case 4:
		g.writeGP1(v)
	}
}

// WriteGP0 feeds one 32-bit word into the command FIFO; DMA block and
// linked-list transfers call this directly for each payload word.
func (g *GPU) WriteGP0(word uint32) {
	switch g.state {
	case stateAwaitCommand:
		g.decodeCommand(word)
	case stateAwaitArgs:
		g.pending.args = append(g.pending.args, word)
		if len(g.pending.args) >= g.pending.need {
			g.runHandler()
		}
	case statePolyLine:
		g.feedPolyLine(word)
	case stateCopyToVRAM:
		g.feedCopyToVRAM(word)
	default:
		// CopyFromVram ignores GP0 writes; only GPUREAD drains it.
	}
}

func (g *GPU) decodeCommand(word uint32) {
	opcode := uint8(word >> 24)
	if isPolyline(opcode) {
		g.state = statePolyLine
		g.pending = pendingArgs{opcode: opcode, vertices: []uint32{word}}
		return
	}
	entry, ok := gp0Table[opcode]
	if !ok {
		slog.Debug("gpu: unknown GP0 opcode", "opcode", opcode)
		return
	}
	if entry.argCount <= 1 {
		entry.handler(g, []uint32{word})
		return
	}
	g.state = stateAwaitArgs
	g.pending = pendingArgs{opcode: opcode, args: []uint32{word}, need: entry.argCount}
}

func (g *GPU) runHandler() {
	entry := gp0Table[g.pending.opcode]
	args := g.pending.args
	g.state = stateAwaitCommand
	g.pending = pendingArgs{}
	entry.handler(g, args)
}

func (g *GPU) feedPolyLine(word uint32) {
	if word&0xF000F000 == 0x50005000 {
		entry := gp0Table[g.pending.opcode]
		vertices := g.pending.vertices
		g.state = stateAwaitCommand
		g.pending = pendingArgs{}
		entry.handler(g, vertices)
		return
	}
	g.pending.vertices = append(g.pending.vertices, word)
}

func (g *GPU) feedCopyToVRAM(word uint32) {
	lo := uint16(word)
	hi := uint16(word >> 16)
	g.writeCopyPixel(lo)
	if g.copy.row < g.copy.height {
		g.writeCopyPixel(hi)
	}
}

func (g *GPU) writeCopyPixel(px uint16) {
	if g.copy.row >= g.copy.height {
		return
	}
	x := int32(g.copy.x + g.copy.col)
	y := int32(g.copy.y + g.copy.row)
	g.v.put(x, y, px, g.ctx.mask)
	g.copy.col++
	if g.copy.col == g.copy.width {
		g.copy.col = 0
		g.copy.row++
		if g.copy.row == g.copy.height {
			g.state = stateAwaitCommand
		}
	}
}

// readGPUREAD drains a CopyFromVram window two pixels at a time, or
// returns 0 otherwise (nothing is latched for register reads).
func (g *GPU) readGPUREAD() uint32 {
	if g.state != stateCopyFromVRAM {
		return 0
	}
	lo := g.readCopyPixel()
	hi := uint16(0)
	if g.copy.row < g.copy.height {
		hi = g.readCopyPixel()
	}
	return uint32(lo) | uint32(hi)<<16
}

func (g *GPU) readCopyPixel() uint16 {
	if g.copy.row >= g.copy.height {
		return 0
	}
	x := int32(g.copy.x + g.copy.col)
	y := int32(g.copy.y + g.copy.row)
	px := g.v.at(x, y)
	g.copy.col++
	if g.copy.col == g.copy.width {
		g.copy.col = 0
		g.copy.row++
		if g.copy.row == g.copy.height {
			g.state = stateAwaitCommand
		}
	}
	return px
}

// DotClockDivisor implements timer.DotClock: CPU cycles per GPU dot at
// the active horizontal resolution.
func (g *GPU) DotClockDivisor() uint64 {
	switch g.ctx.hres {
	case 256:
		return 10
	case 320:
		return 8
	case 368:
		return 7
	case 512:
		return 5
	case 640:
		return 4
	default:
		return 10
	}
}

func (g *GPU) gpuStat() uint32 {
	var s uint32
	s |= g.ctx.texPageX & 0xF
	s |= (g.ctx.texPageY & 1) << 4
	s |= (g.ctx.semiTransMode & 3) << 5
	s |= (g.ctx.texColors & 3) << 7
	if g.ctx.dither {
		s |= 1 << 9
	}
	if g.ctx.drawToDisplay {
		s |= 1 << 10
	}
	if g.ctx.mask.forceSet {
		s |= 1 << 11
	}
	if g.ctx.mask.preserveMasked {
		s |= 1 << 12
	}
	if g.ctx.interlace {
		s |= 1 << 13
	}
	switch g.ctx.hres {
	case 320:
		s |= 0 << 17
	case 256:
		s |= 0
	case 512:
		s |= 1 << 17
	case 640:
		s |= 2 << 17
	case 368:
		s |= 1 << 16
	}
	if g.ctx.vres == 480 {
		s |= 1 << 19
	}
	if g.ctx.pal {
		s |= 1 << 20
	}
	if g.ctx.depth24 {
		s |= 1 << 21
	}
	if g.ctx.interlace {
		s |= 1 << 22
	}
	if g.ctx.displayOff {
		s |= 1 << 23
	}
	if g.irqFlag {
		s |= 1 << 24
	}
	s |= 1 << 26 // ready to receive GP0 command
	s |= 1 << 27 // ready to send VRAM to CPU
	s |= 1 << 28 // ready to receive DMA block
	s |= (g.ctx.dmaDir & 3) << 29
	if g.field {
		s |= 1 << 31
	}
	return s
}
