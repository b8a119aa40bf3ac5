package gpu

import "github.com/rcornwell/psx/internal/device"

var horizontalWidths = [5]int{256, 320, 512, 640, 368}

// writeGP1 decodes a single-word display-control command (spec.md
// §4.7.2).
func (g *GPU) writeGP1(word uint32) {
	op := uint8(word >> 24)
	switch op {
	case 0x00:
		g.resetDisplay()
	case 0x01:
		g.state = stateAwaitCommand
		g.pending = pendingArgs{}
	case 0x02:
		g.irqFlag = false
	case 0x03:
		g.ctx.displayOff = word&1 != 0
	case 0x04:
		g.ctx.dmaDir = word & 3
	case 0x05:
		g.ctx.dispVramX = word & 0x3FF
		g.ctx.dispVramY = (word >> 10) & 0x1FF
	case 0x06:
		g.ctx.dispHRangeX1 = word & 0xFFF
		g.ctx.dispHRangeX2 = (word >> 12) & 0xFFF
	case 0x07:
		g.ctx.dispVRangeY1 = word & 0x3FF
		g.ctx.dispVRangeY2 = (word >> 10) & 0x3FF
	case 0x08:
		g.applyDisplayMode(word)
	case 0x10:
		// read-internal-register: stubbed, nothing latched to GPUREAD.
	default:
		if op >= 0x20 {
			// Unknown/vendor test commands beyond the documented range.
			return
		}
	}
}

// applyDisplayMode decodes GP1(0x08): five horizontal widths selected
// by a 2-bit field plus a high bit for 368, vertical resolution,
// video mode, depth, interlace, and the forbidden flip-screen bit
// (fatal if set, per spec.md §4.7.2).
func (g *GPU) applyDisplayMode(word uint32) {
	hrIdx := word & 0x3
	if word&0x40 != 0 {
		hrIdx = 4
	}
	g.ctx.hres = horizontalWidths[hrIdx]
	if word&0x4 != 0 {
		g.ctx.vres = 480
	} else {
		g.ctx.vres = 240
	}
	g.ctx.pal = word&0x8 != 0
	g.ctx.depth24 = word&0x10 != 0
	g.ctx.interlace = word&0x20 != 0
	if word&0x80 != 0 {
		device.Abort("gpu: GP1(0x08) flip-screen bit is not supported")
	}
}
