package gpu

// texPageInfo decodes the 16-bit texpage field embedded in a textured
// primitive's second UV word (same layout as GPUSTAT bits 0-8).
type texPageInfo struct {
	pageX, pageY uint32
	colors       uint32 // 0=4bit, 1=8bit, 2=15bit
	semiTrans    uint32
}

func decodeTexPage(v uint32) texPageInfo {
	v >>= 16
	return texPageInfo{
		pageX:     v & 0xF,
		pageY:     (v >> 4) & 1,
		semiTrans: (v >> 5) & 3,
		colors:    (v >> 7) & 3,
	}
}

type clutInfo struct {
	x, y uint32
}

func decodeClut(v uint32) clutInfo {
	c := v >> 16
	return clutInfo{x: (c & 0x3F) * 16, y: (c >> 6) & 0x1FF}
}

// sampleTexture fetches the texel at (u, v) within the given texpage,
// resolving indexed formats through the CLUT (spec.md §4.7.3). Color
// 0x0000 (all channels and mask bit zero) is fully transparent and the
// caller should skip the pixel.
func (g *GPU) sampleTexture(tp texPageInfo, clut clutInfo, u, v uint8) (uint16, bool) {
	baseX := int32(tp.pageX * 64)
	baseY := int32(tp.pageY * 256)
	switch tp.colors {
	case 0: // 4-bit indexed, 4 texels per VRAM word
		texel := g.v.at(baseX+int32(u)/4, baseY+int32(v))
		shift := (uint(u) & 3) * 4
		idx := (texel >> shift) & 0xF
		px := g.v.at(int32(clut.x+uint32(idx)), int32(clut.y))
		return px, px != 0
	case 1: // 8-bit indexed, 2 texels per VRAM word
		texel := g.v.at(baseX+int32(u)/2, baseY+int32(v))
		shift := (uint(u) & 1) * 8
		idx := (texel >> shift) & 0xFF
		px := g.v.at(int32(clut.x+uint32(idx)), int32(clut.y))
		return px, px != 0
	default: // 15-bit direct
		px := g.v.at(baseX+int32(u), baseY+int32(v))
		return px, px != 0
	}
}

// texWindowU and texWindowV apply the texture-window mask/offset to a
// raw u or v component (spec.md §4.7.3).
func (g *GPU) texWindowU(u uint8) uint8 {
	mask := g.ctx.texWindowMaskX
	off := g.ctx.texWindowOffsetX
	return uint8((uint32(u) &^ (mask << 3)) | ((off & mask) << 3))
}

func (g *GPU) texWindowV(v uint8) uint8 {
	mask := g.ctx.texWindowMaskY
	off := g.ctx.texWindowOffsetY
	return uint8((uint32(v) &^ (mask << 3)) | ((off & mask) << 3))
}
