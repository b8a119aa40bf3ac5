package gpu

type gp0Handler func(g *GPU, args []uint32)

type gp0Entry struct {
	argCount int // total words including the opcode word
	handler  gp0Handler
}

var gp0Table map[uint8]gp0Entry

func init() {
	gp0Table = map[uint8]gp0Entry{
		0x00: {1, opNop},
		0x01: {1, opClearCache},
		0x02: {3, opQuickFill},

		0x20: {4, opMonoPoly(3, false)},
		0x22: {4, opMonoPoly(3, true)},
		0x28: {5, opMonoPoly(4, false)},
		0x2A: {5, opMonoPoly(4, true)},

		0x30: {6, opShadedPoly(3, false)},
		0x32: {6, opShadedPoly(3, true)},
		0x38: {8, opShadedPoly(4, false)},
		0x3A: {8, opShadedPoly(4, true)},

		0x24: {7, opTexturedPoly(3, false, false)},
		0x25: {7, opTexturedPoly(3, false, true)},
		0x26: {7, opTexturedPoly(3, true, false)},
		0x27: {7, opTexturedPoly(3, true, true)},
		0x2C: {9, opTexturedPoly(4, false, false)},
		0x2D: {9, opTexturedPoly(4, false, true)},
		0x2E: {9, opTexturedPoly(4, true, false)},
		0x2F: {9, opTexturedPoly(4, true, true)},

		0x34: {9, opShadedTexturedPoly(3, false)},
		0x36: {9, opShadedTexturedPoly(3, true)},
		0x3C: {12, opShadedTexturedPoly(4, false)},
		0x3E: {12, opShadedTexturedPoly(4, true)},

		0x40: {3, opMonoLine(false)},
		0x42: {3, opMonoLine(true)},
		0x50: {4, opShadedLine(false)},
		0x52: {4, opShadedLine(true)},

		0x60: {3, opRectVar(false)},
		0x62: {3, opRectVar(true)},
		0x68: {2, opRectFixed(1, false)},
		0x6A: {2, opRectFixed(1, true)},
		0x70: {2, opRectFixed(8, false)},
		0x72: {2, opRectFixed(8, true)},
		0x78: {2, opRectFixed(16, false)},
		0x7A: {2, opRectFixed(16, true)},

		0x80: {4, opVRAMBlit},
		0xA0: {3, opImageLoad},
		0xC0: {3, opImageStore},

		0xE1: {1, opTexpage},
		0xE2: {1, opTexWindow},
		0xE3: {1, opDrawAreaTL},
		0xE4: {1, opDrawAreaBR},
		0xE5: {1, opDrawOffset},
		0xE6: {1, opMaskSetting},
	}
}

func isPolyline(opcode uint8) bool {
	switch opcode {
	case 0x48, 0x4A, 0x58, 0x5A:
		return true
	default:
		return false
	}
}

func parseColor(word uint32) (r, g, b uint8) {
	return uint8(word), uint8(word >> 8), uint8(word >> 16)
}

func signExtend11(v uint32) int32 {
	v &= 0x7FF
	if v&0x400 != 0 {
		return int32(v) - 0x800
	}
	return int32(v)
}

func parseVertex(word uint32) (x, y int32) {
	return signExtend11(word), signExtend11(word >> 16)
}

func parseUV(word uint32) (u, v uint8) {
	return uint8(word), uint8(word >> 8)
}

func opNop(g *GPU, args []uint32)        {}
func opClearCache(g *GPU, args []uint32) {}

// opQuickFill implements GP0(0x02): fills a rectangle with a flat
// color, bypassing the draw area, mask policy, and draw offset per
// hardware convention.
func opQuickFill(g *GPU, args []uint32) {
	r, gr, b := parseColor(args[0])
	x := int32(args[1] & 0x3FF)
	y := int32((args[1] >> 16) & 0x1FF)
	w := args[2] & 0x3FF
	h := (args[2] >> 16) & 0x1FF
	px := rgb15(r>>3, gr>>3, b>>3)
	for dy := uint32(0); dy < h; dy++ {
		for dx := uint32(0); dx < w; dx++ {
			g.v.setRaw(x+int32(dx), y+int32(dy), px)
		}
	}
}

func opMonoPoly(n int, semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r, gr, b := parseColor(args[0])
		verts := make([]vertex, n)
		for i := 0; i < n; i++ {
			x, y := parseVertex(args[1+i])
			verts[i] = vertex{x: x, y: y, r: r, g: gr, b: b}
		}
		shade := func(w0, w1, w2, area, x, y int32) pixelSource {
			return pixelSource{r: r, g: gr, b: b, opaque: !semi}
		}
		g.fillTriangle(verts[0], verts[1], verts[2], semi, shade)
		if n == 4 {
			g.fillTriangle(verts[1], verts[2], verts[3], semi, shade)
		}
	}
}

func opShadedPoly(n int, semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		verts := make([]vertex, n)
		r0, g0, b0 := parseColor(args[0])
		x0, y0 := parseVertex(args[1])
		verts[0] = vertex{x: x0, y: y0, r: r0, g: g0, b: b0}
		idx := 2
		for i := 1; i < n; i++ {
			r, gr, b := parseColor(args[idx])
			x, y := parseVertex(args[idx+1])
			verts[i] = vertex{x: x, y: y, r: r, g: gr, b: b}
			idx += 2
		}
		shadeTri := func(a, b, c vertex) func(w0, w1, w2, area, x, y int32) pixelSource {
			return func(w0, w1, w2, area, x, y int32) pixelSource {
				// w0/w1/w2 are signed areas opposite a/b/c respectively;
				// normalize to barycentric weights summing to area.
				aw, bw, cw := w0, w1, w2
				if area < 0 {
					aw, bw, cw, area = -aw, -bw, -cw, -area
				}
				r := (int32(a.r)*aw + int32(b.r)*bw + int32(c.r)*cw) / area
				gg := (int32(a.g)*aw + int32(b.g)*bw + int32(c.g)*cw) / area
				bb := (int32(a.b)*aw + int32(b.b)*bw + int32(c.b)*cw) / area
				return pixelSource{r: uint8(r), g: uint8(gg), b: uint8(bb), opaque: !semi}
			}
		}
		g.fillTriangle(verts[0], verts[1], verts[2], semi, shadeTri(verts[0], verts[1], verts[2]))
		if n == 4 {
			g.fillTriangle(verts[1], verts[2], verts[3], semi, shadeTri(verts[1], verts[2], verts[3]))
		}
	}
}

func opTexturedPoly(n int, semi, raw bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r, gr, bl := parseColor(args[0])
		type tv struct {
			vertex
			u, v uint8
		}
		verts := make([]tv, n)
		var tp texPageInfo
		var clut clutInfo
		idx := 1
		for i := 0; i < n; i++ {
			x, y := parseVertex(args[idx])
			u, v := parseUV(args[idx+1])
			if i == 0 {
				clut = decodeClut(args[idx+1])
			}
			if i == 1 {
				tp = decodeTexPage(args[idx+1])
			}
			verts[i] = tv{vertex: vertex{x: x, y: y}, u: u, v: v}
			idx += 2
		}
		shadeTri := func(a, b, c tv) func(w0, w1, w2, area, x, y int32) pixelSource {
			return func(w0, w1, w2, area, x, y int32) pixelSource {
				aw, bw, cw := w0, w1, w2
				if area < 0 {
					aw, bw, cw, area = -aw, -bw, -cw, -area
				}
				u := uint8((int32(a.u)*aw + int32(b.u)*bw + int32(c.u)*cw) / area)
				v := uint8((int32(a.v)*aw + int32(b.v)*bw + int32(c.v)*cw) / area)
				u = g.texWindowU(u)
				v = g.texWindowV(v)
				px, ok := g.sampleTexture(tp, clut, u, v)
				if !ok {
					return pixelSource{skip: true}
				}
				tr, tg, tb := unpack15(px)
				tr8, tg8, tb8 := tr<<3, tg<<3, tb<<3
				if !raw {
					tr8 = uint8(int32(tr8) * int32(r) / 128)
					tg8 = uint8(int32(tg8) * int32(gr) / 128)
					tb8 = uint8(int32(tb8) * int32(bl) / 128)
				}
				return pixelSource{r: tr8, g: tg8, b: tb8, opaque: !semi || px&0x8000 == 0}
			}
		}
		g.fillTriangle(verts[0].vertex, verts[1].vertex, verts[2].vertex, semi, shadeTri(verts[0], verts[1], verts[2]))
		if n == 4 {
			g.fillTriangle(verts[1].vertex, verts[2].vertex, verts[3].vertex, semi, shadeTri(verts[1], verts[2], verts[3]))
		}
	}
}

func opShadedTexturedPoly(n int, semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		type stv struct {
			vertex
			u, v uint8
		}
		verts := make([]stv, n)
		r0, g0, b0 := parseColor(args[0])
		x0, y0 := parseVertex(args[1])
		u0, v0 := parseUV(args[2])
		clut := decodeClut(args[2])
		verts[0] = stv{vertex: vertex{x: x0, y: y0, r: r0, g: g0, b: b0}, u: u0, v: v0}
		idx := 3
		var tp texPageInfo
		for i := 1; i < n; i++ {
			r, gr, b := parseColor(args[idx])
			x, y := parseVertex(args[idx+1])
			u, v := parseUV(args[idx+2])
			if i == 1 {
				tp = decodeTexPage(args[idx+2])
			}
			verts[i] = stv{vertex: vertex{x: x, y: y, r: r, g: gr, b: b}, u: u, v: v}
			idx += 3
		}
		shadeTri := func(a, b, c stv) func(w0, w1, w2, area, x, y int32) pixelSource {
			return func(w0, w1, w2, area, x, y int32) pixelSource {
				aw, bw, cw := w0, w1, w2
				if area < 0 {
					aw, bw, cw, area = -aw, -bw, -cw, -area
				}
				u := uint8((int32(a.u)*aw + int32(b.u)*bw + int32(c.u)*cw) / area)
				v := uint8((int32(a.v)*aw + int32(b.v)*bw + int32(c.v)*cw) / area)
				r := (int32(a.r)*aw + int32(b.r)*bw + int32(c.r)*cw) / area
				gg := (int32(a.g)*aw + int32(b.g)*bw + int32(c.g)*cw) / area
				bb := (int32(a.b)*aw + int32(b.b)*bw + int32(c.b)*cw) / area
				u = g.texWindowU(u)
				v = g.texWindowV(v)
				px, ok := g.sampleTexture(tp, clut, u, v)
				if !ok {
					return pixelSource{skip: true}
				}
				tr, tg, tb := unpack15(px)
				tr8 := uint8(int32(tr<<3) * r / 128)
				tg8 := uint8(int32(tg<<3) * gg / 128)
				tb8 := uint8(int32(tb<<3) * bb / 128)
				return pixelSource{r: tr8, g: tg8, b: tb8, opaque: !semi || px&0x8000 == 0}
			}
		}
		g.fillTriangle(verts[0].vertex, verts[1].vertex, verts[2].vertex, semi, shadeTri(verts[0], verts[1], verts[2]))
		if n == 4 {
			g.fillTriangle(verts[1].vertex, verts[2].vertex, verts[3].vertex, semi, shadeTri(verts[1], verts[2], verts[3]))
		}
	}
}

func opMonoLine(semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r, gr, b := parseColor(args[0])
		x0, y0 := parseVertex(args[1])
		x1, y1 := parseVertex(args[2])
		g.drawLine(x0, y0, x1, y1, r, gr, b, r, gr, b, semi)
	}
}

func opShadedLine(semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r0, g0, b0 := parseColor(args[0])
		x0, y0 := parseVertex(args[1])
		r1, g1, b1 := parseColor(args[2])
		x1, y1 := parseVertex(args[3])
		g.drawLine(x0, y0, x1, y1, r0, g0, b0, r1, g1, b1, semi)
	}
}

func opRectVar(semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r, gr, b := parseColor(args[0])
		x, y := parseVertex(args[1])
		w := args[2] & 0x3FF
		h := (args[2] >> 16) & 0x1FF
		g.fillRect(x, y, w, h, r, gr, b, semi)
	}
}

func opRectFixed(size uint32, semi bool) gp0Handler {
	return func(g *GPU, args []uint32) {
		r, gr, b := parseColor(args[0])
		x, y := parseVertex(args[1])
		g.fillRect(x, y, size, size, r, gr, b, semi)
	}
}

func opVRAMBlit(g *GPU, args []uint32) {
	sx, sy := parseVertex(args[1])
	dx, dy := parseVertex(args[2])
	w := args[3] & 0x3FF
	h := (args[3] >> 16) & 0x1FF
	for row := uint32(0); row < h; row++ {
		for col := uint32(0); col < w; col++ {
			px := g.v.at(sx+int32(col), sy+int32(row))
			g.v.put(dx+int32(col), dy+int32(row), px, g.ctx.mask)
		}
	}
}

func opImageLoad(g *GPU, args []uint32) {
	x := args[1] & 0x3FF
	y := (args[1] >> 16) & 0x1FF
	w := args[2] & 0x3FF
	h := (args[2] >> 16) & 0x1FF
	if w == 0 || h == 0 {
		return
	}
	g.copy = copyWindow{x: x, y: y, width: w, height: h}
	g.state = stateCopyToVRAM
}

func opImageStore(g *GPU, args []uint32) {
	x := args[1] & 0x3FF
	y := (args[1] >> 16) & 0x1FF
	w := args[2] & 0x3FF
	h := (args[2] >> 16) & 0x1FF
	if w == 0 || h == 0 {
		return
	}
	g.copy = copyWindow{x: x, y: y, width: w, height: h}
	g.state = stateCopyFromVRAM
}

func opTexpage(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.texPageX = v & 0xF
	g.ctx.texPageY = (v >> 4) & 1
	g.ctx.semiTransMode = (v >> 5) & 3
	g.ctx.texColors = (v >> 7) & 3
	g.ctx.dither = v&(1<<9) != 0
	g.ctx.drawToDisplay = v&(1<<10) != 0
	g.ctx.textureDisable = v&(1<<11) != 0
}

func opTexWindow(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.texWindowMaskX = v & 0x1F
	g.ctx.texWindowMaskY = (v >> 5) & 0x1F
	g.ctx.texWindowOffsetX = (v >> 10) & 0x1F
	g.ctx.texWindowOffsetY = (v >> 15) & 0x1F
}

func opDrawAreaTL(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.drawAreaX1 = int32(v & 0x3FF)
	g.ctx.drawAreaY1 = int32((v >> 10) & 0x1FF)
}

func opDrawAreaBR(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.drawAreaX2 = int32(v & 0x3FF)
	g.ctx.drawAreaY2 = int32((v >> 10) & 0x1FF)
}

func opDrawOffset(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.drawOffsetX = signExtend11(v)
	g.ctx.drawOffsetY = signExtend11(v >> 11)
}

func opMaskSetting(g *GPU, args []uint32) {
	v := args[0]
	g.ctx.mask.forceSet = v&1 != 0
	g.ctx.mask.preserveMasked = v&2 != 0
}
