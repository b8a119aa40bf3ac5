package gpu

// vertex is a rasterizer-space point plus its optional shaded color
// and texture coordinate, used uniformly by every triangle variant.
type vertex struct {
	x, y int32
	r, g, b uint8
	u, v uint8
}

// bayer is the 4x4 ordered-dither offset table (spec.md §4.7.3), one
// signed nudge per RGB channel in [-4, 3].
var bayer = [4][4]int32{
	{-4, 0, -3, 1},
	{2, -2, 3, -1},
	{-3, 1, -4, 0},
	{3, -1, 2, -2},
}

func ditherOffset(x, y int32) int32 {
	return bayer[y&3][x&3]
}

func clamp5(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 31 {
		return 31
	}
	return uint8(v)
}

// ditherChannel applies the ordered-dither nudge to an 8-bit channel before
// truncating to 5 bits, matching the >>3 hardware truncation.
func ditherChannel(c uint8, x, y int32, dither bool) uint8 {
	v := int32(c)
	if dither {
		v += ditherOffset(x, y)
	}
	v >>= 3
	return clamp5(v)
}

// edge is the signed area of the edge (a,b) evaluated at p; its sign
// determines which side of the edge p falls on (spec.md §4.7.3).
func edge(ax, ay, bx, by, px, py int32) int32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func minI(a, b, c int32) int32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxI(a, b, c int32) int32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// semiBlend mixes destination and source per the four transparency
// modes (spec.md §4.7.3).
func semiBlend(mode uint32, dst, src uint16) uint16 {
	dr, dg, db := unpack15(dst)
	sr, sg, sb := unpack15(src)
	mix := func(d, s uint8) uint8 {
		df, sf := int32(d), int32(s)
		var out int32
		switch mode {
		case 0:
			out = (df + sf) / 2
		case 1:
			out = df + sf
		case 2:
			out = df - sf
		case 3:
			out = df + sf/4
		}
		return clamp5(out)
	}
	return rgb15(mix(dr, sr), mix(dg, sg), mix(db, sb))
}

// pixelSource is computed per covered pixel by the triangle/rect fill
// loop and carries everything needed to resolve the final 16-bit pixel
// and whether it should be written at all (fully transparent texels
// with color 0 are skipped per hardware convention).
type pixelSource struct {
	r, g, b uint8
	opaque  bool // false -> use semi-transparency blend
	skip    bool
}

// fillTriangle rasterizes one triangle using the top-left fill rule
// over barycentric-interpolated attributes; shade returns the raw
// 8-bit-per-channel color (pre-dither) for a covered pixel.
func (g *GPU) fillTriangle(v0, v1, v2 vertex, semiTrans bool, shade func(w0, w1, w2, area int32, x, y int32) pixelSource) {
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	minX := maxI32(minI(v0.x, v1.x, v2.x), g.ctx.drawAreaX1)
	maxX := minI32(maxI(v0.x, v1.x, v2.x), g.ctx.drawAreaX2)
	minY := maxI32(minI(v0.y, v1.y, v2.y), g.ctx.drawAreaY1)
	maxY := minI32(maxI(v0.y, v1.y, v2.y), g.ctx.drawAreaY2)

	topLeft := func(ax, ay, bx, by int32) bool {
		return (ay == by && bx < ax) || by < ay
	}
	bias01, bias12, bias20 := int32(0), int32(0), int32(0)
	if !topLeft(v0.x, v0.y, v1.x, v1.y) {
		bias01 = -1
	}
	if !topLeft(v1.x, v1.y, v2.x, v2.y) {
		bias12 = -1
	}
	if !topLeft(v2.x, v2.y, v0.x, v0.y) {
		bias20 = -1
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edge(v1.x, v1.y, v2.x, v2.y, x, y) + bias12
			w1 := edge(v2.x, v2.y, v0.x, v0.y, x, y) + bias20
			w2 := edge(v0.x, v0.y, v1.x, v1.y, x, y) + bias01
			inside := (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0)
			if !inside {
				continue
			}
			src := shade(w0, w1, w2, area, x, y)
			if src.skip {
				continue
			}
			px := rgb15(
				ditherChannel(src.r, x, y, g.ctx.dither),
				ditherChannel(src.g, x, y, g.ctx.dither),
				ditherChannel(src.b, x, y, g.ctx.dither),
			)
			if !src.opaque {
				px = semiBlend(g.ctx.semiTransMode, g.v.at(x+g.ctx.drawOffsetX, y+g.ctx.drawOffsetY), px)
			}
			g.v.put(x+g.ctx.drawOffsetX, y+g.ctx.drawOffsetY, px, g.ctx.mask)
		}
	}
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// fillRect draws an axis-aligned monochrome rectangle.
func (g *GPU) fillRect(x0, y0 int32, w, h uint32, r, g8, b uint8, semiTrans bool) {
	for dy := uint32(0); dy < h; dy++ {
		for dx := uint32(0); dx < w; dx++ {
			x := x0 + int32(dx)
			y := y0 + int32(dy)
			if x < g.ctx.drawAreaX1 || x > g.ctx.drawAreaX2 || y < g.ctx.drawAreaY1 || y > g.ctx.drawAreaY2 {
				continue
			}
			px := rgb15(r>>3, g8>>3, b>>3)
			ax, ay := x+g.ctx.drawOffsetX, y+g.ctx.drawOffsetY
			if semiTrans {
				px = semiBlend(g.ctx.semiTransMode, g.v.at(ax, ay), px)
			}
			g.v.put(ax, ay, px, g.ctx.mask)
		}
	}
}

// drawLine rasterizes one segment with integer Bresenham, interpolating
// color linearly along the run for shaded lines.
func (g *GPU) drawLine(x0, y0, x1, y1 int32, r0, g0, b0, r1, g1, b1 uint8, semiTrans bool) {
	dx := absI(x1 - x0)
	dy := -absI(y1 - y0)
	sx, sy := int32(1), int32(1)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	steps := maxI32(absI(x1-x0), absI(y1-y0))
	if steps == 0 {
		steps = 1
	}
	step := int32(0)
	x, y := x0, y0
	for {
		t := step
		lerp := func(a, b uint8) uint8 {
			return uint8(int32(a) + (int32(b)-int32(a))*t/steps)
		}
		px := rgb15(
			ditherChannel(lerp(r0, r1), x, y, g.ctx.dither),
			ditherChannel(lerp(g0, g1), x, y, g.ctx.dither),
			ditherChannel(lerp(b0, b1), x, y, g.ctx.dither),
		)
		ax, ay := x+g.ctx.drawOffsetX, y+g.ctx.drawOffsetY
		if x >= g.ctx.drawAreaX1 && x <= g.ctx.drawAreaX2 && y >= g.ctx.drawAreaY1 && y <= g.ctx.drawAreaY2 {
			if semiTrans {
				px = semiBlend(g.ctx.semiTransMode, g.v.at(ax, ay), px)
			}
			g.v.put(ax, ay, px, g.ctx.mask)
		}
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		step++
	}
}

func absI(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
