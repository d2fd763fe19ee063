package contour

// Point is a vertex in pixel coordinates.
type Point struct {
	X int
	Y int
}

// Ring is a closed sequence of vertices. The closing edge from the last
// vertex back to the first is implicit; the first vertex is not repeated.
type Ring []Point

// Outline is the traced boundary of one connected foreground region: an
// exterior ring plus the outlines of any holes (background regions fully
// enclosed by the foreground). Hierarchy depth is at most two; holes never
// own holes.
type Outline struct {
	Exterior Ring
	Holes    []Ring
}

// Area returns the area enclosed by the ring (shoelace formula).
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0
	for i := range r {
		a := r[i]
		b := r[(i+1)%len(r)]
		sum += a.X*b.Y - b.X*a.Y
	}
	if sum < 0 {
		sum = -sum
	}
	return float64(sum) / 2
}

// mooreDirs is the Moore neighborhood in clockwise order for image
// coordinates (y grows downward), starting east.
var mooreDirs = [8]Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// TraceBinary traces the two-level outlines of a binary mask given in
// row-major order. With diagonal set, foreground regions are 8-connected
// and background regions 4-connected, matching the usual border-following
// conventions for label images; without it the connectivities swap, which
// splits regions that touch only at a pixel corner or a one-pixel pinch
// (used by polygon repair). Exterior rings follow foreground pixel centers;
// hole rings follow the pixel centers of the enclosed background region.
// Hole rings with fewer than 3 vertices (single-pixel or line-shaped holes)
// are dropped, since they cannot form a polygon ring.
//
// Results are ordered by the row-major position of each region's first
// pixel, which makes the output deterministic.
func TraceBinary(mask []bool, width, height int, diagonal bool) []Outline {
	// Pad with one pixel of background on every side so that tracing never
	// has to reason about the image edge.
	w, h := width+2, height+2
	padded := make([]bool, w*h)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y*width+x] {
				padded[(y+1)*w+x+1] = true
			}
		}
	}

	fgComp, numFG := labelComponents(padded, w, h, diagonal)
	if numFG == 0 {
		return nil
	}

	bg := make([]bool, w*h)
	for i, v := range padded {
		bg[i] = !v
	}
	bgComp, _ := labelComponents(bg, w, h, !diagonal)
	// The padding guarantees the outer background is the component of (0, 0).
	outerBG := bgComp[0]

	outlines := make([]Outline, numFG)
	firstPixel := make([]Point, numFG)
	for i := range firstPixel {
		firstPixel[i] = Point{-1, -1}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c := fgComp[y*w+x]; c > 0 && firstPixel[c-1].X < 0 {
				firstPixel[c-1] = Point{x, y}
			}
		}
	}
	for i, start := range firstPixel {
		comp := int32(i + 1)
		member := func(x, y int) bool {
			return x >= 0 && x < w && y >= 0 && y < h && fgComp[y*w+x] == comp
		}
		outlines[i].Exterior = compressRing(traceOutline(member, start.X, start.Y, 4*w*h+8))
	}

	// Background components other than the outer one are holes. The pixel
	// directly above a hole's first (topmost-leftmost) pixel is always
	// foreground, which identifies the owning region.
	seenHole := make(map[int32]bool)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := bgComp[y*w+x]
			if c == 0 || c == outerBG || seenHole[c] {
				continue
			}
			seenHole[c] = true
			owner := fgComp[(y-1)*w+x]
			member := func(px, py int) bool {
				return px >= 0 && px < w && py >= 0 && py < h && bgComp[py*w+px] == c
			}
			ring := compressRing(traceOutline(member, x, y, 4*w*h+8))
			if len(ring) >= 3 {
				outlines[owner-1].Holes = append(outlines[owner-1].Holes, ring)
			}
		}
	}

	// Undo the padding shift.
	for i := range outlines {
		shiftRing(outlines[i].Exterior, -1, -1)
		for _, hole := range outlines[i].Holes {
			shiftRing(hole, -1, -1)
		}
	}
	return outlines
}

// traceOutline walks the boundary of a connected region using
// Moore-neighbor tracing, starting at the region's topmost-leftmost pixel.
// The walk stops as soon as a (pixel, backtrack) state repeats, which
// terminates correctly even for one-pixel-wide regions where the classic
// start-pixel criterion loops. maxSteps bounds the walk as a belt-and-
// braces measure.
func traceOutline(member func(x, y int) bool, sx, sy, maxSteps int) Ring {
	type state struct {
		cx, cy, bx, by int
	}

	ring := Ring{{sx, sy}}
	cx, cy := sx, sy
	// The pixel left of a topmost-leftmost pixel is never part of the
	// region, so it is a valid initial backtrack position.
	bx, by := sx-1, sy
	seen := map[state]bool{{cx, cy, bx, by}: true}

	for steps := 0; steps < maxSteps; steps++ {
		// Locate the backtrack pixel in the current neighborhood.
		start := 0
		for i, d := range mooreDirs {
			if cx+d.X == bx && cy+d.Y == by {
				start = i
				break
			}
		}
		// Scan clockwise from the backtrack position for the next
		// boundary pixel.
		px, py := bx, by
		found := false
		for i := 1; i <= 8; i++ {
			d := mooreDirs[(start+i)%8]
			nx, ny := cx+d.X, cy+d.Y
			if member(nx, ny) {
				bx, by = px, py
				cx, cy = nx, ny
				found = true
				break
			}
			px, py = nx, ny
		}
		if !found {
			// Isolated single pixel.
			break
		}
		s := state{cx, cy, bx, by}
		if seen[s] {
			break
		}
		seen[s] = true
		ring = append(ring, Point{cx, cy})
	}
	// One-pixel-wide regions can re-append the start before the walk
	// closes; the closing edge is implicit, so drop the duplicate.
	if len(ring) > 1 && ring[len(ring)-1] == ring[0] {
		ring = ring[:len(ring)-1]
	}
	return ring
}

// compressRing removes vertices in the middle of straight runs of unit
// steps, keeping direction reversals (spikes) intact. The seam between the
// last and first vertex is compressed as well.
func compressRing(r Ring) Ring {
	if len(r) < 3 {
		return r
	}
	sign := func(v int) int {
		if v > 0 {
			return 1
		}
		if v < 0 {
			return -1
		}
		return 0
	}
	// Segments are runs of identical unit steps, so normalizing a delta to
	// its signs recovers the step direction even after merging.
	dir := func(a, b Point) Point {
		return Point{sign(b.X - a.X), sign(b.Y - a.Y)}
	}
	out := make(Ring, 0, len(r))
	out = append(out, r[0])
	for i := 1; i < len(r); i++ {
		if len(out) >= 2 {
			a, b := out[len(out)-2], out[len(out)-1]
			if dir(a, b) == dir(b, r[i]) {
				out[len(out)-1] = r[i]
				continue
			}
		}
		out = append(out, r[i])
	}
	// Compress across the seam.
	for len(out) >= 3 {
		n := len(out)
		if dir(out[n-2], out[n-1]) == dir(out[n-1], out[0]) {
			out = out[:n-1]
			continue
		}
		if dir(out[n-1], out[0]) == dir(out[0], out[1]) {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func shiftRing(r Ring, dx, dy int) {
	for i := range r {
		r[i].X += dx
		r[i].Y += dy
	}
}

// labelComponents assigns a positive component id to every true cell of the
// grid, using 8-connectivity when diagonal is set and 4-connectivity
// otherwise. Ids are assigned in row-major scan order, so the numbering is
// deterministic. Returns the component grid and the number of components.
func labelComponents(grid []bool, w, h int, diagonal bool) ([]int32, int) {
	comp := make([]int32, w*h)
	var neighbors []Point
	if diagonal {
		neighbors = mooreDirs[:]
	} else {
		neighbors = []Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	}
	next := int32(0)
	queue := make([]Point, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !grid[y*w+x] || comp[y*w+x] != 0 {
				continue
			}
			next++
			comp[y*w+x] = next
			queue = append(queue[:0], Point{x, y})
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				for _, d := range neighbors {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					if grid[ny*w+nx] && comp[ny*w+nx] == 0 {
						comp[ny*w+nx] = next
						queue = append(queue, Point{nx, ny})
					}
				}
			}
		}
	}
	return comp, int(next)
}
