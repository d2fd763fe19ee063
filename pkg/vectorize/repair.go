package vectorize

import (
	"github.com/peterstace/simplefeatures/geom"

	"labelvec/internal/models"
	"labelvec/pkg/contour"
	"labelvec/pkg/rasterize"
)

// repair rebuilds an invalid polygon by rasterizing its rings with the
// even-odd rule and re-tracing the resulting mask. Even-odd parity resolves
// self-intersections the same way a zero-distance buffer does for pixel
// contours. Re-tracing uses 4-connectivity, so parts that touch only at a
// pixel corner separate into distinct polygons, of which the largest by
// area is kept.
//
// If the first pass still yields an invalid polygon, a second pass fills
// only pixels strictly inside the exterior. That splits rings pinched at a
// single pixel and drops one-pixel-wide appendages, at the cost of eroding
// the boundary. A polygon that survives both passes invalid is fatal.
func (c *Converter) repair(key models.ObjectKey, exterior contour.Ring, holes []contour.Ring) (geom.Polygon, error) {
	if poly, ok := c.repairPass(key, rasterize.FillRings(exterior, holes)); ok {
		return poly, nil
	}
	c.warnf("polygon for object %s still invalid, eroding boundary", key)
	if poly, ok := c.repairPass(key, rasterize.FillRingsInterior(exterior, holes)); ok {
		return poly, nil
	}
	return geom.Polygon{}, &RepairError{Key: key}
}

// repairPass re-traces one filled pixel set and rebuilds the polygon.
func (c *Converter) repairPass(key models.ObjectKey, pixels []contour.Point) (geom.Polygon, bool) {
	if len(pixels) == 0 {
		return geom.Polygon{}, false
	}

	minX, minY := pixels[0].X, pixels[0].Y
	maxX, maxY := minX, minY
	for _, p := range pixels {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	w := maxX - minX + 1
	h := maxY - minY + 1
	mask := make([]bool, w*h)
	for _, p := range pixels {
		mask[(p.Y-minY)*w+(p.X-minX)] = true
	}

	outlines := contour.TraceBinary(mask, w, h, false)
	if len(outlines) == 0 {
		return geom.Polygon{}, false
	}
	if len(outlines) > 1 {
		// Repair split the object into multiple parts. Keep the largest
		// and discard the rest, preserving one polygon per label.
		c.warnf("object %s has %d polygons after repair, keeping largest", key, len(outlines))
	}
	best := outlines[0]
	for _, o := range outlines[1:] {
		if o.Exterior.Area() > best.Exterior.Area() {
			best = o
		}
	}
	if len(best.Exterior) < 3 {
		return geom.Polygon{}, false
	}

	shift := contour.Point{X: minX, Y: minY}
	exterior := shiftedRing(best.Exterior, shift)
	holes := make([]contour.Ring, len(best.Holes))
	for i, hole := range best.Holes {
		holes[i] = shiftedRing(hole, shift)
	}

	poly := polygonFromRings(exterior, holes)
	if err := poly.Validate(); err != nil {
		return geom.Polygon{}, false
	}
	return poly, true
}

func shiftedRing(r contour.Ring, by contour.Point) contour.Ring {
	out := make(contour.Ring, len(r))
	for i, p := range r {
		out[i] = contour.Point{X: p.X + by.X, Y: p.Y + by.Y}
	}
	return out
}
