// Package rasterize converts globally positioned polygons back into label
// planes. It is the inverse of vectorization: global coordinates are mapped
// back to local pixel coordinates using the tile offset, and each polygon's
// interior (holes excluded) is filled with its label.
package rasterize

import (
	"fmt"
	"math"
	"slices"

	"github.com/peterstace/simplefeatures/geom"

	"labelvec/internal/models"
	"labelvec/pkg/contour"
	"labelvec/pkg/transform"
)

// Rasterize fills the given polygons into a new stack of the given shape.
// Polygon coordinates are global; offset must be the same tile offset used
// at extraction time. Labels are written in ascending (t, z, label) order,
// so overlapping polygons resolve deterministically by last write wins.
// Coordinates outside the plane bounds are clipped, not an error.
//
// Per-label pixel sets are computed in parallel; the writes into the shared
// output array happen sequentially in the defined order.
func Rasterize(polygons map[models.ObjectKey]geom.Polygon, offset models.Offset,
	width, height, sizeZ, sizeT int, workers int) (*models.Stack, error) {

	stack, err := models.NewStack(width, height, sizeZ, sizeT)
	if err != nil {
		return nil, err
	}

	keys := make([]models.ObjectKey, 0, len(polygons))
	for k := range polygons {
		if k.T < 0 || k.T >= sizeT || k.Z < 0 || k.Z >= sizeZ {
			return nil, &models.DimensionError{
				Reason: fmt.Sprintf("object %s outside stack shape (z=%d, t=%d)", k, sizeZ, sizeT),
			}
		}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, models.ObjectKey.Compare)

	if workers < 1 {
		workers = 1
	}

	// Fan out pixel computation per object, collect per object index, then
	// apply in order.
	type fillResult struct {
		index  int
		pixels []contour.Point
	}
	results := make([][]contour.Point, len(keys))
	resultChan := make(chan fillResult)
	sem := make(chan struct{}, workers)
	for i, key := range keys {
		go func(index int, poly geom.Polygon) {
			sem <- struct{}{}
			defer func() { <-sem }()
			exterior, holes := localRings(poly, offset)
			resultChan <- fillResult{index: index, pixels: FillRings(exterior, holes)}
		}(i, polygons[key])
	}
	for range keys {
		r := <-resultChan
		results[r.index] = r.pixels
	}

	for i, key := range keys {
		plane, err := stack.Plane(models.PlaneIndex{T: key.T, Z: key.Z})
		if err != nil {
			return nil, err
		}
		for _, p := range results[i] {
			if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
				continue
			}
			plane.Set(p.X, p.Y, key.Label)
		}
	}
	return stack, nil
}

// localRings converts a polygon's rings from global map coordinates back to
// local integer pixel coordinates.
func localRings(poly geom.Polygon, offset models.Offset) (contour.Ring, []contour.Ring) {
	exterior := localRing(poly.ExteriorRing(), offset)
	var holes []contour.Ring
	for i := 0; i < poly.NumInteriorRings(); i++ {
		holes = append(holes, localRing(poly.InteriorRingN(i), offset))
	}
	return exterior, holes
}

func localRing(ls geom.LineString, offset models.Offset) contour.Ring {
	seq := ls.Coordinates()
	n := seq.Length()
	ring := make(contour.Ring, 0, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		x, y := transform.ToLocal(int(math.Round(xy.X)), int(math.Round(xy.Y)), offset)
		// Drop the closing vertex; rings are implicitly closed.
		if i == n-1 && len(ring) > 0 && ring[0] == (contour.Point{X: x, Y: y}) {
			break
		}
		ring = append(ring, contour.Point{X: x, Y: y})
	}
	return ring
}

// FillRings returns the pixels covered by the exterior ring but not by any
// hole ring. A pixel counts as covered when its center is inside or on the
// exterior (even-odd rule), which makes rasterization the exact inverse of
// contour tracing for axis-aligned shapes. Pixels are emitted in row-major
// order within the exterior's bounding box.
func FillRings(exterior contour.Ring, holes []contour.Ring) []contour.Point {
	return fillRings(exterior, holes, true)
}

// FillRingsInterior is FillRings restricted to pixels strictly inside the
// exterior ring. One-pixel-wide features lie entirely on their own boundary
// and disappear, and shapes pinched at a single pixel separate; polygon
// repair relies on this to split irreparably self-touching rings.
func FillRingsInterior(exterior contour.Ring, holes []contour.Ring) []contour.Point {
	return fillRings(exterior, holes, false)
}

func fillRings(exterior contour.Ring, holes []contour.Ring, includeBoundary bool) []contour.Point {
	if len(exterior) < 3 {
		return nil
	}
	minX, minY := exterior[0].X, exterior[0].Y
	maxX, maxY := minX, minY
	for _, p := range exterior {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	var pixels []contour.Point
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			onExterior := pointOnRing(x, y, exterior)
			if !includeBoundary && onExterior {
				continue
			}
			if !onExterior && !pointInRing(x, y, exterior) {
				continue
			}
			inHole := false
			for _, hole := range holes {
				if coveredByRing(x, y, hole) {
					inHole = true
					break
				}
			}
			if !inHole {
				pixels = append(pixels, contour.Point{X: x, Y: y})
			}
		}
	}
	return pixels
}

func coveredByRing(px, py int, ring contour.Ring) bool {
	return pointOnRing(px, py, ring) || pointInRing(px, py, ring)
}

// pointOnRing reports whether the point lies exactly on one of the ring's
// edges. All arithmetic is integer, so the test is exact.
func pointOnRing(px, py int, ring contour.Ring) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if px < min(a.X, b.X) || px > max(a.X, b.X) || py < min(a.Y, b.Y) || py > max(a.Y, b.Y) {
			continue
		}
		if (b.X-a.X)*(py-a.Y) == (b.Y-a.Y)*(px-a.X) {
			return true
		}
	}
	return false
}

// pointInRing is an even-odd ray cast toward +x with exact integer
// arithmetic. Points exactly on the boundary must be handled by
// pointOnRing first; for all other points the strict comparison below is
// unambiguous.
func pointInRing(px, py int, ring contour.Ring) bool {
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if (a.Y > py) == (b.Y > py) {
			continue
		}
		// px < a.X + (py-a.Y)*(b.X-a.X)/(b.Y-a.Y), scaled by (b.Y-a.Y)
		// to stay in integers.
		dy := b.Y - a.Y
		lhs := (px - a.X) * dy
		rhs := (py - a.Y) * (b.X - a.X)
		if (dy > 0 && lhs < rhs) || (dy < 0 && lhs > rhs) {
			inside = !inside
		}
	}
	return inside
}
