// Package contour derives closed contours from label planes. For each label
// it produces an exterior ring and the rings of any enclosed holes, in local
// pixel coordinates, with fallback policies that guarantee exactly one
// contour per label even for degenerate objects.
package contour

import (
	"log"

	"labelvec/internal/models"
)

// Contour is the traced boundary of one labeled object within a plane, in
// plane-local pixel coordinates.
type Contour struct {
	// Label is the object's positive label value
	Label int32

	// Exterior is the outer boundary ring
	Exterior Ring

	// Holes are the outlines of enclosed background regions
	Holes []Ring

	// Synthetic is set when the exterior is a fallback placeholder square
	// rather than a traced boundary
	Synthetic bool
}

// Extractor traces contours for every label of a plane.
//
// Tracing works on a private copy of the plane whose outermost rows and
// columns are set to background. Objects truncated by the plane edge then
// yield closed contours instead of open ones. Objects that lie entirely
// within the zeroed border (and any object whose boundary degenerates to
// fewer than 3 vertices) are represented by a small synthetic square so that
// every label yields exactly one contour.
type Extractor struct {
	// FallbackHalfWidth is the half-width in pixels of synthetic fallback
	// squares. Zero or negative means the default of 1 (a 3x3-pixel
	// footprint).
	FallbackHalfWidth int

	// Verbose enables warning diagnostics for recovered anomalies
	// (missing contours, ambiguous hierarchies, degenerate boundaries).
	Verbose bool
}

// NewExtractor creates an extractor with the given fallback square
// half-width. A value of zero or less selects the default of 1.
func NewExtractor(fallbackHalfWidth int, verbose bool) *Extractor {
	return &Extractor{FallbackHalfWidth: fallbackHalfWidth, Verbose: verbose}
}

func (e *Extractor) halfWidth() int {
	if e.FallbackHalfWidth > 0 {
		return e.FallbackHalfWidth
	}
	return 1
}

func (e *Extractor) warnf(format string, args ...interface{}) {
	if e.Verbose {
		log.Printf("Warning: "+format, args...)
	}
}

// ExtractPlane traces the contours of every label in the plane, ascending
// by label. The input plane is not modified. The result always contains
// exactly one contour per label present in the plane.
func (e *Extractor) ExtractPlane(plane *models.Plane) []Contour {
	labels := plane.Labels()
	if len(labels) == 0 {
		return nil
	}

	// Bounding boxes are computed against the unmodified plane, then the
	// border is zeroed on a private copy so that truncated border objects
	// trace as closed rings.
	boxes := boundingBoxes(plane, labels)
	work := plane.Clone()
	zeroBorder(work)

	contours := make([]Contour, 0, len(labels))
	for _, label := range labels {
		contours = append(contours, e.extractLabel(plane, work, label, boxes[label]))
	}
	return contours
}

// bbox is an inclusive pixel-coordinate bounding box.
type bbox struct {
	minX, minY, maxX, maxY int
}

func boundingBoxes(plane *models.Plane, labels []int32) map[int32]bbox {
	boxes := make(map[int32]bbox, len(labels))
	for _, label := range labels {
		boxes[label] = bbox{minX: plane.Width, minY: plane.Height, maxX: -1, maxY: -1}
	}
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			v := plane.At(x, y)
			if v <= 0 {
				continue
			}
			b, ok := boxes[v]
			if !ok {
				continue
			}
			if x < b.minX {
				b.minX = x
			}
			if x > b.maxX {
				b.maxX = x
			}
			if y < b.minY {
				b.minY = y
			}
			if y > b.maxY {
				b.maxY = y
			}
			boxes[v] = b
		}
	}
	return boxes
}

func zeroBorder(p *models.Plane) {
	for x := 0; x < p.Width; x++ {
		p.Set(x, 0, 0)
		p.Set(x, p.Height-1, 0)
	}
	for y := 0; y < p.Height; y++ {
		p.Set(0, y, 0)
		p.Set(p.Width-1, y, 0)
	}
}

// extractLabel traces one label. plane is the unmodified input (used for the
// no-contour fallback position), work the border-zeroed copy that tracing
// reads from.
func (e *Extractor) extractLabel(plane, work *models.Plane, label int32, box bbox) Contour {
	// Mask the label's bounding box plus one pixel of padding on every
	// side. Positions outside the plane stay background.
	mw := box.maxX - box.minX + 3
	mh := box.maxY - box.minY + 3
	mask := make([]bool, mw*mh)
	for my := 0; my < mh; my++ {
		py := box.minY + my - 1
		if py < 0 || py >= work.Height {
			continue
		}
		for mx := 0; mx < mw; mx++ {
			px := box.minX + mx - 1
			if px < 0 || px >= work.Width {
				continue
			}
			mask[my*mw+mx] = work.At(px, py) == label
		}
	}

	outlines := TraceBinary(mask, mw, mh, true)
	if len(outlines) == 0 {
		// The object did not extend beyond the zeroed border pixels.
		// Represent it by a small square at its mean pixel position so
		// the one-contour-per-label invariant holds.
		e.warnf("no contour for object #%d, using fallback square", label)
		cx, cy := meanPosition(plane, label)
		return Contour{Label: label, Exterior: e.fallbackSquare(cx, cy), Synthetic: true}
	}

	outline := outlines[0]
	if len(outlines) > 1 {
		// Sibling exteriors under a single label (disconnected parts).
		// Best effort: keep the part with the most boundary vertices and
		// its holes, discard the rest.
		e.warnf("%d sibling contours for object #%d, keeping largest", len(outlines), label)
		for _, o := range outlines[1:] {
			if len(o.Exterior) > len(outline.Exterior) {
				outline = o
			}
		}
	}

	if len(outline.Exterior) < 3 {
		// Single pixels and 1-pixel-wide lines collapse to fewer than 3
		// vertices and cannot form a ring.
		e.warnf("degenerate boundary for object #%d, using fallback square", label)
		cx := (box.minX + box.maxX) / 2
		cy := (box.minY + box.maxY) / 2
		return Contour{Label: label, Exterior: e.fallbackSquare(cx, cy), Synthetic: true}
	}

	// Translate mask coordinates back to plane-local coordinates. The
	// shift undoes both the bounding-box origin and the padding pixel.
	shiftRing(outline.Exterior, box.minX-1, box.minY-1)
	for _, hole := range outline.Holes {
		shiftRing(hole, box.minX-1, box.minY-1)
	}
	return Contour{Label: label, Exterior: outline.Exterior, Holes: outline.Holes}
}

// fallbackSquare builds the synthetic placeholder ring around a center
// pixel, wound the same way as the traced rings.
func (e *Extractor) fallbackSquare(cx, cy int) Ring {
	d := e.halfWidth()
	return Ring{
		{cx - d, cy - d},
		{cx + d, cy - d},
		{cx + d, cy + d},
		{cx - d, cy + d},
	}
}

// meanPosition returns the arithmetic mean pixel coordinate of a label's
// occurrences, truncated to integers.
func meanPosition(plane *models.Plane, label int32) (int, int) {
	var sumX, sumY, n int
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			if plane.At(x, y) == label {
				sumX += x
				sumY += y
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sumX / n, sumY / n
}
