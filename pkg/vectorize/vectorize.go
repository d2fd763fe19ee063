// Package vectorize turns label planes into validated polygons positioned
// on the shared global map. It drives contour extraction per plane,
// transforms the rings to global coordinates, constructs simple polygons
// and repairs invalid geometry, with one polygon per label guaranteed.
package vectorize

import (
	"fmt"
	"log"
	"slices"

	"github.com/peterstace/simplefeatures/geom"

	"labelvec/internal/models"
	"labelvec/pkg/contour"
	"labelvec/pkg/transform"
)

// Params holds the vectorization configuration.
type Params struct {
	// Offset is the tile's global map offset, applied to every vertex.
	Offset models.Offset

	// Workers is the number of planes processed concurrently.
	// Zero or less means 1.
	Workers int

	// FallbackHalfWidth is the half-width of synthetic placeholder squares
	// used for objects whose boundary cannot be traced. Zero means the
	// default of 1.
	FallbackHalfWidth int

	// Verbose enables warning diagnostics for recovered anomalies.
	Verbose bool
}

// ObjectPolygon pairs an object's identity key with its polygon in global
// map coordinates.
type ObjectPolygon struct {
	Key     models.ObjectKey
	Polygon geom.Polygon
}

// ObjectPoint pairs an object's identity key with its centroid in global
// map coordinates.
type ObjectPoint struct {
	Key models.ObjectKey
	X   int
	Y   int
}

// RepairError reports a polygon that stayed invalid after repair. It is
// fatal for the batch: silently losing an object is worse than failing.
type RepairError struct {
	Key models.ObjectKey
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("polygon for object %s is invalid and could not be repaired", e.Key)
}

// Converter vectorizes the planes of a label stack. It is stateless apart
// from its parameters; all inputs are explicit arguments.
type Converter struct {
	params    *Params
	extractor *contour.Extractor
}

// NewConverter creates a converter with the provided parameters.
func NewConverter(params *Params) *Converter {
	return &Converter{
		params:    params,
		extractor: contour.NewExtractor(params.FallbackHalfWidth, params.Verbose),
	}
}

func (c *Converter) warnf(format string, args ...interface{}) {
	if c.params.Verbose {
		log.Printf("Warning: "+format, args...)
	}
}

// Polygons vectorizes every plane of the stack and returns one polygon per
// label in ascending (t, z, label) order. Planes are processed in parallel;
// the output order and content do not depend on the execution order.
func (c *Converter) Polygons(stack *models.Stack) ([]ObjectPolygon, error) {
	type planeTask struct {
		ordinal int
		index   models.PlaneIndex
		plane   *models.Plane
	}
	type planeResult struct {
		ordinal int
		polys   []ObjectPolygon
		err     error
	}

	var tasks []planeTask
	for idx, plane := range stack.Planes() {
		tasks = append(tasks, planeTask{ordinal: len(tasks), index: idx, plane: plane})
	}

	workers := c.params.Workers
	if workers < 1 {
		workers = 1
	}

	resultChan := make(chan planeResult)
	sem := make(chan struct{}, workers)
	for _, task := range tasks {
		go func(task planeTask) {
			sem <- struct{}{}
			defer func() { <-sem }()
			polys, err := c.vectorizePlane(task.index, task.plane)
			resultChan <- planeResult{ordinal: task.ordinal, polys: polys, err: err}
		}(task)
	}

	// Collect all results before surfacing an error so no goroutine is
	// left blocked on the channel.
	collected := make([][]ObjectPolygon, len(tasks))
	var firstErr error
	for range tasks {
		r := <-resultChan
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		collected[r.ordinal] = r.polys
	}
	if firstErr != nil {
		return nil, firstErr
	}

	// Plane ordinals ascend by (t, z) and labels ascend within each plane,
	// so concatenation yields ascending (t, z, label) order.
	var out []ObjectPolygon
	for _, polys := range collected {
		out = append(out, polys...)
	}
	return out, nil
}

// vectorizePlane extracts, transforms and validates the polygons of one
// plane. Labels ascend in the returned slice.
func (c *Converter) vectorizePlane(idx models.PlaneIndex, plane *models.Plane) ([]ObjectPolygon, error) {
	contours := c.extractor.ExtractPlane(plane)
	polys := make([]ObjectPolygon, 0, len(contours))
	for _, cont := range contours {
		key := models.ObjectKey{T: idx.T, Z: idx.Z, Label: cont.Label}

		exterior := globalRing(cont.Exterior, c.params.Offset)
		holes := make([]contour.Ring, len(cont.Holes))
		for i, h := range cont.Holes {
			holes[i] = globalRing(h, c.params.Offset)
		}

		poly := polygonFromRings(exterior, holes)
		if err := poly.Validate(); err != nil {
			c.warnf("invalid polygon for object %s, repairing: %v", key, err)
			repaired, err := c.repair(key, exterior, holes)
			if err != nil {
				return nil, err
			}
			poly = repaired
		}
		polys = append(polys, ObjectPolygon{Key: key, Polygon: poly})
	}
	return polys, nil
}

// BorderObjects reports for every object of the stack whether it touches
// the edge of its plane.
func (c *Converter) BorderObjects(stack *models.Stack) map[models.ObjectKey]bool {
	result := make(map[models.ObjectKey]bool)
	for idx, plane := range stack.Planes() {
		for label, isBorder := range contour.BorderObjects(plane) {
			result[models.ObjectKey{T: idx.T, Z: idx.Z, Label: label}] = isBorder
		}
	}
	return result
}

// PolygonMap converts the ordered polygon slice into the keyed mapping
// consumed by rasterization.
func PolygonMap(polys []ObjectPolygon) map[models.ObjectKey]geom.Polygon {
	m := make(map[models.ObjectKey]geom.Polygon, len(polys))
	for _, p := range polys {
		m[p.Key] = p.Polygon
	}
	return m
}

// SortKeys returns the keys of a polygon mapping in ascending
// (t, z, label) order.
func SortKeys(m map[models.ObjectKey]geom.Polygon) []models.ObjectKey {
	keys := make([]models.ObjectKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, models.ObjectKey.Compare)
	return keys
}

// globalRing copies a ring and transforms every vertex to global map
// coordinates.
func globalRing(r contour.Ring, offset models.Offset) contour.Ring {
	out := make(contour.Ring, len(r))
	for i, p := range r {
		x, y := transform.ToGlobal(p.X, p.Y, offset)
		out[i] = contour.Point{X: x, Y: y}
	}
	return out
}

// polygonFromRings builds a polygon from integer rings. The rings are
// closed explicitly; validity is checked separately by the caller.
func polygonFromRings(exterior contour.Ring, holes []contour.Ring) geom.Polygon {
	rings := make([]geom.LineString, 0, 1+len(holes))
	rings = append(rings, lineStringFromRing(exterior))
	for _, h := range holes {
		rings = append(rings, lineStringFromRing(h))
	}
	return geom.NewPolygon(rings)
}

func lineStringFromRing(r contour.Ring) geom.LineString {
	coords := make([]float64, 0, 2*(len(r)+1))
	for _, p := range r {
		coords = append(coords, float64(p.X), float64(p.Y))
	}
	coords = append(coords, float64(r[0].X), float64(r[0].Y))
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}
