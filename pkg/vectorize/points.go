package vectorize

import (
	"gonum.org/v1/gonum/stat"

	"labelvec/internal/models"
	"labelvec/pkg/transform"
)

// Points computes the centroid of every object in the stack as a single
// global map coordinate, in ascending (t, z, label) order. The centroid is
// the arithmetic mean position of the label's pixels, truncated to integer
// before the transform so the result stays exact.
func (c *Converter) Points(stack *models.Stack) []ObjectPoint {
	var out []ObjectPoint
	for idx, plane := range stack.Planes() {
		labels := plane.Labels()
		if len(labels) == 0 {
			continue
		}
		xs := make(map[int32][]float64, len(labels))
		ys := make(map[int32][]float64, len(labels))
		for y := 0; y < plane.Height; y++ {
			for x := 0; x < plane.Width; x++ {
				if v := plane.At(x, y); v > 0 {
					xs[v] = append(xs[v], float64(x))
					ys[v] = append(ys[v], float64(y))
				}
			}
		}
		for _, label := range labels {
			cx := int(stat.Mean(xs[label], nil))
			cy := int(stat.Mean(ys[label], nil))
			gx, gy := transform.ToGlobal(cx, cy, c.params.Offset)
			out = append(out, ObjectPoint{
				Key: models.ObjectKey{T: idx.T, Z: idx.Z, Label: label},
				X:   gx,
				Y:   gy,
			})
		}
	}
	return out
}
