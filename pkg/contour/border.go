package contour

import "labelvec/internal/models"

// BorderObjects reports for every label of the plane whether any of its
// pixels lie on the outermost row or column. The plane is not modified.
func BorderObjects(plane *models.Plane) map[int32]bool {
	result := make(map[int32]bool)
	for _, label := range plane.Labels() {
		result[label] = false
	}
	mark := func(v int32) {
		if v > 0 {
			result[v] = true
		}
	}
	for x := 0; x < plane.Width; x++ {
		mark(plane.At(x, 0))
		mark(plane.At(x, plane.Height-1))
	}
	for y := 0; y < plane.Height; y++ {
		mark(plane.At(0, y))
		mark(plane.At(plane.Width-1, y))
	}
	return result
}
