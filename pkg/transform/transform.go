// Package transform converts between local pixel coordinates and global map
// coordinates. A tile's offset is added to local coordinates and the vertical
// axis is inverted, because map y grows upward while raster rows grow
// downward. The transform is exact for integer input; ToLocal is the exact
// inverse of ToGlobal.
package transform

import "labelvec/internal/models"

// ToGlobal maps a local pixel coordinate onto the shared map:
//
//	xGlobal = xLocal + offset.X
//	yGlobal = -(yLocal + offset.Y)
func ToGlobal(x, y int, offset models.Offset) (int, int) {
	return x + offset.X, -(y + offset.Y)
}

// ToLocal inverts ToGlobal for the same offset.
func ToLocal(x, y int, offset models.Offset) (int, int) {
	return x - offset.X, -y - offset.Y
}
