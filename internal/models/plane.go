// Package models holds the shared data types for label-image vectorization:
// 2D label planes, the 4D stack they are sliced from, global map offsets and
// the identity keys of segmented objects.
package models

import (
	"fmt"
	"iter"
	"slices"
)

// Plane is a single 2D label image. Pixel value 0 is background; each
// positive value marks the pixels of one segmented object within this plane.
type Plane struct {
	// Pixels is the pixel data in row-major (y, x) order
	Pixels []int32

	// Width and Height are the plane dimensions in pixels
	Width  int
	Height int
}

// PlaneIndex identifies one 2D slice of a 4D stack by time point and z-level.
type PlaneIndex struct {
	// T is the zero-based time point
	T int

	// Z is the zero-based z-level
	Z int
}

// Offset is the global map offset of a tile. Local pixel coordinates are
// placed on the shared map by adding the offset and inverting the vertical
// axis (map y grows upward, raster rows grow downward).
type Offset struct {
	X int
	Y int
}

// ObjectKey identifies one segmented object: a label within one plane.
// Label scope is per plane; uniqueness across the stack is not guaranteed.
type ObjectKey struct {
	T     int
	Z     int
	Label int32
}

// Compare orders keys ascending by (T, Z, Label). It is the canonical
// output order for vectorization and rasterization.
func (k ObjectKey) Compare(other ObjectKey) int {
	if k.T != other.T {
		return k.T - other.T
	}
	if k.Z != other.Z {
		return k.Z - other.Z
	}
	return int(k.Label - other.Label)
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("(t=%d, z=%d, label=%d)", k.T, k.Z, k.Label)
}

// DimensionError reports an input array whose rank or shape is inconsistent
// with the declared plane dimensions. It is fatal and never retried.
type DimensionError struct {
	Reason string
}

func (e *DimensionError) Error() string {
	return "dimension error: " + e.Reason
}

// NewPlane creates an empty (all background) plane of the given dimensions.
func NewPlane(width, height int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("plane dimensions must be positive, got %dx%d", width, height),
		}
	}
	return &Plane{
		Pixels: make([]int32, width*height),
		Width:  width,
		Height: height,
	}, nil
}

// NewPlaneFromPixels wraps existing row-major pixel data without copying.
func NewPlaneFromPixels(pixels []int32, width, height int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("plane dimensions must be positive, got %dx%d", width, height),
		}
	}
	if len(pixels) != width*height {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("pixel data has %d values, want %d for %dx%d plane",
				len(pixels), width*height, width, height),
		}
	}
	return &Plane{Pixels: pixels, Width: width, Height: height}, nil
}

// At returns the label at local pixel coordinate (x, y).
func (p *Plane) At(x, y int) int32 {
	return p.Pixels[y*p.Width+x]
}

// Set writes the label at local pixel coordinate (x, y).
func (p *Plane) Set(x, y int, label int32) {
	p.Pixels[y*p.Width+x] = label
}

// Clone returns a deep copy of the plane. Components that mutate pixel data
// (e.g. border zeroing before contour tracing) work on a clone so the input
// plane stays read-only.
func (p *Plane) Clone() *Plane {
	return &Plane{
		Pixels: slices.Clone(p.Pixels),
		Width:  p.Width,
		Height: p.Height,
	}
}

// Labels returns the sorted unique positive labels present in the plane.
func (p *Plane) Labels() []int32 {
	seen := make(map[int32]struct{})
	for _, v := range p.Pixels {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	labels := make([]int32, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	slices.Sort(labels)
	return labels
}

// Stack is a 4D label array shaped (y, x, z, t). Planes are stored
// contiguously so that each (t, z) slice can be viewed without copying.
type Stack struct {
	// Width and Height are the per-plane dimensions
	Width  int
	Height int

	// SizeZ and SizeT are the number of z-levels and time points
	SizeZ int
	SizeT int

	// data holds all planes, ordered by (t, z), each row-major
	data []int32
}

// NewStack creates an empty stack of the given shape.
func NewStack(width, height, sizeZ, sizeT int) (*Stack, error) {
	if width <= 0 || height <= 0 || sizeZ <= 0 || sizeT <= 0 {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("stack shape must be positive, got (y=%d, x=%d, z=%d, t=%d)",
				height, width, sizeZ, sizeT),
		}
	}
	return &Stack{
		Width:  width,
		Height: height,
		SizeZ:  sizeZ,
		SizeT:  sizeT,
		data:   make([]int32, width*height*sizeZ*sizeT),
	}, nil
}

// StackFromPlane promotes a single 2D plane to a stack with t = z = 0.
func StackFromPlane(p *Plane) *Stack {
	return &Stack{
		Width:  p.Width,
		Height: p.Height,
		SizeZ:  1,
		SizeT:  1,
		data:   p.Pixels,
	}
}

// StackFromPlanes promotes a z-ordered sequence of planes to a stack with
// t = 0. All planes must share the same dimensions.
func StackFromPlanes(planes []*Plane) (*Stack, error) {
	if len(planes) == 0 {
		return nil, &DimensionError{Reason: "stack needs at least one plane"}
	}
	w, h := planes[0].Width, planes[0].Height
	data := make([]int32, 0, w*h*len(planes))
	for i, p := range planes {
		if p.Width != w || p.Height != h {
			return nil, &DimensionError{
				Reason: fmt.Sprintf("plane %d is %dx%d, want %dx%d", i, p.Width, p.Height, w, h),
			}
		}
		data = append(data, p.Pixels...)
	}
	return &Stack{Width: w, Height: h, SizeZ: len(planes), SizeT: 1, data: data}, nil
}

// Plane returns the 2D slice at the given index as a view over the stack's
// backing array (no copy). Mutating the returned plane mutates the stack.
func (s *Stack) Plane(idx PlaneIndex) (*Plane, error) {
	if idx.T < 0 || idx.T >= s.SizeT || idx.Z < 0 || idx.Z >= s.SizeZ {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("plane index (t=%d, z=%d) out of range (z=%d, t=%d)",
				idx.T, idx.Z, s.SizeZ, s.SizeT),
		}
	}
	n := s.Width * s.Height
	base := (idx.T*s.SizeZ + idx.Z) * n
	return &Plane{
		Pixels: s.data[base : base+n : base+n],
		Width:  s.Width,
		Height: s.Height,
	}, nil
}

// Planes iterates over all (t, z) combinations in ascending (t, z) order,
// yielding each plane as a view over the stack. The sequence is finite and
// restartable; iterating has no side effects.
func (s *Stack) Planes() iter.Seq2[PlaneIndex, *Plane] {
	return func(yield func(PlaneIndex, *Plane) bool) {
		for t := 0; t < s.SizeT; t++ {
			for z := 0; z < s.SizeZ; z++ {
				idx := PlaneIndex{T: t, Z: z}
				plane, _ := s.Plane(idx)
				if !yield(idx, plane) {
					return
				}
			}
		}
	}
}
