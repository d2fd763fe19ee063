package models

import (
	"errors"
	"testing"
)

// planeFromRows builds a plane from row-major literal rows
func planeFromRows(t *testing.T, rows [][]int32) *Plane {
	t.Helper()
	height := len(rows)
	width := len(rows[0])
	pixels := make([]int32, 0, width*height)
	for _, row := range rows {
		if len(row) != width {
			t.Fatalf("ragged test rows: got %d values, want %d", len(row), width)
		}
		pixels = append(pixels, row...)
	}
	plane, err := NewPlaneFromPixels(pixels, width, height)
	if err != nil {
		t.Fatalf("Failed to build plane: %v", err)
	}
	return plane
}

func TestPlaneLabels(t *testing.T) {
	plane := planeFromRows(t, [][]int32{
		{0, 0, 3, 3},
		{1, 0, 3, 3},
		{1, 0, 0, 2},
	})

	labels := plane.Labels()
	want := []int32{1, 2, 3}
	if len(labels) != len(want) {
		t.Fatalf("Labels() = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("Labels()[%d] = %d, want %d", i, labels[i], want[i])
		}
	}
}

func TestPlaneDimensionErrors(t *testing.T) {
	t.Run("NonPositive", func(t *testing.T) {
		if _, err := NewPlane(0, 5); err == nil {
			t.Error("Expected error for zero width")
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := NewPlaneFromPixels(make([]int32, 7), 3, 3)
		if err == nil {
			t.Fatal("Expected error for mismatched pixel count")
		}
		var dimErr *DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("Expected DimensionError, got %T", err)
		}
	})
}

func TestStackPlaneIteration(t *testing.T) {
	t.Run("Single2DPlane", func(t *testing.T) {
		plane := planeFromRows(t, [][]int32{
			{0, 1},
			{1, 1},
		})
		stack := StackFromPlane(plane)

		count := 0
		for idx, p := range stack.Planes() {
			if idx.T != 0 || idx.Z != 0 {
				t.Errorf("2D input should yield index (t=0, z=0), got %v", idx)
			}
			if p.At(1, 0) != 1 {
				t.Errorf("Plane content lost: At(1,0) = %d, want 1", p.At(1, 0))
			}
			count++
		}
		if count != 1 {
			t.Errorf("2D input yielded %d planes, want 1", count)
		}
	})

	t.Run("ZStackOrder", func(t *testing.T) {
		planes := []*Plane{
			planeFromRows(t, [][]int32{{1}}),
			planeFromRows(t, [][]int32{{2}}),
			planeFromRows(t, [][]int32{{3}}),
		}
		stack, err := StackFromPlanes(planes)
		if err != nil {
			t.Fatalf("Failed to build stack: %v", err)
		}

		var gotZ []int
		var gotLabels []int32
		for idx, p := range stack.Planes() {
			if idx.T != 0 {
				t.Errorf("3D input should have t=0, got t=%d", idx.T)
			}
			gotZ = append(gotZ, idx.Z)
			gotLabels = append(gotLabels, p.At(0, 0))
		}
		for i := range planes {
			if gotZ[i] != i {
				t.Errorf("Plane %d yielded z=%d, want %d", i, gotZ[i], i)
			}
			if gotLabels[i] != int32(i+1) {
				t.Errorf("Plane %d yielded label %d, want %d", i, gotLabels[i], i+1)
			}
		}
	})

	t.Run("Restartable", func(t *testing.T) {
		stack, err := NewStack(2, 2, 2, 3)
		if err != nil {
			t.Fatalf("Failed to build stack: %v", err)
		}
		first, second := 0, 0
		for range stack.Planes() {
			first++
		}
		for range stack.Planes() {
			second++
		}
		if first != 6 || second != 6 {
			t.Errorf("Iteration counts = %d, %d; want 6, 6", first, second)
		}
	})

	t.Run("MismatchedPlaneShapes", func(t *testing.T) {
		planes := []*Plane{
			planeFromRows(t, [][]int32{{1}}),
			planeFromRows(t, [][]int32{{1, 2}}),
		}
		if _, err := StackFromPlanes(planes); err == nil {
			t.Error("Expected error for mismatched plane shapes")
		}
	})
}

func TestStackPlaneIsView(t *testing.T) {
	stack, err := NewStack(2, 2, 1, 2)
	if err != nil {
		t.Fatalf("Failed to build stack: %v", err)
	}
	plane, err := stack.Plane(PlaneIndex{T: 1, Z: 0})
	if err != nil {
		t.Fatalf("Failed to get plane: %v", err)
	}
	plane.Set(1, 1, 7)

	again, _ := stack.Plane(PlaneIndex{T: 1, Z: 0})
	if again.At(1, 1) != 7 {
		t.Error("Plane view does not share the stack's backing array")
	}
	other, _ := stack.Plane(PlaneIndex{T: 0, Z: 0})
	if other.At(1, 1) != 0 {
		t.Error("Write leaked into a different plane")
	}
}

func TestObjectKeyCompare(t *testing.T) {
	keys := []ObjectKey{
		{T: 1, Z: 0, Label: 1},
		{T: 0, Z: 1, Label: 2},
		{T: 0, Z: 1, Label: 1},
		{T: 0, Z: 0, Label: 9},
	}
	want := []ObjectKey{
		{T: 0, Z: 0, Label: 9},
		{T: 0, Z: 1, Label: 1},
		{T: 0, Z: 1, Label: 2},
		{T: 1, Z: 0, Label: 1},
	}
	for i := range keys {
		for j := range keys {
			got := keys[i].Compare(keys[j])
			if i == j && got != 0 {
				t.Errorf("Compare(%v, %v) = %d, want 0", keys[i], keys[j], got)
			}
		}
	}
	// Sort order check
	sorted := append([]ObjectKey(nil), keys...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Compare(sorted[j]) > 0 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	for i := range want {
		if sorted[i] != want[i] {
			t.Errorf("Sorted[%d] = %v, want %v", i, sorted[i], want[i])
		}
	}
}
