package imageio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"labelvec/internal/models"
)

func TestWriteReadRoundTrip(t *testing.T) {
	plane, err := models.NewPlane(4, 3)
	if err != nil {
		t.Fatalf("Failed to build plane: %v", err)
	}
	plane.Set(0, 0, 1)
	plane.Set(3, 0, 2)
	plane.Set(1, 2, 65535)

	path := filepath.Join(t.TempDir(), "labels.png")
	if err := WritePlane(plane, path); err != nil {
		t.Fatalf("WritePlane failed: %v", err)
	}

	got, err := ReadPlane(path)
	if err != nil {
		t.Fatalf("ReadPlane failed: %v", err)
	}
	if got.Width != 4 || got.Height != 3 {
		t.Fatalf("Read plane is %dx%d, want 4x3", got.Width, got.Height)
	}
	if diff := cmp.Diff(plane.Pixels, got.Pixels); diff != "" {
		t.Errorf("Round trip changed pixels (-want +got):\n%s", diff)
	}
}

func TestWritePlaneLabelRange(t *testing.T) {
	plane, err := models.NewPlane(2, 2)
	if err != nil {
		t.Fatalf("Failed to build plane: %v", err)
	}
	plane.Set(0, 0, 70000)

	path := filepath.Join(t.TempDir(), "labels.png")
	if err := WritePlane(plane, path); err == nil {
		t.Error("Expected error for label outside the 16-bit range")
	}
}

func TestReadPlaneMissingFile(t *testing.T) {
	if _, err := ReadPlane(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := ReadPlane(os.DevNull); err == nil {
		t.Error("Expected error for non-PNG input")
	}
}
