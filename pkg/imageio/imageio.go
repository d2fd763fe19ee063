// Package imageio reads and writes label planes as 16-bit grayscale PNG
// files for the command-line tool. Pixel values map one-to-one to labels,
// which limits this format to labels up to 65535. The core packages stay
// free of file formats; only the CLI uses this.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"labelvec/internal/models"
)

// ReadPlane loads a label plane from a grayscale PNG file.
func ReadPlane(path string) (*models.Plane, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening label image: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("error decoding label image: %w", err)
	}

	bounds := img.Bounds()
	plane, err := models.NewPlane(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			plane.Set(x-bounds.Min.X, y-bounds.Min.Y, int32(gray.Y))
		}
	}
	return plane, nil
}

// WritePlane saves a label plane as a grayscale PNG file.
func WritePlane(plane *models.Plane, path string) error {
	img := image.NewGray16(image.Rect(0, 0, plane.Width, plane.Height))
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			v := plane.At(x, y)
			if v < 0 || v > 65535 {
				return fmt.Errorf("label %d at (%d, %d) does not fit 16-bit grayscale", v, x, y)
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating label image: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("error encoding label image: %w", err)
	}
	return nil
}
