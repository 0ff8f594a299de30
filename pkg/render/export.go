package render

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"strings"

	"mprviewer/internal/models"
	"mprviewer/pkg/volume"
)

// DefaultQuality is the JPEG quality used when none is configured
const DefaultQuality = 90

// SliceToGray converts a slice to an 8-bit image through the window.
// Image columns follow the slice's U axis and image rows its V axis.
func SliceToGray(slice *models.SliceImage, window models.Window) *image.Gray {
	rows, cols := slice.Data.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetGray(c, r, color.Gray{Y: uint8(math.Round(window.Normalize(slice.Data.At(r, c)) * 255))})
		}
	}
	return img
}

// SaveSlice saves an image as a JPEG file, creating its directory if needed
func SaveSlice(img image.Image, filename string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
}

// SaveSliceSequence writes every slice of orientation o to outputDir as
// slice_<orientation>_<index>.jpg and returns the number of files written.
func SaveSliceSequence(model *volume.Model, o models.Orientation, window models.Window, thickness int, outputDir string, quality int) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	name := strings.ToLower(o.String())
	count := model.SliceCount(o)
	for idx := 0; idx < count; idx++ {
		slice, err := model.GetSlice(o, idx, thickness)
		if err != nil {
			return idx, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", name, idx))
		if err := SaveSlice(SliceToGray(slice, window), filename, quality); err != nil {
			return idx, err
		}
	}

	return count, nil
}

// SnapshotFileName returns the file name used for a view snapshot
func SnapshotFileName(o models.Orientation, step int) string {
	return fmt.Sprintf("%s_%03d.jpg", strings.ToLower(o.String()), step)
}
