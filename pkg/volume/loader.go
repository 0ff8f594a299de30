package volume

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
)

// ErrLoadFailure marks a volume that could not be constructed.
// It is fatal to a viewing session and is never retried.
var ErrLoadFailure = errors.New("volume load failure")

// LoadDir builds a volume from a directory of 2D slice images.
//
// The loader:
// 1. Reads all JPEG and PNG files in the directory
// 2. Sorts them by the number embedded in their filenames (acquisition order)
// 3. Converts every slice to grayscale samples in the 0-1 range
//
// All slices must share the dimensions of the first one. The slice order
// becomes the z axis, so spacing.Z is the inter-slice gap.
func LoadDir(dir string, spacing r3.Vec) (*models.Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no slice images found in %s", ErrLoadFailure, dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	vol := &models.Volume{Spacing: spacing}
	for z, name := range files {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load image %s: %v", ErrLoadFailure, name, err)
		}

		bounds := img.Bounds()
		if z == 0 {
			vol.Width = bounds.Dx()
			vol.Height = bounds.Dy()
			vol.Depth = len(files)
			vol.Data = make([]float64, vol.Width*vol.Height*vol.Depth)
		} else if bounds.Dx() != vol.Width || bounds.Dy() != vol.Height {
			return nil, fmt.Errorf("%w: slice %s is %dx%d, expected %dx%d",
				ErrLoadFailure, name, bounds.Dx(), bounds.Dy(), vol.Width, vol.Height)
		}

		imageToFloat(img, vol.Data[z*vol.Width*vol.Height:(z+1)*vol.Width*vol.Height])
	}

	return vol, nil
}

// Load reads a directory and wraps the result in a validated Model
func Load(dir string, spacing r3.Vec) (*Model, error) {
	vol, err := LoadDir(dir, spacing)
	if err != nil {
		return nil, err
	}
	return New(vol)
}

// Phantom synthesizes a volume of nested ellipsoids.
// It stands in for a real scan in demos and tests.
func Phantom(width, height, depth int, spacing r3.Vec) *models.Volume {
	vol := &models.Volume{
		Data:    make([]float64, width*height*depth),
		Width:   width,
		Height:  height,
		Depth:   depth,
		Spacing: spacing,
	}

	cx := float64(width-1) / 2
	cy := float64(height-1) / 2
	cz := float64(depth-1) / 2
	rx := math.Max(cx, 1)
	ry := math.Max(cy, 1)
	rz := math.Max(cz, 1)

	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx := (float64(x) - cx) / rx
				dy := (float64(y) - cy) / ry
				dz := (float64(z) - cz) / rz
				r := math.Sqrt(dx*dx + dy*dy + dz*dz)

				var value float64
				switch {
				case r < 0.3:
					value = 1.0
				case r < 0.6:
					value = 0.6
				case r < 0.9:
					value = 0.3
				}
				// Off-center marker so the views are not symmetric
				if math.Abs(dx-0.45) < 0.1 && math.Abs(dy+0.2) < 0.1 {
					value = 0.8
				}
				vol.Data[vol.Index(x, y, z)] = value
			}
		}
	}
	return vol
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		num, err := strconv.Atoi(digits.String())
		if err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes a JPEG or PNG file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		return png.Decode(file)
	}
	return jpeg.Decode(file)
}

// imageToFloat writes the red channel of img, scaled to 0-1, into dst
func imageToFloat(img image.Image, dst []float64) {
	bounds := img.Bounds()
	width := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			dst[y*width+x] = float64(r) / 65535.0
		}
	}
}
