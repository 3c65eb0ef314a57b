// Package preview rasterizes SVG documents, typically legend sheets, to
// PNG images.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
)

// MaxPixels bounds the area of a rasterized image, 4096x4096.
const MaxPixels = 4096 * 4096

// ErrTooLarge is returned when the requested image exceeds MaxPixels.
var ErrTooLarge = errors.New("preview too large")

// Rasterize draws the SVG read from r onto a white image of the given
// size. A height of zero keeps the aspect ratio of the SVG view box.
// Elements the rasterizer does not support are skipped. Images larger than
// MaxPixels are refused with ErrTooLarge before any allocation.
func Rasterize(r io.Reader, width, height int) (*image.RGBA, error) {
	if width <= 0 {
		return nil, fmt.Errorf("preview width must be positive, got %d", width)
	}

	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}
	if height <= 0 {
		if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
			return nil, fmt.Errorf("svg has no view box; preview height required")
		}
		h := math.Round(float64(width) * icon.ViewBox.H / icon.ViewBox.W)
		if float64(width)*h > MaxPixels {
			return nil, fmt.Errorf("%w: %dx%.0f exceeds %d pixels", ErrTooLarge, width, h, MaxPixels)
		}
		height = max(int(h), 1)
	}
	if int64(width)*int64(height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, MaxPixels)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colornames.White), image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
