// Package mono packs grayscale images into 1-bit-per-pixel buffers as used by
// monochrome e-ink displays.
//
// Pixels are scanned row-major. Pixel i lands in byte i/8, most significant
// bit first. When the pixel count is not a multiple of 8 the low bits of the
// last byte are padding and are always zero.
package mono

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// DefaultThreshold is the intensity above which a pixel is considered white.
const DefaultThreshold = 128

var ErrInvalidDimension = errors.New("invalid dimension")

// Palette maps the bit values of a Bitmap: 0 is black, 1 is white.
var Palette = color.Palette{color.Black, color.White}

// Size returns the number of bytes needed to hold width*height pixels.
func Size(width, height int) int {
	return (width*height + 7) / 8
}

// Pack thresholds grid and packs the result into a Bitmap. A pixel is on
// (bit set) when its value is strictly greater than threshold; invert
// complements every pixel bit but leaves the padding untouched.
func Pack(grid *image.Gray, threshold uint8, invert bool) (*Bitmap, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidDimension)
	}
	r := grid.Bounds()
	width, height := r.Dx(), r.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if need := (height-1)*grid.Stride + width; grid.Stride < width || len(grid.Pix) < need {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidDimension, len(grid.Pix), width, height)
	}

	b := NewBitmap(r)
	i := 0
	for y := 0; y < height; y++ {
		row := grid.Pix[y*grid.Stride : y*grid.Stride+width]
		for _, v := range row {
			if (v > threshold) != invert {
				b.Pix[i>>3] |= 0x80 >> (i & 7)
			}
			i++
		}
	}

	return b, nil
}
