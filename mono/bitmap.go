package mono

import (
	"image"
	"image/color"
)

// Bitmap is a 1-bit image whose pixels are packed continuously, without
// per-row padding. Only the last byte may carry unused bits.
type Bitmap struct {
	// Pix holds the packed pixels. The pixel at (x, y) is bit
	// 7-(i%8) of Pix[i/8], where i = (y-Rect.Min.Y)*Rect.Dx() + (x-Rect.Min.X).
	Pix []byte
	// Rect is the image's bounds.
	Rect image.Rectangle
}

var _ image.PalettedImage = &Bitmap{}

// NewBitmap returns an all-black Bitmap with the given bounds.
func NewBitmap(r image.Rectangle) *Bitmap {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Bitmap{Rect: r}
	}
	return &Bitmap{
		Pix:  make([]byte, Size(w, h)),
		Rect: r,
	}
}

// Len returns the number of packed bytes.
func (b *Bitmap) Len() int {
	return len(b.Pix)
}

func (b *Bitmap) ColorModel() color.Model {
	return Palette
}

func (b *Bitmap) Bounds() image.Rectangle {
	return b.Rect
}

func (b *Bitmap) At(x, y int) color.Color {
	return Palette[b.ColorIndexAt(x, y)]
}

func (b *Bitmap) ColorIndexAt(x, y int) uint8 {
	if b.BitAt(x, y) {
		return 1
	}
	return 0
}

// BitAt reports whether the pixel at (x, y) is on. Points outside the
// bounds are off.
func (b *Bitmap) BitAt(x, y int) bool {
	if !(image.Point{x, y}.In(b.Rect)) {
		return false
	}
	i := b.bitOffset(x, y)
	return b.Pix[i>>3]&(0x80>>(i&7)) != 0
}

// SetBit turns the pixel at (x, y) on or off. Points outside the bounds are
// ignored.
func (b *Bitmap) SetBit(x, y int, on bool) {
	if !(image.Point{x, y}.In(b.Rect)) {
		return
	}
	i := b.bitOffset(x, y)
	if on {
		b.Pix[i>>3] |= 0x80 >> (i & 7)
	} else {
		b.Pix[i>>3] &^= 0x80 >> (i & 7)
	}
}

func (b *Bitmap) bitOffset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Rect.Dx() + (x - b.Rect.Min.X)
}
