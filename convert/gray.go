package convert

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// toGray converts img to a single channel image anchored at the origin.
// Images with transparency are flattened onto bg first.
func toGray(img image.Image, model color.Model, bg color.Color) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && model == color.GrayModel && b.Min == (image.Point{}) {
		return g
	}

	if !isOpaque(img) {
		flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(flat, flat.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)
		img, b = flat, flat.Bounds()
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.SetGray(x-b.Min.X, y-b.Min.Y, model.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
