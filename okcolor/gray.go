package okcolor

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
)

// Lightness returns the perceived OKLab lightness of c, in [0, 1].
func Lightness(c color.Color) float64 {
	return clamp(ToLab(c).L, 0, 1)
}

// LightnessModel converts colors to color.Gray using OKLab lightness
// instead of gamma-encoded luma. Mid tones come out brighter than with
// color.GrayModel, which moves them across a fixed threshold.
var LightnessModel = color.ModelFunc(lightnessConvert)

func lightnessConvert(c color.Color) color.Color {
	if g, ok := c.(color.Gray); ok {
		return g
	}
	return color.Gray{Y: uint8(math.Round(Lightness(c) * 255))}
}

// GrayModels lists the grayscale conversions selectable by name. rec601
// uses the ITU-R 601 luma weights (0.299, 0.587, 0.114).
var GrayModels = map[string]color.Model{
	"rec601": color.GrayModel,
	"oklab":  LightnessModel,
}

// GrayModel returns the grayscale model registered as name.
func GrayModel(name string) (color.Model, error) {
	if m, ok := GrayModels[name]; ok {
		return m, nil
	}

	names := make([]string, 0, len(GrayModels))
	for n := range GrayModels {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unsupported grayscale model %q, should be one of %s", name, strings.Join(names, ", "))
}
