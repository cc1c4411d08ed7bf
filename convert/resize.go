package convert

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sort"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

const (
	fitStretch = "stretch"
	fitCrop    = "crop"
	fitPad     = "pad"
)

// scalers are the interpolation filters selectable with --filter.
var scalers = map[string]draw.Scaler{
	"nearest":         draw.NearestNeighbor,
	"approx-bilinear": draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmull-rom":     draw.CatmullRom,
	"box":             giftScaler{gift.BoxResampling},
	"cubic":           giftScaler{gift.CubicResampling},
	"lanczos":         giftScaler{gift.LanczosResampling},
}

func filterNames() []string {
	names := make([]string, 0, len(scalers))
	for name := range scalers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// giftScaler adapts a gift resampling filter to draw.Scaler.
type giftScaler struct {
	resampling gift.Resampling
}

func (s giftScaler) Scale(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle, op draw.Op, _ *draw.Options) {
	if sub, ok := src.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		src = sub.SubImage(sr)
	}

	g := gift.New(gift.Resize(dr.Dx(), dr.Dy(), s.resampling))
	tmp := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(tmp, src)
	draw.Draw(dst, dr, tmp, tmp.Bounds().Min, op)
}

// resize scales src to exactly width x height. With fitCrop the source is
// trimmed to the destination aspect ratio first, with fitPad it is
// letterboxed on a fill background.
func resize(logger *slog.Logger, src *image.Gray, width, height int, scaler draw.Scaler, fit string, fill color.Gray) (*image.Gray, error) {
	srcBounds := src.Bounds()
	if srcBounds.Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrResize)
	}

	destSize := image.Rect(0, 0, width, height)
	if srcBounds.Size() == destSize.Size() {
		return src, nil
	}
	destBounds := destSize

	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())
	destWidth := float64(width)
	destHeight := float64(height)

	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	switch fit {
	case fitCrop:
		if srcAR < destAR {
			dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
			srcBounds.Min.Y += dh
			srcBounds.Max.Y -= dh
		} else if srcAR > destAR {
			dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
			srcBounds.Min.X += dw
			srcBounds.Max.X -= dw
		}
	case fitPad:
		if srcAR < destAR {
			idw := int(math.Round((destWidth - destHeight*srcAR) / 2))
			destBounds.Min.X += idw
			destBounds.Max.X -= idw
		} else if srcAR > destAR {
			idh := int(math.Round((destHeight - destWidth/srcAR) / 2))
			destBounds.Min.Y += idh
			destBounds.Max.Y -= idh
		}
	case fitStretch:
	default:
		return nil, fmt.Errorf("%w: unsupported fit %q", ErrResize, fit)
	}

	if srcBounds.Empty() || destBounds.Empty() {
		return nil, fmt.Errorf("%w: nothing left to scale from %v into %v", ErrResize, srcBounds, destBounds)
	}

	logger.Info("resizing", "from", srcBounds.Size(), "width", destBounds.Dx(), "height", destBounds.Dy())
	dest := image.NewGray(destSize)
	if fit == fitPad {
		draw.Draw(dest, destSize, image.NewUniform(fill), image.Point{}, draw.Src)
	}
	scaler.Scale(dest, destBounds, src, srcBounds, draw.Src, nil)

	return dest, nil
}
