package convert

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"img2epd/carray"
	"img2epd/mono"
	"img2epd/okcolor"

	"github.com/alecthomas/kong"
	"golang.org/x/image/draw"
)

type CLICmd struct {
	Input        string   `short:"i" required:"" type:"path" help:"Input image file path"`
	Output       string   `short:"o" required:"" type:"path" help:"Output header file path"`
	Width        int      `short:"w" help:"Display width in pixels" default:"152" group:"display"`
	Height       int      `short:"h" help:"Display height in pixels" default:"296" group:"display"`
	Invert       bool     `help:"Invert black and white pixels" default:"false" group:"display"`
	Threshold    int      `short:"t" help:"Gray level (0-255) above which a pixel is white" default:"128" group:"display"`
	VarName      string   `short:"v" help:"Variable name in generated code" default:"IMAGE_DATA" group:"output"`
	Format       string   `help:"Layout of generated code: guarded header with a size constant, or a minimal declaration" enum:"guarded,minimal" default:"guarded" group:"output"`
	BytesPerLine int      `help:"Array values per line" default:"16" group:"output"`
	Preview      string   `type:"path" help:"Also save the monochrome result as an image (png, gif, bmp, tiff or jpeg by extension)" group:"output"`
	Filter       string   `help:"Resize interpolation" enum:"nearest,approx-bilinear,bilinear,catmull-rom,box,cubic,lanczos" default:"nearest" group:"resize"`
	Fit          string   `help:"Stretch to the display size, crop to its aspect ratio, or pad with the background color" enum:"stretch,crop,pad" default:"stretch" group:"resize"`
	Background   string   `help:"Color used for padding and transparent areas: #RGB, #RGBA, #RRGGBB or #RRGGBBAA" default:"#FFFFFF" group:"resize"`
	Gray         string   `help:"Grayscale conversion: ITU-R 601 luma or OKLab lightness" enum:"rec601,oklab" default:"rec601" group:"resize"`
	Help         helpFlag `help:"Show context-sensitive help."`
}

// Options returns the kong options for parsing a CLICmd. The default help
// flag is replaced by a long-only one because -h selects the height.
func Options() []kong.Option {
	return []kong.Option{
		kong.Name("img2epd"),
		kong.Description("Convert images to byte arrays for e-ink displays."),
		kong.NoDefaultHelp(),
	}
}

type helpFlag bool

func (h helpFlag) BeforeReset(kctx *kong.Context) error {
	err := kctx.PrintUsage(false)
	kctx.Exit(0)
	return err
}

type settings struct {
	format     carray.Format
	scaler     draw.Scaler
	grayModel  color.Model
	background color.Color
}

func (c *CLICmd) settings() (settings, error) {
	var s settings
	var err error

	if c.Width <= 0 || c.Height <= 0 {
		return s, fmt.Errorf("%w: %dx%d", mono.ErrInvalidDimension, c.Width, c.Height)
	}
	if c.Threshold < 0 || c.Threshold > 255 {
		return s, fmt.Errorf("invalid threshold: %d", c.Threshold)
	}
	if c.BytesPerLine <= 0 {
		return s, fmt.Errorf("%w: %d", carray.ErrInvalidBytesPerLine, c.BytesPerLine)
	}
	if !carray.IsIdentifier(c.VarName) {
		return s, fmt.Errorf("%w: %q", carray.ErrInvalidName, c.VarName)
	}

	if s.format, err = carray.ParseFormat(c.Format); err != nil {
		return s, err
	}

	var ok bool
	if s.scaler, ok = scalers[c.Filter]; !ok {
		return s, fmt.Errorf("unsupported filter %q, should be one of %s", c.Filter, strings.Join(filterNames(), ", "))
	}

	switch c.Fit {
	case fitStretch, fitCrop, fitPad:
	default:
		return s, fmt.Errorf("unsupported fit %q", c.Fit)
	}

	if s.grayModel, err = okcolor.GrayModel(c.Gray); err != nil {
		return s, err
	}

	if s.background, err = parseHexToColor(c.Background); err != nil {
		return s, err
	}

	return s, nil
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	_, err := c.settings()
	return err
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	s, err := c.settings()
	if err != nil {
		return err
	}

	logger = logger.With("file", c.Input)
	logger.Info("converting", "width", c.Width, "height", c.Height, "invert", c.Invert)

	img, imgType, err := loadImage(logger, c.Input)
	if err != nil {
		return err
	}
	logger.Info("decoded image", "format", imgType, "size", img.Bounds().Size())

	gray := toGray(img, s.grayModel, s.background)
	fill := s.grayModel.Convert(s.background).(color.Gray)
	gray, err = resize(logger, gray, c.Width, c.Height, s.scaler, c.Fit, fill)
	if err != nil {
		return err
	}

	bitmap, err := mono.Pack(gray, uint8(c.Threshold), c.Invert)
	if err != nil {
		return err
	}

	src, err := carray.Marshal(bitmap.Pix, carray.Options{
		Name:         c.VarName,
		Guard:        carray.GuardFromPath(c.Output),
		BytesPerLine: c.BytesPerLine,
		Format:       s.format,
	})
	if err != nil {
		return err
	}

	if err = writeFile(logger, c.Output, src); err != nil {
		return err
	}

	if c.Preview != "" {
		if err = savePreview(logger, c.Preview, bitmap); err != nil {
			return err
		}
		logger.Info("preview saved", "preview", c.Preview)
	}

	logger.Info("saved", "output", c.Output, "bytes", bitmap.Len())
	return nil
}

func parseHexToColor(s string) (color.Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("invalid color %q, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("could not read color %q: %w", s, err)
	}

	var c color.NRGBA
	switch len(hex) {
	case 3:
		c = color.NRGBA{R: uint8(v>>8&0xF) * 0x11, G: uint8(v>>4&0xF) * 0x11, B: uint8(v&0xF) * 0x11, A: 0xFF}
	case 4:
		c = color.NRGBA{R: uint8(v>>12&0xF) * 0x11, G: uint8(v>>8&0xF) * 0x11, B: uint8(v>>4&0xF) * 0x11, A: uint8(v&0xF) * 0x11}
	case 6:
		c = color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
	case 8:
		c = color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	default:
		return nil, fmt.Errorf("invalid color %q, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA", s)
	}

	return c, nil
}
