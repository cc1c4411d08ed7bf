package convert

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"img2epd/carray"
	"img2epd/mono"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create %q: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("could not encode %q: %v", path, err)
	}
}

// blocks returns a 4x4 image made of 2x2 blocks, white where on is set.
func blocks(on ...bool) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	for i, set := range on {
		if !set {
			continue
		}
		bx, by := (i%2)*2, (i/2)*2
		for y := by; y < by+2; y++ {
			for x := bx; x < bx+2; x++ {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

func newCmd(input, output string) *CLICmd {
	return &CLICmd{
		Input:        input,
		Output:       output,
		Width:        152,
		Height:       296,
		Threshold:    mono.DefaultThreshold,
		VarName:      "IMAGE_DATA",
		Format:       "guarded",
		BytesPerLine: carray.DefaultBytesPerLine,
		Filter:       "nearest",
		Fit:          fitStretch,
		Background:   "#FFFFFF",
		Gray:         "rec601",
	}
}

func TestRunGuarded(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "logo.png")
	output := filepath.Join(dir, "logo.h")
	writePNG(t, input, blocks(true, false, false, true))

	cmd := newCmd(input, output)
	cmd.Width, cmd.Height = 2, 2
	cmd.VarName = "LOGO"
	if err := cmd.Run(discard); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("could not read output: %v", err)
	}
	want := "#ifndef _LOGO_H_\n" +
		"#define _LOGO_H_\n" +
		"\n" +
		"#define LOGO_SIZE 1\n" +
		"\n" +
		"const unsigned char LOGO[LOGO_SIZE] PROGMEM = {\n" +
		"    0x90,\n" +
		"};\n" +
		"\n" +
		"#endif\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("could not stat output: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("output mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestRunMinimal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "white.png")
	writePNG(t, input, blocks(true, true, true, true))

	tests := []struct {
		name   string
		invert bool
		want   string
	}{
		{"plain", false, "const unsigned char IMG[2] PROGMEM = {\n   0XFF,0XF0,\n};"},
		{"inverted", true, "const unsigned char IMG[2] PROGMEM = {\n   0X00,0X00,\n};"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name+".h")
			cmd := newCmd(input, output)
			cmd.Width, cmd.Height = 3, 4
			cmd.VarName = "IMG"
			cmd.Format = "minimal"
			cmd.Invert = tt.invert
			if err := cmd.Run(discard); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			got, err := os.ReadFile(output)
			if err != nil {
				t.Fatalf("could not read output: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunDefaultSize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.h")
	writePNG(t, input, blocks(true, false, true, false))

	cmd := newCmd(input, output)
	cmd.Preview = filepath.Join(dir, "preview.png")
	if err := cmd.Run(discard); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := os.Open(cmd.Preview)
	if err != nil {
		t.Fatalf("could not open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("could not decode preview: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 152, 296) {
		t.Fatalf("preview bounds = %v, want 152x296", img.Bounds())
	}
	if _, ok := img.(*image.Paletted); !ok {
		t.Errorf("preview decoded as %T, want *image.Paletted", img)
	}
	for _, p := range []image.Point{{0, 0}, {75, 295}, {76, 0}, {151, 295}} {
		want := p.X < 76
		got := color.GrayModel.Convert(img.At(p.X, p.Y)).(color.Gray).Y == 255
		if got != want {
			t.Errorf("preview pixel %v white = %v, want %v", p, got, want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.png")
	writePNG(t, valid, blocks(true))
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		modify func(*CLICmd)
		want   error
	}{
		{"missing input", func(c *CLICmd) { c.Input = filepath.Join(dir, "missing.png") }, ErrInputNotFound},
		{"directory input", func(c *CLICmd) { c.Input = dir }, ErrInputNotFound},
		{"undecodable input", func(c *CLICmd) { c.Input = garbage }, ErrUnsupportedFormat},
		{"missing output folder", func(c *CLICmd) { c.Output = filepath.Join(dir, "nope", "out.h") }, ErrOutputWrite},
		{"output is a directory", func(c *CLICmd) { c.Output = dir }, ErrOutputWrite},
		{"bad preview extension", func(c *CLICmd) { c.Preview = filepath.Join(dir, "preview.xyz") }, ErrOutputWrite},
		{"zero width", func(c *CLICmd) { c.Width = 0 }, mono.ErrInvalidDimension},
		{"negative height", func(c *CLICmd) { c.Height = -2 }, mono.ErrInvalidDimension},
		{"bad var name", func(c *CLICmd) { c.VarName = "my image" }, carray.ErrInvalidName},
		{"bad bytes per line", func(c *CLICmd) { c.BytesPerLine = 0 }, carray.ErrInvalidBytesPerLine},
		{"bad format", func(c *CLICmd) { c.Format = "json" }, carray.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCmd(valid, filepath.Join(dir, "out.h"))
			cmd.Width, cmd.Height = 8, 8
			tt.modify(cmd)
			if err := cmd.Run(discard); !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CLICmd)
		wantErr bool
	}{
		{"defaults", func(*CLICmd) {}, false},
		{"threshold 0", func(c *CLICmd) { c.Threshold = 0 }, false},
		{"threshold 255", func(c *CLICmd) { c.Threshold = 255 }, false},
		{"threshold 256", func(c *CLICmd) { c.Threshold = 256 }, true},
		{"threshold negative", func(c *CLICmd) { c.Threshold = -1 }, true},
		{"unknown filter", func(c *CLICmd) { c.Filter = "sinc" }, true},
		{"unknown fit", func(c *CLICmd) { c.Fit = "zoom" }, true},
		{"unknown gray", func(c *CLICmd) { c.Gray = "hsv" }, true},
		{"bad background", func(c *CLICmd) { c.Background = "white" }, true},
		{"oklab", func(c *CLICmd) { c.Gray = "oklab" }, false},
		{"lanczos pad", func(c *CLICmd) { c.Filter, c.Fit = "lanczos", fitPad }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCmd("in.png", "out.h")
			tt.modify(cmd)
			if err := cmd.Validate(nil); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	absPath := func(p string) string {
		abs, err := filepath.Abs(p)
		if err != nil {
			t.Fatal(err)
		}
		return abs
	}

	tests := []struct {
		name    string
		args    []string
		want    func(*CLICmd) bool
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"-i", "in.png", "-o", "out.h"},
			want: func(c *CLICmd) bool {
				return c.Input == absPath("in.png") && c.Output == absPath("out.h") &&
					c.Width == 152 && c.Height == 296 && !c.Invert && c.VarName == "IMAGE_DATA" &&
					c.Threshold == 128 && c.Format == "guarded" && c.BytesPerLine == 16 &&
					c.Filter == "nearest" && c.Fit == fitStretch && c.Gray == "rec601" && c.Preview == ""
			},
		},
		{
			name: "short flags",
			args: []string{"-i", "in.png", "-o", "out.h", "-w", "250", "-h", "122", "-v", "SPLASH", "-t", "100", "--invert"},
			want: func(c *CLICmd) bool {
				return c.Width == 250 && c.Height == 122 && c.VarName == "SPLASH" && c.Threshold == 100 && c.Invert
			},
		},
		{
			name: "long flags",
			args: []string{"--input=in.png", "--output=out.h", "--width=8", "--height=16", "--var-name=X", "--format=minimal", "--bytes-per-line=12", "--filter=lanczos", "--fit=crop", "--gray=oklab"},
			want: func(c *CLICmd) bool {
				return c.Width == 8 && c.Height == 16 && c.VarName == "X" && c.Format == "minimal" &&
					c.BytesPerLine == 12 && c.Filter == "lanczos" && c.Fit == fitCrop && c.Gray == "oklab"
			},
		},
		{name: "missing input", args: []string{"-o", "out.h"}, wantErr: true},
		{name: "missing output", args: []string{"-i", "in.png"}, wantErr: true},
		{name: "zero width", args: []string{"-i", "in.png", "-o", "out.h", "-w", "0"}, wantErr: true},
		{name: "unknown format", args: []string{"-i", "in.png", "-o", "out.h", "--format=json"}, wantErr: true},
		{name: "unknown filter", args: []string{"-i", "in.png", "-o", "out.h", "--filter=sinc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd CLICmd
			parser, err := kong.New(&cmd, append(Options(), kong.Exit(func(int) {}))...)
			if err != nil {
				t.Fatalf("kong.New() error = %v", err)
			}

			_, err = parser.Parse(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.want(&cmd) {
				t.Errorf("Parse() = %+v", cmd)
			}
		})
	}
}

func TestParseHexToColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FFF", color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, false},
		{"#f80", color.NRGBA{0xFF, 0x88, 0x00, 0xFF}, false},
		{"#1238", color.NRGBA{0x11, 0x22, 0x33, 0x88}, false},
		{"#102030", color.NRGBA{0x10, 0x20, 0x30, 0xFF}, false},
		{"#10203040", color.NRGBA{0x10, 0x20, 0x30, 0x40}, false},
		{"FFFFFF", color.NRGBA{}, true},
		{"#", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#GGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		got, err := parseHexToColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexToColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseHexToColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
