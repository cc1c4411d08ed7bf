package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// writeFile replaces path with data. The content goes to a temporary file in
// the same folder that is flushed, closed and renamed over path, so a failed
// write never leaves a truncated destination behind.
func writeFile(logger *slog.Logger, path string, data []byte) (err error) {
	if err = checkDest(path); err != nil {
		return err
	}

	destDir, destName := filepath.Split(path)
	if destDir == "" {
		destDir = "."
	}

	outFile, err := os.CreateTemp(destDir, "."+destName+".*")
	if err != nil {
		return fmt.Errorf("%w: could not create temporary destination for %q: %w", ErrOutputWrite, path, err)
	}
	canRename := false
	defer func() {
		if !canRename {
			if rmErr := os.Remove(outFile.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				logger.Error("could not remove temporary destination", "name", outFile.Name(), "error", rmErr)
			}
			return
		}
		if defErr := os.Rename(outFile.Name(), path); defErr != nil {
			err = fmt.Errorf("%w: could not rename destination file %q: %w", ErrOutputWrite, path, defErr)
		}
	}()

	if _, err = outFile.Write(data); err != nil {
		outFile.Close()
		return fmt.Errorf("%w: could not write %q: %w", ErrOutputWrite, path, err)
	}
	if err = outFile.Chmod(0o644); err != nil {
		outFile.Close()
		return fmt.Errorf("%w: could not set mode of %q: %w", ErrOutputWrite, path, err)
	}
	if err = outFile.Sync(); err != nil {
		outFile.Close()
		return fmt.Errorf("%w: could not flush temporary destination for %q: %w", ErrOutputWrite, path, err)
	}
	if err = outFile.Close(); err != nil {
		return fmt.Errorf("%w: could not close temporary destination for %q: %w", ErrOutputWrite, path, err)
	}

	canRename = true
	return nil
}

// checkDest fails when path exists and is not a regular file.
func checkDest(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: cannot stat destination file %q: %w", ErrOutputWrite, path, err)
		}
		return nil
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: cannot overwrite non-regular file %q: %s", ErrOutputWrite, path, info.Mode().String())
	}
	return nil
}

// savePreview encodes img in the format given by the extension of path.
func savePreview(logger *slog.Logger, path string, img image.Image) error {
	img = paletted(img)

	var buf bytes.Buffer
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	case ".png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: unsupported preview format %q", ErrOutputWrite, ext)
	}
	if err != nil {
		return fmt.Errorf("%w: could not encode preview %q: %w", ErrOutputWrite, path, err)
	}

	return writeFile(logger, path, buf.Bytes())
}

// paletted copies palette-backed images into an *image.Paletted, which every
// encoder writes with its native indexed layout.
func paletted(img image.Image) image.Image {
	src, ok := img.(image.PalettedImage)
	if !ok {
		return img
	}
	pal, ok := img.ColorModel().(color.Palette)
	if !ok {
		return img
	}
	if p, ok := img.(*image.Paletted); ok {
		return p
	}

	b := img.Bounds()
	dest := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dest.SetColorIndex(x, y, src.ColorIndexAt(x, y))
		}
	}
	return dest
}
