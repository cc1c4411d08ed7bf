package convert

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// loadImage decodes the image at path. The file is closed before returning.
func loadImage(logger *slog.Logger, path string) (image.Image, string, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: could not open image %q: %w", ErrInputNotFound, path, err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			logger.Error("could not close image", "error", closeErr)
		}
	}()

	info, err := imgFile.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot stat image %q: %w", ErrInputNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%w: not a regular file %q: %s", ErrInputNotFound, path, info.Mode().String())
	}

	img, imgType, err := image.Decode(bufio.NewReader(imgFile))
	if err != nil {
		return nil, "", fmt.Errorf("%w: could not decode image %q: %w", ErrUnsupportedFormat, path, err)
	}

	return img, imgType, nil
}
