package convert

import "errors"

var (
	ErrInputNotFound     = errors.New("input not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrResize            = errors.New("could not resize image")
	ErrOutputWrite       = errors.New("could not write output")
)
