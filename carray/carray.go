// Package carray serializes byte buffers as C array declarations meant to be
// compiled into microcontroller firmware.
package carray

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DefaultBytesPerLine is the number of array entries written per line.
const DefaultBytesPerLine = 16

var (
	ErrInvalidName         = errors.New("invalid array name")
	ErrInvalidGuard        = errors.New("invalid header guard")
	ErrInvalidBytesPerLine = errors.New("invalid bytes per line")
	ErrUnsupportedFormat   = errors.New("unsupported array format")
)

// Format selects the layout of the generated source.
type Format int

const (
	// Guarded writes an include-once header with a NAME_SIZE constant,
	// 4-space indentation and ", " separated 0xHH values.
	Guarded Format = iota
	// Minimal writes a bare declaration with a literal length, 3-space
	// indentation and "," separated 0XHH values.
	Minimal
)

var formatNames = map[Format]string{
	Guarded: "guarded",
	Minimal: "minimal",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

type layout struct {
	indent string
	sep    string
	prefix string
}

var layouts = map[Format]layout{
	Guarded: {indent: "    ", sep: ", ", prefix: "0x"},
	Minimal: {indent: "   ", sep: ",", prefix: "0X"},
}

type Options struct {
	// Name is the C identifier of the array. The guarded format also
	// derives the size constant NAME_SIZE from it.
	Name string
	// Guard is the header guard stem, written as _GUARD_. Required by
	// the guarded format, see GuardFromPath.
	Guard        string
	BytesPerLine int
	Format       Format
}

func (o Options) validate() error {
	if !IsIdentifier(o.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, o.Name)
	}
	if o.BytesPerLine <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBytesPerLine, o.BytesPerLine)
	}
	if _, ok := layouts[o.Format]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, o.Format)
	}
	if o.Format == Guarded && (o.Guard == "" || strings.ContainsAny(o.Guard, " \t\r\n")) {
		return fmt.Errorf("%w: %q", ErrInvalidGuard, o.Guard)
	}
	return nil
}

// Marshal returns the source text declaring data as an array.
func Marshal(data []byte, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch opts.Format {
	case Guarded:
		fmt.Fprintf(&buf, "#ifndef _%s_\n", opts.Guard)
		fmt.Fprintf(&buf, "#define _%s_\n\n", opts.Guard)
		fmt.Fprintf(&buf, "#define %s_SIZE %d\n\n", opts.Name, len(data))
		fmt.Fprintf(&buf, "const unsigned char %s[%s_SIZE] PROGMEM = {\n", opts.Name, opts.Name)
		writeValues(&buf, data, opts.BytesPerLine, layouts[opts.Format])
		buf.WriteString("};\n\n")
		buf.WriteString("#endif\n")
	case Minimal:
		fmt.Fprintf(&buf, "const unsigned char %s[%d] PROGMEM = {\n", opts.Name, len(data))
		writeValues(&buf, data, opts.BytesPerLine, layouts[opts.Format])
		buf.WriteString("};")
	}

	return buf.Bytes(), nil
}

// Encode writes the source text declaring data as an array to w.
func Encode(w io.Writer, data []byte, opts Options) error {
	src, err := Marshal(data, opts)
	if err != nil {
		return err
	}
	return writeBytes(w, src)
}

func writeValues(buf *bytes.Buffer, data []byte, perLine int, l layout) {
	const digits = "0123456789ABCDEF"
	for i := 0; i < len(data); i += perLine {
		buf.WriteString(l.indent)
		for j, b := range data[i:min(i+perLine, len(data))] {
			if j > 0 {
				buf.WriteString(l.sep)
			}
			buf.WriteString(l.prefix)
			buf.WriteByte(digits[b>>4])
			buf.WriteByte(digits[b&0x0F])
		}
		buf.WriteString(",\n")
	}
}

// GuardFromPath derives a header guard stem from the base name of path:
// dots become underscores and letters are upper-cased, so "out.h" yields
// "OUT_H".
func GuardFromPath(path string) string {
	return strings.ToUpper(strings.ReplaceAll(filepath.Base(path), ".", "_"))
}

// IsIdentifier reports whether s is a valid C identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}

func writeBytes(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	} else if n != len(b) {
		return fmt.Errorf("wrote only %d/%d bytes", n, len(b))
	}

	return nil
}
