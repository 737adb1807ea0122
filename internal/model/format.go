package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidFormat is returned when a user-selected output format is not supported.
var ErrInvalidFormat = errors.New("invalid format")

// Format is a logical image format name.
type Format string

const (
	FormatAVIF Format = "avif"
	FormatJPEG Format = "jpeg"
	FormatJXL  Format = "jxl"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatAVIF, FormatJPEG, FormatJXL, FormatPNG, FormatWebP}

// DefaultQuality holds the quality used when the caller does not pick one.
var DefaultQuality = map[Format]int{
	FormatAVIF: 50,
	FormatJPEG: 75,
	FormatJXL:  75,
	FormatWebP: 75,
}

// NormalizeFormat maps input aliases to their canonical name.
// Anything else is returned unchanged.
func NormalizeFormat(format string) Format {
	if format == "jpg" {
		return FormatJPEG
	}

	return Format(format)
}

// Supported reports whether a codec module exists for f.
func (f Format) Supported() bool {
	switch f {
	case FormatAVIF, FormatJPEG, FormatJXL, FormatPNG, FormatWebP:
		return true
	default:
		return false
	}
}

// AcceptsQuality reports whether the encoder for f takes a quality option.
func (f Format) AcceptsQuality() bool {
	return f == FormatJPEG || f == FormatJXL || f == FormatWebP
}

// MIMEType returns the blob type for encoded images of format f.
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// ParseFormat parses a user-selected output format.
func ParseFormat(s string) (Format, error) {
	f := NormalizeFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.Supported() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	return f, nil
}

// DetectFormat derives the source format from a file name and its declared
// content type. The "jxl" extension wins because browsers and clients rarely
// declare a content type for it.
func DetectFormat(name, contentType string) Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "jxl" {
		return FormatJXL
	}

	subtype := contentType
	if i := strings.IndexByte(subtype, '/'); i >= 0 {
		subtype = subtype[i+1:]
	}
	if i := strings.IndexByte(subtype, ';'); i >= 0 {
		subtype = subtype[:i]
	}
	subtype = strings.TrimSpace(subtype)

	if subtype == "jpeg" {
		subtype = "jpg"
	}

	return NormalizeFormat(subtype)
}

// OptionsFor builds encode options for target, falling back to the format
// default when quality is not positive and capping it at 100.
func OptionsFor(target Format, quality int) Options {
	if quality <= 0 {
		quality = DefaultQuality[target]
	}
	if quality > 100 {
		quality = 100
	}

	return Options{Quality: quality}
}
