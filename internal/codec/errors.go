package codec

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat matches every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported format")

// UnsupportedFormatError reports a format without a codec module.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("Unsupported format: %s", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// LoadError reports a failed module load. The cache keeps no record of it.
type LoadError struct {
	Format string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to initialize %s support: %v", e.Format, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CodecError reports a decode or encode failure of a loaded module.
// The underlying cause is kept for logging but not rendered in the message.
type CodecError struct {
	Op     string // "decode" or "encode"
	Format string
	Err    error
}

func (e *CodecError) Error() string {
	if e.Op == "decode" {
		return fmt.Sprintf("failed to decode %s image", e.Format)
	}

	return fmt.Sprintf("failed to encode to %s", e.Format)
}

func (e *CodecError) Unwrap() error { return e.Err }
