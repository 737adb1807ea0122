package codec

import (
	"context"
	"image"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// moduleCache resolves loaded codec modules by format.
type moduleCache interface {
	Module(ctx context.Context, format string) (Module, error)
}

// Dispatcher routes decode and encode calls to the loaded codec module of a
// format and normalizes their errors.
type Dispatcher struct {
	cache moduleCache
}

// NewDispatcher creates a Dispatcher backed by cache.
func NewDispatcher(cache moduleCache) *Dispatcher {
	return &Dispatcher{cache: cache}
}

// Decode decodes data of the given source format into a pixel buffer.
func (d *Dispatcher) Decode(ctx context.Context, sourceFormat string, data []byte) (image.Image, error) {
	m, err := d.cache.Module(ctx, sourceFormat)
	if err != nil {
		return nil, err
	}

	img, err := m.Decode(ctx, data)
	if err != nil {
		return nil, &CodecError{Op: "decode", Format: sourceFormat, Err: err}
	}

	return img, nil
}

// Encode encodes img into targetFormat. Options are only passed to formats
// that accept a quality setting.
func (d *Dispatcher) Encode(ctx context.Context, targetFormat string, img image.Image, opts model.Options) ([]byte, error) {
	m, err := d.cache.Module(ctx, targetFormat)
	if err != nil {
		return nil, err
	}

	if !model.NormalizeFormat(targetFormat).AcceptsQuality() {
		opts = model.Options{}
	}

	data, err := m.Encode(ctx, img, opts)
	if err != nil {
		return nil, &CodecError{Op: "encode", Format: targetFormat, Err: err}
	}

	return data, nil
}
