package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/jpegxl"
	"github.com/gen2brain/webp"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// Module is a loaded codec for a single format.
type Module interface {
	Decode(ctx context.Context, data []byte) (image.Image, error)
	Encode(ctx context.Context, img image.Image, opts model.Options) ([]byte, error)
}

// builtin returns the module implementation for a normalized format.
func builtin(format model.Format) (Module, error) {
	switch format {
	case model.FormatAVIF:
		return avifModule{}, nil
	case model.FormatJPEG:
		return jpegModule{}, nil
	case model.FormatJXL:
		return jxlModule{}, nil
	case model.FormatPNG:
		return pngModule{}, nil
	case model.FormatWebP:
		return webpModule{}, nil
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// jpegModule encodes and decodes JPEG through imaging.
type jpegModule struct{}

func (jpegModule) Decode(_ context.Context, data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func (jpegModule) Encode(_ context.Context, img image.Image, opts model.Options) ([]byte, error) {
	encOpts := []imaging.EncodeOption{}
	if opts.Quality > 0 {
		encOpts = append(encOpts, imaging.JPEGQuality(opts.Quality))
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, encOpts...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// pngModule encodes and decodes PNG through imaging.
type pngModule struct{}

func (pngModule) Decode(_ context.Context, data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}

func (pngModule) Encode(_ context.Context, img image.Image, _ model.Options) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(-3)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// webpModule wraps the WASM-backed libwebp bindings.
type webpModule struct{}

func (webpModule) Decode(_ context.Context, data []byte) (image.Image, error) {
	return webp.Decode(bytes.NewReader(data))
}

func (webpModule) Encode(_ context.Context, img image.Image, opts model.Options) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = model.DefaultQuality[model.FormatWebP]
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Quality: quality, Method: 4}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// avifModule wraps the WASM-backed libavif bindings. Quality is not tunable.
type avifModule struct{}

func (avifModule) Decode(_ context.Context, data []byte) (image.Image, error) {
	return avif.Decode(bytes.NewReader(data))
}

func (avifModule) Encode(_ context.Context, img image.Image, _ model.Options) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := avif.Encode(buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// jxlModule wraps the WASM-backed libjxl bindings.
type jxlModule struct{}

func (jxlModule) Decode(_ context.Context, data []byte) (image.Image, error) {
	return jpegxl.Decode(bytes.NewReader(data))
}

func (jxlModule) Encode(_ context.Context, img image.Image, opts model.Options) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = model.DefaultQuality[model.FormatJXL]
	}

	buf := new(bytes.Buffer)
	if err := jpegxl.Encode(buf, img, jpegxl.Options{Quality: quality, Effort: 7}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// warmUp runs a 1x1 round trip through m so that any lazy runtime
// initialization happens while the module is being loaded.
func warmUp(ctx context.Context, m Module) error {
	probe := imaging.New(1, 1, image.White.C)

	data, err := m.Encode(ctx, probe, model.Options{})
	if err != nil {
		return fmt.Errorf("probe encode: %w", err)
	}

	if _, err := m.Decode(ctx, data); err != nil {
		return fmt.Errorf("probe decode: %w", err)
	}

	return nil
}

// DefaultLoader instantiates the built-in module for format and warms it up.
func DefaultLoader(ctx context.Context, format model.Format) (Module, error) {
	m, err := builtin(format)
	if err != nil {
		return nil, err
	}

	if err := warmUp(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}
