package processor

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/model"
)

var (
	// ErrEmptyFile is returned when the source file has no content.
	ErrEmptyFile = errors.New("empty file")
	// ErrInvalidImageData is returned when decoding yields no pixels.
	ErrInvalidImageData = errors.New("invalid image data")
	// ErrEmptyEncode is returned when the encoder produces no output.
	ErrEmptyEncode = errors.New("failed to compress image")
)

// dispatcher decodes and encodes images by format name.
type dispatcher interface {
	Decode(ctx context.Context, sourceFormat string, data []byte) (image.Image, error)
	Encode(ctx context.Context, targetFormat string, img image.Image, opts model.Options) ([]byte, error)
}

// projector records status transitions on the shared image collection.
type projector interface {
	UpdateImage(id uuid.UUID, u model.Update) bool
}

// previews issues and releases preview handles for encoded blobs.
type previews interface {
	Create(b *model.Blob) string
	Revoke(handle string)
}

// Processor converts a single image to its target format.
type Processor struct {
	dispatcher dispatcher
	projector  projector
	previews   previews
}

// New creates a new Processor.
func New(d dispatcher, p projector, pv previews) *Processor {
	return &Processor{dispatcher: d, projector: p, previews: pv}
}

// Process runs img through decode and encode and projects the terminal
// status. Failures are recorded on the image and also returned.
func (p *Processor) Process(ctx context.Context, img model.Image) error {
	start := time.Now()
	p.projector.UpdateImage(img.ID, model.Update{Status: model.StatusProcessing})

	blob, err := p.convert(ctx, img)
	if err != nil {
		p.projector.UpdateImage(img.ID, model.Update{Status: model.StatusError, Error: err.Error()})

		zlog.Logger.Err(err).
			Str("id", img.ID.String()).
			Str("filename", img.Filename).
			Msg("image processing failed")

		return err
	}

	handle := p.previews.Create(blob)
	applied := p.projector.UpdateImage(img.ID, model.Update{
		Status:         model.StatusComplete,
		Preview:        handle,
		Blob:           blob,
		CompressedSize: int64(len(blob.Data)),
		OutputType:     img.TargetFormat,
	})
	if !applied {
		// the image was removed while processing; nobody else owns the handle
		p.previews.Revoke(handle)
	}

	zlog.Logger.Info().
		Str("id", img.ID.String()).
		Str("filename", img.Filename).
		Str("output", string(img.TargetFormat)).
		Str("original_size", humanize.IBytes(uint64(img.OriginalSize))).
		Str("compressed_size", humanize.IBytes(uint64(len(blob.Data)))).
		Dur("took", time.Since(start)).
		Msg("image processed")

	return nil
}

func (p *Processor) convert(ctx context.Context, img model.Image) (*model.Blob, error) {
	data, err := img.File.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	source := model.DetectFormat(img.File.Name(), img.File.Type())

	pixels, err := p.dispatcher.Decode(ctx, string(source), data)
	if err != nil {
		return nil, err
	}
	if pixels == nil || pixels.Bounds().Dx() == 0 || pixels.Bounds().Dy() == 0 {
		return nil, ErrInvalidImageData
	}

	encoded, err := p.dispatcher.Encode(ctx, string(img.TargetFormat), pixels, img.Options)
	if err != nil {
		return nil, err
	}
	if len(encoded) == 0 {
		return nil, ErrEmptyEncode
	}

	return &model.Blob{Type: img.TargetFormat.MIMEType(), Data: encoded}, nil
}
