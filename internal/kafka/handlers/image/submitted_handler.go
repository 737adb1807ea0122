package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/model"
)

var ErrInvalidSubmission = errors.New("invalid submission")

// service accepts images stored in object storage.
type service interface {
	SubmitObject(ctx context.Context, sub model.Submission) (model.Image, error)
}

// SubmittedHandler handles Kafka messages announcing uploaded images.
type SubmittedHandler struct {
	service       service
	defaultFormat string
}

// NewSubmittedHandler creates a handler. defaultFormat is used for
// submissions that do not name a target format.
func NewSubmittedHandler(s service, defaultFormat string) *SubmittedHandler {
	return &SubmittedHandler{service: s, defaultFormat: defaultFormat}
}

// Handle decodes a submission and enqueues its image.
func (h *SubmittedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var sub model.Submission
	if err := json.Unmarshal(msg.Value, &sub); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	if sub.Object == "" {
		return fmt.Errorf("%w: object is required", ErrInvalidSubmission)
	}
	if sub.TargetFormat == "" {
		sub.TargetFormat = h.defaultFormat
	}

	img, err := h.service.SubmitObject(ctx, sub)
	if err != nil {
		return fmt.Errorf("submit object: %w", err)
	}

	zlog.Logger.Info().
		Str("id", img.ID.String()).
		Str("object", sub.Object).
		Str("target", string(img.TargetFormat)).
		Msg("submission accepted")

	return nil
}
