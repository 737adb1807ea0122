package image

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/aliskhannn/image-compressor/internal/model"
)

type fakeService struct {
	subs []model.Submission
	err  error
}

func (s *fakeService) SubmitObject(_ context.Context, sub model.Submission) (model.Image, error) {
	if s.err != nil {
		return model.Image{}, s.err
	}
	s.subs = append(s.subs, sub)
	return model.Image{TargetFormat: model.NormalizeFormat(sub.TargetFormat)}, nil
}

func TestSubmittedHandler_Handle(t *testing.T) {
	svc := &fakeService{}
	h := NewSubmittedHandler(svc, "webp")

	msg := kafka.Message{Value: []byte(`{"object":"uploads/a.png","filename":"a.png","quality":40}`)}
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() err=%v", err)
	}

	if len(svc.subs) != 1 {
		t.Fatalf("submitted %d, want 1", len(svc.subs))
	}
	got := svc.subs[0]
	if got.Object != "uploads/a.png" || got.TargetFormat != "webp" || got.Quality != 40 {
		t.Fatalf("submission=%+v", got)
	}
}

func TestSubmittedHandler_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
		want  error
	}{
		{name: "malformed json", value: `{`, want: ErrInvalidSubmission},
		{name: "missing object", value: `{"filename":"a.png"}`, want: ErrInvalidSubmission},
		{name: "service failure", value: `{"object":"x"}`, err: model.ErrInvalidFormat, want: model.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSubmittedHandler(&fakeService{err: tt.err}, "webp")

			err := h.Handle(context.Background(), kafka.Message{Value: []byte(tt.value)})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Handle() err=%v, want %v", err, tt.want)
			}
		})
	}
}
