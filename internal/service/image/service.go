package image

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/archive"
	"github.com/aliskhannn/image-compressor/internal/model"
	imagerepo "github.com/aliskhannn/image-compressor/internal/repository/image"
	"github.com/aliskhannn/image-compressor/internal/storage/file"
)

var (
	ErrImageNotReady = errors.New("image is not processed yet")
	ErrNotRetryable  = errors.New("only failed images can be retried")
)

// repository is the shared image collection.
type repository interface {
	SaveImage(img model.Image) uuid.UUID
	GetImage(id uuid.UUID) (model.Image, error)
	List() []*model.Image
	DeleteImage(id uuid.UUID) (model.Image, error)
	Clear() []model.Image
	Counts() map[model.Status]int
	Subscribe(o imagerepo.Observer)
}

// queue admits images into processing.
type queue interface {
	Enqueue(id uuid.UUID)
}

// previews resolves and releases preview handles.
type previews interface {
	Get(handle string) (*model.Blob, error)
	Revoke(handle string)
}

// objectStorage reads submitted sources and stores compressed results.
type objectStorage interface {
	Save(ctx context.Context, subdir, filename, contentType string, data []byte) (string, error)
	Stat(ctx context.Context, objectName string) (int64, string, error)
	Load(ctx context.Context, objectName string) ([]byte, error)
}

// publisher announces processed images (e.g., to Kafka).
type publisher interface {
	Publish(ctx context.Context, ev model.ProcessedEvent) error
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithStorage enables object storage intake and result export.
func WithStorage(s objectStorage) Option {
	return func(svc *Service) { svc.storage = s }
}

// WithPublisher enables processed image events.
func WithPublisher(p publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// Service provides business logic for image operations.
// It creates image records, hands them to the processing queue and manages
// their removal, downloads and notifications.
type Service struct {
	repo      repository
	queue     queue
	previews  previews
	storage   objectStorage
	publisher publisher

	wg conc.WaitGroup
}

// NewService creates a new Service and subscribes it to image updates.
func NewService(repo repository, q queue, pv previews, opts ...Option) *Service {
	s := &Service{repo: repo, queue: q, previews: pv}
	for _, opt := range opts {
		opt(s)
	}

	if s.storage != nil || s.publisher != nil {
		repo.Subscribe(s.onUpdate)
	}

	return s
}

// Submit creates a pending image for every file and enqueues them in order.
func (s *Service) Submit(files []model.File, target model.Format, quality int) []model.Image {
	opts := model.OptionsFor(target, quality)

	images := make([]model.Image, 0, len(files))
	for _, f := range files {
		img := model.NewImage(f, target, opts)
		s.repo.SaveImage(img)
		images = append(images, img)
	}

	for _, img := range images {
		s.queue.Enqueue(img.ID)
	}

	return images
}

// SubmitObject creates and enqueues an image whose source lives in object storage.
func (s *Service) SubmitObject(ctx context.Context, sub model.Submission) (model.Image, error) {
	if s.storage == nil {
		return model.Image{}, errors.New("submit object: storage is disabled")
	}

	target, err := model.ParseFormat(sub.TargetFormat)
	if err != nil {
		return model.Image{}, fmt.Errorf("submit object: %w", err)
	}

	size, contentType, err := s.storage.Stat(ctx, sub.Object)
	if err != nil {
		return model.Image{}, fmt.Errorf("submit object: %w", err)
	}
	if sub.ContentType != "" {
		contentType = sub.ContentType
	}

	obj := file.NewObject(s.storage, sub.Object, sub.Filename, contentType, size)
	images := s.Submit([]model.File{obj}, target, sub.Quality)

	return images[0], nil
}

// List returns a snapshot of all images and the number of images per status.
func (s *Service) List() ([]*model.Image, map[model.Status]int) {
	return s.repo.List(), s.repo.Counts()
}

// GetImage returns the image with the given ID.
func (s *Service) GetImage(id uuid.UUID) (model.Image, error) {
	return s.repo.GetImage(id)
}

// Result returns the compressed blob of a complete image and its download name.
func (s *Service) Result(id uuid.UUID) (*model.Blob, string, error) {
	img, err := s.repo.GetImage(id)
	if err != nil {
		return nil, "", err
	}

	if img.Status != model.StatusComplete || img.Blob == nil {
		return nil, "", ErrImageNotReady
	}

	return img.Blob, img.ResultName(), nil
}

// Preview resolves a preview handle.
func (s *Service) Preview(handle string) (*model.Blob, error) {
	return s.previews.Get(handle)
}

// Retry enqueues a failed image again.
func (s *Service) Retry(id uuid.UUID) error {
	img, err := s.repo.GetImage(id)
	if err != nil {
		return err
	}

	if img.Status != model.StatusError {
		return ErrNotRetryable
	}

	s.queue.Enqueue(id)

	return nil
}

// DeleteImage removes an image and releases its preview. Processing of the
// image, if any, is not interrupted.
func (s *Service) DeleteImage(id uuid.UUID) error {
	img, err := s.repo.DeleteImage(id)
	if err != nil {
		return err
	}

	s.previews.Revoke(img.Preview)

	return nil
}

// Clear removes every image and releases their previews.
func (s *Service) Clear() int {
	removed := s.repo.Clear()
	for _, img := range removed {
		s.previews.Revoke(img.Preview)
	}

	return len(removed)
}

// Archive writes every complete image into a zip archive.
func (s *Service) Archive(w io.Writer) (int, error) {
	return archive.Write(w, s.repo.List())
}

// Close waits for pending exports and notifications.
func (s *Service) Close() {
	s.wg.Wait()
}

// onUpdate exports and announces images once they reach a terminal status.
// Work runs in the background so that processing slots are freed promptly.
func (s *Service) onUpdate(img model.Image) {
	if !img.Status.Terminal() {
		return
	}

	s.wg.Go(func() {
		ctx := context.Background()

		ev := model.ProcessedEvent{
			ID:             img.ID,
			Filename:       img.Filename,
			Status:         img.Status,
			OriginalSize:   img.OriginalSize,
			CompressedSize: img.CompressedSize,
			OutputType:     img.OutputType,
			Error:          img.Error,
		}

		if s.storage != nil && img.Status == model.StatusComplete && img.Blob != nil {
			name := img.ID.String() + "-" + img.ResultName()

			obj, err := s.storage.Save(ctx, "compressed", name, img.Blob.Type, img.Blob.Data)
			if err != nil {
				zlog.Logger.Err(err).Str("id", img.ID.String()).Msg("failed to export compressed image")
			} else {
				ev.Object = obj
			}
		}

		if s.publisher == nil {
			return
		}

		if err := s.publisher.Publish(ctx, ev); err != nil {
			zlog.Logger.Err(err).Str("id", img.ID.String()).Msg("failed to publish processed event")
		}
	})
}
