package image

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-compressor/internal/model"
	imagerepo "github.com/aliskhannn/image-compressor/internal/repository/image"
	"github.com/aliskhannn/image-compressor/internal/storage/preview"
)

type fakeQueue struct {
	ids []uuid.UUID
}

func (q *fakeQueue) Enqueue(id uuid.UUID) { q.ids = append(q.ids, id) }

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *fakeStorage) Save(_ context.Context, subdir, filename, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := subdir + "/" + filename
	s.objects[name] = data
	s.types[name] = contentType
	return name, nil
}

func (s *fakeStorage) Stat(_ context.Context, name string) (int64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	if !ok {
		return 0, "", errors.New("object not found")
	}
	return int64(len(data)), s.types[name], nil
}

func (s *fakeStorage) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[name], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.ProcessedEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev model.ProcessedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestService_SubmitCreatesPendingAndEnqueuesInOrder(t *testing.T) {
	repo := imagerepo.NewRepository()
	q := &fakeQueue{}
	svc := NewService(repo, q, preview.NewRegistry())

	files := []model.File{
		model.NewMemoryFile("a.png", "image/png", []byte{1}),
		model.NewMemoryFile("b.jpg", "image/jpeg", []byte{1, 2}),
	}
	images := svc.Submit(files, model.FormatWebP, 0)

	if len(q.ids) != 2 || q.ids[0] != images[0].ID || q.ids[1] != images[1].ID {
		t.Fatalf("enqueued %v, want ids of submitted images in order", q.ids)
	}

	got, err := repo.GetImage(images[1].ID)
	if err != nil {
		t.Fatalf("GetImage() err=%v", err)
	}
	if got.Status != model.StatusPending || got.OriginalSize != 2 || got.Options.Quality != 75 {
		t.Fatalf("stored image=%+v", got)
	}
}

func TestService_DeleteAndClearRevokePreviews(t *testing.T) {
	repo := imagerepo.NewRepository()
	previews := preview.NewRegistry()
	svc := NewService(repo, &fakeQueue{}, previews)

	images := svc.Submit([]model.File{
		model.NewMemoryFile("a.png", "image/png", []byte{1}),
		model.NewMemoryFile("b.png", "image/png", []byte{1}),
	}, model.FormatWebP, 80)

	for _, img := range images {
		blob := &model.Blob{Type: "image/webp", Data: []byte{9}}
		repo.UpdateImage(img.ID, model.Update{
			Status: model.StatusComplete, Preview: previews.Create(blob), Blob: blob,
			CompressedSize: 1, OutputType: model.FormatWebP,
		})
	}

	if err := svc.DeleteImage(images[0].ID); err != nil {
		t.Fatalf("DeleteImage() err=%v", err)
	}
	if previews.Len() != 1 {
		t.Fatalf("previews after delete=%d, want 1", previews.Len())
	}
	if err := svc.DeleteImage(images[0].ID); !errors.Is(err, imagerepo.ErrImageNotFound) {
		t.Fatalf("second DeleteImage() err=%v", err)
	}

	if n := svc.Clear(); n != 1 {
		t.Fatalf("Clear()=%d, want 1", n)
	}
	if previews.Len() != 0 {
		t.Fatalf("previews after clear=%d, want 0", previews.Len())
	}
}

func TestService_ResultRetryAndArchive(t *testing.T) {
	repo := imagerepo.NewRepository()
	q := &fakeQueue{}
	svc := NewService(repo, q, preview.NewRegistry())

	images := svc.Submit([]model.File{
		model.NewMemoryFile("ok.png", "image/png", []byte{1}),
		model.NewMemoryFile("bad.png", "image/png", []byte{1}),
	}, model.FormatAVIF, 0)
	ok, bad := images[0], images[1]

	if _, _, err := svc.Result(ok.ID); !errors.Is(err, ErrImageNotReady) {
		t.Fatalf("Result(pending) err=%v, want %v", err, ErrImageNotReady)
	}
	if err := svc.Retry(ok.ID); !errors.Is(err, ErrNotRetryable) {
		t.Fatalf("Retry(pending) err=%v, want %v", err, ErrNotRetryable)
	}

	repo.UpdateImage(ok.ID, model.Update{
		Status: model.StatusComplete, Blob: &model.Blob{Type: "image/avif", Data: []byte("avif")},
		CompressedSize: 4, OutputType: model.FormatAVIF,
	})
	repo.UpdateImage(bad.ID, model.Update{Status: model.StatusError, Error: "invalid image data"})

	blob, name, err := svc.Result(ok.ID)
	if err != nil || name != "ok.avif" || string(blob.Data) != "avif" {
		t.Fatalf("Result()=%v, %q, %v", blob, name, err)
	}

	q.ids = nil
	if err := svc.Retry(bad.ID); err != nil {
		t.Fatalf("Retry(failed) err=%v", err)
	}
	if len(q.ids) != 1 || q.ids[0] != bad.ID {
		t.Fatalf("Retry enqueued %v", q.ids)
	}

	buf := new(bytes.Buffer)
	n, err := svc.Archive(buf)
	if err != nil || n != 1 {
		t.Fatalf("Archive()=%d, %v, want 1 entry", n, err)
	}
}

func TestService_ExportsAndPublishesTerminalImages(t *testing.T) {
	repo := imagerepo.NewRepository()
	storage := newFakeStorage()
	pub := &fakePublisher{}
	q := &fakeQueue{}
	svc := NewService(repo, q, preview.NewRegistry(), WithStorage(storage), WithPublisher(pub))

	storage.objects["uploads/cat.png"] = []byte{1, 2, 3}
	storage.types["uploads/cat.png"] = "image/png"

	img, err := svc.SubmitObject(context.Background(), model.Submission{
		Object:       "uploads/cat.png",
		TargetFormat: "jpg",
		Quality:      60,
	})
	if err != nil {
		t.Fatalf("SubmitObject() err=%v", err)
	}
	if img.Filename != "cat.png" || img.OriginalSize != 3 || img.TargetFormat != model.FormatJPEG {
		t.Fatalf("submitted image=%+v", img)
	}

	data, err := img.File.Bytes(context.Background())
	if err != nil || len(data) != 3 {
		t.Fatalf("object source Bytes()=%v, %v", data, err)
	}

	repo.UpdateImage(img.ID, model.Update{Status: model.StatusProcessing})
	repo.UpdateImage(img.ID, model.Update{
		Status: model.StatusComplete, Blob: &model.Blob{Type: "image/jpeg", Data: []byte{7}},
		CompressedSize: 1, OutputType: model.FormatJPEG,
	})
	svc.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}

	ev := pub.events[0]
	want := "compressed/" + img.ID.String() + "-cat.jpeg"
	if ev.Status != model.StatusComplete || ev.Object != want {
		t.Fatalf("event=%+v, want object %q", ev, want)
	}
	if _, ok := storage.objects[want]; !ok {
		t.Fatalf("result was not exported")
	}

	if _, err := svc.SubmitObject(context.Background(), model.Submission{Object: "uploads/cat.png", TargetFormat: "gif"}); !errors.Is(err, model.ErrInvalidFormat) {
		t.Fatalf("SubmitObject(gif) err=%v, want %v", err, model.ErrInvalidFormat)
	}
}
