package image

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-compressor/internal/model"
)

var ErrImageNotFound = errors.New("image not found")

// Observer is notified after an update has been applied to an image.
type Observer func(img model.Image)

// Repository is the in-memory collection of images shared by the pipeline
// and its observers.
//
// Entries are stored as pointers to immutable records. An update replaces the
// pointer of the affected entry only, so observers can detect changes by
// comparing pointers of a List snapshot.
type Repository struct {
	mu        sync.RWMutex
	images    []*model.Image
	index     map[uuid.UUID]int
	observers []Observer
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{index: make(map[uuid.UUID]int)}
}

// SaveImage appends a new image record.
func (r *Repository) SaveImage(img model.Image) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index[img.ID] = len(r.images)
	r.images = append(r.images, &img)

	return img.ID
}

// GetImage returns a copy of the image with the given ID.
func (r *Repository) GetImage(id uuid.UUID) (model.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return model.Image{}, ErrImageNotFound
	}

	return *r.images[i], nil
}

// List returns a snapshot of all entries in insertion order.
// The returned records must not be modified.
func (r *Repository) List() []*model.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Image, len(r.images))
	copy(out, r.images)

	return out
}

// UpdateImage applies u to the image with the given ID and reports whether
// it was found. A missing image is not an error: it may have been removed
// while it was being processed.
func (r *Repository) UpdateImage(id uuid.UUID, u model.Update) bool {
	r.mu.Lock()

	i, ok := r.index[id]
	if !ok {
		r.mu.Unlock()
		return false
	}

	updated := r.images[i].Apply(u)
	r.images[i] = &updated
	observers := r.observers

	r.mu.Unlock()

	for _, o := range observers {
		o(updated)
	}

	return true
}

// DeleteImage removes the image with the given ID and returns the removed record.
func (r *Repository) DeleteImage(id uuid.UUID) (model.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return model.Image{}, ErrImageNotFound
	}

	removed := *r.images[i]

	r.images = append(r.images[:i:i], r.images[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.images); j++ {
		r.index[r.images[j].ID] = j
	}

	return removed, nil
}

// Clear removes every image and returns the removed records.
func (r *Repository) Clear() []model.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]model.Image, 0, len(r.images))
	for _, img := range r.images {
		removed = append(removed, *img)
	}

	r.images = nil
	r.index = make(map[uuid.UUID]int)

	return removed
}

// Subscribe registers o to be called after every applied update.
func (r *Repository) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.observers = append(r.observers, o)
}

// Counts returns the number of images per status.
func (r *Repository) Counts() map[model.Status]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Status]int)
	for _, img := range r.images {
		counts[img.Status]++
	}

	return counts
}
