// Package preview hands out locally addressable handles for encoded images.
//
// A handle stays valid until it is revoked. Whoever removes an image from
// the visible collection must revoke its handle.
package preview

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-compressor/internal/model"
)

const handlePrefix = "blob:"

var ErrPreviewNotFound = errors.New("preview not found")

// Registry holds blobs by handle.
type Registry struct {
	mu    sync.RWMutex
	blobs map[string]*model.Blob
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{blobs: make(map[string]*model.Blob)}
}

// Create registers b and returns its handle.
func (r *Registry) Create(b *model.Blob) string {
	handle := handlePrefix + uuid.NewString()

	r.mu.Lock()
	r.blobs[handle] = b
	r.mu.Unlock()

	return handle
}

// Get returns the blob registered under handle.
func (r *Registry) Get(handle string) (*model.Blob, error) {
	if !strings.HasPrefix(handle, handlePrefix) {
		handle = handlePrefix + handle
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blobs[handle]
	if !ok {
		return nil, ErrPreviewNotFound
	}

	return b, nil
}

// Revoke releases handle. Revoking an empty or unknown handle is a no-op.
func (r *Registry) Revoke(handle string) {
	if handle == "" {
		return
	}

	r.mu.Lock()
	delete(r.blobs, handle)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.blobs)
}
