// Package queue admits enqueued images into processing in FIFO order while
// keeping at most a fixed number of them in flight.
//
// Admission runs whenever an image is enqueued and whenever a processing run
// finishes, so a single Enqueue call is enough to drain the whole queue.
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// DefaultLimit is the maximum number of images processed at the same time.
const DefaultLimit = 3

// processor converts one image and records its terminal status.
type processor interface {
	Process(ctx context.Context, img model.Image) error
}

// repository is the shared image collection.
type repository interface {
	GetImage(id uuid.UUID) (model.Image, error)
	UpdateImage(id uuid.UUID, u model.Update) bool
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Queued   int `json:"queued"`
	InFlight int `json:"in_flight"`
	Limit    int `json:"limit"`
}

// Manager owns the FIFO of pending image IDs and the set of IDs in flight.
//
// The mutex guards only the manager's own bookkeeping. Calls into the
// repository and the processor are made without holding it, so repository
// observers may call back into the manager.
type Manager struct {
	processor processor
	repo      repository
	limit     int
	ctx       context.Context

	mu       sync.Mutex
	queue    []uuid.UUID
	queued   map[uuid.UUID]struct{}
	inFlight map[uuid.UUID]struct{}
	requeue  map[uuid.UUID]struct{} // enqueued after their run already terminated
	closed   bool

	callers sync.WaitGroup // Enqueue calls in progress
	wg      conc.WaitGroup
}

// New creates a Manager. A limit outside 1..DefaultLimit falls back to DefaultLimit.
// Processing runs detached from ctx cancellation: once started, an image
// always reaches a terminal status.
func New(ctx context.Context, p processor, repo repository, limit int) *Manager {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	return &Manager{
		processor: p,
		repo:      repo,
		limit:     limit,
		ctx:       context.WithoutCancel(ctx),
		queued:    make(map[uuid.UUID]struct{}),
		inFlight:  make(map[uuid.UUID]struct{}),
		requeue:   make(map[uuid.UUID]struct{}),
	}
}

// Enqueue appends id to the queue unless it is already queued or being
// processed, then runs admission. The image status is left unchanged until
// admission.
//
// An image whose status is already terminal while its run is still winding
// down is queued again as soon as that run releases its slot.
func (m *Manager) Enqueue(id uuid.UUID) {
	img, err := m.repo.GetImage(id)
	terminal := err == nil && img.Status.Terminal()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		zlog.Logger.Warn().Str("id", id.String()).Msg("queue is closed, image not enqueued")
		return
	}

	m.callers.Add(1)
	defer m.callers.Done()

	_, queued := m.queued[id]
	_, running := m.inFlight[id]
	switch {
	case queued:
	case running:
		if terminal {
			m.requeue[id] = struct{}{}
		}
	default:
		m.push(id)
	}
	m.mu.Unlock()

	m.admit()
}

// push appends id to the queue. m.mu must be held.
func (m *Manager) push(id uuid.UUID) {
	m.queue = append(m.queue, id)
	m.queued[id] = struct{}{}
}

// admit moves images from the head of the queue into processing while
// capacity allows.
func (m *Manager) admit() {
	for {
		ids := m.reserve()
		if len(ids) == 0 {
			return
		}

		released := false
		for _, id := range ids {
			img, ok := m.prepare(id)
			if !ok {
				m.release(id)
				released = true
				continue
			}

			m.wg.Go(func() { m.run(img) })
		}

		// a skipped image left its slot free for the next one in line
		if !released {
			return
		}
	}
}

// reserve pops queued IDs and claims a slot for each while capacity allows.
func (m *Manager) reserve() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for len(m.inFlight) < m.limit && len(m.queue) > 0 {
		id := m.queue[0]
		m.queue = m.queue[1:]
		delete(m.queued, id)

		if _, ok := m.inFlight[id]; ok {
			continue
		}

		m.inFlight[id] = struct{}{}
		ids = append(ids, id)

		zlog.Logger.Debug().
			Str("id", id.String()).
			Int("in_flight", len(m.inFlight)).
			Int("queued", len(m.queue)).
			Msg("image admitted")
	}

	return ids
}

// prepare marks a reserved image as queued. It fails for images removed
// from the collection in the meantime.
func (m *Manager) prepare(id uuid.UUID) (model.Image, bool) {
	img, err := m.repo.GetImage(id)
	if err != nil {
		zlog.Logger.Warn().Str("id", id.String()).Msg("skipping removed image")
		return model.Image{}, false
	}

	if !m.repo.UpdateImage(id, model.Update{Status: model.StatusQueued}) {
		return model.Image{}, false
	}

	return img, true
}

// release frees the slot of id and queues it again if it was enqueued
// while its run was finishing.
func (m *Manager) release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.inFlight, id)

	if _, ok := m.requeue[id]; ok {
		delete(m.requeue, id)
		if _, queued := m.queued[id]; !queued {
			m.push(id)
		}
	}
}

// run processes img and frees its slot. Errors are recorded on the image by
// the processor; a panic is recorded here so the image still terminates.
func (m *Manager) run(img model.Image) {
	defer func() {
		m.release(img.ID)
		m.admit()
	}()

	var pc panics.Catcher
	pc.Try(func() { _ = m.processor.Process(m.ctx, img) })

	if r := pc.Recovered(); r != nil {
		zlog.Logger.Error().
			Err(r.AsError()).
			Str("id", img.ID.String()).
			Msg("image processing panicked")

		m.repo.UpdateImage(img.ID, model.Update{Status: model.StatusError, Error: "failed to process image"})
	}
}

// Wait blocks until the queue is empty and nothing is in flight. Callers
// must not enqueue concurrently with Wait; use Close for that.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close stops accepting new images and waits for the queue to drain.
// Images enqueued before Close still get processed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.callers.Wait()
	m.wg.Wait()
}

// Stats returns the current queue counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{Queued: len(m.queue), InFlight: len(m.inFlight), Limit: m.limit}
}
