package codec

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/singleflight"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// Loader loads the codec module for a normalized format.
type Loader func(ctx context.Context, format model.Format) (Module, error)

// Cache lazily loads codec modules and remembers successful loads.
//
// Concurrent requests for a format that is not loaded yet share a single
// call to the loader. A failed load is not remembered, so the next request
// starts over.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu     sync.RWMutex
	loaded map[model.Format]Module
}

// NewCache creates a Cache using loader, or DefaultLoader when loader is nil.
func NewCache(loader Loader) *Cache {
	if loader == nil {
		loader = DefaultLoader
	}

	return &Cache{
		loader: loader,
		loaded: make(map[model.Format]Module),
	}
}

// EnsureLoaded makes sure the module for format is loaded.
func (c *Cache) EnsureLoaded(ctx context.Context, format string) error {
	_, err := c.Module(ctx, format)
	return err
}

// Module returns the loaded module for format, loading it on first use.
func (c *Cache) Module(ctx context.Context, format string) (Module, error) {
	f := model.NormalizeFormat(format)
	if !f.Supported() {
		return nil, &UnsupportedFormatError{Format: format}
	}

	if m, ok := c.lookup(f); ok {
		return m, nil
	}

	v, err, shared := c.group.Do(string(f), func() (interface{}, error) {
		// A caller that lost the race may arrive after the winner stored the module.
		if m, ok := c.lookup(f); ok {
			return m, nil
		}

		start := time.Now()
		m, err := c.loader(context.WithoutCancel(ctx), f)
		if err != nil {
			zlog.Logger.Warn().
				Err(err).
				Str("format", string(f)).
				Msg("codec module load failed")

			return nil, &LoadError{Format: format, Err: err}
		}

		c.mu.Lock()
		c.loaded[f] = m
		c.mu.Unlock()

		zlog.Logger.Info().
			Str("format", string(f)).
			Dur("took", time.Since(start)).
			Msg("codec module loaded")

		return m, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		zlog.Logger.Debug().Str("format", string(f)).Msg("joined in-flight codec load")
	}

	return v.(Module), nil
}

// Loaded reports whether the module for format has been loaded.
func (c *Cache) Loaded(format string) bool {
	_, ok := c.lookup(model.NormalizeFormat(format))
	return ok
}

// Reset forgets every loaded module. Loads in flight are not affected.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.loaded = make(map[model.Format]Module)
	c.mu.Unlock()
}

func (c *Cache) lookup(f model.Format) (Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.loaded[f]
	return m, ok
}
