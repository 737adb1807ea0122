package codec

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aliskhannn/image-compressor/internal/model"
)

type stubModule struct {
	format model.Format
}

func (m stubModule) Decode(context.Context, []byte) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (m stubModule) Encode(context.Context, image.Image, model.Options) ([]byte, error) {
	return []byte(m.format), nil
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want model.Format
	}{
		{"jpg", model.FormatJPEG},
		{"jpeg", model.FormatJPEG},
		{"png", model.FormatPNG},
		{"JPG", "JPG"},
		{"unsupported", "unsupported"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := model.NormalizeFormat(tt.in); got != tt.want {
			t.Errorf("NormalizeFormat(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCache_UnsupportedFormat(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(context.Context, model.Format) (Module, error) {
		calls.Add(1)
		return stubModule{}, nil
	})

	err := c.EnsureLoaded(context.Background(), "unsupported")
	if err == nil {
		t.Fatalf("EnsureLoaded() err=nil, want error")
	}
	if err.Error() != "Unsupported format: unsupported" {
		t.Fatalf("EnsureLoaded() err=%q, want %q", err.Error(), "Unsupported format: unsupported")
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("errors.Is(err, ErrUnsupportedFormat)=false")
	}
	if calls.Load() != 0 {
		t.Fatalf("loader calls=%d, want 0", calls.Load())
	}
}

func TestCache_LoadsOnceAndShortCircuits(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(_ context.Context, f model.Format) (Module, error) {
		calls.Add(1)
		return stubModule{format: f}, nil
	})

	ctx := context.Background()
	for _, f := range []string{"jpeg", "jpg", "jpeg"} {
		if err := c.EnsureLoaded(ctx, f); err != nil {
			t.Fatalf("EnsureLoaded(%q) err=%v", f, err)
		}
	}

	if calls.Load() != 1 {
		t.Fatalf("loader calls=%d, want 1", calls.Load())
	}
	if !c.Loaded("jpg") {
		t.Fatalf("Loaded(jpg)=false, want true")
	}
}

func TestCache_CoalescesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	c := NewCache(func(_ context.Context, f model.Format) (Module, error) {
		calls.Add(1)
		<-release
		return stubModule{format: f}, nil
	})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.EnsureLoaded(context.Background(), "webp")
		}()
	}

	// let every caller reach the in-flight load before it completes
	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("EnsureLoaded() err=%v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("loader calls=%d, want 1", calls.Load())
	}
}

func TestCache_RetriesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	cause := errors.New("module unavailable")

	c := NewCache(func(_ context.Context, f model.Format) (Module, error) {
		if calls.Add(1) == 1 {
			return nil, cause
		}
		return stubModule{format: f}, nil
	})

	err := c.EnsureLoaded(context.Background(), "avif")
	if err == nil {
		t.Fatalf("first EnsureLoaded() err=nil, want error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("first EnsureLoaded() err=%v, want wrapping %v", err, cause)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Format != "avif" {
		t.Fatalf("first EnsureLoaded() err=%v, want *LoadError for avif", err)
	}
	if c.Loaded("avif") {
		t.Fatalf("Loaded(avif)=true after failed load")
	}

	if err := c.EnsureLoaded(context.Background(), "avif"); err != nil {
		t.Fatalf("second EnsureLoaded() err=%v, want nil", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("loader calls=%d, want 2", calls.Load())
	}
}

func TestCache_Reset(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(func(_ context.Context, f model.Format) (Module, error) {
		calls.Add(1)
		return stubModule{format: f}, nil
	})

	_ = c.EnsureLoaded(context.Background(), "png")
	c.Reset()
	_ = c.EnsureLoaded(context.Background(), "png")

	if calls.Load() != 2 {
		t.Fatalf("loader calls=%d, want 2", calls.Load())
	}
}
