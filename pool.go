package photocal

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one renderer is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// RendererPool manages headless Chrome renderers for concurrent exports.
// Each renderer owns one browser process, so n renderers render n
// documents in parallel. Renderers are created lazily on first acquire to
// avoid starting Chrome before the first request.
type RendererPool struct {
	size        int
	renderers   []pdfRenderer
	sem         chan pdfRenderer
	mu          sync.Mutex
	created     int
	closed      bool
	newRenderer func() pdfRenderer
}

// NewRendererPool creates a pool with capacity for n renderers, each
// bounding a render by timeout when the request context has no deadline.
func NewRendererPool(n int, timeout time.Duration) *RendererPool {
	return newRendererPool(n, func() pdfRenderer { return newRodRenderer(timeout) })
}

func newRendererPool(n int, factory func() pdfRenderer) *RendererPool {
	if n < 1 {
		n = 1
	}

	return &RendererPool{
		size:        n,
		renderers:   make([]pdfRenderer, 0, n),
		sem:         make(chan pdfRenderer, n),
		newRenderer: factory,
	}
}

// Acquire gets a renderer from the pool, creating one if capacity allows.
// Blocks until a renderer is released or ctx is done.
func (p *RendererPool) Acquire(ctx context.Context) (pdfRenderer, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// Try to get an idle renderer (non-blocking)
	select {
	case r := <-p.sem:
		p.mu.Unlock()
		return r, nil
	default:
	}

	if p.created < p.size {
		p.created++
		r := p.newRenderer()
		p.renderers = append(p.renderers, r)
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	// All renderers created, wait for one to be released
	select {
	case r, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a renderer to the pool.
// The send happens under the lock so it cannot race with Close; it never
// blocks because the channel holds every renderer the pool created.
func (p *RendererPool) Release(r pdfRenderer) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- r
}

// Close releases all browser resources.
// Returns an aggregated error if multiple renderers fail to close.
func (p *RendererPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	renderers := p.renderers
	p.mu.Unlock()

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *RendererPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers sizing their own limits to match.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
