package overlay

import (
	"sync"

	"github.com/meshlock/meshlock-go/internal/logging"
)

// DrawFunc produces one overlay frame per drawing pass.
type DrawFunc func() Frame

// Handle identifies a registered draw function.
type Handle uint64

// Registry keeps the set of active overlay draw functions, mirroring
// editor draw-handler registration. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	next  Handle
	funcs map[Handle]DrawFunc
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[Handle]DrawFunc)}
}

// Add registers a draw function and returns its handle.
func (r *Registry) Add(fn DrawFunc) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.funcs[r.next] = fn
	return r.next
}

// Remove unregisters a handle. Removing an unknown handle is a no-op.
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, h)
}

// Len returns the number of registered draw functions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.funcs)
}

// Frames invokes every registered draw function and collects the
// resulting frames. A draw function that panics is recovered and
// contributes an empty frame; drawing must never take the host down.
func (r *Registry) Frames() []Frame {
	r.mu.Lock()
	fns := make([]DrawFunc, 0, len(r.funcs))
	for _, fn := range r.funcs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	frames := make([]Frame, 0, len(fns))
	for _, fn := range fns {
		frames = append(frames, safeDraw(fn))
	}
	return frames
}

func safeDraw(fn DrawFunc) (f Frame) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("overlay draw function panicked", "panic", rec)
			f = Frame{}
		}
	}()
	return fn()
}
