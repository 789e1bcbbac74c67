package hotkey

import (
	"context"
	"sync"

	"mousemacros/internal/keys"
	"mousemacros/internal/metrics"
)

// holdSet runs at most one hold worker per key, each on its own goroutine so
// the dispatch goroutine never blocks while a key is held.
type holdSet struct {
	mu      sync.Mutex
	parent  context.Context
	running map[keys.Key]context.CancelFunc
	wg      sync.WaitGroup
}

func newHoldSet() *holdSet {
	return &holdSet{
		parent:  context.Background(),
		running: make(map[keys.Key]context.CancelFunc),
	}
}

// bind makes new workers children of ctx.
func (h *holdSet) bind(ctx context.Context) {
	h.mu.Lock()
	h.parent = ctx
	h.mu.Unlock()
}

// start launches work for k unless a worker for k is still running.
func (h *holdSet) start(k keys.Key, work func(ctx context.Context)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.running[k]; ok || h.parent.Err() != nil {
		return false
	}

	ctx, cancel := context.WithCancel(h.parent)
	h.running[k] = cancel
	h.wg.Add(1)
	metrics.HoldWorkers.Inc()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.running, k)
			h.mu.Unlock()
			cancel()
			metrics.HoldWorkers.Dec()
			h.wg.Done()
		}()
		work(ctx)
	}()
	return true
}

func (h *holdSet) keys() []keys.Key {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]keys.Key, 0, len(h.running))
	for k := range h.running {
		out = append(out, k)
	}
	return out
}

// wait blocks until every worker has returned.
func (h *holdSet) wait() {
	h.wg.Wait()
}
