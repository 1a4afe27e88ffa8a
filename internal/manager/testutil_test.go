package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// fakeEngine is an in-memory engine used by tests. It records calls and
// tracks how many operations overlap.
type fakeEngine struct {
	loadErr error
	genErr  error
	reply   string
	// loadGate, when set, blocks Load until closed
	loadGate chan struct{}
	// loadStarted receives once per Load call
	loadStarted chan struct{}

	loads   atomic.Int32
	closes  atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool

	mu      sync.Mutex
	paths   []string
	prompts []string
	params  []GenerateParams
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{reply: "ok", loadStarted: make(chan struct{}, 16)}
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) track() func() {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	return func() { f.active.Add(-1) }
}

func (f *fakeEngine) Load(ctx context.Context, cfg EngineConfig, onProgress func(float64)) (Handle, error) {
	defer f.track()()
	f.loads.Add(1)
	f.mu.Lock()
	f.paths = append(f.paths, cfg.ModelPath)
	f.mu.Unlock()
	select {
	case f.loadStarted <- struct{}{}:
	default:
	}
	if f.loadGate != nil {
		select {
		case <-f.loadGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	onProgress(1)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &fakeHandle{f: f, path: cfg.ModelPath}, nil
}

func (f *fakeEngine) loadedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type fakeHandle struct {
	f    *fakeEngine
	path string
}

func (h *fakeHandle) Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) bool) (string, error) {
	defer h.f.track()()
	h.f.mu.Lock()
	h.f.prompts = append(h.f.prompts, prompt)
	h.f.params = append(h.f.params, params)
	h.f.mu.Unlock()
	if h.f.genErr != nil {
		return "", h.f.genErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	onToken(h.f.reply)
	return h.f.reply, nil
}

func (h *fakeHandle) Close() error {
	defer h.f.track()()
	h.f.closes.Add(1)
	return nil
}

var errBoom = errors.New("boom")
