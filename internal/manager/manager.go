package manager

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of the model handle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State       State
	ModelPath   string
	Engine      string
	LastError   string
	Loads       uint64
	Generations uint64
	Uptime      time.Duration
}

// Manager serializes load, generate and unload against a single handle.
// Every public operation holds the slot (a channel of capacity 1) for its
// whole duration; blocked callers are admitted in arrival order.
type Manager struct {
	cfg       ManagerConfig
	engine    Engine
	publisher EventPublisher
	startTime time.Time

	slot chan struct{}
	// set while a public Load is queued or running
	loading atomic.Bool

	// owned by the slot holder; mu lets Status read without queueing
	mu          sync.RWMutex
	state       State
	handle      Handle
	path        string
	lastErr     string
	loads       uint64
	generations uint64
	closed      bool
}

func (m *Manager) enter(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		<-m.slot
		return ErrClosed
	}
	return nil
}

func (m *Manager) leave() { <-m.slot }

// SetPublisher installs an EventPublisher. Nil restores the no-op default.
func (m *Manager) SetPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

func (m *Manager) publish(name, path string, fields map[string]any) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	if fields == nil {
		fields = map[string]any{}
	}
	p.Publish(Event{Name: name, ModelPath: path, Fields: fields})
}

// Load loads the model at path. While another Load is queued or running it
// returns nil immediately, so concurrent callers cause one engine load.
// Loading the path that is already loaded is a no-op; a different path
// replaces the current handle.
func (m *Manager) Load(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrPathNotConfigured
	}
	if !m.loading.CompareAndSwap(false, true) {
		logger.Debug().Str("event", "load_skip").Str("path", path).Msg("load already in progress")
		return nil
	}
	defer m.loading.Store(false)
	if err := m.enter(ctx); err != nil {
		return err
	}
	defer m.leave()
	return m.loadLocked(ctx, path)
}

// loadLocked runs with the slot held.
func (m *Manager) loadLocked(ctx context.Context, path string) error {
	m.mu.RLock()
	cur, curPath := m.handle, m.path
	m.mu.RUnlock()
	if cur != nil && curPath == path {
		return nil
	}
	if cur != nil {
		m.closeHandleLocked("replace")
	}

	m.mu.Lock()
	m.state = StateLoading
	m.lastErr = ""
	m.mu.Unlock()
	m.publish(EventLoadStart, path, map[string]any{"engine": m.engine.Name()})
	logger.Info().Str("event", "load_start").Str("path", path).Str("engine", m.engine.Name()).Msg("loading model")

	start := time.Now()
	h, err := m.engine.Load(ctx, EngineConfig{
		ModelPath:   path,
		ContextSize: m.cfg.ContextSize,
		Threads:     m.cfg.Threads,
	}, func(p float64) {
		logger.Debug().Str("event", "load_progress").Str("path", path).Float64("progress", p).Msg("")
	})
	if err == nil && h == nil {
		err = ErrModelNotLoaded
	}
	if err != nil {
		lerr := &LoadingError{Detail: err.Error(), Err: err}
		m.mu.Lock()
		m.state = StateUnloaded
		m.lastErr = lerr.Error()
		m.mu.Unlock()
		engineLoadsTotal.WithLabelValues("error").Inc()
		m.publish(EventLoadError, path, map[string]any{"error": err.Error()})
		logger.Error().Err(err).Str("event", "load_error").Str("path", path).Msg("model load failed")
		return lerr
	}

	m.mu.Lock()
	m.handle = h
	m.path = path
	m.state = StateLoaded
	m.loads++
	m.mu.Unlock()
	engineLoadsTotal.WithLabelValues("ok").Inc()
	ms := time.Since(start).Milliseconds()
	m.publish(EventLoadReady, path, map[string]any{"duration_ms": ms})
	logger.Info().Str("event", "load_ready").Str("path", path).Int64("duration_ms", ms).Msg("model loaded")
	return nil
}

// Generate runs input through the loaded model, loading path first when
// nothing is loaded. The returned text is the model's complete output.
func (m *Manager) Generate(ctx context.Context, input, path string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", ErrEmptyInput
	}
	if err := m.enter(ctx); err != nil {
		return "", err
	}
	defer m.leave()

	m.mu.RLock()
	h := m.handle
	m.mu.RUnlock()
	if h == nil {
		path = strings.TrimSpace(path)
		if path == "" {
			return "", ErrPathNotConfigured
		}
		if err := m.loadLocked(ctx, path); err != nil {
			return "", err
		}
		m.mu.RLock()
		h = m.handle
		m.mu.RUnlock()
		if h == nil {
			return "", ErrModelNotLoaded
		}
	}

	m.mu.RLock()
	loadedPath := m.path
	m.mu.RUnlock()
	m.publish(EventGenerateStart, loadedPath, map[string]any{"input_len": len(text)})
	logger.Info().Str("event", "generate_start").Str("path", loadedPath).Int("input_len", len(text)).Msg("generating")

	start := time.Now()
	prompt := BuildPrompt(m.cfg.SystemPrompt, text)
	tokens := 0
	out, err := h.Generate(ctx, prompt, GenerateParams{Temperature: m.cfg.Temperature}, func(string) bool {
		tokens++
		return true
	})
	elapsed := time.Since(start)
	if err != nil {
		generateDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
		m.publish(EventGenerateError, loadedPath, map[string]any{"error": err.Error()})
		logger.Error().Err(err).Str("event", "generate_error").Str("path", loadedPath).Msg("generation failed")
		return "", &GenerationError{Detail: err.Error(), Err: err}
	}
	generateDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	m.mu.Lock()
	m.generations++
	m.mu.Unlock()
	m.publish(EventGenerateDone, loadedPath, map[string]any{"tokens": tokens, "duration_ms": elapsed.Milliseconds()})
	logger.Info().Str("event", "generate_done").Str("path", loadedPath).Int("tokens", tokens).Dur("elapsed", elapsed).Msg("generation complete")
	return out, nil
}

// Unload releases the handle once queued work ahead of it has finished.
func (m *Manager) Unload(ctx context.Context) error {
	if err := m.enter(ctx); err != nil {
		return err
	}
	defer m.leave()
	m.closeHandleLocked("unload")
	return nil
}

// closeHandleLocked runs with the slot held.
func (m *Manager) closeHandleLocked(reason string) {
	m.mu.Lock()
	h, path := m.handle, m.path
	m.handle = nil
	m.path = ""
	m.state = StateUnloaded
	m.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		logger.Warn().Err(err).Str("event", "unload").Str("path", path).Msg("close handle")
	}
	m.publish(EventUnload, path, map[string]any{"reason": reason})
	logger.Info().Str("event", "unload").Str("path", path).Str("reason", reason).Msg("model unloaded")
}

// IsLoaded reports whether a handle is present, after queued work.
func (m *Manager) IsLoaded() bool {
	if err := m.enter(context.Background()); err != nil {
		return false
	}
	defer m.leave()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle != nil
}

// Snapshot returns the current state without queueing behind other work.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:       m.state,
		ModelPath:   m.path,
		Engine:      m.engine.Name(),
		LastError:   m.lastErr,
		Loads:       m.loads,
		Generations: m.generations,
		Uptime:      time.Since(m.startTime),
	}
}

// Close waits for queued work, releases the handle and rejects further
// operations with ErrClosed.
func (m *Manager) Close() error {
	if err := m.enter(context.Background()); err != nil {
		if err == ErrClosed {
			return nil
		}
		return err
	}
	defer m.leave()
	m.closeHandleLocked("close")
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
