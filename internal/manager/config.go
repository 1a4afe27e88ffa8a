package manager

import "time"

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultTemperature float32 = 0.7
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Engine runs the model; defaults to the in-process llama engine.
	Engine Engine
	// SystemPrompt replaces DefaultSystemPrompt when non-empty.
	SystemPrompt string
	Temperature  float32
	// Passed through to Engine.Load.
	ContextSize int
	Threads     int
	// Publisher receives lifecycle events; defaults to a no-op.
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Engine == nil {
		cfg.Engine = NewLlamaEngine()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	m := &Manager{
		cfg:       cfg,
		engine:    cfg.Engine,
		slot:      make(chan struct{}, 1),
		publisher: noopPublisher{},
		state:     StateUnloaded,
		startTime: time.Now(),
	}
	if cfg.Publisher != nil {
		m.publisher = cfg.Publisher
	}
	return m
}

// New constructs a Manager over engine with package defaults.
func New(engine Engine) *Manager {
	return NewWithConfig(ManagerConfig{Engine: engine})
}
