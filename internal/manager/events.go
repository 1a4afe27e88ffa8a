package manager

// Event names published by the Manager.
const (
	EventLoadStart     = "load_start"
	EventLoadReady     = "load_ready"
	EventLoadError     = "load_error"
	EventGenerateStart = "generate_start"
	EventGenerateDone  = "generate_done"
	EventGenerateError = "generate_error"
	EventUnload        = "unload"
)

// Event represents a manager lifecycle event: a name, the model path it
// concerns and optional fields.
type Event struct {
	Name      string
	ModelPath string
	Fields    map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
