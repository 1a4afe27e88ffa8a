package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Engine loads models into memory. Implementations wrap an inference
// runtime; the Manager never calls an Engine concurrently.
type Engine interface {
	// Name identifies the engine in status and logs.
	Name() string
	// Load reads the model at cfg.ModelPath. onProgress receives values in
	// [0,1] when the runtime reports them.
	Load(ctx context.Context, cfg EngineConfig, onProgress func(float64)) (Handle, error)
}

// Handle is a loaded model, exclusively owned by the Manager.
type Handle interface {
	// Generate runs the prompt to the engine's own end-of-sequence and
	// returns the full output. onToken is called for each fragment; returning
	// false stops generation early.
	Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) bool) (string, error)
	// Close releases the model's memory.
	Close() error
}

// EngineConfig is passed to Engine.Load.
type EngineConfig struct {
	ModelPath   string
	ContextSize int
	Threads     int
}

// GenerateParams tunes sampling. There is deliberately no token cap.
type GenerateParams struct {
	Temperature float32
}

// Engine kinds accepted by NewEngine.
const (
	EngineLlama  = "llama"
	EngineServer = "server"
)

// NewEngine selects an engine by kind. The server options are ignored for
// the in-process engine.
func NewEngine(kind string, server ServerOptions) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", EngineLlama:
		return NewLlamaEngine(), nil
	case EngineServer:
		return NewServerEngine(server), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want %q or %q)", kind, EngineLlama, EngineServer)
	}
}

// ResolveModelFile returns path itself when it is a file, or the first
// *.gguf file (by name) when it is a directory.
func ResolveModelFile(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.gguf"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no .gguf model file in %s; set model_path to a gguf file", path)
	}
	sort.Strings(matches)
	return matches[0], nil
}
