//go:build llama

package manager

import (
	"context"
	"errors"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt reports whether the binary links go-llama.cpp.
const llamaBuilt = true

type llamaEngine struct{}

// NewLlamaEngine returns the in-process go-llama.cpp engine.
func NewLlamaEngine() Engine { return llamaEngine{} }

func (llamaEngine) Name() string { return EngineLlama }

func (llamaEngine) Load(ctx context.Context, cfg EngineConfig, onProgress func(float64)) (Handle, error) {
	file, err := ResolveModelFile(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	onProgress(0)
	var opts []llama.ModelOption
	if cfg.ContextSize > 0 {
		opts = append(opts, llama.SetContext(cfg.ContextSize))
	}
	m, err := llama.New(file, opts...)
	if err != nil {
		return nil, err
	}
	onProgress(1)
	return &llamaHandle{model: m, threads: cfg.Threads}, nil
}

// llamaHandle owns the loaded model.
type llamaHandle struct {
	model   *llama.LLama
	threads int
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) bool) (string, error) {
	if h.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// bridge token streaming to onToken and respect cancellation
	h.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return onToken(tok)
	})
	// 0 tokens: run until the model's own end-of-sequence
	po := []llama.PredictOption{
		llama.SetTokens(0),
		llama.SetTemperature(params.Temperature),
	}
	if h.threads > 0 {
		po = append(po, llama.SetThreads(h.threads))
	}
	text, err := h.model.Predict(prompt, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return text, nil
}

func (h *llamaHandle) Close() error {
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}
