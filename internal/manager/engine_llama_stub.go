//go:build !llama

package manager

// No-CGO stand-in for the in-process engine, compiled when the 'llama'
// build tag is not set so default builds stay CGO-free.

import "context"

// llamaBuilt reports whether the binary links go-llama.cpp.
const llamaBuilt = false

type llamaEngine struct{}

// NewLlamaEngine returns an engine that refuses to load without the
// 'llama' build tag.
func NewLlamaEngine() Engine { return llamaEngine{} }

func (llamaEngine) Name() string { return EngineLlama }

func (llamaEngine) Load(ctx context.Context, cfg EngineConfig, onProgress func(float64)) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
