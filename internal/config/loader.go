package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"phrased/pkg/types"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	HubURL    string `json:"hub_url" yaml:"hub_url" toml:"hub_url"`
	HubToken  string `json:"hub_token" yaml:"hub_token" toml:"hub_token"`
	// External downloader executable and extra arguments (shell-quoted).
	Tool     string `json:"tool" yaml:"tool" toml:"tool"`
	ToolArgs string `json:"tool_args" yaml:"tool_args" toml:"tool_args"`
	// Inference engine: "llama" (in-process) or "server" (spawned llama-server).
	Engine          string   `json:"engine" yaml:"engine" toml:"engine"`
	LlamaServerBin  string   `json:"llama_server_bin" yaml:"llama_server_bin" toml:"llama_server_bin"`
	LlamaHost       string   `json:"llama_host" yaml:"llama_host" toml:"llama_host"`
	LlamaPortStart  int      `json:"llama_port_start" yaml:"llama_port_start" toml:"llama_port_start"`
	LlamaPortEnd    int      `json:"llama_port_end" yaml:"llama_port_end" toml:"llama_port_end"`
	LlamaCtx        int      `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads    int      `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	LlamaServerArgs string   `json:"llama_server_args" yaml:"llama_server_args" toml:"llama_server_args"`
	ModelPath       string   `json:"model_path" yaml:"model_path" toml:"model_path"`
	DefaultModel    string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	SystemPrompt    string   `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	Temperature     float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	LogLevel        string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat       string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	// Extra catalog entries; an id matching a built-in entry replaces it.
	Catalog []types.ModelDescriptor `json:"catalog" yaml:"catalog" toml:"catalog"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
