package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"phrased/internal/common/fsutil"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr        = ":8080"
	DefaultHubURL      = "https://huggingface.co"
	DefaultTool        = "huggingface-cli"
	DefaultEngine      = "llama"
	DefaultLlamaBin    = "llama-server"
	DefaultLlamaHost   = "127.0.0.1"
	DefaultTemperature = 0.7
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	appName            = "phrased"
)

// WithDefaults returns a copy of cfg with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		if d, err := fsutil.DataDir(appName); err == nil {
			c.ModelsDir = filepath.Join(d, "Models")
		} else {
			c.ModelsDir = "~/.phrased/Models"
		}
	}
	if c.HubURL == "" {
		c.HubURL = DefaultHubURL
	}
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.LlamaServerBin == "" {
		c.LlamaServerBin = DefaultLlamaBin
	}
	if c.LlamaHost == "" {
		c.LlamaHost = DefaultLlamaHost
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	return c
}

// Merge overlays non-zero fields of o onto c.
func (c Config) Merge(o Config) Config {
	setS := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setI := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setS(&c.Addr, o.Addr)
	setS(&c.ModelsDir, o.ModelsDir)
	setS(&c.HubURL, o.HubURL)
	setS(&c.HubToken, o.HubToken)
	setS(&c.Tool, o.Tool)
	setS(&c.ToolArgs, o.ToolArgs)
	setS(&c.Engine, o.Engine)
	setS(&c.LlamaServerBin, o.LlamaServerBin)
	setS(&c.LlamaHost, o.LlamaHost)
	setI(&c.LlamaPortStart, o.LlamaPortStart)
	setI(&c.LlamaPortEnd, o.LlamaPortEnd)
	setI(&c.LlamaCtx, o.LlamaCtx)
	setI(&c.LlamaThreads, o.LlamaThreads)
	setS(&c.LlamaServerArgs, o.LlamaServerArgs)
	setS(&c.ModelPath, o.ModelPath)
	setS(&c.DefaultModel, o.DefaultModel)
	setS(&c.SystemPrompt, o.SystemPrompt)
	setS(&c.LogLevel, o.LogLevel)
	setS(&c.LogFormat, o.LogFormat)
	if o.Temperature > 0 {
		c.Temperature = o.Temperature
	}
	if len(o.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), o.CORSOrigins...)
	}
	if len(o.Catalog) > 0 {
		c.Catalog = append(c.Catalog, o.Catalog...)
	}
	return c
}

// FromEnv reads PHRASED_* environment variables into a Config.
func FromEnv() Config {
	var c Config
	c.Addr = os.Getenv("PHRASED_ADDR")
	c.ModelsDir = os.Getenv("PHRASED_MODELS_DIR")
	c.HubURL = os.Getenv("PHRASED_HUB_URL")
	c.HubToken = os.Getenv("PHRASED_HUB_TOKEN")
	c.Tool = os.Getenv("PHRASED_TOOL")
	c.Engine = os.Getenv("PHRASED_ENGINE")
	c.ModelPath = os.Getenv("PHRASED_MODEL_PATH")
	c.LogLevel = os.Getenv("PHRASED_LOG_LEVEL")
	c.LogFormat = os.Getenv("PHRASED_LOG_FORMAT")
	if v := os.Getenv("PHRASED_LLAMA_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LlamaThreads = n
		}
	}
	if v := os.Getenv("PHRASED_CORS_ORIGINS"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.CORSOrigins = append(c.CORSOrigins, s)
			}
		}
	}
	return c
}
