// Package app wires the catalog, the acquisition orchestrator and the
// inference manager into the service behind the HTTP API and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"

	"phrased/internal/acquire"
	"phrased/internal/common/fsutil"
	"phrased/internal/config"
	"phrased/internal/httpapi"
	"phrased/internal/hub"
	"phrased/internal/manager"
	"phrased/internal/registry"
	"phrased/pkg/types"
)

// ToolDisabled as the tool name skips the external downloader.
const ToolDisabled = "none"

// App implements httpapi.Service.
type App struct {
	cfg     config.Config
	root    string
	catalog *registry.Catalog
	orch    *acquire.Orchestrator
	mgr     *manager.Manager
	events  *manager.MemoryPublisher
	start   time.Time

	wg sync.WaitGroup
}

var _ httpapi.Service = (*App)(nil)

// Option customizes App construction.
type Option func(*options)

type options struct {
	engine manager.Engine
	hubOpt []hub.ClientOption
}

// WithEngine replaces the engine selected by configuration.
func WithEngine(e manager.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithHubOptions adds options to the hub client.
func WithHubOptions(opts ...hub.ClientOption) Option {
	return func(o *options) { o.hubOpt = append(o.hubOpt, opts...) }
}

// New builds the application from cfg; unset fields take their defaults.
func New(cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.WithDefaults()
	root, err := fsutil.ResolveDir(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}

	client := hub.NewClient(append([]hub.ClientOption{
		hub.WithBaseURL(cfg.HubURL),
		hub.WithToken(cfg.HubToken),
	}, o.hubOpt...)...)

	var strategies []acquire.Strategy
	if !strings.EqualFold(cfg.Tool, ToolDisabled) {
		toolArgs, err := shellwords.Parse(cfg.ToolArgs)
		if err != nil {
			return nil, fmt.Errorf("parse tool_args: %w", err)
		}
		strategies = append(strategies, acquire.NewToolStrategy(cfg.Tool, toolArgs))
	}
	strategies = append(strategies, acquire.NewDirectStrategy(client))

	engine := o.engine
	if engine == nil {
		engine, err = manager.NewEngine(cfg.Engine, manager.ServerOptions{
			Bin:       cfg.LlamaServerBin,
			Host:      cfg.LlamaHost,
			PortStart: cfg.LlamaPortStart,
			PortEnd:   cfg.LlamaPortEnd,
			ExtraArgs: cfg.LlamaServerArgs,
		})
		if err != nil {
			return nil, err
		}
	}
	events := manager.NewRingPublisher(64)
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Engine:       engine,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  float32(cfg.Temperature),
		ContextSize:  cfg.LlamaCtx,
		Threads:      cfg.LlamaThreads,
		Publisher:    events,
	})

	return &App{
		cfg:     cfg,
		root:    root,
		catalog: registry.NewCatalog(cfg.Catalog...),
		orch:    acquire.New(root, strategies...),
		mgr:     mgr,
		events:  events,
		start:   time.Now(),
	}, nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// ModelsDir is the resolved storage root.
func (a *App) ModelsDir() string { return a.root }

// Catalog returns the model catalog.
func (a *App) Catalog() *registry.Catalog { return a.catalog }

// Orchestrator exposes the acquisition orchestrator.
func (a *App) Orchestrator() *acquire.Orchestrator { return a.orch }

// Manager exposes the inference manager.
func (a *App) Manager() *manager.Manager { return a.mgr }

// Events returns the most recent lifecycle events.
func (a *App) Events() []manager.Event { return a.events.Events() }

// unknownModelError maps to 404 in the HTTP layer.
type unknownModelError struct{ id string }

func (e unknownModelError) Error() string   { return fmt.Sprintf("unknown model %q", e.id) }
func (e unknownModelError) StatusCode() int { return http.StatusNotFound }

// IsUnknownModel reports whether err names a model missing from the catalog.
func IsUnknownModel(err error) bool {
	_, ok := err.(unknownModelError)
	return ok
}

func (a *App) Models() (types.ModelsResponse, error) {
	installed, err := a.orch.Installed()
	if err != nil {
		return types.ModelsResponse{}, err
	}
	return types.ModelsResponse{Catalog: a.catalog.List(), Installed: installed}, nil
}

// Acquire downloads the catalog model id and waits for the outcome.
func (a *App) Acquire(ctx context.Context, id string) (string, error) {
	desc, ok := a.catalog.Lookup(id)
	if !ok {
		return "", unknownModelError{id: id}
	}
	return a.orch.Acquire(ctx, desc)
}

// StartDownload runs Acquire in the background and returns the state of
// the new attempt once it is visible.
func (a *App) StartDownload(ctx context.Context, id string) (types.DownloadStatus, error) {
	desc, ok := a.catalog.Lookup(id)
	if !ok {
		return types.DownloadStatus{}, unknownModelError{id: id}
	}
	if a.orch.Active() {
		return a.orch.State().DownloadStatus(), acquire.ErrBusy
	}

	ch, unsubscribe := a.orch.Subscribe()
	defer unsubscribe()
	base := a.orch.State().Attempt

	done := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_, err := a.orch.Acquire(ctx, desc)
		done <- err
	}()

	for {
		select {
		case err := <-done:
			return a.orch.State().DownloadStatus(), err
		case s, ok := <-ch:
			if !ok {
				return a.orch.State().DownloadStatus(), nil
			}
			if s.Attempt > base {
				return s.DownloadStatus(), nil
			}
		}
	}
}

func (a *App) CancelDownload() types.DownloadStatus {
	a.orch.Cancel()
	return a.orch.State().DownloadStatus()
}

func (a *App) DownloadStatus() types.DownloadStatus {
	return a.orch.State().DownloadStatus()
}

// SubscribeDownload converts orchestrator snapshots to API payloads,
// keeping only the latest undelivered one.
func (a *App) SubscribeDownload() (<-chan types.DownloadStatus, func()) {
	src, unsubscribe := a.orch.Subscribe()
	out := make(chan types.DownloadStatus, 1)
	go func() {
		defer close(out)
		for s := range src {
			st := s.DownloadStatus()
			select {
			case out <- st:
			default:
				select {
				case <-out:
				default:
				}
				out <- st
			}
		}
	}()
	return out, unsubscribe
}

// ModelPath resolves the model used when a request names none: the
// configured model_path, else the installed default_model.
func (a *App) ModelPath(requested string) string {
	if p := strings.TrimSpace(requested); p != "" {
		return p
	}
	if a.cfg.ModelPath != "" {
		if p, err := fsutil.ExpandHome(a.cfg.ModelPath); err == nil {
			return p
		}
	}
	if a.cfg.DefaultModel != "" {
		dir := registry.ModelDir(a.root, a.cfg.DefaultModel)
		if registry.IsInstalled(dir) {
			return dir
		}
	}
	return ""
}

func (a *App) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	start := time.Now()
	out, err := a.mgr.Generate(ctx, req.Text, a.ModelPath(req.ModelPath))
	if err != nil {
		return types.GenerateResponse{}, err
	}
	return types.GenerateResponse{Output: out, DurationMS: time.Since(start).Milliseconds()}, nil
}

func (a *App) Unload(ctx context.Context) error { return a.mgr.Unload(ctx) }

func (a *App) Status() types.StatusResponse {
	s := a.mgr.Snapshot()
	return types.StatusResponse{
		State:            string(s.State),
		Loaded:           s.State == manager.StateLoaded,
		ModelPath:        s.ModelPath,
		Engine:           s.Engine,
		LastError:        s.LastError,
		LoadsTotal:       s.Loads,
		GenerationsTotal: s.Generations,
		Download:         a.orch.State().DownloadStatus(),
		UptimeSeconds:    int64(time.Since(a.start).Seconds()),
	}
}

// Ready reports whether the engine can load models.
func (a *App) Ready() bool { return a.mgr.SanityCheck().OK }

// Close cancels any acquisition, waits for background work and releases
// the model.
func (a *App) Close() error {
	a.orch.Cancel()
	a.wg.Wait()
	a.orch.Close()
	return a.mgr.Close()
}
