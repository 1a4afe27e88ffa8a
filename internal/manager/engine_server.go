package manager

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-shellwords"
)

// ServerOptions configures the llama-server subprocess engine.
type ServerOptions struct {
	Bin       string
	Host      string
	PortStart int
	PortEnd   int
	// ExtraArgs is a shell-style argument string appended to the command line.
	ExtraArgs string
	// ReadyTimeout bounds the wait for /v1/models; 0 waits until the load
	// context is done.
	ReadyTimeout time.Duration
}

const (
	defaultServerHost = "127.0.0.1"
	defaultServerBin  = "llama-server"
	stopGrace         = 2 * time.Second
)

// serverEngine spawns one llama-server per loaded model and talks to its
// OpenAI-compatible endpoints.
type serverEngine struct {
	opts       ServerOptions
	httpClient *http.Client
}

// NewServerEngine constructs the subprocess engine. No client timeout is set;
// every request carries a context.
func NewServerEngine(opts ServerOptions) Engine {
	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = defaultServerHost
	}
	if strings.TrimSpace(opts.Bin) == "" {
		opts.Bin = defaultServerBin
	}
	return &serverEngine{opts: opts, httpClient: &http.Client{Timeout: 0}}
}

func (e *serverEngine) Name() string { return EngineServer }

// args builds the llama-server command line.
func (e *serverEngine) args(modelFile string, port int, cfg EngineConfig) ([]string, error) {
	args := []string{"-m", modelFile, "--host", e.opts.Host, "--port", strconv.Itoa(port)}
	if cfg.ContextSize > 0 {
		args = append(args, "-c", strconv.Itoa(cfg.ContextSize))
	}
	if cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(cfg.Threads))
	}
	if s := strings.TrimSpace(e.opts.ExtraArgs); s != "" {
		extra, err := shellwords.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse llama_server_args: %w", err)
		}
		args = append(args, extra...)
	}
	return args, nil
}

func (e *serverEngine) Load(ctx context.Context, cfg EngineConfig, onProgress func(float64)) (Handle, error) {
	bin, err := exec.LookPath(e.opts.Bin)
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("llama-server not found: %s", e.opts.Bin))
	}
	modelFile, err := ResolveModelFile(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	var port int
	if e.opts.PortStart > 0 && e.opts.PortEnd >= e.opts.PortStart {
		port, err = pickPortInRange(e.opts.Host, e.opts.PortStart, e.opts.PortEnd)
	} else {
		port, err = pickFreePort(e.opts.Host)
	}
	if err != nil {
		return nil, err
	}
	args, err := e.args(modelFile, port, cfg)
	if err != nil {
		return nil, err
	}
	baseURL := fmt.Sprintf("http://%s", net.JoinHostPort(e.opts.Host, strconv.Itoa(port)))

	cmd := exec.Command(bin, args...)
	// stderr kept in memory; its tail is included on early exit
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start llama-server: %w", err)
	}
	logger.Info().Str("event", "spawn_start").Str("model", modelFile).Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server started")
	onProgress(0)

	h := &serverHandle{e: e, cmd: cmd, baseURL: baseURL, exited: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.exited)
	}()

	if err := h.waitReady(ctx, e.opts.ReadyTimeout); err != nil {
		h.stop()
		tail := stderr.String()
		if len(tail) > 4096 {
			tail = tail[len(tail)-4096:]
		}
		logger.Warn().Err(err).Str("event", "spawn_failed").Int("pid", cmd.Process.Pid).Msg("llama-server not ready")
		if tail != "" {
			return nil, fmt.Errorf("%w; stderr tail: %s", err, tail)
		}
		return nil, err
	}
	onProgress(1)
	logger.Info().Str("event", "spawn_ready").Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server ready")
	return h, nil
}

// serverHandle is one running llama-server process.
type serverHandle struct {
	e       *serverEngine
	cmd     *exec.Cmd
	baseURL string

	exited  chan struct{}
	waitErr error
	once    sync.Once
}

func (h *serverHandle) waitReady(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	for {
		select {
		case <-h.exited:
			if h.waitErr != nil {
				return fmt.Errorf("llama-server exited early: %v", h.waitErr)
			}
			return errors.New("llama-server exited before ready")
		default:
		}
		if h.healthy(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("llama-server not ready at %s: %w", h.baseURL, ctx.Err())
		case <-h.exited:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// healthy reports whether /v1/models answers 2xx.
func (h *serverHandle) healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := h.e.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// completionRequest is the payload for /v1/completions. NPredict -1 runs
// until end of sequence.
type completionRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	Stream      bool    `json:"stream"`
	NPredict    int     `json:"n_predict"`
}

type streamChoice struct {
	Text  string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type streamResponse struct {
	Choices []streamChoice `json:"choices"`
}

func (h *serverHandle) Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) bool) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt, Temperature: params.Temperature, Stream: true, NPredict: -1})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llama-server http error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out strings.Builder
	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if l := strings.TrimSpace(line); strings.HasPrefix(l, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(l, "data:"))
			if data == "[DONE]" {
				break
			}
			var msg streamResponse
			if jerr := json.Unmarshal([]byte(data), &msg); jerr == nil && len(msg.Choices) > 0 {
				frag := msg.Choices[0].Text
				if frag == "" {
					frag = msg.Choices[0].Delta.Content
				}
				if frag != "" {
					out.WriteString(frag)
					if !onToken(frag) {
						break
					}
				}
			} else if jerr != nil {
				logger.Debug().Str("event", "unknown_stream_line").Str("line", l).Msg("")
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
	}
	return out.String(), nil
}

// Close sends SIGTERM and kills the process if it has not exited after a
// short grace period.
func (h *serverHandle) Close() error {
	h.stop()
	return nil
}

func (h *serverHandle) stop() {
	h.once.Do(func() {
		if h.cmd.Process == nil {
			return
		}
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-h.exited:
		case <-time.After(stopGrace):
			_ = h.cmd.Process.Kill()
			<-h.exited
		}
		logger.Info().Str("event", "spawn_stop").Int("pid", h.cmd.Process.Pid).Msg("llama-server stopped")
	})
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
