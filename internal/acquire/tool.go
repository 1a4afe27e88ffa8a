package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"phrased/pkg/types"
)

// ToolStrategy downloads through an external CLI (huggingface-cli by
// default) and derives coarse progress from its output.
type ToolStrategy struct {
	Tool      string
	ExtraArgs []string
	Parser    OutputParser
	// LookPath resolves the executable; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// NewToolStrategy returns a strategy for tool using the huggingface-cli parser.
func NewToolStrategy(tool string, extraArgs []string) *ToolStrategy {
	return &ToolStrategy{Tool: tool, ExtraArgs: extraArgs, Parser: HFCLIParser{}, LookPath: exec.LookPath}
}

func (s *ToolStrategy) Name() string { return "tool" }

// Available probes for the executable and returns its resolved path.
func (s *ToolStrategy) Available() (string, bool) {
	look := s.LookPath
	if look == nil {
		look = exec.LookPath
	}
	if s.Tool == "" {
		return "", false
	}
	p, err := look(s.Tool)
	if err != nil {
		return "", false
	}
	return p, true
}

// Args returns the downloader arguments for repo and dest.
func (s *ToolStrategy) Args(repo, dest string) []string {
	args := []string{"download", repo, "--local-dir", dest, "--local-dir-use-symlinks", "False"}
	return append(args, s.ExtraArgs...)
}

func (s *ToolStrategy) Fetch(ctx context.Context, desc types.ModelDescriptor, dest string, rep Reporter) error {
	rep.SetStatus("Checking for " + s.Tool + "...")
	bin, ok := s.Available()
	if !ok {
		rep.SetStatus(s.Tool + " not found, using direct download...")
		return ErrToolUnavailable
	}

	cmd := exec.CommandContext(ctx, bin, s.Args(desc.RepoID, dest)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s stdout pipe: %w", s.Tool, err)
	}
	// combined output: both streams share the pipe's write end
	cmd.Stderr = cmd.Stdout
	// bounds the wait for inherited pipe handles after the process is gone
	cmd.WaitDelay = 2 * time.Second

	rep.SetStatus("Downloading with " + s.Tool + "...")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.Tool, err)
	}
	toolLaunchesTotal.Inc()
	logger.Info().Str("event", "tool_start").Str("tool", s.Tool).Str("repo", desc.RepoID).Int("pid", cmd.Process.Pid).Msg("downloader launched")

	s.consume(out, desc.SizeBytes, rep)

	werr := cmd.Wait()
	if werr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var ee *exec.ExitError
	if errors.As(werr, &ee) {
		return &SubprocessError{Tool: s.Tool, ExitCode: ee.ExitCode()}
	}
	return fmt.Errorf("%s: %w", s.Tool, werr)
}

// consume reads output until EOF and forwards parsed hints.
func (s *ToolStrategy) consume(r io.Reader, sizeBytes int64, rep Reporter) {
	parser := s.Parser
	if parser == nil {
		parser = HFCLIParser{}
	}
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h := parser.Parse(string(buf[:n]))
			if h.HasPercent {
				rep.Advance(int64(float64(sizeBytes) * h.Percent / 100))
			}
			if h.File != "" {
				rep.SetFile(h.File)
			}
		}
		if err != nil {
			return
		}
	}
}
