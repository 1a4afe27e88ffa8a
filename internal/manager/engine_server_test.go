package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// buildFakeServer compiles testdata/fake_llama_server.go into a temp dir.
func buildFakeServer(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("signal handling differs on windows")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}
	bin := filepath.Join(t.TempDir(), "fake_llama_server")
	cmd := exec.Command("go", "build", "-o", bin, "./testdata/fake_llama_server.go")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build fake server: %v\n%s", err, out)
	}
	return bin
}

func writeGGUF(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.gguf"), []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestServerEngineLoadGenerateClose(t *testing.T) {
	bin := buildFakeServer(t)
	m := New(NewServerEngine(ServerOptions{Bin: bin}))
	defer m.Close()

	out, err := m.Generate(context.Background(), "ciao", writeGGUF(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.TrimSpace(out) != "Hello from the fake server" {
		t.Fatalf("output = %q", out)
	}
	if err := m.Unload(context.Background()); err != nil {
		t.Fatalf("Unload: %v", err)
	}
}

func TestServerEngineEarlyExit(t *testing.T) {
	bin := buildFakeServer(t)
	t.Setenv("FAKE_LLAMA_FAIL", "1")
	m := New(NewServerEngine(ServerOptions{Bin: bin}))
	defer m.Close()

	err := m.Load(context.Background(), writeGGUF(t))
	if !IsLoadingError(err) || !strings.Contains(err.Error(), "failed to load model") {
		t.Fatalf("expected loading error with stderr tail, got %v", err)
	}
}

// slowReadyHandle points a handle at a server that answers 503 to the
// first `failures` readiness polls.
func slowReadyHandle(t *testing.T, failures int32) *serverHandle {
	t.Helper()
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)
	e := NewServerEngine(ServerOptions{}).(*serverEngine)
	return &serverHandle{e: e, baseURL: srv.URL, exited: make(chan struct{})}
}

func TestServerReadyWaitIsUnboundedByDefault(t *testing.T) {
	e := NewServerEngine(ServerOptions{}).(*serverEngine)
	if e.opts.ReadyTimeout != 0 {
		t.Fatalf("default ReadyTimeout = %v, want 0", e.opts.ReadyTimeout)
	}
	// 15 failed polls at 100ms spacing outlast any short default
	h := slowReadyHandle(t, 15)
	if err := h.waitReady(context.Background(), e.opts.ReadyTimeout); err != nil {
		t.Fatalf("waitReady: %v", err)
	}
}

func TestServerReadyWaitHonorsContextAndTimeout(t *testing.T) {
	h := slowReadyHandle(t, 1<<30)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := h.waitReady(ctx, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded from ctx, got %v", err)
	}
	if err := h.waitReady(context.Background(), 150*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded from ReadyTimeout, got %v", err)
	}
}
