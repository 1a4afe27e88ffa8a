package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// buildBinary compiles pkg (relative to the module root) into a temp dir.
func buildBinary(t *testing.T, name, pkg string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process signals differ on windows")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, pkg)
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, string(out))
	}
	return binPath
}

// newFakeHub serves org/tiny with a config file, weights and a README.
func newFakeHub(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"config.json":       `{"model_type":"gemma2"}`,
		"model.safetensors": strings.Repeat("w", 64),
		"README.md":         "# tiny",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/org/tiny", func(w http.ResponseWriter, r *http.Request) {
		var sibs []map[string]any
		for _, name := range []string{"config.json", "model.safetensors", "README.md"} {
			sibs = append(sibs, map[string]any{"rfilename": name, "size": len(files[name])})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"siblings": sibs})
	})
	for name, body := range files {
		body := body
		mux.HandleFunc("/org/tiny/resolve/main/"+name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type serverProc struct {
	cmd       *exec.Cmd
	base      string
	modelsDir string
}

func startServer(t *testing.T, bin, llamaBin, hubURL string) *serverProc {
	t.Helper()
	dir := t.TempDir()
	modelsDir := filepath.Join(dir, "Models")
	port := findFreePort(t)
	cfg := fmt.Sprintf(`addr: "127.0.0.1:%d"
models_dir: %q
hub_url: %q
tool: none
engine: server
llama_server_bin: %q
log_format: json
catalog:
  - id: tiny
    name: Tiny
    repo_id: org/tiny
    size_bytes: 80
`, port, modelsDir, hubURL, llamaBin)
	cfgPath := filepath.Join(dir, "phrased.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command(bin, "serve", "--config", cfgPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
		}
	})
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return &serverProc{cmd: cmd, base: base, modelsDir: modelsDir}
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t, "phrased", "./cmd/phrased")
	llamaBin := buildBinary(t, "fake_llama_server", "./internal/manager/testdata/fake_llama_server.go")
	hub := newFakeHub(t)
	sp := startServer(t, bin, llamaBin, hub.URL)

	// /readyz: the engine binary exists
	resp, body := do(t, http.MethodGet, sp.base+"/readyz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz %d %s", resp.StatusCode, body)
	}

	// /models lists the configured entry and nothing installed yet
	resp, body = do(t, http.MethodGet, sp.base+"/models", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models %d %s", resp.StatusCode, body)
	}
	var models struct {
		Catalog   []struct{ ID string } `json:"catalog"`
		Installed []struct{ ID string } `json:"installed"`
	}
	if err := json.Unmarshal(body, &models); err != nil {
		t.Fatalf("/models json: %v body=%s", err, body)
	}
	found := false
	for _, m := range models.Catalog {
		found = found || m.ID == "tiny"
	}
	if !found || len(models.Installed) != 0 {
		t.Fatalf("/models = %s", body)
	}

	// generation without any model path is a client error
	resp, body = do(t, http.MethodPost, sp.base+"/generate", []byte(`{"text":"ciao"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("/generate without model %d %s", resp.StatusCode, body)
	}

	// unknown catalog id
	resp, _ = do(t, http.MethodPost, sp.base+"/models/missing/download", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download missing: %d", resp.StatusCode)
	}

	// download and poll until terminal
	resp, body = do(t, http.MethodPost, sp.base+"/models/tiny/download", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("download %d %s", resp.StatusCode, body)
	}
	var st struct {
		IsDownloading bool    `json:"is_downloading"`
		Progress      float64 `json:"progress"`
		ResultPath    string  `json:"result_path"`
		Error         string  `json:"error"`
	}
	deadline := time.Now().Add(10 * time.Second)
	for {
		_, body = do(t, http.MethodGet, sp.base+"/download", nil)
		if err := json.Unmarshal(body, &st); err != nil {
			t.Fatalf("/download json: %v", err)
		}
		if !st.IsDownloading {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("download did not finish: %s", body)
		}
		time.Sleep(25 * time.Millisecond)
	}
	if st.Error != "" || st.Progress != 1 || st.ResultPath == "" {
		t.Fatalf("final download state: %s", body)
	}
	if _, err := os.Stat(filepath.Join(st.ResultPath, "README.md")); !os.IsNotExist(err) {
		t.Fatalf("README.md should not be downloaded, stat err=%v", err)
	}

	// generate against a gguf file; the fake engine ignores its content
	gguf := filepath.Join(t.TempDir(), "alpha.gguf")
	if err := os.WriteFile(gguf, []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	payload, _ := json.Marshal(map[string]string{"text": "Ciao, come stai?", "model_path": gguf})
	resp, body = do(t, http.MethodPost, sp.base+"/generate", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/generate %d %s", resp.StatusCode, body)
	}
	if !bytes.Contains(body, []byte("Hello from the fake server")) {
		t.Fatalf("/generate body %s", body)
	}

	resp, body = do(t, http.MethodGet, sp.base+"/status", nil)
	var status struct {
		Loaded    bool   `json:"loaded"`
		ModelPath string `json:"model_path"`
	}
	if err := json.Unmarshal(body, &status); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("/status %d %s", resp.StatusCode, body)
	}
	if !status.Loaded || status.ModelPath != gguf {
		t.Fatalf("/status = %s", body)
	}

	resp, _ = do(t, http.MethodPost, sp.base+"/unload", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("/unload %d", resp.StatusCode)
	}
	_, body = do(t, http.MethodGet, sp.base+"/status", nil)
	if err := json.Unmarshal(body, &status); err != nil || status.Loaded {
		t.Fatalf("/status after unload = %s", body)
	}

	// metrics carry the acquisition counters
	_, body = do(t, http.MethodGet, sp.base+"/metrics", nil)
	if !bytes.Contains(body, []byte("phrased_acquire_attempts_total")) {
		t.Fatalf("metrics missing acquisition counters")
	}
}
