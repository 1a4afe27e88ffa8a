package acquire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"phrased/internal/hub"
	"phrased/pkg/types"
)

// fakeFile is a repository file served by newFakeHub.
type fakeFile struct {
	name string
	body string
	// noSize leaves the size out of the manifest entry
	noSize bool
	// block serves half the body and then waits for the client to go away
	block bool
}

type fakeHub struct {
	*httptest.Server
	mu        sync.Mutex
	requests  int
	firstByte chan struct{}
	once      sync.Once
}

func newFakeHub(t *testing.T, repo string, files []fakeFile) *fakeHub {
	t.Helper()
	fh := &fakeHub{firstByte: make(chan struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/"+repo, func(w http.ResponseWriter, r *http.Request) {
		fh.count()
		var sibs []map[string]any
		for _, f := range files {
			sib := map[string]any{"rfilename": f.name}
			if !f.noSize {
				sib["size"] = len(f.body)
			}
			sibs = append(sibs, sib)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"siblings": sibs})
	})
	for _, f := range files {
		f := f
		mux.HandleFunc("/"+repo+"/resolve/main/"+f.name, func(w http.ResponseWriter, r *http.Request) {
			fh.count()
			if !f.block {
				_, _ = w.Write([]byte(f.body))
				return
			}
			half := len(f.body) / 2
			w.Header().Set("Content-Length", strconv.Itoa(len(f.body)))
			_, _ = w.Write([]byte(f.body[:half]))
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
			fh.once.Do(func() { close(fh.firstByte) })
			<-r.Context().Done()
		})
	}
	fh.Server = httptest.NewServer(mux)
	t.Cleanup(fh.Close)
	return fh
}

func (f *fakeHub) count() {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()
}

func (f *fakeHub) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func directFor(fh *fakeHub) *DirectStrategy {
	return NewDirectStrategy(hub.NewClient(hub.WithBaseURL(fh.URL)))
}

// stubStrategy returns err, counting invocations.
type stubStrategy struct {
	name  string
	err   error
	calls int
	fetch func(ctx context.Context, rep Reporter) error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, _ types.ModelDescriptor, _ string, rep Reporter) error {
	s.calls++
	if s.fetch != nil {
		return s.fetch(ctx, rep)
	}
	return s.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
