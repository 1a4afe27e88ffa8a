package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"phrased/pkg/types"
)

type mockService struct {
	mu        sync.Mutex
	models    types.ModelsResponse
	status    types.StatusResponse
	download  types.DownloadStatus
	ready     bool
	startErr  error
	startedID string
	canceled  bool
	genErr    error
	genReq    types.GenerateRequest
	unloaded  bool
	updates   []types.DownloadStatus
}

func (m *mockService) Models() (types.ModelsResponse, error) { return m.models, nil }

func (m *mockService) StartDownload(ctx context.Context, id string) (types.DownloadStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return types.DownloadStatus{}, m.startErr
	}
	m.startedID = id
	return types.DownloadStatus{IsDownloading: true, StatusMessage: "Preparing download..."}, nil
}

func (m *mockService) CancelDownload() types.DownloadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = true
	return types.DownloadStatus{Canceled: true, StatusMessage: "Download cancelled"}
}

func (m *mockService) DownloadStatus() types.DownloadStatus { return m.download }

func (m *mockService) SubscribeDownload() (<-chan types.DownloadStatus, func()) {
	ch := make(chan types.DownloadStatus, len(m.updates))
	for _, u := range m.updates {
		ch <- u
	}
	return ch, func() {}
}

func (m *mockService) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	m.mu.Lock()
	m.genReq = req
	m.mu.Unlock()
	if m.genErr != nil {
		return types.GenerateResponse{}, m.genErr
	}
	return types.GenerateResponse{Output: "## Professional\nHi", DurationMS: 5}, nil
}

func (m *mockService) Unload(ctx context.Context) error {
	m.unloaded = true
	return nil
}

func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error payload: %v (%q)", err, w.Body.String())
	}
	return e
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: types.ModelsResponse{
		Catalog:   []types.ModelDescriptor{{ID: "a"}, {ID: "b"}},
		Installed: []types.InstalledModel{{ID: "a", Path: "/m/a"}},
	}}
	w := do(t, NewMux(svc), http.MethodGet, "/models", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Catalog) != 2 || len(body.Installed) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStartDownload(t *testing.T) {
	svc := &mockService{}
	w := do(t, NewMux(svc), http.MethodPost, "/models/gemma-2-2b/download", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.startedID != "gemma-2-2b" {
		t.Fatalf("started id = %q", svc.startedID)
	}
}

func TestCancelDownload(t *testing.T) {
	svc := &mockService{}
	w := do(t, NewMux(svc), http.MethodDelete, "/download", "")
	if w.Code != http.StatusOK || !svc.canceled {
		t.Fatalf("status=%d canceled=%v", w.Code, svc.canceled)
	}
	var st types.DownloadStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if !st.Canceled {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestDownloadStatusHandler(t *testing.T) {
	svc := &mockService{download: types.DownloadStatus{IsDownloading: true, Progress: 0.5}}
	w := do(t, NewMux(svc), http.MethodGet, "/download", "")
	var st types.DownloadStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.Progress != 0.5 {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
}

func TestDownloadEventsStreamsUntilIdle(t *testing.T) {
	svc := &mockService{updates: []types.DownloadStatus{
		{IsDownloading: true, Progress: 0.1},
		{IsDownloading: true, Progress: 0.6},
		{IsDownloading: false, Progress: 1, StatusMessage: "Download complete!"},
		{IsDownloading: true, Progress: 0},
	}}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/download/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%s", ct)
	}
	var got []types.DownloadStatus
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var st types.DownloadStatus
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &st); err != nil {
			t.Fatalf("event json: %v", err)
		}
		got = append(got, st)
	}
	if len(got) != 3 || got[2].StatusMessage != "Download complete!" {
		t.Fatalf("events: %+v", got)
	}
}

func TestGenerateHandler(t *testing.T) {
	svc := &mockService{}
	w := do(t, NewMux(svc), http.MethodPost, "/generate", `{"text":"Ciao","model_path":"/m"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !strings.Contains(resp.Output, "Professional") {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
	if svc.genReq.Text != "Ciao" || svc.genReq.ModelPath != "/m" {
		t.Fatalf("request not forwarded: %+v", svc.genReq)
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	h := NewMux(&mockService{})

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"text":"x"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content-type: %d", w.Code)
	}

	if w := do(t, h, http.MethodPost, "/generate", `{"text":`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid json: %d", w.Code)
	}
	w = do(t, h, http.MethodPost, "/generate", `{"text":"   "}`)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error != "text is required" {
		t.Fatalf("blank text: %d %s", w.Code, w.Body.String())
	}
}

func TestGenerateBodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := do(t, NewMux(&mockService{}), http.MethodPost, "/generate", `{"text":"`+strings.Repeat("a", 64)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestUnloadHandler(t *testing.T) {
	svc := &mockService{}
	w := do(t, NewMux(svc), http.MethodPost, "/unload", "")
	if w.Code != http.StatusNoContent || !svc.unloaded {
		t.Fatalf("status=%d unloaded=%v", w.Code, svc.unloaded)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{State: "loaded", Engine: "llama", LoadsTotal: 2}}
	w := do(t, NewMux(svc), http.MethodGet, "/status", "")
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "loaded" || body.LoadsTotal != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	h := NewMux(&mockService{ready: false})
	if w := do(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz=%d", w.Code)
	}
	if w := do(t, NewMux(&mockService{ready: true}), http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz ready=%d", w.Code)
	}
}

func TestCORSOptIn(t *testing.T) {
	SetCORSOptions(true, []string{"http://localhost:3000"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}
