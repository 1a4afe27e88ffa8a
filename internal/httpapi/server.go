package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phrased/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Models() (types.ModelsResponse, error)
	// StartDownload begins acquiring modelID in the background, bound to ctx.
	StartDownload(ctx context.Context, modelID string) (types.DownloadStatus, error)
	CancelDownload() types.DownloadStatus
	DownloadStatus() types.DownloadStatus
	// SubscribeDownload streams snapshots; the func unsubscribes.
	SubscribeDownload() (<-chan types.DownloadStatus, func())
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error)
	Unload(ctx context.Context) error
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Get("/models", h.models)
	r.Post("/models/{id}/download", h.startDownload)
	r.Get("/download", h.downloadStatus)
	r.Delete("/download", h.cancelDownload)
	r.Get("/download/events", h.downloadEvents)
	r.Post("/generate", h.generate)
	r.Post("/unload", h.unload)
	r.Get("/status", h.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// models godoc
// @Summary List catalog and installed models
// @Produce json
// @Success 200 {object} types.ModelsResponse
// @Router /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Models()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// startDownload godoc
// @Summary Start acquiring a catalog model
// @Produce json
// @Param id path string true "catalog model id"
// @Success 202 {object} types.DownloadStatus
// @Failure 404 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /models/{id}/download [post]
func (h *handlers) startDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// the attempt outlives the request; shutdown cancels it
	st, err := h.svc.StartDownload(serverBaseCtx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

// downloadStatus godoc
// @Summary Current acquisition state
// @Produce json
// @Success 200 {object} types.DownloadStatus
// @Router /download [get]
func (h *handlers) downloadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DownloadStatus())
}

// cancelDownload godoc
// @Summary Cancel the running acquisition
// @Produce json
// @Success 200 {object} types.DownloadStatus
// @Router /download [delete]
func (h *handlers) cancelDownload(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CancelDownload())
}

// generate godoc
// @Summary Translate and rephrase text
// @Accept json
// @Produce json
// @Param request body types.GenerateRequest true "input text"
// @Success 200 {object} types.GenerateResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /generate [post]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	// shutdown cancels queued and running generations too
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	resp, err := h.svc.Generate(ctx, req)
	if err != nil {
		if r.Context().Err() != nil {
			// client went away
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// unload godoc
// @Summary Release the loaded model
// @Success 204
// @Router /unload [post]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unload(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// status godoc
// @Summary Service status
// @Produce json
// @Success 200 {object} types.StatusResponse
// @Router /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusConflict {
		incrementConflict("acquire_busy")
	}
	zlog.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Int("status", code).Str("path", r.URL.Path).Msg("request failed")
	writeJSONError(w, code, err.Error())
}
