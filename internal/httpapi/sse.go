package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// downloadEvents godoc
// @Summary Stream acquisition state snapshots
// @Produce text/event-stream
// @Success 200
// @Router /download/events [get]
//
// Each snapshot is sent as an SSE "progress" event. The stream ends after
// the first snapshot of an idle (not downloading) state, so a client that
// connects mid-attempt receives updates until it finishes.
func (h *handlers) downloadEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	downloadStreams.Inc()
	defer downloadStreams.Dec()

	out := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{prefix: "download_events"})
	}

	ch, unsubscribe := h.svc.SubscribeDownload()
	defer unsubscribe()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-serverBaseCtx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(st)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(out, "event: progress\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
			if !st.IsDownloading {
				return
			}
		}
	}
}
