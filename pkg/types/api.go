package types

// ModelsResponse is returned by GET /models.
type ModelsResponse struct {
	// Catalog of downloadable models.
	Catalog []ModelDescriptor `json:"catalog"`
	// Models already present under the storage root.
	Installed []InstalledModel `json:"installed"`
}

// DownloadStatus mirrors the acquisition state observed by clients.
type DownloadStatus struct {
	// True while an acquisition attempt is active.
	IsDownloading bool `json:"is_downloading" example:"true"`
	// Fraction in [0,1].
	// example: 0.42
	Progress float64 `json:"progress" example:"0.42"`
	// example: model.safetensors
	CurrentFileName string `json:"current_file_name,omitempty" example:"model.safetensors"`
	// example: 672000000
	BytesDownloaded int64 `json:"bytes_downloaded" example:"672000000"`
	// example: 1600000000
	TotalBytes int64 `json:"total_bytes" example:"1600000000"`
	// Human-readable "<downloaded> / <total>".
	// example: 672MB / 1.6GB
	FormattedProgress string `json:"formatted_progress" example:"672MB / 1.6GB"`
	// example: Downloading model.safetensors...
	StatusMessage string `json:"status_message" example:"Downloading model.safetensors..."`
	// Terminal error message of the last attempt, if any.
	Error string `json:"error,omitempty"`
	// Local model directory once the attempt completed.
	ResultPath string `json:"result_path,omitempty"`
	// Strategy used by the attempt (tool or direct).
	// example: direct
	Strategy string `json:"strategy,omitempty" example:"direct"`
	// True when the last attempt was canceled.
	Canceled bool `json:"canceled,omitempty"`
	// Monotonic attempt counter.
	// example: 3
	Attempt uint64 `json:"attempt" example:"3"`
}

// DownloadRequest starts an acquisition for a catalog model.
type DownloadRequest struct {
	// Catalog model id.
	// example: gemma-2-2b
	ModelID string `json:"model_id" example:"gemma-2-2b"`
}

// GenerateRequest is the payload of POST /generate.
type GenerateRequest struct {
	// Raw user text.
	// example: Ciao, come stai?
	Text string `json:"text" example:"Ciao, come stai?"`
	// Model directory or weights file. Empty uses the server default.
	// example: /home/user/.config/phrased/Models/gemma-2-2b
	ModelPath string `json:"model_path,omitempty" example:"/home/user/.config/phrased/Models/gemma-2-2b"`
}

// GenerateResponse carries generated text.
type GenerateResponse struct {
	Output string `json:"output"`
	// Wall time in milliseconds.
	// example: 2310
	DurationMS int64 `json:"duration_ms" example:"2310"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Inference manager state (unloaded, loading, loaded).
	// example: loaded
	State string `json:"state" example:"loaded"`
	// Whether a model handle is held.
	Loaded bool `json:"loaded" example:"true"`
	// Path of the loaded model, if any.
	ModelPath string `json:"model_path,omitempty"`
	// Configured engine (llama or server).
	// example: llama
	Engine string `json:"engine" example:"llama"`
	// Last load/generation error observed by the manager.
	LastError string `json:"last_error,omitempty"`
	// Total successful model loads.
	// example: 2
	LoadsTotal uint64 `json:"loads_total" example:"2"`
	// Total completed generations.
	// example: 17
	GenerationsTotal uint64 `json:"generations_total" example:"17"`
	// Current acquisition state.
	Download DownloadStatus `json:"download"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}
