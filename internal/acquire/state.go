package acquire

import (
	units "github.com/docker/go-units"

	"phrased/pkg/types"
)

// Status messages shown to observers.
const (
	StatusPreparing = "Preparing download..."
	StatusCached    = "Model already downloaded!"
	StatusComplete  = "Download complete!"
	StatusCancelled = "Download cancelled"
	StatusFetching  = "Fetching file list from hub..."
)

// State is a snapshot of the current (or last) acquisition attempt.
type State struct {
	Downloading     bool
	Progress        float64
	CurrentFile     string
	BytesDownloaded int64
	TotalBytes      int64
	Status          string
	Error           string
	ResultPath      string
	Strategy        string
	Canceled        bool
	Attempt         uint64
}

// FormattedProgress renders "<downloaded> / <total>" in decimal units.
func (s State) FormattedProgress() string {
	return units.HumanSize(float64(s.BytesDownloaded)) + " / " + units.HumanSize(float64(s.TotalBytes))
}

// DownloadStatus converts the snapshot to its API payload.
func (s State) DownloadStatus() types.DownloadStatus {
	return types.DownloadStatus{
		IsDownloading:     s.Downloading,
		Progress:          s.Progress,
		CurrentFileName:   s.CurrentFile,
		BytesDownloaded:   s.BytesDownloaded,
		TotalBytes:        s.TotalBytes,
		FormattedProgress: s.FormattedProgress(),
		StatusMessage:     s.Status,
		Error:             s.Error,
		ResultPath:        s.ResultPath,
		Strategy:          s.Strategy,
		Canceled:          s.Canceled,
		Attempt:           s.Attempt,
	}
}

// fraction returns clamp(done/total, 0, 1).
func fraction(done, total int64) float64 {
	if total <= 0 || done <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// advance moves the byte counter forward; it never moves backwards.
// Only applies while an attempt is active.
func (s *State) advance(done int64) {
	if !s.Downloading {
		return
	}
	if done > s.BytesDownloaded {
		s.BytesDownloaded = done
	}
	if p := fraction(s.BytesDownloaded, s.TotalBytes); p > s.Progress {
		s.Progress = p
	}
}

func (s *State) setTotal(total int64) {
	if !s.Downloading {
		return
	}
	s.TotalBytes = total
	if p := fraction(s.BytesDownloaded, s.TotalBytes); p > s.Progress {
		s.Progress = p
	}
}

func (s *State) complete(dest string) {
	if !s.Downloading {
		return
	}
	if s.BytesDownloaded < s.TotalBytes {
		s.BytesDownloaded = s.TotalBytes
	}
	s.Progress = 1
	s.Status = StatusComplete
	s.ResultPath = dest
	s.Downloading = false
}

func (s *State) fail(msg string) {
	if !s.Downloading {
		return
	}
	s.Downloading = false
	s.Error = msg
	s.Status = msg
}

func (s *State) cancel() {
	if !s.Downloading {
		return
	}
	s.Downloading = false
	s.Canceled = true
	s.Status = StatusCancelled
}
