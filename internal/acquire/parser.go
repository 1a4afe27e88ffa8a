package acquire

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressHint is what a chunk of downloader output says about progress.
type ProgressHint struct {
	// Percent is set when HasPercent is true; range 0..100.
	Percent    float64
	HasPercent bool
	// File is the file currently being downloaded, if reported.
	File string
}

// OutputParser extracts coarse progress from an external tool's output.
type OutputParser interface {
	Parse(chunk string) ProgressHint
}

var (
	percentRe = regexp.MustCompile(`(\d+)%`)
	fileRe    = regexp.MustCompile(`Downloading ([^:]+):`)
)

// HFCLIParser understands huggingface-cli progress lines such as
// "Downloading model.safetensors: 45%|████      | 700M/1.5G".
type HFCLIParser struct{}

// Parse applies the percentage and file-name patterns independently; the
// first match of each wins.
func (HFCLIParser) Parse(chunk string) ProgressHint {
	var h ProgressHint
	if m := percentRe.FindStringSubmatch(chunk); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			if n > 100 {
				n = 100
			}
			h.Percent = n
			h.HasPercent = true
		}
	}
	if m := fileRe.FindStringSubmatch(chunk); m != nil {
		h.File = strings.TrimSpace(m[1])
	}
	return h
}
