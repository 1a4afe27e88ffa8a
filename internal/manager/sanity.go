package manager

import "os/exec"

// SanityReport describes runtime checks for the configured engine.
type SanityReport struct {
	Engine     string `json:"engine"`
	LlamaBuilt bool   `json:"llama_built"`
	ServerBin  string `json:"server_bin,omitempty"`
	ServerPath string `json:"server_path,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// SanityCheck reports whether the engine can load models at all. It does
// not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{Engine: m.engine.Name(), LlamaBuilt: llamaBuilt}
	switch e := m.engine.(type) {
	case llamaEngine:
		r.OK = llamaBuilt
		if !r.OK {
			r.Error = "llama support not built (missing 'llama' build tag)"
		}
	case *serverEngine:
		r.ServerBin = e.opts.Bin
		p, err := exec.LookPath(e.opts.Bin)
		if err != nil {
			r.Error = "llama-server not found: " + err.Error()
			return r
		}
		r.ServerPath = p
		r.OK = true
	default:
		// engines supplied by callers are trusted
		r.OK = true
	}
	return r
}
