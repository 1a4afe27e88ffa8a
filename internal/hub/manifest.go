package hub

import "strings"

// ManifestEntry is one file of a repository listing.
type ManifestEntry struct {
	Name string
	Size int64
}

// IsArtifact reports whether name is needed to run the model:
// configuration/tokenizer JSON, safetensors weights, or a sentencepiece
// tokenizer.
func IsArtifact(name string) bool {
	return strings.HasSuffix(name, ".json") ||
		strings.HasSuffix(name, ".safetensors") ||
		name == "tokenizer.model"
}

// FilterArtifacts keeps artifact files, preserving manifest order.
func FilterArtifacts(entries []ManifestEntry) []ManifestEntry {
	var out []ManifestEntry
	for _, e := range entries {
		if IsArtifact(e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// TotalSize sums the reported sizes.
func TotalSize(entries []ManifestEntry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Size
	}
	return n
}
