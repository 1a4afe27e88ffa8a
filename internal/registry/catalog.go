package registry

import (
	"strings"

	"phrased/pkg/types"
)

// builtin is the recommended model list. Sizes are estimates used for
// progress when the hub manifest does not report file sizes.
var builtin = []types.ModelDescriptor{
	{
		ID:              "gemma-2-2b",
		Name:            "Gemma 2 2B (Recommended)",
		RepoID:          "mlx-community/gemma-2-2b-it-4bit",
		SizeDescription: "~1.5 GB",
		SizeBytes:       1_600_000_000,
		RAMRequired:     "8 GB",
		Description:     "Fast and lightweight. Great for quick translations.",
	},
	{
		ID:              "llama-3.2-3b",
		Name:            "Llama 3.2 3B",
		RepoID:          "mlx-community/Llama-3.2-3B-Instruct-4bit",
		SizeDescription: "~2 GB",
		SizeBytes:       2_000_000_000,
		RAMRequired:     "8 GB",
		Description:     "Good balance of speed and quality.",
	},
	{
		ID:              "gemma-2-9b",
		Name:            "Gemma 2 9B (Best Quality)",
		RepoID:          "mlx-community/gemma-2-9b-it-4bit",
		SizeDescription: "~5 GB",
		SizeBytes:       5_000_000_000,
		RAMRequired:     "16 GB",
		Description:     "Higher quality translations. Requires more RAM.",
	},
}

// Catalog is an immutable list of model descriptors.
type Catalog struct {
	entries []types.ModelDescriptor
}

// NewCatalog returns the built-in catalog followed by extra entries.
// An extra entry whose id matches a built-in one replaces it.
func NewCatalog(extra ...types.ModelDescriptor) *Catalog {
	out := make([]types.ModelDescriptor, 0, len(builtin)+len(extra))
	out = append(out, builtin...)
	for _, d := range extra {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.RepoID) == "" {
			continue
		}
		replaced := false
		for i := range out {
			if out[i].ID == d.ID {
				out[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, d)
		}
	}
	return &Catalog{entries: out}
}

// List returns a copy of all descriptors in catalog order.
func (c *Catalog) List() []types.ModelDescriptor {
	out := make([]types.ModelDescriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds a descriptor by id.
func (c *Catalog) Lookup(id string) (types.ModelDescriptor, bool) {
	for _, d := range c.entries {
		if d.ID == id {
			return d, true
		}
	}
	return types.ModelDescriptor{}, false
}
