package types

// ModelDescriptor is a static catalog entry describing a downloadable model variant.
type ModelDescriptor struct {
	// Stable identifier; also the directory name under the storage root.
	// example: gemma-2-2b
	ID string `json:"id" yaml:"id" toml:"id" example:"gemma-2-2b"`
	// Human-friendly name.
	// example: Gemma 2 2B (Recommended)
	Name string `json:"name" yaml:"name" toml:"name" example:"Gemma 2 2B (Recommended)"`
	// Hub repository identifier.
	// example: mlx-community/gemma-2-2b-it-4bit
	RepoID string `json:"repo_id" yaml:"repo_id" toml:"repo_id" example:"mlx-community/gemma-2-2b-it-4bit"`
	// Display size, e.g. "~1.5 GB".
	// example: ~1.5 GB
	SizeDescription string `json:"size_description,omitempty" yaml:"size_description" toml:"size_description" example:"~1.5 GB"`
	// Approximate size in bytes, used when the hub manifest carries no sizes.
	// example: 1600000000
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes" toml:"size_bytes" example:"1600000000"`
	// RAM requirement label.
	// example: 8 GB
	RAMRequired string `json:"ram_required,omitempty" yaml:"ram_required" toml:"ram_required" example:"8 GB"`
	// Short description.
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// InstalledModel is a model directory found under the storage root.
type InstalledModel struct {
	// example: gemma-2-2b
	ID string `json:"id" example:"gemma-2-2b"`
	// Absolute path to the model directory.
	// example: /home/user/.config/phrased/Models/gemma-2-2b
	Path string `json:"path" example:"/home/user/.config/phrased/Models/gemma-2-2b"`
}
