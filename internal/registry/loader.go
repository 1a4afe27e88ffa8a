package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"phrased/internal/common/fsutil"
	"phrased/pkg/types"
)

// MarkerFile marks a model directory as completely downloaded.
const MarkerFile = "config.json"

// ModelDir returns the destination directory for a model id under root.
func ModelDir(root, id string) string {
	return filepath.Join(root, id)
}

// IsInstalled reports whether dir holds the completion marker.
func IsInstalled(dir string) bool {
	return fsutil.FileExists(filepath.Join(dir, MarkerFile))
}

// LoadDir scans root for model directories that contain the marker file.
// A missing root yields an empty list.
func LoadDir(root string) ([]types.InstalledModel, error) {
	base, err := fsutil.ExpandHome(root)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.InstalledModel
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(abs, e.Name())
		if !IsInstalled(p) {
			continue
		}
		models = append(models, types.InstalledModel{ID: e.Name(), Path: p})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}
