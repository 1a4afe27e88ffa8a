package acquire

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"phrased/internal/hub"
	"phrased/pkg/types"
)

// Manifest is the part of the hub client used by DirectStrategy.
type Manifest interface {
	FetchManifest(ctx context.Context, repo string) ([]hub.ManifestEntry, error)
	DownloadFile(ctx context.Context, repo, filename string) (io.ReadCloser, int64, error)
}

// DirectStrategy downloads the artifact files listed by the hub one after
// another, in manifest order.
type DirectStrategy struct {
	client Manifest
}

// NewDirectStrategy returns a direct transfer strategy over client.
func NewDirectStrategy(client Manifest) *DirectStrategy {
	return &DirectStrategy{client: client}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, desc types.ModelDescriptor, dest string, rep Reporter) error {
	rep.SetStatus(StatusFetching)
	entries, err := s.client.FetchManifest(ctx, desc.RepoID)
	if err != nil {
		return err
	}
	files := hub.FilterArtifacts(entries)
	total := hub.TotalSize(files)
	if total == 0 {
		total = desc.SizeBytes
	}
	rep.SetTotal(total)
	logger.Info().Str("event", "manifest").Str("repo", desc.RepoID).Int("files", len(files)).Int64("total_bytes", total).Msg("manifest fetched")

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	var done int64
	for _, f := range files {
		rep.SetFile(f.Name)
		base := done
		written, err := s.fetchFile(ctx, desc.RepoID, f, dest, func(n int64) { rep.Advance(base + n) })
		if err != nil {
			return err
		}
		if f.Size > 0 {
			done += f.Size
		} else {
			done += written
		}
		rep.Advance(done)
		logger.Debug().Str("event", "file_done").Str("file", f.Name).Int64("bytes", written).Msg("file downloaded")
	}
	return nil
}

// fetchFile streams one file into a temporary sibling and renames it into
// place. A failed transfer leaves the temporary file behind.
func (s *DirectStrategy) fetchFile(ctx context.Context, repo string, f hub.ManifestEntry, dest string, onWritten func(int64)) (int64, error) {
	target, err := localPath(dest, f.Name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	body, _, err := s.client.DownloadFile(ctx, repo, f.Name)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".partial-*")
	if err != nil {
		return 0, err
	}
	cr := &countingReader{r: body, onRead: onWritten}
	n, err := io.Copy(tmp, cr)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if cr.err != nil {
			return n, &hub.NetworkError{Detail: fmt.Sprintf("read %s: %v", f.Name, cr.err), Err: cr.err}
		}
		return n, fmt.Errorf("write %s: %w", f.Name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return n, err
	}
	return n, nil
}

// localPath maps a repository file name under dest, rejecting names that
// would escape it.
func localPath(dest, name string) (string, error) {
	p := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("invalid file name in manifest: %q", name)
	}
	return p, nil
}

// countingReader reports the running byte count after every read.
type countingReader struct {
	r      io.Reader
	n      int64
	err    error
	onRead func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		bytesTotal.Add(float64(n))
		if c.onRead != nil {
			c.onRead(c.n)
		}
	}
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}
