// Package hub talks to a model hub (Hugging Face compatible): it lists a
// repository's files and streams individual files.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultBaseURL   = "https://huggingface.co"
	defaultUserAgent = "phrased"
	defaultRevision  = "main"
)

// Client reads repository metadata and file contents from the hub. It is
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	token      string
	baseURL    string
}

// ClientOption customizes NewClient.
type ClientOption func(*Client)

// WithToken sends token as a bearer credential, needed for gated repos.
// An empty token leaves requests anonymous.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.token = token
		}
	}
}

// WithTransport routes requests through rt; nil keeps http.DefaultTransport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		if rt != nil {
			c.httpClient.Transport = rt
		}
	}
}

// WithUserAgent overrides the "phrased" User-Agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBaseURL points the client at a mirror or a test server instead of
// huggingface.co. A trailing slash is ignored.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// NewClient returns a client for huggingface.co unless overridden. Requests
// carry no client-side timeout: acquisitions are bounded by the caller's
// context so that multi-gigabyte transfers are never cut short.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the hub base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// modelInfo is the subset of GET /api/models/<repo> we consume.
type modelInfo struct {
	Siblings *[]sibling `json:"siblings"`
}

type sibling struct {
	RFilename string `json:"rfilename"`
	Size      *int64 `json:"size"`
}

// FetchManifest returns every file listed in the repository metadata,
// in the order the hub reports them. Missing sizes are reported as 0.
func (c *Client) FetchManifest(ctx context.Context, repo string) ([]ManifestEntry, error) {
	endpoint := fmt.Sprintf("%s/api/models/%s", c.baseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp, repo); err != nil {
		return nil, err
	}

	var info modelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	if info.Siblings == nil {
		return nil, fmt.Errorf("%w: no siblings in response", ErrManifestParse)
	}
	entries := make([]ManifestEntry, 0, len(*info.Siblings))
	for _, s := range *info.Siblings {
		if s.RFilename == "" {
			continue
		}
		var size int64
		if s.Size != nil {
			size = *s.Size
		}
		entries = append(entries, ManifestEntry{Name: s.RFilename, Size: size})
	}
	return entries, nil
}

// DownloadFile streams a file from the repository's main revision.
// Returns the reader, content length (-1 if unknown), and any error.
func (c *Client) DownloadFile(ctx context.Context, repo, filename string) (io.ReadCloser, int64, error) {
	endpoint := fmt.Sprintf("%s/%s/resolve/%s/%s", c.baseURL, repo, defaultRevision, escapePath(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &NetworkError{Detail: err.Error(), Err: err}
	}
	if err := c.checkResponse(resp, repo); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// escapePath escapes each segment of a repository-relative file name.
func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// setHeaders sets common headers for hub requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkResponse maps non-200 responses to typed errors.
func (c *Client) checkResponse(resp *http.Response, repo string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Repo: repo, StatusCode: resp.StatusCode}
	case http.StatusNotFound:
		return &NotFoundError{Repo: repo}
	case http.StatusTooManyRequests:
		return &RateLimitError{Repo: repo}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &NetworkError{Detail: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body))}
	}
}
