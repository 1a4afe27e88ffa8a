package hub

import (
	"errors"
	"fmt"
)

// ErrManifestParse reports a metadata document that could not be understood.
var ErrManifestParse = errors.New("failed to parse model info from hub")

// NetworkError wraps transport failures and unexpected HTTP statuses.
type NetworkError struct {
	Detail string
	Err    error
}

func (e *NetworkError) Error() string { return "network failure: " + e.Detail }

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError indicates authentication failure.
type AuthError struct {
	Repo       string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required for repository %q (status %d)", e.Repo, e.StatusCode)
}

// NotFoundError indicates the repository or file was not found.
type NotFoundError struct {
	Repo string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository %q not found", e.Repo)
}

// RateLimitError indicates rate limiting.
type RateLimitError struct {
	Repo string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited while accessing repository %q", e.Repo)
}

// IsNetworkError reports whether err came from talking to the hub,
// including auth, not-found and rate-limit responses.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	var ae *AuthError
	var nf *NotFoundError
	var rl *RateLimitError
	return errors.As(err, &ne) || errors.As(err, &ae) || errors.As(err, &nf) || errors.As(err, &rl)
}
