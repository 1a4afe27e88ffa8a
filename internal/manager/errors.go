package manager

import "errors"

var (
	// ErrPathNotConfigured is returned when no model path was given and
	// nothing is loaded.
	ErrPathNotConfigured = errors.New("Model path not configured. Please set the model path in Settings.")
	// ErrModelNotLoaded is returned when generation finds no handle after
	// the implicit load.
	ErrModelNotLoaded = errors.New("Model not loaded. Please check Settings and select a valid model path.")
	// ErrEmptyInput rejects blank generation requests.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("manager closed")
)

// LoadingError reports an engine load failure.
type LoadingError struct {
	Detail string
	Err    error
}

func (e *LoadingError) Error() string { return "Failed to load model: " + e.Detail }
func (e *LoadingError) Unwrap() error { return e.Err }

// GenerationError reports an engine generation failure.
type GenerationError struct {
	Detail string
	Err    error
}

func (e *GenerationError) Error() string { return "Generation failed: " + e.Detail }
func (e *GenerationError) Unwrap() error { return e.Err }

// IsLoadingError reports whether err is a LoadingError.
func IsLoadingError(err error) bool {
	var le *LoadingError
	return errors.As(err, &le)
}

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// dependencyUnavailableError signals a missing runtime (llama.cpp not built
// in, llama-server binary absent) so the HTTP layer can answer 503.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err, or an error it wraps,
// indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
