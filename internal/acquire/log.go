package acquire

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger installs the logger used by acquisition components.
func SetLogger(l zerolog.Logger) { logger = l.With().Str("component", "acquire").Logger() }
