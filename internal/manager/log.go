package manager

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger installs the logger used by the manager and its engines.
func SetLogger(l zerolog.Logger) { logger = l.With().Str("component", "manager").Logger() }
