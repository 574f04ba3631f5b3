package manifest

import "github.com/rs/zerolog"

// zlog is an optional structured logger, set by the daemon at startup.
// Mirrors the install pipeline's injected-logger idiom.
var zlog *zerolog.Logger

// SetLogger installs the structured logger used by manifest reload events.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog == nil {
		discard := zerolog.Nop()
		zlog = &discard
	}
	return zlog
}
