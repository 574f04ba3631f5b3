package install

import "github.com/rs/zerolog"

// zlog is an optional structured logger, set by the daemon at startup.
// Mirrors httpapi's injected-logger idiom rather than depending on
// zerolog's global default logger.
var zlog *zerolog.Logger

// SetLogger installs the structured logger used by the install pipeline.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logEvent(level zerolog.Level, modelID, version, requestID string) *zerolog.Event {
	if zlog == nil {
		discard := zerolog.Nop()
		zlog = &discard
	}
	return zlog.WithLevel(level).Str("modelId", modelID).Str("version", version).Str("requestId", requestID)
}
