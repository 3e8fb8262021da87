package afip

import "github.com/rs/zerolog"

// retryLogger adapta zerolog a retryablehttp.LeveledLogger.
type retryLogger struct {
	zl zerolog.Logger
}

func newRetryLogger(zl zerolog.Logger) *retryLogger {
	return &retryLogger{zl: zl.With().Str("component", "wsfe-http").Logger()}
}

func (l *retryLogger) Error(msg string, kv ...interface{}) { l.zl.Error().Fields(kv).Msg(msg) }
func (l *retryLogger) Info(msg string, kv ...interface{})  { l.zl.Debug().Fields(kv).Msg(msg) }
func (l *retryLogger) Debug(msg string, kv ...interface{}) { l.zl.Trace().Fields(kv).Msg(msg) }
func (l *retryLogger) Warn(msg string, kv ...interface{})  { l.zl.Warn().Fields(kv).Msg(msg) }
