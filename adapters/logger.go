package adapters

import (
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// retryLogger routes retryablehttp's leveled logging to zerolog
type retryLogger struct {
	logger zerolog.Logger
}

func newRetryLogger(component string) retryLogger {
	return retryLogger{logger: util.GetLogger(component)}
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

// Debug is demoted to trace; the client logs every attempt at debug
func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

var _ retryablehttp.LeveledLogger = retryLogger{}
