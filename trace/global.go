package trace

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorHandler receives errors that a processor cannot return to a caller:
// dropped spans, failed background flushes, and replies the batch worker
// could not deliver. Implementations must be safe for concurrent use
// and must never panic.
type ErrorHandler interface {
	Handle(err error)
}

// ErrorHandlerFunc adapts a function to an ErrorHandler.
type ErrorHandlerFunc func(err error)

// Handle calls f(err).
func (f ErrorHandlerFunc) Handle(err error) {
	f(err)
}

var (
	globalHandlerMu sync.RWMutex
	globalHandler   ErrorHandler = newDefaultErrorHandler()
)

// SetErrorHandler installs h as the process-wide error sink for spans and
// batches the processors cannot hand back to a caller. Passing nil restores
// the default handler.
func SetErrorHandler(h ErrorHandler) {
	globalHandlerMu.Lock()
	defer globalHandlerMu.Unlock()
	if h == nil {
		h = newDefaultErrorHandler()
	}
	globalHandler = h
}

// handleError reports err to the currently installed global error handler.
func handleError(err error) {
	if err == nil {
		return
	}
	globalHandlerMu.RLock()
	h := globalHandler
	globalHandlerMu.RUnlock()
	h.Handle(err)
}

// defaultErrorHandler logs to stderr through zap, matching the encoder
// configuration conventions used elsewhere in the wider pack's logging
// adapters rather than rolling a bespoke writer.
type defaultErrorHandler struct {
	logger *zap.Logger
}

func newDefaultErrorHandler() *defaultErrorHandler {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		zapcore.InfoLevel,
	)
	return &defaultErrorHandler{logger: zap.New(core)}
}

func (h *defaultErrorHandler) Handle(err error) {
	h.logger.Error("trace: processor error", zap.Error(err))
}
