package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/types"
)

type LoggingConfig struct {
	LogLevel string `json:"log_level"`
}

type Logging[C, O any] struct {
	next          types.Delegate[C, O]
	logger        types.Logger
	loggingConfig *LoggingConfig
	weight        int
}

func NewLogging[C, O any](next types.Delegate[C, O], logger types.Logger, item *types.HandlerItemConfig) *Logging[C, O] {
	loggingConfig := &LoggingConfig{
		LogLevel: "info",
	}
	decodeParams(item, loggingConfig, logger, "logging")

	return &Logging[C, O]{
		next:          next,
		logger:        logger,
		loggingConfig: loggingConfig,
		weight:        weightOf(item, 20),
	}
}

func (l *Logging[C, O]) Name() string { return "logging" }
func (l *Logging[C, O]) Weight() int  { return l.weight }

func (l *Logging[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		start := time.Now()

		var fields []zap.Field
		if pass := passOf(cx); pass != "" {
			fields = append(fields, zap.String("pass", pass))
		}

		l.logWithLevel("Chain started", fields...)

		out := l.next(cx).Await(ctx)

		fields = append(fields, zap.Duration("duration", time.Since(start)))

		if err := errorOf(out); err != nil {
			l.logger.Error("Chain failed", append(fields, zap.Error(err))...)
			return out
		}

		l.logWithLevel("Chain completed", fields...)
		return out
	})
}

func (l *Logging[C, O]) logWithLevel(msg string, fields ...zap.Field) {
	switch l.loggingConfig.LogLevel {
	case "debug":
		l.logger.Debug(msg, fields...)
	case "warn":
		l.logger.Warn(msg, fields...)
	case "error":
		l.logger.Error(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}
}
