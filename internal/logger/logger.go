package logger

import (
	"context"

	"go-confops/internal/config"
	"go-confops/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build creates the application logger. When sink is non-nil, warn and above
// are also persisted through it; the returned func flushes pending entries.
func Build(cfg *config.Config, sink LogSink) (*zap.Logger, func(), error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	if sink == nil {
		return baseLogger, func() {}, nil
	}

	dbWriter := NewDBLogWriter(sink, cfg.AppId)

	// We replace the logger's core with our "Tee" core (sends to both console and DB)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter, zapcore.WarnLevel)

	return zap.New(finalCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), dbWriter.Close, nil
}

// NewLogger builds the DB-backed logger and flushes it on shutdown.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, store *database.Store) (*zap.Logger, error) {
	logger, flush, err := Build(cfg, NewLogSink(store))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			flush()
			return nil
		},
	})

	return logger, nil
}
