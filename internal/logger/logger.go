package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/polkiloo/payledger/internal/config"
)

const serviceName = "payledger"

// New builds a JSON zap.Logger at the given level.
func New(level string, environment string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return log.With(
		zap.String("service", serviceName),
		zap.String("env", strings.TrimSpace(environment)),
	), nil
}

type loggerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
}

func provide(p loggerParams) (*zap.Logger, error) {
	log, err := New(p.Config.LogLevel, p.Config.Environment)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}
