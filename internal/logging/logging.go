// Package logging builds the engine's zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/config"
)

// atomicLevel is the shared dynamic level for every core Build creates.
var atomicLevel = zap.NewAtomicLevel()

// Build constructs the engine logger: info and below to stdout, errors to
// stderr, console or JSON encoding per config. The logger is installed as
// the zap global.
func Build(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	atomicLevel = level

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.SecondsDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewJSONEncoder(encCfg)
	if cfg.Encoding != "json" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	// Level filters: errors always reach stderr, the rest follows the
	// dynamic level on stdout
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return atomicLevel.Enabled(lvl) && lvl < zapcore.ErrorLevel
	})

	infoCore := zapcore.NewCore(encoder, os.Stdout, lowPriority)
	errorCore := zapcore.NewCore(encoder, os.Stderr, highPriority)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	logger := zap.New(zapcore.NewTee(infoCore, errorCore), opts...)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// SetLevel changes the logger level dynamically.
func SetLevel(level string) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		zap.L().Error("couldn't parse level", zap.Error(err))
		return
	}
	atomicLevel.SetLevel(l)
	zap.L().Info("log level updated", zap.String("value", level))
}

// Level reports the current dynamic level.
func Level() zapcore.Level {
	return atomicLevel.Level()
}
