package tgdb

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the structured logger a Core and its callers log
// through. It replaces the teacher's stdlib log.SetFlags/log.SetPrefix
// pairing (main.go, engine/base.go's fatalIf) with zap, since a library
// embedded by a curses UI cannot call log.Fatal on the caller's behalf the
// way a CLI tool's top level can -- but it keeps the same "caller file:line
// on every line" property via zap.AddCaller().
func NewLogger(verbose bool) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(0))
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
