package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option tweaks a logger built by New.
type Option func(*options)

type options struct {
	console bool
	level   zapcore.Level
}

// WithoutConsole drops the stderr core. Full-screen programs use it so log
// lines do not tear the terminal.
func WithoutConsole() Option {
	return func(o *options) { o.console = false }
}

// WithLevel sets the minimum level for every core.
func WithLevel(l zapcore.Level) Option {
	return func(o *options) { o.level = l }
}

// New creates a zap logger that writes JSON to logPath and, unless disabled,
// console-formatted lines to stderr. The profile name and PID are attached
// to every entry.
func New(logPath, profile string, opts ...Option) (*zap.Logger, error) {
	o := options{console: true, level: zapcore.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), o.level),
	}
	if o.console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), o.level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.Fields(
			zap.String("profile", profile),
			zap.Int("pid", os.Getpid()),
		),
	)

	return logger, nil
}
