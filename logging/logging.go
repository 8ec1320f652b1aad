// Package logging contains the structured logger shared by every motiondetect component.
package logging

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the time format used by test appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Logger is the logging interface handed to every component constructor.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a child logger named "<parent>.<subname>" that starts at the parent's level.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

// FileConfig describes an optional rotating log file.
type FileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, NewStdoutAppender())
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	return newImpl(name, DEBUG, NewStdoutAppender())
}

// NewBlankLogger returns a new logger at Debug level without any appenders.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG)
}

// NewLoggerWithFile returns a logger that writes to stdout and, when file.Path is set, to a
// size-rotated log file.
func NewLoggerWithFile(name string, level Level, file FileConfig) Logger {
	appenders := []zapcore.Core{NewStdoutAppender()}
	if file.Path != "" {
		appenders = append(appenders, NewFileAppender(file))
	}
	return newImpl(name, level, appenders...)
}

// NewStdoutAppender returns a console appender that writes every level to stdout.
func NewStdoutAppender() zapcore.Core {
	encoder := zapcore.NewConsoleEncoder(NewLoggerConfig().EncoderConfig)
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zapcore.DebugLevel)
}

// NewFileAppender returns a JSON appender backed by a lumberjack rotating file.
func NewFileAppender(file FileConfig) zapcore.Core {
	encoderCfg := NewLoggerConfig().EncoderConfig
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	writer := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), zapcore.DebugLevel)
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test framework.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger := newImpl("", DEBUG, NewTestAppender(tb), observerCore)
	return logger, observedLogs
}
