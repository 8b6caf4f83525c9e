package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger with a level that can be changed while running.
type Logger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

const defaultZapLevel = zapcore.DebugLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func newConsoleCore(w io.Writer, level zap.AtomicLevel) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	return zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
}

// New builds a console logger writing to stdout.
func New(levelStr string) *Logger {
	return NewWithWriter(os.Stdout, levelStr)
}

// NewWithWriter builds a console logger writing to w.
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	lvl := zap.NewAtomicLevelAt(toZapLevel(levelStr))
	return &Logger{
		SugaredLogger: zap.New(newConsoleCore(w, lvl)).Sugar(),
		level:         lvl,
	}
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *Logger {
	return &Logger{
		SugaredLogger: zap.NewNop().Sugar(),
		level:         zap.NewAtomicLevelAt(zapcore.ErrorLevel),
	}
}

// SetLevel switches the minimum enabled level.
func (l *Logger) SetLevel(levelStr string) {
	l.level.SetLevel(toZapLevel(levelStr))
}

// Level reports the current level as text.
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// Named returns a child logger sharing the same level.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name), level: l.level}
}
