package logger

import "github.com/robfig/cron/v3"

type cronLogger struct {
	l *Logger
}

// Cron adapts the logger to the cron.Logger interface. Cron's chatty info
// messages (schedule, wake, run) are emitted at debug level.
func (l *Logger) Cron() cron.Logger {
	return cronLogger{l: l.Named("cron")}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
