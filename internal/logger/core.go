package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a Zap Core that copies entries at or above minLevel to the
// DBLogWriter, then hands them to the wrapped core.
type DBCore struct {
	zapcore.Core
	writer   *DBLogWriter
	minLevel zapcore.Level
	context  []zapcore.Field
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter, minLevel zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:     baseCore,
		writer:   writer,
		minLevel: minLevel,
	}
}

// With keeps the DB tee on child loggers.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	ctx := make([]zapcore.Field, 0, len(c.context)+len(fields))
	ctx = append(ctx, c.context...)
	ctx = append(ctx, fields...)
	return &DBCore{
		Core:     c.Core.With(fields),
		writer:   c.writer,
		minLevel: c.minLevel,
		context:  ctx,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.minLevel {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range c.context {
			f.AddTo(enc)
		}
		for _, f := range fields {
			f.AddTo(enc)
		}

		// Function is only set when the logger is built with AddCaller.
		caller := entry.Caller.Function
		if caller == "" && entry.Caller.Defined {
			caller = entry.Caller.TrimmedPath()
		}

		c.writer.AddLog(LogEntry{
			Level:   entry.Level,
			Logger:  entry.LoggerName,
			Message: entry.Message,
			Caller:  caller,
			Fields:  enc.Fields,
			Time:    entry.Time,
		})
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
