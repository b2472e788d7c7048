package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelCore decides on its own level instead of the wrapped core's,
// so a derived logger can be quieter or louder than the process logger.
type levelCore struct {
	zapcore.Core

	level zapcore.Level
}

// Enabled reports whether lvl passes the core's own level.
func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl)
}

// Check adds the core to ce when the entry passes the core's level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the level on the derived core.
//
//nolint:ireturn,nolintlint // zapcore.Core is the zap contract.
func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

// WithLevel pins the logger it is applied to at lvl regardless of SetLevel.
// The API uses it for its access log.
//
//nolint:ireturn,nolintlint // zap.Option is the zap contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelCore{Core: core, level: lvl}
	})
}
