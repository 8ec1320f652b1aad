package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	*zap.SugaredLogger

	name      string
	level     zap.AtomicLevel
	appenders []zapcore.Core
}

func newImpl(name string, level Level, appenders ...zapcore.Core) *impl {
	imp := &impl{
		name:      name,
		level:     zap.NewAtomicLevelAt(level.AsZap()),
		appenders: appenders,
	}
	core := &levelCore{Core: zapcore.NewTee(appenders...), level: imp.level}
	imp.SugaredLogger = zap.New(core, zap.AddCaller()).Sugar().Named(name)
	return imp
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return newImpl(newName, imp.GetLevel(), imp.appenders...)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	switch imp.level.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.WarnLevel:
		return WARN
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ERROR
	default:
		return INFO
	}
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}

// levelCore gates a tee of appenders behind a logger-owned level so that subloggers can be
// adjusted independently while sharing outputs.
type levelCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(entry.Level) {
		return checked
	}
	return c.Core.Check(entry, checked)
}
