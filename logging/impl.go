package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface handed to every component. It mirrors the sugared zap API.
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
	Fatal(args ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" sharing the parent's outputs.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

type impl struct {
	name  string
	level zap.AtomicLevel
	base  *zap.Logger
}

func (imp *impl) sugar() *zap.SugaredLogger {
	l := imp.base.WithOptions(zap.AddCallerSkip(1), zap.IncreaseLevel(imp.level))
	if imp.name != "" {
		l = l.Named(imp.name)
	}
	return l.Sugar()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{
		name:  newName,
		level: zap.NewAtomicLevelAt(imp.level.Level()),
		base:  imp.base,
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	switch imp.level.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.InfoLevel:
		return INFO
	case zapcore.WarnLevel:
		return WARN
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel, zapcore.InvalidLevel:
		return ERROR
	}
	return ERROR
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	l := imp.base.WithOptions(zap.IncreaseLevel(imp.level))
	if imp.name != "" {
		l = l.Named(imp.name)
	}
	return l.Sugar()
}

func (imp *impl) Sync() error {
	return imp.base.Sync()
}

func (imp *impl) Debug(args ...interface{}) { imp.sugar().Debug(args...) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.sugar().Debugf(template, args...) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.sugar().Info(args...) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.sugar().Infof(template, args...) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugar().Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.sugar().Warn(args...) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.sugar().Warnf(template, args...) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.sugar().Error(args...) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.sugar().Errorf(template, args...) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Errorw(msg, keysAndValues...)
}

// Fatal logs as an error then exits the process.
func (imp *impl) Fatal(args ...interface{}) { imp.sugar().Fatal(args...) }
