package util

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger atomic.Pointer[zap.SugaredLogger]
)

func init() {
	logger.Store(newLogger(zapcore.Lock(os.Stderr)))
}

func newLogger(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.Int("pid", os.Getpid())).
		Sugar()
}

// InitLogger sets the level and redirects output. A nil writer keeps stderr.
func InitLogger(lvl LogLevel, w io.Writer) {
	SetLevel(lvl)
	if w != nil {
		logger.Store(newLogger(zapcore.AddSync(w)))
	}
}

func SetLevel(lvl LogLevel) {
	level.SetLevel(lvl.zapLevel())
}

// Sync flushes buffered log entries.
func Sync() error {
	return logger.Load().Sync()
}

func Debug(format string, v ...interface{}) {
	logger.Load().Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	logger.Load().Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	logger.Load().Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	logger.Load().Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	logger.Load().Fatalf(format, v...)
}
