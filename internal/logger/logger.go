package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Init is called,
// so packages can log unconditionally, tests included.
var Log = zap.NewNop()

// Init replaces Log with a console logger. Debug enables debug level and
// development stack traces.
func Init(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.DisableCaller = !debug

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes buffered entries. The error is dropped since stderr sync
// fails on most terminals.
func Sync() {
	_ = Log.Sync()
}
