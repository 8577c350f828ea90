package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the active log file inside the log directory
const FileName = "status.log"

// NewLogger writes JSON logs to a rotated file in logDir and to stderr.
func NewLogger(logDir string) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	return newLogger(zapcore.AddSync(file), zapcore.Lock(os.Stderr)), nil
}

// NewWriterLogger logs JSON to w only.
func NewWriterLogger(w io.Writer) *zap.Logger {
	return newLogger(zapcore.AddSync(w))
}

func newLogger(sinks ...zapcore.WriteSyncer) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(cfg)

	cores := make([]zapcore.Core, 0, len(sinks))
	for _, s := range sinks {
		cores = append(cores, zapcore.NewCore(enc, s, zap.InfoLevel))
	}
	return zap.New(zapcore.NewTee(cores...))
}
