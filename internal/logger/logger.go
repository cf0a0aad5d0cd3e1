package logger

import (
	"fmt"
	"os"

	"github.com/rapidaid/rapidaid/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a console logger for local runs and a JSON logger elsewhere.
// When cfg.File is set, entries are also written to a rotated file.
func New(env string, cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	jsonEncoding := zap.NewProductionEncoderConfig()
	jsonEncoding.EncodeTime = zapcore.ISO8601TimeEncoder

	var console zapcore.Encoder
	if env == config.EnvLocal {
		devEncoding := zap.NewDevelopmentEncoderConfig()
		devEncoding.EncodeLevel = zapcore.CapitalColorLevelEncoder
		console = zapcore.NewConsoleEncoder(devEncoding)
	} else {
		console = zapcore.NewJSONEncoder(jsonEncoding)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.Lock(os.Stdout), level),
	}

	if cfg.File != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoding), rotated, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
