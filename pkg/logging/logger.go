package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// File is the path of the rotated log file. Empty disables file output.
	File  string
	Level string
	// Console receives a copy of every entry, usually os.Stderr.
	Console io.Writer
}

// NewDailyRotateLogger builds a JSON logger writing to the console and to a
// size capped file that is also rotated every midnight. The returned func
// stops the rotation job, flushes the logger and closes the file.
func NewDailyRotateLogger(cfg Config) (*zap.Logger, func(), error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}

	cronJob := cron.New()
	var ll *lumberjack.Logger
	if cfg.File != "" {
		ll = &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  500, // megabytes
			MaxAge:   30,  // days
		}
		if err := cronJob.AddFunc("@daily", func() {
			if err := ll.Rotate(); err != nil {
				_, _ = io.WriteString(console, "failed to rotate log: "+err.Error()+"\n")
			}
		}); err != nil {
			return nil, nil, errors.Wrap(err, "schedule log rotation")
		}
		cronJob.Start()
		writers = append(writers, ll)
	}

	w := zapcore.AddSync(io.MultiWriter(writers...))
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		level,
	)
	logger := zap.New(core)
	return logger, func() {
		cronJob.Stop()
		_ = logger.Sync()
		if ll != nil {
			_ = ll.Close()
		}
	}, nil
}
