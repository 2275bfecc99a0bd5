package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Options selects where logs go and how verbose they are.
type Options struct {
	File   string
	Level  string
	Stdout bool
}

// Setup initializes Logrus with a rotating file, optionally mirrored to stdout.
func Setup(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		// Lumberjack for file rotation
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = rotator
		if opts.Stdout {
			out = io.MultiWriter(rotator, os.Stdout)
		}
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(level)
	return nil
}

// GormLogger returns the standard Logrus logger for GORM
func GormLogger() *logrus.Logger {
	return logrus.StandardLogger()
}
