package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger. Output always goes to stdout; when a log
// file is configured it is also written to a size-rotated file.
func New(server config.ServerConfig, files config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(Writer(files))

	level, err := logrus.ParseLevel(server.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level %q, using INFO", server.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// Writer returns stdout, or stdout tee'd into a lumberjack rotating file
func Writer(files config.LogConfig) io.Writer {
	if files.File == "" {
		return os.Stdout
	}

	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   files.File,
		MaxSize:    files.MaxSizeMB,
		MaxBackups: files.MaxBackups,
		MaxAge:     files.MaxAgeDays,
		Compress:   true,
	})
}
