package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

type Logger struct {
	Logger *slog.Logger
	Close  func() error
	// Path is the debug log file, empty when file logging is off.
	Path string
}

func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func noClose() error { return nil }

// New logs warnings and errors as text to console. In debug mode records of
// every level are also written as JSON to <dataDir>/logs/engine.log. The
// console logger is returned alongside any error opening the file.
func New(dataDir string, debug bool, console io.Writer) (Logger, error) {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: slog.LevelWarn})
	if !debug {
		return Logger{Logger: slog.New(consoleHandler), Close: noClose}, nil
	}
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return Logger{Logger: slog.New(consoleHandler), Close: noClose}, err
	}
	path := filepath.Join(logDir, "engine.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Logger{Logger: slog.New(consoleHandler), Close: noClose}, err
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return Logger{
		Logger: slog.New(slogmulti.Fanout(consoleHandler, fileHandler)),
		Close:  file.Close,
		Path:   path,
	}, nil
}
