package utils

import (
	"log/slog"
	"os"
	"sync"

	"github.com/mdobak/go-xerrors"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

// GetLogger returns the process-wide structured logger. The log level is
// controlled by the LOG_LEVEL environment variable (debug/info/warn/error).
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		switch GetEnv("LOG_LEVEL", "info") {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceErrorAttr,
		})
		logger = slog.New(handler)
	})
	return logger
}

// replaceErrorAttr expands xerrors values into message plus stack trace so
// wrapped errors stay readable in JSON output.
func replaceErrorAttr(_ []string, attr slog.Attr) slog.Attr {
	err, ok := attr.Value.Any().(error)
	if !ok {
		return attr
	}

	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return slog.Attr{
			Key:   attr.Key,
			Value: slog.StringValue(err.Error()),
		}
	}

	frames := trace.Frames()
	values := make([]slog.Attr, 0, 2)
	values = append(values, slog.String("msg", err.Error()))
	if len(frames) > 0 {
		values = append(values, slog.Group("origin",
			slog.String("func", frames[0].Function),
			slog.String("file", frames[0].File),
			slog.Int("line", frames[0].Line),
		))
	}

	return slog.Attr{
		Key:   attr.Key,
		Value: slog.GroupValue(values...),
	}
}
