package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the application that is logging.
type Name string

type Config struct {
	// appName is the name of the application.
	appName string

	// level is the minimum level that will be logged.
	level slog.Level
}

// NewConfig creates a new logging config for the given application name. The level is taken from the LOG_LEVEL
// environment variable, defaulting to info.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: string(appName),
		level:   parseLevel(os.Getenv(EnvLogLevel)),
	}
}

// CommonLogger creates the JSON logger used across the application and sets it as the default logger.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     c.level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					// Only keep the file name, the full path is noise.
					src.File = src.File[strings.LastIndex(src.File, "/")+1:]
				}
			}
			return a
		},
	})

	l := slog.New(h).With(slog.String(KeyAppName, c.appName))
	slog.SetDefault(l)
	return l, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
