package logger

import (
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"salesinsight/internal/config"
)

// Init configures the global zerolog logger from cfg and routes the
// standard library logger through it. Call once at startup.
//
// APP_LOG_PRETTY=true gives colored console output for local use; otherwise
// lines are JSON on stdout. Every line carries the service name.
func Init(cfg *config.Config) {
	var w io.Writer = os.Stdout
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	level := ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	zlog.Logger = New(w, cfg.ServiceName, level)

	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}

// New builds a timestamped logger writing to w.
func New(w io.Writer, service string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel converts a level name to a zerolog level, InfoLevel when unknown.
func ParseLevel(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
