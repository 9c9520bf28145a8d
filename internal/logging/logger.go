// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every entry as "service" unless Config.Service
// overrides it.
const ServiceName = "motortrack"

// Config holds logging configuration. The server fills it from LOG_LEVEL,
// LOG_FORMAT and LOG_CALLER.
type Config struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic, disabled.
	Level string

	// Format is json (production) or console (development).
	Format string

	Caller    bool
	Timestamp bool

	// Service names the process in the "service" field; "-" omits the field.
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Service:   ServiceName,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before Init is called from main
func init() {
	cfg := DefaultConfig()
	if os.Getenv("MOTORTRACK_QUIET_TESTS") == "1" {
		cfg.Level = "disabled"
	}
	initLogger(cfg)
}

// Init (re)configures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger must be called with mu held.
func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Service == "" {
		cfg.Service = ServiceName
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	if cfg.Service != "-" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log = ctx.Logger()
}

// parseLevel maps a level name to zerolog, accepting "warning" as an alias.
// Unknown and empty names fall back to info.
func parseLevel(level string) zerolog.Level {
	l, ok := lookupLevel(level)
	if !ok {
		return zerolog.InfoLevel
	}
	return l
}

func lookupLevel(level string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if name == "" {
		return zerolog.NoLevel, false
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.NoLevel, false
	}
	return l, true
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	_, ok := lookupLevel(level)
	return ok
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *current()
}

// SetLogger replaces the global logger. Mostly useful in tests.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// With starts a child logger context.
//
//	engineLog := logging.With().Str("component", "sync").Logger()
func With() zerolog.Context { return current().With() }

func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info level message.
//
//	logging.Info().Int("devices", n).Msg("sync pass started")
func Info() *zerolog.Event { return current().Info() }

func Warn() *zerolog.Event  { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a fatal message; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event { return current().Fatal() }

// Err is shorthand for Error().Err(err), or Info() when err is nil.
func Err(err error) *zerolog.Event { return current().Err(err) }

// NewTestLogger creates a JSON logger writing to w, for capturing output in tests.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
