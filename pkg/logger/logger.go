// Package logger wraps zerolog behind a process-wide singleton.
// Call Init once during startup; Get returns the configured logger
// from anywhere else.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the logger is built.
type Options struct {
	// Level is the minimum level to emit (trace, debug, info, warn,
	// error). Unrecognised or empty values fall back to info.
	Level string
	// Pretty switches from JSON to coloured console output. Leave it
	// off in production.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	instance zerolog.Logger
	once     sync.Once
	ready    bool
)

// Init builds the singleton. Repeated calls are no-ops and return the
// logger from the first call.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		lvl, err := zerolog.ParseLevel(opts.Level)
		if err != nil || opts.Level == "" {
			lvl = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(lvl)

		instance = zerolog.New(out).
			Level(lvl).
			With().
			Timestamp().
			Caller().
			Logger()
		ready = true
	})
	return instance
}

// Get returns the singleton. It panics when Init has not run, which
// points at a wiring bug rather than a runtime condition.
func Get() zerolog.Logger {
	if !ready {
		panic("logger: Get called before Init")
	}
	return instance
}
