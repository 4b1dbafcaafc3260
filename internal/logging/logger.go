// Package logging implements the request-lifecycle logging pipeline: a
// zerolog logger over a fan-out sink (console, optional remote ingest,
// optional archive store), request/response records correlated by request
// id, and classified-error reports.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config is resolved once at startup and immutable afterwards.
type Config struct {
	ServiceName string
	Environment string

	// Remote enables the remote ingest destination when non-nil.
	Remote *RemoteConfig
}

// Logger is the process-wide structured logger. It embeds zerolog.Logger,
// so Debug/Info/Warn/Error are available directly.
type Logger struct {
	zerolog.Logger

	closers []io.Closer
}

// New builds the logger over its configured destinations. The console
// destination is always present; the remote sink is added when configured;
// extra destinations (e.g. the archive sink) are appended as given.
func New(cfg Config, extra ...io.Writer) *Logger {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout}}
	var closers []io.Closer

	if cfg.Remote != nil {
		remote := NewRemoteSink(*cfg.Remote)
		writers = append(writers, remote)
		closers = append(closers, remote)
	}
	for _, w := range extra {
		if w == nil {
			continue
		}
		writers = append(writers, w)
		if c, ok := w.(io.Closer); ok {
			closers = append(closers, c)
		}
	}

	return newLogger(cfg, closers, writers...)
}

// newLogger wires the zerolog logger over the given writers. Split out so
// tests can capture output with a buffer writer.
func newLogger(cfg Config, closers []io.Closer, writers ...io.Writer) *Logger {
	zl := zerolog.New(NewFanoutWriter(writers...)).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
	return &Logger{Logger: zl, closers: closers}
}

// Close flushes and stops every destination that needs it.
func (l *Logger) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
