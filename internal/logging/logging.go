// Package logging hands out component loggers that share one output and
// one level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dropbox/godropbox/errors"
)

var (
	level = new(slog.LevelVar)
	out   = &switchWriter{w: os.Stderr}
	root  = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
)

// Logger returns a logger that tags every record with component.
func Logger(component string) *slog.Logger {
	return root.With("component", component)
}

// SetLevel sets the minimum level of every logger. It accepts debug, info,
// warn and error in any case.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return errors.Wrapf(err, "log level %q: ", name)
	}
	level.Set(l)
	return nil
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// SetOutput redirects every logger, including ones already handed out.
func SetOutput(w io.Writer) {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.w = w
}

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
