// Package logging builds the zerolog logger shared by the command and the
// pipeline packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder configures a logger. The zero value writes info and above to
// stderr.
type Builder struct {
	writer io.Writer
	path   string
	level  zerolog.Level
	set    bool
}

// New returns a Builder.
func New() *Builder {
	return &Builder{}
}

// To writes log lines to w.
func (b *Builder) To(w io.Writer) *Builder {
	b.writer = w
	return b
}

// FromPath appends log lines to the file at path instead. An empty path is
// ignored.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// Level sets the minimum level.
func (b *Builder) Level(l zerolog.Level) *Builder {
	b.level = l
	b.set = true
	return b
}

// Logger is a built logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Close closes the log file. It is safe to call on a logger without one.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Make builds the logger.
func (b *Builder) Make() (*Logger, error) {
	out := &Logger{}
	w := b.writer
	if w == nil {
		w = os.Stderr
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("logging.Make: %w", err)
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	level := zerolog.InfoLevel
	if b.set {
		level = b.level
	}
	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// ParseLevel accepts zerolog level names. An empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("logging.ParseLevel: %w", err)
	}
	return l, nil
}
