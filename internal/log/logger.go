package log

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a logger built by New.
type Options struct {
	// Writer receives log output when File is empty. Defaults to os.Stderr.
	Writer io.Writer

	// Verbose sets the level to Debug instead of Warn.
	Verbose bool

	// JSON selects JSON output instead of logfmt-style text.
	JSON bool

	// File, when set, sends logs to a size-rotated file instead of Writer.
	File string

	// MaxSizeMB is the rotation threshold for File. Defaults to 10.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept. Defaults to 3.
	MaxBackups int
}

// New creates a *slog.Logger with secure handling.
//
// When opts.File is set the returned io.Closer closes the rotating file;
// otherwise it is a no-op. Callers should close it on exit.
func New(opts Options) (*slog.Logger, io.Closer) {
	var (
		w                = opts.Writer
		closer io.Closer = nopCloser{}
	)
	if w == nil {
		w = os.Stderr
	}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		}
		w = rotating
		closer = rotating
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
