package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// DailyFile is an append-only writer that switches to a new
// <dir>/<date>.log file when the calendar day changes.
type DailyFile struct {
	mu      sync.Mutex
	current *os.File
	date    string
	dir     string
	loc     *time.Location
	now     func() time.Time
}

func NewDailyFile(dir string, loc *time.Location) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	f := &DailyFile{dir: dir, loc: loc, now: time.Now}
	if err := f.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return f.current.Write(p)
}

// Path returns the file currently written to.
func (f *DailyFile) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filepath.Join(f.dir, f.date+".log")
}

func (f *DailyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current == nil {
		return nil
	}
	err := f.current.Close()
	f.current = nil
	f.date = ""
	return err
}

func (f *DailyFile) rotateIfNeeded() error {
	today := f.now().In(f.loc).Format(dateLayout)
	if today == f.date && f.current != nil {
		return nil
	}

	if f.current != nil {
		f.current.Close()
	}

	path := filepath.Join(f.dir, today+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	f.current = file
	f.date = today
	return nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unrecognized log level: %q", level)
	}
}

// NewLogger builds a JSON logger writing to w with RFC3339 timestamps in loc.
func NewLogger(w io.Writer, level slog.Level, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.Local
	}

	opts := &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				t := a.Value.Time().In(loc)
				a.Value = slog.StringValue(t.Format(time.RFC3339))
			}
			return a
		},
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetupLogger installs a default logger that writes to stdout and to one
// log file per day under dir. The returned file must be closed on shutdown.
func SetupLogger(dir, level string, loc *time.Location) (*slog.Logger, *DailyFile, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	file, err := NewDailyFile(dir, loc)
	if err != nil {
		return nil, nil, err
	}

	logger := NewLogger(io.MultiWriter(os.Stdout, file), lvl, loc)
	slog.SetDefault(logger)
	return logger, file, nil
}
