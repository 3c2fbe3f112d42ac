// Package locate finds marker files by walking from a directory towards a
// boundary directory, nearest first.
package locate

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// StatFunc reports file information for a path, like os.Stat.
type StatFunc func(path string) (fs.FileInfo, error)

// Locator searches a directory and its ancestors for candidate files.
type Locator struct {
	boundary string
	stat     StatFunc
	logger   *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithStat sets the function used to probe for file existence.
func WithStat(fn StatFunc) Option {
	return func(l *Locator) {
		l.stat = fn
	}
}

// WithLogger sets the logger that receives probe results.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// New creates a Locator that never ascends past boundary.
func New(boundary string, opts ...Option) *Locator {
	l := &Locator{
		boundary: filepath.Clean(boundary),
		stat:     os.Stat,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Boundary returns the highest directory the Locator inspects.
func (l *Locator) Boundary() string {
	return l.boundary
}

// Locate returns the path of the first name that exists in start or one of
// its ancestors. Names are probed in order at each level. The walk ends after
// the boundary has been checked, or at the filesystem root when the boundary
// is not an ancestor of start.
func (l *Locator) Locate(start string, names ...string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}

	dir := filepath.Clean(start)
	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if l.exists(candidate) {
				l.logger.Debug("found candidate", "path", candidate)
				return candidate, true
			}
		}

		if dir == l.boundary {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			l.logger.Debug("reached filesystem root before boundary",
				"start", start, "boundary", l.boundary)
			return "", false
		}
		dir = parent
	}
}

func (l *Locator) exists(path string) bool {
	_, err := l.stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		l.logger.Debug("probe failed, treating as absent", "path", path, "error", err)
	}
	return false
}
