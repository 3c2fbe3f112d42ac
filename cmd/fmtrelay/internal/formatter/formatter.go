// Package formatter decides which external formatter handles a file, based on
// the configuration files found around the working directory.
package formatter

import (
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// ErrNoFormatter is returned when no formatter configuration could be found.
var ErrNoFormatter = errors.New("no formatter configuration found")

// Formatter describes an external formatter binary installed in a project.
type Formatter struct {
	// Name is the executable name under node_modules/.bin.
	Name string
	// ConfigNames are filenames that mark a directory as configured for
	// this formatter. Any one of them is enough.
	ConfigNames []string
	// Args builds the arguments for formatting stdin as the given file.
	Args func(target string) []string
}

// Biome formats through "biome format --stdin-file-path".
var Biome = Formatter{
	Name:        "biome",
	ConfigNames: []string{"biome.json"},
	Args: func(target string) []string {
		return []string{"format", "--stdin-file-path", target}
	},
}

// Prettier formats through "prettier --stdin-filepath".
var Prettier = Formatter{
	Name: "prettier",
	ConfigNames: []string{
		".prettierrc",
		".prettierrc.json",
		".prettierrc.cjs",
		".prettierrc.js",
	},
	Args: func(target string) []string {
		return []string{"--stdin-filepath", target}
	},
}

// Defaults returns the supported formatters in priority order.
func Defaults() []Formatter {
	return []Formatter{Biome, Prettier}
}

// BinPath returns the location of tool relative to the directory holding
// configPath.
func BinPath(configPath, tool string) string {
	return filepath.Join(filepath.Dir(configPath), "node_modules", ".bin", tool)
}

// Locator finds the nearest of a set of files starting at a directory.
type Locator interface {
	Locate(start string, names ...string) (string, bool)
}

// Selection is the formatter picked for a run.
type Selection struct {
	Formatter  Formatter
	ConfigPath string
	BinPath    string
	Args       []string
}

// ProjectDir returns the directory that holds the discovered configuration.
func (s Selection) ProjectDir() string {
	return filepath.Dir(s.ConfigPath)
}

// Command returns the executable and its arguments.
func (s Selection) Command() (string, []string) {
	return s.BinPath, s.Args
}

// Selector picks the first formatter whose configuration is found.
type Selector struct {
	locator    Locator
	formatters []Formatter
	logger     *slog.Logger
}

// NewSelector creates a Selector over formatters, tried in the given order.
// With no formatters it uses Defaults.
func NewSelector(loc Locator, formatters ...Formatter) *Selector {
	if len(formatters) == 0 {
		formatters = Defaults()
	}
	return &Selector{
		locator:    loc,
		formatters: formatters,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithLogger returns a copy of the Selector that logs to logger.
func (s *Selector) WithLogger(logger *slog.Logger) *Selector {
	return &Selector{
		locator:    s.locator,
		formatters: s.formatters,
		logger:     logger,
	}
}

// Select searches from start for each formatter's configuration and returns
// the first match. target is passed to the formatter as a filename hint.
func (s *Selector) Select(start, target string) (Selection, bool) {
	for _, f := range s.formatters {
		configPath, ok := s.locator.Locate(start, f.ConfigNames...)
		if !ok {
			s.logger.Debug("no configuration", "formatter", f.Name)
			continue
		}

		sel := Selection{
			Formatter:  f,
			ConfigPath: configPath,
			BinPath:    BinPath(configPath, f.Name),
			Args:       f.Args(target),
		}
		s.logger.Debug("selected formatter",
			"formatter", f.Name, "config", configPath, "bin", sel.BinPath)
		return sel, true
	}
	return Selection{}, false
}
