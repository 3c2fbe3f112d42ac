package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

const FileName = ".fmtrelay.yml"

type Settings struct {
	Version string `yaml:"version" validate:"required,oneof=1"`
	// Strict turns a missing formatter configuration into an error.
	Strict bool `yaml:"strict"`
	// Stream hands stdin to the formatter directly instead of buffering it.
	Stream   bool   `yaml:"stream"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// ExitCode is "ignore" to exit successfully whenever the formatter ran,
	// or "forward" to exit with the formatter's own non-zero code.
	ExitCode string `yaml:"exit_code" validate:"omitempty,oneof=ignore forward"`
}

func Default() Settings {
	return Settings{
		Version:  "1",
		LogLevel: "warn",
		ExitCode: "ignore",
	}
}

// ForwardExitCode reports whether a failing formatter's exit code is
// propagated.
func (s Settings) ForwardExitCode() bool {
	return s.ExitCode == "forward"
}

// Level returns the slog level for LogLevel, defaulting to warn.
func (s Settings) Level() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type Loader interface {
	Load(path string) (Settings, error)
}

type yamlLoader struct {
	validate *validator.Validate
}

func NewLoader() Loader {
	return &yamlLoader{
		validate: validator.New(),
	}
}

func (l *yamlLoader) Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrap(err, "failed to read settings file")
	}

	dec := yaml.NewDecoder(
		bytes.NewReader(data),
		yaml.Validator(l.validate),
		yaml.Strict(),
	)

	settings := Default()
	settings.Version = ""
	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.Wrapf(err, "failed to parse settings file %s", path)
	}

	// An empty document skips decoder validation.
	if err := l.validate.Struct(settings); err != nil {
		return Settings{}, errors.Wrapf(err, "invalid settings file %s", path)
	}

	return settings, nil
}
