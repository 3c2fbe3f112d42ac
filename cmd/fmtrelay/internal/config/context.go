package config

import (
	"context"
	"os"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/locate"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

type contextKey struct{}

// Context holds everything resolved once at the start of a run.
type Context struct {
	Settings Settings
	// SettingsPath is empty when no settings file was found.
	SettingsPath string
	WorkDir      string
	HomeDir      string
}

// Locator returns a locator bounded by the home directory of the run.
func (c Context) Locator(opts ...locate.Option) *locate.Locator {
	return locate.New(c.HomeDir, opts...)
}

func WithContext(ctx context.Context, cfg Context) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

func FromContext(ctx context.Context) (Context, bool) {
	cfg, ok := ctx.Value(contextKey{}).(Context)
	return cfg, ok
}

// Resolve looks for a settings file from workDir up to homeDir and loads it.
// Defaults are used when there is none.
func Resolve(workDir, homeDir string, loader Loader) (Context, error) {
	cfg := Context{
		Settings: Default(),
		WorkDir:  workDir,
		HomeDir:  homeDir,
	}

	path, ok := locate.New(homeDir).Locate(workDir, FileName)
	if !ok {
		return cfg, nil
	}

	settings, err := loader.Load(path)
	if err != nil {
		return Context{}, err
	}

	cfg.Settings = settings
	cfg.SettingsPath = path
	return cfg, nil
}

// Ensure returns the run context from ctx if present, otherwise resolves it
// from the process working directory and the user's home directory.
func Ensure(ctx context.Context) (context.Context, Context, error) {
	if cfg, ok := FromContext(ctx); ok {
		return ctx, cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ctx, Context{}, errors.Wrap(err, "failed to determine working directory")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ctx, Context{}, errors.Wrap(err, "failed to determine home directory")
	}

	cfg, err := Resolve(cwd, home, NewLoader())
	if err != nil {
		return ctx, Context{}, err
	}

	return WithContext(ctx, cfg), cfg, nil
}

// ActionFunc is a command action that receives the run context.
type ActionFunc func(ctx context.Context, cmd *cli.Command, cfg Context) error

// RunWithConfig wraps an ActionFunc to resolve the run context when the
// action runs, not when showing help or version.
func RunWithConfig(fn ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, cfg, err := Ensure(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, cfg)
	}
}
