package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/cmdexec"
	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/config"
	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/formatter"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

func formatStdin(ctx context.Context, cmd *cli.Command, cfg config.Context) error {
	stdin, stdout, stderr := streams(cmd)

	logger := newLogger(stderr, cfg.Settings.Level())
	if cfg.SettingsPath != "" {
		logger.Debug("loaded settings", "path", cfg.SettingsPath)
	}

	return relayFormatter(ctx, cfg, logger, cmd.String("path"), stdin, stdout, stderr)
}

func streams(cmd *cli.Command) (io.Reader, io.Writer, io.Writer) {
	var (
		stdin  io.Reader = os.Stdin
		stdout io.Writer = os.Stdout
		stderr io.Writer = os.Stderr
	)
	if cmd.Reader != nil {
		stdin = cmd.Reader
	}
	if cmd.Writer != nil {
		stdout = cmd.Writer
	}
	if cmd.ErrWriter != nil {
		stderr = cmd.ErrWriter
	}
	return stdin, stdout, stderr
}

func relayFormatter(
	ctx context.Context,
	cfg config.Context,
	logger *slog.Logger,
	target string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	selector := formatter.NewSelector(cfg.Locator(locateLogger(logger))).WithLogger(logger)

	sel, ok := selector.Select(cfg.WorkDir, target)
	if !ok {
		if cfg.Settings.Strict {
			return errors.Wrapf(formatter.ErrNoFormatter,
				"searched from %s up to %s", cfg.WorkDir, cfg.HomeDir)
		}
		logger.Info("no formatter configuration found, nothing to do",
			"dir", cfg.WorkDir, "boundary", cfg.HomeDir)
		return nil
	}

	exec := cmdexec.New(cfg).WithOutput(stdout, stderr)
	bin, args := sel.Command()

	var err error
	if cfg.Settings.Stream {
		logger.Debug("streaming stdin", "bin", bin, "args", args)
		err = exec.RunWithStdin(ctx, stdin, bin, args...)
	} else {
		logger.Debug("relaying buffered stdin", "bin", bin, "args", args)
		err = exec.Relay(ctx, stdin, bin, args...)
	}

	// A bare ExitError means the formatter ran to completion. Relay failures
	// only carry one as an attachment.
	exitErr, ok := err.(*cmdexec.ExitError) //nolint:errorlint // must not match attachments
	if ok && !cfg.Settings.ForwardExitCode() {
		logger.Info("formatter exited with non-zero code", "formatter", sel.Formatter.Name, "code", exitErr.Code)
		return nil
	}
	return err
}
