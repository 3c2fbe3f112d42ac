package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/cmdexec"
	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/config"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd().Run(ctx, os.Args)
	stop()

	var exitErr *cmdexec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// Only returned with exit_code: forward. The formatter already
		// reported the problem on stderr.
		os.Exit(exitErr.Code)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    "fmtrelay",
		Usage:   "Format stdin with the project's biome or prettier and write the result to stdout",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "path",
				Aliases:  []string{"p"},
				Usage:    "file path used by the formatter to infer the language; never read",
				Required: true,
			},
		},
		Action: config.RunWithConfig(formatStdin),
	}
}
