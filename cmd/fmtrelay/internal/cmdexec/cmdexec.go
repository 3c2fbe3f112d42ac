package cmdexec

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/config"
	"github.com/cockroachdb/errors"
)

// Executor runs an external formatter with data fed to its stdin.
type Executor interface {
	// WithOutput returns a new Executor that writes to the given stdout/stderr.
	WithOutput(stdout, stderr io.Writer) Executor

	// Dir returns the working directory for this executor.
	Dir() string

	// Relay reads all of stdin into memory, writes it to the command's
	// stdin, closes it and waits for the command to exit.
	Relay(ctx context.Context, stdin io.Reader, name string, args ...string) error

	// RunWithStdin executes a command reading stdin directly from a reader.
	RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error
}

// ExitError reports a command that ran but exited with a non-zero code.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

// executor is the default implementation of Executor.
type executor struct {
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// New creates an Executor that runs in the working directory of the run.
func New(cfg config.Context) Executor {
	return &executor{
		dir: cfg.WorkDir,
	}
}

// NewWithDir creates an Executor with an explicit working directory.
func NewWithDir(dir string) Executor {
	return &executor{
		dir: dir,
	}
}

func (e *executor) WithOutput(stdout, stderr io.Writer) Executor {
	return &executor{
		dir:    e.dir,
		stdout: stdout,
		stderr: stderr,
	}
}

func (e *executor) Dir() string {
	return e.dir
}

func (e *executor) Relay(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)

	pipe, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrapf(err, "%s: failed to open stdin", name)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "%s failed to start", name)
	}

	buf, err := io.ReadAll(stdin)
	if err != nil {
		return e.abort(cmd, pipe, name, errors.Wrap(err, "failed to read input"))
	}

	if _, err := pipe.Write(buf); err != nil {
		return e.abort(cmd, pipe, name, errors.Wrapf(err, "%s: failed to write input", name))
	}

	if err := pipe.Close(); err != nil {
		return e.abort(cmd, pipe, name, errors.Wrapf(err, "%s: failed to close input", name))
	}

	return wait(name, cmd.Wait())
}

func (e *executor) RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)
	cmd.Stdin = stdin

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "%s failed to start", name)
	}

	return wait(name, cmd.Wait())
}

// abort closes stdin, reaps the command and attaches its outcome to err.
func (e *executor) abort(cmd *exec.Cmd, pipe io.Closer, name string, err error) error {
	_ = pipe.Close()
	return errors.CombineErrors(err, wait(name, cmd.Wait()))
}

func (e *executor) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	return cmd
}

func wait(name string, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &ExitError{Name: name, Code: exitErr.ExitCode()}
	}

	return errors.Wrapf(err, "%s failed", name)
}
