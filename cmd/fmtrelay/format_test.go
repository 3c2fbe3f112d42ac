package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/cmdexec"
	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/config"
	"github.com/advdv/fmtrelay/cmd/fmtrelay/internal/formatter"
	"github.com/cockroachdb/errors"
)

// Tests here exec freshly written scripts, so they do not run in parallel
// to avoid "text file busy" from descriptors inherited by concurrent forks.

// fakeTool prints its arguments on the first line and then echoes stdin.
const fakeTool = "#!/bin/sh\nprintf '%s|' \"$0\" \"$@\"\necho\ncat\n"

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func installTool(t *testing.T, projectDir, name string) string {
	t.Helper()
	bin := filepath.Join(projectDir, "node_modules", ".bin", name)
	writeFile(t, bin, fakeTool, 0o755)
	return bin
}

type result struct {
	stdout string
	stderr string
	err    error
}

func runRoot(t *testing.T, cfg config.Context, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := rootCmd()
	cmd.Reader = strings.NewReader(stdin)
	cmd.Writer = &stdout
	cmd.ErrWriter = &stderr

	ctx := config.WithContext(context.Background(), cfg)
	err := cmd.Run(ctx, append([]string{"fmtrelay"}, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newContext(t *testing.T, home, work string) config.Context {
	t.Helper()
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	return config.Context{Settings: config.Default(), WorkDir: work, HomeDir: home}
}

func TestFormatWithBiome(t *testing.T) {
	home := t.TempDir()
	work := filepath.Join(home, "proj")
	cfg := newContext(t, home, work)
	writeFile(t, filepath.Join(work, "biome.json"), "{}", 0o644)
	bin := installTool(t, work, "biome")

	res := runRoot(t, cfg, "const x=1", "--path", "x.js")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	want := bin + "|format|--stdin-file-path|x.js|\nconst x=1"
	if res.stdout != want {
		t.Errorf("expected %q, got %q", want, res.stdout)
	}
}

func TestFormatWithPrettierInAncestor(t *testing.T) {
	home := t.TempDir()
	project := filepath.Join(home, "repo")
	work := filepath.Join(project, "src", "app")
	cfg := newContext(t, home, work)
	writeFile(t, filepath.Join(project, ".prettierrc.json"), "{}", 0o644)
	bin := installTool(t, project, "prettier")

	res := runRoot(t, cfg, "a{color:red}", "-p", "styles.css")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	want := bin + "|--stdin-filepath|styles.css|\na{color:red}"
	if res.stdout != want {
		t.Errorf("expected %q, got %q", want, res.stdout)
	}
}

func TestFormatWithoutConfig(t *testing.T) {
	t.Run("silent no-op", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, filepath.Join(home, "a", "b"))

		res := runRoot(t, cfg, "const x=1", "--path", "x.js")
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if res.stdout != "" {
			t.Errorf("expected no output, got %q", res.stdout)
		}
	})

	t.Run("config above home is ignored", func(t *testing.T) {
		root := t.TempDir()
		home := filepath.Join(root, "home")
		cfg := newContext(t, home, filepath.Join(home, "proj"))
		writeFile(t, filepath.Join(root, "biome.json"), "{}", 0o644)
		installTool(t, root, "biome")

		res := runRoot(t, cfg, "const x=1", "--path", "x.js")
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if res.stdout != "" {
			t.Errorf("expected no output, got %q", res.stdout)
		}
	})

	t.Run("strict mode reports absence", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)
		cfg.Settings.Strict = true

		res := runRoot(t, cfg, "const x=1", "--path", "x.js")
		if !errors.Is(res.err, formatter.ErrNoFormatter) {
			t.Fatalf("expected ErrNoFormatter, got %v", res.err)
		}
		if res.stdout != "" {
			t.Errorf("expected no output, got %q", res.stdout)
		}
	})
}

func TestFormatStreamMode(t *testing.T) {
	home := t.TempDir()
	cfg := newContext(t, home, home)
	cfg.Settings.Stream = true
	writeFile(t, filepath.Join(home, ".prettierrc"), "", 0o644)
	bin := installTool(t, home, "prettier")

	res := runRoot(t, cfg, "x = 1\n", "--path", "a.md")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	want := bin + "|--stdin-filepath|a.md|\nx = 1\n"
	if res.stdout != want {
		t.Errorf("expected %q, got %q", want, res.stdout)
	}
}

func TestFormatErrors(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)
		writeFile(t, filepath.Join(home, "biome.json"), "{}", 0o644)

		res := runRoot(t, cfg, "const x=1", "--path", "x.js")
		if res.err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(res.err.Error(), "failed to start") {
			t.Errorf("expected start failure, got %v", res.err)
		}
	})

	t.Run("formatter exit code is ignored by default", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)
		writeFile(t, filepath.Join(home, "biome.json"), "{}", 0o644)
		writeFile(t, filepath.Join(home, "node_modules", ".bin", "biome"),
			"#!/bin/sh\ncat\necho 'parse error' >&2\nexit 1\n", 0o755)

		res := runRoot(t, cfg, "const x=1", "--path", "x.js")
		if res.err != nil {
			t.Fatalf("expected success once the formatter ran, got %v", res.err)
		}
		if res.stdout != "const x=1" {
			t.Errorf("expected formatter output, got %q", res.stdout)
		}
		if !strings.Contains(res.stderr, "parse error") {
			t.Errorf("expected formatter stderr, got %q", res.stderr)
		}
	})

	t.Run("formatter exit code is forwarded when configured", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)
		cfg.Settings.ExitCode = "forward"
		writeFile(t, filepath.Join(home, "biome.json"), "{}", 0o644)
		writeFile(t, filepath.Join(home, "node_modules", ".bin", "biome"),
			"#!/bin/sh\ncat >/dev/null\necho 'parse error' >&2\nexit 2\n", 0o755)

		res := runRoot(t, cfg, "const x=", "--path", "x.js")

		var exitErr *cmdexec.ExitError
		if !errors.As(res.err, &exitErr) {
			t.Fatalf("expected ExitError, got %v", res.err)
		}
		if exitErr.Code != 2 {
			t.Errorf("expected code 2, got %d", exitErr.Code)
		}
	})

	t.Run("input write failure is fatal by default", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)
		writeFile(t, filepath.Join(home, "biome.json"), "{}", 0o644)
		writeFile(t, filepath.Join(home, "node_modules", ".bin", "biome"),
			"#!/bin/sh\nexit 1\n", 0o755)

		res := runRoot(t, cfg, strings.Repeat("x", 4<<20), "--path", "x.js")
		if res.err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(res.err.Error(), "failed to write input") {
			t.Errorf("expected write failure, got %v", res.err)
		}
	})

	t.Run("path flag is required", func(t *testing.T) {
		home := t.TempDir()
		cfg := newContext(t, home, home)

		res := runRoot(t, cfg, "")
		if res.err == nil {
			t.Fatal("expected error for missing --path")
		}
	})
}

func TestDebugLogsGoToStderr(t *testing.T) {
	home := t.TempDir()
	cfg := newContext(t, home, home)
	cfg.Settings.LogLevel = "debug"

	res := runRoot(t, cfg, "", "--path", "x.js")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.stdout != "" {
		t.Errorf("expected no stdout, got %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "no configuration") {
		t.Errorf("expected debug logs on stderr, got %q", res.stderr)
	}
}
