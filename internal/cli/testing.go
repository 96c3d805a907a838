package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/calvinalkan/assetcache/internal/config"
)

// CLI runs assetcache in-process against a throwaway project directory.
// Every run gets "--cwd Dir", so the project config and the assets folder
// live below Dir.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a CLI rooted at a fresh temp directory with an empty
// environment, so no global config is picked up.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{},
	}
}

// Run executes "assetcache --cwd Dir <args>" and returns stdout, stderr and
// the exit code.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.run("", nil, args)
}

// RunWithInput is [CLI.Run] with stdin, one REPL command per line.
func (r *CLI) RunWithInput(stdin string, args ...string) (string, string, int) {
	return r.run(stdin, nil, args)
}

// RunInterrupted is [CLI.Run] with a SIGINT already pending, so the command
// context is canceled almost immediately.
func (r *CLI) RunInterrupted(args ...string) (string, string, int) {
	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGINT

	return r.run("", sigCh, args)
}

func (r *CLI) run(stdin string, sigCh <-chan os.Signal, args []string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"assetcache", "--cwd", r.Dir}, args...)
	code := Run(strings.NewReader(stdin), &outBuf, &errBuf, fullArgs, r.Env, sigCh)

	return outBuf.String(), errBuf.String(), code
}

// MustRun fails the test unless the command exits 0. Returns trimmed stdout.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("assetcache %v: exit %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail fails the test unless the command exits non-zero with nothing on
// stdout. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("assetcache %v: want failure, got exit 0\nstdout: %s", args, stdout)
	}

	if stdout != "" {
		r.t.Fatalf("assetcache %v: want empty stdout on failure\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// AssetDir returns the default assets directory below Dir.
func (r *CLI) AssetDir() string {
	return filepath.Join(r.Dir, config.DefaultAssetDir)
}

// WriteAsset writes content to key below the assets directory.
func (r *CLI) WriteAsset(key, content string) {
	r.t.Helper()

	r.WriteFile(filepath.Join(config.DefaultAssetDir, key), content)
}

// WriteConfig writes the project config file.
func (r *CLI) WriteConfig(content string) {
	r.t.Helper()

	r.WriteFile(config.FileName, content)
}

// WriteFile writes content to a path relative to Dir, creating parents.
func (r *CLI) WriteFile(rel, content string) {
	r.t.Helper()

	path := filepath.Join(r.Dir, rel)
	r.Mkdir(filepath.Dir(rel))

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		r.t.Fatalf("write %s: %v", rel, err)
	}
}

// Mkdir creates a directory relative to Dir, including parents.
func (r *CLI) Mkdir(rel string) {
	r.t.Helper()

	if err := os.MkdirAll(filepath.Join(r.Dir, rel), 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", rel, err)
	}
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("want %q in:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("want no %q in:\n%s", substr, content)
	}
}
