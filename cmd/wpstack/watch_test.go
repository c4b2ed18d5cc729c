package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wpstack/wpstack/internal/logging"
)

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&rootOptions{})

	if cmd.Use != "watch" {
		t.Errorf("Use = %q, want 'watch'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	// Check flags exist
	if cmd.Flags().Lookup("lint-only") == nil {
		t.Error("missing --lint-only flag")
	}

	if cmd.Flags().Lookup("debounce") == nil {
		t.Error("missing --debounce flag")
	}
}

func TestDebounceDefault(t *testing.T) {
	cmd := newWatchCmd(&rootOptions{})

	flag := cmd.Flags().Lookup("debounce")
	if flag == nil {
		t.Fatal("missing --debounce flag")
	}

	if flag.DefValue != "500ms" {
		t.Errorf("debounce default = %q, want '500ms'", flag.DefValue)
	}
}

func TestWatchedFiles(t *testing.T) {
	files, err := watchedFiles(&rootOptions{envFiles: []string{"a.env", "./a.env", "b.env"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("watchedFiles = %v, want 2 unique files", files)
	}
	for _, f := range files {
		if !filepath.IsAbs(f) {
			t.Errorf("%s is not absolute", f)
		}
	}

	files, err = watchedFiles(&rootOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != defaultEnvFile {
		t.Errorf("watchedFiles default = %v, want .env", files)
	}
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	envFile := writeEnvFile(t, dir, "STACK_NAME=WatchStack\n")
	output := filepath.Join(dir, "template.json")
	opts := &rootOptions{envFiles: []string{envFile}}

	var out bytes.Buffer
	if !rebuild(opts, watchOptions{outputFormat: "json", outputFile: output}, &out) {
		t.Fatalf("rebuild failed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "wrote "+output) {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("template not written: %v", err)
	}

	out.Reset()
	if err := os.WriteFile(envFile, []byte("MIN_CAP=5\nMAX_CAP=2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if rebuild(opts, watchOptions{outputFormat: "json"}, &out) {
		t.Error("rebuild succeeded with invalid capacities")
	}
	if !strings.Contains(out.String(), "MIN_CAP") {
		t.Errorf("output should name the invalid variable: %q", out.String())
	}
}

func TestRebuild_LintOnly(t *testing.T) {
	dir := t.TempDir()
	opts := &rootOptions{envFiles: []string{writeEnvFile(t, dir, "")}}

	var out bytes.Buffer
	if !rebuild(opts, watchOptions{lintOnly: true}, &out) {
		t.Fatalf("rebuild failed:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Build successful") {
		t.Error("--lint-only should not build")
	}
	if !strings.Contains(out.String(), "Validation passed") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunWatch_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	envFile := writeEnvFile(t, dir, "STACK_NAME=First\n")
	opts := &rootOptions{envFiles: []string{envFile}}

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, opts, watchOptions{lintOnly: true, debounce: 10 * time.Millisecond}, out, logging.Discard())
	}()

	waitFor(t, out, "Watching for changes")
	if err := os.WriteFile(envFile, []byte("STACK_NAME=Second\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "Change detected")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runWatch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop")
	}
}

func waitFor(t *testing.T, out *syncBuffer, substr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", substr, out.String())
}
