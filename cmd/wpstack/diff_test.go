package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wpstack/wpstack/internal/differ"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd(&rootOptions{})

	if cmd.Use != "diff [template1] [template2]" {
		t.Errorf("Use = %q, want 'diff [template1] [template2]'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	// Check flags exist
	if cmd.Flags().Lookup("format") == nil {
		t.Error("missing --format flag")
	}

	if cmd.Flags().Lookup("ignore-order") == nil {
		t.Error("missing --ignore-order flag")
	}

	if cmd.Flags().Lookup("deployed") == nil {
		t.Error("missing --deployed flag")
	}
}

func TestDiff_RenderedAgainstFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeEnvFile(t, dir, "")
	templateFile := filepath.Join(dir, "template.json")

	if _, err := execute(t, "build", "--env-file", envFile, "-o", templateFile); err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := execute(t, "diff", templateFile, "--env-file", envFile)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "No differences.") {
		t.Errorf("diff of a fresh build = %q, want no differences", out)
	}

	// A capacity change shows up as a modified scalable target.
	changed := writeEnvFile(t, dir, "MAX_CAP=4\n")
	out, err = execute(t, "diff", templateFile, "--env-file", changed, "--format", "json")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}

	var result struct {
		Summary struct {
			Modified int `json:"modified"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("diff output is not JSON: %v\n%s", err, out)
	}
	if result.Summary.Modified == 0 {
		t.Errorf("MAX_CAP change produced no modified resources:\n%s", out)
	}
}

func TestDiff_TwoFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.yaml")

	if err := os.WriteFile(a, []byte(`{"Resources":{"Logs":{"Type":"AWS::Logs::LogGroup","Properties":{"RetentionInDays":30}}}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("Resources:\n  Logs:\n    Type: AWS::Logs::LogGroup\n    Properties:\n      RetentionInDays: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "diff", a, b)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "~ Logs (AWS::Logs::LogGroup)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "0 added, 0 removed, 1 modified") {
		t.Errorf("output = %q", out)
	}
}

func TestDiff_BadArguments(t *testing.T) {
	if _, err := execute(t, "diff", "a.json", "b.json", "--deployed"); err == nil {
		t.Error("two files with --deployed should fail")
	}

	dir := t.TempDir()
	envFile := writeEnvFile(t, dir, "")
	if _, err := execute(t, "diff", "--env-file", envFile); err == nil {
		t.Error("diff without templates or --deployed should fail")
	}
}

func TestPrintDiff_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := outputDiffResult(&buf, &differ.Result{}, "text"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No differences.\n" {
		t.Errorf("output = %q", buf.String())
	}
	if err := outputDiffResult(&buf, &differ.Result{}, "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}
