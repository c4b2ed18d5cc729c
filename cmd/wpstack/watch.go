package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/template"
	"github.com/wpstack/wpstack/internal/validation"
)

// newWatchCmd creates the "watch" subcommand for re-rendering on env file changes.
func newWatchCmd(opts *rootOptions) *cobra.Command {
	var w watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render when an env file changes",
		Long: `Watch monitors the env files for changes and re-renders the template.

The watch command:
- Monitors the --env-file files (./.env by default)
- Validates the configuration and topology on each change
- Writes the template if validation passes (unless --lint-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    wpstack watch -o template.json
    wpstack watch --env-file prod.env --lint-only
    wpstack watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), opts, w, cmd.OutOrStdout(), log)
		},
	}

	cmd.Flags().BoolVar(&w.lintOnly, "lint-only", false, "Only validate, skip writing the template")
	cmd.Flags().DurationVar(&w.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&w.outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&w.outputFile, "output", "o", "", "Output file for build (default: summary only)")

	return cmd
}

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// watchedFiles returns the absolute paths of the env files to watch.
func watchedFiles(opts *rootOptions) ([]string, error) {
	files := opts.envFiles
	if len(files) == 0 {
		files = []string{defaultEnvFile}
	}

	var out []string
	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out, nil
}

// runWatch re-renders on every change to the env files until ctx is done.
// Directories are watched rather than files so that editors replacing the
// file by rename are still seen.
func runWatch(ctx context.Context, opts *rootOptions, w watchOptions, out io.Writer, log logrus.FieldLogger) error {
	files, err := watchedFiles(opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	targets := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		targets[f] = true
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		log.WithField("dir", dir).Debug("watching")
	}
	for _, f := range files {
		fmt.Fprintf(out, "Watching: %s\n", f)
	}

	fmt.Fprintln(out, "Running initial build...")
	rebuild(opts, w, out)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild(opts, w, out)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// rebuild loads, renders and checks the configuration and reports whether
// a template was produced.
func rebuild(opts *rootOptions, w watchOptions, out io.Writer) bool {
	cfg, err := opts.loadConfig()
	if err != nil {
		fmt.Fprintf(out, "Config error: %v\n", err)
		return false
	}
	r, err := render(cfg)
	if err != nil {
		fmt.Fprintf(out, "Build error: %v\n", err)
		return false
	}

	checks := validation.CheckStack(r.template, cfg)
	for _, msg := range checks.Errors {
		fmt.Fprintf(out, "ERROR: %s\n", msg)
	}
	issues := lintIssues(r)
	for _, issue := range issues {
		fmt.Fprintf(out, "%s: %s: %s [%s]\n", issue.Path, issue.Severity, issue.Message, issue.Rule)
	}
	if !checks.Success {
		fmt.Fprintln(out, "Validation failed, skipping build")
		return false
	}
	fmt.Fprintln(out, "Validation passed")

	if w.lintOnly {
		return true
	}

	data, err := template.Encode(r.template, template.Format(w.outputFormat))
	if err != nil {
		fmt.Fprintf(out, "Output error: %v\n", err)
		return false
	}

	if w.outputFile == "" {
		fmt.Fprintln(out, "Build successful")
		fmt.Fprintf(out, "Generated %d resources\n", len(r.template.Resources))
		return true
	}
	if err := writeOutput(out, w.outputFile, data); err != nil {
		fmt.Fprintf(out, "Failed to write output: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Build successful, wrote %s\n", w.outputFile)
	return true
}
