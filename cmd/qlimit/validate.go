package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/ajiwo/qlimit/internal/logging"
	"github.com/ajiwo/qlimit/quota"
)

var validateFlags struct {
	watch bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a quota file",
	Long: `Load a quota file, apply environment overrides and validate every limiter.

Examples:
  # Validate once
  qlimit validate --config quotas.yaml

  # Keep validating as the file changes
  qlimit validate --config quotas.yaml --watch`,
	RunE: validateQuotas,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateFlags.watch, "watch", "w", false, "re-validate whenever the file changes")
}

func validateQuotas(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	err := validateFile(out, cfgFile)
	if !validateFlags.watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchFile(ctx, newLogger().WithName("validate"), cfgFile, func() {
		if err := validateFile(out, cfgFile); err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
		}
	})
}

// validateFile loads path and prints each limiter's quota
func validateFile(w io.Writer, path string) error {
	f, err := quota.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ %s: %d limiter(s)\n", path, len(f.Limiters))
	for _, name := range f.Names() {
		fmt.Fprintf(w, "  %s: %s\n", name, describeQuota(f.Limiters[name]))
	}
	return nil
}

// describeQuota renders a quota on one line
func describeQuota(q quota.Quota) string {
	if q.IsUnlimited() {
		return "unlimited"
	}

	desc := "concurrency=unlimited"
	if q.HasConcurrency() {
		desc = fmt.Sprintf("concurrency=%d", q.Concurrency)
	}
	if q.HasRate() {
		desc += fmt.Sprintf(" rate=%g/%v", q.Rate, q.Interval)
	}
	if q.MaxDelay > 0 {
		desc += fmt.Sprintf(" max_delay=%v", q.MaxDelay)
	}
	return desc
}

// watchFile calls onChange after every write to path until ctx ends.
// The parent directory is watched so editors that replace the file are seen.
func watchFile(ctx context.Context, logger logr.Logger, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	logger.V(logging.DEFAULT).Info("Watching quota file", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.V(logging.VERBOSE).Info("Quota file changed", "op", event.Op.String())
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error(err, "File watcher error")
		}
	}
}
