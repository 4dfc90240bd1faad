package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const (
	repoSlug      = "happyhackingspace/accessguru"
	checksumsFile = "checksums.txt"
)

func (c *CLI) newUpCommand() *cobra.Command {
	var check, prerelease bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Update accessguru to the latest release",
		Long: `Downloads the latest GitHub release of accessguru and replaces the running
binary once the asset matches the release checksums. Model bundles are left
as they are; retrain them after an update that changes the feature set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.selfUpdate(cmd.Context(), cmd.OutOrStdout(), check, prerelease)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only report whether a newer release exists")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include pre-releases")
	return cmd
}

// currentVersion returns v without a leading "v". Development builds report
// 0.0.0 so that every release is newer.
func currentVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "dev" {
		return "0.0.0"
	}
	return v
}

func (c *CLI) selfUpdate(ctx context.Context, out io.Writer, check, prerelease bool) error {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator:  &selfupdate.ChecksumValidator{UniqueFilename: checksumsFile},
		Prerelease: prerelease,
	})
	if err != nil {
		return fmt.Errorf("up: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return fmt.Errorf("up: detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("up: no %s release for %s/%s", repoSlug, runtime.GOOS, runtime.GOARCH)
	}

	if latest.LessOrEqual(currentVersion(c.version)) {
		_, _ = fmt.Fprintf(out, "accessguru %s is up to date\n", c.version)
		return nil
	}
	if check {
		_, _ = fmt.Fprintf(out, "accessguru %s is available (running %s)\n", latest.Version(), c.version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("up: %w", err)
	}
	slog.Info("Updating", "from", c.version, "to", latest.Version(), "asset", latest.AssetName)
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("up: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Updated accessguru to %s\n", latest.Version())
	return nil
}
