package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/updater"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and check for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "verseprism v%s\n", version)

			current := ctx.updateVersion()
			if current == "" || updater.IsSkipUpdateCheck() {
				return nil
			}
			status, err := updater.CheckLatestWithCache(current, ctx.config.Update.IntervalDays)
			if err == nil && status.HasUpdate {
				fmt.Fprintf(out, "\nUpdate available: v%s. Run 'verseprism upgrade' to update (or re-run the install script).\n", status.Latest)
			}
			return nil
		},
	}
}

func newUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "upgrade",
		Short:       "Upgrade verseprism to the latest release",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			status, err := updater.CheckLatest(version)
			if err != nil {
				fmt.Fprintln(out, updater.CurlFallbackMessage(err))
				return fmt.Errorf("checking for updates: %w", err)
			}
			if !status.HasUpdate {
				fmt.Fprintln(out, "Already up to date.")
				return nil
			}

			newVer, err := updater.Upgrade(version)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), updater.CurlFallbackMessage(err))
				return fmt.Errorf("upgrade failed: %w", err)
			}
			fmt.Fprintf(out, "Upgraded to v%s. Restart verseprism to use the new version.\n", newVer)
			return nil
		},
	}
}
