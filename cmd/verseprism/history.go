package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/tui"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List, replay and clear previous runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryViewCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var onlyExtract, onlyView, onlyStats bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(cmd); err != nil {
				return err
			}

			filter := ""
			switch {
			case onlyExtract:
				filter = history.CommandExtract
			case onlyView:
				filter = history.CommandView
			case onlyStats:
				filter = history.CommandStats
			}

			entries, err := history.ListEntries(filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history entries found.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				status := strings.ToUpper(e.Status)
				if status == "" {
					status = "-"
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					e.Timestamp.Format("2006-01-02 15:04:05"),
					history.TruncatePath(e.Source, 30),
					e.Command,
					status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "TIMESTAMP", "SOURCE", "COMMAND", "STATUS"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyExtract, "extract", false, "Only show extract runs")
	cmd.Flags().BoolVar(&onlyView, "view", false, "Only show view runs")
	cmd.Flags().BoolVar(&onlyStats, "stats", false, "Only show stats runs")
	cmd.MarkFlagsMutuallyExclusive("extract", "view", "stats")
	return cmd
}

func newHistoryViewCommand(ctx *commandContext) *cobra.Command {
	var printMode bool
	var prefix string

	cmd := &cobra.Command{
		Use:   "view [# | file]",
		Short: "Re-parse and show a recorded run",
		Long: `Re-parse the stored text of a previous run and show its verses.

The argument is a number from "history list" or a history file path.
Without an argument an interactive picker is opened.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			path, err := resolveHistoryEntry(args)
			if err != nil {
				return err
			}
			if path == "" {
				return nil // picker cancelled
			}

			r, err := replay(logging.WithRunID(cmd.Context()), cfg, path, prefix)
			if err != nil {
				return err
			}
			return showVerses(cmd, ctx, r.result, r.doc.Origin, printMode)
		},
	}

	cmd.Flags().BoolVarP(&printMode, "print", "p", false, "Print verses instead of opening the browser")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Marker prefix (default: the one recorded with the run)")
	return cmd
}

// resolveHistoryEntry maps a list number or path to a history file. With no
// argument the picker chooses; an empty path means it was cancelled.
func resolveHistoryEntry(args []string) (string, error) {
	if len(args) == 1 && !isNumeric(args[0]) {
		return args[0], nil
	}

	entries, err := history.ListEntries("")
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no history entries found")
	}

	if len(args) == 0 {
		return tui.RunPicker(entries)
	}

	n, _ := strconv.Atoi(args[0])
	if n < 1 || n > len(entries) {
		return "", fmt.Errorf("history entry %d out of range (1-%d)", n, len(entries))
	}
	return entries[n-1].Path, nil
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			dir, err := history.GetHistoryDir()
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintf(out, "Delete all history entries in %s? [y/N] ", filepath.Clean(dir))
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			removed, err := history.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d history entries.\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
