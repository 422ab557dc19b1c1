package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/parser"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var src sourceFlags
	var versesPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show verse counts per chapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			if versesPath != "" {
				res, err := loadVerses(versesPath)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), versesPath, res)
				return nil
			}

			r, err := loadAndParse(logging.WithRunID(cmd.Context()), cfg, &src, history.CommandStats)
			if err != nil {
				return r.finish(err)
			}
			printStats(cmd.OutOrStdout(), r.doc.Origin, r.result)
			return r.finish(nil)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&versesPath, "verses", "", "Read verses from a previous extract (.json or .db)")
	cmd.MarkFlagsMutuallyExclusive("verses", "url")
	cmd.MarkFlagsMutuallyExclusive("verses", "file")
	cmd.MarkFlagsMutuallyExclusive("verses", "text")

	return cmd
}

func printStats(w io.Writer, origin string, res *parser.Result) {
	chapters := res.Chapters()
	rows := make([][]string, 0, len(chapters))
	for _, ch := range chapters {
		rows = append(rows, []string{ch.Label, strconv.Itoa(ch.Verses), ch.First, ch.Last})
	}

	fmt.Fprintf(w, "Source: %s\n", origin)
	fmt.Fprintln(w, renderTable(
		[]string{"Chapter", "Verses", "First", "Last"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintln(w, res.Summary())
	if !res.HeaderFound {
		fmt.Fprintln(w, "Start marker not found; content starts at the first marked paragraph")
	}
	if res.EmptyMarkers > 0 {
		fmt.Fprintf(w, "%d markers closed an empty verse and were skipped.\n", res.EmptyMarkers)
	}
}
