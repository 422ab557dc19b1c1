package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/parser"
	"github.com/CaptShanks/verseprism/internal/tui"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	var src sourceFlags
	var versesPath string
	var printMode bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse extracted verses interactively",
		Long: `Browse verses by chapter with search and expand/collapse.

The browser needs a terminal; with --print or when stdout is not a terminal
the verses are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			var res *parser.Result
			var origin string
			var r *run
			if versesPath != "" {
				if res, err = loadVerses(versesPath); err != nil {
					return err
				}
				origin = versesPath
			} else {
				r, err = loadAndParse(logging.WithRunID(cmd.Context()), cfg, &src, history.CommandView)
				if err != nil {
					return r.finish(err)
				}
				res, origin = r.result, r.doc.Origin
			}

			return r.finish(showVerses(cmd, ctx, res, origin, printMode))
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&versesPath, "verses", "", "View verses from a previous extract (.json or .db)")
	cmd.Flags().BoolVarP(&printMode, "print", "p", false, "Print verses instead of opening the browser")
	cmd.MarkFlagsMutuallyExclusive("verses", "url")
	cmd.MarkFlagsMutuallyExclusive("verses", "file")
	cmd.MarkFlagsMutuallyExclusive("verses", "text")

	return cmd
}

// showVerses opens the browser, or prints when asked to or when stdout is
// not a terminal.
func showVerses(cmd *cobra.Command, ctx *commandContext, res *parser.Result, origin string, printMode bool) error {
	if printMode || !stdoutIsTerminal(cmd) {
		return tui.PrintVerses(cmd.OutOrStdout(), res, origin)
	}
	return tui.Run(res, origin, ctx.updateVersion(), ctx.config.Update.IntervalDays)
}

func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
