package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/output"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var src sourceFlags
	var outPath string
	var formatFlag string

	cmd := &cobra.Command{
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			if format == "" && cfg.Output.Format != "" {
				if format, err = output.ParseFormat(cfg.Output.Format); err != nil {
					return err
				}
			}
			path := outPath
			if path == "" {
				path = cfg.Output.Path
			}

			runCtx := logging.WithRunID(cmd.Context())
			started := time.Now()

			r, err := loadAndParse(runCtx, cfg, &src, history.CommandExtract)
			if err != nil {
				return r.finish(err)
			}

			if path == output.StdoutPath {
				if format != "" && format != output.FormatJSON {
					return r.finish(output.ErrStdoutFormat)
				}
				if err := output.EncodeJSON(cmd.OutOrStdout(), r.result.Verses); err != nil {
					return r.finish(err)
				}
				format = output.FormatJSON
			} else {
				meta := output.Meta{Origin: r.doc.Origin, Hash: r.doc.Hash, Prefix: r.parserCf.Prefix}
				if format, err = output.Write(path, format, r.result.Verses, meta); err != nil {
					return r.finish(err)
				}
			}
			logging.OutputWritten(runCtx, path, string(format), len(r.result.Verses), time.Since(started))

			msg := fmt.Sprintf("Successfully extracted %d verses to %s\n", len(r.result.Verses), path)
			if path == output.StdoutPath {
				fmt.Fprint(cmd.ErrOrStderr(), msg)
			} else {
				fmt.Fprint(cmd.OutOrStdout(), msg)
			}
			return r.finish(nil)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path, \"-\" for stdout (default from config, \"verses.json\")")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Output format: json or sqlite (default from the output extension)")

	return cmd
}
