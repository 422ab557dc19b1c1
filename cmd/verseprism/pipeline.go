package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/config"
	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/output"
	"github.com/CaptShanks/verseprism/internal/parser"
	"github.com/CaptShanks/verseprism/internal/source"
)

// sourceFlags selects the corpus and the marker convention.
type sourceFlags struct {
	url         string
	file        string
	text        string
	prefix      string
	startMarker string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "Fetch the corpus from this URL")
	flags.StringVar(&f.file, "file", "", "Read the corpus from this file (.xz is decompressed)")
	flags.StringVar(&f.text, "text", "", "Use this text as the corpus")
	flags.StringVar(&f.prefix, "prefix", "", "Verse marker prefix (default from config, \"Avg\")")
	flags.StringVar(&f.startMarker, "start-marker", "", "Line that opens the verse content (default from config, \"# Text\")")
	cmd.MarkFlagsMutuallyExclusive("url", "file", "text")
}

// spec resolves the flags against configured defaults.
func (f *sourceFlags) spec(cfg *config.Config) source.Spec {
	switch {
	case f.url != "" || f.file != "" || f.text != "":
		return source.Spec{URL: f.url, File: f.file, Text: f.text}
	case cfg.Source.File != "":
		return source.Spec{File: cfg.Source.File}
	default:
		return source.Spec{URL: cfg.Source.URL}
	}
}

func (f *sourceFlags) parserConfig(cfg *config.Config) parser.Config {
	pc := parser.Config{Prefix: cfg.Parser.Prefix, StartMarker: cfg.Parser.StartMarker}
	if f.prefix != "" {
		pc.Prefix = f.prefix
	}
	if f.startMarker != "" {
		pc.StartMarker = f.startMarker
	}
	return pc
}

// run is one pass over a corpus: retrieval, parse and the history record.
type run struct {
	ctx      context.Context
	cfg      *config.Config
	command  string
	doc      *source.Document
	result   *parser.Result
	parserCf parser.Config
	histPath string
}

// loadAndParse retrieves and parses the corpus named by f. The source text is
// recorded in history as soon as it is retrieved; finish marks the outcome.
func loadAndParse(ctx context.Context, cfg *config.Config, f *sourceFlags, command string) (*run, error) {
	r := &run{ctx: ctx, cfg: cfg, command: command}

	p, err := parser.New(f.parserConfig(cfg))
	if err != nil {
		return r, err
	}
	r.parserCf = p.Config()

	loader := source.NewLoader(cfg.FetchTimeout(), cfg.Fetch.UserAgent)
	doc, err := loader.Load(ctx, f.spec(cfg))
	if err != nil {
		return r, err
	}
	r.doc = doc
	logging.SourceLoaded(ctx, string(doc.Kind), doc.Origin, doc.Size, doc.Hash)
	r.record()

	return r, r.parse(p)
}

// replay parses text stored in a history entry with the marker convention
// recorded for it.
func replay(ctx context.Context, cfg *config.Config, path string, prefixOverride string) (*run, error) {
	header, body, err := history.ReadEntry(path)
	if err != nil {
		return nil, err
	}

	pc := parser.Config{Prefix: cfg.Parser.Prefix, StartMarker: cfg.Parser.StartMarker}
	if v := history.HeaderField(header, "Prefix"); v != "" {
		pc.Prefix = v
	}
	// An empty Start line means the run searched for no start marker.
	if v, ok := history.LookupHeaderField(header, "Start"); ok {
		pc.StartMarker = v
	}
	if prefixOverride != "" {
		pc.Prefix = prefixOverride
	}

	doc := source.FromText(body)
	if origin := history.HeaderField(header, "Source"); origin != "" {
		doc.Origin = origin
	}

	r := &run{ctx: ctx, cfg: cfg, doc: doc, parserCf: pc}
	p, err := parser.New(pc)
	if err != nil {
		return r, err
	}
	return r, r.parse(p)
}

func (r *run) parse(p *parser.Parser) error {
	res, err := p.Parse(r.doc.Text)
	if err != nil {
		return err
	}
	r.result = res
	logging.ParseCompleted(r.ctx, len(res.Verses), res.ContentStart, res.HeaderFound, res.DroppedLines)
	return nil
}

func (r *run) record() {
	if !r.cfg.History.Enabled || r.command == "" || r.doc == nil {
		return
	}
	path, err := history.CreateHistoryFile(history.Record{
		Command:     r.command,
		Origin:      r.doc.Origin,
		Hash:        r.doc.Hash,
		Prefix:      r.parserCf.Prefix,
		StartMarker: r.parserCf.StartMarker,
	}, r.doc.Text)
	if err != nil {
		logging.FromContext(r.ctx).Warn("history not recorded", "error", err)
		return
	}
	r.histPath = path
}

// finish stamps the history entry with the outcome of the run and prunes old
// entries. It never changes err.
func (r *run) finish(err error) error {
	if r == nil || r.histPath == "" {
		return err
	}
	status := history.StatusSuccess
	if err != nil {
		status = history.StatusFailed
	}
	logger := logging.FromContext(r.ctx)
	if _, renameErr := history.UpdateFilenameWithStatus(r.histPath, status); renameErr != nil {
		logger.Warn("history status not recorded", "error", renameErr)
	}
	if removed, cleanErr := history.CleanupOldFiles(); cleanErr != nil {
		logger.Warn("history cleanup failed", "error", cleanErr)
	} else if removed > 0 {
		logger.Debug("history pruned", "removed", removed)
	}
	return err
}

// loadVerses reads verses previously written by extract.
func loadVerses(path string) (*parser.Result, error) {
	if output.FormatFromPath(path) == output.FormatSQLite {
		verses, err := output.ReadSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &parser.Result{Verses: verses, HeaderFound: true}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	verses, err := output.DecodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &parser.Result{Verses: verses, HeaderFound: true}, nil
}

func isNumeric(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}
