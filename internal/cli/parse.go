package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/config"
	"github.com/dshills/tgreport/internal/discover"
	"github.com/dshills/tgreport/internal/logger"
	"github.com/dshills/tgreport/internal/plan"
	"github.com/dshills/tgreport/internal/report"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Classify plan files without publishing",
	Long: "Parse the given plan files, or every plan file under --search-path, and print " +
		"each outcome and conclusion. Exits non-zero when a file cannot be parsed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runParse(cmd.Context(), cmd.OutOrStdout(), args, buildOverrides(cmd.Flags()))
		return nil
	},
}

func init() {
	addSourceFlags(parseCmd.Flags())
	parseCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}

// parsed is one line of parse output.
type parsed struct {
	Path       string            `json:"path"`
	Kind       string            `json:"kind"`
	Title      string            `json:"title,omitempty"`
	Count      *plan.ChangeCount `json:"count,omitempty"`
	Conclusion report.Conclusion `json:"conclusion,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func runParse(ctx context.Context, w io.Writer, args []string, overrides map[string]string) int {
	var (
		cfg config.Config
		err error
	)
	if len(args) > 0 {
		cfg, err = config.Resolve(overrides)
	} else {
		cfg, err = config.Load(overrides)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	src := discover.Local{SkipDirs: cfg.SkipDirs}
	paths := args
	if len(paths) == 0 {
		root, err := filepath.Abs(cfg.SearchPath)
		if err != nil {
			return fail(log, apperr.Wrap(err, apperr.KindConfiguration, "resolving search path"))
		}
		for path, err := range src.Files(root, cfg.DiffFileSuffix) {
			if err != nil {
				return fail(log, apperr.Wrapf(err, apperr.KindIO, "searching %s", root))
			}
			paths = append(paths, path)
		}
	}

	var (
		results []parsed
		bad     int
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return fail(log, err)
		}
		text, err := src.ReadText(path)
		if err != nil {
			return fail(log, apperr.Wrapf(err, apperr.KindIO, "reading %s", path))
		}

		o := plan.Parse(text)
		p := parsed{Path: path, Kind: o.Kind.String(), Title: o.Title()}
		if o.Kind == plan.Changes {
			count := o.Count
			p.Count = &count
		}
		c, err := report.ConclusionFor(o)
		if err != nil {
			p.Error = o.Reason
			bad++
		} else {
			p.Conclusion = c
		}
		results = append(results, p)
	}

	if err := writeParsed(w, results, flagFormat); err != nil {
		return fail(log, err)
	}
	if bad > 0 {
		log.Error().Msgf("%d of %d files have wrong format", bad, len(results))
		return ExitRuntimeError
	}
	return ExitSuccess
}

func writeParsed(w io.Writer, results []parsed, format string) error {
	switch format {
	case "", "text":
		for _, p := range results {
			status := string(p.Conclusion)
			detail := p.Title
			if p.Error != "" {
				status, detail = "error", p.Error
			}
			if _, err := fmt.Fprintf(w, "%-8s %s: %s\n", status, p.Path, detail); err != nil {
				return apperr.Wrap(err, apperr.KindIO, "writing output")
			}
		}
		return nil
	case "json":
		if results == nil {
			results = []parsed{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return apperr.Wrap(err, apperr.KindIO, "writing output")
		}
		return nil
	default:
		return apperr.Newf(apperr.KindConfiguration, "parse supports text and json output, got %q", format)
	}
}
