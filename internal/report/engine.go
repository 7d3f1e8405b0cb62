package report

import (
	"context"
	"iter"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/plan"
	"github.com/rs/zerolog"
)

// FileSource enumerates and reads plan files.
type FileSource interface {
	Files(root, suffix string) iter.Seq2[string, error]
	ReadText(path string) (string, error)
}

// Engine runs discovery, parsing, naming, assembly and the oversize
// fallback for one report.
type Engine struct {
	Root     string
	Suffix   string
	NoFiles  Conclusion
	Identity RunIdentity
	Source   FileSource
	Namer    *Namer
	// Fallback may be nil, in which case bodies are never rewritten.
	Fallback *Fallback
	// Redact, if set, scrubs plan bodies before they are published.
	Redact func(string) string
	Log    zerolog.Logger
}

// Collect reads and parses every discovered file in discovery order. The
// first unreadable or unparseable file aborts the whole collection.
func (e *Engine) Collect(ctx context.Context) ([]FileResult, error) {
	var results []FileResult

	for path, err := range e.Source.Files(e.Root, e.Suffix) {
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindIO, "searching %s", e.Root)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.Log.Info().Str("file", path).Msg("Processing file")

		text, err := e.Source.ReadText(path)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindIO, "reading %s", path)
		}

		outcome := plan.Parse(text)
		conclusion, err := ConclusionFor(outcome)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindFormat, "file %s has wrong format, ensure the diff file suffix only points to valid diff files", path)
		}

		body := text
		if e.Redact != nil {
			body = e.Redact(text)
		}

		r := FileResult{
			Path:       path,
			RelPath:    e.Namer.Relative(path),
			Name:       e.Namer.Name(path),
			Outcome:    outcome,
			Conclusion: conclusion,
			Body:       body,
		}
		e.Log.Info().Str("name", r.Name).Str("conclusion", string(conclusion)).Msg(outcome.Title())
		results = append(results, r)
	}

	return results, nil
}

// Run collects all files and assembles the report, applying the oversize
// fallback to every item.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	results, err := e.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rep := Assemble(e.Identity, results, e.NoFiles)
	if len(results) == 0 {
		e.Log.Warn().Str("root", e.Root).Str("suffix", e.Suffix).Msg("No diff files found")
	}

	if e.Fallback != nil {
		for i := range rep.Items {
			e.Fallback.Apply(ctx, &rep.Items[i])
		}
	}
	return rep, nil
}

// Published identifies a remote object created for an item.
type Published struct {
	ID   int64
	Name string
	URL  string
}

// CheckPublisher creates one check run per item.
type CheckPublisher interface {
	CreateCheck(ctx context.Context, id RunIdentity, it Item) (Published, error)
}

// PublishChecks publishes items in order and stops at the first failure.
// Items published before the failure stay published.
func PublishChecks(ctx context.Context, pub CheckPublisher, rep *Report, log zerolog.Logger) ([]Published, error) {
	out := make([]Published, 0, len(rep.Items))
	for _, it := range rep.Items {
		p, err := pub.CreateCheck(ctx, rep.Identity, it)
		if err != nil {
			if apperr.KindOf(err) == "" {
				err = apperr.Wrapf(err, apperr.KindPublish, "creating check %q", it.Name)
			}
			return out, err
		}
		log.Info().Int64("id", p.ID).Str("url", p.URL).Msgf("Created check %s", p.Name)
		out = append(out, p)
	}
	return out, nil
}
