package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/artifact"
	"github.com/dshills/tgreport/internal/config"
	"github.com/dshills/tgreport/internal/discover"
	"github.com/dshills/tgreport/internal/github"
	"github.com/dshills/tgreport/internal/logger"
	"github.com/dshills/tgreport/internal/output"
	"github.com/dshills/tgreport/internal/redact"
	"github.com/dshills/tgreport/internal/report"
	"github.com/dshills/tgreport/internal/runctx"
	gh "github.com/google/go-github/v68/github"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Run flags
var (
	flagSearchPath  string
	flagSuffix      string
	flagPrettyRegex string
	flagPrettySep   string
	flagNoDiff      string
	flagMode        string
	flagRedact      bool
	flagToken       string
	flagOwner       string
	flagRepo        string
	flagPR          int
	flagDryRun      bool
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagSkipDirs    string
)

func addSourceFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagSearchPath, "search-path", "", "Directory searched recursively for plan files")
	fs.StringVar(&flagSuffix, "suffix", "", "Plan file suffix, e.g. .diff")
	fs.StringVar(&flagPrettyRegex, "pretty-name-regex", "", "Regex whose capture groups form the display name")
	fs.StringVar(&flagPrettySep, "pretty-name-separator", "", "Separator joining the capture groups")
	fs.StringVar(&flagSkipDirs, "skip-dirs", "", "Directory names never searched (comma-separated)")
	fs.BoolVar(&flagRedact, "redact", false, "Mask secret-looking values in plan bodies")
}

func addRunFlags(fs *pflag.FlagSet) {
	addSourceFlags(fs)
	fs.StringVar(&flagNoDiff, "no-diff-conclusion", "", "Conclusion when no plan files are found (success, failure)")
	fs.StringVar(&flagMode, "mode", "", "Publishing mode (checks, comment)")
	fs.StringVar(&flagToken, "token", "", "GitHub token (default: GITHUB_TOKEN)")
	fs.StringVar(&flagOwner, "owner", "", "Repository owner (default: detected from git remote)")
	fs.StringVar(&flagRepo, "repo", "", "Repository name (default: detected from git remote)")
	fs.IntVar(&flagPR, "pr", 0, "Pull request number, for runs outside GitHub Actions")
	fs.BoolVar(&flagDryRun, "dry-run", false, "Build the report without publishing or uploading")
	fs.StringVar(&flagFormat, "format", "", "Local output format (text, json, markdown, html, sarif)")
	fs.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	fs.StringVar(&flagFailOn, "fail-on", "none", "Exit 1 when the overall conclusion reaches this level (none, neutral, failure)")
}

func buildOverrides(fs *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	set := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	set("searchPath", flagSearchPath)
	set("diffFileSuffix", flagSuffix)
	set("prettyNameRegex", flagPrettyRegex)
	set("prettyNameSeparator", flagPrettySep)
	set("noDiffConclusion", flagNoDiff)
	set("mode", flagMode)
	set("skipDirs", flagSkipDirs)
	set("logLevel", flagLogLevel)
	set("logFormat", flagLogFormat)
	set("token", flagToken)
	if fs != nil && fs.Changed("redact") {
		m["redactSecrets"] = strconv.FormatBool(flagRedact)
	}
	return m
}

// publisher is the GitHub surface the run command needs.
type publisher interface {
	report.CheckPublisher
	UpsertComment(ctx context.Context, id report.RunIdentity, body string) (report.Published, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*gh.PullRequest, error)
}

var newPublisher = func(token, apiURL string) (publisher, error) {
	c, err := github.NewClient(token, apiURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var newUploader = func(getenv func(string) string, log zerolog.Logger) (report.Uploader, error) {
	c, err := artifact.NewFromEnv(getenv, log)
	if err != nil {
		return nil, err
	}
	log.Debug().Stringer("uploader", c).Msg("Artifact uploads enabled")
	return c, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish plan results for a pull request",
	Long: "Search for plan files, classify each one and publish the results as check runs " +
		"(default) or as a single pull-request comment. Inside GitHub Actions the pull request " +
		"comes from the triggering event; elsewhere use --pr or --dry-run.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runReport(cmd.Context(), buildOverrides(cmd.Flags()), os.Getenv)
		return nil
	},
}

func init() {
	addRunFlags(runCmd.Flags())
}

// runReport executes one report run and returns the exit code.
func runReport(ctx context.Context, overrides map[string]string, getenv func(string) string) int {
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	failOn, err := parseFailOn(flagFailOn)
	if err != nil {
		return fail(log, err)
	}

	rep, err := buildAndPublish(ctx, cfg, getenv, log)
	if err != nil {
		return fail(log, err)
	}

	if flagDryRun || flagFormat != "" || flagOut != "" {
		format := flagFormat
		if format == "" {
			format = "text"
		}
		if err := output.WriteReport(rep, format, flagOut); err != nil {
			return fail(log, err)
		}
	}

	overall := rep.Conclusion()
	log.Info().Str("conclusion", string(overall)).Int("items", len(rep.Items)).Msg("Report complete")
	if failOn != "" && report.Rank(overall) >= report.Rank(failOn) {
		return ExitConclusion
	}
	return ExitSuccess
}

func buildAndPublish(ctx context.Context, cfg config.Config, getenv func(string) string, log zerolog.Logger) (*report.Report, error) {
	root, err := filepath.Abs(cfg.SearchPath)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.KindConfiguration, "resolving search path %q", cfg.SearchPath)
	}
	namer, err := report.NewNamer(root, cfg.PrettyNameRegex, cfg.PrettyNameSeparator, log)
	if err != nil {
		return nil, err
	}
	noFiles, err := report.ParseConclusion(cfg.NoDiffConclusion)
	if err != nil {
		return nil, err
	}

	var pub publisher
	if !flagDryRun {
		pub, err = newPublisher(cfg.Token, cfg.APIURL)
		if err != nil {
			return nil, err
		}
	}

	id, err := resolveIdentity(ctx, getenv, pub, log)
	if err != nil {
		return nil, err
	}

	engine := &report.Engine{
		Root:     root,
		Suffix:   cfg.DiffFileSuffix,
		NoFiles:  noFiles,
		Identity: id,
		Source:   discover.Local{SkipDirs: cfg.SkipDirs},
		Namer:    namer,
		Log:      log,
	}
	if cfg.RedactSecrets {
		engine.Redact = redact.Plan
	}
	if !flagDryRun {
		engine.Fallback = &report.Fallback{Root: root, RunURL: id.RunURL(), Redact: engine.Redact, Log: log}
		if runctx.InActions(getenv) {
			up, err := newUploader(getenv, log)
			if err != nil {
				log.Warn().Err(err).Msg("Artifact uploads disabled")
			} else {
				engine.Fallback.Uploader = up
			}
		}
	}

	log.Info().Str("root", root).Str("suffix", cfg.DiffFileSuffix).Msg("Searching for plan files")
	rep, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	rep.Version = version

	if flagDryRun {
		log.Info().Msg("Dry run, nothing published")
		return rep, nil
	}

	switch cfg.Mode {
	case config.ModeComment:
		err = publishComment(ctx, pub, engine.Fallback, rep, log)
	default:
		_, err = report.PublishChecks(ctx, pub, rep, log)
	}
	return rep, err
}

func publishComment(ctx context.Context, pub publisher, fb *report.Fallback, rep *report.Report, log zerolog.Logger) error {
	if rep.Identity.PRNumber == 0 {
		return apperr.New(apperr.KindConfiguration, "comment mode needs a pull request number")
	}

	commentFallback := *fb
	commentFallback.Limit = report.MaxBodyChars - len(github.CommentMarker) - 1
	body, err := commentFallback.FitNarrative(ctx, rep, renderMarkdown)
	if err != nil {
		return err
	}

	p, err := pub.UpsertComment(ctx, rep.Identity, body)
	if err != nil {
		return err
	}
	log.Info().Int64("id", p.ID).Str("url", p.URL).Msg("Published report comment")
	return nil
}

func renderMarkdown(rep *report.Report) (string, error) {
	var buf bytes.Buffer
	if err := (&output.MarkdownWriter{}).Write(&buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// resolveIdentity picks the pull request the report belongs to: the Actions
// event, an explicit --pr, or the local checkout for dry runs.
func resolveIdentity(ctx context.Context, getenv func(string) string, pub publisher, log zerolog.Logger) (report.RunIdentity, error) {
	if flagPR == 0 && runctx.InActions(getenv) {
		return runctx.FromActions(getenv)
	}

	if flagPR > 0 {
		owner, repo := flagOwner, flagRepo
		if owner == "" || repo == "" {
			detected, detectedRepo, err := runctx.DetectRepo()
			if err != nil {
				return report.RunIdentity{}, apperr.Wrap(err, apperr.KindConfiguration, "use --owner and --repo to select the repository")
			}
			if owner == "" {
				owner = detected
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		if pub == nil {
			id := report.RunIdentity{Owner: owner, Repo: repo, PRNumber: flagPR}
			if local, err := runctx.FromGit(); err == nil {
				id.HeadSHA = local.Head
			}
			return id, nil
		}

		log.Info().Msgf("Fetching PR #%d from %s/%s", flagPR, owner, repo)
		pr, err := pub.GetPullRequest(ctx, owner, repo, flagPR)
		if err != nil {
			return report.RunIdentity{}, err
		}
		return runctx.FromPullRequest(owner, repo, pr)
	}

	if flagDryRun {
		local, err := runctx.FromGit()
		if err != nil {
			log.Debug().Err(err).Msg("No git checkout, report has no repository identity")
			return report.RunIdentity{}, nil
		}
		return local.Identity(), nil
	}

	return report.RunIdentity{}, apperr.New(apperr.KindConfiguration,
		"cannot run outside of a pull request: not in GitHub Actions; use --pr to select one or --dry-run")
}

func parseFailOn(s string) (report.Conclusion, error) {
	if s == "" || s == "none" {
		return "", nil
	}
	c, err := report.ParseConclusion(s)
	if err != nil || c == report.Success {
		return "", apperr.Newf(apperr.KindConfiguration, "--fail-on must be none, neutral or failure, got %q", s)
	}
	return c, nil
}

// fail logs err, including the offending plan text for format errors, and
// returns the matching exit code.
func fail(log zerolog.Logger, err error) int {
	log.Error().Msg(err.Error())
	if apperr.Is(err, apperr.KindFormat) {
		if detail := apperr.DetailOf(err); detail != "" {
			log.Info().Msgf("Content of the offending file:\n%s", detail)
		}
	}
	return exitCodeFor(err)
}
