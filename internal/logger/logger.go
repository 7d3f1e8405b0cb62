package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Formats understood by New.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatActions = "actions"
)

// DefaultFormat picks the actions format inside GitHub Actions and text otherwise.
func DefaultFormat() string {
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return FormatActions
	}
	return FormatText
}

// New creates a logger writing to w. Unknown levels fall back to info and an
// empty format falls back to DefaultFormat.
func New(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "" {
		format = DefaultFormat()
	}

	var out io.Writer
	switch format {
	case FormatText:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	case FormatActions:
		out = ActionsWriter(w)
	default:
		out = w
	}

	l := zerolog.New(out).Level(lvl)
	if format != FormatActions {
		l = l.With().Timestamp().Logger()
	}
	return l
}

// ActionsWriter renders log events as GitHub workflow commands so warnings
// and errors show up as annotations on the run.
func ActionsWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		PartsOrder:    []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel:   func(i interface{}) string { return workflowCommand(fmt.Sprint(i)) },
		FormatPrepare: escapeCommandData,
	}
}

func workflowCommand(level string) string {
	switch level {
	case "debug", "trace":
		return "::debug::"
	case "warn":
		return "::warning::"
	case "error", "fatal", "panic":
		return "::error::"
	default:
		return ""
	}
}

// commandDataEscaper encodes the characters that end or corrupt a workflow
// command. "%" must be replaced first.
var commandDataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// escapeCommandData escapes every string value of events that become workflow
// commands, so multi-line messages stay in a single annotation. Plain info
// lines are left readable.
func escapeCommandData(evt map[string]interface{}) error {
	if workflowCommand(fmt.Sprint(evt[zerolog.LevelFieldName])) == "" {
		return nil
	}
	for k, v := range evt {
		if k == zerolog.LevelFieldName {
			continue
		}
		if s, ok := v.(string); ok {
			evt[k] = commandDataEscaper.Replace(s)
		}
	}
	return nil
}
