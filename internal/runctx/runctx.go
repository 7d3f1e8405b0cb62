package runctx

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/report"
	gh "github.com/google/go-github/v68/github"
)

// Events that carry a pull request payload.
const (
	EventPullRequest       = "pull_request"
	EventPullRequestTarget = "pull_request_target"
)

// InActions reports whether the process runs inside a GitHub Actions job.
func InActions(getenv func(string) string) bool {
	return getenv("GITHUB_ACTIONS") == "true"
}

// FromActions resolves the run identity from the GitHub Actions environment
// and the event payload file it points to.
func FromActions(getenv func(string) string) (report.RunIdentity, error) {
	event := getenv("GITHUB_EVENT_NAME")
	if event != EventPullRequest && event != EventPullRequestTarget {
		return report.RunIdentity{}, apperr.Newf(apperr.KindConfiguration,
			"cannot run outside of a pull request: triggering event is %q", event)
	}

	path := getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return report.RunIdentity{}, apperr.New(apperr.KindConfiguration, "GITHUB_EVENT_PATH is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return report.RunIdentity{}, apperr.Wrap(err, apperr.KindConfiguration, "reading event payload")
	}
	var ev gh.PullRequestEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return report.RunIdentity{}, apperr.Wrap(err, apperr.KindConfiguration, "parsing event payload")
	}
	if ev.PullRequest == nil {
		return report.RunIdentity{}, apperr.New(apperr.KindConfiguration, "cannot run outside of a pull request: event payload has no pull_request")
	}

	owner, repo, ok := strings.Cut(getenv("GITHUB_REPOSITORY"), "/")
	if !ok {
		owner = ev.GetRepo().GetOwner().GetLogin()
		repo = ev.GetRepo().GetName()
	}

	id, err := FromPullRequest(owner, repo, ev.PullRequest)
	if err != nil {
		return report.RunIdentity{}, err
	}
	id.ServerURL = getenv("GITHUB_SERVER_URL")
	if v := getenv("GITHUB_RUN_ID"); v != "" {
		id.RunID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return report.RunIdentity{}, apperr.Wrapf(err, apperr.KindConfiguration, "invalid GITHUB_RUN_ID %q", v)
		}
	}
	return id, nil
}

// FromPullRequest builds a run identity for an open pull request.
func FromPullRequest(owner, repo string, pr *gh.PullRequest) (report.RunIdentity, error) {
	if owner == "" || repo == "" {
		return report.RunIdentity{}, apperr.New(apperr.KindConfiguration, "repository owner and name are required")
	}
	if state := pr.GetState(); state != "open" {
		return report.RunIdentity{}, apperr.Newf(apperr.KindConfiguration,
			"cannot run outside of an open pull request: PR #%d is %s", pr.GetNumber(), state)
	}
	sha := pr.GetHead().GetSHA()
	if sha == "" {
		return report.RunIdentity{}, apperr.Newf(apperr.KindConfiguration, "PR #%d has no head commit", pr.GetNumber())
	}
	return report.RunIdentity{
		Owner:    owner,
		Repo:     repo,
		HeadSHA:  sha,
		PRNumber: pr.GetNumber(),
	}, nil
}
