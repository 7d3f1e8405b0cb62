package runctx

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dshills/tgreport/internal/report"
)

// Local describes the checkout tgreport runs in outside of Actions.
type Local struct {
	Owner string
	Repo  string
	Head  string
}

// FromGit collects repository metadata from the local checkout. Owner and
// repo are left empty when origin is missing or unparseable.
func FromGit() (Local, error) {
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		return Local{}, fmt.Errorf("not a git repository: %w", err)
	}
	l := Local{Head: strings.TrimSpace(head)}
	if owner, repo, err := DetectRepo(); err == nil {
		l.Owner, l.Repo = owner, repo
	}
	return l, nil
}

// Identity returns a run identity for a local dry run against HEAD.
func (l Local) Identity() report.RunIdentity {
	return report.RunIdentity{Owner: l.Owner, Repo: l.Repo, HeadSHA: l.Head}
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := gitOutput("remote", "get-url", "origin")
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(out))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
