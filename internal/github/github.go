package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/report"
	gh "github.com/google/go-github/v68/github"
)

const defaultAPIURL = "https://api.github.com"

// CommentMarker identifies the report comment so later runs edit it in place.
const CommentMarker = "<!-- tgreport -->"

// Client publishes reports through the GitHub REST API.
type Client struct {
	gh         *gh.Client
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a client authenticated with token. apiURL may be empty
// for github.com or point at a GitHub Enterprise API.
func NewClient(token, apiURL string) (*Client, error) {
	if token == "" {
		return nil, apperr.New(apperr.KindAuth, "GitHub token is not set (GITHUB_TOKEN or the github_token input)")
	}

	c := gh.NewClient(&http.Client{Timeout: 60 * time.Second}).WithAuthToken(token)

	apiURL = strings.TrimRight(apiURL, "/")
	if apiURL != "" && apiURL != defaultAPIURL {
		var err error
		c, err = c.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindConfiguration, "invalid GitHub API URL %q", apiURL)
		}
	}

	return &Client{gh: c, maxRetries: 3, backoff: time.Second}, nil
}

// CreateCheck creates a completed check run for it on the head commit.
func (c *Client) CreateCheck(ctx context.Context, id report.RunIdentity, it report.Item) (report.Published, error) {
	opts := gh.CreateCheckRunOptions{
		Name:       it.Name,
		HeadSHA:    id.HeadSHA,
		Status:     gh.Ptr("completed"),
		Conclusion: gh.Ptr(string(it.Conclusion)),
		Output: &gh.CheckRunOutput{
			Title:   gh.Ptr(it.Title),
			Summary: gh.Ptr(it.Summary),
		},
	}
	if it.Body != "" {
		opts.Output.Text = gh.Ptr(it.Body)
	}
	if u := id.RunURL(); u != "" {
		opts.DetailsURL = gh.Ptr(u)
	}

	var run *gh.CheckRun
	err := c.retry(ctx, func() error {
		var err error
		run, _, err = c.gh.Checks.CreateCheckRun(ctx, id.Owner, id.Repo, opts)
		return err
	})
	if err != nil {
		return report.Published{}, classify(err, fmt.Sprintf("creating check %q", it.Name))
	}

	return report.Published{ID: run.GetID(), Name: run.GetName(), URL: run.GetHTMLURL()}, nil
}

// UpsertComment posts body on the pull request, editing the previous report
// comment when one exists.
func (c *Client) UpsertComment(ctx context.Context, id report.RunIdentity, body string) (report.Published, error) {
	body = CommentMarker + "\n" + body

	existing, err := c.findComment(ctx, id)
	if err != nil {
		return report.Published{}, err
	}

	var comment *gh.IssueComment
	if existing != nil {
		err = c.retry(ctx, func() error {
			var err error
			comment, _, err = c.gh.Issues.EditComment(ctx, id.Owner, id.Repo, existing.GetID(), &gh.IssueComment{Body: gh.Ptr(body)})
			return err
		})
	} else {
		err = c.retry(ctx, func() error {
			var err error
			comment, _, err = c.gh.Issues.CreateComment(ctx, id.Owner, id.Repo, id.PRNumber, &gh.IssueComment{Body: gh.Ptr(body)})
			return err
		})
	}
	if err != nil {
		return report.Published{}, classify(err, fmt.Sprintf("posting comment on PR #%d", id.PRNumber))
	}

	return report.Published{ID: comment.GetID(), Name: "comment", URL: comment.GetHTMLURL()}, nil
}

func (c *Client) findComment(ctx context.Context, id report.RunIdentity) (*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		var (
			comments []*gh.IssueComment
			resp     *gh.Response
		)
		err := c.retry(ctx, func() error {
			var err error
			comments, resp, err = c.gh.Issues.ListComments(ctx, id.Owner, id.Repo, id.PRNumber, opts)
			return err
		})
		if err != nil {
			return nil, classify(err, fmt.Sprintf("listing comments on PR #%d", id.PRNumber))
		}
		for _, cm := range comments {
			if strings.HasPrefix(cm.GetBody(), CommentMarker) {
				return cm, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetPullRequest fetches a pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*gh.PullRequest, error) {
	var pr *gh.PullRequest
	err := c.retry(ctx, func() error {
		var err error
		pr, _, err = c.gh.PullRequests.Get(ctx, owner, repo, number)
		return err
	})
	if err != nil {
		var er *gh.ErrorResponse
		if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
			return nil, apperr.Newf(apperr.KindConfiguration, "PR #%d not found in %s/%s", number, owner, repo)
		}
		return nil, classify(err, fmt.Sprintf("fetching PR #%d", number))
	}
	return pr, nil
}

// classify turns an API error into an apperr with the right kind.
func classify(err error, action string) error {
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrapf(err, apperr.KindAuth, "%s: authentication failed", action)
		}
	}
	return apperr.Wrap(err, apperr.KindPublish, action)
}
