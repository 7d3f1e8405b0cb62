// Package github publishes reports through the GitHub REST API.
//
// It creates one completed check run per report item on the pull request's
// head commit, or maintains a single pull-request comment marked with
// [CommentMarker] that later runs edit in place. Rate-limited calls are
// retried with back-off; 401 and 403 responses surface as auth errors.
package github
