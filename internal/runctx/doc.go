// Package runctx resolves which pull request and commit a report belongs to.
//
// Inside GitHub Actions the identity comes from the GITHUB_* environment and
// the pull_request event payload; any other trigger, or a pull request that
// is not open, is a configuration error. Outside Actions the owner and repo
// are detected from the origin remote and the head from the local checkout.
package runctx
