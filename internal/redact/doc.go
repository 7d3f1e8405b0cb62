// Package redact masks secrets in plan output before it is published.
//
// Sensitive attribute assignments (password, token, secret, private_key and
// similar) keep their name and diff marker while quoted values become
// [REDACTED]. Token shapes that can appear anywhere, such as AWS access key
// IDs, JWTs, and GitHub or Slack tokens, are replaced wholesale.
package redact
