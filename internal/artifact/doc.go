// Package artifact uploads files as GitHub Actions workflow artifacts.
//
// It speaks the v4 results service protocol: create the artifact, PUT a zip
// archive to the signed blob URL, then finalize with the archive size and
// SHA-256. Credentials come from the runner's ACTIONS_RUNTIME_TOKEN.
package artifact
