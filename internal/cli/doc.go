// Package cli wires together the Cobra command tree for the tgreport binary.
//
// It defines the root command and its subcommands (run, parse, config,
// version), binds flags, reads configuration, drives the report engine and
// the GitHub publishers, and maps error kinds to deterministic exit codes:
// 2 for configuration problems, 3 for authentication failures and 4 for
// everything else. With --fail-on, a report whose overall conclusion reaches
// the threshold exits 1.
package cli
