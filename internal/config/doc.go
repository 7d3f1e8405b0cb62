// Package config loads and merges tgreport configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables: GitHub Actions inputs (INPUT_SEARCH_PATH,
//     INPUT_DIFF_FILE_SUFFIX, ...), then TGREPORT_* equivalents, optionally
//     seeded from a .env file in the working directory
//  3. Config file ($XDG_CONFIG_HOME/tgreport/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged and validated [Config], [Save] to write the
// config file, and [SetField] to update a single key.
package config
