// Package logger builds the zerolog logger used across tgreport.
//
// Three output formats are supported: json, text (human-readable console
// output) and actions, which emits GitHub workflow commands so warnings and
// errors become annotations on the workflow run.
package logger
