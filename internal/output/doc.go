// Package output formats tgreport reports for display or machine consumption.
//
// Five formats are supported:
//   - text     : coloured terminal summary, one line per plan (default)
//   - json     : full structured report with the overall conclusion
//   - markdown : the PR comment narrative with a collapsible section per plan
//   - html     : the markdown narrative rendered as a standalone page
//   - sarif    : SARIF v2.1.0, one result per plan
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteReport] to write straight to a file or stdout.
package output
