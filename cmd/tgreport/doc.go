// Tgreport publishes terragrunt/terraform plan results to GitHub pull requests.
//
// It searches a directory for plan output files, classifies each one as
// "no changes", "changes" or unparseable, and publishes the results as one
// check run per file or as a single pull-request comment. Plans too large
// for GitHub are uploaded as workflow artifacts.
//
// Usage:
//
//	tgreport run                           # inside a pull_request workflow
//	tgreport run --mode comment            # one comment instead of check runs
//	tgreport run --pr 42 --search-path .   # from a local checkout
//	tgreport run --dry-run --format html --out report.html
//	tgreport parse plans/*.diff            # classify files, publish nothing
//	tgreport config show                   # print the effective configuration
package main
