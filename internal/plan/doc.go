// Package plan extracts the change summary from terraform/terragrunt plan text.
//
// A plan is either "no changes" (the sentinel line printed by terraform), a
// set of add/change/destroy counts taken from the first "Plan: ..." line, or
// unparseable. The sentinel check takes precedence over the summary line.
package plan
