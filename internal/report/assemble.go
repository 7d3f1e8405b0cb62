package report

import "fmt"

const (
	// NoFilesName names the single item published when discovery finds nothing.
	NoFilesName  = "Terragrunt Report"
	NoFilesTitle = "No diff files found!"
	SetupURL     = "https://github.com/visable-dev/gh-action-terragrunt-report#usage"
)

// Assemble builds one Item per result, in order. With no results it returns
// a single diagnostic item concluded with noFiles.
func Assemble(id RunIdentity, results []FileResult, noFiles Conclusion) *Report {
	rep := &Report{
		Tool:     "tgreport",
		Identity: id,
	}

	if len(results) == 0 {
		rep.Items = []Item{noFilesItem(noFiles)}
		return rep
	}

	rep.Items = make([]Item, 0, len(results))
	for _, r := range results {
		rep.Items = append(rep.Items, itemFor(r))
	}
	return rep
}

func itemFor(r FileResult) Item {
	return Item{
		Name:       r.Name,
		Conclusion: r.Conclusion,
		Title:      r.Outcome.Title(),
		Summary:    fmt.Sprintf("Please find below the full plan for `%s`.", r.RelPath),
		Body:       FenceBody(r.Body),
		Source:     &Source{Path: r.Path, RelPath: r.RelPath},
	}
}

func noFilesItem(c Conclusion) Item {
	if c == "" {
		c = Failure
	}
	return Item{
		Name:       NoFilesName,
		Conclusion: c,
		Title:      NoFilesTitle,
		Summary:    NoFilesTitle,
		Body:       fmt.Sprintf("Please read the [setup instructions](%s) and ensure that you configured terragrunt correctly!", SetupURL),
	}
}

// FenceBody wraps a plan in a terraform code fence.
func FenceBody(text string) string {
	return "\n```terraform\n" + text + "\n```\n"
}
