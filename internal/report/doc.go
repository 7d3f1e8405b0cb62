// Package report turns parsed plan files into publishable review items.
//
// An [Engine] discovers plan files through a [FileSource], parses each with the
// plan package, names it with a [Namer] and concludes it with
// [ConclusionFor]. [Assemble] packages the results into a [Report] with one
// [Item] per file, or a single "no diff files found" item when discovery is
// empty. Items whose body exceeds [MaxBodyChars] are rewritten by a
// [Fallback] to point at an uploaded artifact.
//
// Reports are published either as one check run per item ([PublishChecks])
// or as a single narrative comment rendered by the output package and sized
// with [Fallback.FitNarrative].
package report
