package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/rs/zerolog"
)

// MaxBodyChars is the largest check output text or comment body GitHub accepts.
const MaxBodyChars = 65535

// Uploader stores files out of band (as a workflow artifact).
type Uploader interface {
	Upload(ctx context.Context, name string, files []string, root string) error
}

// artifactNameReplacer covers the characters GitHub rejects in artifact names.
var artifactNameReplacer = strings.NewReplacer(
	`"`, "-", `'`, "-", ":", "-", "<", "-", ">", "-", "|", "-",
	"*", "-", "?", "-", "\r", "-", "\n", "-", `\`, "-", "/", "-",
)

// ArtifactName turns a display name into a valid artifact name.
func ArtifactName(name string) string {
	return artifactNameReplacer.Replace(name)
}

// Oversized reports whether the item body is longer than limit characters.
func Oversized(it Item, limit int) bool {
	return utf8.RuneCountInString(it.Body) > limit
}

// Fallback replaces oversized bodies with a pointer to an uploaded artifact.
type Fallback struct {
	Uploader Uploader
	// Root is the base directory artifact paths are made relative to.
	Root   string
	RunURL string
	// Limit defaults to MaxBodyChars.
	Limit int
	// Redact, if set, is applied to the plan before upload. The artifact
	// then holds a scrubbed copy instead of the original file.
	Redact func(string) string
	Log    zerolog.Logger
}

func (f *Fallback) limit() int {
	if f.Limit > 0 {
		return f.Limit
	}
	return MaxBodyChars
}

// Apply offloads it when its body is too big. Items without a source file
// are never touched. It reports whether the body was replaced.
func (f *Fallback) Apply(ctx context.Context, it *Item) bool {
	if it.Source == nil || it.Offloaded || !Oversized(*it, f.limit()) {
		return false
	}
	f.offload(ctx, it)
	return true
}

// offload uploads the source file and rewrites the body. Upload failures are
// logged and otherwise ignored; the pointer is published regardless.
func (f *Fallback) offload(ctx context.Context, it *Item) {
	name := ArtifactName(it.Name)
	log := f.Log.With().Str("check", it.Name).Str("artifact", name).Logger()

	if f.Uploader == nil {
		log.Warn().Msg("No artifact uploader configured, skipping upload")
	} else if err := f.upload(ctx, name, it.Source); err != nil {
		log.Warn().Err(err).Msg("Artifact upload failed, continuing")
	} else {
		log.Info().Msg("Uploaded oversized plan as artifact")
	}

	it.Body = f.pointer(it.Source.RelPath)
	it.Offloaded = true
}

func (f *Fallback) upload(ctx context.Context, name string, src *Source) error {
	if f.Redact == nil {
		if err := f.Uploader.Upload(ctx, name, []string{src.Path}, f.Root); err != nil {
			return apperr.Wrap(err, apperr.KindUpload, "uploading artifact")
		}
		return nil
	}

	dir, path, err := stageRedacted(src, f.Redact)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := f.Uploader.Upload(ctx, name, []string{path}, dir); err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "uploading artifact")
	}
	return nil
}

// stageRedacted writes a redacted copy of src into a fresh temporary
// directory, at the same relative path, so the archive layout is unchanged.
func stageRedacted(src *Source, redact func(string) string) (dir, path string, err error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return "", "", apperr.Wrapf(err, apperr.KindIO, "reading %s", src.Path)
	}

	dir, err = os.MkdirTemp("", "tgreport-artifact-")
	if err != nil {
		return "", "", apperr.Wrap(err, apperr.KindIO, "creating staging directory")
	}
	rel := strings.TrimPrefix(filepath.ToSlash(src.RelPath), "/")
	if rel == "" || strings.HasPrefix(rel, "../") {
		rel = filepath.Base(src.Path)
	}
	path = filepath.Join(dir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		os.RemoveAll(dir)
		return "", "", apperr.Wrap(err, apperr.KindIO, "creating staging directory")
	}
	if err := os.WriteFile(path, []byte(redact(string(data))), 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", apperr.Wrapf(err, apperr.KindIO, "staging %s", rel)
	}
	return dir, path, nil
}

func (f *Fallback) pointer(rel string) string {
	if f.RunURL == "" {
		return fmt.Sprintf("File %s is too big. It was uploaded as an artifact of this run.", rel)
	}
	return fmt.Sprintf("File %s is too big. It was uploaded as an artifact. Please download it from [the actions overview of this run](%s).", rel, f.RunURL)
}

// FitNarrative renders rep and, while the result is longer than the limit,
// offloads the largest remaining body and renders again.
func (f *Fallback) FitNarrative(ctx context.Context, rep *Report, render func(*Report) (string, error)) (string, error) {
	for {
		out, err := render(rep)
		if err != nil {
			return "", err
		}
		if utf8.RuneCountInString(out) <= f.limit() {
			return out, nil
		}

		idx := largestBody(rep.Items)
		if idx < 0 {
			return "", apperr.Newf(apperr.KindPublish, "comment is %d characters even with all plans offloaded (limit %d)",
				utf8.RuneCountInString(out), f.limit())
		}
		f.offload(ctx, &rep.Items[idx])
	}
}

func largestBody(items []Item) int {
	idx, size := -1, -1
	for i, it := range items {
		if it.Source == nil || it.Offloaded {
			continue
		}
		if n := utf8.RuneCountInString(it.Body); n > size {
			idx, size = i, n
		}
	}
	return idx
}
