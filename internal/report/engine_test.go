package report

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/plan"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	paths   []string
	files   map[string]string
	walkErr error
	reads   []string
}

func (s *fakeSource) Files(root, suffix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range s.paths {
			if !yield(p, nil) {
				return
			}
		}
		if s.walkErr != nil {
			yield("", s.walkErr)
		}
	}
}

func (s *fakeSource) ReadText(path string) (string, error) {
	s.reads = append(s.reads, path)
	text, ok := s.files[path]
	if !ok {
		return "", errors.New("no such file")
	}
	return text, nil
}

func newTestEngine(t *testing.T, src *fakeSource) *Engine {
	t.Helper()
	namer, err := NewNamer("/plans", "", "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNamer: %v", err)
	}
	return &Engine{
		Root:     "/plans",
		Suffix:   ".diff",
		NoFiles:  Failure,
		Identity: RunIdentity{Owner: "o", Repo: "r", HeadSHA: "sha"},
		Source:   src,
		Namer:    namer,
		Log:      zerolog.Nop(),
	}
}

func TestEngineRunEndToEnd(t *testing.T) {
	src := &fakeSource{
		paths: []string{"/plans/envs/prod.diff", "/plans/envs/dev.diff"},
		files: map[string]string{
			"/plans/envs/prod.diff": "Refreshing state...\n\nPlan: 2 to add, 0 to change, 1 to destroy.\n",
			"/plans/envs/dev.diff":  plan.NoChangesSentinel,
		},
	}
	e := newTestEngine(t, src)

	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(rep.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(rep.Items))
	}

	prod := rep.Items[0]
	if prod.Name != "/envs/prod.diff" {
		t.Errorf("Name = %q, want /envs/prod.diff", prod.Name)
	}
	if prod.Conclusion != Neutral {
		t.Errorf("Conclusion = %q, want neutral", prod.Conclusion)
	}
	if prod.Title != "Plan: 2 to add, 0 to change, 1 to destroy." {
		t.Errorf("Title = %q", prod.Title)
	}

	dev := rep.Items[1]
	if dev.Conclusion != Success || dev.Title != plan.NoChangesSentinel {
		t.Errorf("dev item = %+v", dev)
	}
	if rep.Identity.HeadSHA != "sha" {
		t.Errorf("identity not carried: %+v", rep.Identity)
	}
}

func TestEngineRunOffloadsOversizedPlans(t *testing.T) {
	big := strings.Repeat("~ resource changed\n", MaxBodyChars/10) + "Plan: 0 to add, 1 to change, 0 to destroy.\n"
	src := &fakeSource{
		paths: []string{"/plans/envs/prod.diff", "/plans/envs/dev.diff"},
		files: map[string]string{
			"/plans/envs/prod.diff": big,
			"/plans/envs/dev.diff":  plan.NoChangesSentinel,
		},
	}
	up := &fakeUploader{}
	e := newTestEngine(t, src)
	e.Fallback = &Fallback{
		Uploader: up,
		Root:     e.Root,
		RunURL:   "https://github.com/o/r/actions/runs/7",
		Log:      zerolog.Nop(),
	}

	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	prod := rep.Items[0]
	want := "File /envs/prod.diff is too big. It was uploaded as an artifact. Please download it from [the actions overview of this run](https://github.com/o/r/actions/runs/7)."
	if prod.Body != want || !prod.Offloaded {
		t.Errorf("prod body = %.80q, offloaded = %v", prod.Body, prod.Offloaded)
	}
	if prod.Title != "Plan: 0 to add, 1 to change, 0 to destroy." || prod.Conclusion != Neutral {
		t.Errorf("offloading must keep title and conclusion: %+v", prod)
	}
	if rep.Items[1].Offloaded || !strings.Contains(rep.Items[1].Body, plan.NoChangesSentinel) {
		t.Errorf("small plan should keep its body: %+v", rep.Items[1])
	}

	if len(up.calls) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.calls))
	}
	c := up.calls[0]
	if c.name != "-envs-prod.diff" || c.root != "/plans" || len(c.files) != 1 || c.files[0] != "/plans/envs/prod.diff" {
		t.Errorf("upload call = %+v", c)
	}
}

func TestEngineRunNoFiles(t *testing.T) {
	e := newTestEngine(t, &fakeSource{})
	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(rep.Items) != 1 || rep.Items[0].Title != NoFilesTitle || rep.Items[0].Conclusion != Failure {
		t.Errorf("items = %+v", rep.Items)
	}
}

func TestEngineAbortsOnUnparseable(t *testing.T) {
	src := &fakeSource{
		paths: []string{"/plans/a.diff", "/plans/bad.diff", "/plans/c.diff"},
		files: map[string]string{
			"/plans/a.diff":   plan.NoChangesSentinel,
			"/plans/bad.diff": "Error: something broke",
			"/plans/c.diff":   plan.NoChangesSentinel,
		},
	}
	e := newTestEngine(t, src)
	pub := &fakePublisher{}

	rep, err := e.Run(context.Background())
	if err == nil {
		_, _ = PublishChecks(context.Background(), pub, rep, zerolog.Nop())
		t.Fatal("expected format error")
	}
	if !apperr.Is(err, apperr.KindFormat) {
		t.Errorf("kind = %q, want format", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "/plans/bad.diff") {
		t.Errorf("error should name the file: %v", err)
	}
	if apperr.DetailOf(err) != "Error: something broke" {
		t.Errorf("detail = %q", apperr.DetailOf(err))
	}
	if len(src.reads) != 2 {
		t.Errorf("reads = %v, want processing to stop at the bad file", src.reads)
	}
	if len(pub.created) != 0 {
		t.Error("nothing should be published")
	}
}

func TestEngineReadError(t *testing.T) {
	src := &fakeSource{paths: []string{"/plans/missing.diff"}}
	_, err := newTestEngine(t, src).Run(context.Background())
	if !apperr.Is(err, apperr.KindIO) {
		t.Fatalf("err = %v, want io error", err)
	}
}

func TestEngineWalkError(t *testing.T) {
	src := &fakeSource{walkErr: errors.New("permission denied")}
	_, err := newTestEngine(t, src).Run(context.Background())
	if !apperr.Is(err, apperr.KindIO) {
		t.Fatalf("err = %v, want io error", err)
	}
}

func TestEngineRedact(t *testing.T) {
	src := &fakeSource{
		paths: []string{"/plans/a.diff"},
		files: map[string]string{"/plans/a.diff": "secret=hunter2\nPlan: 1 to add, 0 to change, 0 to destroy."},
	}
	e := newTestEngine(t, src)
	e.Redact = func(s string) string { return strings.ReplaceAll(s, "hunter2", "[REDACTED]") }

	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.Contains(rep.Items[0].Body, "hunter2") {
		t.Error("body should be redacted")
	}
}

func TestEngineCancelled(t *testing.T) {
	src := &fakeSource{
		paths: []string{"/plans/a.diff"},
		files: map[string]string{"/plans/a.diff": plan.NoChangesSentinel},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestEngine(t, src).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type fakePublisher struct {
	created []Item
	failAt  int
}

func (p *fakePublisher) CreateCheck(ctx context.Context, id RunIdentity, it Item) (Published, error) {
	if p.failAt > 0 && len(p.created)+1 == p.failAt {
		return Published{}, errors.New("HTTP 502")
	}
	p.created = append(p.created, it)
	return Published{ID: int64(len(p.created)), Name: it.Name, URL: "https://example.test/" + it.Name}, nil
}

func TestPublishChecks(t *testing.T) {
	rep := &Report{Items: []Item{{Name: "a"}, {Name: "b"}}}
	pub := &fakePublisher{}
	out, err := PublishChecks(context.Background(), pub, rep, zerolog.Nop())
	if err != nil {
		t.Fatalf("PublishChecks error: %v", err)
	}
	if len(out) != 2 || out[1].Name != "b" {
		t.Errorf("published = %+v", out)
	}
}

func TestPublishChecksPartialFailure(t *testing.T) {
	rep := &Report{Items: []Item{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	pub := &fakePublisher{failAt: 2}
	out, err := PublishChecks(context.Background(), pub, rep, zerolog.Nop())
	if !apperr.Is(err, apperr.KindPublish) {
		t.Fatalf("err = %v, want publish error", err)
	}
	if len(out) != 1 || len(pub.created) != 1 {
		t.Errorf("published = %d, want 1 before failure", len(out))
	}
}
