package noteservice

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/testutil"
)

type recordedEvent struct {
	scope, kind, vaultID, noteID string
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishNoteEvent(kind, vaultID, noteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{"note", kind, vaultID, noteID})
}

func (r *recorder) PublishVaultEvent(kind, vaultID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{"vault", kind, vaultID, ""})
}

func (r *recorder) has(scope, kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.scope == scope && e.kind == kind {
			return true
		}
	}
	return false
}

func newService(t *testing.T, opts ...Option) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := NewService(testutil.TestDB(t), append([]Option{WithEvents(rec)}, opts...)...)
	return svc, rec
}

func TestCreateVault_AddsWelcomeNote(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	v, err := svc.CreateVault(ctx, "Work", "")
	if err != nil {
		t.Fatalf("CreateVault: %v", err)
	}
	if v.Theme != "violet" {
		t.Errorf("theme = %q, want violet", v.Theme)
	}
	notes, err := svc.ListNotes(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != WelcomeTitle || notes[0].Content != WelcomeContent {
		t.Errorf("notes = %+v, want welcome note", notes)
	}
	if !rec.has("vault", "created") {
		t.Error("missing vault.created event")
	}
}

func TestCreateNote_ExplicitLinksKept(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")

	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})
	b, err := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "B", Content: "no refs", Links: []string{a.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Links, []string{a.ID}) {
		t.Errorf("links = %v", b.Links)
	}
}

func TestCreateNote_ResolveLinks(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")

	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "Alpha"})
	b, err := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "Beta", Content: "see [[alpha]] and [[Nowhere]]", ResolveLinks: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Links, []string{a.ID}) {
		t.Errorf("links = %v, want [%s]", b.Links, a.ID)
	}
	if !rec.has("note", "created") {
		t.Error("missing note.created event")
	}
}

func TestUpdateNote_ManualLinksSurviveWithoutAutoResolve(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})
	b, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "B", Links: []string{a.ID}})

	content := "no references any more"
	got, err := svc.UpdateNote(ctx, v.ID, b.ID, UpdateNoteInput{Content: &content})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Links, []string{a.ID}) {
		t.Errorf("links = %v, want manual link kept", got.Links)
	}
}

func TestUpdateNote_AutoResolve(t *testing.T) {
	svc, _ := newService(t, WithAutoResolve(true))
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})
	b, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "B"})

	content := "[[A]] [[B]] [[A]]"
	got, err := svc.UpdateNote(ctx, v.ID, b.ID, UpdateNoteInput{Content: &content})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Links, []string{a.ID}) {
		t.Errorf("links = %v, want [%s]", got.Links, a.ID)
	}
}

func TestUpdateNote_IfMatchConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	n, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})

	title := "A2"
	_, err := svc.UpdateNote(ctx, v.ID, n.ID, UpdateNoteInput{Title: &title, IfMatch: "stale"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if _, err := svc.UpdateNote(ctx, v.ID, n.ID, UpdateNoteInput{Title: &title, IfMatch: n.Checksum}); err != nil {
		t.Errorf("matching checksum: %v", err)
	}
}

func TestAddLink(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})
	b, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "B"})

	got, err := svc.AddLink(ctx, v.ID, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	again, err := svc.AddLink(ctx, v.ID, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Links, []string{b.ID}) || !reflect.DeepEqual(again.Links, []string{b.ID}) {
		t.Errorf("links = %v / %v", got.Links, again.Links)
	}
	if !rec.has("note", "linked") {
		t.Error("missing note.linked event")
	}

	if _, err := svc.AddLink(ctx, v.ID, a.ID, a.ID); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("self link err = %v", err)
	}
	if _, err := svc.AddLink(ctx, v.ID, a.ID, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing target err = %v", err)
	}

	detail, err := svc.GetNote(ctx, v.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(detail.Backlinks, []string{a.ID}) {
		t.Errorf("backlinks = %v", detail.Backlinks)
	}
}

func TestResolvePreview(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "one/Topic"})
	svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "two/Topic"})

	res, err := svc.Resolve(ctx, v.ID, "", "[[Topic]] [[Ghost]] [[start]]")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.IDs) != 1 {
		t.Errorf("ids = %v, want only the welcome note", res.IDs)
	}
	if !reflect.DeepEqual(res.Ambiguous, []string{"Topic"}) {
		t.Errorf("ambiguous = %v", res.Ambiguous)
	}
	if !reflect.DeepEqual(res.Unresolved, []string{"Ghost"}) {
		t.Errorf("unresolved = %v", res.Unresolved)
	}
}

func TestRelink(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A", Content: "[[B]]"})
	b, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "B", Content: "[[A]]"})

	report, err := svc.Relink(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.Scanned != 3 || len(report.Updated) != 2 {
		t.Errorf("report = %+v", report)
	}
	got, _ := svc.GetNote(ctx, v.ID, a.ID)
	if !reflect.DeepEqual(got.Links, []string{b.ID}) {
		t.Errorf("A links = %v", got.Links)
	}
	if !rec.has("vault", "linked") {
		t.Error("missing vault.linked event")
	}
}

func TestImportNotes_TwoPhase(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")

	res, err := svc.ImportNotes(ctx, v.ID, []importer.File{
		{Name: "A.md", Content: "see [[B]]"},
		{Name: "B.md", Content: "see [[A]]"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("created = %d", len(res.Created))
	}
	a, b := res.Created[0], res.Created[1]
	if !reflect.DeepEqual(a.Links, []string{b.ID}) || !reflect.DeepEqual(b.Links, []string{a.ID}) {
		t.Errorf("links A=%v B=%v", a.Links, b.Links)
	}
	if !rec.has("vault", "imported") {
		t.Error("missing vault.imported event")
	}
}

func TestImportNotes_UnknownVault(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ImportNotes(context.Background(), "nope", []importer.File{{Name: "a.md"}})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestImportVault_NoWelcomeNote(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	res, err := svc.ImportVault(ctx, []importer.File{
		{Name: "x.md", RelativePath: "Garden/x.md", Content: "[[y]]"},
		{Name: "y.md", RelativePath: "Garden/sub/y.md"},
	})
	if err != nil {
		t.Fatal(err)
	}
	notes, _ := svc.ListNotes(ctx, res.Vault.ID)
	if len(notes) != 2 {
		t.Errorf("notes = %d, want 2", len(notes))
	}
}

func TestLayoutAndRenderers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	v, _ := svc.CreateVault(ctx, "V", "")
	a, _ := svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "A"})
	svc.CreateNote(ctx, v.ID, CreateNoteInput{Title: "", Links: []string{a.ID}})

	l, err := svc.Layout(ctx, v.ID, GraphQuery{Width: 300, Height: 200, Frames: 10})
	if err != nil {
		t.Fatal(err)
	}
	if l.Width != 300 || len(l.Nodes) != 3 || len(l.Edges) != 1 {
		t.Errorf("layout = %+v", l)
	}

	svg, err := svc.GraphSVG(ctx, v.ID, GraphQuery{Frames: 5}, RendererCanvas)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), ">Untitled</text>") {
		t.Error("svg missing default label")
	}

	dotSrc, err := svc.GraphDOT(ctx, v.ID, GraphQuery{Frames: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dotSrc, "--") {
		t.Errorf("dot missing edge: %s", dotSrc)
	}

	if _, err := svc.Layout(ctx, "missing", GraphQuery{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing vault err = %v", err)
	}
}
