package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/neuralnotes/internal/graph"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/linker"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/testutil"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// testEnv sets up a temp SQLite store, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, events http.Handler) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc := noteservice.NewService(testutil.TestDB(t))
	router := NewRouter(svc, Options{AuthEnabled: authEnabled, Token: authToken, Events: events})
	return svc, router
}

func do(t *testing.T, router http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createVault(t *testing.T, router http.Handler, name string) models.Vault {
	t.Helper()
	w := do(t, router, http.MethodPost, "/vaults", map[string]string{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create vault status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Vault](t, w)
}

func createNote(t *testing.T, router http.Handler, vaultID string, req CreateNoteRequest) models.Note {
	t.Helper()
	w := do(t, router, http.MethodPost, "/vaults/"+vaultID+"/notes", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create note status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Note](t, w)
}

func TestCreateVaultWithWelcomeNote(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "Research")
	if v.Name != "Research" {
		t.Errorf("name = %q", v.Name)
	}

	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	list := decode[NoteListResponse](t, w)
	if list.Total != 1 || list.Notes[0].Title != noteservice.WelcomeTitle {
		t.Errorf("notes = %+v, want one welcome note", list.Notes)
	}

	w = do(t, router, http.MethodGet, "/vaults", nil)
	vaults := decode[VaultListResponse](t, w)
	if len(vaults.Vaults) != 1 {
		t.Errorf("vaults = %d, want 1", len(vaults.Vaults))
	}
}

func TestCreateVault_Validation(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/vaults", map[string]string{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/vaults", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestUpdateAndDeleteVault(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "Old")

	w := do(t, router, http.MethodPatch, "/vaults/"+v.ID, map[string]string{"name": "New"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Vault](t, w); got.Name != "New" {
		t.Errorf("name = %q, want New", got.Name)
	}

	w = do(t, router, http.MethodPatch, "/vaults/"+v.ID, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty patch = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/vaults/"+v.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/vaults/"+v.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted vault = %d, want 404", w.Code)
	}
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")

	world := createNote(t, router, v.ID, CreateNoteRequest{Title: "World", Content: "hi"})
	hello := createNote(t, router, v.ID, CreateNoteRequest{
		Title:        "Hello",
		Content:      "See [[World]] and [[Nowhere]]",
		ResolveLinks: true,
	})
	if len(hello.Links) != 1 || hello.Links[0] != world.ID {
		t.Errorf("links = %v, want [%s]", hello.Links, world.ID)
	}

	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/notes/"+world.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+world.Checksum+`"` {
		t.Errorf("etag = %q", etag)
	}
	detail := decode[noteservice.NoteDetail](t, w)
	if len(detail.Backlinks) != 1 || detail.Backlinks[0] != hello.ID {
		t.Errorf("backlinks = %v, want [%s]", detail.Backlinks, hello.ID)
	}

	w = do(t, router, http.MethodGet, "/vaults/"+v.ID+"/notes/"+world.ID+"/backlinks", nil)
	if got := decode[BacklinksResponse](t, w); len(got.Backlinks) != 1 {
		t.Errorf("backlinks endpoint = %v", got.Backlinks)
	}
}

func TestCreateNote_UnknownVault(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/vaults/missing/notes", CreateNoteRequest{Title: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	n := createNote(t, router, v.ID, CreateNoteRequest{Title: "T", Content: "one"})
	path := "/vaults/" + v.ID + "/notes/" + n.ID

	w := do(t, router, http.MethodPatch, path, map[string]string{"content": "two"}, "If-Match", `"wrong"`)
	if w.Code != http.StatusConflict {
		t.Errorf("wrong checksum = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPatch, path, map[string]string{"content": "two"}, "If-Match", `"`+n.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("matching checksum = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.Content != "two" || got.Checksum == n.Checksum {
		t.Errorf("updated = %+v", got)
	}
}

func TestUpdateNote_EmptyPatch(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	n := createNote(t, router, v.ID, CreateNoteRequest{Title: "T"})
	w := do(t, router, http.MethodPatch, "/vaults/"+v.ID+"/notes/"+n.ID, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	w := do(t, router, http.MethodPatch, "/vaults/"+v.ID+"/notes/nope", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	n := createNote(t, router, v.ID, CreateNoteRequest{Title: "Gone"})
	path := "/vaults/" + v.ID + "/notes/" + n.ID

	if w := do(t, router, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestAddLink(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	a := createNote(t, router, v.ID, CreateNoteRequest{Title: "A"})
	b := createNote(t, router, v.ID, CreateNoteRequest{Title: "B"})
	path := "/vaults/" + v.ID + "/notes/" + a.ID + "/links"

	if w := do(t, router, http.MethodPost, path, AddLinkRequest{TargetID: a.ID}); w.Code != http.StatusBadRequest {
		t.Errorf("self link = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, path, AddLinkRequest{TargetID: "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("missing target = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodPost, path, AddLinkRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty target = %d, want 400", w.Code)
	}

	w := do(t, router, http.MethodPost, path, AddLinkRequest{TargetID: b.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("add link = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); len(got.Links) != 1 || got.Links[0] != b.ID {
		t.Errorf("links = %v", got.Links)
	}
}

func TestResolveAndRelink(t *testing.T) {
	svc, router := testEnv(t, "")
	v := createVault(t, router, "V")
	target := createNote(t, router, v.ID, CreateNoteRequest{Title: "notes/Target"})
	src := createNote(t, router, v.ID, CreateNoteRequest{Title: "Source", Content: "[[Target]] [[Ghost]]"})
	if len(src.Links) != 0 {
		t.Fatalf("links without resolution = %v", src.Links)
	}

	w := do(t, router, http.MethodPost, "/vaults/"+v.ID+"/resolve", ResolveRequest{Content: src.Content})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve = %d", w.Code)
	}
	res := decode[wikilink.Resolution](t, w)
	if len(res.IDs) != 1 || res.IDs[0] != target.ID {
		t.Errorf("ids = %v", res.IDs)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Ghost" {
		t.Errorf("unresolved = %v", res.Unresolved)
	}

	w = do(t, router, http.MethodPost, "/vaults/"+v.ID+"/relink", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("relink = %d", w.Code)
	}
	if rep := decode[linker.RelinkReport](t, w); len(rep.Updated) != 1 {
		t.Errorf("report = %+v, want 1 updated", rep)
	}
	got, err := svc.GetNote(context.Background(), v.ID, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Links) != 1 || got.Links[0] != target.ID {
		t.Errorf("persisted links = %v", got.Links)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	createNote(t, router, v.ID, CreateNoteRequest{Title: "Find me", Content: "a uniqueword here"})

	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/search?q=uniqueword", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	if got := decode[SearchResponse](t, w); len(got.Results) != 1 {
		t.Errorf("results = %v, want 1", got.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestImportVault_JSON(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/vaults/import", ImportRequest{Files: []ImportFile{
		{Name: "A.md", RelativePath: "Garden/A.md", Content: "to [[B]]"},
		{Name: "B.md", RelativePath: "Garden/B.md", Content: "back to [[A]]"},
		{Name: "img.png", RelativePath: "Garden/img.png", Content: "x"},
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[importer.Result](t, w)
	if res.Vault == nil || res.Vault.Name != "Garden" {
		t.Fatalf("vault = %+v, want Garden", res.Vault)
	}
	if len(res.Created) != 2 || res.Linked != 2 {
		t.Errorf("created = %d, linked = %d", len(res.Created), res.Linked)
	}
}

func TestImportVault_NoMarkdown(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/vaults/import", ImportRequest{Files: []ImportFile{
		{Name: "a.txt", Content: "x"},
	}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/vaults/import", ImportRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty request = %d, want 400", w.Code)
	}
}

func uploadFiles(t *testing.T, router http.Handler, path string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for rel, content := range files {
		part, err := mw.CreateFormFile(importFileField, rel)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.Copy(part, strings.NewReader(content))
		if err := mw.WriteField(importPathField, rel); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportNotes_Multipart(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	w := uploadFiles(t, router, "/vaults/"+v.ID+"/import", map[string]string{
		"Notes/One.md": "see [[Start]]",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[importer.Result](t, w)
	if len(res.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(res.Created))
	}
	// The welcome note was already in the vault.
	if len(res.Created[0].Links) != 1 {
		t.Errorf("links = %v, want link to welcome note", res.Created[0].Links)
	}
}

func TestImportNotes_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/vaults/"+v.ID+"/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file field = %d, want 400", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	a := createNote(t, router, v.ID, CreateNoteRequest{Title: "A"})
	createNote(t, router, v.ID, CreateNoteRequest{Title: "B", Links: []string{a.ID}})

	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/graph?width=400&height=300&frames=20", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph status = %d", w.Code)
	}
	layout := decode[graph.Layout](t, w)
	if layout.Width != 400 || layout.Height != 300 {
		t.Errorf("size = %vx%v", layout.Width, layout.Height)
	}
	if len(layout.Nodes) != 3 || len(layout.Edges) != 1 {
		t.Errorf("nodes = %d, edges = %d", len(layout.Nodes), len(layout.Edges))
	}
}

func TestGraphEndpoint_BadParams(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")
	for _, q := range []string{"width=abc", "frames=999999", "height=-5"} {
		w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/graph?"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", q, w.Code)
		}
	}
	if w := do(t, router, http.MethodGet, "/vaults/missing/graph", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown vault = %d, want 404", w.Code)
	}
}

func TestGraphSVGAndDOT(t *testing.T) {
	_, router := testEnv(t, "")
	v := createVault(t, router, "V")

	w := do(t, router, http.MethodGet, "/vaults/"+v.ID+"/graph.svg?frames=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("svg status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Error("body is not SVG")
	}

	w = do(t, router, http.MethodGet, "/vaults/"+v.ID+"/graph.svg?renderer=paint", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown renderer = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/vaults/"+v.ID+"/graph.dot?frames=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dot status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "graph notes {") {
		t.Errorf("dot = %q", w.Body.String())
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/vaults", nil, "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/vaults", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/vaults", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnvFull(t, false, "ignored", nil)
	w := do(t, router, http.MethodGet, "/vaults", nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", blockingSSE)
	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?vault_id=x", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
