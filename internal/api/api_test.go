package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/prefs"
	"github.com/starford/pensieri/internal/testutil"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/toolbar"
	"github.com/starford/pensieri/internal/topics"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, textservice.Request) (string, error) {
	return "", errors.New("upstream down")
}

type envOpts struct {
	gen     textservice.Generator
	token   string
	limiter *rate.Limiter
}

// testEnv wires the API over a mock text service, temp SQLite prefs and a
// temp blob directory. An empty token means auth is disabled.
func testEnv(t *testing.T, o envOpts) http.Handler {
	t.Helper()
	if o.gen == nil {
		o.gen = textservice.MockGenerator{}
	}
	_, blobs := testutil.TestBlobs(t)
	text := textservice.NewService(o.gen, testutil.QuietLogger())
	catalog := topics.Default()

	return NewRouter(Deps{
		Sessions:  editor.NewRegistry(editor.Deps{Text: text, Topics: catalog}, editor.WithLogger(testutil.QuietLogger())),
		Text:      text,
		Assistant: textservice.NewAssistant(text),
		Topics:    catalog,
		Prefs:     testutil.TestPrefs(t),
		Blobs:     blobs,
		Limiter:   o.limiter,
	}, o.token != "", o.token)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
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

func createDoc(t *testing.T, h http.Handler) DocumentView {
	t.Helper()
	w := do(t, h, http.MethodPost, "/documents", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[DocumentView](t, w)
}

func getDoc(t *testing.T, h http.Handler, id string) DocumentView {
	t.Helper()
	w := do(t, h, http.MethodGet, "/documents/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	return decode[DocumentView](t, w)
}

func TestCreateAndGetDocument(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	if len(doc.Blocks) != 1 || doc.Blocks[0].Placeholder == "" {
		t.Fatalf("doc = %+v", doc)
	}
	got := getDoc(t, h, doc.ID)
	if got.ID != doc.ID {
		t.Errorf("id = %q, want %q", got.ID, doc.ID)
	}

	list := decode[DocumentListResponse](t, do(t, h, http.MethodGet, "/documents", nil))
	if len(list.Documents) != 1 {
		t.Errorf("list = %+v", list)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	h := testEnv(t, envOpts{})
	if w := do(t, h, http.MethodGet, "/documents/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/documents/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", w.Code)
	}
}

func TestKeys_EnterThenBackspace(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	first := doc.Blocks[0].ID

	w := do(t, h, http.MethodPost, "/documents/"+doc.ID+"/blocks/"+first+"/keys",
		KeyRequest{Key: "Enter", Content: ""})
	if w.Code != http.StatusOK {
		t.Fatalf("enter status = %d", w.Code)
	}
	res := decode[KeyResponse](t, w)
	if !res.PreventDefault || res.Inserted == "" || len(res.Focus) != 1 {
		t.Fatalf("enter = %+v", res)
	}
	if got := getDoc(t, h, doc.ID); len(got.Blocks) != 2 || got.Active != res.Inserted {
		t.Errorf("doc = %+v", got)
	}

	w = do(t, h, http.MethodPost, "/documents/"+doc.ID+"/blocks/"+res.Inserted+"/keys",
		KeyRequest{Key: "Backspace", Content: "<br>"})
	back := decode[KeyResponse](t, w)
	if back.Removed != res.Inserted || back.Focus[0].BlockID != first {
		t.Errorf("backspace = %+v", back)
	}
	if got := getDoc(t, h, doc.ID); len(got.Blocks) != 1 {
		t.Errorf("blocks = %d, want 1", len(got.Blocks))
	}
}

func TestMetadata(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID

	if w := do(t, h, http.MethodPut, base+"/title", TitleRequest{Title: "Slow Mornings"}); w.Code != http.StatusOK {
		t.Fatalf("title status = %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, base+"/topic", TopicRequest{Topic: "astrology"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad topic status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPut, base+"/topic", TopicRequest{Topic: "life"}); w.Code != http.StatusOK {
		t.Errorf("topic status = %d", w.Code)
	}

	res := decode[editor.TagKeyResult](t, do(t, h, http.MethodPost, base+"/tags/key", TagKeyRequest{Key: ",", Input: " calm "}))
	if res.Input != "" || len(res.Tags) != 1 || res.Tags[0] != "calm" {
		t.Errorf("tag key = %+v", res)
	}
	if w := do(t, h, http.MethodPost, base+"/tags", TagRequest{Tag: "calm"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate tag status = %d, want 409", w.Code)
	}
	if w := do(t, h, http.MethodPost, base+"/tags", TagRequest{Tag: "habits"}); w.Code != http.StatusOK {
		t.Errorf("add tag status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, base+"/tags/calm", nil); w.Code != http.StatusOK {
		t.Errorf("remove tag status = %d", w.Code)
	}

	got := getDoc(t, h, doc.ID)
	if got.Title != "Slow Mornings" || got.Topic != "life" || len(got.Tags) != 1 || got.Tags[0] != "habits" {
		t.Errorf("doc = %+v", got)
	}
}

func TestFormatBold(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	id := doc.Blocks[0].ID

	if w := do(t, h, http.MethodPut, base+"/blocks/"+id+"/content", ContentRequest{Content: "hello world"}); w.Code != http.StatusNoContent {
		t.Fatalf("content status = %d", w.Code)
	}
	sel := decode[SelectionResponse](t, do(t, h, http.MethodPut, base+"/selection", SelectionRequest{
		Selection: &models.Selection{BlockID: id, Start: 6, End: 11, Rect: models.Rect{Top: 100, Left: 10, Width: 40}},
	}))
	if !sel.Applied || !sel.Bubble.Visible || sel.Bubble.Anchor.Top != 50 || sel.Bubble.Anchor.Left != 30 {
		t.Fatalf("bubble = %+v", sel)
	}
	if w := do(t, h, http.MethodPost, base+"/format", FormatRequest{Action: "bold"}); w.Code != http.StatusOK {
		t.Fatalf("format status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := getDoc(t, h, doc.ID).Blocks[0].Content; got != "hello <b>world</b>" {
		t.Errorf("content = %q", got)
	}
	if w := do(t, h, http.MethodPost, base+"/format", FormatRequest{Action: "strike"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
}

func TestFormatShortcutKey(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	id := doc.Blocks[0].ID

	if len(doc.Shortcuts) != 4 || doc.Shortcuts[0].Key != "b" || doc.Shortcuts[0].Action != toolbar.ActionBold {
		t.Fatalf("shortcuts = %+v", doc.Shortcuts)
	}
	do(t, h, http.MethodPut, base+"/blocks/"+id+"/content", ContentRequest{Content: "hello world"})
	do(t, h, http.MethodPut, base+"/selection", SelectionRequest{
		Selection: &models.Selection{BlockID: id, Start: 0, End: 5, Rect: models.Rect{Top: 100, Left: 10, Width: 40}},
	})

	w := do(t, h, http.MethodPost, base+"/format", `{"key":"I"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("format status = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[DocumentView](t, w)
	if got.Blocks[0].Content != "<i>hello</i> world" {
		t.Errorf("content = %q", got.Blocks[0].Content)
	}
	if len(got.Bubble.Active) != 1 || got.Bubble.Active[0] != toolbar.ActionItalic {
		t.Errorf("active = %v, want [italic]", got.Bubble.Active)
	}
	if w := do(t, h, http.MethodPost, base+"/format", `{"key":"z"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", w.Code)
	}
}

func TestInsertBlock_TagNames(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	first := doc.Blocks[0].ID

	w := do(t, h, http.MethodPost, base+"/blocks", `{"after":"`+first+`","tag":"heading-1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[InsertBlockResponse](t, w)
	blocks := getDoc(t, h, doc.ID).Blocks
	if len(blocks) != 2 || blocks[1].ID != created.ID || blocks[1].Tag != models.TagHeading1 {
		t.Errorf("blocks = %+v", blocks)
	}

	w = do(t, h, http.MethodPost, base+"/blocks", InsertBlockRequest{After: first})
	if w.Code != http.StatusCreated {
		t.Fatalf("default tag status = %d", w.Code)
	}
	if tag := getDoc(t, h, doc.ID).Blocks[1].Tag; tag != models.TagParagraph {
		t.Errorf("default tag = %q, want p", tag)
	}

	for _, bad := range []string{"h3", "headng-1"} {
		w := do(t, h, http.MethodPost, base+"/blocks", InsertBlockRequest{After: first, Tag: bad})
		if w.Code != http.StatusBadRequest {
			t.Errorf("tag %q status = %d, want 400", bad, w.Code)
		}
	}
	if n := len(getDoc(t, h, doc.ID).Blocks); n != 3 {
		t.Errorf("blocks = %d after rejected inserts, want 3", n)
	}
}

func TestBlockType_NeedsActiveBlock(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID

	got := decode[DocumentView](t, do(t, h, http.MethodPut, base+"/block-type", BlockTypeRequest{Tag: "h2"}))
	if got.Blocks[0].Tag != models.TagParagraph {
		t.Errorf("tag = %q without focus", got.Blocks[0].Tag)
	}
	do(t, h, http.MethodPost, base+"/blocks/"+doc.Blocks[0].ID+"/focus", nil)
	got = decode[DocumentView](t, do(t, h, http.MethodPut, base+"/block-type", BlockTypeRequest{Tag: "h2"}))
	if got.Blocks[0].Tag != models.TagHeading2 {
		t.Errorf("tag = %q", got.Blocks[0].Tag)
	}
	if w := do(t, h, http.MethodPut, base+"/block-type", BlockTypeRequest{Tag: "ul"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown tag status = %d, want 400", w.Code)
	}
}

func TestRefineActiveBlock(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	id := doc.Blocks[0].ID

	do(t, h, http.MethodPut, base+"/blocks/"+id+"/content", ContentRequest{Content: "this is rough"})
	do(t, h, http.MethodPost, base+"/blocks/"+id+"/focus", nil)

	w := do(t, h, http.MethodPost, base+"/refine", RefineRequest{Mode: models.RefineGrammar})
	if w.Code != http.StatusOK {
		t.Fatalf("refine status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[RefineResponse](t, w)
	if res.Document.Blocks[0].Content != "This is rough." {
		t.Errorf("content = %q", res.Document.Blocks[0].Content)
	}

	if w := do(t, h, http.MethodPost, base+"/refine", RefineRequest{Mode: "poetic"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d, want 400", w.Code)
	}
}

func TestRefine_TextServiceFailure(t *testing.T) {
	h := testEnv(t, envOpts{gen: failingGenerator{}})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	id := doc.Blocks[0].ID
	do(t, h, http.MethodPut, base+"/blocks/"+id+"/content", ContentRequest{Content: "keep"})
	do(t, h, http.MethodPost, base+"/blocks/"+id+"/focus", nil)

	if w := do(t, h, http.MethodPost, base+"/refine", RefineRequest{Mode: models.RefineShorten}); w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	got := getDoc(t, h, doc.ID)
	if got.Loading || got.Error != editor.FailureMessage || got.Blocks[0].Content != "keep" {
		t.Errorf("doc = %+v", got)
	}
}

func TestTitles(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID
	do(t, h, http.MethodPut, base+"/blocks/"+doc.Blocks[0].ID+"/content", ContentRequest{Content: "Morning light over Lisbon"})

	w := do(t, h, http.MethodPost, base+"/titles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("titles status = %d", w.Code)
	}
	titles := decode[TitlesResponse](t, w).Titles
	if len(titles) == 0 {
		t.Fatal("no titles")
	}
	got := decode[DocumentView](t, do(t, h, http.MethodPost, base+"/titles/select", SelectTitleRequest{Title: titles[0]}))
	if got.Title == "" || strings.HasPrefix(got.Title, `"`) {
		t.Errorf("title = %q", got.Title)
	}
}

func TestGenerate(t *testing.T) {
	h := testEnv(t, envOpts{})
	w := do(t, h, http.MethodPost, "/generate", `{"type":"refine","content":"hello","context":{"mode":"grammar"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[textservice.Response](t, w).Result; got != "Hello." {
		t.Errorf("result = %q", got)
	}

	for name, body := range map[string]string{
		"unknown type":   `{"type":"poem","content":"x"}`,
		"chat no ctx":    `{"type":"chat","content":"x"}`,
		"refine no mode": `{"type":"refine","content":"x","context":{}}`,
		"bad json":       `{`,
	} {
		if w := do(t, h, http.MethodPost, "/generate", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestGenerate_Failure(t *testing.T) {
	h := testEnv(t, envOpts{gen: failingGenerator{}})
	w := do(t, h, http.MethodPost, "/generate", `{"type":"summary","content":"x"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	h := testEnv(t, envOpts{limiter: rate.NewLimiter(0, 1)})
	body := `{"type":"summary","content":"x"}`
	if w := do(t, h, http.MethodPost, "/generate", body); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w := do(t, h, http.MethodPost, "/generate", body)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Errorf("second status = %d, want 429", w.Code)
	}
}

func TestReadingAssistant(t *testing.T) {
	h := testEnv(t, envOpts{gen: failingGenerator{}})
	doc := createDoc(t, h)
	base := "/documents/" + doc.ID

	got := decode[AnswerResponse](t, do(t, h, http.MethodPost, base+"/reading/summary", nil))
	if got.Answer != textservice.SummaryFallback {
		t.Errorf("summary = %q", got.Answer)
	}
	got = decode[AnswerResponse](t, do(t, h, http.MethodPost, base+"/reading/ask", QuestionRequest{Question: "why?"}))
	if got.Answer != textservice.AnswerFallback {
		t.Errorf("answer = %q", got.Answer)
	}
	got = decode[AnswerResponse](t, do(t, h, http.MethodPost, base+"/reading/explain", PassageRequest{Passage: "x"}))
	if got.Answer != textservice.ExplainFallback {
		t.Errorf("explain = %q", got.Answer)
	}
}

func TestImportExport(t *testing.T) {
	h := testEnv(t, envOpts{})
	md := "---\ntitle: Quiet\ntopic: design\ntags:\n- calm\n---\n\n# Quiet\n\nLess **noise**.\n\n> Breathe.\n"

	w := do(t, h, http.MethodPost, "/documents/import", md)
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	doc := decode[DocumentView](t, w)
	if doc.Title != "Quiet" || doc.Topic != "design" || len(doc.Blocks) != 3 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Blocks[1].Content != "Less <b>noise</b>." || doc.Blocks[2].Tag != models.TagQuote {
		t.Errorf("blocks = %+v", doc.Blocks)
	}

	w = do(t, h, http.MethodGet, "/documents/"+doc.ID+"/export", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("export status = %d type = %q", w.Code, w.Header().Get("Content-Type"))
	}
	out := w.Body.String()
	for _, want := range []string{"title: Quiet", "# Quiet", "Less **noise**.", "> Breathe."} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

func TestCover_DataURIAndServe(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testutil.PNG)

	w := do(t, h, http.MethodPut, "/documents/"+doc.ID+"/cover", CoverDataRequest{DataURI: uri})
	if w.Code != http.StatusOK {
		t.Fatalf("cover status = %d, body = %s", w.Code, w.Body.String())
	}
	cover := decode[CoverResponse](t, w)
	if got := getDoc(t, h, doc.ID).Cover; got != cover.Name {
		t.Errorf("cover = %q, want %q", got, cover.Name)
	}

	w = do(t, h, http.MethodGet, "/assets/"+cover.Name, nil)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), testutil.PNG) {
		t.Fatalf("asset status = %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/assets/"+cover.Name, nil)
	req.Header.Set("If-None-Match", w.Header().Get("ETag"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", w.Code)
	}

	if w := do(t, h, http.MethodDelete, "/documents/"+doc.ID+"/cover", nil); w.Code != http.StatusOK {
		t.Errorf("remove status = %d", w.Code)
	}
	if got := getDoc(t, h, doc.ID).Cover; got != "" {
		t.Errorf("cover = %q after remove", got)
	}
}

func TestAssets_ListAndDelete(t *testing.T) {
	h := testEnv(t, envOpts{})
	if got := decode[AssetListResponse](t, do(t, h, http.MethodGet, "/assets", nil)); len(got.Assets) != 0 {
		t.Fatalf("assets = %+v, want none", got.Assets)
	}

	doc := createDoc(t, h)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testutil.PNG)
	cover := decode[CoverResponse](t, do(t, h, http.MethodPut, "/documents/"+doc.ID+"/cover", CoverDataRequest{DataURI: uri}))

	list := decode[AssetListResponse](t, do(t, h, http.MethodGet, "/assets", nil))
	if len(list.Assets) != 1 || list.Assets[0].Name != cover.Name || list.Assets[0].URL != cover.URL {
		t.Fatalf("assets = %+v", list.Assets)
	}

	if w := do(t, h, http.MethodDelete, "/assets/"+cover.Name, nil); w.Code != http.StatusConflict {
		t.Errorf("delete in-use status = %d, want 409", w.Code)
	}
	do(t, h, http.MethodDelete, "/documents/"+doc.ID+"/cover", nil)
	if w := do(t, h, http.MethodDelete, "/assets/"+cover.Name, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/assets/"+cover.Name, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/assets/notes/a.md", nil); w.Code != http.StatusBadRequest {
		t.Errorf("outside delete status = %d, want 400", w.Code)
	}
}

func TestCover_Multipart(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(testutil.PNG)
	mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/documents/"+doc.ID+"/cover", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.HasSuffix(decode[CoverResponse](t, w).Name, ".png") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCover_Rejected(t *testing.T) {
	h := testEnv(t, envOpts{})
	doc := createDoc(t, h)
	uri := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte("<svg></svg>"))
	if w := do(t, h, http.MethodPut, "/documents/"+doc.ID+"/cover", CoverDataRequest{DataURI: uri}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/assets/covers/missing.png", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/assets/other/x.png", nil); w.Code != http.StatusBadRequest {
		t.Errorf("outside asset status = %d, want 400", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	h := testEnv(t, envOpts{})
	got := decode[models.Preferences](t, do(t, h, http.MethodGet, "/preferences", nil))
	if got.Theme != models.ThemeLight || got.ReadingIntensity != 50 || got.Authenticated {
		t.Errorf("defaults = %+v", got)
	}

	w := do(t, h, http.MethodPatch, "/preferences", `{"theme":"reading","reading_intensity":80}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	got = decode[models.Preferences](t, do(t, h, http.MethodGet, "/preferences", nil))
	if got.Theme != models.ThemeReading || got.ReadingIntensity != 80 {
		t.Errorf("prefs = %+v", got)
	}

	if w := do(t, h, http.MethodPatch, "/preferences", `{"theme":"neon"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad theme status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPatch, "/preferences", `{"reading_intensity":101}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad intensity status = %d, want 400", w.Code)
	}
}

func TestProfile(t *testing.T) {
	h := testEnv(t, envOpts{})
	if w := do(t, h, http.MethodPut, "/profile", models.Profile{Name: "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", w.Code)
	}
	w := do(t, h, http.MethodPut, "/profile", models.Profile{Name: "Ada", Location: "London"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[models.Profile](t, do(t, h, http.MethodGet, "/profile", nil))
	if got.Name != "Ada" || got.Location != "London" {
		t.Errorf("profile = %+v", got)
	}
}

func TestChangePassword(t *testing.T) {
	h := testEnv(t, envOpts{})
	cases := []struct {
		body prefs.PasswordChange
		code int
		msg  string
	}{
		{prefs.PasswordChange{Current: "old"}, http.StatusBadRequest, prefs.MsgFieldsRequired},
		{prefs.PasswordChange{Current: "old", New: "abcdefgh", Confirm: "abcdefgx"}, http.StatusBadRequest, prefs.MsgPasswordMismatch},
		{prefs.PasswordChange{Current: "old", New: "short", Confirm: "short"}, http.StatusBadRequest, prefs.MsgPasswordTooShort},
	}
	for _, c := range cases {
		w := do(t, h, http.MethodPost, "/password", c.body)
		if w.Code != c.code {
			t.Errorf("%+v: status = %d, want %d", c.body, w.Code, c.code)
		}
		if got := decode[errResponse](t, w).Error; got != c.msg {
			t.Errorf("message = %q, want %q", got, c.msg)
		}
	}

	w := do(t, h, http.MethodPost, "/password", prefs.PasswordChange{Current: "old", New: "abcdefgh", Confirm: "abcdefgh"})
	if w.Code != http.StatusOK || decode[MessageResponse](t, w).Message != prefs.MsgPasswordUpdated {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestTopics(t *testing.T) {
	h := testEnv(t, envOpts{})
	got := decode[map[string][]models.Topic](t, do(t, h, http.MethodGet, "/topics", nil))
	if len(got["topics"]) != 8 {
		t.Errorf("topics = %+v", got)
	}
}

func TestAuthRequired(t *testing.T) {
	h := testEnv(t, envOpts{token: "secret"})

	if w := do(t, h, http.MethodPost, "/documents", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("valid token status = %d, want 201", w.Code)
	}
}
