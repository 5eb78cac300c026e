package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"seotools/db"
	"seotools/domaininfo"
	"seotools/fetch"
	"seotools/imaging"
	"seotools/llm"
	"seotools/ocrprocessor"
	"seotools/plagiarism"
)

// topRand makes RandomChecker deterministic.
type topRand struct{}

func (topRand) IntN(n int) int { return n - 1 }

// memoryUsage is an in-memory UsageStore.
type memoryUsage struct {
	mu      sync.Mutex
	records []db.UsageRecord
	err     error
}

func (m *memoryUsage) Insert(ctx context.Context, rec db.UsageRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

func (m *memoryUsage) Summary(ctx context.Context, since time.Time) ([]db.ToolSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := map[string]int{}
	var out []db.ToolSummary
	for _, r := range m.records {
		if r.CreatedAt.Before(since) {
			continue
		}
		i, ok := index[r.Tool]
		if !ok {
			i = len(out)
			index[r.Tool] = i
			out = append(out, db.ToolSummary{Tool: r.Tool})
		}
		out[i].Requests++
	}
	return out, nil
}

func (m *memoryUsage) all() []db.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.UsageRecord(nil), m.records...)
}

type failingRewriter struct{}

func (failingRewriter) Paraphrase(ctx context.Context, text string) (string, error) {
	return "", errors.New("upstream unavailable")
}

func (failingRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	panic("rewrite exploded")
}

type testEnv struct {
	server *Server
	usage  *memoryUsage
	store  *imaging.Store
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Deps)) *testEnv {
	t.Helper()

	store, err := imaging.NewStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	fetcher := fetch.New(nil, 1<<20)
	usage := &memoryUsage{}

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.OutputDir = store.Dir()
	deps := Deps{
		Providers: Providers{
			Plagiarism: plagiarism.NewRandomChecker(topRand{}),
			Rewriter:   llm.PrefixRewriter{},
			Text:       ocrprocessor.NewDocumentExtractor(fetcher, ocrprocessor.StaticOCR{}),
			Images:     imaging.NewProcessor(fetcher, store, nil),
			Domains:    domaininfo.StaticInfo{},
		},
		Usage: usage,
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}

	s, err := NewServer(cfg, deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return &testEnv{server: s, usage: usage, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) post(t *testing.T, tool, body string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodPost, "/api/tools/"+tool, body)
}

// decode parses an envelope with data decoded into a generic map.
func decode(t *testing.T, rr *httptest.ResponseRecorder) (env struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return env
}

func pngDataURL(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNewServer_RequiresProviders(t *testing.T) {
	_, err := NewServer(DefaultConfig(), Deps{})
	if err == nil {
		t.Error("NewServer() expected error without providers")
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Errorf("/health = %d %q", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("/api/health status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"database":"disabled"`) {
		t.Errorf("/api/health body = %s", rr.Body.String())
	}
}

type pingErr struct{}

func (pingErr) Ping(ctx context.Context) error { return db.ErrClosed }

func TestAPIHealth_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, func(c *Config, d *Deps) { d.Health = pingErr{} })

	rr := env.do(t, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "degraded") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCatalogEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/tools", "")
	env2 := decode(t, rr)
	if !env2.Success {
		t.Fatalf("GET /api/tools = %s", rr.Body.String())
	}
	tools, _ := env2.Data["tools"].([]any)
	if len(tools) != 22 {
		t.Errorf("got %d tools, want 22", len(tools))
	}
	first := tools[0].(map[string]any)
	if first["endpoint"] != "/api/tools/word-counter" {
		t.Errorf("first endpoint = %v", first["endpoint"])
	}
}

func TestWordCounter(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "word-counter", `{"text":"Hello world. How are you?\n\nFine!"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	got := decode(t, rr).Data
	want := map[string]float64{
		"characters":         32,
		"charactersNoSpaces": 27,
		"words":              6,
		"sentences":          3,
		"paragraphs":         2,
		"readingTime":        1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		tool    string
		body    string
		message string
	}{
		{"word-counter", `{}`, "Text is required"},
		{"word-counter", `{"text":""}`, "Text is required"},
		{"word-counter", `{"text":0}`, "Text is required"},
		{"word-counter", `{"text":null}`, "Text is required"},
		{"word-counter", ``, "Text is required"},
		{"keyword-density", `{"text":false}`, "Text is required"},
		{"text-case-converter", `{"conversionType":"uppercase"}`, "Text is required"},
		{"text-case-converter", `{"text":"x"}`, "Conversion type is required"},
		{"text-case-converter", `{"text":"x","conversionType":""}`, "Conversion type is required"},
		{"md5-generator", `{}`, "Text is required"},
		{"word-combiner", `{}`, "Words array is required"},
		{"word-combiner", `{"words":"a b"}`, "Words array is required"},
		{"word-combiner", `{"words":["a",1]}`, "words[1] must be a string"},
		{"plagiarism-checker", `{}`, "Text is required"},
		{"paraphrasing-tool", `{}`, "Text is required"},
		{"article-rewriter", `{}`, "Text is required"},
		{"image-to-text", `{}`, "Image URL is required"},
		{"image-resizer", `{"imageUrl":"x","width":100}`, "Image URL, width, and height are required"},
		{"image-resizer", `{"imageUrl":"x","width":0,"height":10}`, "Image URL, width, and height are required"},
		{"photo-resizer-kb", `{"imageUrl":"x"}`, "Image URL and target size are required"},
		{"crop-image", `{"imageUrl":"x","width":10}`, "Image URL, crop dimensions are required"},
		{"convert-to-jpg", `{}`, "Image URL is required"},
		{"png-to-jpg", `{}`, "PNG image URL is required"},
		{"jpg-to-png", `{}`, "JPG image URL is required"},
		{"compress-image", `{}`, "Image URL is required"},
		{"domain-age", `{}`, "Domain name is required"},
		{"domain-authority", `{}`, "Domain name is required"},
		{"domain-ip", `{}`, "Domain name is required"},
		{"domain-hosting", `{}`, "Domain name is required"},
		{"dns-records", `{"domain":""}`, "Domain name is required"},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.body, func(t *testing.T) {
			rr := env.post(t, tt.tool, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
			got := decode(t, rr)
			if got.Success || got.Message != tt.message {
				t.Errorf("envelope = %+v, want message %q", got, tt.message)
			}
			if got.Error != "" {
				t.Errorf("client errors must not carry an error field, got %q", got.Error)
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{"text":`, `[1,2]`, `null`, `{"text":"a"} {"text":"b"}`} {
		rr := env.post(t, "word-counter", body)
		if rr.Code != http.StatusBadRequest || decode(t, rr).Message != MessageInvalidJSON {
			t.Errorf("body %q: %d %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestKeywordDensity(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "keyword-density", `{"text":"the cat sat on the mat"}`)
	data := decode(t, rr).Data
	if data["totalWords"] != float64(6) {
		t.Errorf("totalWords = %v", data["totalWords"])
	}
	keywords := data["keywords"].([]any)
	if len(keywords) != 3 {
		t.Fatalf("keywords = %v", keywords)
	}
	first := keywords[0].(map[string]any)
	if first["keyword"] != "cat" || first["count"] != float64(1) {
		t.Errorf("first keyword = %v", first)
	}

	rr = env.post(t, "keyword-density", `{"text":"go is fun","minLength":"2","excludeWords":"fun"}`)
	keywords = decode(t, rr).Data["keywords"].([]any)
	if len(keywords) != 2 {
		t.Errorf("keywords with minLength 2 = %v", keywords)
	}

	rr = env.post(t, "keyword-density", `{"text":"a b","minLength":-1,"excludeWords":"zzz"}`)
	keywords = decode(t, rr).Data["keywords"].([]any)
	if len(keywords) != 2 {
		t.Errorf("negative minLength should keep every token, got %v", keywords)
	}

	rr = env.post(t, "keyword-density", `{"text":"abc","minLength":"many"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric minLength status = %d", rr.Code)
	}
}

func TestTextTools(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		tool string
		body string
		key  string
		want string
	}{
		{"text-case-converter", `{"text":"hello world","conversionType":"titlecase"}`, "convertedText", "Hello World"},
		{"text-case-converter", `{"text":"Hello","conversionType":"unknown"}`, "convertedText", "Hello"},
		{"md5-generator", `{"text":"hello"}`, "hash", "5d41402abc4b2a76b9719d911017c592"},
		{"word-combiner", `{"words":["seo","tools",""]}`, "combinedText", "seo tools "},
		{"word-combiner", `{"words":[]}`, "combinedText", ""},
		{"meta-tag-generator", `{"title":"Hi"}`, "metaTagsHtml",
			"<title>Hi</title>\n<meta property=\"og:title\" content=\"Hi\" />\n<meta property=\"og:type\" content=\"website\" />\n<meta name=\"twitter:title\" content=\"Hi\" />\n"},
		{"meta-tag-generator", `{"title":"<b>","escape":true}`, "metaTagsHtml",
			"<title>&lt;b&gt;</title>\n<meta property=\"og:title\" content=\"&lt;b&gt;\" />\n<meta property=\"og:type\" content=\"website\" />\n<meta name=\"twitter:title\" content=\"&lt;b&gt;\" />\n"},
		{"paraphrasing-tool", `{"text":"abc"}`, "paraphrasedText", llm.ParaphrasePrefix + "abc"},
		{"article-rewriter", `{"text":"abc"}`, "rewrittenText", llm.RewritePrefix + "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			rr := env.post(t, tt.tool, tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
			}
			if got := decode(t, rr).Data[tt.key]; got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestMetaTagGenerator_EmptyBody(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "meta-tag-generator", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode(t, rr).Data["metaTagsHtml"]; got != "<meta property=\"og:type\" content=\"website\" />\n" {
		t.Errorf("metaTagsHtml = %q", got)
	}
}

func TestPlagiarismChecker(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "plagiarism-checker", `{"text":"short text"}`)
	data := decode(t, rr).Data
	if data["originalityScore"] != float64(99) {
		t.Errorf("originalityScore = %v", data["originalityScore"])
	}
	sources := data["matchedSources"].([]any)
	if len(sources) != 2 || sources[0].(map[string]any)["matchedText"] != "short text..." {
		t.Errorf("matchedSources = %v", sources)
	}
}

func TestImageToText(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "image-to-text", `{"imageUrl":"`+pngDataURL(t, 4, 4)+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr).Data["text"]; got != ocrprocessor.SampleText {
		t.Errorf("text = %v", got)
	}
}

func TestImageTools(t *testing.T) {
	env := newTestEnv(t)
	src := pngDataURL(t, 40, 20)

	rr := env.post(t, "image-resizer", `{"imageUrl":"`+src+`","width":"10","height":5}`)
	data := decode(t, rr).Data
	if rr.Code != http.StatusOK {
		t.Fatalf("image-resizer status = %d body = %s", rr.Code, rr.Body.String())
	}
	url, _ := data["resizedImageUrl"].(string)
	if !strings.HasPrefix(url, imaging.FilesPath) || data["width"] != float64(10) || data["height"] != float64(5) {
		t.Errorf("image-resizer data = %v", data)
	}

	// The stored file is served under /files/.
	file := env.do(t, http.MethodGet, url, "")
	if file.Code != http.StatusOK {
		t.Errorf("GET %s status = %d", url, file.Code)
	}
	if cfg, _, err := image.DecodeConfig(file.Body); err != nil || cfg.Width != 10 {
		t.Errorf("served image = %+v, %v", cfg, err)
	}

	rr = env.post(t, "crop-image", `{"imageUrl":"`+src+`","x":5,"width":10,"height":10}`)
	if rr.Code != http.StatusOK || decode(t, rr).Data["croppedImageUrl"] == "" {
		t.Errorf("crop-image = %d %s", rr.Code, rr.Body.String())
	}

	rr = env.post(t, "png-to-jpg", `{"imageUrl":"`+src+`"}`)
	if got, _ := decode(t, rr).Data["jpgImageUrl"].(string); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("png-to-jpg url = %q", got)
	}

	rr = env.post(t, "jpg-to-png", `{"imageUrl":"`+src+`"}`)
	if got, _ := decode(t, rr).Data["pngImageUrl"].(string); !strings.HasSuffix(got, ".png") {
		t.Errorf("jpg-to-png url = %q", got)
	}

	rr = env.post(t, "convert-to-jpg", `{"imageUrl":"`+src+`"}`)
	if got, _ := decode(t, rr).Data["convertedImageUrl"].(string); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("convert-to-jpg url = %q", got)
	}

	rr = env.post(t, "photo-resizer-kb", `{"imageUrl":"`+src+`","targetSize":50}`)
	data = decode(t, rr).Data
	if size, _ := data["finalSize"].(float64); rr.Code != http.StatusOK || size <= 0 || size > 50 {
		t.Errorf("photo-resizer-kb = %d %v", rr.Code, data)
	}

	rr = env.post(t, "compress-image", `{"imageUrl":"`+src+`","quality":40}`)
	data = decode(t, rr).Data
	if data["originalSize"] == "" || data["compressedSize"] == "" || data["compressedImageUrl"] == "" {
		t.Errorf("compress-image data = %v", data)
	}
}

func TestImageTools_ClientErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		tool string
		body string
	}{
		{"unsupported scheme", "convert-to-jpg", `{"imageUrl":"ftp://example.com/a.png"}`},
		{"not an image", "convert-to-jpg", `{"imageUrl":"data:text/plain,hello"}`},
		{"dimension too large", "image-resizer", `{"imageUrl":"` + pngDataURL(t, 2, 2) + `","width":100000,"height":1}`},
		{"area too large", "image-resizer", `{"imageUrl":"` + pngDataURL(t, 2, 2) + `","width":10000,"height":10000}`},
		{"non-numeric width", "image-resizer", `{"imageUrl":"x","width":"wide","height":1}`},
		{"crop outside image", "crop-image", `{"imageUrl":"` + pngDataURL(t, 2, 2) + `","x":50,"y":50,"width":1,"height":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.post(t, tt.tool, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestImageTools_InternalAddressRejected(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("internal-secret"))
	}))
	defer internal.Close()

	env := newTestEnv(t)
	for _, tool := range []string{"image-to-text", "convert-to-jpg"} {
		rr := env.post(t, tool, `{"imageUrl":"`+internal.URL+`/admin"}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400 (body %s)", tool, rr.Code, rr.Body.String())
		}
		body := decode(t, rr)
		if body.Success || !strings.Contains(body.Message, "not allowed") {
			t.Errorf("%s envelope = %+v", tool, body)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("internal server received %d requests, want 0", n)
	}
}

func TestMemoryUsageSummary_ManyTools(t *testing.T) {
	m := &memoryUsage{}
	tools := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	for n, tool := range tools {
		for range n + 1 {
			m.Insert(context.Background(), db.UsageRecord{Tool: tool, CreatedAt: time.Now()})
		}
	}

	summaries, _ := m.Summary(context.Background(), time.Time{})
	if len(summaries) != len(tools) {
		t.Fatalf("len(summaries) = %d, want %d", len(summaries), len(tools))
	}
	for n, s := range summaries {
		if s.Tool != tools[n] || s.Requests != int64(n+1) {
			t.Errorf("summaries[%d] = %s/%d, want %s/%d", n, s.Tool, s.Requests, tools[n], n+1)
		}
	}
}

func TestDomainTools(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "domain-age", `{"domain":"example.com"}`)
	data := decode(t, rr).Data
	if data["domain"] != "example.com" || data["registrationDate"] != "2020-01-01" || data["age"] != "3 years, 2 months" {
		t.Errorf("domain-age data = %v", data)
	}

	rr = env.post(t, "dns-records", `{"domain":"example.com"}`)
	records := decode(t, rr).Data["records"].(map[string]any)
	if a := records["a"].([]any); len(a) != 1 || a[0] != "192.168.1.1" {
		t.Errorf("records.a = %v", a)
	}

	for _, tool := range []string{"domain-authority", "domain-ip", "domain-hosting"} {
		rr := env.post(t, tool, `{"domain":"example.com"}`)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", tool, rr.Code)
		}
	}
}

func TestProviderFailure(t *testing.T) {
	env := newTestEnv(t, func(c *Config, d *Deps) { d.Providers.Rewriter = failingRewriter{} })

	rr := env.post(t, "paraphrasing-tool", `{"text":"abc"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	got := decode(t, rr)
	if got.Message != "Error paraphrasing text" || got.Error != "upstream unavailable" {
		t.Errorf("envelope = %+v", got)
	}

	rr = env.post(t, "article-rewriter", `{"text":"abc"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d, want 500", rr.Code)
	}
	got = decode(t, rr)
	if got.Message != "Error rewriting article" || got.Error != "rewrite exploded" {
		t.Errorf("panic envelope = %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/tools/backlink-checker"},
		{http.MethodGet, "/api/tools/word-counter"},
		{http.MethodGet, "/api/admin/usage"},
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/files/"},
	} {
		rr := env.do(t, tc.method, tc.path, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rr.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(c *Config, d *Deps) { c.CORSOrigin = "https://app.example.com" })

	rr := env.do(t, http.MethodOptions, "/api/tools/word-counter", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("Allow-Methods = %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}

	rr = env.post(t, "md5-generator", `{"text":"a"}`)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin on POST = %q", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "md5-generator", `{"text":"a"}`)
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no request id")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tools/md5-generator", strings.NewReader(`{"text":"a"}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config, d *Deps) { c.RateLimitMax = 3 })
	handler := env.server.Handler()

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/tools/md5-generator", strings.NewReader(`{"text":"a"}`))
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 3; i++ {
		rr := send("10.0.0.1")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rr.Code)
		}
		if got := rr.Header().Get("RateLimit-Remaining"); got != string(rune('2'-i)) {
			t.Errorf("request %d RateLimit-Remaining = %q", i+1, got)
		}
	}

	rr := send("10.0.0.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request status = %d, want 429", rr.Code)
	}
	if got := decode(t, rr).Message; got != MessageRateLimited {
		t.Errorf("message = %q", got)
	}
	if rr.Header().Get("RateLimit-Limit") != "3" || rr.Header().Get("X-RateLimit-Limit") != "" {
		t.Errorf("headers = %v", rr.Header())
	}

	if rr := send("10.0.0.2"); rr.Code != http.StatusOK {
		t.Errorf("other client status = %d", rr.Code)
	}

	// Health checks are not limited.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	hr := httptest.NewRecorder()
	handler.ServeHTTP(hr, req)
	if hr.Code != http.StatusOK {
		t.Errorf("/api/health status = %d while limited", hr.Code)
	}
}

func TestUsageRecording(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tools/md5-generator", strings.NewReader(`{"text":"a"}`))
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "192.0.2.7:5555"
	env.server.Handler().ServeHTTP(httptest.NewRecorder(), req)

	env.post(t, "word-counter", `{}`)
	env.post(t, "backlink-checker", `{}`)
	env.do(t, http.MethodGet, "/api/tools", "")

	records := env.usage.all()
	if len(records) != 2 {
		t.Fatalf("got %d usage records, want 2: %+v", len(records), records)
	}
	first := records[0]
	if first.Tool != "md5-generator" || first.IPAddress != "192.0.2.7" || first.UserAgent != "test-agent" || first.StatusCode != http.StatusOK {
		t.Errorf("first record = %+v", first)
	}
	if first.RequestID == "" {
		t.Error("record has no request id")
	}
	if records[1].StatusCode != http.StatusBadRequest {
		t.Errorf("second record status = %d, want 400", records[1].StatusCode)
	}
}

func TestUsageRecording_FailureIsHidden(t *testing.T) {
	env := newTestEnv(t)
	env.usage.err = errors.New("disk full")

	rr := env.post(t, "md5-generator", `{"text":"a"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite usage failure", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	if got := clientIP(req, false); got != "192.0.2.1" {
		t.Errorf("clientIP(untrusted) = %q", got)
	}
	if got := clientIP(req, true); got != "203.0.113.5" {
		t.Errorf("clientIP(trusted) = %q", got)
	}
}
