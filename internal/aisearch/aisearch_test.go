package aisearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

func TestMain(m *testing.M) {
	// genai's transitive opencensus dependency starts a worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// --- Helpers ---

// stubGenerator records prompts and returns a canned reply.
type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.reply, g.err
}

func (g *stubGenerator) Name() string { return "stub" }

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:   "bigquery",
			Name: "BigQuery",
			Changes: []catalog.Change{
				{ID: "bq-1", Date: "2024-05-20T12:00:00Z", Type: catalog.TypeGA, Description: "Continuous queries are GA."},
				{ID: "bq-2", Date: "2024-05-01T12:00:00Z", Type: catalog.TypeBugFix, Description: "Fixed a join bug."},
			},
		},
		{ID: "iam", Name: "IAM"},
	}
}

// --- Ask ---

func TestAsk_FallbackContainsQuery(t *testing.T) {
	svc := New(nil, nil)
	query := `What's new in "BigQuery"?`

	ans, err := svc.Ask(context.Background(), query, sampleProducts())
	if err != nil {
		t.Fatalf("Ask without credential must not fail: %v", err)
	}
	if !ans.Fallback {
		t.Error("answer should be marked as fallback")
	}
	if !strings.Contains(ans.Text, query) {
		t.Errorf("fallback answer should quote the query, got: %s", ans.Text)
	}
	if svc.Configured() {
		t.Error("service without generator reports configured")
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	svc := New(gen, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), q, sampleProducts())
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Ask(%q) error = %v, want ErrEmptyQuery", q, err)
		}
	}
	if len(gen.prompts) != 0 {
		t.Error("generator must not be called for an empty query")
	}
}

func TestAsk_Answered(t *testing.T) {
	gen := &stubGenerator{reply: "**BigQuery** shipped continuous queries."}
	svc := New(gen, nil)

	ans, err := svc.Ask(context.Background(), "  what is GA?  ", sampleProducts())
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ans.Fallback {
		t.Error("real answer marked as fallback")
	}
	if ans.Text != gen.reply {
		t.Errorf("Text = %q, want %q", ans.Text, gen.reply)
	}
	if ans.Query != "what is GA?" {
		t.Errorf("Query = %q, want trimmed query", ans.Query)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], `User's question: "what is GA?"`) {
		t.Errorf("prompt does not carry the question: %v", gen.prompts)
	}
}

func TestAsk_UpstreamFailureIsDistinct(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	svc := New(gen, nil)

	ans, err := svc.Ask(context.Background(), "anything", sampleProducts())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
	if ans.Fallback || ans.Text != "" {
		t.Errorf("failed call must not produce an answer, got %+v", ans)
	}
}

func TestAsk_Observer(t *testing.T) {
	var got []Outcome
	observe := WithObserver(func(o Outcome, _ time.Duration) { got = append(got, o) })

	_, _ = New(nil, nil, observe).Ask(context.Background(), "q", nil)
	_, _ = New(&stubGenerator{reply: "ok"}, nil, observe).Ask(context.Background(), "q", nil)
	_, _ = New(&stubGenerator{err: errors.New("x")}, nil, observe).Ask(context.Background(), "q", nil)
	_, _ = New(nil, nil, observe).Ask(context.Background(), "", nil)

	want := []Outcome{OutcomeFallback, OutcomeAnswered, OutcomeFailed, OutcomeRejected}
	if strings.Join(toStrings(got), ",") != strings.Join(toStrings(want), ",") {
		t.Errorf("outcomes = %v, want %v", got, want)
	}
}

func toStrings(outcomes []Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = string(o)
	}
	return out
}

// --- Prompt ---

func TestBuildContext(t *testing.T) {
	got := BuildContext(sampleProducts())
	want := "Product: BigQuery\n" +
		"- (2024-05-20, General Availability): Continuous queries are GA.\n" +
		"- (2024-05-01, Bug Fix): Fixed a join bug.\n" +
		"\n" +
		"Product: IAM"
	if got != want {
		t.Errorf("BuildContext mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("any security fixes?", sampleProducts())
	for _, want := range []string{
		"based *only* on the provided release note data",
		"Do not use any external knowledge.",
		"Markdown",
		"couldn't find the information",
		"---\nProduct: BigQuery",
		`User's question: "any security fixes?"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// --- Rendering ---

func TestRenderHTML_Sanitizes(t *testing.T) {
	md := "**Bold** and a list:\n\n- one\n- two\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))"
	got, err := RenderHTML(md)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if !strings.Contains(got, "<strong>Bold</strong>") {
		t.Errorf("bold not rendered: %s", got)
	}
	if !strings.Contains(got, "<li>one</li>") {
		t.Errorf("list not rendered: %s", got)
	}
	if strings.Contains(got, "<script") || strings.Contains(got, "javascript:") {
		t.Errorf("unsafe markup survived: %s", got)
	}
}

func TestAnswerHTML(t *testing.T) {
	html, err := Answer{Text: "# Title"}.HTML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Title</h1>") {
		t.Errorf("heading not rendered: %s", html)
	}
}

// --- Sequencer ---

func TestSequencer_DiscardsSuperseded(t *testing.T) {
	var seq Sequencer
	if seq.IsLatest(0) {
		t.Error("zero token must never be latest")
	}

	first := seq.Next()
	second := seq.Next()

	if seq.IsLatest(first) {
		t.Error("superseded token reported as latest")
	}
	if !seq.IsLatest(second) {
		t.Error("newest token should be latest")
	}
	if seq.Latest() != second {
		t.Errorf("Latest = %d, want %d", seq.Latest(), second)
	}
}

func TestSequencer_Concurrent(t *testing.T) {
	var seq Sequencer
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- seq.Next()
		}()
	}
	wg.Wait()
	close(seen)

	uniq := make(map[uint64]bool)
	for tok := range seen {
		if uniq[tok] {
			t.Fatalf("token %d issued twice", tok)
		}
		uniq[tok] = true
	}
	if seq.Latest() != 100 {
		t.Errorf("Latest = %d, want 100", seq.Latest())
	}
}

// --- Generators ---

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(context.Background(), ProviderGemini, "", "", "")
	if err != nil || gen != nil {
		t.Errorf("empty key should yield nil generator, got %v, %v", gen, err)
	}
	if _, err := NewGenerator(context.Background(), "llama", "key", "", ""); err == nil {
		t.Error("unknown provider should fail")
	}
	gen, err = NewGenerator(context.Background(), ProviderOpenAI, "key", "", "")
	if err != nil {
		t.Fatalf("openai generator: %v", err)
	}
	if gen.Name() != "openai:"+DefaultOpenAIModel {
		t.Errorf("Name = %q", gen.Name())
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"- one change"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	gen, err := NewOpenAIGenerator("test-key", "test-model", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}
	text, err := gen.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "- one change" {
		t.Errorf("text = %q", text)
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q", gotModel)
	}
}

func TestOpenAIGenerator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	gen, _ := NewOpenAIGenerator("test-key", "", srv.URL+"/v1")
	svc := New(gen, nil)
	if _, err := svc.Ask(context.Background(), "q", nil); !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), "", ""); err == nil {
		t.Error("expected error without API key")
	}
}
