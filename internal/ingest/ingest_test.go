package ingest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Cloud release notes</title>
  <entry>
    <title>May 20, 2024</title>
    <updated>2024-05-20T00:00:00-07:00</updated>
    <content type="html"><![CDATA[<h2 class="release-note-product-title">BigQuery</h2><h3>Feature</h3><p>New <code>JSON</code> type.</p><h3>Fixed</h3><p>Fixed join failures.</p><h2 class="release-note-product-title">Cloud Run</h2><p>Cloud Run jobs are generally available.</p>]]></content>
  </entry>
  <entry>
    <title>May 18, 2024</title>
    <updated>2024-05-18T00:00:00-07:00</updated>
    <content type="html"><![CDATA[<h2 class="release-note-product-title">BigQuery</h2><h3>Security</h3><p>Patched CVE-2024-0001.</p>]]></content>
  </entry>
  <entry>
    <title>Empty</title>
    <updated>2024-05-17T00:00:00Z</updated>
  </entry>
</feed>`

const sampleCatalog = `Data Analytics
   BigQuery      Serverless data warehouse.
   Looker

Serverless
   Cloud Run  Run containers   on demand.
`

// --- Feed ---

func TestParseFeed(t *testing.T) {
	notes, err := ParseFeed(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}

	want := Notes{
		"BigQuery": {
			{Date: "2024-05-20T00:00:00-07:00", Title: "May 20, 2024", Type: "Feature", Content: "<p>New <code>JSON</code> type.</p>"},
			{Date: "2024-05-20T00:00:00-07:00", Title: "May 20, 2024", Type: "Fixed", Content: "<p>Fixed join failures.</p>"},
			{Date: "2024-05-18T00:00:00-07:00", Title: "May 18, 2024", Type: "Security", Content: "<p>Patched CVE-2024-0001.</p>"},
		},
		"Cloud Run": {
			{Date: "2024-05-20T00:00:00-07:00", Title: "May 20, 2024", Content: "<p>Cloud Run jobs are generally available.</p>"},
		},
	}
	if diff := cmp.Diff(want, notes); diff != "" {
		t.Errorf("ParseFeed mismatch (-want +got):\n%s", diff)
	}
	if notes.Count() != 4 {
		t.Errorf("Count() = %d, want 4", notes.Count())
	}
}

func TestParseFeed_Invalid(t *testing.T) {
	for _, input := range []string{"", "<html><body>nope</body></html>"} {
		if _, err := ParseFeed(strings.NewReader(input)); err == nil {
			t.Errorf("ParseFeed(%q) should fail", input)
		}
	}
}

func TestFetchFeed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	notes, err := FetchFeed(context.Background(), srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(notes["BigQuery"]) != 3 {
		t.Errorf("BigQuery notes = %d, want 3", len(notes["BigQuery"]))
	}

	if _, err := FetchFeed(context.Background(), srv.URL+"/missing.xml"); err == nil {
		t.Error("expected an error for a 404")
	}
}

// --- Catalog text ---

func TestParseCatalogText(t *testing.T) {
	entries, err := ParseCatalogText(strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalogText: %v", err)
	}
	want := []CatalogEntry{
		{ID: "bigquery", Name: "BigQuery", Category: "Data Analytics", Description: "Serverless data warehouse."},
		{ID: "cloud-run", Name: "Cloud Run", Category: "Serverless", Description: "Run containers   on demand."},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"BigQuery":          "bigquery",
		"Cloud Run":         "cloud-run",
		"Vertex AI\tSearch": "vertex-ai-search",
		"":                  "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Icons ---

func TestMatchIcons(t *testing.T) {
	fsys := fstest.MapFS{
		"BigQuery-Logo.svg": {Data: []byte("<svg/>")},
		"cloud-run.svg":     {Data: []byte("<svg/>")},
		"cloud-run/old.svg": {Data: []byte("<svg/>")},
	}
	products := []catalog.Product{
		{ID: "bigquery", Name: "BigQuery", Icon: "📦"},
		{ID: "cloud-run", Name: "Cloud Run", Icon: "📦"},
		{ID: "gke", Name: "GKE", Icon: "☸️"},
	}

	got, matched, err := MatchIcons(products, fsys, "icons")
	if err != nil {
		t.Fatalf("MatchIcons: %v", err)
	}
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}
	wantIcons := []string{"/icons/BigQuery-Logo.svg", "/icons/cloud-run.svg", "☸️"}
	for i, p := range got {
		if p.Icon != wantIcons[i] {
			t.Errorf("%s icon = %q, want %q", p.ID, p.Icon, wantIcons[i])
		}
	}
	if products[0].Icon != "📦" {
		t.Error("input must not be modified")
	}
}

// --- Build ---

func TestInferType(t *testing.T) {
	tests := []struct {
		label, text string
		want        catalog.ChangeType
	}{
		{"Feature", "anything", catalog.TypeFeature},
		{"Fixed", "", catalog.TypeBugFix},
		{"Deprecated", "", catalog.TypeDeprecated},
		{"Announcement", "Patched CVE-2024-1.", catalog.TypeSecurity},
		{"Changed", "The v1 API is deprecated.", catalog.TypeDeprecated},
		{"", "Jobs are generally available.", catalog.TypeGA},
		{"Announcement", "Now in Preview.", catalog.TypePreview},
		{"Issue", "Resolved a crash.", catalog.TypeBugFix},
		{"Libraries", "New client release.", catalog.TypeFeature},
	}
	for _, tt := range tests {
		if got := InferType(tt.label, tt.text); got != tt.want {
			t.Errorf("InferType(%q, %q) = %q, want %q", tt.label, tt.text, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	notes, err := ParseFeed(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	entries, err := ParseCatalogText(strings.NewReader(sampleCatalog + "   Spanner  Global SQL.\n"))
	if err != nil {
		t.Fatalf("ParseCatalogText: %v", err)
	}

	products, err := Build(entries, notes, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []catalog.Product{
		{ID: "bigquery", Name: "BigQuery", Icon: DefaultIcon, Changes: []catalog.Change{
			{ID: "bigquery-1", Date: "2024-05-20T07:00:00Z", Type: catalog.TypeFeature, Description: "New JSON type."},
			{ID: "bigquery-2", Date: "2024-05-20T07:00:00Z", Type: catalog.TypeBugFix, Description: "Fixed join failures."},
			{ID: "bigquery-3", Date: "2024-05-18T07:00:00Z", Type: catalog.TypeSecurity, Description: "Patched CVE-2024-0001."},
		}},
		{ID: "cloud-run", Name: "Cloud Run", Icon: DefaultIcon, Changes: []catalog.Change{
			{ID: "cloud-run-1", Date: "2024-05-20T07:00:00Z", Type: catalog.TypeGA, Description: "Cloud Run jobs are generally available."},
		}},
		{ID: "spanner", Name: "Spanner", Icon: DefaultIcon, Changes: []catalog.Change{}},
	}
	if diff := cmp.Diff(want, products); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}

	skipped, err := Build(entries, notes, BuildOptions{SkipEmpty: true, Icon: "☁️"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(skipped) != 2 || skipped[0].Icon != "☁️" {
		t.Errorf("SkipEmpty build = %+v", skipped)
	}
}

func TestBuild_BadDate(t *testing.T) {
	entries := []CatalogEntry{{ID: "x", Name: "X"}}
	notes := Notes{"X": {{Date: "yesterday", Content: "<p>hi</p>"}}}
	if _, err := Build(entries, notes, BuildOptions{}); err == nil {
		t.Error("expected an error for an unparseable date")
	}
}

func TestWriteProducts_Loads(t *testing.T) {
	products := []catalog.Product{{ID: "a", Name: "A", Icon: DefaultIcon, Changes: []catalog.Change{
		{ID: "a-1", Date: "2024-05-01T00:00:00Z", Type: catalog.TypeGA, Description: "<b>GA</b>"},
	}}}
	var buf bytes.Buffer
	if err := WriteProducts(&buf, products); err != nil {
		t.Fatalf("WriteProducts: %v", err)
	}
	if !strings.Contains(buf.String(), "<b>GA</b>") {
		t.Error("HTML must not be escaped in the data file")
	}
	store, err := catalog.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}
