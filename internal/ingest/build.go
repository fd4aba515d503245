package ingest

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

// DefaultIcon is used for products without an icon.
const DefaultIcon = "📦"

// BuildOptions controls Build.
type BuildOptions struct {
	// SkipEmpty drops catalog entries that have no notes.
	SkipEmpty bool
	// Icon is the fallback icon; DefaultIcon when empty.
	Icon string
}

// Build merges catalog entries with feed notes into products. Notes are
// matched to entries by product name. Each product's changes are ordered
// newest first. Entries whose slug repeats an earlier entry are skipped.
func Build(entries []CatalogEntry, notes Notes, opts BuildOptions) ([]catalog.Product, error) {
	icon := opts.Icon
	if icon == "" {
		icon = DefaultIcon
	}

	seen := make(map[string]bool, len(entries))
	products := make([]catalog.Product, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true

		changes, err := buildChanges(e.ID, notes[e.Name])
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", e.Name, err)
		}
		if opts.SkipEmpty && len(changes) == 0 {
			continue
		}
		products = append(products, catalog.Product{
			ID:      e.ID,
			Name:    e.Name,
			Icon:    icon,
			URL:     e.URL,
			Changes: changes,
		})
	}

	// Round-trip through the catalog so the output is known to load.
	if _, err := catalog.New(products); err != nil {
		return nil, err
	}
	return products, nil
}

func buildChanges(productID string, notes []Note) ([]catalog.Change, error) {
	changes := make([]catalog.Change, 0, len(notes))
	for i, n := range notes {
		date, err := normalizeDate(n.Date)
		if err != nil {
			return nil, err
		}
		text, err := plainText(n.Content)
		if err != nil {
			return nil, err
		}
		changes = append(changes, catalog.Change{
			ID:          fmt.Sprintf("%s-%d", productID, i+1),
			Date:        date,
			Type:        InferType(n.Type, text),
			Description: text,
		})
	}
	slices.SortStableFunc(changes, func(a, b catalog.Change) int {
		return b.Time().Compare(a.Time())
	})
	return changes, nil
}

// normalizeDate renders a feed timestamp as RFC 3339 in UTC.
func normalizeDate(raw string) (string, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}

// plainText strips markup from an HTML fragment and collapses whitespace.
func plainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing note content: %w", err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// typeKeywords maps description keywords to change types, checked in
// order when the label alone does not decide.
var typeKeywords = []struct {
	keywords []string
	typ      catalog.ChangeType
}{
	{[]string{"security", "vulnerab", "cve-"}, catalog.TypeSecurity},
	{[]string{"deprecat", "shut down", "end of life", "no longer supported"}, catalog.TypeDeprecated},
	{[]string{"generally available", "general availability", "is now ga"}, catalog.TypeGA},
	{[]string{"preview", "beta"}, catalog.TypePreview},
	{[]string{"fixed", "fixes", "resolved", "bug"}, catalog.TypeBugFix},
}

// InferType picks a change type for a note. A label that names a type
// (or an alias) wins; otherwise the label and text are scanned for
// keywords; anything else is a new feature.
func InferType(label, text string) catalog.ChangeType {
	if t, err := catalog.ParseChangeType(label); err == nil {
		return t
	}
	haystack := strings.ToLower(label + " " + text)
	for _, k := range typeKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(haystack, kw) {
				return k.typ
			}
		}
	}
	return catalog.TypeFeature
}

// WriteProducts writes products in the format catalog.Decode reads.
func WriteProducts(w io.Writer, products []catalog.Product) error {
	return catalog.Encode(w, products)
}
