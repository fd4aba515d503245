package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// CatalogEntry is one product line from the plain-text product catalog.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// columnGap separates the name column from the description column.
var columnGap = regexp.MustCompile(`\s{2,}`)

// whitespace matches a single whitespace rune, for slugs.
var whitespace = regexp.MustCompile(`\s`)

// Slug lowercases name and replaces every whitespace rune with '-'.
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-")
}

// ParseCatalogText reads the indented product catalog. Unindented
// non-blank lines name a category. Lines indented by at least three
// spaces hold a product name and a description separated by two or more
// spaces; indented lines without a description are skipped.
func ParseCatalogText(r io.Reader) ([]CatalogEntry, error) {
	var (
		entries  []CatalogEntry
		category string
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "   ") {
			parts := columnGap.Split(strings.TrimSpace(line), 2)
			if len(parts) < 2 {
				continue
			}
			entries = append(entries, CatalogEntry{
				ID:          Slug(parts[0]),
				Name:        parts[0],
				Category:    category,
				Description: strings.TrimSpace(parts[1]),
			})
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			category = trimmed
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog text: %w", err)
	}
	return entries, nil
}
