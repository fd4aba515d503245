// Package ingest holds the offline data preparation steps that produce
// the static products file: release note feed ingestion, plain-text
// catalog parsing, icon matching and the final merge.
//
// Nothing here runs at serve time. The CLI chains the steps and writes
// a JSON file that catalog.LoadFile reads.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/gocolly/colly/v2"
)

// productTitleSelector marks the start of one product's section inside a
// feed entry.
const productTitleSelector = "h2.release-note-product-title"

// userAgent identifies feed requests.
const userAgent = "relnotes-ingest/1.0 (+https://github.com/HendryAvila/relnotes)"

// Note is one release note taken from a feed entry.
type Note struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Type    string `json:"type"`    // raw label from the feed, e.g. "Fixed"
	Content string `json:"content"` // HTML fragment
}

// Notes groups notes by product name, in feed order.
type Notes map[string][]Note

// Count returns the total number of notes.
func (n Notes) Count() int {
	total := 0
	for _, notes := range n {
		total += len(notes)
	}
	return total
}

// ParseFeed reads an Atom release notes feed. Every product section of
// every entry becomes one or more notes: one per h3 heading, or a single
// untyped note when the section has no headings.
func ParseFeed(r io.Reader) (Notes, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := xmlquery.Find(doc, "//*[local-name()='entry']")
	if len(entries) == 0 && xmlquery.FindOne(doc, "//*[local-name()='feed']") == nil {
		return nil, errors.New("parsing feed: no feed element")
	}

	notes := make(Notes)
	for _, entry := range entries {
		date := childText(entry, "updated")
		title := childText(entry, "title")
		content := childText(entry, "content")
		if content == "" {
			continue
		}
		if err := splitEntry(notes, date, title, content); err != nil {
			return nil, fmt.Errorf("entry %q: %w", title, err)
		}
	}
	return notes, nil
}

// childText returns the text of the first direct child element named
// name, ignoring namespaces.
func childText(n *xmlquery.Node, name string) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return strings.TrimSpace(c.InnerText())
		}
	}
	return ""
}

// splitEntry walks the product sections of one entry's HTML content.
func splitEntry(notes Notes, date, title, content string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parsing content: %w", err)
	}

	doc.Find(productTitleSelector).Each(func(_ int, h2 *goquery.Selection) {
		product := strings.TrimSpace(h2.Text())
		if product == "" {
			return
		}
		section := h2.NextUntil(productTitleSelector)

		var label string
		var body strings.Builder
		flush := func() {
			if strings.TrimSpace(body.String()) == "" {
				return
			}
			notes[product] = append(notes[product], Note{
				Date:    date,
				Title:   title,
				Type:    label,
				Content: strings.TrimSpace(body.String()),
			})
			body.Reset()
		}

		section.Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "h3" {
				flush()
				label = strings.TrimSpace(s.Text())
				return
			}
			if html, err := goquery.OuterHtml(s); err == nil {
				body.WriteString(html)
			}
		})
		flush()
	})
	return nil
}

// FetchFeed downloads the feed at url and parses it.
func FetchFeed(ctx context.Context, url string) (Notes, error) {
	c := colly.NewCollector(colly.StdlibContext(ctx))
	c.UserAgent = userAgent

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", url, err)
	}
	c.Wait()

	if len(body) == 0 {
		return nil, fmt.Errorf("fetching feed %s: empty response", url)
	}
	return ParseFeed(bytes.NewReader(body))
}
