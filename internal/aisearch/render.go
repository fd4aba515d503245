package aisearch

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitize = bluemonday.UGCPolicy()
)

// RenderHTML converts markdown to HTML and strips anything unsafe.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return string(sanitize.SanitizeBytes(buf.Bytes())), nil
}

// HTML renders the answer as sanitized HTML.
func (a Answer) HTML() (string, error) {
	return RenderHTML(a.Text)
}
