package ingest

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

// MatchIcons sets each product's icon to the first file in fsys (in
// lexical order) whose lowercase name contains the product's slug. The
// icon becomes urlPrefix joined with the file name. Products without a
// match keep their icon. The input slice is not modified.
func MatchIcons(products []catalog.Product, fsys fs.FS, urlPrefix string) ([]catalog.Product, int, error) {
	dirents, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, 0, fmt.Errorf("reading icons: %w", err)
	}
	var files []string
	for _, d := range dirents {
		if !d.IsDir() {
			files = append(files, d.Name())
		}
	}

	out := make([]catalog.Product, len(products))
	matched := 0
	for i, p := range products {
		out[i] = p.Clone()
		slug := Slug(p.Name)
		if slug == "" {
			continue
		}
		for _, f := range files {
			if strings.Contains(strings.ToLower(f), slug) {
				out[i].Icon = path.Join("/", urlPrefix, f)
				matched++
				break
			}
		}
	}
	return out, matched, nil
}
