package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/ingest"
)

const defaultFeedURL = "https://cloud.google.com/feeds/gcp-release-notes.xml"

func newIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Prepare the products file from a release notes feed and a product list",
	}
	cmd.AddCommand(
		newIngestFeedCmd(a),
		newIngestCatalogCmd(a),
		newIngestIconsCmd(a),
		newIngestBuildCmd(a),
	)
	return cmd
}

// ─── feed ───────────────────────────────────────────────────────────────────

func newIngestFeedCmd(a *app) *cobra.Command {
	var url, file, out string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Split an Atom release notes feed into per-product notes (JSON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				notes ingest.Notes
				err   error
			)
			if file != "" {
				notes, err = parseFeedFile(file)
			} else {
				notes, err = ingest.FetchFeed(cmd.Context(), url)
			}
			if err != nil {
				return err
			}
			a.log.Info("feed parsed", zap.Int("products", len(notes)), zap.Int("notes", notes.Count()))
			return writeJSON(cmd, out, notes)
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultFeedURL, "feed URL")
	cmd.Flags().StringVar(&file, "file", "", "read the feed from a local file instead of --url")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func parseFeedFile(path string) (ingest.Notes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ParseFeed(f)
}

// ─── catalog ────────────────────────────────────────────────────────────────

func newIngestCatalogCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "catalog <products.txt>",
		Short: "Parse a copied product list into catalog entries (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseCatalogFile(args[0])
			if err != nil {
				return err
			}
			a.log.Info("catalog parsed", zap.Int("entries", len(entries)))
			return writeJSON(cmd, out, entries)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func parseCatalogFile(path string) ([]ingest.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ParseCatalogText(f)
}

// ─── icons ──────────────────────────────────────────────────────────────────

func newIngestIconsCmd(a *app) *cobra.Command {
	var productsFile, dir, prefix, out string
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "Point product icons at matching image files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.LoadFile(productsFile)
			if err != nil {
				return err
			}
			products, matched, err := ingest.MatchIcons(store.Products(), os.DirFS(dir), prefix)
			if err != nil {
				return err
			}
			a.log.Info("icons matched", zap.Int("matched", matched), zap.Int("products", len(products)))
			return writeProducts(cmd, out, products)
		},
	}
	cmd.Flags().StringVar(&productsFile, "products", "products.json", "products file to update")
	cmd.Flags().StringVar(&dir, "dir", "icons", "directory holding icon images")
	cmd.Flags().StringVar(&prefix, "prefix", "icons", "URL path prefix for matched icons")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// ─── build ──────────────────────────────────────────────────────────────────

func newIngestBuildCmd(a *app) *cobra.Command {
	var (
		catalogFile, notesFile, iconDir, iconPrefix, out string
		opts                                            ingest.BuildOptions
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Join catalog entries with feed notes into a products file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []ingest.CatalogEntry
			if err := readJSON(catalogFile, &entries); err != nil {
				return fmt.Errorf("reading catalog entries: %w", err)
			}
			var notes ingest.Notes
			if err := readJSON(notesFile, &notes); err != nil {
				return fmt.Errorf("reading notes: %w", err)
			}

			products, err := ingest.Build(entries, notes, opts)
			if err != nil {
				return err
			}
			if iconDir != "" {
				var matched int
				products, matched, err = ingest.MatchIcons(products, os.DirFS(iconDir), iconPrefix)
				if err != nil {
					return err
				}
				a.log.Info("icons matched", zap.Int("matched", matched))
			}
			a.log.Info("products built", zap.Int("products", len(products)))
			return writeProducts(cmd, out, products)
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "catalog.json", "catalog entries from 'ingest catalog'")
	cmd.Flags().StringVar(&notesFile, "notes", "notes.json", "notes from 'ingest feed'")
	cmd.Flags().StringVar(&iconDir, "icons", "", "also match icons from this directory")
	cmd.Flags().StringVar(&iconPrefix, "icon-prefix", "icons", "URL path prefix for matched icons")
	cmd.Flags().BoolVar(&opts.SkipEmpty, "skip-empty", false, "drop products with no release notes")
	cmd.Flags().StringVar(&opts.Icon, "default-icon", ingest.DefaultIcon, "icon for products without a match")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

// ─── Output helpers ─────────────────────────────────────────────────────────

// output returns the writer for path, or stdout when path is empty.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	w, closeFn, err := output(cmd, path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func writeProducts(cmd *cobra.Command, path string, products []catalog.Product) error {
	w, closeFn, err := output(cmd, path)
	if err != nil {
		return err
	}
	if err := ingest.WriteProducts(w, products); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
