package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/ingest"
	"github.com/HendryAvila/relnotes/internal/prefs"
)

// writeConfig writes a config that keeps all state under a temp dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "data_dir: " + filepath.Join(dir, "data") + "\nlog_level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version", "--config", "/nonexistent/dir/config.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "relnotes v"), "got %q", out)
}

func TestServe_InvalidAddrFlagRejected(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "", "serve", "--addr", "nowhere", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Addr")
}

func TestPrefs_ExportImportReset(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "", "prefs", "export", "--config", cfg)
	require.NoError(t, err)
	var p prefs.Preferences
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, prefs.SortRecent, p.SortOption)

	doc := `{"favorites":["bigquery"],"sortOption":"alphabetical","darkMode":true}`
	_, err = execute(t, doc, "prefs", "import", "--config", cfg)
	require.NoError(t, err)

	out, err = execute(t, "", "prefs", "export", "--config", cfg)
	require.NoError(t, err)
	p = prefs.Preferences{}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, []string{"bigquery"}, p.Favorites)
	assert.Equal(t, prefs.SortAlphabetical, p.SortOption)
	assert.True(t, p.DarkMode)

	_, err = execute(t, "", "prefs", "reset", "--config", cfg)
	require.NoError(t, err)
	out, err = execute(t, "", "prefs", "export", "--config", cfg)
	require.NoError(t, err)
	p = prefs.Preferences{}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Empty(t, p.Favorites)
	assert.False(t, p.DarkMode)
}

func TestPrefs_ImportRejectsInvalid(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, `{"sortOption":"popularity"}`, "prefs", "import", "--config", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, prefs.ErrInvalidSettings)
}

func TestIngest_CatalogFeedBuild(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()

	catalogTxt := filepath.Join(dir, "products.txt")
	require.NoError(t, os.WriteFile(catalogTxt, []byte("Compute\n   Cloud Run  Run containers.\n   Spanner  Global database.\n"), 0o644))
	feed := filepath.Join(dir, "feed.xml")
	require.NoError(t, os.WriteFile(feed, []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>May 20, 2024</title>
    <updated>2024-05-20T00:00:00Z</updated>
    <content type="html"><![CDATA[<h2 class="release-note-product-title">Cloud Run</h2><h3>Fixed</h3><p>Fixed cold starts.</p>]]></content>
  </entry>
</feed>`), 0o644))

	entries := filepath.Join(dir, "catalog.json")
	notes := filepath.Join(dir, "notes.json")
	products := filepath.Join(dir, "products.json")

	_, err := execute(t, "", "ingest", "catalog", catalogTxt, "-o", entries, "--config", cfg)
	require.NoError(t, err)
	_, err = execute(t, "", "ingest", "feed", "--file", feed, "-o", notes, "--config", cfg)
	require.NoError(t, err)
	_, err = execute(t, "", "ingest", "build", "--catalog", entries, "--notes", notes, "--skip-empty", "-o", products, "--config", cfg)
	require.NoError(t, err)

	store, err := catalog.LoadFile(products)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len(), "Spanner has no notes and is skipped")
	run, ok := store.Product("cloud-run")
	require.True(t, ok)
	assert.Equal(t, ingest.DefaultIcon, run.Icon)
	require.Len(t, run.Changes, 1)
	assert.Equal(t, catalog.TypeBugFix, run.Changes[0].Type)
}

func TestRunHTTP_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runHTTP(ctx, srv, time.Second, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
