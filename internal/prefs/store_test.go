package prefs

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

// --- Helpers ---

func newTestStore(t *testing.T) (*Store, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	s := Open(kv, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, kv
}

func storedPreferences(t *testing.T, kv KV) Preferences {
	t.Helper()
	data, found, err := kv.Get(Key)
	if err != nil || !found {
		t.Fatalf("preferences not persisted: found=%v err=%v", found, err)
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("persisted preferences are not valid JSON: %v", err)
	}
	return p
}

// --- Load ---

func TestLoad_MissingReturnsDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	got := s.Snapshot()
	if !reflect.DeepEqual(got, Default()) {
		t.Errorf("Snapshot = %+v, want defaults %+v", got, Default())
	}
}

func TestLoad_CorruptReturnsDefaults(t *testing.T) {
	kv := NewMemoryKV()
	if err := kv.Set(Key, []byte(`{"favorites": [`)); err != nil {
		t.Fatal(err)
	}
	s := Open(kv, nil)

	got := s.Load()
	if !reflect.DeepEqual(got, Default()) {
		t.Errorf("Load on corrupt data = %+v, want defaults", got)
	}
}

func TestLoad_UnknownSortFallsBack(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(Key, []byte(`{"favorites":["a"],"sortOption":"name"}`))
	s := Open(kv, nil)

	got := s.Snapshot()
	if got.SortOption != SortRecent {
		t.Errorf("SortOption = %q, want recent", got.SortOption)
	}
	if !got.IsFavorite("a") {
		t.Error("favorites should survive a bad sort option")
	}
}

func TestLoad_MigratesLegacyKeys(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(legacyDarkModeKey, []byte("true"))
	_ = kv.Set(legacyFavoritesKey, []byte(`["gke","bigquery"]`))

	s := Open(kv, nil)
	got := s.Snapshot()

	if !got.DarkMode {
		t.Error("DarkMode should be migrated")
	}
	if want := []string{"bigquery", "gke"}; !reflect.DeepEqual(got.Favorites, want) {
		t.Errorf("Favorites = %v, want %v", got.Favorites, want)
	}
	if _, found, _ := kv.Get(legacyDarkModeKey); found {
		t.Error("legacy darkMode key should be removed")
	}
	if _, found, _ := kv.Get(legacyFavoritesKey); found {
		t.Error("legacy favorites key should be removed")
	}
	if p := storedPreferences(t, kv); !p.DarkMode {
		t.Error("migrated preferences should be persisted under the single key")
	}
}

// --- Mutations ---

func TestToggleFavorite_PersistsAndCancels(t *testing.T) {
	s, kv := newTestStore(t)

	p, err := s.ToggleFavorite("p2")
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !p.IsFavorite("p2") {
		t.Fatal("p2 should be a favorite after one toggle")
	}
	if !storedPreferences(t, kv).IsFavorite("p2") {
		t.Error("toggle should be persisted before returning")
	}

	p, _ = s.ToggleFavorite("p2")
	if p.IsFavorite("p2") {
		t.Error("two toggles should cancel out")
	}
}

func TestToggleTypeFilter_AliasIsCanonical(t *testing.T) {
	s, kv := newTestStore(t)

	p, err := s.ToggleTypeFilter(catalog.ChangeType("GA"))
	if err != nil {
		t.Fatalf("ToggleTypeFilter: %v", err)
	}
	if !p.IsFilterActive(catalog.TypeGA) {
		t.Fatalf("alias not resolved in session: %v", p.ActiveTypeFilters)
	}

	reopened := Open(kv, nil)
	if got := reopened.Snapshot().ActiveTypeFilters; !reflect.DeepEqual(got, p.ActiveTypeFilters) {
		t.Errorf("after reload = %v, in session = %v", got, p.ActiveTypeFilters)
	}

	p, _ = s.ToggleTypeFilter(catalog.TypeGA)
	if len(p.ActiveTypeFilters) != 0 {
		t.Errorf("alias then canonical toggle should cancel out, got %v", p.ActiveTypeFilters)
	}
}

func TestToggleTypeFilter_TwiceRestoresExactly(t *testing.T) {
	s, _ := newTestStore(t)
	_, _ = s.ToggleTypeFilter(catalog.TypeSecurity)
	_, _ = s.ToggleTypeFilter(catalog.TypeGA)
	before := s.Snapshot().ActiveTypeFilters

	for _, typ := range []catalog.ChangeType{catalog.TypeGA, catalog.TypePreview} {
		_, _ = s.ToggleTypeFilter(typ)
		_, _ = s.ToggleTypeFilter(typ)
		if after := s.Snapshot().ActiveTypeFilters; !reflect.DeepEqual(before, after) {
			t.Errorf("toggling %q twice: filters = %v, want %v", typ, after, before)
		}
	}
}

func TestClearTypeFilters(t *testing.T) {
	s, kv := newTestStore(t)
	_, _ = s.ToggleTypeFilter(catalog.TypeBugFix)

	p, err := s.ClearTypeFilters()
	if err != nil {
		t.Fatalf("ClearTypeFilters failed: %v", err)
	}
	if len(p.ActiveTypeFilters) != 0 {
		t.Errorf("filters = %v, want empty", p.ActiveTypeFilters)
	}
	if got := storedPreferences(t, kv).ActiveTypeFilters; len(got) != 0 {
		t.Errorf("persisted filters = %v, want empty", got)
	}
}

func TestSetters(t *testing.T) {
	s, kv := newTestStore(t)

	if _, err := s.SetSortOption(SortAlphabetical); err != nil {
		t.Fatalf("SetSortOption failed: %v", err)
	}
	if _, err := s.SetShowFavoritesOnly(true); err != nil {
		t.Fatalf("SetShowFavoritesOnly failed: %v", err)
	}
	if _, err := s.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode failed: %v", err)
	}

	got := storedPreferences(t, kv)
	if got.SortOption != SortAlphabetical || !got.ShowFavoritesOnly || !got.DarkMode {
		t.Errorf("persisted = %+v", got)
	}
}

func TestSetSortOption_RejectsUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SetSortOption("name")
	if err == nil {
		t.Fatal("expected error for unknown sort option")
	}
	if s.Snapshot().SortOption != SortRecent {
		t.Error("rejected sort option must not change state")
	}
}

func TestMutation_WriteFailureIsReported(t *testing.T) {
	s, kv := newTestStore(t)
	kv.FailWrites = true

	p, err := s.SetDarkMode(true)
	if err == nil {
		t.Fatal("expected write failure to be reported")
	}
	if !strings.Contains(err.Error(), "set dark mode") {
		t.Errorf("error should name the operation, got: %v", err)
	}
	if !p.DarkMode || !s.Snapshot().DarkMode {
		t.Error("in-memory state keeps the mutation after a failed write")
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s, _ := newTestStore(t)
	_, _ = s.ToggleFavorite("a")

	snap := s.Snapshot()
	snap.Favorites[0] = "mutated"

	if !s.Snapshot().IsFavorite("a") {
		t.Error("mutating a snapshot must not affect the store")
	}
}

// --- ReplaceAll / Import / Export ---

func TestReplaceAll_Normalizes(t *testing.T) {
	s, _ := newTestStore(t)
	p, err := s.ReplaceAll(Preferences{
		Favorites:         []string{"b", "a", "b"},
		ActiveTypeFilters: []catalog.ChangeType{catalog.TypeSecurity, catalog.TypeGA},
		SortOption:        SortAlphabetical,
	})
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(p.Favorites, want) {
		t.Errorf("Favorites = %v, want %v", p.Favorites, want)
	}
	if want := []catalog.ChangeType{catalog.TypeGA, catalog.TypeSecurity}; !reflect.DeepEqual(p.ActiveTypeFilters, want) {
		t.Errorf("ActiveTypeFilters = %v, want %v", p.ActiveTypeFilters, want)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src, _ := newTestStore(t)
	_, _ = src.ToggleFavorite("gke")
	_, _ = src.ToggleTypeFilter(catalog.TypePreview)
	_, _ = src.SetSortOption(SortAlphabetical)

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst, _ := newTestStore(t)
	got, err := dst.Import(data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !reflect.DeepEqual(got, src.Snapshot()) {
		t.Errorf("imported = %+v, want %+v", got, src.Snapshot())
	}
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"favorites":`},
		{"bad sort", `{"sortOption":"popular"}`},
		{"bad filter", `{"activeTypeFilters":["Rumor"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			_, _ = s.ToggleFavorite("keep")
			_, err := s.Import([]byte(tt.input))
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("Import error = %v, want ErrInvalidSettings", err)
			}
			if !s.Snapshot().IsFavorite("keep") {
				t.Error("failed import must not change state")
			}
		})
	}
}

func TestObserveWrites(t *testing.T) {
	s, kv := newTestStore(t)
	var ops []string
	var failed int
	s.ObserveWrites(func(op string, err error) {
		ops = append(ops, op)
		if err != nil {
			failed++
		}
	})

	_, _ = s.ToggleFavorite("a")
	kv.FailWrites = true
	_, _ = s.SetDarkMode(true)

	if want := []string{"toggle favorite", "set dark mode"}; !reflect.DeepEqual(ops, want) {
		t.Errorf("ops = %v, want %v", ops, want)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}
