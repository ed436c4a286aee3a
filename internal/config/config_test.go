package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kajell/pacterm/internal/state"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.toml"))
	def := Default()
	if cfg.Layout != def.Layout {
		t.Fatalf("layout = %+v, want defaults %+v", cfg.Layout, def.Layout)
	}
	if cfg.Sort() != state.SortRepoThenName {
		t.Fatalf("default sort mode = %v, want repo-then-name", cfg.Sort())
	}
}

func TestLoadMalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pacterm.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Load(path)
	if cfg.SortMode != Default().SortMode {
		t.Fatalf("malformed config should fall back to defaults")
	}
}

func TestLoadNormalizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pacterm.toml")
	body := `
sort_mode = "bogus"
news_max_age_days = -3

[layout]
recent_pct = 90
results_pct = 90
install_pct = 90
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Load(path)
	def := Default()
	if cfg.Layout != def.Layout {
		t.Fatalf("layout not normalized: %+v", cfg.Layout)
	}
	if cfg.SortMode != def.SortMode {
		t.Fatalf("sort mode not normalized: %q", cfg.SortMode)
	}
	if cfg.NewsMaxAge != def.NewsMaxAge {
		t.Fatalf("news max age not normalized: %d", cfg.NewsMaxAge)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "pacterm.toml")
	want := Default()
	want.SortMode = state.SortBestMatches.ConfigKey()
	want.FuzzySearch = true
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := Load(path)
	if got.SortMode != want.SortMode || !got.FuzzySearch {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}
