// Package config loads pacterm settings from ~/.config/pacterm/pacterm.toml.
// Missing or malformed files degrade to defaults; the UI never fails to start
// because of a bad settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/kajell/pacterm/internal/state"
)

// Layout holds the percentage widths of the three main columns.
type Layout struct {
	RecentPct  int `toml:"recent_pct"`
	ResultsPct int `toml:"results_pct"`
	InstallPct int `toml:"install_pct"`
}

// Keymap binds actions to key names understood by the terminal layer.
type Keymap struct {
	Quit         string `toml:"quit"`
	Help         string `toml:"help"`
	AddInstall   string `toml:"add_install"`
	AddRemove    string `toml:"add_remove"`
	AddDowngrad  string `toml:"add_downgrade"`
	ShowPkgbuild string `toml:"show_pkgbuild"`
	ShowComments string `toml:"show_comments"`
	CycleSort    string `toml:"cycle_sort"`
	Preflight    string `toml:"preflight"`
	Execute      string `toml:"execute"`
}

// Config is the full settings surface exposed to the rest of the app.
type Config struct {
	Layout        Layout   `toml:"layout"`
	Keymap        Keymap   `toml:"keys"`
	SortMode      string   `toml:"sort_mode"`
	ShowRecent    bool     `toml:"show_recent"`
	ShowInstall   bool     `toml:"show_install"`
	ShowKeybinds  bool     `toml:"show_keybinds"`
	Locale        string   `toml:"locale"`
	DryRun        bool     `toml:"dry_run"`
	NewsFilters   []string `toml:"news_filters"`
	NewsMaxAge    int      `toml:"news_max_age_days"`
	FuzzySearch   bool     `toml:"fuzzy_search"`
	InstalledOnly bool     `toml:"installed_only"`
}

const defaultConfigPath = "~/.config/pacterm/pacterm.toml"

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: Layout{RecentPct: 20, ResultsPct: 50, InstallPct: 30},
		Keymap: Keymap{
			Quit:         "ctrl+c",
			Help:         "f1",
			AddInstall:   "enter",
			AddRemove:    "ctrl+r",
			AddDowngrad:  "ctrl+g",
			ShowPkgbuild: "ctrl+p",
			ShowComments: "ctrl+t",
			CycleSort:    "ctrl+s",
			Preflight:    "ctrl+f",
			Execute:      "ctrl+x",
		},
		SortMode:     state.SortRepoThenName.ConfigKey(),
		ShowRecent:   true,
		ShowInstall:  true,
		ShowKeybinds: true,
		NewsMaxAge:   30,
	}
}

// Load reads settings from path (or the default location when empty), falling
// back to defaults on any error.
func Load(path string) Config {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return cfg
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			// Unreadable config is treated the same as a missing one.
			return cfg
		}
		return cfg
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Default()
	}

	cfg.normalize()
	return cfg
}

// Save writes settings to path, creating parent directories as needed. Used
// to persist the sort mode when the user changes it.
func Save(path string, cfg Config) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(resolved, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SortMode parses the configured sort mode, defaulting to repo-then-name.
func (c Config) Sort() state.SortMode {
	mode, _ := state.SortModeFromConfig(c.SortMode)
	return mode
}

func (c *Config) normalize() {
	total := c.Layout.RecentPct + c.Layout.ResultsPct + c.Layout.InstallPct
	if total != 100 || c.Layout.ResultsPct <= 0 {
		c.Layout = Default().Layout
	}
	if _, ok := state.SortModeFromConfig(c.SortMode); !ok {
		c.SortMode = Default().SortMode
	}
	if c.NewsMaxAge <= 0 {
		c.NewsMaxAge = Default().NewsMaxAge
	}
	def := Default().Keymap
	if strings.TrimSpace(c.Keymap.Quit) == "" {
		c.Keymap.Quit = def.Quit
	}
	if strings.TrimSpace(c.Keymap.AddInstall) == "" {
		c.Keymap.AddInstall = def.AddInstall
	}
}

func resolvePath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = defaultConfigPath
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return p, nil
}
