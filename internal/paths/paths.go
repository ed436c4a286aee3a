// Package paths resolves the on-disk locations of every file pacterm
// persists: the official index, details cache, recent queries, staged lists,
// preflight caches, and the per-response HTTP cache.
package paths

import (
	"os"
	"path/filepath"
)

// Paths holds resolved file locations. All directories exist after New.
type Paths struct {
	CacheDir string
	StateDir string

	Index        string
	DetailsCache string
	Recent       string
	InstallList  string
	RemoveList   string
	DowngradeLst string
	NewsRead     string

	DepsCache     string
	FilesCache    string
	ServicesCache string
	SandboxCache  string
	SummaryCache  string

	HTTPCacheDir string
	LogFile      string
}

// New resolves paths under the XDG cache and state directories, creating the
// directories as needed. An explicit baseDir overrides both roots (used by
// tests and the --config override).
func New(baseDir string) (Paths, error) {
	cacheRoot := baseDir
	stateRoot := baseDir
	if baseDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return Paths{}, err
		}
		cacheRoot = filepath.Join(userCache, "pacterm")
		stateRoot = stateDir()
	}

	p := Paths{
		CacheDir: cacheRoot,
		StateDir: stateRoot,

		Index:        filepath.Join(cacheRoot, "official_index.json"),
		DetailsCache: filepath.Join(cacheRoot, "details_cache.json"),
		Recent:       filepath.Join(stateRoot, "recent.json"),
		InstallList:  filepath.Join(stateRoot, "install_list.json"),
		RemoveList:   filepath.Join(stateRoot, "remove_list.json"),
		DowngradeLst: filepath.Join(stateRoot, "downgrade_list.json"),
		NewsRead:     filepath.Join(stateRoot, "news_read.json"),

		DepsCache:     filepath.Join(cacheRoot, "deps_cache.json"),
		FilesCache:    filepath.Join(cacheRoot, "files_cache.json"),
		ServicesCache: filepath.Join(cacheRoot, "services_cache.json"),
		SandboxCache:  filepath.Join(cacheRoot, "sandbox_cache.json"),
		SummaryCache:  filepath.Join(cacheRoot, "summary_cache.json"),

		HTTPCacheDir: filepath.Join(cacheRoot, "http"),
		LogFile:      filepath.Join(stateRoot, "pacterm.log"),
	}

	for _, dir := range []string{p.CacheDir, p.StateDir, p.HTTPCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, err
		}
	}
	return p, nil
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pacterm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pacterm")
	}
	return filepath.Join(home, ".local", "state", "pacterm")
}
