// Package index maintains the process-wide catalog of official packages and
// the installed/explicit name sets. The catalog is persisted as a single JSON
// document and may be only partially enriched: entries start with name, repo
// and version, and gain description and architecture later.
package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/kajell/pacterm/internal/state"
)

// Pkg is one entry of the official index.
type Pkg struct {
	Name        string `json:"name"`
	Repo        string `json:"repo,omitempty"`
	Arch        string `json:"arch,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// Official is the persisted index shape.
type Official struct {
	Pkgs []Pkg `json:"pkgs"`
}

// Store holds the index plus the installed and explicitly-installed name
// sets behind a single-writer lock. Writers swap prebuilt values so readers
// never observe partial state.
type Store struct {
	mu        sync.RWMutex
	idx       Official
	installed map[string]struct{}
	explicit  map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		installed: make(map[string]struct{}),
		explicit:  make(map[string]struct{}),
	}
}

// Replace swaps in a new index after sorting by (repo, name) and deduplicating
// on that pair.
func (s *Store) Replace(idx Official) {
	normalize(&idx)
	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
}

// normalize enforces the index invariants: sorted by (repo, name), unique per
// (repo, name).
func normalize(idx *Official) {
	sort.SliceStable(idx.Pkgs, func(i, j int) bool {
		if idx.Pkgs[i].Repo != idx.Pkgs[j].Repo {
			return idx.Pkgs[i].Repo < idx.Pkgs[j].Repo
		}
		return idx.Pkgs[i].Name < idx.Pkgs[j].Name
	})
	seen := make(map[string]struct{}, len(idx.Pkgs))
	out := idx.Pkgs[:0]
	for _, p := range idx.Pkgs {
		key := p.Repo + "/" + p.Name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	idx.Pkgs = out
}

// Len reports the number of indexed packages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idx.Pkgs)
}

// Snapshot returns a copy of the index for persistence.
func (s *Store) Snapshot() Official {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkgs := make([]Pkg, len(s.idx.Pkgs))
	copy(pkgs, s.idx.Pkgs)
	return Official{Pkgs: pkgs}
}

// Search returns packages whose names contain the query, case-insensitively.
// A blank query yields nil; use All for the full catalog.
func (s *Store) Search(query string) []state.PackageItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []state.PackageItem
	for _, p := range s.idx.Pkgs {
		if strings.Contains(strings.ToLower(p.Name), q) {
			items = append(items, itemOf(p))
		}
	}
	return items
}

// SearchFuzzy matches the query against package names with the fuzzy matcher
// and returns items paired with their match score (higher is better).
func (s *Store) SearchFuzzy(query string) ([]state.PackageItem, []int) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	s.mu.RLock()
	names := make([]string, len(s.idx.Pkgs))
	for i, p := range s.idx.Pkgs {
		names[i] = p.Name
	}
	matches := fuzzy.Find(q, names)
	items := make([]state.PackageItem, 0, len(matches))
	scores := make([]int, 0, len(matches))
	for _, m := range matches {
		items = append(items, itemOf(s.idx.Pkgs[m.Index]))
		scores = append(scores, m.Score)
	}
	s.mu.RUnlock()
	return items, scores
}

// All returns the entire catalog as package items.
func (s *Store) All() []state.PackageItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]state.PackageItem, 0, len(s.idx.Pkgs))
	for _, p := range s.idx.Pkgs {
		items = append(items, itemOf(p))
	}
	return items
}

// Lookup finds the first index entry with the given name, case-insensitively.
func (s *Store) Lookup(name string) (Pkg, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.idx.Pkgs {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Pkg{}, false
}

// SetInstalled swaps the installed-name set.
func (s *Store) SetInstalled(names map[string]struct{}) {
	s.mu.Lock()
	s.installed = names
	s.mu.Unlock()
}

// SetExplicit swaps the explicitly-installed set.
func (s *Store) SetExplicit(names map[string]struct{}) {
	s.mu.Lock()
	s.explicit = names
	s.mu.Unlock()
}

// IsInstalled reports whether name is installed locally.
func (s *Store) IsInstalled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.installed[name]
	return ok
}

// Installed returns a copy of the installed set.
func (s *Store) Installed() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.installed))
	for n := range s.installed {
		out[n] = struct{}{}
	}
	return out
}

func itemOf(p Pkg) state.PackageItem {
	return state.PackageItem{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Source:      state.Official(p.Repo, p.Arch),
	}
}
