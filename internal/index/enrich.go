package index

import (
	"context"
	"strings"
)

// Enrich fills description, arch, repo, and version for any still-empty
// entries among names, using a batched sync-database info query. Entries that
// already carry a description keep it. Returns true when anything changed so
// the caller knows to persist.
func (s *Store) Enrich(ctx context.Context, f *Fetcher, names []string) bool {
	if len(names) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(names))
	var specs []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if p, ok := s.Lookup(n); ok && p.Description != "" && p.Arch != "" {
			continue
		}
		if _, dup := want[strings.ToLower(n)]; dup {
			continue
		}
		want[strings.ToLower(n)] = struct{}{}
		specs = append(specs, n)
	}
	if len(specs) == 0 {
		return false
	}

	infos, err := f.Pacman.SyncInfo(ctx, specs)
	if err != nil || len(infos) == 0 {
		return false
	}

	byName := make(map[string]int, len(infos))
	for i, info := range infos {
		byName[strings.ToLower(info.Name)] = i
	}

	changed := false
	s.mu.Lock()
	for i := range s.idx.Pkgs {
		p := &s.idx.Pkgs[i]
		j, ok := byName[strings.ToLower(p.Name)]
		if !ok {
			continue
		}
		info := infos[j]
		if p.Description == "" && info.Description != "" {
			p.Description = info.Description
			changed = true
		}
		if p.Arch == "" && info.Architecture != "" {
			p.Arch = info.Architecture
			changed = true
		}
		if p.Repo == "" && info.Repository != "" {
			p.Repo = info.Repository
			changed = true
		}
		if p.Version == "" && info.Version != "" {
			p.Version = info.Version
			changed = true
		}
	}
	s.mu.Unlock()
	return changed
}
