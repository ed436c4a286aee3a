package index

import (
	"context"
)

// RefreshNote is what the background refresher reports to the coordinator
// after each pass. Empty is set when the store still holds no packages, the
// one case where a fetch failure leaves the user with nothing to search.
type RefreshNote struct {
	Err   error
	Empty bool
}

// Refresh fetches a fresh name listing and, when the name set differs from
// the current index, merges it in, preferring already-enriched fields per
// name. Returns true when the index changed; the caller persists and
// notifies the coordinator so the UI can drop its loading banner.
func (s *Store) Refresh(ctx context.Context, f *Fetcher) (bool, error) {
	fresh, err := f.FetchNames(ctx)
	if err != nil {
		return false, err
	}
	current := s.Snapshot()
	if sameNames(current, fresh) {
		return false, nil
	}
	s.Replace(Merge(current, fresh))
	return true, nil
}

// Merge combines an existing (possibly enriched) index with a fresh name
// listing. The fresh listing decides which (repo, name) pairs exist and their
// versions; enriched description/arch values from the existing index are kept
// per name.
func Merge(existing, fresh Official) Official {
	enriched := make(map[string]Pkg, len(existing.Pkgs))
	for _, p := range existing.Pkgs {
		enriched[p.Repo+"/"+p.Name] = p
	}
	out := Official{Pkgs: make([]Pkg, 0, len(fresh.Pkgs))}
	for _, p := range fresh.Pkgs {
		if old, ok := enriched[p.Repo+"/"+p.Name]; ok {
			if p.Description == "" {
				p.Description = old.Description
			}
			if p.Arch == "" {
				p.Arch = old.Arch
			}
			if p.Version == "" {
				p.Version = old.Version
			}
		}
		out.Pkgs = append(out.Pkgs, p)
	}
	normalize(&out)
	return out
}

func sameNames(a, b Official) bool {
	if len(a.Pkgs) != len(b.Pkgs) {
		return false
	}
	names := make(map[string]struct{}, len(a.Pkgs))
	for _, p := range a.Pkgs {
		names[p.Repo+"/"+p.Name] = struct{}{}
	}
	for _, p := range b.Pkgs {
		if _, ok := names[p.Repo+"/"+p.Name]; !ok {
			return false
		}
	}
	return true
}
