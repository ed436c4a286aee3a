package preflight

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kajell/pacterm/internal/state"
)

// FileChangeKind classifies one path in a file delta.
type FileChangeKind string

const (
	FileNew     FileChangeKind = "new"
	FileChanged FileChangeKind = "changed"
	FileRemoved FileChangeKind = "removed"
)

// FileChange is one classified path.
type FileChange struct {
	Path             string         `json:"path"`
	Kind             FileChangeKind `json:"kind"`
	IsConfig         bool           `json:"is_config"`
	PredictedPacnew  bool           `json:"predicted_pacnew"`
	PredictedPacsave bool           `json:"predicted_pacsave"`
}

// PackageFiles is the file delta of one staged package.
type PackageFiles struct {
	Name            string       `json:"name"`
	Files           []FileChange `json:"files"`
	TotalCount      int          `json:"total_count"`
	NewCount        int          `json:"new_count"`
	ChangedCount    int          `json:"changed_count"`
	RemovedCount    int          `json:"removed_count"`
	ConfigCount     int          `json:"config_count"`
	PacnewCandidate int          `json:"pacnew_candidates"`
	PacsaveCandidat int          `json:"pacsave_candidates"`
	DBStale         bool         `json:"db_stale,omitempty"`
	Err             string       `json:"error,omitempty"`
}

// fileDBMaxAge is how old the sync file database may be before results are
// flagged stale.
const fileDBMaxAge = 7 * 24 * time.Hour

// syncDBDir is where pacman keeps its sync databases.
var syncDBDir = "/var/lib/pacman/sync"

// FileChanges computes the per-package file delta for the staged list. For
// installs the remote file list is compared against the locally installed
// one; for removals every owned file is reported as removed.
func (r *Resolver) FileChanges(ctx context.Context, items []state.PackageItem, action state.Action) []PackageFiles {
	stale := fileDBStale()
	out := make([]PackageFiles, 0, len(items))
	for _, item := range items {
		var pf PackageFiles
		if action == state.ActionRemove {
			pf = r.removeFiles(ctx, item)
		} else {
			pf = r.installFiles(ctx, item)
		}
		pf.DBStale = stale
		out = append(out, pf)
	}
	return out
}

func (r *Resolver) installFiles(ctx context.Context, item state.PackageItem) PackageFiles {
	pf := PackageFiles{Name: item.Name}
	if item.Source.IsAUR() {
		// The file database only covers sync repos; AUR packages build
		// their file list at install time.
		return pf
	}
	remote, err := r.Pacman.FileListRemote(ctx, item.Name)
	if err != nil {
		pf.Err = err.Error()
		return pf
	}
	local := map[string]struct{}{}
	if r.Index.IsInstalled(item.Name) {
		if files, err := r.Pacman.FileListLocal(ctx, item.Name); err == nil {
			for _, f := range files {
				local[normalizePath(f)] = struct{}{}
			}
		}
	}

	remoteSet := make(map[string]struct{}, len(remote))
	for _, f := range remote {
		path := normalizePath(f)
		remoteSet[path] = struct{}{}
		kind := FileNew
		if _, exists := local[path]; exists {
			kind = FileChanged
		}
		pf.Files = append(pf.Files, classify(path, kind))
	}
	for path := range local {
		if _, kept := remoteSet[path]; !kept {
			pf.Files = append(pf.Files, classify(path, FileRemoved))
		}
	}
	finishCounts(&pf)
	return pf
}

func (r *Resolver) removeFiles(ctx context.Context, item state.PackageItem) PackageFiles {
	pf := PackageFiles{Name: item.Name}
	files, err := r.Pacman.FileListLocal(ctx, item.Name)
	if err != nil {
		pf.Err = err.Error()
		return pf
	}
	for _, f := range files {
		pf.Files = append(pf.Files, classify(normalizePath(f), FileRemoved))
	}
	finishCounts(&pf)
	return pf
}

// classify tags a path with its config status and pacnew/pacsave prediction:
// a changed config file tends to leave a .pacnew, a removed one a .pacsave.
func classify(path string, kind FileChangeKind) FileChange {
	fc := FileChange{Path: path, Kind: kind}
	fc.IsConfig = strings.HasPrefix(path, "/etc/")
	if fc.IsConfig {
		switch kind {
		case FileChanged:
			fc.PredictedPacnew = true
		case FileRemoved:
			fc.PredictedPacsave = true
		}
	}
	return fc
}

func finishCounts(pf *PackageFiles) {
	sort.Slice(pf.Files, func(i, j int) bool { return pf.Files[i].Path < pf.Files[j].Path })
	pf.TotalCount = len(pf.Files)
	for _, f := range pf.Files {
		switch f.Kind {
		case FileNew:
			pf.NewCount++
		case FileChanged:
			pf.ChangedCount++
		case FileRemoved:
			pf.RemovedCount++
		}
		if f.IsConfig {
			pf.ConfigCount++
		}
		if f.PredictedPacnew {
			pf.PacnewCandidate++
		}
		if f.PredictedPacsave {
			pf.PacsaveCandidat++
		}
	}
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// fileDBStale reports whether the sync file database is older than a week.
// A missing directory counts as stale.
func fileDBStale() bool {
	entries, err := os.ReadDir(syncDBDir)
	if err != nil {
		return true
	}
	var newest time.Time
	for _, e := range entries {
		if info, err := e.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest.IsZero() || time.Since(newest) > fileDBMaxAge
}
