package preflight

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
)

// DependencyInfo is one row of the dependency delta: a direct dependency of
// a staged package compared against the installed set.
type DependencyInfo struct {
	Name             string   `json:"name"`
	Constraint       string   `json:"constraint,omitempty"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	Installed        bool     `json:"installed"`
	Satisfied        bool     `json:"satisfied"`
	ConflictReason   string   `json:"conflict_reason,omitempty"`
	SourceTag        string   `json:"source_tag"`
	IsCore           bool     `json:"is_core"`
	IsSystem         bool     `json:"is_system"`
	RequiredBy       []string `json:"required_by"`
}

// systemPackages flag dependencies whose replacement can break the system.
var systemPackages = map[string]struct{}{
	"glibc": {}, "systemd": {}, "linux": {}, "pacman": {}, "bash": {},
	"coreutils": {}, "filesystem": {}, "gcc-libs": {}, "openssl": {},
}

// Resolver bundles the collaborators the preflight analyses share.
type Resolver struct {
	Pacman *pacman.Client
	Remote *remote.Client
	Index  *index.Store
	Logger *log.Logger
}

// Dependencies computes the single-layer dependency delta for the staged
// items: each direct dependency, whether it is already installed or provided,
// and whether the installed version satisfies the constraint. Transitive
// resolution is left to the package manager itself.
func (r *Resolver) Dependencies(ctx context.Context, items []state.PackageItem) []DependencyInfo {
	if len(items) == 0 {
		return nil
	}

	installed := r.Index.Installed()
	provided := r.providedSet(ctx)
	staged := make(map[string]struct{}, len(items))
	for _, it := range items {
		staged[strings.ToLower(it.Name)] = struct{}{}
	}

	rows := make(map[string]*DependencyInfo)
	for _, item := range items {
		for _, spec := range r.directDepends(ctx, item) {
			name, op, version := SplitDepSpec(spec)
			if name == "" {
				continue
			}
			if _, isStaged := staged[strings.ToLower(name)]; isStaged {
				continue
			}
			row, ok := rows[name]
			if !ok {
				row = r.newDependencyRow(ctx, name, op, version, installed, provided)
				rows[name] = row
			}
			row.RequiredBy = append(row.RequiredBy, item.Name)
		}
	}

	out := make([]DependencyInfo, 0, len(rows))
	for _, row := range rows {
		sort.Strings(row.RequiredBy)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Resolver) newDependencyRow(ctx context.Context, name, op, version string, installed, provided map[string]struct{}) *DependencyInfo {
	row := &DependencyInfo{Name: name, Satisfied: true}
	if op != "" {
		row.Constraint = op + version
	}

	_, direct := installed[name]
	_, viaProvides := provided[name]
	row.Installed = direct || viaProvides

	if direct {
		row.InstalledVersion = r.Pacman.InstalledVersion(ctx, name)
		row.Satisfied = VersionSatisfies(row.InstalledVersion, op, version)
	} else if !viaProvides {
		row.Satisfied = false
	}

	if p, ok := r.Index.Lookup(name); ok {
		row.SourceTag = "official:" + p.Repo
		row.IsCore = strings.EqualFold(p.Repo, "core")
	} else if direct {
		row.SourceTag = "local"
	} else {
		row.SourceTag = "aur"
	}
	_, row.IsSystem = systemPackages[name]
	return row
}

// directDepends returns the first-level dependency specs of one staged item,
// plus a conflict annotation pass against the installed set.
func (r *Resolver) directDepends(ctx context.Context, item state.PackageItem) []string {
	if item.Source.IsAUR() {
		details, err := sources.AURDetails(ctx, r.Remote, item)
		if err != nil {
			r.Logger.Debug("aur depends unavailable", "pkg", item.Name, "err", err)
			return nil
		}
		return details.Depends
	}
	spec := item.Name
	if item.Source.Repo != "" {
		spec = item.Source.Repo + "/" + item.Name
	}
	infos, err := r.Pacman.SyncInfo(ctx, []string{spec})
	if err != nil || len(infos) == 0 {
		r.Logger.Debug("sync depends unavailable", "pkg", item.Name, "err", err)
		return nil
	}
	return infos[0].Depends
}

// providedSet collects every virtual name provided by installed packages by
// parsing the full local info listing once.
func (r *Resolver) providedSet(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})
	out, err := r.Pacman.QueryInfoAll(ctx)
	if err != nil {
		return set
	}
	for _, info := range out {
		for _, p := range info.Provides {
			name, _, _ := SplitDepSpec(p)
			if name != "" {
				set[name] = struct{}{}
			}
		}
	}
	return set
}

// Conflicts reports which staged items conflict with installed packages.
// The result maps staged name to the conflicting installed package.
func (r *Resolver) Conflicts(ctx context.Context, items []state.PackageItem) map[string]string {
	installed := r.Index.Installed()
	conflicts := make(map[string]string)
	for _, item := range items {
		if item.Source.IsAUR() {
			continue
		}
		infos, err := r.Pacman.SyncInfo(ctx, []string{item.Name})
		if err != nil || len(infos) == 0 {
			continue
		}
		for _, spec := range infos[0].Conflicts {
			name, _, _ := SplitDepSpec(spec)
			if _, ok := installed[name]; ok && !strings.EqualFold(name, item.Name) {
				conflicts[item.Name] = name
				break
			}
		}
	}
	return conflicts
}
