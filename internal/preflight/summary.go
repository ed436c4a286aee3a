package preflight

import (
	"context"
	"strconv"
	"strings"

	"github.com/kajell/pacterm/internal/state"
)

// RiskLevel buckets the aggregated risk score.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "low"
	}
}

// coreCritical lists packages whose replacement or removal can leave the
// system unbootable.
var coreCritical = map[string]struct{}{
	"linux": {}, "linux-lts": {}, "linux-zen": {}, "systemd": {},
	"glibc": {}, "openssl": {}, "pacman": {}, "bash": {},
	"util-linux": {}, "filesystem": {},
}

// PackageSummary is the per-package overview row of the summary tab.
type PackageSummary struct {
	Name             string   `json:"name"`
	SourceTag        string   `json:"source_tag"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	TargetVersion    string   `json:"target_version"`
	IsDowngrade      bool     `json:"is_downgrade,omitempty"`
	IsMajorBump      bool     `json:"is_major_bump,omitempty"`
	DownloadBytes    *uint64  `json:"download_bytes,omitempty"`
	DeltaBytes       *int64   `json:"delta_bytes,omitempty"`
	Notes            []string `json:"notes,omitempty"`
}

// SummaryData aggregates the staged set into risk factors, notes, totals,
// and a per-package overview.
type SummaryData struct {
	Packages      []PackageSummary `json:"packages"`
	PackageCount  int              `json:"package_count"`
	AURCount      int              `json:"aur_count"`
	DownloadBytes uint64           `json:"download_bytes"`
	DeltaBytes    int64            `json:"delta_bytes"`
	RiskScore     int              `json:"risk_score"`
	Risk          RiskLevel        `json:"risk"`
	RiskReasons   []string         `json:"risk_reasons,omitempty"`
	Notes         []string         `json:"notes,omitempty"`
}

// Summary builds the aggregated overview of the staged set: versions moved,
// size totals where the sync database knows them, and the risk heuristic
// over core packages, major bumps, and AUR involvement.
func (r *Resolver) Summary(ctx context.Context, items []state.PackageItem, action state.Action) SummaryData {
	data := SummaryData{PackageCount: len(items)}
	if len(items) == 0 {
		return data
	}

	official := r.officialInfoByName(ctx, items)

	var anyCore, anyMajor bool
	for _, item := range items {
		ps := PackageSummary{
			Name:          item.Name,
			SourceTag:     item.Source.Tag(),
			TargetVersion: item.Version,
		}
		if item.Source.IsAUR() {
			data.AURCount++
		}

		installed := r.Pacman.InstalledVersion(ctx, item.Name)
		ps.InstalledVersion = installed

		var installedSize *uint64
		if info, ok := r.Pacman.QueryInfo(ctx, item.Name); ok {
			installedSize = info.InstallSize
		}
		if meta, ok := official[strings.ToLower(item.Name)]; ok {
			ps.DownloadBytes = meta.DownloadSize
			if action == state.ActionRemove {
				// Removal frees the installed footprint.
				ps.DownloadBytes = nil
			}
			if target := meta.InstallSize; target != nil && action != state.ActionRemove {
				current := uint64(0)
				if installedSize != nil {
					current = *installedSize
				}
				delta := int64(*target) - int64(current)
				ps.DeltaBytes = &delta
			}
		}
		if action == state.ActionRemove && installedSize != nil {
			delta := -int64(*installedSize)
			ps.DeltaBytes = &delta
		}

		switch {
		case installed == "":
			if action != state.ActionRemove {
				ps.Notes = append(ps.Notes, "new installation")
			}
		case CompareVersions(installed, item.Version) > 0:
			if action != state.ActionRemove {
				ps.IsDowngrade = true
				ps.Notes = append(ps.Notes, "downgrade: "+installed+" to "+item.Version)
			}
		case CompareVersions(installed, item.Version) < 0:
			if majorComponent(item.Version) > majorComponent(installed) {
				ps.IsMajorBump = true
				anyMajor = true
				ps.Notes = append(ps.Notes, "major version bump: "+installed+" to "+item.Version)
			}
		}

		if _, ok := coreCritical[strings.ToLower(item.Name)]; ok {
			anyCore = true
			if action == state.ActionRemove {
				ps.Notes = append(ps.Notes, "removing core/system package")
			} else {
				ps.Notes = append(ps.Notes, "core/system package update")
			}
		}

		if ps.DownloadBytes != nil {
			data.DownloadBytes += *ps.DownloadBytes
		}
		if ps.DeltaBytes != nil {
			data.DeltaBytes += *ps.DeltaBytes
		}
		data.Packages = append(data.Packages, ps)
	}

	if anyCore {
		data.RiskScore += 3
		data.RiskReasons = append(data.RiskReasons, "core/system packages involved (+3)")
		data.Notes = append(data.Notes, "Core/system packages will be modified.")
	}
	if anyMajor {
		data.RiskScore += 2
		data.RiskReasons = append(data.RiskReasons, "major version bump detected (+2)")
		data.Notes = append(data.Notes, "Major version changes detected; review changelogs.")
	}
	if data.AURCount > 0 {
		data.RiskScore += 2
		data.RiskReasons = append(data.RiskReasons, "AUR packages included (+2)")
		data.Notes = append(data.Notes, "AUR packages present; build steps may vary.")
	}

	switch {
	case data.RiskScore == 0:
		data.Risk = RiskLow
	case data.RiskScore <= 4:
		data.Risk = RiskMedium
	default:
		data.Risk = RiskHigh
	}
	return data
}

// officialInfoByName batches one sync-database query over the official items.
func (r *Resolver) officialInfoByName(ctx context.Context, items []state.PackageItem) map[string]officialMeta {
	var specs []string
	for _, item := range items {
		if item.Source.IsAUR() {
			continue
		}
		spec := item.Name
		if item.Source.Repo != "" {
			spec = item.Source.Repo + "/" + item.Name
		}
		specs = append(specs, spec)
	}
	out := make(map[string]officialMeta, len(specs))
	if len(specs) == 0 {
		return out
	}
	infos, err := r.Pacman.SyncInfo(ctx, specs)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Debug("summary sync info failed", "err", err)
		}
		return out
	}
	for _, info := range infos {
		out[strings.ToLower(info.Name)] = officialMeta{
			DownloadSize: info.DownloadSize,
			InstallSize:  info.InstallSize,
		}
	}
	return out
}

type officialMeta struct {
	DownloadSize *uint64
	InstallSize  *uint64
}

// majorComponent parses the leading numeric segment of a version, splitting
// on dots and hyphens. Unparsable versions yield 0, which never flags a
// major bump on its own.
func majorComponent(version string) uint64 {
	version = strings.TrimSpace(version)
	if i := strings.IndexByte(version, ':'); i >= 0 {
		version = version[i+1:]
	}
	end := len(version)
	for i := 0; i < len(version); i++ {
		if version[i] == '.' || version[i] == '-' {
			end = i
			break
		}
	}
	n, err := strconv.ParseUint(version[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
