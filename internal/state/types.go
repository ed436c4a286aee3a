// Package state defines the core value types shared between the coordinator
// and the background workers: package summaries, full package details, search
// queries and results, and the staged install/remove/downgrade lists.
package state

import (
	"strings"
	"time"
)

// SourceKind distinguishes official repository packages from AUR packages.
type SourceKind int

const (
	// SourceOfficial marks a package from the official repositories.
	SourceOfficial SourceKind = iota
	// SourceAUR marks a package from the Arch User Repository.
	SourceAUR
)

// Source describes where a package originates. Repo and Arch are only
// meaningful for official packages and may be empty until enrichment fills
// them in.
type Source struct {
	Kind SourceKind `json:"kind"`
	Repo string     `json:"repo,omitempty"`
	Arch string     `json:"arch,omitempty"`
}

// Official builds an official-repository source.
func Official(repo, arch string) Source {
	return Source{Kind: SourceOfficial, Repo: repo, Arch: arch}
}

// AUR builds an AUR source.
func AUR() Source {
	return Source{Kind: SourceAUR}
}

// IsAUR reports whether the source is the AUR.
func (s Source) IsAUR() bool { return s.Kind == SourceAUR }

// Tag returns the signature fragment for this source, e.g. "official:extra"
// or "aur".
func (s Source) Tag() string {
	if s.Kind == SourceAUR {
		return "aur"
	}
	return "official:" + s.Repo
}

// PackageItem is the compact package summary rendered in lists and search
// results. Name is never empty.
type PackageItem struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Source      Source     `json:"source"`
	Popularity  *float64   `json:"popularity,omitempty"`
	OutOfDate   *time.Time `json:"out_of_date,omitempty"`
	Orphaned    bool       `json:"orphaned,omitempty"`
}

// PackageDetails carries everything the details pane shows. Produced by the
// details worker and cached process-wide until the user forces a refresh.
type PackageDetails struct {
	Repository   string   `json:"repository"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Architecture string   `json:"architecture"`
	URL          string   `json:"url"`
	Licenses     []string `json:"licenses,omitempty"`
	Groups       []string `json:"groups,omitempty"`
	Provides     []string `json:"provides,omitempty"`
	Depends      []string `json:"depends,omitempty"`
	OptDepends   []string `json:"opt_depends,omitempty"`
	RequiredBy   []string `json:"required_by,omitempty"`
	OptionalFor  []string `json:"optional_for,omitempty"`
	Conflicts    []string `json:"conflicts,omitempty"`
	Replaces     []string `json:"replaces,omitempty"`
	DownloadSize *uint64  `json:"download_size,omitempty"`
	InstallSize  *uint64  `json:"install_size,omitempty"`
	Maintainer   string   `json:"maintainer"`
	BuildDate    string   `json:"build_date"`
	Popularity   *float64 `json:"popularity,omitempty"`
}

// QueryInput is a search query with a monotonic id assigned by the
// coordinator. The id lets the coordinator drop stale results.
type QueryInput struct {
	ID    uint64
	Text  string
	Fuzzy bool
}

// SearchResults echoes the originating query id alongside ranked items.
type SearchResults struct {
	ID    uint64
	Items []PackageItem
}

// SortMode selects the ordering of the results list.
type SortMode int

const (
	// SortRepoThenName lists official repos first (core, extra, others),
	// then AUR, with a case-insensitive name tiebreak.
	SortRepoThenName SortMode = iota
	// SortAURPopularity lists AUR packages first by descending popularity.
	SortAURPopularity
	// SortBestMatches ranks by relevance to the current query.
	SortBestMatches
)

// ConfigKey returns the string stored in the settings file for this mode.
func (m SortMode) ConfigKey() string {
	switch m {
	case SortAURPopularity:
		return "aur_popularity"
	case SortBestMatches:
		return "best_matches"
	default:
		return "alphabetical"
	}
}

// SortModeFromConfig parses a settings value, accepting legacy aliases.
// The second return is false for unrecognized values.
func SortModeFromConfig(s string) (SortMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alphabetical", "repo_then_name", "pacman":
		return SortRepoThenName, true
	case "aur_popularity", "popularity":
		return SortAURPopularity, true
	case "best_matches", "relevance":
		return SortBestMatches, true
	}
	return SortRepoThenName, false
}

// Action identifies which staged list a preflight request concerns.
type Action int

const (
	ActionInstall Action = iota
	ActionRemove
	ActionDowngrade
)

// String returns the lowercase action name used in logs and cache files.
func (a Action) String() string {
	switch a {
	case ActionRemove:
		return "remove"
	case ActionDowngrade:
		return "downgrade"
	default:
		return "install"
	}
}
