package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/state"
)

// officialJSON mirrors the archlinux.org per-package JSON document.
type officialJSON struct {
	Repo           string   `json:"repo"`
	PkgName        string   `json:"pkgname"`
	PkgVer         string   `json:"pkgver"`
	PkgRel         string   `json:"pkgrel"`
	PkgDesc        string   `json:"pkgdesc"`
	Arch           string   `json:"arch"`
	URL            string   `json:"url"`
	Licenses       []string `json:"licenses"`
	Groups         []string `json:"groups"`
	Provides       []string `json:"provides"`
	Depends        []string `json:"depends"`
	OptDepends     []string `json:"optdepends"`
	Conflicts      []string `json:"conflicts"`
	Replaces       []string `json:"replaces"`
	CompressedSize *uint64  `json:"compressed_size"`
	InstalledSize  *uint64  `json:"installed_size"`
	Packager       string   `json:"packager"`
	BuildDate      string   `json:"build_date"`
}

// OfficialDetails resolves full details for an official package. The local
// sync database is preferred; when it yields an empty record, the public
// packages JSON endpoint is tried across (repo, arch) candidates until one
// succeeds.
func OfficialDetails(ctx context.Context, client *remote.Client, pm *pacman.Client, item state.PackageItem) (state.PackageDetails, error) {
	repo, arch := item.Source.Repo, item.Source.Arch

	spec := item.Name
	if repo != "" {
		spec = repo + "/" + item.Name
	}
	if infos, err := pm.SyncInfo(ctx, []string{spec}); err == nil && len(infos) > 0 {
		d := detailsFromInfo(infos[0], item)
		if d.Description != "" || d.Architecture != "" || len(d.Licenses) > 0 {
			return d, nil
		}
	}

	for _, r := range repoCandidates(repo) {
		for _, a := range archCandidates(arch) {
			u := fmt.Sprintf("https://archlinux.org/packages/%s/%s/%s/json/",
				strings.ToLower(r), a, item.Name)
			var doc officialJSON
			if _, err := client.GetJSON(ctx, u, &doc); err != nil {
				continue
			}
			return detailsFromJSON(doc, item, r, a), nil
		}
	}
	return state.PackageDetails{}, fmt.Errorf("official details unavailable for %s", item.Name)
}

func repoCandidates(repo string) []string {
	if strings.TrimSpace(repo) == "" {
		return []string{"core", "extra"}
	}
	return []string{repo}
}

func archCandidates(arch string) []string {
	switch {
	case strings.TrimSpace(arch) == "":
		return []string{"x86_64", "any"}
	case strings.EqualFold(arch, "any"):
		return []string{"any"}
	default:
		return []string{arch, "any"}
	}
}

func detailsFromInfo(info pacman.Info, item state.PackageItem) state.PackageDetails {
	return state.PackageDetails{
		Repository:   firstNonEmpty(info.Repository, item.Source.Repo),
		Name:         firstNonEmpty(info.Name, item.Name),
		Version:      firstNonEmpty(info.Version, item.Version),
		Description:  firstNonEmpty(info.Description, item.Description),
		Architecture: info.Architecture,
		URL:          info.URL,
		Licenses:     info.Licenses,
		Groups:       info.Groups,
		Provides:     info.Provides,
		Depends:      info.Depends,
		OptDepends:   info.OptDepends,
		RequiredBy:   info.RequiredBy,
		OptionalFor:  info.OptionalFor,
		Conflicts:    info.Conflicts,
		Replaces:     info.Replaces,
		DownloadSize: info.DownloadSize,
		InstallSize:  info.InstallSize,
		Maintainer:   info.Packager,
		BuildDate:    info.BuildDate,
	}
}

func detailsFromJSON(doc officialJSON, item state.PackageItem, repo, arch string) state.PackageDetails {
	version := doc.PkgVer
	if doc.PkgRel != "" {
		version += "-" + doc.PkgRel
	}
	return state.PackageDetails{
		Repository:   firstNonEmpty(doc.Repo, repo),
		Name:         item.Name,
		Version:      firstNonEmpty(version, item.Version),
		Description:  firstNonEmpty(doc.PkgDesc, item.Description),
		Architecture: firstNonEmpty(doc.Arch, arch),
		URL:          doc.URL,
		Licenses:     doc.Licenses,
		Groups:       doc.Groups,
		Provides:     doc.Provides,
		Depends:      doc.Depends,
		OptDepends:   doc.OptDepends,
		Conflicts:    doc.Conflicts,
		Replaces:     doc.Replaces,
		DownloadSize: doc.CompressedSize,
		InstallSize:  doc.InstalledSize,
		Maintainer:   doc.Packager,
		BuildDate:    doc.BuildDate,
	}
}
