package index

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/remote"
)

// syncRepos are the repositories queried during initial population.
var syncRepos = []string{"core", "extra", "multilib"}

// webRepoArch lists the (repo, arch) pairs paged from the public packages
// API when the local package manager is unavailable.
var webRepoArch = [][2]string{
	{"Core", "x86_64"}, {"Core", "any"},
	{"Extra", "x86_64"}, {"Extra", "any"},
	{"Multilib", "x86_64"}, {"Multilib", "any"},
}

const (
	webPageLimit   = 250
	webPageTimeout = 2 * time.Second
)

// Fetcher populates and refreshes the official index.
type Fetcher struct {
	Pacman *pacman.Client
	Remote *remote.Client
	Logger *log.Logger
}

// FetchNames builds a minimal index: name, repo and version from
// `pacman -Sl` per sync repo. Description and arch stay empty so the first
// pass is fast; enrichment fills them later. When every repo listing fails
// (no local tool), the public packages API is paged instead.
func (f *Fetcher) FetchNames(ctx context.Context) (Official, error) {
	var idx Official
	for _, repo := range syncRepos {
		pkgs, err := f.Pacman.ListRepo(ctx, repo)
		if err != nil {
			// multilib is commonly disabled; a missing repo is not fatal.
			f.Logger.Debug("repo listing failed", "repo", repo, "err", err)
			continue
		}
		for _, p := range pkgs {
			idx.Pkgs = append(idx.Pkgs, Pkg{Name: p.Name, Repo: p.Repo, Version: p.Version})
		}
	}
	if len(idx.Pkgs) > 0 {
		normalize(&idx)
		return idx, nil
	}
	return f.fetchFromWeb(ctx)
}

// webSearchPage mirrors the paged packages-API response.
type webSearchPage struct {
	Valid   bool `json:"valid"`
	NumPage int  `json:"num_pages"`
	Results []struct {
		PkgName string `json:"pkgname"`
		Repo    string `json:"repo"`
		Arch    string `json:"arch"`
		PkgVer  string `json:"pkgver"`
		PkgRel  string `json:"pkgrel"`
		PkgDesc string `json:"pkgdesc"`
	} `json:"results"`
}

func (f *Fetcher) fetchFromWeb(ctx context.Context) (Official, error) {
	var idx Official
	for _, pair := range webRepoArch {
		repo, arch := pair[0], pair[1]
		for page := 1; ; page++ {
			url := fmt.Sprintf(
				"https://archlinux.org/packages/search/json/?repo=%s&arch=%s&limit=%d&page=%d",
				repo, arch, webPageLimit, page)

			pageCtx, cancel := context.WithTimeout(ctx, webPageTimeout)
			var resp webSearchPage
			_, err := f.Remote.GetJSON(pageCtx, url, &resp)
			cancel()
			if err != nil {
				f.Logger.Debug("web index page failed", "repo", repo, "arch", arch, "page", page, "err", err)
				break
			}
			// The endpoint has been observed returning valid:false alongside
			// non-empty results; results are processed regardless.
			for _, r := range resp.Results {
				version := r.PkgVer
				if r.PkgRel != "" {
					version += "-" + r.PkgRel
				}
				idx.Pkgs = append(idx.Pkgs, Pkg{
					Name:        r.PkgName,
					Repo:        r.Repo,
					Arch:        r.Arch,
					Version:     version,
					Description: r.PkgDesc,
				})
			}
			if len(resp.Results) < webPageLimit || page >= resp.NumPage {
				break
			}
		}
	}
	if len(idx.Pkgs) == 0 {
		return idx, fmt.Errorf("official index unavailable from pacman and web API")
	}
	normalize(&idx)
	return idx, nil
}
