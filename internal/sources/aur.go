// Package sources fetches package metadata from the remote endpoints: the
// AUR RPC, the archlinux.org packages API, AUR cgit, the mirror status feed,
// and the Arch news feed. All HTTP flows through the remote adapter.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/state"
)

// aurSearchCap bounds how many AUR results one query contributes.
const aurSearchCap = 200

// aurPackage mirrors the AUR RPC result shape.
type aurPackage struct {
	Name        string   `json:"Name"`
	Version     string   `json:"Version"`
	Description string   `json:"Description"`
	URL         string   `json:"URL"`
	Maintainer  *string  `json:"Maintainer"`
	Popularity  *float64 `json:"Popularity"`
	OutOfDate   *int64   `json:"OutOfDate"`
	LastMod     int64    `json:"LastModified"`
	License     []string `json:"License"`
	Groups      []string `json:"Groups"`
	Provides    []string `json:"Provides"`
	Depends     []string `json:"Depends"`
	OptDepends  []string `json:"OptDepends"`
	Conflicts   []string `json:"Conflicts"`
	Replaces    []string `json:"Replaces"`
}

type aurResponse struct {
	Results []aurPackage `json:"results"`
}

// SearchAUR queries the AUR RPC name search. Failures are returned as
// human-readable error strings alongside whatever items were obtained, so a
// broken AUR never makes the whole search fail.
func SearchAUR(ctx context.Context, client *remote.Client, query string) ([]state.PackageItem, []string) {
	u := "https://aur.archlinux.org/rpc/v5/search?by=name&arg=" + url.QueryEscape(query)
	var resp aurResponse
	if _, err := client.GetJSON(ctx, u, &resp); err != nil {
		return nil, []string{fmt.Sprintf("AUR search unavailable: %v", err)}
	}
	items := make([]state.PackageItem, 0, len(resp.Results))
	for i, pkg := range resp.Results {
		if i >= aurSearchCap {
			break
		}
		if pkg.Name == "" {
			continue
		}
		items = append(items, state.PackageItem{
			Name:        pkg.Name,
			Version:     pkg.Version,
			Description: pkg.Description,
			Source:      state.AUR(),
			Popularity:  pkg.Popularity,
			OutOfDate:   tsPtr(pkg.OutOfDate),
			Orphaned:    pkg.Maintainer == nil,
		})
	}
	return items, nil
}

// AURDetails fetches full details for one AUR package via the RPC info
// endpoint, falling back to fields already on the item for anything missing.
func AURDetails(ctx context.Context, client *remote.Client, item state.PackageItem) (state.PackageDetails, error) {
	u := "https://aur.archlinux.org/rpc/v5/info?arg=" + url.QueryEscape(item.Name)
	var resp aurResponse
	if _, err := client.GetJSON(ctx, u, &resp); err != nil {
		return state.PackageDetails{}, fmt.Errorf("aur info %s: %w", item.Name, err)
	}
	var pkg aurPackage
	if len(resp.Results) > 0 {
		pkg = resp.Results[0]
	}

	d := state.PackageDetails{
		Repository:   "AUR",
		Name:         item.Name,
		Version:      firstNonEmpty(pkg.Version, item.Version),
		Description:  firstNonEmpty(pkg.Description, item.Description),
		Architecture: "any",
		URL:          pkg.URL,
		Licenses:     pkg.License,
		Groups:       pkg.Groups,
		Provides:     pkg.Provides,
		Depends:      pkg.Depends,
		OptDepends:   pkg.OptDepends,
		Conflicts:    pkg.Conflicts,
		Replaces:     pkg.Replaces,
		BuildDate:    tsDate(pkg.LastMod),
		Popularity:   pkg.Popularity,
	}
	if pkg.Maintainer != nil {
		d.Maintainer = *pkg.Maintainer
	}
	return d, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func tsPtr(ts *int64) *time.Time {
	if ts == nil || *ts <= 0 {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}

func tsDate(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
