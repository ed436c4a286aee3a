package preflight

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
)

// SandboxRecord is the build-dependency analysis of one staged AUR package.
// Origin records which source produced the arrays: "srcinfo", "pkgbuild" or
// "" when every fetch failed and the record is empty.
type SandboxRecord struct {
	Name         string   `json:"name"`
	Origin       string   `json:"origin"`
	Depends      []string `json:"depends"`
	MakeDepends  []string `json:"make_depends"`
	CheckDepends []string `json:"check_depends"`
	OptDepends   []string `json:"opt_depends"`
	MissingDeps  []string `json:"missing_depends"`
	MissingMake  []string `json:"missing_make_depends"`
	MissingCheck []string `json:"missing_check_depends"`
}

// sandboxParallelism caps concurrent .SRCINFO fetches.
const sandboxParallelism = 4

// Sandbox analyzes the staged AUR packages: each package's .SRCINFO is
// fetched in parallel, falling back to scraping the PKGBUILD when the
// .SRCINFO is unavailable. A package whose every fetch fails still gets an
// empty record so callers can render "analysis unavailable" instead of a
// hole in the list.
func (r *Resolver) Sandbox(ctx context.Context, items []state.PackageItem) []SandboxRecord {
	var aur []state.PackageItem
	for _, item := range items {
		if item.Source.IsAUR() {
			aur = append(aur, item)
		}
	}
	if len(aur) == 0 {
		return nil
	}

	installed := r.Index.Installed()
	provided := r.providedSet(ctx)

	records := make([]SandboxRecord, len(aur))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sandboxParallelism)
	for i, item := range aur {
		g.Go(func() error {
			records[i] = r.sandboxOne(gctx, item, installed, provided)
			return nil
		})
	}
	g.Wait()
	return records
}

func (r *Resolver) sandboxOne(ctx context.Context, item state.PackageItem, installed, provided map[string]struct{}) SandboxRecord {
	rec := SandboxRecord{Name: item.Name}

	if text, err := sources.FetchSrcinfo(ctx, r.Remote, item.Name); err == nil {
		rec.fill(sources.ParseSrcinfo(text), "srcinfo")
	} else if text, err := sources.FetchPKGBUILD(ctx, r.Remote, item); err == nil {
		rec.fill(sources.ParsePKGBUILDDeps(text), "pkgbuild")
	} else {
		if r.Logger != nil {
			r.Logger.Warn("sandbox analysis unavailable", "package", item.Name, "err", err)
		}
		return rec
	}

	rec.MissingDeps = missing(rec.Depends, installed, provided)
	rec.MissingMake = missing(rec.MakeDepends, installed, provided)
	rec.MissingCheck = missing(rec.CheckDepends, installed, provided)
	return rec
}

func (rec *SandboxRecord) fill(deps sources.SrcinfoDeps, origin string) {
	rec.Origin = origin
	rec.Depends = deps.Depends
	rec.MakeDepends = deps.MakeDepends
	rec.CheckDepends = deps.CheckDepends
	rec.OptDepends = deps.OptDepends
}

func missing(specs []string, installed, provided map[string]struct{}) []string {
	var out []string
	for _, spec := range specs {
		name, _, _ := SplitDepSpec(spec)
		if _, ok := installed[name]; ok {
			continue
		}
		if _, ok := provided[name]; ok {
			continue
		}
		out = append(out, spec)
	}
	sort.Strings(out)
	return out
}
