package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kajell/pacterm/internal/remote"
)

// srcinfoTimeout caps one .SRCINFO fetch.
const srcinfoTimeout = 10 * time.Second

// SrcinfoDeps are the dependency arrays declared by a build recipe.
type SrcinfoDeps struct {
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
}

// FetchSrcinfo downloads an AUR package's .SRCINFO text.
func FetchSrcinfo(ctx context.Context, client *remote.Client, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, srcinfoTimeout)
	defer cancel()
	u := "https://aur.archlinux.org/cgit/aur.git/plain/.SRCINFO?h=" + url.QueryEscape(name)
	text, _, err := client.GetText(ctx, u)
	return text, err
}

// ParseSrcinfo extracts dependency declarations from .SRCINFO "key = value"
// lines. Architecture-suffixed keys (depends_x86_64) fold into their base.
func ParseSrcinfo(text string) SrcinfoDeps {
	var deps SrcinfoDeps
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if i := strings.Index(key, "_"); i > 0 && isDepKey(key[:i]) {
			key = key[:i]
		}
		switch key {
		case "depends":
			deps.Depends = append(deps.Depends, value)
		case "makedepends":
			deps.MakeDepends = append(deps.MakeDepends, value)
		case "checkdepends":
			deps.CheckDepends = append(deps.CheckDepends, value)
		case "optdepends":
			deps.OptDepends = append(deps.OptDepends, value)
		}
	}
	return deps
}

func isDepKey(key string) bool {
	switch key {
	case "depends", "makedepends", "checkdepends", "optdepends":
		return true
	}
	return false
}

// ParsePKGBUILDDeps falls back to scraping bash array assignments from a
// PKGBUILD when .SRCINFO is unavailable. Only simple single- or multi-line
// literal arrays are understood; anything computed is missed.
func ParsePKGBUILDDeps(text string) SrcinfoDeps {
	var deps SrcinfoDeps
	deps.Depends = pkgbuildArray(text, "depends")
	deps.MakeDepends = pkgbuildArray(text, "makedepends")
	deps.CheckDepends = pkgbuildArray(text, "checkdepends")
	deps.OptDepends = pkgbuildArray(text, "optdepends")
	return deps
}

func pkgbuildArray(text, name string) []string {
	marker := name + "=("
	start := -1
	for _, idx := range allIndexes(text, marker) {
		// Must start a line (possibly after whitespace).
		lineStart := strings.LastIndexByte(text[:idx], '\n') + 1
		if strings.TrimSpace(text[lineStart:idx]) == "" {
			start = idx + len(marker)
			break
		}
	}
	if start < 0 {
		return nil
	}
	end := strings.IndexByte(text[start:], ')')
	if end < 0 {
		return nil
	}
	var out []string
	for _, field := range strings.Fields(text[start : start+end]) {
		entry := strings.Trim(field, `'"`)
		if entry != "" && !strings.HasPrefix(entry, "#") {
			out = append(out, entry)
		}
	}
	return out
}

func allIndexes(text, sub string) []int {
	var idxs []int
	offset := 0
	for {
		i := strings.Index(text[offset:], sub)
		if i < 0 {
			return idxs
		}
		idxs = append(idxs, offset+i)
		offset += i + len(sub)
	}
}
