package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/state"
)

// FetchPKGBUILD retrieves the raw build recipe for a package. AUR packages
// come from the cgit raw endpoint; official packages from the Arch GitLab
// packaging repo, trying the main branch then master.
func FetchPKGBUILD(ctx context.Context, client *remote.Client, item state.PackageItem) (string, error) {
	if item.Source.IsAUR() {
		u := "https://aur.archlinux.org/cgit/aur.git/plain/PKGBUILD?h=" + url.QueryEscape(item.Name)
		text, _, err := client.GetText(ctx, u)
		if err != nil {
			return "", fmt.Errorf("aur pkgbuild %s: %w", item.Name, err)
		}
		return text, nil
	}

	for _, branch := range []string{"main", "master"} {
		u := fmt.Sprintf(
			"https://gitlab.archlinux.org/archlinux/packaging/packages/%s/-/raw/%s/PKGBUILD",
			url.PathEscape(item.Name), branch)
		if text, _, err := client.GetText(ctx, u); err == nil {
			return text, nil
		}
	}
	return "", fmt.Errorf("official pkgbuild unavailable for %s", item.Name)
}
