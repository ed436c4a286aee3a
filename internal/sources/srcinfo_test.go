package sources

import "testing"

const srcinfoFixture = `pkgbase = yay
	pkgdesc = Yet another yogurt. Pacman wrapper and AUR helper written in go.
	pkgver = 12.3.5
	depends = pacman>6.1
	depends = git
	makedepends = go
	checkdepends = shellcheck
	optdepends = sudo: privilege elevation
	depends_x86_64 = gcc-libs

pkgname = yay
`

func TestParseSrcinfo(t *testing.T) {
	deps := ParseSrcinfo(srcinfoFixture)
	if len(deps.Depends) != 3 {
		t.Fatalf("depends = %v, want 3 entries incl. arch-specific", deps.Depends)
	}
	if deps.Depends[0] != "pacman>6.1" || deps.Depends[2] != "gcc-libs" {
		t.Fatalf("unexpected depends: %v", deps.Depends)
	}
	if len(deps.MakeDepends) != 1 || deps.MakeDepends[0] != "go" {
		t.Fatalf("makedepends = %v", deps.MakeDepends)
	}
	if len(deps.CheckDepends) != 1 || deps.CheckDepends[0] != "shellcheck" {
		t.Fatalf("checkdepends = %v", deps.CheckDepends)
	}
	if len(deps.OptDepends) != 1 || deps.OptDepends[0] != "sudo: privilege elevation" {
		t.Fatalf("optdepends = %v", deps.OptDepends)
	}
}

const pkgbuildFixture = `# Maintainer: someone
pkgname=example
pkgver=1.0
depends=('glibc' "zlib"
         'openssl')
makedepends=(cmake ninja)
source=("$pkgname-$pkgver.tar.gz")
`

func TestParsePKGBUILDDeps(t *testing.T) {
	deps := ParsePKGBUILDDeps(pkgbuildFixture)
	want := []string{"glibc", "zlib", "openssl"}
	if len(deps.Depends) != len(want) {
		t.Fatalf("depends = %v, want %v", deps.Depends, want)
	}
	for i, w := range want {
		if deps.Depends[i] != w {
			t.Fatalf("depends[%d] = %q, want %q", i, deps.Depends[i], w)
		}
	}
	if len(deps.MakeDepends) != 2 || deps.MakeDepends[1] != "ninja" {
		t.Fatalf("makedepends = %v", deps.MakeDepends)
	}
	if deps.CheckDepends != nil {
		t.Fatalf("checkdepends should be absent, got %v", deps.CheckDepends)
	}
}

func TestMatchesFilters(t *testing.T) {
	if !matchesFilters("Critical glibc update", nil) {
		t.Fatalf("empty filter list keeps everything")
	}
	if !matchesFilters("Critical glibc update", []string{"GLIBC"}) {
		t.Fatalf("filter match is case-insensitive")
	}
	if matchesFilters("Mirror changes", []string{"glibc"}) {
		t.Fatalf("non-matching title must be dropped")
	}
}
