package pacman

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fakeRunner serves canned output keyed by the joined command line.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	out, ok := f.outputs[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for %q", key)
	}
	return []byte(out), nil
}

func TestParseRepoList(t *testing.T) {
	out := `core linux 6.10.1.arch1-1 [installed]
core linux-api-headers 6.10-1
extra ripgrep 14.1.1-1
garbage
`
	pkgs := ParseRepoList(out)
	if len(pkgs) != 3 {
		t.Fatalf("parsed %d packages, want 3", len(pkgs))
	}
	if pkgs[0].Repo != "core" || pkgs[0].Name != "linux" || pkgs[0].Version != "6.10.1.arch1-1" {
		t.Fatalf("unexpected first package: %+v", pkgs[0])
	}
	if pkgs[2].Repo != "extra" || pkgs[2].Name != "ripgrep" {
		t.Fatalf("unexpected third package: %+v", pkgs[2])
	}
}

const siFixture = `Repository      : extra
Name            : ripgrep
Version         : 14.1.1-1
Description     : A search tool that combines the usability of ag with the
                  raw speed of grep
Architecture    : x86_64
URL             : https://github.com/BurntSushi/ripgrep
Licenses        : MIT  UNLICENSE
Groups          : None
Provides        : None
Depends On      : gcc-libs  pcre2
Optional Deps   : bash-completion: for bash completions
                  zsh: for zsh completions
Conflicts With  : None
Replaces        : None
Download Size   : 1.44 MiB
Installed Size  : 5.24 MiB
Packager        : Orhun Parmaksiz <orhun@archlinux.org>
Build Date      : Mon 8 Jan 2024

Repository      : core
Name            : pcre2
Version         : 10.43-1
Description     : A library that implements Perl 5-style regular expressions
Architecture    : x86_64
Depends On      : None
`

func TestParseInfoBlocks(t *testing.T) {
	infos := ParseInfoBlocks(siFixture)
	if len(infos) != 2 {
		t.Fatalf("parsed %d blocks, want 2", len(infos))
	}
	rg := infos[0]
	if rg.Name != "ripgrep" || rg.Repository != "extra" {
		t.Fatalf("unexpected block: %+v", rg)
	}
	// Continuation line folded into the description.
	if !strings.Contains(rg.Description, "raw speed of grep") {
		t.Fatalf("continuation not folded: %q", rg.Description)
	}
	if len(rg.Depends) != 2 || rg.Depends[0] != "gcc-libs" {
		t.Fatalf("depends = %v", rg.Depends)
	}
	// Optional deps keep one package name per line.
	if len(rg.OptDepends) != 2 || rg.OptDepends[1] != "zsh" {
		t.Fatalf("opt depends = %v", rg.OptDepends)
	}
	if rg.DownloadSize == nil || *rg.DownloadSize != 1509949 {
		t.Fatalf("download size = %v", rg.DownloadSize)
	}
	if len(rg.Groups) != 0 {
		t.Fatalf("None must parse as empty, got %v", rg.Groups)
	}
	if infos[1].Name != "pcre2" || len(infos[1].Depends) != 0 {
		t.Fatalf("unexpected second block: %+v", infos[1])
	}
}

func TestSyncInfoBatches(t *testing.T) {
	specs := make([]string, 150)
	for i := range specs {
		specs[i] = fmt.Sprintf("pkg%d", i)
	}
	fr := &fakeRunner{outputs: map[string]string{}}
	fr.outputs["pacman "+strings.Join(append([]string{"-Si"}, specs[:100]...), " ")] = "Name : a\n"
	fr.outputs["pacman "+strings.Join(append([]string{"-Si"}, specs[100:]...), " ")] = "Name : b\n"

	infos, err := New(fr).SyncInfo(context.Background(), specs)
	if err != nil {
		t.Fatalf("sync info: %v", err)
	}
	if len(fr.calls) != 2 {
		t.Fatalf("expected 2 subprocess calls, got %d", len(fr.calls))
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[1].Name != "b" {
		t.Fatalf("unexpected infos: %+v", infos)
	}
}

func TestParseFileList(t *testing.T) {
	out := `ripgrep /usr/
ripgrep /usr/bin/
ripgrep /usr/bin/rg
ripgrep /usr/share/doc/ripgrep/README.md
`
	files := parseFileList(out)
	if len(files) != 2 {
		t.Fatalf("parsed %d files, want 2 (directories skipped): %v", len(files), files)
	}
	if files[0] != "/usr/bin/rg" {
		t.Fatalf("unexpected first file: %q", files[0])
	}
}

func TestParseSizeBytes(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"1024.0 KiB", 1024 * 1024, true},
		{"3.00 MiB", 3 * 1024 * 1024, true},
		{"12 B", 12, true},
		{"", 0, false},
		{"abc MiB", 0, false},
	}
	for _, tc := range cases {
		got := ParseSizeBytes(tc.in)
		if tc.ok != (got != nil) {
			t.Fatalf("ParseSizeBytes(%q) presence = %v, want %v", tc.in, got != nil, tc.ok)
		}
		if got != nil && *got != tc.want {
			t.Fatalf("ParseSizeBytes(%q) = %d, want %d", tc.in, *got, tc.want)
		}
	}
}

func TestInstalledNames(t *testing.T) {
	fr := &fakeRunner{outputs: map[string]string{
		"pacman -Qq": "linux\nripgrep\n\n",
	}}
	set, err := New(fr).InstalledNames(context.Background())
	if err != nil {
		t.Fatalf("installed names: %v", err)
	}
	if _, ok := set["ripgrep"]; !ok || len(set) != 2 {
		t.Fatalf("unexpected set: %v", set)
	}
}
