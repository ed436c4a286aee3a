package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/state"
)

type fakeRunner struct {
	out map[string]string
}

func (f fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	if v, ok := f.out[key]; ok {
		return []byte(v), nil
	}
	return nil, fmt.Errorf("no fixture for %q", key)
}

func TestSignature(t *testing.T) {
	items := []state.PackageItem{
		{Name: "yay", Version: "12.4.2", Source: state.AUR()},
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
	}
	got := Signature(items)
	want := []string{"ripgrep|14.1.1|official:extra", "yay|12.4.2|aur"}
	if len(got) != len(want) {
		t.Fatalf("Signature() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Signature()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !SignatureMatches(got, want) {
		t.Error("SignatureMatches() = false for identical signatures")
	}
	if SignatureMatches(got, want[:1]) {
		t.Error("SignatureMatches() = true for different lengths")
	}
}

func TestCacheSignatureGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.json")
	sig := []string{"ripgrep|14.1.1|official:extra"}
	payload := []DependencyInfo{{Name: "pcre2", Installed: true, Satisfied: true}}

	if err := SaveCache(path, sig, payload); err != nil {
		t.Fatalf("SaveCache() error: %v", err)
	}

	got, ok := LoadCache[[]DependencyInfo](path, sig)
	if !ok {
		t.Fatal("LoadCache() miss for matching signature")
	}
	if len(got) != 1 || got[0].Name != "pcre2" {
		t.Fatalf("LoadCache() payload = %+v", got)
	}

	if _, ok := LoadCache[[]DependencyInfo](path, []string{"ripgrep|14.1.2|official:extra"}); ok {
		t.Error("LoadCache() hit despite signature mismatch")
	}
	if _, ok := LoadCache[[]DependencyInfo](filepath.Join(t.TempDir(), "absent.json"), sig); ok {
		t.Error("LoadCache() hit for missing file")
	}
}

func TestSplitDepSpec(t *testing.T) {
	tests := []struct {
		spec              string
		name, op, version string
	}{
		{"pcre2", "pcre2", "", ""},
		{"pacman>=6.1", "pacman", ">=", "6.1"},
		{"electron=28.0.0", "electron", "=", "28.0.0"},
		{"glibc<3", "glibc", "<", "3"},
		{"python: for the helper scripts", "python", "", ""},
		{"  gcc-libs  ", "gcc-libs", "", ""},
	}
	for _, tt := range tests {
		name, op, version := SplitDepSpec(tt.spec)
		if name != tt.name || op != tt.op || version != tt.version {
			t.Errorf("SplitDepSpec(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.spec, name, op, version, tt.name, tt.op, tt.version)
		}
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.1", "1.0.0", 1},
		{"1.10", "1.9", 1},
		{"01.0", "1.0", 0},
		{"2:1.0", "1:9.9", 1},
		{"1.0-2", "1.0-1", 1},
		{"1.0", "1.0-3", 0},
		{"1.0rc1", "1.0", -1},
		{"1.0.alpha", "1.0.1", -1},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := CompareVersions(tt.b, tt.a); got != -tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestVersionSatisfies(t *testing.T) {
	tests := []struct {
		installed, op, required string
		want                    bool
	}{
		{"6.1.0", ">=", "6.0", true},
		{"5.9", ">=", "6.0", false},
		{"2.39-1", "=", "2.39-1", true},
		{"2.39-1", "<", "2.39-1", false},
		{"1.0", "", "", true},
		{"", ">=", "6.0", true},
	}
	for _, tt := range tests {
		if got := VersionSatisfies(tt.installed, tt.op, tt.required); got != tt.want {
			t.Errorf("VersionSatisfies(%q, %q, %q) = %v, want %v",
				tt.installed, tt.op, tt.required, got, tt.want)
		}
	}
}

const ripgrepSyncInfo = `Repository      : extra
Name            : ripgrep
Version         : 14.1.1-1
Depends On      : gcc-libs  glibc  pcre2
Conflicts With  : None
Provides        : None
`

func newTestResolver(runner fakeRunner, installed ...string) *Resolver {
	store := index.NewStore()
	store.Replace(index.Official{Pkgs: []index.Pkg{
		{Name: "gcc-libs", Repo: "core"},
		{Name: "glibc", Repo: "core"},
		{Name: "pcre2", Repo: "extra"},
		{Name: "ripgrep", Repo: "extra"},
	}})
	set := make(map[string]struct{}, len(installed))
	for _, n := range installed {
		set[n] = struct{}{}
	}
	store.SetInstalled(set)
	return &Resolver{
		Pacman: pacman.New(runner),
		Index:  store,
		Logger: log.New(io.Discard),
	}
}

func TestDependencies(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Si extra/ripgrep": ripgrepSyncInfo,
		"pacman -Qi":               "Name            : glibc\nProvides        : None\n",
		"pacman -Q glibc":          "glibc 2.39-1\n",
		"pacman -Q pcre2":          "pcre2 10.43-1\n",
	}}
	r := newTestResolver(runner, "glibc", "pcre2")

	rows := r.Dependencies(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
	})
	if len(rows) != 3 {
		t.Fatalf("Dependencies() returned %d rows, want 3: %+v", len(rows), rows)
	}

	byName := map[string]DependencyInfo{}
	for _, row := range rows {
		byName[row.Name] = row
	}

	glibc := byName["glibc"]
	if !glibc.Installed || !glibc.Satisfied {
		t.Errorf("glibc row = %+v, want installed and satisfied", glibc)
	}
	if glibc.InstalledVersion != "2.39-1" {
		t.Errorf("glibc installed version = %q, want 2.39-1", glibc.InstalledVersion)
	}
	if !glibc.IsSystem {
		t.Error("glibc not flagged as a system package")
	}
	if glibc.SourceTag != "official:core" || !glibc.IsCore {
		t.Errorf("glibc source = %q core=%v", glibc.SourceTag, glibc.IsCore)
	}

	gcc := byName["gcc-libs"]
	if gcc.Installed || gcc.Satisfied {
		t.Errorf("gcc-libs row = %+v, want missing and unsatisfied", gcc)
	}
	if len(gcc.RequiredBy) != 1 || gcc.RequiredBy[0] != "ripgrep" {
		t.Errorf("gcc-libs required by = %v, want [ripgrep]", gcc.RequiredBy)
	}
}

func TestDependenciesSkipsStagedNames(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Si extra/ripgrep": ripgrepSyncInfo,
		"pacman -Si core/glibc":    "Name            : glibc\nDepends On      : None\n",
		"pacman -Qi":               "Name            : bash\nProvides        : None\n",
		"pacman -Q pcre2":          "pcre2 10.43-1\n",
	}}
	r := newTestResolver(runner, "pcre2")

	rows := r.Dependencies(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
		{Name: "glibc", Version: "2.40-1", Source: state.Official("core", "x86_64")},
	})
	for _, row := range rows {
		if row.Name == "glibc" {
			t.Fatalf("staged glibc appeared as a dependency row: %+v", row)
		}
	}
}

func TestConflicts(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Si iptables-nft": "Name            : iptables-nft\nConflicts With  : iptables\n",
	}}
	r := newTestResolver(runner, "iptables")

	got := r.Conflicts(context.Background(), []state.PackageItem{
		{Name: "iptables-nft", Version: "1.8.10-2", Source: state.Official("core", "x86_64")},
	})
	if got["iptables-nft"] != "iptables" {
		t.Fatalf("Conflicts() = %v, want iptables-nft -> iptables", got)
	}
}

func TestFileChangesInstall(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Fl ripgrep": "ripgrep usr/bin/rg\nripgrep etc/ripgreprc\nripgrep usr/share/doc/\n",
		"pacman -Ql ripgrep": "ripgrep /usr/bin/rg\nripgrep /etc/ripgreprc\nripgrep /usr/share/obsolete.1\n",
	}}
	r := newTestResolver(runner, "ripgrep")

	out := r.FileChanges(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
	}, state.ActionInstall)
	if len(out) != 1 {
		t.Fatalf("FileChanges() returned %d entries, want 1", len(out))
	}
	pf := out[0]
	if pf.ChangedCount != 2 || pf.RemovedCount != 1 || pf.NewCount != 0 {
		t.Fatalf("counts = new %d changed %d removed %d, want 0/2/1: %+v",
			pf.NewCount, pf.ChangedCount, pf.RemovedCount, pf.Files)
	}
	if pf.ConfigCount != 1 || pf.PacnewCandidate != 1 {
		t.Errorf("config=%d pacnew=%d, want 1/1", pf.ConfigCount, pf.PacnewCandidate)
	}
	for _, f := range pf.Files {
		if !strings.HasPrefix(f.Path, "/") {
			t.Errorf("path %q not normalized to absolute", f.Path)
		}
	}
}

func TestFileChangesRemove(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Ql ripgrep": "ripgrep /usr/bin/rg\nripgrep /etc/ripgreprc\n",
	}}
	r := newTestResolver(runner, "ripgrep")

	out := r.FileChanges(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
	}, state.ActionRemove)
	pf := out[0]
	if pf.RemovedCount != 2 || pf.NewCount != 0 || pf.ChangedCount != 0 {
		t.Fatalf("remove counts = %+v", pf)
	}
	if pf.PacsaveCandidat != 1 {
		t.Errorf("pacsave candidates = %d, want 1", pf.PacsaveCandidat)
	}
}

func TestFileDBStale(t *testing.T) {
	orig := syncDBDir
	defer func() { syncDBDir = orig }()

	dir := t.TempDir()
	syncDBDir = dir
	if !fileDBStale() {
		t.Error("empty sync dir should count as stale")
	}

	path := filepath.Join(dir, "extra.files")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if fileDBStale() {
		t.Error("fresh sync db flagged stale")
	}
	old := time.Now().Add(-8 * 24 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if !fileDBStale() {
		t.Error("week-old sync db not flagged stale")
	}
}

func TestServices(t *testing.T) {
	units := "sshd.service loaded active running OpenSSH Daemon\n" +
		"nginx.service loaded active running web server\n"
	runner := fakeRunner{out: map[string]string{
		"systemctl list-units --type=service --no-legend --state=active --plain": units,
		"pacman -Ql openssh": "openssh /usr/lib/systemd/system/sshd.service\n" +
			"openssh /usr/bin/ssh\n" +
			"openssh /usr/lib/systemd/system/\n",
	}}
	r := newTestResolver(runner, "openssh")
	items := []state.PackageItem{
		{Name: "openssh", Version: "9.8p1-1", Source: state.Official("core", "x86_64")},
	}

	got, err := r.Services(context.Background(), items, state.ActionInstall)
	if err != nil {
		t.Fatalf("Services() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Services() = %+v, want one unit", got)
	}
	if got[0].Unit != "sshd.service" || !got[0].Active || !got[0].NeedRestart || got[0].Deferred {
		t.Errorf("install impact = %+v", got[0])
	}

	got, err = r.Services(context.Background(), items, state.ActionRemove)
	if err != nil {
		t.Fatalf("Services() error: %v", err)
	}
	if !got[0].Deferred || got[0].NeedRestart {
		t.Errorf("remove impact = %+v, want deferred without restart", got[0])
	}
}

func TestMissingDeps(t *testing.T) {
	installed := map[string]struct{}{"pcre2": {}}
	provided := map[string]struct{}{"libgit2.so": {}}
	got := missing([]string{"pcre2>=10", "gcc-libs", "libgit2.so=1.8-64"}, installed, provided)
	if len(got) != 1 || got[0] != "gcc-libs" {
		t.Fatalf("missing() = %v, want [gcc-libs]", got)
	}
}

func TestSummary(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Si core/glibc extra/ripgrep": "Name            : glibc\n" +
			"Version         : 2.40-1\n" +
			"Download Size   : 10.00 MiB\n" +
			"Installed Size  : 40.00 MiB\n" +
			"\n" +
			"Name            : ripgrep\n" +
			"Version         : 14.1.1-1\n" +
			"Download Size   : 1.00 MiB\n" +
			"Installed Size  : 5.00 MiB\n",
		"pacman -Q glibc":    "glibc 2.39-1\n",
		"pacman -Qi glibc":   "Name            : glibc\nInstalled Size  : 38.00 MiB\n",
		"pacman -Q ripgrep":  "ripgrep 13.0.0-1\n",
		"pacman -Qi ripgrep": "Name            : ripgrep\nInstalled Size  : 4.00 MiB\n",
	}}
	r := newTestResolver(runner, "glibc", "ripgrep")

	got := r.Summary(context.Background(), []state.PackageItem{
		{Name: "glibc", Version: "2.40-1", Source: state.Official("core", "x86_64")},
		{Name: "ripgrep", Version: "14.1.1-1", Source: state.Official("extra", "x86_64")},
		{Name: "yay", Version: "12.4.2", Source: state.AUR()},
	}, state.ActionInstall)

	if got.PackageCount != 3 || got.AURCount != 1 {
		t.Fatalf("counts = %d packages %d aur, want 3/1", got.PackageCount, got.AURCount)
	}
	if got.RiskScore != 7 || got.Risk != RiskHigh {
		t.Errorf("risk = %d (%s), want 7 (high): %v", got.RiskScore, got.Risk, got.RiskReasons)
	}
	if len(got.RiskReasons) != 3 {
		t.Errorf("risk reasons = %v, want core, major bump, and AUR", got.RiskReasons)
	}
	if got.DownloadBytes != 11*1024*1024 {
		t.Errorf("download bytes = %d, want %d", got.DownloadBytes, 11*1024*1024)
	}
	if got.DeltaBytes != 3*1024*1024 {
		t.Errorf("delta bytes = %d, want %d", got.DeltaBytes, 3*1024*1024)
	}

	byName := map[string]PackageSummary{}
	for _, p := range got.Packages {
		byName[p.Name] = p
	}
	glibc := byName["glibc"]
	if glibc.InstalledVersion != "2.39-1" || glibc.IsMajorBump || glibc.IsDowngrade {
		t.Errorf("glibc row = %+v, want plain minor update", glibc)
	}
	if len(glibc.Notes) != 1 || glibc.Notes[0] != "core/system package update" {
		t.Errorf("glibc notes = %v", glibc.Notes)
	}
	rg := byName["ripgrep"]
	if !rg.IsMajorBump {
		t.Errorf("ripgrep row = %+v, want major bump", rg)
	}
	yay := byName["yay"]
	if yay.InstalledVersion != "" || yay.DownloadBytes != nil {
		t.Errorf("yay row = %+v, want uninstalled with unknown size", yay)
	}
	if len(yay.Notes) != 1 || yay.Notes[0] != "new installation" {
		t.Errorf("yay notes = %v", yay.Notes)
	}
}

func TestSummaryRemove(t *testing.T) {
	runner := fakeRunner{out: map[string]string{
		"pacman -Si extra/ripgrep": "Name            : ripgrep\n" +
			"Version         : 14.1.1-1\n" +
			"Download Size   : 1.00 MiB\n" +
			"Installed Size  : 5.00 MiB\n",
		"pacman -Q ripgrep":  "ripgrep 14.1.1-1\n",
		"pacman -Qi ripgrep": "Name            : ripgrep\nInstalled Size  : 4.00 MiB\n",
	}}
	r := newTestResolver(runner, "ripgrep")

	got := r.Summary(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1-1", Source: state.Official("extra", "x86_64")},
	}, state.ActionRemove)

	if got.RiskScore != 0 || got.Risk != RiskLow {
		t.Errorf("risk = %d (%s), want 0 (low)", got.RiskScore, got.Risk)
	}
	if got.DownloadBytes != 0 {
		t.Errorf("download bytes = %d, want 0 for a removal", got.DownloadBytes)
	}
	if got.DeltaBytes != -4*1024*1024 {
		t.Errorf("delta bytes = %d, want freed installed footprint", got.DeltaBytes)
	}
	rg := got.Packages[0]
	if rg.DownloadBytes != nil {
		t.Errorf("ripgrep row = %+v, want no download on removal", rg)
	}
}

func TestSummaryEmpty(t *testing.T) {
	r := newTestResolver(fakeRunner{})
	got := r.Summary(context.Background(), nil, state.ActionInstall)
	if got.PackageCount != 0 || got.Risk != RiskLow || len(got.Packages) != 0 {
		t.Fatalf("Summary(nil) = %+v, want empty low-risk data", got)
	}
}

func TestMajorComponent(t *testing.T) {
	tests := []struct {
		version string
		want    uint64
	}{
		{"14.1.1-1", 14},
		{"2:6.1.2-1", 6},
		{"2024.05.01", 2024},
		{"r128.9f1a2b3-1", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := majorComponent(tt.version); got != tt.want {
			t.Errorf("majorComponent(%q) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestSandboxFiltersOfficial(t *testing.T) {
	r := newTestResolver(fakeRunner{})
	got := r.Sandbox(context.Background(), []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
	})
	if got != nil {
		t.Fatalf("Sandbox() = %+v for official-only list, want nil", got)
	}
}
