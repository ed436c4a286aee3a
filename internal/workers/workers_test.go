package workers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/state"
)

func testIndex() *index.Store {
	s := index.NewStore()
	s.Replace(index.Official{Pkgs: []index.Pkg{
		{Name: "ripgrep", Repo: "extra", Version: "14.1.1-1"},
		{Name: "grep", Repo: "core", Version: "3.11-1"},
		{Name: "ugrep", Repo: "extra", Version: "6.0.0-1"},
	}})
	return s
}

func TestSearchWorkerCoalescesBursts(t *testing.T) {
	w := NewSearchWorker(testIndex(), nil, nil, log.New(io.Discard))
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for id := uint64(1); id <= 5; id++ {
		w.Queries <- state.QueryInput{ID: id, Text: ""}
	}

	select {
	case res := <-w.Results:
		if res.ID != 5 {
			t.Fatalf("first result id = %d, want 5 (last of burst)", res.ID)
		}
		if len(res.Items) != 3 {
			t.Fatalf("empty query returned %d items, want all 3 officials", len(res.Items))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result within deadline")
	}

	// The burst must have produced exactly one result.
	select {
	case res := <-w.Results:
		t.Fatalf("unexpected extra result id=%d", res.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRankOrdersRepoThenMatchThenName(t *testing.T) {
	pop := 4.2
	items := []state.PackageItem{
		{Name: "ripgrep-all", Source: state.AUR(), Popularity: &pop},
		{Name: "ripgrep", Source: state.AUR()},
		{Name: "perl-ripgrep", Source: state.Official("extra", "x86_64")},
		{Name: "ripgrep", Source: state.Official("extra", "x86_64")},
		{Name: "grep", Source: state.Official("core", "x86_64")},
	}
	got := Rank(items, "ripgrep")

	wantNames := []string{"grep", "ripgrep", "perl-ripgrep", "ripgrep-all"}
	if len(got) != len(wantNames) {
		t.Fatalf("Rank() kept %d items, want %d: %+v", len(got), len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Errorf("Rank()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	// The duplicate ripgrep must be the official one.
	if got[1].Source.IsAUR() {
		t.Error("dedupe kept the AUR ripgrep over the official one")
	}
}

func TestRingGate(t *testing.T) {
	var ring Ring
	if !ring.Allows("anything") {
		t.Error("empty ring should allow everything")
	}
	ring.Set([]string{"Ripgrep", "fd"})
	if !ring.Allows("ripgrep") {
		t.Error("ring lookup should be case-insensitive")
	}
	if ring.Allows("bat") {
		t.Error("name outside the ring allowed")
	}
	ring.Set(nil)
	if !ring.Allows("bat") {
		t.Error("cleared ring should allow everything again")
	}
}

func TestDetailsBatchDedupes(t *testing.T) {
	w := NewDetailsWorker(nil, nil, testIndex(), &Ring{}, log.New(io.Discard))
	w.batchWindow = 10 * time.Millisecond

	first := state.PackageItem{Name: "ripgrep"}
	w.Requests <- state.PackageItem{Name: "Ripgrep"}
	w.Requests <- state.PackageItem{Name: "fd"}
	w.Requests <- state.PackageItem{Name: "fd"}

	batch := w.collect(context.Background(), first)
	if len(batch) != 2 {
		t.Fatalf("collect() = %d items, want 2: %+v", len(batch), batch)
	}
	if batch[0].Name != "ripgrep" || batch[1].Name != "fd" {
		t.Fatalf("collect() order = %+v, want first-arrival order", batch)
	}
}

func TestResolveGuardedRecoversPanic(t *testing.T) {
	req := PreflightRequest{
		Items: []state.PackageItem{
			{Name: "ripgrep", Version: "14.1.1", Source: state.Official("extra", "x86_64")},
		},
	}
	res := resolveGuarded(context.Background(), log.New(io.Discard), "", req,
		func(context.Context, PreflightRequest) []string {
			panic("resolver bug")
		})
	if res.Payload != nil {
		t.Fatalf("payload = %v, want empty after panic", res.Payload)
	}
	if len(res.Signature) != 1 || res.Signature[0] != "ripgrep|14.1.1|official:extra" {
		t.Fatalf("signature = %v", res.Signature)
	}
}
