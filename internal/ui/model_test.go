package ui

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/config"
	pexec "github.com/kajell/pacterm/internal/exec"
	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/paths"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/state"
	"github.com/kajell/pacterm/internal/workers"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	p, err := paths.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	idx := index.NewStore()
	pm := pacman.New(nil)
	ring := &workers.Ring{}
	return NewModel(Options{
		Config:   config.Default(),
		Paths:    p,
		Logger:   logger,
		Index:    idx,
		Pacman:   pm,
		Search:   workers.NewSearchWorker(idx, nil, nil, logger),
		Details:  workers.NewDetailsWorker(pm, nil, idx, ring, logger),
		PKGBUILD: workers.NewPKGBUILDWorker(nil, logger),
		Prefl:    workers.NewPreflightWorkers(nil, &p, logger),
		Ring:     ring,
	})
}

func resultItems(n int) []state.PackageItem {
	items := make([]state.PackageItem, 0, n)
	for i := range n {
		items = append(items, state.PackageItem{
			Name:    fmt.Sprintf("pkg%03d", i),
			Version: "1.0-1",
			Source:  state.Official("extra", "x86_64"),
		})
	}
	return items
}

func TestStaleSearchResultsDropped(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 7

	m = m.applySearchResults(state.SearchResults{ID: 6, Items: resultItems(3)})
	if len(m.results) != 0 {
		t.Fatalf("stale result was integrated: %d items", len(m.results))
	}

	m = m.applySearchResults(state.SearchResults{ID: 7, Items: resultItems(3)})
	if len(m.results) != 3 {
		t.Fatalf("latest result not integrated: %d items", len(m.results))
	}
}

func TestApplySameResultTwiceIsNoOp(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1

	res := state.SearchResults{ID: 1, Items: resultItems(5)}
	m = m.applySearchResults(res)
	m.selected = 2
	m = m.applySearchResults(res)
	if len(m.results) != 5 || m.selected != 2 {
		t.Fatalf("second application changed state: %d items, selected %d", len(m.results), m.selected)
	}
}

func TestSelectionClampsAtBoundaries(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1
	m = m.applySearchResults(state.SearchResults{ID: 1, Items: resultItems(4)})

	m.moveSelection(-10)
	if m.selected != 0 {
		t.Errorf("selection below zero: %d", m.selected)
	}
	m.moveSelection(100)
	if m.selected != 3 {
		t.Errorf("selection past end: %d", m.selected)
	}
}

func TestRingCoversAtMostRadiusAroundSelection(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1
	m = m.applySearchResults(state.SearchResults{ID: 1, Items: resultItems(200)})
	m.selected = 100
	names := m.ringNames()

	if len(names) != 2*prefetchRadius+1 {
		t.Fatalf("ring size = %d, want %d", len(names), 2*prefetchRadius+1)
	}
	if names[0] != "pkg070" || names[len(names)-1] != "pkg130" {
		t.Fatalf("ring spans %s..%s, want pkg070..pkg130", names[0], names[len(names)-1])
	}

	m.selected = 2
	names = m.ringNames()
	if names[0] != "pkg000" {
		t.Errorf("ring near start begins at %s, want pkg000", names[0])
	}
}

func TestExecutorLogCapped(t *testing.T) {
	m := newTestModel(t)
	for i := range executorLogCap + 50 {
		m.execLog = appendCapped(m.execLog, fmt.Sprintf("line %d", i), executorLogCap)
	}
	if len(m.execLog) != executorLogCap {
		t.Fatalf("log length = %d, want %d", len(m.execLog), executorLogCap)
	}
	if m.execLog[0] != "line 50" {
		t.Errorf("oldest kept line = %q, want line 50", m.execLog[0])
	}
}

func TestReplaceLastLine(t *testing.T) {
	m := newTestModel(t)
	var next Model
	next, _ = m.applyExecOutput(pexec.Output{Kind: pexec.Line, Text: "downloading 10%"})
	next, _ = next.applyExecOutput(pexec.Output{Kind: pexec.ReplaceLastLine, Text: "downloading 90%"})
	if len(next.execLog) != 1 || next.execLog[0] != "downloading 90%" {
		t.Fatalf("log = %v, want single replaced line", next.execLog)
	}
}

func TestIndexRefreshReissuesQuery(t *testing.T) {
	m := newTestModel(t)
	for len(m.search.Queries) > 0 {
		<-m.search.Queries
	}
	note := make(chan index.RefreshNote, 1)
	m.idxNote = note
	note <- index.RefreshNote{}

	msg := m.listenIndexRefreshed()()
	if _, ok := msg.(indexRefreshMsg); !ok {
		t.Fatalf("listen returned %T, want indexRefreshMsg", msg)
	}

	before := m.latestQueryID
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if m.latestQueryID != before+1 {
		t.Fatalf("latestQueryID = %d, want %d", m.latestQueryID, before+1)
	}
	select {
	case q := <-m.search.Queries:
		if q.ID != m.latestQueryID {
			t.Fatalf("re-issued query id = %d, want %d", q.ID, m.latestQueryID)
		}
	default:
		t.Fatal("refresh must re-enqueue the current query")
	}
	if cmd == nil {
		t.Fatal("refresh handler must re-arm the listener")
	}
}

func TestIndexFailureWithEmptyIndexRaisesAlert(t *testing.T) {
	m := newTestModel(t)
	for len(m.search.Queries) > 0 {
		<-m.search.Queries
	}

	updated, _ := m.Update(indexRefreshMsg{Err: fmt.Errorf("fetch names: 503"), Empty: true})
	m = updated.(Model)
	if m.alert == "" {
		t.Fatal("empty-index fetch failure must raise the alert modal")
	}
	if m.toast != "" {
		t.Errorf("toast = %q, want failure reported via alert only", m.toast)
	}
	select {
	case q := <-m.search.Queries:
		t.Fatalf("failed refresh re-enqueued query %d", q.ID)
	default:
	}
}

func TestIndexFailureWithCachedIndexStaysToast(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(indexRefreshMsg{Err: fmt.Errorf("fetch names: timeout")})
	m = updated.(Model)
	if m.alert != "" {
		t.Fatalf("alert = %q, want toast while cached packages remain usable", m.alert)
	}
	if m.toast == "" {
		t.Fatal("failed refresh over a cached index must surface a toast")
	}
}

func TestSummaryResultAdoptedForCurrentList(t *testing.T) {
	m := newTestModel(t)
	m.staged.Install = []state.PackageItem{
		{Name: "ripgrep", Version: "14.1.1-1", Source: state.Official("extra", "x86_64")},
	}
	sig := preflight.Signature(m.staged.Install)

	updated, cmd := m.Update(summaryMsg{
		Signature: sig,
		Payload:   preflight.SummaryData{PackageCount: 1, Risk: preflight.RiskLow},
	})
	m = updated.(Model)
	if m.summaryData.PackageCount != 1 {
		t.Fatalf("summaryData = %+v, want adopted payload", m.summaryData)
	}
	if cmd == nil {
		t.Fatal("summary handler must re-arm the listener")
	}

	stale := summaryMsg{
		Signature: []string{"outdated|1.0|aur"},
		Payload:   preflight.SummaryData{PackageCount: 9},
	}
	updated, _ = m.Update(stale)
	m = updated.(Model)
	if m.summaryData.PackageCount != 1 {
		t.Fatalf("stale summary adopted: %+v", m.summaryData)
	}
}

func TestPreflightAnalyzesRemovalList(t *testing.T) {
	m := newTestModel(t)
	m.staged.Remove = []state.PackageItem{
		{Name: "nginx", Version: "1.26.0-1", Source: state.Official("extra", "x86_64")},
	}
	m.invalidatePreflight()

	channels := map[string]chan workers.PreflightRequest{
		"files":    m.pf.Files,
		"services": m.pf.Services,
		"summary":  m.pf.Summary,
	}
	for name, ch := range channels {
		select {
		case req := <-ch:
			if req.Action != state.ActionRemove {
				t.Errorf("%s request action = %v, want remove", name, req.Action)
			}
			if len(req.Items) != 1 || req.Items[0].Name != "nginx" {
				t.Errorf("%s request items = %+v, want the removal list", name, req.Items)
			}
		default:
			t.Errorf("no %s request dispatched for a staged removal", name)
		}
	}
}

func TestToastExpiresOnTick(t *testing.T) {
	m := newTestModel(t)
	m = m.showToast("hello")
	if m.toast == "" {
		t.Fatal("toast not set")
	}

	m, _ = m.applyTick(time.Now())
	if m.toast == "" {
		t.Fatal("toast expired before its deadline")
	}
	m, _ = m.applyTick(time.Now().Add(toastDuration + time.Second))
	if m.toast != "" {
		t.Fatalf("toast survived expiry: %q", m.toast)
	}
}

func TestStagedMutationFlagsResolving(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1
	m = m.applySearchResults(state.SearchResults{ID: 1, Items: resultItems(3)})
	m.selected = 1

	m = m.stageSelected(state.ActionInstall)
	if !m.staged.Holds("pkg001") {
		t.Fatal("selection not staged")
	}
	for tab, pane := range m.panes {
		if !pane.resolving {
			t.Errorf("pane %d not flagged resolving after mutation", tab)
		}
	}

	// One request per pane must be pending.
	if len(m.pf.Deps) != 1 || len(m.pf.Files) != 1 || len(m.pf.Services) != 1 || len(m.pf.Sandbox) != 1 {
		t.Fatalf("dispatch counts = %d/%d/%d/%d, want 1 each",
			len(m.pf.Deps), len(m.pf.Files), len(m.pf.Services), len(m.pf.Sandbox))
	}
}

func TestStageTwiceSingleDispatch(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1
	m = m.applySearchResults(state.SearchResults{ID: 1, Items: resultItems(3)})

	m = m.stageSelected(state.ActionInstall)
	m = m.stageSelected(state.ActionInstall)
	if len(m.staged.Install) != 1 {
		t.Fatalf("install list = %d entries, want 1", len(m.staged.Install))
	}
	if len(m.pf.Deps) != 1 {
		t.Fatalf("deps requests = %d, want 1 (second add is a no-op)", len(m.pf.Deps))
	}
}

func TestTickRecoversDeferredPrefetch(t *testing.T) {
	m := newTestModel(t)
	m.latestQueryID = 1
	m = m.applySearchResults(state.SearchResults{ID: 1, Items: resultItems(100)})
	m.needRingPre = true
	m.quiesceAt = time.Now().Add(-time.Millisecond)
	m.selected = 60

	m, _ = m.applyTick(time.Now())
	if m.needRingPre {
		t.Fatal("deferred prefetch flag not cleared after quiescence")
	}
	if !m.ring.Allows("pkg060") {
		t.Fatal("ring not refreshed on deferred prefetch")
	}
	if m.ring.Allows("pkg000") {
		t.Fatal("ring allows a name outside the radius")
	}
}
