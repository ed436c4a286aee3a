package ui

import (
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	pexec "github.com/kajell/pacterm/internal/exec"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
	"github.com/kajell/pacterm/internal/workers"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchResultsMsg:
		return m.applySearchResults(state.SearchResults(msg)), m.listenSearch()

	case searchErrMsg:
		m = m.showToast(string(msg))
		return m, m.listenSearchErrors()

	case detailsMsg:
		return m.applyDetails(state.PackageDetails(msg)), m.listenDetails()

	case pkgbuildMsg:
		if m.pkgbuildOpen && strings.EqualFold(msg.Name, m.pkgbuildFor) {
			if msg.Err != "" {
				m.pkgbuildText = "fetch failed: " + msg.Err
			} else {
				m.pkgbuildText = msg.Text
			}
		}
		return m, m.listenPKGBUILD()

	case commentsMsg:
		if m.commentsOpen && strings.EqualFold(msg.name, m.commentsFor) {
			m.commentsBusy = false
			m.commentsRows = msg.rows
			m.commentsErr = msg.err
		}
		return m, nil

	case depsMsg:
		if m.paneAccepts(tabDeps, msg.Signature) {
			m.depsRows = msg.Payload.Rows
			m.conflicts = msg.Payload.Conflicts
		}
		return m, m.listenDeps()

	case filesMsg:
		if m.paneAccepts(tabFiles, msg.Signature) {
			m.fileRows = msg.Payload
		}
		return m, m.listenFiles()

	case servicesMsg:
		if m.paneAccepts(tabServices, msg.Signature) {
			m.serviceRows = msg.Payload
		}
		return m, m.listenServices()

	case sandboxMsg:
		if m.paneAccepts(tabSandbox, msg.Signature) {
			m.sandboxRows = msg.Payload
		}
		return m, m.listenSandbox()

	case summaryMsg:
		if m.paneAccepts(tabSummary, msg.Signature) {
			m.summaryData = msg.Payload
		}
		return m, m.listenSummary()

	case execOutputMsg:
		return m.applyExecOutput(pexec.Output(msg))

	case tickMsg:
		return m.applyTick(time.Time(msg))

	case indexReadyMsg:
		m.enqueueSearch()
		return m, nil

	case indexRefreshMsg:
		switch {
		case msg.Err != nil && msg.Empty:
			// No local snapshot to fall back on: the results pane would
			// stay blank forever, so this one failure blocks with a modal.
			m.alert = "package index unavailable: " + msg.Err.Error()
		case msg.Err != nil:
			m = m.showToast("index refresh failed, showing cached packages")
		default:
			m.enqueueSearch()
		}
		return m, m.listenIndexRefreshed()

	case newsMsg:
		if msg.err != nil {
			// News stays disabled for the session; nothing else degrades.
			if m.logger != nil {
				m.logger.Debug("news fetch failed", "err", msg.err)
			}
			return m, nil
		}
		m.newsItems = msg.items
		return m, nil

	case mirrorsMsg:
		m.mirrors = sources.MirrorStatus(msg)
		m.hasMirrors = true
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusSearch {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// paneAccepts reports whether a resolver result still matches the staged
// list, clearing the pane's resolving flag when it does. Stale results are
// dropped; the in-flight request for the new signature will clear the flag.
func (m *Model) paneAccepts(tab preflightTab, sig []string) bool {
	items, _ := m.preflightTarget()
	current := preflight.Signature(items)
	if !preflight.SignatureMatches(sig, current) {
		return false
	}
	m.panes[tab].signature = sig
	m.panes[tab].resolving = false
	return true
}

// applySearchResults integrates a worker result, dropping anything that is
// not the latest query. Applying the same id twice is a no-op.
func (m Model) applySearchResults(res state.SearchResults) Model {
	if res.ID != m.latestQueryID {
		return m
	}
	items := res.Items
	if m.installedOnly {
		kept := items[:0:0]
		for _, it := range items {
			if m.index.IsInstalled(it.Name) {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	m.results = m.applySort(items)
	m.selected = clamp(m.selected, 0, len(m.results)-1)
	m.refreshRing()
	m.requestSelectionDetails()
	return m
}

// applySort reorders results per the active sort mode. The worker already
// emits (repo, match, name) order, so only the other modes re-sort.
func (m Model) applySort(items []state.PackageItem) []state.PackageItem {
	switch m.sortMode {
	case state.SortAURPopularity:
		sortByPopularity(items)
	case state.SortBestMatches:
		items = workers.Rank(items, strings.ToLower(strings.TrimSpace(m.input.Value())))
	}
	return items
}

func (m Model) applyDetails(d state.PackageDetails) Model {
	m.detailsCache.Put(d)
	m.detailsDirty = true
	m.backfillResult(d)
	if sel := m.selectedItem(); sel != nil && strings.EqualFold(sel.Name, d.Name) {
		m.current = d
		m.hasDetails = true
	}
	return m
}

// backfillResult fills still-empty list fields from fetched details.
func (m *Model) backfillResult(d state.PackageDetails) {
	for i := range m.results {
		if !strings.EqualFold(m.results[i].Name, d.Name) {
			continue
		}
		it := &m.results[i]
		if it.Description == "" {
			it.Description = d.Description
		}
		if it.Version == "" {
			it.Version = d.Version
		}
		if it.Source.Repo == "" && !it.Source.IsAUR() {
			it.Source.Repo = d.Repository
		}
		if it.Source.Arch == "" && !it.Source.IsAUR() {
			it.Source.Arch = d.Architecture
		}
		if it.Popularity == nil {
			it.Popularity = d.Popularity
		}
		return
	}
}

func (m Model) applyExecOutput(out pexec.Output) (Model, tea.Cmd) {
	switch out.Kind {
	case pexec.Line:
		m.execLog = appendCapped(m.execLog, out.Text, executorLogCap)
	case pexec.ReplaceLastLine:
		if n := len(m.execLog); n > 0 {
			m.execLog[n-1] = out.Text
		} else {
			m.execLog = append(m.execLog, out.Text)
		}
	case pexec.Error:
		m.execRunning = false
		m.executor = nil
		m.alert = "command failed: " + out.Text
		return m, nil
	case pexec.Finished:
		m.execRunning = false
		m.executor = nil
		if out.Success {
			m.staged.Clear(m.action)
			m.stagedDirty = true
			m.invalidatePreflight()
			m = m.showToast("transaction finished")
			return m, m.refreshInstalledCmd()
		}
		m.alert = "command exited with status " + strconv.Itoa(out.ExitCode)
		return m, nil
	}
	return m, m.listenExecutor()
}

// applyTick runs the 200 ms housekeeping pass: flush dirty caches, expire
// the toast, resume deferred prefetch, auto-close an idle sort menu. All of
// it is idempotent; dropped ticks are harmless.
func (m Model) applyTick(now time.Time) (Model, tea.Cmd) {
	m.flushDirty()

	if m.toast != "" && now.After(m.toastUntil) {
		m.toast = ""
	}
	if m.needRingPre && now.After(m.quiesceAt) {
		m.needRingPre = false
		m.refreshRing()
		m.requestSelectionDetails()
		m.prefetchNeighbors()
	}
	if m.sortMenuOpen && now.Sub(m.sortMenuAt) > sortMenuIdle {
		m.sortMenuOpen = false
	}
	return m, m.tickCmd()
}

// flushDirty persists whatever changed since the last tick.
func (m *Model) flushDirty() {
	if m.detailsDirty {
		if err := m.detailsCache.Save(m.paths.DetailsCache); err == nil {
			m.detailsDirty = false
		}
	}
	if m.recentDirty {
		if err := state.SaveRecent(m.paths.Recent, m.recent); err == nil {
			m.recentDirty = false
		}
	}
	if m.stagedDirty {
		ok1 := state.SaveList(m.paths.InstallList, m.staged.Install) == nil
		ok2 := state.SaveList(m.paths.RemoveList, m.staged.Remove) == nil
		ok3 := state.SaveList(m.paths.DowngradeLst, m.staged.Downgrade) == nil
		if ok1 && ok2 && ok3 {
			m.stagedDirty = false
		}
	}
	if m.newsReadDirty {
		if err := state.SaveReadSet(m.paths.NewsRead, m.newsRead); err == nil {
			m.newsReadDirty = false
		}
	}
}

// Flush persists all dirty state; called once more on shutdown.
func (m *Model) Flush() {
	m.detailsDirty = true
	m.recentDirty = true
	m.stagedDirty = true
	m.newsReadDirty = true
	m.flushDirty()
}

func (m Model) showToast(text string) Model {
	m.toast = text
	m.toastUntil = time.Now().Add(toastDuration)
	return m
}

func (m Model) refreshInstalledCmd() tea.Cmd {
	return func() tea.Msg {
		if names, err := m.pacman.InstalledNames(m.ctx); err == nil {
			m.index.SetInstalled(names)
		}
		return indexReadyMsg{}
	}
}

func (m Model) selectedItem() *state.PackageItem {
	if m.selected < 0 || m.selected >= len(m.results) {
		return nil
	}
	return &m.results[m.selected]
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func appendCapped(lines []string, line string, limit int) []string {
	lines = append(lines, line)
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

// sortByPopularity puts AUR entries first by descending popularity, with
// officials after and names as tiebreak.
func sortByPopularity(items []state.PackageItem) {
	sort.SliceStable(items, func(i, j int) bool {
		pa, pb := popularityOf(items[i]), popularityOf(items[j])
		if pa != pb {
			return pa > pb
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

func popularityOf(it state.PackageItem) float64 {
	if it.Popularity == nil {
		return -1
	}
	return *it.Popularity
}
