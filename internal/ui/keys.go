package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kajell/pacterm/internal/state"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Ctrl+C always quits, regardless of modal state.
	if key == "ctrl+c" || key == m.cfg.Keymap.Quit {
		m.quitting = true
		m.Flush()
		return m, tea.Quit
	}

	// The alert modal blocks all other input until dismissed.
	if m.alert != "" {
		if key == "enter" || key == "esc" {
			m.alert = ""
		}
		return m, nil
	}

	if m.helpOpen {
		if key == "esc" || key == m.cfg.Keymap.Help || key == "q" {
			m.helpOpen = false
		}
		return m, nil
	}

	if m.pkgbuildOpen {
		if key == "esc" || key == "q" {
			m.pkgbuildOpen = false
			m.pkgbuildText = ""
		}
		return m, nil
	}

	if m.commentsOpen {
		if key == "esc" || key == "q" {
			m.commentsOpen = false
			m.commentsRows = nil
			m.commentsErr = ""
		}
		return m, nil
	}

	if m.newsOpen {
		return m.handleNewsKey(key), nil
	}

	if m.sortMenuOpen {
		return m.handleSortMenuKey(key), nil
	}

	if m.preflightOpen {
		return m.handlePreflightKey(key)
	}

	// The executor log takes over the body while a command runs or until
	// its output is dismissed.
	if m.execRunning || len(m.execLog) > 0 {
		if key == "esc" && !m.execRunning {
			m.execLog = nil
		}
		return m, nil
	}

	// Global bindings.
	switch key {
	case m.cfg.Keymap.Help:
		m.helpOpen = true
		return m, nil
	case m.cfg.Keymap.CycleSort:
		m.sortMenuOpen = true
		m.sortMenuAt = time.Now()
		return m, nil
	case m.cfg.Keymap.Preflight:
		return m.openPreflight(), nil
	case m.cfg.Keymap.Execute:
		return m.execute()
	case m.cfg.Keymap.ShowPkgbuild:
		return m.openPkgbuild()
	case m.cfg.Keymap.ShowComments:
		return m.openComments()
	case m.cfg.Keymap.AddRemove:
		return m.stageSelected(state.ActionRemove), nil
	case m.cfg.Keymap.AddDowngrad:
		return m.stageSelected(state.ActionDowngrade), nil
	case "ctrl+n":
		if len(m.newsItems) > 0 {
			m.newsOpen = true
			m.newsSel = 0
		}
		return m, nil
	case "tab":
		m.focus = m.nextFocus()
		if m.focus == focusSearch {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(key, msg)
	case focusResults:
		return m.handleResultsKey(key)
	case focusStaged:
		return m.handleStagedKey(key), nil
	case focusRecent:
		return m.handleRecentKey(key), nil
	}
	return m, nil
}

func (m Model) nextFocus() focusTarget {
	order := []focusTarget{focusSearch, focusResults}
	if m.cfg.ShowInstall {
		order = append(order, focusStaged)
	}
	if m.cfg.ShowRecent {
		order = append(order, focusRecent)
	}
	for i, f := range order {
		if f == m.focus {
			return order[(i+1)%len(order)]
		}
	}
	return focusSearch
}

func (m Model) handleSearchKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		q := m.input.Value()
		if q != "" {
			m.recent = state.PushRecent(m.recent, q)
			m.recentDirty = true
		}
		m.focus = focusResults
		m.input.Blur()
		return m, nil
	case "esc":
		m.focus = focusResults
		m.input.Blur()
		return m, nil
	case "down":
		m.focus = focusResults
		m.input.Blur()
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.enqueueSearch()
	}
	return m, cmd
}

func (m Model) handleResultsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		return m, m.moveSelection(-1)
	case "down", "j":
		return m, m.moveSelection(1)
	case "pgup", "ctrl+u":
		return m, m.moveSelection(-m.pageSize())
	case "pgdown", "ctrl+d":
		return m, m.moveSelection(m.pageSize())
	case "home", "g":
		return m, m.moveSelection(-len(m.results))
	case "end", "G":
		return m, m.moveSelection(len(m.results))
	case "/", "i":
		m.focus = focusSearch
		m.input.Focus()
		return m, nil
	case m.cfg.Keymap.AddInstall, "enter":
		return m.stageSelected(state.ActionInstall), nil
	case "d", "delete":
		if sel := m.selectedItem(); sel != nil {
			return m.unstage(sel.Name), nil
		}
	}
	return m, nil
}

func (m Model) handleStagedKey(key string) Model {
	entries := m.stagedFlat()
	switch key {
	case "up", "k":
		m.stagedSel = clamp(m.stagedSel-1, 0, len(entries)-1)
	case "down", "j":
		m.stagedSel = clamp(m.stagedSel+1, 0, len(entries)-1)
	case "d", "x", "delete":
		if m.stagedSel >= 0 && m.stagedSel < len(entries) {
			m = m.unstage(entries[m.stagedSel].item.Name)
			m.stagedSel = clamp(m.stagedSel, 0, len(m.stagedFlat())-1)
		}
	}
	return m
}

func (m Model) handleRecentKey(key string) Model {
	switch key {
	case "up", "k":
		m.recentSel = clamp(m.recentSel-1, 0, len(m.recent)-1)
	case "down", "j":
		m.recentSel = clamp(m.recentSel+1, 0, len(m.recent)-1)
	case "enter":
		if m.recentSel >= 0 && m.recentSel < len(m.recent) {
			m.input.SetValue(m.recent[m.recentSel])
			m.focus = focusResults
			m.enqueueSearch()
		}
	}
	return m
}

func (m Model) handleNewsKey(key string) Model {
	switch key {
	case "esc", "q", "ctrl+n":
		m.newsOpen = false
	case "up", "k":
		m.newsSel = clamp(m.newsSel-1, 0, len(m.newsItems)-1)
	case "down", "j":
		m.newsSel = clamp(m.newsSel+1, 0, len(m.newsItems)-1)
	case "enter":
		if m.newsSel >= 0 && m.newsSel < len(m.newsItems) {
			m.newsRead[m.newsItems[m.newsSel].URL] = struct{}{}
			m.newsReadDirty = true
		}
	}
	return m
}

func (m Model) handleSortMenuKey(key string) Model {
	switch key {
	case "esc":
		m.sortMenuOpen = false
	case "1":
		m = m.chooseSort(state.SortRepoThenName)
	case "2":
		m = m.chooseSort(state.SortAURPopularity)
	case "3":
		m = m.chooseSort(state.SortBestMatches)
	case m.cfg.Keymap.CycleSort:
		m = m.chooseSort((m.sortMode + 1) % 3)
	default:
		m.sortMenuAt = time.Now()
	}
	return m
}

func (m Model) chooseSort(mode state.SortMode) Model {
	m.sortMode = mode
	m.sortMenuOpen = false
	m.results = m.applySort(m.results)
	m.selected = clamp(m.selected, 0, len(m.results)-1)
	return m
}

func (m Model) handlePreflightKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q", m.cfg.Keymap.Preflight:
		m.preflightOpen = false
	case "tab", "right", "l":
		m.activeTab = (m.activeTab + 1) % preflightTabCount
	case "shift+tab", "left", "h":
		m.activeTab = (m.activeTab + preflightTabCount - 1) % preflightTabCount
	case "1":
		m.activeTab = tabDeps
	case "2":
		m.activeTab = tabFiles
	case "3":
		m.activeTab = tabServices
	case "4":
		m.activeTab = tabSandbox
	case "5":
		m.activeTab = tabSummary
	case m.cfg.Keymap.Execute:
		m.preflightOpen = false
		return m.execute()
	}
	return m, nil
}

// openPkgbuild shows the recipe modal for the selection and asks the
// PKGBUILD worker for the text.
func (m Model) openPkgbuild() (tea.Model, tea.Cmd) {
	sel := m.selectedItem()
	if sel == nil {
		return m, nil
	}
	m.pkgbuildOpen = true
	m.pkgbuildFor = sel.Name
	m.pkgbuildText = ""
	select {
	case m.pkgb.Requests <- *sel:
	default:
	}
	return m, nil
}

// openComments shows the AUR comment feed for the selection. Official
// packages have no comment feed, so the key only reacts on AUR items.
func (m Model) openComments() (tea.Model, tea.Cmd) {
	sel := m.selectedItem()
	if sel == nil || !sel.Source.IsAUR() {
		return m, nil
	}
	m.commentsOpen = true
	m.commentsFor = sel.Name
	m.commentsBusy = true
	m.commentsRows = nil
	m.commentsErr = ""
	return m, m.fetchCommentsCmd(sel.Name)
}

func (m Model) pageSize() int {
	if m.height > 10 {
		return m.height - 8
	}
	return 10
}
