package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	pexec "github.com/kajell/pacterm/internal/exec"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/state"
	"github.com/kajell/pacterm/internal/workers"
)

// stageSelected moves the selected result onto the list for action. Any
// list change invalidates the preflight caches and kicks off resolution.
func (m Model) stageSelected(action state.Action) Model {
	sel := m.selectedItem()
	if sel == nil {
		return m
	}
	if action == state.ActionRemove && !m.index.IsInstalled(sel.Name) {
		return m.showToast(sel.Name + " is not installed")
	}
	if !m.staged.Add(action, *sel) {
		return m
	}
	m.action = action
	m.stagedDirty = true
	m.invalidatePreflight()
	m = m.showToast(sel.Name + " staged for " + action.String())
	return m
}

// unstage drops a package from whichever list holds it.
func (m Model) unstage(name string) Model {
	if !m.staged.Drop(name) {
		return m
	}
	m.stagedDirty = true
	m.invalidatePreflight()
	return m
}

// invalidatePreflight marks every pane whose signature no longer matches
// the staged list under analysis and dispatches one resolution round for
// the new list.
func (m *Model) invalidatePreflight() {
	items, action := m.preflightTarget()
	sig := preflight.Signature(items)
	req := workers.PreflightRequest{Items: items, Action: action}

	dispatch := func(tab preflightTab, in chan workers.PreflightRequest) {
		if preflight.SignatureMatches(m.panes[tab].signature, sig) {
			return
		}
		m.panes[tab].resolving = true
		select {
		case in <- req:
		default:
		}
	}
	dispatch(tabDeps, m.pf.Deps)
	dispatch(tabFiles, m.pf.Files)
	dispatch(tabServices, m.pf.Services)
	dispatch(tabSandbox, m.pf.Sandbox)
	dispatch(tabSummary, m.pf.Summary)
}

// preflightTarget picks the staged list the resolvers analyze: the same
// list execute would act on, so a staged removal gets removal analysis.
func (m Model) preflightTarget() ([]state.PackageItem, state.Action) {
	action, items := m.executionTarget()
	return items, action
}

// openPreflight shows the tabbed preflight view, resolving anything stale.
func (m Model) openPreflight() Model {
	m.preflightOpen = true
	m.invalidatePreflight()
	return m
}

// execute spawns the package-manager command for the first non-empty staged
// list. The executor streams output back as messages.
func (m Model) execute() (Model, tea.Cmd) {
	if m.execRunning {
		return m.showToast("a command is already running"), nil
	}
	action, items := m.executionTarget()
	if len(items) == 0 {
		return m.showToast("nothing staged"), nil
	}
	m.action = action
	m.execRunning = true
	m.execLog = nil
	m.executor = pexec.New(m.dryRun, m.logger)
	argv := pexec.Command(action, items)

	ex, ctx := m.executor, m.ctx
	run := func() tea.Msg {
		go ex.Run(ctx, argv)
		return nil
	}
	return m, tea.Batch(run, m.listenExecutor())
}

func (m Model) executionTarget() (state.Action, []state.PackageItem) {
	switch {
	case len(m.staged.Install) > 0:
		return state.ActionInstall, m.staged.Install
	case len(m.staged.Remove) > 0:
		return state.ActionRemove, m.staged.Remove
	case len(m.staged.Downgrade) > 0:
		return state.ActionDowngrade, m.staged.Downgrade
	}
	return state.ActionInstall, nil
}

// stagedFlat lists all staged items in display order: install, remove,
// downgrade.
func (m Model) stagedFlat() []stagedEntry {
	out := make([]stagedEntry, 0,
		len(m.staged.Install)+len(m.staged.Remove)+len(m.staged.Downgrade))
	for _, it := range m.staged.Install {
		out = append(out, stagedEntry{item: it, action: state.ActionInstall})
	}
	for _, it := range m.staged.Remove {
		out = append(out, stagedEntry{item: it, action: state.ActionRemove})
	}
	for _, it := range m.staged.Downgrade {
		out = append(out, stagedEntry{item: it, action: state.ActionDowngrade})
	}
	return out
}

type stagedEntry struct {
	item   state.PackageItem
	action state.Action
}
