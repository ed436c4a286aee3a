package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kajell/pacterm/internal/state"
)

// ringNames returns the names within the prefetch radius of the selection.
func (m *Model) ringNames() []string {
	if len(m.results) == 0 {
		return nil
	}
	lo := clamp(m.selected-prefetchRadius, 0, len(m.results)-1)
	hi := clamp(m.selected+prefetchRadius, 0, len(m.results)-1)
	names := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		names = append(names, m.results[i].Name)
	}
	return names
}

// refreshRing publishes the allowed ring to the details worker.
func (m *Model) refreshRing() {
	m.ring.Set(m.ringNames())
}

// moveSelection shifts the selection by delta with clamping, then either
// prefetches around the new position or, mid scroll burst, defers the work
// until the quiescence deadline.
func (m *Model) moveSelection(delta int) tea.Cmd {
	if len(m.results) == 0 {
		return nil
	}
	m.selected = clamp(m.selected+delta, 0, len(m.results)-1)
	m.hasDetails = false
	if d, ok := m.detailsCache.Get(m.results[m.selected].Name); ok {
		m.current = d
		m.hasDetails = true
	}

	if m.recordMove() {
		// Scrolling too fast; batch the ring work for later.
		m.needRingPre = true
		m.quiesceAt = time.Now().Add(prefetchQuiesce)
		return nil
	}
	m.refreshRing()
	m.requestSelectionDetails()
	m.prefetchNeighbors()
	return m.enrichCmd()
}

// recordMove tracks selection-move timestamps and reports whether the user
// is in a rapid scroll burst.
func (m *Model) recordMove() bool {
	now := time.Now()
	cutoff := now.Add(-thrashWindow)
	kept := m.moveTimes[:0]
	for _, t := range m.moveTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.moveTimes = append(kept, now)
	return len(m.moveTimes) > thrashMoveCount
}

// requestSelectionDetails serves the selection from the cache when possible
// and otherwise asks the details worker.
func (m *Model) requestSelectionDetails() {
	sel := m.selectedItem()
	if sel == nil {
		return
	}
	if d, ok := m.detailsCache.Get(sel.Name); ok {
		m.current = d
		m.hasDetails = true
		return
	}
	m.requestDetails(*sel)
}

// prefetchNeighbors asks the worker for every ring member the cache does
// not hold yet. The worker's ring gate re-checks each name, so a stale
// request after further scrolling is dropped there.
func (m *Model) prefetchNeighbors() {
	if len(m.results) == 0 {
		return
	}
	lo := clamp(m.selected-prefetchRadius, 0, len(m.results)-1)
	hi := clamp(m.selected+prefetchRadius, 0, len(m.results)-1)
	for i := lo; i <= hi; i++ {
		if i == m.selected {
			continue
		}
		if _, ok := m.detailsCache.Get(m.results[i].Name); ok {
			continue
		}
		m.requestDetails(m.results[i])
	}
}

func (m *Model) requestDetails(item state.PackageItem) {
	select {
	case m.details.Requests <- item:
	default:
	}
}

// enrichCmd fills empty index entries around the selection in the
// background and persists the index when anything changed.
func (m Model) enrichCmd() tea.Cmd {
	var names []string
	lo := clamp(m.selected-prefetchRadius, 0, len(m.results)-1)
	hi := clamp(m.selected+prefetchRadius, 0, len(m.results)-1)
	for i := lo; i <= hi && len(names) < enrichBatchLimit; i++ {
		it := m.results[i]
		if it.Source.IsAUR() || it.Description != "" {
			continue
		}
		if p, ok := m.index.Lookup(it.Name); ok && p.Description == "" {
			names = append(names, it.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	idx, fetcher, path := m.index, m.search.Fetcher, m.paths.Index
	ctx := m.ctx
	return func() tea.Msg {
		if idx.Enrich(ctx, fetcher, names) {
			if err := idx.SaveToDisk(path); err == nil {
				return indexReadyMsg{}
			}
		}
		return nil
	}
}
