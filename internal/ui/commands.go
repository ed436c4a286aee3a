package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kajell/pacterm/internal/sources"
)

// Each listen command blocks on one worker channel and resolves into a
// message; the handler re-arms it so exactly one receiver per channel is
// outstanding at any time.

func (m Model) listenSearch() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.search.Results
		if !ok {
			return nil
		}
		return searchResultsMsg(res)
	}
}

func (m Model) listenSearchErrors() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.search.Errors
		if !ok {
			return nil
		}
		return searchErrMsg(msg)
	}
}

func (m Model) listenDetails() tea.Cmd {
	return func() tea.Msg {
		d, ok := <-m.details.Results
		if !ok {
			return nil
		}
		return detailsMsg(d)
	}
}

func (m Model) listenPKGBUILD() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pkgb.Results
		if !ok {
			return nil
		}
		return pkgbuildMsg(res)
	}
}

func (m Model) listenDeps() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pf.DepsOut
		if !ok {
			return nil
		}
		return depsMsg(res)
	}
}

func (m Model) listenFiles() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pf.FilesOut
		if !ok {
			return nil
		}
		return filesMsg(res)
	}
}

func (m Model) listenServices() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pf.ServicesOut
		if !ok {
			return nil
		}
		return servicesMsg(res)
	}
}

func (m Model) listenSandbox() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pf.SandboxOut
		if !ok {
			return nil
		}
		return sandboxMsg(res)
	}
}

func (m Model) listenSummary() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.pf.SummaryOut
		if !ok {
			return nil
		}
		return summaryMsg(res)
	}
}

func (m Model) listenExecutor() tea.Cmd {
	ex := m.executor
	if ex == nil {
		return nil
	}
	return func() tea.Msg {
		out, ok := <-ex.Out
		if !ok {
			return nil
		}
		return execOutputMsg(out)
	}
}

func (m Model) listenIndexRefreshed() tea.Cmd {
	ch := m.idxNote
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		note, ok := <-ch
		if !ok {
			return nil
		}
		return indexRefreshMsg(note)
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchNewsCmd() tea.Cmd {
	filters := m.cfg.NewsFilters
	maxAge := time.Duration(m.cfg.NewsMaxAge) * 24 * time.Hour
	return func() tea.Msg {
		items, err := sources.FetchNews(m.ctx, m.search.Remote, filters, maxAge)
		return newsMsg{items: items, err: err}
	}
}

func (m Model) fetchCommentsCmd(name string) tea.Cmd {
	return func() tea.Msg {
		rows, err := sources.FetchAURComments(m.ctx, m.search.Remote, name)
		msg := commentsMsg{name: name, rows: rows}
		if err != nil {
			msg.err = err.Error()
		}
		return msg
	}
}

func (m Model) fetchMirrorsCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := sources.FetchMirrorStatus(m.ctx, m.search.Remote)
		if err != nil {
			return nil
		}
		return mirrorsMsg(status)
	}
}
