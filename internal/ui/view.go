package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	body := m.renderBody()
	switch {
	case m.alert != "":
		body = m.overlayCenter(body, m.renderAlert())
	case m.helpOpen:
		body = m.renderHelp()
	case m.pkgbuildOpen:
		body = m.renderPkgbuild()
	case m.commentsOpen:
		body = m.renderComments()
	case m.newsOpen:
		body = m.renderNews()
	case m.preflightOpen:
		body = m.renderPreflight()
	case m.execRunning || len(m.execLog) > 0:
		body = m.renderExecLog()
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{titleStyle.Render("pacterm")}
	parts = append(parts, mutedStyle.Render("sort: "+m.sortMode.ConfigKey()))
	if m.installedOnly {
		parts = append(parts, warnStyle.Render("installed only"))
	}
	if m.dryRun {
		parts = append(parts, warnStyle.Render("dry run"))
	}
	if m.hasMirrors && m.mirrors.OutOfSync > 0 {
		parts = append(parts, warnStyle.Render(
			strconv.Itoa(m.mirrors.OutOfSync)+"/"+strconv.Itoa(m.mirrors.TotalMirrors)+" mirrors behind"))
	}
	if m.sortMenuOpen {
		parts = append(parts, m.renderSortMenu())
	}
	if m.toast != "" {
		parts = append(parts, toastStyle.Render(m.toast))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderSortMenu() string {
	return toastStyle.Render("sort: 1 alphabetical  2 aur popularity  3 best matches")
}

// renderBody lays out the three columns per the configured percentages:
// recent queries, results with the details pane stacked below, and the
// staged lists.
func (m Model) renderBody() string {
	h := m.bodyHeight()
	recentW, resultsW, stagedW := m.columnWidths()

	var columns []string
	if m.cfg.ShowRecent {
		columns = append(columns, m.pane(focusRecent, "Recent", m.renderRecent(h), recentW, h))
	}

	resultsH := h * 6 / 10
	detailsH := h - resultsH
	middle := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(focusResults, m.resultsTitle(), m.renderResults(resultsH-2), resultsW, resultsH),
		m.pane(focusResults, "Details", m.renderDetails(detailsH-2), resultsW, detailsH),
	)
	columns = append(columns, middle)

	if m.cfg.ShowInstall {
		columns = append(columns, m.pane(focusStaged, "Staged", m.renderStaged(h), stagedW, h))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m Model) columnWidths() (int, int, int) {
	total := m.width - 2
	recentW := total * m.cfg.Layout.RecentPct / 100
	stagedW := total * m.cfg.Layout.InstallPct / 100
	if !m.cfg.ShowRecent {
		recentW = 0
	}
	if !m.cfg.ShowInstall {
		stagedW = 0
	}
	resultsW := total - recentW - stagedW
	return recentW, resultsW, stagedW
}

func (m Model) bodyHeight() int {
	h := m.height - 5
	if h < 6 {
		h = 6
	}
	return h
}

func (m Model) pane(target focusTarget, title, content string, w, h int) string {
	style := paneStyle
	if m.focus == target {
		style = paneFocusStyle
	}
	inner := paneTitleStyle.Render(title) + "\n" + content
	return style.Width(maxInt(w-2, 10)).Height(h - 2).Render(inner)
}

func (m Model) resultsTitle() string {
	return fmt.Sprintf("Results (%d)", len(m.results))
}

func (m Model) renderResults(rows int) string {
	if len(m.results) == 0 {
		return mutedStyle.Render("no packages match")
	}
	if rows < 1 {
		rows = 1
	}
	start := clamp(m.selected-rows/2, 0, maxInt(len(m.results)-rows, 0))
	end := minInt(start+rows, len(m.results))

	var b strings.Builder
	for i := start; i < end; i++ {
		it := m.results[i]
		repo := it.Source.Repo
		if it.Source.IsAUR() {
			repo = "aur"
		}
		line := fmt.Sprintf("%-7s %s %s",
			repoStyle(repo, it.Source.IsAUR()).Render(repo),
			it.Name,
			mutedStyle.Render(it.Version))
		if m.index.IsInstalled(it.Name) {
			line += installedStyle.Render(" [installed]")
		}
		if m.staged.Holds(it.Name) {
			line += warnStyle.Render(" [staged]")
		}
		if it.OutOfDate != nil {
			line += dangerStyle.Render(" [out-of-date]")
		}
		if it.Orphaned {
			line += warnStyle.Render(" [orphan]")
		}
		if i == m.selected {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderRecent(rows int) string {
	if len(m.recent) == 0 {
		return mutedStyle.Render("no recent queries")
	}
	var b strings.Builder
	for i, q := range m.recent {
		if i >= rows-2 {
			break
		}
		if m.focus == focusRecent && i == m.recentSel {
			b.WriteString(selectedStyle.Render("> " + q))
		} else {
			b.WriteString("  " + q)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStaged(rows int) string {
	entries := m.stagedFlat()
	if len(entries) == 0 {
		return mutedStyle.Render("nothing staged")
	}
	var b strings.Builder
	for i, e := range entries {
		if i >= rows-2 {
			break
		}
		label := fmt.Sprintf("%s %s", actionBadge(e.action), e.item.Name)
		if m.focus == focusStaged && i == m.stagedSel {
			label = selectedStyle.Render("> " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFooter() string {
	if !m.cfg.ShowKeybinds {
		return ""
	}
	k := m.cfg.Keymap
	return footerStyle.Render(strings.Join([]string{
		"/:search",
		k.AddInstall + ":install",
		k.AddRemove + ":remove",
		k.AddDowngrad + ":downgrade",
		k.ShowPkgbuild + ":pkgbuild",
		k.ShowComments + ":comments",
		k.CycleSort + ":sort",
		k.Preflight + ":preflight",
		k.Execute + ":execute",
		k.Help + ":help",
		k.Quit + ":quit",
	}, "  "))
}

func (m Model) overlayCenter(_ string, modal string) string {
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderAlert() string {
	return alertStyle.Render(m.alert + "\n\n" + mutedStyle.Render("press enter to dismiss"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
