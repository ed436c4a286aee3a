package ui

import (
	"fmt"
	"strings"
)

func (m Model) renderHelp() string {
	k := m.cfg.Keymap
	rows := [][2]string{
		{"typing", "search official repos and the AUR"},
		{"enter (search)", "commit query to recent list"},
		{"tab", "cycle pane focus"},
		{"j/k, arrows", "move selection"},
		{k.AddInstall, "stage selection for install"},
		{k.AddRemove, "stage selection for removal"},
		{k.AddDowngrad, "stage selection for downgrade"},
		{"d", "unstage selection"},
		{k.ShowPkgbuild, "show PKGBUILD"},
		{k.ShowComments, "AUR comments"},
		{k.CycleSort, "sort menu"},
		{k.Preflight, "preflight analysis (deps/files/services/sandbox/summary)"},
		{k.Execute, "run the staged transaction"},
		{"ctrl+n", "Arch news"},
		{k.Help, "this help"},
		{k.Quit, "quit"},
	}
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-16s %s\n", row[0], mutedStyle.Render(row[1])))
	}
	return b.String()
}

func (m Model) renderPkgbuild() string {
	title := paneTitleStyle.Render("PKGBUILD: " + m.pkgbuildFor)
	if m.pkgbuildText == "" {
		return title + "\n\n" + mutedStyle.Render("fetching...")
	}
	lines := strings.Split(m.pkgbuildText, "\n")
	if limit := m.bodyHeight() - 2; len(lines) > limit {
		lines = lines[:limit]
	}
	return title + "\n\n" + strings.Join(lines, "\n")
}

func (m Model) renderComments() string {
	title := paneTitleStyle.Render("Comments: " + m.commentsFor)
	switch {
	case m.commentsBusy:
		return title + "\n\n" + mutedStyle.Render("fetching...")
	case m.commentsErr != "":
		return title + "\n\n" + dangerStyle.Render("fetch failed: "+m.commentsErr)
	case len(m.commentsRows) == 0:
		return title + "\n\n" + mutedStyle.Render("no comments")
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	for _, c := range m.commentsRows {
		header := paneTitleStyle.Render(c.Author)
		if c.Pinned {
			header = warnStyle.Render("pinned ") + header
		}
		if c.Date != "" {
			header += mutedStyle.Render("  " + c.Date)
		}
		b.WriteString(header)
		b.WriteString("\n")
		body := c.Content
		if body == "" {
			body = mutedStyle.Render("(empty comment)")
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if limit := m.bodyHeight() - 2; len(lines) > limit && limit > 0 {
		lines = lines[:limit]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNews() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Arch Linux news"))
	b.WriteString("\n\n")
	for i, item := range m.newsItems {
		marker := warnStyle.Render("unread")
		if _, read := m.newsRead[item.URL]; read {
			marker = mutedStyle.Render("read")
		}
		line := fmt.Sprintf("%s  %-8s %s", mutedStyle.Render(item.Date), marker, item.Title)
		if i == m.newsSel {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("enter: mark read  esc: close"))
	return b.String()
}

func (m Model) renderExecLog() string {
	var b strings.Builder
	status := okStyle.Render("finished")
	if m.execRunning {
		status = warnStyle.Render("running")
	}
	b.WriteString(paneTitleStyle.Render("Transaction ") + status)
	b.WriteString("\n\n")
	lines := m.execLog
	if limit := m.bodyHeight() - 3; len(lines) > limit && limit > 0 {
		lines = lines[len(lines)-limit:]
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if !m.execRunning {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("esc: back to results"))
	}
	return b.String()
}
