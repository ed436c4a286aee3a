package ui

import (
	"fmt"
	"strings"

	"github.com/kajell/pacterm/internal/state"
)

func (m Model) renderDetails(rows int) string {
	sel := m.selectedItem()
	if sel == nil {
		return mutedStyle.Render("select a package")
	}
	if !m.hasDetails || !strings.EqualFold(m.current.Name, sel.Name) {
		return mutedStyle.Render("loading " + sel.Name + "...")
	}

	d := m.current
	lines := []string{
		paneTitleStyle.Render(d.Name) + " " + mutedStyle.Render(d.Version),
	}
	if d.Description != "" {
		lines = append(lines, d.Description)
	}
	lines = append(lines, detailRow("repo", repoOrAUR(d.Repository, *sel)))
	if d.Architecture != "" {
		lines = append(lines, detailRow("arch", d.Architecture))
	}
	if d.URL != "" {
		lines = append(lines, detailRow("url", d.URL))
	}
	if len(d.Licenses) > 0 {
		lines = append(lines, detailRow("licenses", strings.Join(d.Licenses, " ")))
	}
	if len(d.Depends) > 0 {
		lines = append(lines, detailRow("depends", strings.Join(d.Depends, " ")))
	}
	if len(d.OptDepends) > 0 {
		lines = append(lines, detailRow("optional", strings.Join(d.OptDepends, " ")))
	}
	if len(d.Conflicts) > 0 {
		lines = append(lines, detailRow("conflicts", strings.Join(d.Conflicts, " ")))
	}
	if d.DownloadSize != nil {
		lines = append(lines, detailRow("download", formatSize(*d.DownloadSize)))
	}
	if d.InstallSize != nil {
		lines = append(lines, detailRow("installed", formatSize(*d.InstallSize)))
	}
	if d.Maintainer != "" {
		lines = append(lines, detailRow("maintainer", d.Maintainer))
	}
	if d.Popularity != nil {
		lines = append(lines, detailRow("popularity", fmt.Sprintf("%.2f", *d.Popularity)))
	}
	if d.BuildDate != "" {
		lines = append(lines, detailRow("built", d.BuildDate))
	}
	if sel.OutOfDate != nil {
		lines = append(lines, dangerStyle.Render("flagged out of date "+sel.OutOfDate.Format("2006-01-02")))
	}

	if len(lines) > rows && rows > 0 {
		lines = lines[:rows]
	}
	return strings.Join(lines, "\n")
}

func detailRow(label, value string) string {
	return mutedStyle.Render(fmt.Sprintf("%-11s", label)) + value
}

func repoOrAUR(repo string, item state.PackageItem) string {
	if item.Source.IsAUR() {
		return "aur"
	}
	if repo != "" {
		return repo
	}
	return item.Source.Repo
}

func actionBadge(a state.Action) string {
	switch a {
	case state.ActionRemove:
		return dangerStyle.Render("-")
	case state.ActionDowngrade:
		return warnStyle.Render("v")
	default:
		return okStyle.Render("+")
	}
}

func formatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGT"[exp])
}
