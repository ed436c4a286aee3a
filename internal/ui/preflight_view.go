package ui

import (
	"fmt"
	"strings"

	"github.com/kajell/pacterm/internal/preflight"
)

var tabTitles = [preflightTabCount]string{"Dependencies", "Files", "Services", "Sandbox", "Summary"}

func (m Model) renderPreflight() string {
	var tabs []string
	for i, title := range tabTitles {
		label := fmt.Sprintf("%d %s", i+1, title)
		if preflightTab(i) == m.activeTab {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}

	var body string
	if m.panes[m.activeTab].resolving {
		body = mutedStyle.Render("resolving...")
	} else {
		switch m.activeTab {
		case tabDeps:
			body = m.renderDepsTab()
		case tabFiles:
			body = m.renderFilesTab()
		case tabServices:
			body = m.renderServicesTab()
		case tabSandbox:
			body = m.renderSandboxTab()
		case tabSummary:
			body = m.renderSummaryTab()
		}
	}
	return strings.Join(tabs, " ") + "\n\n" + body
}

func (m Model) renderDepsTab() string {
	if len(m.depsRows) == 0 && len(m.conflicts) == 0 {
		return mutedStyle.Render("no new dependencies")
	}
	var b strings.Builder
	for staged, with := range m.conflicts {
		b.WriteString(dangerStyle.Render(fmt.Sprintf("conflict: %s conflicts with installed %s", staged, with)))
		b.WriteString("\n")
	}
	for _, row := range m.depsRows {
		status := okStyle.Render("ok")
		switch {
		case !row.Installed:
			status = warnStyle.Render("missing")
		case !row.Satisfied:
			status = dangerStyle.Render("version conflict")
		}
		line := fmt.Sprintf("%-28s %-12s %s", row.Name, row.Constraint, status)
		if row.InstalledVersion != "" {
			line += mutedStyle.Render("  " + row.InstalledVersion)
		}
		if row.IsSystem {
			line += dangerStyle.Render("  [system]")
		} else if row.IsCore {
			line += repoCoreStyle.Render("  [core]")
		}
		if len(row.RequiredBy) > 0 {
			line += mutedStyle.Render("  for " + strings.Join(row.RequiredBy, ","))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFilesTab() string {
	if len(m.fileRows) == 0 {
		return mutedStyle.Render("analysis unavailable")
	}
	var b strings.Builder
	for _, pf := range m.fileRows {
		header := fmt.Sprintf("%s: %d files (%d new, %d changed, %d removed, %d config)",
			pf.Name, pf.TotalCount, pf.NewCount, pf.ChangedCount, pf.RemovedCount, pf.ConfigCount)
		b.WriteString(paneTitleStyle.Render(header))
		if pf.DBStale {
			b.WriteString(warnStyle.Render("  file database older than a week"))
		}
		if pf.Err != "" {
			b.WriteString(dangerStyle.Render("  " + pf.Err))
		}
		b.WriteString("\n")
		if pf.PacnewCandidate > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  %d likely .pacnew", pf.PacnewCandidate)))
			b.WriteString("\n")
		}
		if pf.PacsaveCandidat > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  %d likely .pacsave", pf.PacsaveCandidat)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderServicesTab() string {
	if len(m.serviceRows) == 0 {
		return mutedStyle.Render("no services affected")
	}
	var b strings.Builder
	for _, s := range m.serviceRows {
		decision := mutedStyle.Render("inactive")
		if s.NeedRestart {
			decision = warnStyle.Render("restart after transaction")
		} else if s.Deferred {
			decision = dangerStyle.Render("will stop on removal")
		} else if s.Active {
			decision = okStyle.Render("active")
		}
		b.WriteString(fmt.Sprintf("%-32s %-18s %s\n", s.Unit, s.Package, decision))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderSandboxTab() string {
	if len(m.sandboxRows) == 0 {
		return mutedStyle.Render("no AUR packages staged")
	}
	var b strings.Builder
	for _, rec := range m.sandboxRows {
		b.WriteString(paneTitleStyle.Render(rec.Name))
		if rec.Origin == "" {
			b.WriteString(warnStyle.Render("  analysis unavailable"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(mutedStyle.Render("  (" + rec.Origin + ")"))
		b.WriteString("\n")
		b.WriteString(sandboxLine("depends", rec.Depends, rec.MissingDeps))
		b.WriteString(sandboxLine("make", rec.MakeDepends, rec.MissingMake))
		b.WriteString(sandboxLine("check", rec.CheckDepends, rec.MissingCheck))
		if len(rec.OptDepends) > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  optional: %s\n", strings.Join(rec.OptDepends, " "))))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderSummaryTab() string {
	sum := m.summaryData
	if sum.PackageCount == 0 {
		return mutedStyle.Render("nothing staged")
	}
	var b strings.Builder

	riskStyle := okStyle
	switch sum.Risk {
	case preflight.RiskMedium:
		riskStyle = warnStyle
	case preflight.RiskHigh:
		riskStyle = dangerStyle
	}
	header := fmt.Sprintf("%d packages", sum.PackageCount)
	if sum.AURCount > 0 {
		header += fmt.Sprintf(" (%d AUR)", sum.AURCount)
	}
	b.WriteString(paneTitleStyle.Render(header))
	b.WriteString("  risk: ")
	b.WriteString(riskStyle.Render(sum.Risk.String()))
	b.WriteString("\n")
	for _, reason := range sum.RiskReasons {
		b.WriteString(warnStyle.Render("  " + reason))
		b.WriteString("\n")
	}
	if sum.DownloadBytes > 0 {
		b.WriteString(fmt.Sprintf("download %s, installed size %s\n",
			formatSize(sum.DownloadBytes), formatDelta(sum.DeltaBytes)))
	} else if sum.DeltaBytes != 0 {
		b.WriteString(fmt.Sprintf("installed size %s\n", formatDelta(sum.DeltaBytes)))
	}
	for _, note := range sum.Notes {
		b.WriteString(mutedStyle.Render(note))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, p := range sum.Packages {
		line := fmt.Sprintf("%-28s %-10s %s", p.Name, p.SourceTag, p.InstalledVersion)
		if p.TargetVersion != "" && p.TargetVersion != p.InstalledVersion {
			line += " -> " + p.TargetVersion
		}
		switch {
		case p.IsDowngrade:
			line += dangerStyle.Render("  [downgrade]")
		case p.IsMajorBump:
			line += warnStyle.Render("  [major]")
		}
		b.WriteString(line)
		b.WriteString("\n")
		for _, note := range p.Notes {
			b.WriteString(mutedStyle.Render("  " + note))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatDelta renders a signed byte delta, "+12.0 MiB" or "-3.4 KiB".
func formatDelta(delta int64) string {
	if delta < 0 {
		return "-" + formatSize(uint64(-delta))
	}
	return "+" + formatSize(uint64(delta))
}

func sandboxLine(label string, all, missing []string) string {
	if len(all) == 0 {
		return ""
	}
	line := fmt.Sprintf("  %s: %d deps", label, len(all))
	if len(missing) > 0 {
		line += warnStyle.Render(fmt.Sprintf(", %d missing: %s", len(missing), strings.Join(missing, " ")))
	}
	return line + "\n"
}
