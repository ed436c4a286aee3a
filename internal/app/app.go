package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/config"
	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/paths"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/ui"
	"github.com/kajell/pacterm/internal/workers"
)

const userAgent = "pacterm/1.0"

// Options configure the pacterm application.
type Options struct {
	ConfigPath string // empty uses ~/.config/pacterm/pacterm.toml
	DataDir    string // empty uses XDG cache/state dirs
	Query      string // initial search text
	DryRun     bool   // print commands instead of running them
}

// Run boots the pacterm TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg := config.Load(opts.ConfigPath)

	p, err := paths.New(opts.DataDir)
	if err != nil {
		return fmt.Errorf("prepare data dirs: %w", err)
	}

	logger, closeLog := newLogger(p.LogFile)
	defer closeLog()

	rc := remote.New(remote.Options{
		CacheDir:  p.HTTPCacheDir,
		Logger:    logger,
		Timeout:   15 * time.Second,
		UserAgent: userAgent,
	})
	pm := pacman.New(nil)

	idx := index.NewStore()
	fetcher := &index.Fetcher{Pacman: pm, Remote: rc, Logger: logger}
	if idx.LoadFromDisk(p.Index) {
		logger.Debug("index loaded from disk", "packages", idx.Len())
	}
	if names, err := pm.InstalledNames(ctx); err == nil {
		idx.SetInstalled(names)
	}
	if names, err := pm.ExplicitNames(ctx); err == nil {
		idx.SetExplicit(names)
	}
	indexRefreshed := make(chan index.RefreshNote, 1)
	StartRefresher(ctx, idx, fetcher, p.Index, logger, 0, indexRefreshed)

	ring := &workers.Ring{}
	search := workers.NewSearchWorker(idx, fetcher, rc, logger)
	details := workers.NewDetailsWorker(pm, rc, idx, ring, logger)
	pkgbuild := workers.NewPKGBUILDWorker(rc, logger)

	resolver := &preflight.Resolver{Pacman: pm, Remote: rc, Index: idx, Logger: logger}
	prefl := workers.NewPreflightWorkers(resolver, &p, logger)

	go search.Run(ctx)
	go details.Run(ctx)
	go pkgbuild.Run(ctx)
	prefl.Start(ctx)

	dryRun := opts.DryRun || cfg.DryRun

	return ui.Run(ui.Options{
		Config:  cfg,
		Paths:   p,
		Logger:  logger,
		Context: ctx,

		Index:    idx,
		Pacman:   pm,
		Search:   search,
		Details:  details,
		PKGBUILD: pkgbuild,
		Prefl:    prefl,
		Ring:     ring,

		IndexRefreshed: indexRefreshed,

		InitialQuery: opts.Query,
		DryRun:       dryRun,
	})
}

// newLogger writes structured logs to the state-dir log file. The TUI owns
// the terminal, so nothing may log to stdout or stderr while it runs.
func newLogger(path string) (*log.Logger, func()) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})
	return logger, func() { _ = f.Close() }
}
