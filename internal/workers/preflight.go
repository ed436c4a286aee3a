package workers

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/paths"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/state"
)

// PreflightRequest is one resolution round over the staged list.
type PreflightRequest struct {
	Items  []state.PackageItem
	Action state.Action
}

// PreflightResult pairs a resolver payload with the signature of the staged
// list it was computed for. The coordinator ignores results whose signature
// no longer matches the current list.
type PreflightResult[T any] struct {
	Signature []string
	Payload   T
}

// DepsPayload bundles the dependency delta with its conflict annotations.
type DepsPayload struct {
	Rows      []preflight.DependencyInfo `json:"rows"`
	Conflicts map[string]string          `json:"conflicts,omitempty"`
}

// PreflightWorkers runs the resolvers, one goroutine each. Every
// request produces exactly one result, panics included, so the coordinator's
// "resolving" flags always clear. Successful payloads are persisted under
// the request's signature for adoption on the next startup.
type PreflightWorkers struct {
	Deps     chan PreflightRequest
	Files    chan PreflightRequest
	Services chan PreflightRequest
	Sandbox  chan PreflightRequest
	Summary  chan PreflightRequest

	DepsOut     chan PreflightResult[DepsPayload]
	FilesOut    chan PreflightResult[[]preflight.PackageFiles]
	ServicesOut chan PreflightResult[[]preflight.ServiceImpact]
	SandboxOut  chan PreflightResult[[]preflight.SandboxRecord]
	SummaryOut  chan PreflightResult[preflight.SummaryData]

	Resolver *preflight.Resolver
	Paths    *paths.Paths
	Logger   *log.Logger
}

func NewPreflightWorkers(r *preflight.Resolver, p *paths.Paths, logger *log.Logger) *PreflightWorkers {
	return &PreflightWorkers{
		Deps:        make(chan PreflightRequest, workerChanSize),
		Files:       make(chan PreflightRequest, workerChanSize),
		Services:    make(chan PreflightRequest, workerChanSize),
		Sandbox:     make(chan PreflightRequest, workerChanSize),
		Summary:     make(chan PreflightRequest, workerChanSize),
		DepsOut:     make(chan PreflightResult[DepsPayload], workerChanSize),
		FilesOut:    make(chan PreflightResult[[]preflight.PackageFiles], workerChanSize),
		ServicesOut: make(chan PreflightResult[[]preflight.ServiceImpact], workerChanSize),
		SandboxOut:  make(chan PreflightResult[[]preflight.SandboxRecord], workerChanSize),
		SummaryOut:  make(chan PreflightResult[preflight.SummaryData], workerChanSize),
		Resolver:    r,
		Paths:       p,
		Logger:      logger,
	}
}

// Start launches one goroutine per resolver.
func (p *PreflightWorkers) Start(ctx context.Context) {
	go runResolver(ctx, p.Logger, p.cachePath(func(pp *paths.Paths) string { return pp.DepsCache }),
		p.Deps, p.DepsOut, func(ctx context.Context, req PreflightRequest) DepsPayload {
			return DepsPayload{
				Rows:      p.Resolver.Dependencies(ctx, req.Items),
				Conflicts: p.Resolver.Conflicts(ctx, req.Items),
			}
		})
	go runResolver(ctx, p.Logger, p.cachePath(func(pp *paths.Paths) string { return pp.FilesCache }),
		p.Files, p.FilesOut, func(ctx context.Context, req PreflightRequest) []preflight.PackageFiles {
			return p.Resolver.FileChanges(ctx, req.Items, req.Action)
		})
	go runResolver(ctx, p.Logger, p.cachePath(func(pp *paths.Paths) string { return pp.ServicesCache }),
		p.Services, p.ServicesOut, func(ctx context.Context, req PreflightRequest) []preflight.ServiceImpact {
			impacts, err := p.Resolver.Services(ctx, req.Items, req.Action)
			if err != nil && p.Logger != nil {
				p.Logger.Warn("service resolution failed", "err", err)
			}
			return impacts
		})
	go runResolver(ctx, p.Logger, p.cachePath(func(pp *paths.Paths) string { return pp.SandboxCache }),
		p.Sandbox, p.SandboxOut, func(ctx context.Context, req PreflightRequest) []preflight.SandboxRecord {
			return p.Resolver.Sandbox(ctx, req.Items)
		})
	go runResolver(ctx, p.Logger, p.cachePath(func(pp *paths.Paths) string { return pp.SummaryCache }),
		p.Summary, p.SummaryOut, func(ctx context.Context, req PreflightRequest) preflight.SummaryData {
			return p.Resolver.Summary(ctx, req.Items, req.Action)
		})
}

func (p *PreflightWorkers) cachePath(pick func(*paths.Paths) string) string {
	if p.Paths == nil {
		return ""
	}
	return pick(p.Paths)
}

func runResolver[T any](ctx context.Context, logger *log.Logger, cachePath string,
	in <-chan PreflightRequest, out chan<- PreflightResult[T],
	resolve func(context.Context, PreflightRequest) T) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-in:
			if !ok {
				return
			}
			res := resolveGuarded(ctx, logger, cachePath, req, resolve)
			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
		}
	}
}

// resolveGuarded turns a resolver panic into an empty payload instead of a
// missing result.
func resolveGuarded[T any](ctx context.Context, logger *log.Logger, cachePath string,
	req PreflightRequest, resolve func(context.Context, PreflightRequest) T) (res PreflightResult[T]) {
	res.Signature = preflight.Signature(req.Items)
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("preflight resolver panicked", "panic", r)
			}
			var zero T
			res.Payload = zero
		}
	}()
	res.Payload = resolve(ctx, req)
	if cachePath != "" {
		if err := preflight.SaveCache(cachePath, res.Signature, res.Payload); err != nil && logger != nil {
			logger.Warn("preflight cache write failed", "path", cachePath, "err", err)
		}
	}
	return res
}
