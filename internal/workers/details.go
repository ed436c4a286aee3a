package workers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
)

const detailsBatchWindow = 120 * time.Millisecond

// Ring is the set of names the details worker is allowed to fetch: the
// current selection plus its prefetch neighbors. The coordinator replaces it
// on every selection change; requests outside the ring are dropped. An empty
// ring allows everything so explicit single fetches always go through.
type Ring struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// Set replaces the allowed names.
func (r *Ring) Set(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	r.mu.Lock()
	r.names = set
	r.mu.Unlock()
}

// Allows reports whether a name may be fetched.
func (r *Ring) Allows(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.names) == 0 {
		return true
	}
	_, ok := r.names[strings.ToLower(name)]
	return ok
}

// DetailsWorker batches detail requests, dedupes them, gates them on the
// allowed ring, and emits one PackageDetails per fetched package.
type DetailsWorker struct {
	Requests chan state.PackageItem
	Results  chan state.PackageDetails
	Ring     *Ring

	Pacman *pacman.Client
	Remote *remote.Client
	Index  *index.Store
	Logger *log.Logger

	batchWindow time.Duration
}

// NewDetailsWorker wires a details worker; the returned worker shares the
// given ring with the coordinator.
func NewDetailsWorker(pm *pacman.Client, rc *remote.Client, idx *index.Store, ring *Ring, logger *log.Logger) *DetailsWorker {
	return &DetailsWorker{
		Requests:    make(chan state.PackageItem, workerChanSize),
		Results:     make(chan state.PackageDetails, workerChanSize),
		Ring:        ring,
		Pacman:      pm,
		Remote:      rc,
		Index:       idx,
		Logger:      logger,
		batchWindow: detailsBatchWindow,
	}
}

// Run serves requests until the context is cancelled or Requests is closed.
func (w *DetailsWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case first, ok := <-w.Requests:
			if !ok {
				return
			}
			batch := w.collect(ctx, first)
			for _, item := range batch {
				if !w.Ring.Allows(item.Name) {
					continue
				}
				w.fetchOne(ctx, item)
			}
		}
	}
}

// collect gathers requests for one batch window, deduplicating by name while
// preserving first-arrival order.
func (w *DetailsWorker) collect(ctx context.Context, first state.PackageItem) []state.PackageItem {
	batch := []state.PackageItem{first}
	seen := map[string]struct{}{strings.ToLower(first.Name): {}}
	timer := time.NewTimer(w.batchWindow)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return batch
		case item, ok := <-w.Requests:
			if !ok {
				return batch
			}
			key := strings.ToLower(item.Name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			batch = append(batch, item)
		case <-timer.C:
			return batch
		}
	}
}

func (w *DetailsWorker) fetchOne(ctx context.Context, item state.PackageItem) {
	var (
		details state.PackageDetails
		err     error
	)
	if item.Source.IsAUR() {
		details, err = sources.AURDetails(ctx, w.Remote, item)
	} else {
		details, err = sources.OfficialDetails(ctx, w.Remote, w.Pacman, item)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Debug("details fetch failed", "pkg", item.Name, "err", err)
		}
		return
	}

	// Backfill holes from the official index.
	if p, ok := w.Index.Lookup(details.Name); ok {
		if details.Description == "" {
			details.Description = p.Description
		}
		if details.Architecture == "" {
			details.Architecture = p.Arch
		}
		if details.Repository == "" {
			details.Repository = p.Repo
		}
	}

	select {
	case <-ctx.Done():
	case w.Results <- details:
	}
}
