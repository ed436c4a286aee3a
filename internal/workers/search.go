// Package workers hosts the background goroutines behind the coordinator:
// debounced search, batched detail fetching, PKGBUILD retrieval, and the
// four preflight resolvers. Each worker owns an inbound channel and emits
// results on an outbound one; shutdown happens through context cancellation
// or closing the inbound channel.
package workers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
)

const (
	searchDebounce    = 250 * time.Millisecond
	searchMinInterval = 300 * time.Millisecond
	workerChanSize    = 64
)

// SearchWorker coalesces query bursts, searches the official index, fetches
// AUR matches, and emits ranked results tagged with the originating query id.
type SearchWorker struct {
	Queries chan state.QueryInput
	Results chan state.SearchResults
	Errors  chan string

	Index   *index.Store
	Fetcher *index.Fetcher
	Remote  *remote.Client
	Logger  *log.Logger

	debounce    time.Duration
	minInterval time.Duration
	lastRemote  time.Time
}

// NewSearchWorker wires a search worker around the shared index and remote
// client. Callers run it with Run.
func NewSearchWorker(idx *index.Store, fetcher *index.Fetcher, rc *remote.Client, logger *log.Logger) *SearchWorker {
	return &SearchWorker{
		Queries:     make(chan state.QueryInput, workerChanSize),
		Results:     make(chan state.SearchResults, workerChanSize),
		Errors:      make(chan string, workerChanSize),
		Index:       idx,
		Fetcher:     fetcher,
		Remote:      rc,
		Logger:      logger,
		debounce:    searchDebounce,
		minInterval: searchMinInterval,
	}
}

// Run serves queries until the context is cancelled or Queries is closed.
func (w *SearchWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-w.Queries:
			if !ok {
				return
			}
			q = w.coalesce(ctx, q)
			w.serve(ctx, q)
		}
	}
}

// coalesce waits out the debounce window, replacing the pending query with
// any newer one that arrives. Only the last query of a burst survives.
func (w *SearchWorker) coalesce(ctx context.Context, q state.QueryInput) state.QueryInput {
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return q
		case newer, ok := <-w.Queries:
			if !ok {
				return q
			}
			q = newer
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			return q
		}
	}
}

func (w *SearchWorker) serve(ctx context.Context, q state.QueryInput) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		w.emit(ctx, state.SearchResults{ID: q.ID, Items: Rank(w.Index.All(), "")})
		return
	}

	if w.Index.Len() == 0 {
		if _, err := w.Index.Refresh(ctx, w.Fetcher); err != nil && w.Index.Len() == 0 {
			w.reportError("package index unavailable: " + err.Error())
		}
	}

	var officials []state.PackageItem
	if q.Fuzzy {
		officials, _ = w.Index.SearchFuzzy(text)
	} else {
		officials = w.Index.Search(text)
	}

	w.throttle(ctx)
	aur, errs := sources.SearchAUR(ctx, w.Remote, text)
	for _, e := range errs {
		w.reportError(e)
	}

	items := append(officials, aur...)
	if q.Fuzzy {
		items = dedupeByName(items)
	} else {
		items = Rank(items, strings.ToLower(text))
	}
	w.emit(ctx, state.SearchResults{ID: q.ID, Items: items})
}

// throttle enforces the minimum interval between remote searches.
func (w *SearchWorker) throttle(ctx context.Context) {
	wait := w.minInterval - time.Since(w.lastRemote)
	if wait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	w.lastRemote = time.Now()
}

func (w *SearchWorker) emit(ctx context.Context, res state.SearchResults) {
	select {
	case <-ctx.Done():
	case w.Results <- res:
	}
}

func (w *SearchWorker) reportError(msg string) {
	select {
	case w.Errors <- msg:
	default:
		if w.Logger != nil {
			w.Logger.Warn("search error dropped", "err", msg)
		}
	}
}

// Rank orders mixed official and AUR results by (repo order, match rank,
// lowercase name) and drops later duplicates of the same lowercase name, so
// an official package always beats its AUR shadow.
func Rank(items []state.PackageItem, loweredQuery string) []state.PackageItem {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := state.RepoOrder(items[i].Source), state.RepoOrder(items[j].Source)
		if ri != rj {
			return ri < rj
		}
		mi := state.MatchRank(items[i].Name, loweredQuery)
		mj := state.MatchRank(items[j].Name, loweredQuery)
		if mi != mj {
			return mi < mj
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return dedupeByName(items)
}

func dedupeByName(items []state.PackageItem) []state.PackageItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
