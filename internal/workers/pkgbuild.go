package workers

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/remote"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
)

// PKGBUILDResult carries a fetched build recipe or the failure to get one.
type PKGBUILDResult struct {
	Name string
	Text string
	Err  string
}

// PKGBUILDWorker fetches build recipes one request at a time.
type PKGBUILDWorker struct {
	Requests chan state.PackageItem
	Results  chan PKGBUILDResult

	Remote *remote.Client
	Logger *log.Logger
}

func NewPKGBUILDWorker(rc *remote.Client, logger *log.Logger) *PKGBUILDWorker {
	return &PKGBUILDWorker{
		Requests: make(chan state.PackageItem, workerChanSize),
		Results:  make(chan PKGBUILDResult, workerChanSize),
		Remote:   rc,
		Logger:   logger,
	}
}

// Run serves requests until the context is cancelled or Requests is closed.
func (w *PKGBUILDWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-w.Requests:
			if !ok {
				return
			}
			res := PKGBUILDResult{Name: item.Name}
			text, err := sources.FetchPKGBUILD(ctx, w.Remote, item)
			if err != nil {
				res.Err = err.Error()
			} else {
				res.Text = text
			}
			select {
			case <-ctx.Done():
				return
			case w.Results <- res:
			}
		}
	}
}
