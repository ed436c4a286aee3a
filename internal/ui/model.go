// Package ui hosts the coordinator: a Bubble Tea model that owns every
// list, cache, and modal, applies worker results, and drives the workers
// through their channels. All mutation happens inside Update.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/config"
	pexec "github.com/kajell/pacterm/internal/exec"
	"github.com/kajell/pacterm/internal/index"
	"github.com/kajell/pacterm/internal/pacman"
	"github.com/kajell/pacterm/internal/paths"
	"github.com/kajell/pacterm/internal/preflight"
	"github.com/kajell/pacterm/internal/sources"
	"github.com/kajell/pacterm/internal/state"
	"github.com/kajell/pacterm/internal/workers"
)

const (
	tickEvery        = 200 * time.Millisecond
	prefetchRadius   = 30
	executorLogCap   = 1000
	toastDuration    = 3 * time.Second
	sortMenuIdle     = 4 * time.Second
	thrashMoveCount  = 8
	thrashWindow     = 300 * time.Millisecond
	prefetchQuiesce  = 400 * time.Millisecond
	enrichBatchLimit = 40
)

// focusTarget selects which pane receives navigation keys.
type focusTarget int

const (
	focusSearch focusTarget = iota
	focusResults
	focusStaged
	focusRecent
)

// preflightTab identifies one preflight view.
type preflightTab int

const (
	tabDeps preflightTab = iota
	tabFiles
	tabServices
	tabSandbox
	tabSummary

	preflightTabCount = 5
)

// Messages delivered by listen commands.
type (
	searchResultsMsg state.SearchResults
	searchErrMsg     string
	detailsMsg       state.PackageDetails
	pkgbuildMsg      workers.PKGBUILDResult
	depsMsg          workers.PreflightResult[workers.DepsPayload]
	filesMsg         workers.PreflightResult[[]preflight.PackageFiles]
	servicesMsg      workers.PreflightResult[[]preflight.ServiceImpact]
	sandboxMsg       workers.PreflightResult[[]preflight.SandboxRecord]
	summaryMsg       workers.PreflightResult[preflight.SummaryData]
	execOutputMsg    pexec.Output
	tickMsg          time.Time
	indexReadyMsg    struct{}
	indexRefreshMsg  index.RefreshNote
	mirrorsMsg       sources.MirrorStatus
	newsMsg          struct {
		items []sources.NewsItem
		err   error
	}
	commentsMsg struct {
		name string
		rows []sources.AURComment
		err  string
	}
)

// preflightPane holds one resolver's latest payload and resolving flag.
type preflightPane struct {
	signature []string
	resolving bool
}

// Model is the coordinator state. It owns the staged lists, details cache,
// recent queries, modal state, and geometry; workers own only their channels.
type Model struct {
	cfg    config.Config
	paths  paths.Paths
	logger *log.Logger

	ctx     context.Context
	index   *index.Store
	pacman  *pacman.Client
	search  *workers.SearchWorker
	details *workers.DetailsWorker
	pkgb    *workers.PKGBUILDWorker
	pf      *workers.PreflightWorkers
	ring    *workers.Ring
	idxNote <-chan index.RefreshNote

	width  int
	height int
	focus  focusTarget

	input         textinput.Model
	latestQueryID uint64
	results       []state.PackageItem
	selected      int
	sortMode      state.SortMode
	sortMenuOpen  bool
	sortMenuAt    time.Time
	installedOnly bool

	recent      []string
	recentDirty bool
	recentSel   int

	staged      state.StagedLists
	stagedSel   int
	stagedDirty bool
	action      state.Action

	detailsCache state.DetailsCache
	detailsDirty bool
	current      state.PackageDetails
	hasDetails   bool

	// Prefetch thrash guard: rapid selection moves defer ring prefetch
	// until the quiescence deadline passes.
	moveTimes   []time.Time
	needRingPre bool
	quiesceAt   time.Time

	preflightOpen bool
	activeTab     preflightTab
	panes         [preflightTabCount]preflightPane
	depsRows      []preflight.DependencyInfo
	conflicts     map[string]string
	fileRows      []preflight.PackageFiles
	serviceRows   []preflight.ServiceImpact
	sandboxRows   []preflight.SandboxRecord
	summaryData   preflight.SummaryData

	toast      string
	toastUntil time.Time
	alert      string

	pkgbuildOpen bool
	pkgbuildFor  string
	pkgbuildText string

	commentsOpen bool
	commentsFor  string
	commentsBusy bool
	commentsRows []sources.AURComment
	commentsErr  string

	helpOpen bool

	newsOpen      bool
	newsItems     []sources.NewsItem
	newsRead      map[string]struct{}
	newsReadDirty bool
	newsSel       int

	mirrors    sources.MirrorStatus
	hasMirrors bool

	execLog     []string
	execRunning bool
	executor    *pexec.Executor
	dryRun      bool

	quitting bool
}

// Options wires the coordinator to its collaborators.
type Options struct {
	Config  config.Config
	Paths   paths.Paths
	Logger  *log.Logger
	Context context.Context

	Index    *index.Store
	Pacman   *pacman.Client
	Search   *workers.SearchWorker
	Details  *workers.DetailsWorker
	PKGBUILD *workers.PKGBUILDWorker
	Prefl    *workers.PreflightWorkers
	Ring     *workers.Ring

	// IndexRefreshed reports each background index pass: a success re-runs
	// the current query, a failure with an empty index raises the alert.
	IndexRefreshed <-chan index.RefreshNote

	InitialQuery string
	DryRun       bool
}

// NewModel builds the coordinator, loading every persisted list and cache.
func NewModel(opts Options) Model {
	in := textinput.New()
	in.Placeholder = "search packages"
	in.Prompt = "/ "
	in.Focus()
	if opts.InitialQuery != "" {
		in.SetValue(opts.InitialQuery)
	}

	m := Model{
		cfg:           opts.Config,
		paths:         opts.Paths,
		logger:        opts.Logger,
		ctx:           opts.Context,
		index:         opts.Index,
		pacman:        opts.Pacman,
		search:        opts.Search,
		details:       opts.Details,
		pkgb:          opts.PKGBUILD,
		pf:            opts.Prefl,
		ring:          opts.Ring,
		idxNote:       opts.IndexRefreshed,
		input:         in,
		sortMode:      opts.Config.Sort(),
		installedOnly: opts.Config.InstalledOnly,
		recent:        state.LoadRecent(opts.Paths.Recent),
		detailsCache:  state.LoadDetailsCache(opts.Paths.DetailsCache),
		newsRead:      state.LoadReadSet(opts.Paths.NewsRead),
		conflicts:     map[string]string{},
		dryRun:        opts.DryRun || opts.Config.DryRun,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}

	m.staged.Install = state.LoadList(opts.Paths.InstallList)
	m.staged.Remove = state.LoadList(opts.Paths.RemoveList)
	m.staged.Downgrade = state.LoadList(opts.Paths.DowngradeLst)
	m.adoptPreflightCaches()
	m.enqueueSearch()
	return m
}

// enqueueSearch assigns the next monotonic query id and hands the current
// input to the search worker. Never blocks; a full queue drops the send and
// the next keystroke retries.
func (m *Model) enqueueSearch() {
	m.latestQueryID++
	q := state.QueryInput{ID: m.latestQueryID, Text: m.input.Value(), Fuzzy: m.cfg.FuzzySearch}
	select {
	case m.search.Queries <- q:
	default:
	}
}

// adoptPreflightCaches loads each persisted resolver cache and keeps the
// payload only when its signature still matches the staged list under
// analysis.
func (m *Model) adoptPreflightCaches() {
	items, _ := m.preflightTarget()
	sig := preflight.Signature(items)
	if payload, ok := preflight.LoadCache[workers.DepsPayload](m.paths.DepsCache, sig); ok {
		m.depsRows = payload.Rows
		m.conflicts = payload.Conflicts
		m.panes[tabDeps].signature = sig
	}
	if payload, ok := preflight.LoadCache[[]preflight.PackageFiles](m.paths.FilesCache, sig); ok {
		m.fileRows = payload
		m.panes[tabFiles].signature = sig
	}
	if payload, ok := preflight.LoadCache[[]preflight.ServiceImpact](m.paths.ServicesCache, sig); ok {
		m.serviceRows = payload
		m.panes[tabServices].signature = sig
	}
	if payload, ok := preflight.LoadCache[[]preflight.SandboxRecord](m.paths.SandboxCache, sig); ok {
		m.sandboxRows = payload
		m.panes[tabSandbox].signature = sig
	}
	if payload, ok := preflight.LoadCache[preflight.SummaryData](m.paths.SummaryCache, sig); ok {
		m.summaryData = payload
		m.panes[tabSummary].signature = sig
	}
}

// Init starts the listen loops, the tick, and the first search.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.tickCmd(),
		m.listenSearch(),
		m.listenSearchErrors(),
		m.listenDetails(),
		m.listenPKGBUILD(),
		m.listenDeps(),
		m.listenFiles(),
		m.listenServices(),
		m.listenSandbox(),
		m.listenSummary(),
		m.listenIndexRefreshed(),
		m.fetchNewsCmd(),
		m.fetchMirrorsCmd(),
	}
	return tea.Batch(cmds...)
}
