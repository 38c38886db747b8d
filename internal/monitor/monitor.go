package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subtech/mina-dashboard/internal/metrics"
	"github.com/subtech/mina-dashboard/internal/session"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// DefaultInterval is the silent polling period.
const DefaultInterval = 30 * time.Second

var (
	ErrNoSession         = errors.New("no valid session")
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// State of the refresh state machine.
type State int32

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// Source produces a complete tag collection. tags.Walker implements it.
type Source interface {
	FetchAll(ctx context.Context) ([]tags.Tag, error)
}

// Visibility gates silent ticks; a tick while nobody is looking is a no-op.
type Visibility interface {
	Visible() bool
}

type VisibilityFunc func() bool

func (f VisibilityFunc) Visible() bool { return f() }

// AlwaysVisible treats the process itself as the viewer.
var AlwaysVisible Visibility = VisibilityFunc(func() bool { return true })

// Snapshot is the tag collection currently displayed.
type Snapshot struct {
	Tags      []tags.Tag
	Version   uint64
	UpdatedAt time.Time
}

// Listener is told about every snapshot replacement.
type Listener func(Snapshot)

// RefreshOptions selects silent (background) or foreground reporting.
type RefreshOptions struct {
	Silent bool
}

type Config struct {
	Interval time.Duration
}

// Monitor owns the tag snapshot and the polling loop that refreshes it.
type Monitor struct {
	source     Source
	sessions   session.Store
	visibility Visibility
	redirect   func(to string)
	cfg        Config

	state atomic.Int32

	mu       sync.RWMutex
	snapshot Snapshot
	loading  bool
	errMsg   string

	listenersMu sync.Mutex
	listeners   []Listener

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(src Source, sessions session.Store, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Monitor{
		source:     src,
		sessions:   sessions,
		visibility: AlwaysVisible,
		redirect:   func(string) {},
		cfg:        cfg,
		snapshot:   Snapshot{Tags: []tags.Tag{}},
		loading:    true,
	}
}

// SetVisibility replaces the visibility gate. Call before Mount.
func (m *Monitor) SetVisibility(v Visibility) {
	m.visibility = v
}

// SetRedirect installs the collaborator used when Mount finds no session.
// Call before Mount.
func (m *Monitor) SetRedirect(fn func(to string)) {
	m.redirect = fn
}

// OnChange registers a listener. Listeners run synchronously, in
// registration order, after the snapshot has been replaced.
func (m *Monitor) OnChange(l Listener) {
	m.listenersMu.Lock()
	m.listeners = append(m.listeners, l)
	m.listenersMu.Unlock()
}

// Mount starts the monitor: the view is reset, then a foreground refresh
// runs right away and a silent refresh on every tick. Without a valid session it hands control to the
// redirect collaborator and starts nothing.
func (m *Monitor) Mount(ctx context.Context) error {
	if !session.HasValidToken(ctx, m.sessions) {
		m.redirect("/")
		return ErrNoSession
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	// A new session starts from an empty view. Version keeps counting so
	// viewers never see it go backwards.
	m.mu.Lock()
	m.snapshot = Snapshot{Tags: []tags.Tag{}, Version: m.snapshot.Version}
	m.errMsg = ""
	m.loading = true
	m.mu.Unlock()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := m.Refresh(runCtx, RefreshOptions{Silent: false}); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] Tag Monitor: initial refresh failed: %v", err)
		}
	}()
	go m.runLoop(runCtx)

	log.Printf("[INFO] Tag Monitor: mounted, polling every %s", m.cfg.Interval)
	return nil
}

// Unmount stops the timer and cancels any walk in flight. Its result, if
// any, is discarded.
func (m *Monitor) Unmount() {
	m.runMu.Lock()
	if !m.running {
		m.runMu.Unlock()
		return
	}
	m.cancel()
	m.running = false
	m.runMu.Unlock()

	m.wg.Wait()
	log.Printf("[INFO] Tag Monitor: unmounted")
}

// Mounted reports whether the polling loop is running.
func (m *Monitor) Mounted() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

func (m *Monitor) runLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick runs on its own goroutine so a tick that lands
			// during a walk hits the guard and is dropped, not queued.
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.Tick(ctx)
			}()
		}
	}
}

// Tick is one timer firing: a silent refresh unless the view is hidden or
// the session is gone.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.visibility.Visible() || !session.HasValidToken(ctx, m.sessions) {
		metrics.TagRefreshTotal.WithLabelValues(metrics.ModeSilent, metrics.ResultSkipped).Inc()
		return
	}
	_ = m.Refresh(ctx, RefreshOptions{Silent: true})
}

// Refresh walks every page and replaces the snapshot when it changed. At
// most one refresh runs at a time; a call made while another is in flight
// returns ErrRefreshInProgress and does nothing.
//
// A silent refresh never touches the loading flag or the error message,
// and its failures are logged and swallowed (nil is returned). A
// foreground refresh records its failure and returns it.
func (m *Monitor) Refresh(ctx context.Context, opts RefreshOptions) error {
	mode := metrics.ModeForeground
	if opts.Silent {
		mode = metrics.ModeSilent
	}

	if !m.state.CompareAndSwap(int32(Idle), int32(Refreshing)) {
		metrics.TagRefreshTotal.WithLabelValues(mode, metrics.ResultDropped).Inc()
		return ErrRefreshInProgress
	}
	defer m.state.Store(int32(Idle))

	if !opts.Silent {
		m.mu.Lock()
		m.loading = true
		m.mu.Unlock()
	}

	start := time.Now()
	next, err := m.source.FetchAll(ctx)
	metrics.TagRefreshDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		// Unmounted mid-walk: nobody consumes this result.
		if !opts.Silent {
			m.mu.Lock()
			m.loading = false
			m.mu.Unlock()
		}
		return ctx.Err()
	}
	if err != nil {
		metrics.TagRefreshTotal.WithLabelValues(mode, metrics.ResultError).Inc()
		if opts.Silent {
			log.Printf("[WARN] Tag Monitor: silent refresh failed: %v", err)
			return nil
		}
		m.mu.Lock()
		m.errMsg = err.Error()
		m.loading = false
		m.mu.Unlock()
		return err
	}
	metrics.TagRefreshTotal.WithLabelValues(mode, metrics.ResultOK).Inc()

	m.apply(next, opts)
	return nil
}

func (m *Monitor) apply(next []tags.Tag, opts RefreshOptions) {
	m.mu.Lock()
	changed := tags.HasMeaningfulChanges(m.snapshot.Tags, next)
	if changed {
		m.snapshot = Snapshot{
			Tags:      next,
			Version:   m.snapshot.Version + 1,
			UpdatedAt: time.Now(),
		}
	}
	if !opts.Silent {
		m.errMsg = ""
		m.loading = false
	}
	snap := m.snapshot
	m.mu.Unlock()

	if !changed {
		return
	}

	m.listenersMu.Lock()
	ls := append([]Listener(nil), m.listeners...)
	m.listenersMu.Unlock()
	for _, l := range ls {
		l(snap)
	}
}

// Snapshot returns the current snapshot. Callers must not modify Tags.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// State returns Idle or Refreshing.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Loading reports the foreground loading flag.
func (m *Monitor) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Err returns the last foreground error message, "" when none.
func (m *Monitor) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}
