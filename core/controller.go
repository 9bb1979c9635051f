// Package core orchestrates dashboard actions: fetching datasets from the
// backend, validating them, rendering them through the chart registry and
// persisting what was rendered.
package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/climdash/core/registry"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// Action names passed to phase hooks.
const (
	BootstrapAction   = "bootstrap"
	ImportAction      = "import"
	ProcessAction     = "process"
	ScenarioAction    = "scenario"
	SensitivityAction = "sensitivity"
	AnalyticsAction   = "analytics"
	ExportAction      = "export"
	ReportAction      = "report"
	QueryAction       = "query"
	SummaryAction     = "summary"
	CompareAction     = "compare"
	SessionAction     = "session"
	RestoreAction     = "restore"
)

// ErrEmptyQuery rejects blank free-text queries before they reach the backend.
var ErrEmptyQuery = errors.New("query is empty")

// PhaseHook observes every phase transition of an action. err is set when
// entering FailedPhase.
type PhaseHook func(action string, phase schema.Phase, err error)

// Controller runs dashboard actions against one registry.
// Actions may run concurrently; results of one chart kind commit in the order
// their requests were issued.
type Controller struct {
	backend  contract.Backend
	registry *registry.Registry
	reporter contract.ErrorReporter
	stores   contract.StoreManager
	saver    contract.FileSaver
	hook     PhaseHook
	now      func() time.Time

	mu        sync.Mutex
	sessionID string
	persist   sync.WaitGroup

	// Snapshot writes run in the background; only the newest one lands.
	persistMu   sync.Mutex
	persistGen  atomic.Uint64
	persistDone uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithReporter routes fetch and validation failures to reporter.
func WithReporter(reporter contract.ErrorReporter) Option {
	return func(c *Controller) { c.reporter = reporter }
}

// WithStores persists snapshots and the query log through mgr.
func WithStores(mgr contract.StoreManager) Option {
	return func(c *Controller) { c.stores = mgr }
}

// WithSaver hands exported files to saver.
func WithSaver(saver contract.FileSaver) Option {
	return func(c *Controller) { c.saver = saver }
}

// WithPhaseHook observes action phases.
func WithPhaseHook(hook PhaseHook) Option {
	return func(c *Controller) { c.hook = hook }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller rendering into reg.
func NewController(backend contract.Backend, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{backend: backend, registry: reg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the controller renders into.
func (c *Controller) Registry() *registry.Registry { return c.registry }

// SessionID returns the id of the last remotely saved session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Wait blocks until background persistence has finished.
func (c *Controller) Wait() { c.persist.Wait() }

// Snapshot reads every rendered chart back into one bundle.
func (c *Controller) Snapshot() (*schema.DatasetBundle, error) {
	return c.registry.ReadBackBundle()
}

// run drives the phase machine of one action. Every action ends in IdlePhase.
func (c *Controller) run(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	c.phase(action, schema.LoadingPhase, nil)
	err := fn(ctx)
	if err != nil && !errors.Is(err, schema.ErrStaleResponse) {
		c.phase(action, schema.FailedPhase, err)
	}
	c.phase(action, schema.IdlePhase, nil)
	return err
}

func (c *Controller) phase(action string, phase schema.Phase, err error) {
	if c.hook != nil {
		c.hook(action, phase, err)
	}
}

// fail reports err unless the caller gave up or the result went stale.
func (c *Controller) fail(err error) error {
	if err == nil || errors.Is(err, schema.ErrStaleResponse) || errors.Is(err, context.Canceled) {
		return err
	}
	c.reportKind(err.Error(), schema.KindOf(err))
	return err
}

func (c *Controller) reportKind(message string, kind schema.ErrorKind) {
	if c.reporter != nil {
		c.reporter.Report(message, kind)
	}
}

// queryLog returns the configured query log store, if any.
func (c *Controller) queryLog() contract.QueryLogStore {
	if c.stores == nil {
		return nil
	}
	return c.stores.GetQueryLogStore()
}

// workspace returns the configured workspace store, if any.
func (c *Controller) workspace() contract.WorkspaceStore {
	if c.stores == nil {
		return nil
	}
	return c.stores.GetWorkspaceStore()
}
