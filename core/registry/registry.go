// Package registry owns the live chart handles and keeps them consistent with
// the latest completed update of each chart kind.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/climdash/core/adapter"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// Default retry policy for render targets that are not mounted yet.
const (
	DefaultAttempts = contract.DefaultRetryAttempts
	DefaultDelay    = contract.DefaultRetryDelay
)

// Handle is one live chart instance bound to a render target.
// A handle is replaced, never copied, when the chart structure changes.
type Handle struct {
	id     uint64
	kind   schema.ChartKind
	target contract.RenderTarget
	state  schema.RenderState
}

// ID identifies the handle. It stays the same across in-place updates.
func (h *Handle) ID() uint64 { return h.id }

// Kind returns the chart kind of the handle.
func (h *Handle) Kind() schema.ChartKind { return h.kind }

// TargetName returns the name of the render target the handle draws on.
func (h *Handle) TargetName() string { return h.target.Name() }

// Token sequences requests of one chart kind.
type Token struct {
	Kind schema.ChartKind
	Seq  uint64
}

// Tokens holds one token per chart kind.
type Tokens map[schema.ChartKind]Token

type slot struct {
	mu        sync.Mutex
	handle    *Handle
	issued    atomic.Uint64
	committed uint64
}

// Registry holds the five chart slots.
type Registry struct {
	resolver contract.TargetResolver
	reporter contract.ErrorReporter
	attempts int
	delay    time.Duration
	slots    map[schema.ChartKind]*slot
	nextID   atomic.Uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithRetry sets how many times a missing render target is looked up and the
// pause between lookups.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(r *Registry) {
		if attempts > 0 {
			r.attempts = attempts
		}
		if delay >= 0 {
			r.delay = delay
		}
	}
}

// WithReporter routes render failures to an error reporter.
func WithReporter(reporter contract.ErrorReporter) Option {
	return func(r *Registry) { r.reporter = reporter }
}

// New creates a registry resolving render targets through resolver.
func New(resolver contract.TargetResolver, opts ...Option) *Registry {
	r := &Registry{
		resolver: resolver,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		slots:    make(map[schema.ChartKind]*slot, len(schema.AllChartKinds)),
	}
	for _, kind := range schema.AllChartKinds {
		r.slots[kind] = &slot{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetName returns the render target name of a chart kind.
func TargetName(kind schema.ChartKind) string {
	return string(kind) + "Chart"
}

// Begin issues the next token for kind. Call it before the request whose
// result will be committed.
func (r *Registry) Begin(kind schema.ChartKind) Token {
	s, ok := r.slots[kind]
	if !ok {
		return Token{Kind: kind}
	}
	return Token{Kind: kind, Seq: s.issued.Add(1)}
}

// BeginAll issues one token per chart kind.
func (r *Registry) BeginAll() Tokens {
	toks := make(Tokens, len(schema.AllChartKinds))
	for _, kind := range schema.AllChartKinds {
		toks[kind] = r.Begin(kind)
	}
	return toks
}

// CreateOrUpdate draws domain data for kind as the newest request of that kind.
func (r *Registry) CreateOrUpdate(ctx context.Context, kind schema.ChartKind, domain any) (*Handle, error) {
	return r.Commit(ctx, r.Begin(kind), domain)
}

// Commit draws domain data for the request identified by tok.
//
// The result is discarded with ErrStaleResponse when a request issued after
// tok has already committed. A chart with the same shape is redrawn in place
// and keeps its handle, a chart with a different shape is cleared and replaced.
// Failures other than stale responses are reported.
func (r *Registry) Commit(ctx context.Context, tok Token, domain any) (*Handle, error) {
	h, err := r.commit(ctx, tok, domain)
	if err != nil && !errors.Is(err, schema.ErrStaleResponse) {
		r.report(err)
	}
	return h, err
}

func (r *Registry) commit(ctx context.Context, tok Token, domain any) (*Handle, error) {
	s, ok := r.slots[tok.Kind]
	if !ok || tok.Seq == 0 {
		return nil, fmt.Errorf("unknown chart kind %q", tok.Kind)
	}
	state, err := adapter.ToRenderState(tok.Kind, domain)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.Seq <= s.committed {
		return nil, fmt.Errorf("%s request %d: %w", tok.Kind, tok.Seq, schema.ErrStaleResponse)
	}

	switch {
	case s.handle == nil:
		target, err := r.resolve(ctx, tok.Kind)
		if err != nil {
			return nil, err
		}
		if err := target.Draw(state.Clone()); err != nil {
			return nil, fmt.Errorf("%w: %s chart: %w", schema.ErrRenderFailed, tok.Kind, err)
		}
		s.handle = r.newHandle(tok.Kind, target, state)

	case s.handle.state.Shape() == state.Shape():
		if err := s.handle.target.Draw(state.Clone()); err != nil {
			return nil, fmt.Errorf("%w: %s chart: %w", schema.ErrRenderFailed, tok.Kind, err)
		}
		s.handle.state = state

	default:
		prev := s.handle
		if err := prev.target.Clear(); err != nil {
			return nil, fmt.Errorf("%w: clear %s chart: %w", schema.ErrRenderFailed, tok.Kind, err)
		}
		if err := prev.target.Draw(state.Clone()); err != nil {
			// The previous handle stays live, so put its picture back.
			if rerr := prev.target.Draw(prev.state.Clone()); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restore previous chart: %w", rerr))
			}
			return nil, fmt.Errorf("%w: %s chart: %w", schema.ErrRenderFailed, tok.Kind, err)
		}
		s.handle = r.newHandle(tok.Kind, prev.target, state)
	}

	s.committed = tok.Seq
	return s.handle, nil
}

func (r *Registry) newHandle(kind schema.ChartKind, target contract.RenderTarget, state schema.RenderState) *Handle {
	return &Handle{id: r.nextID.Add(1), kind: kind, target: target, state: state}
}

// resolve looks up the render target of kind, retrying while it is not mounted.
func (r *Registry) resolve(ctx context.Context, kind schema.ChartKind) (contract.RenderTarget, error) {
	name := TargetName(kind)
	if r.resolver == nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrTargetNotFound, name)
	}
	for attempt := 1; ; attempt++ {
		if target, ok := r.resolver.Lookup(name); ok {
			return target, nil
		}
		if attempt >= r.attempts {
			return nil, fmt.Errorf("%w: %s after %d attempts", schema.ErrTargetNotFound, name, attempt)
		}
		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

// Get returns the live handle of kind, or nil when the chart is not rendered.
func (r *Registry) Get(kind schema.ChartKind) *Handle {
	s, ok := r.slots[kind]
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// State returns a copy of the render state of kind.
func (r *Registry) State(kind schema.ChartKind) (schema.RenderState, bool) {
	s, ok := r.slots[kind]
	if !ok {
		return schema.RenderState{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return schema.RenderState{}, false
	}
	return s.handle.state.Clone(), true
}

// ReadBack decodes the domain data currently displayed by the chart of kind.
func (r *Registry) ReadBack(kind schema.ChartKind) (any, error) {
	state, ok := r.State(kind)
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, schema.ErrNoChart)
	}
	return adapter.FromRenderState(state)
}

// ReadBackBundle decodes every rendered chart into one bundle.
// Charts that are not rendered leave their section empty.
func (r *Registry) ReadBackBundle() (*schema.DatasetBundle, error) {
	bundle := &schema.DatasetBundle{}
	var errs []error
	rendered := 0
	for _, kind := range schema.AllChartKinds {
		domain, err := r.ReadBack(kind)
		if errors.Is(err, schema.ErrNoChart) {
			continue
		}
		rendered++
		if err != nil {
			errs = append(errs, fmt.Errorf("read back %s chart: %w", kind, err))
			continue
		}
		bundle.SetSection(kind, domain)
	}
	if rendered == 0 {
		return nil, schema.ErrNoChart
	}
	return bundle, errors.Join(errs...)
}

// RenderBundle commits every section present in bundle in render order.
// A failing chart does not stop the others. Stale sections are skipped
// silently. When toks lacks a kind a fresh token is issued for it.
func (r *Registry) RenderBundle(ctx context.Context, toks Tokens, bundle *schema.DatasetBundle) error {
	var errs []error
	for _, kind := range schema.AllChartKinds {
		if !bundle.Has(kind) {
			continue
		}
		tok, ok := toks[kind]
		if !ok {
			tok = r.Begin(kind)
		}
		if _, err := r.Commit(ctx, tok, bundle.Section(kind)); err != nil && !errors.Is(err, schema.ErrStaleResponse) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reinitialize destroys every handle and clears its render target.
// Requests issued before the call can no longer commit.
func (r *Registry) Reinitialize() error {
	var errs []error
	for _, kind := range schema.AllChartKinds {
		s := r.slots[kind]
		s.mu.Lock()
		if s.handle != nil {
			if err := s.handle.target.Clear(); err != nil {
				errs = append(errs, fmt.Errorf("clear %s chart: %w", kind, err))
			}
			s.handle = nil
		}
		s.committed = s.issued.Load()
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Status describes every slot in render order.
func (r *Registry) Status() []schema.ChartStatus {
	out := make([]schema.ChartStatus, 0, len(schema.AllChartKinds))
	for _, kind := range schema.AllChartKinds {
		s := r.slots[kind]
		s.mu.Lock()
		st := schema.ChartStatus{Kind: kind, Committed: s.committed}
		if h := s.handle; h != nil {
			st.Rendered = true
			st.HandleID = h.id
			st.Type = h.state.Type
			st.Series = len(h.state.Series)
			st.Points = len(h.state.Labels)
		}
		s.mu.Unlock()
		out = append(out, st)
	}
	return out
}

func (r *Registry) report(err error) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(err.Error(), schema.KindOf(err))
}
