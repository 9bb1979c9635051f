package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	name     string
	mu       sync.Mutex
	draws    []schema.RenderState
	clears   int
	drawErr  error
	failNext int // fail only the next n draws with drawErr
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Draw(state schema.RenderState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return f.drawErr
	}
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, state)
	return nil
}

func (f *fakeTarget) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

// fakeResolver mounts each target after a number of failed lookups.
type fakeResolver struct {
	mu      sync.Mutex
	targets map[string]*fakeTarget
	delay   map[string]int
	lookups map[string]int
}

func newFakeResolver() *fakeResolver {
	r := &fakeResolver{
		targets: map[string]*fakeTarget{},
		delay:   map[string]int{},
		lookups: map[string]int{},
	}
	for _, kind := range schema.AllChartKinds {
		name := TargetName(kind)
		r.targets[name] = &fakeTarget{name: name}
	}
	return r
}

func (r *fakeResolver) Lookup(name string) (contract.RenderTarget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups[name]++
	t, ok := r.targets[name]
	if !ok || r.lookups[name] <= r.delay[name] {
		return nil, false
	}
	return t, true
}

func (r *fakeResolver) target(kind schema.ChartKind) *fakeTarget {
	return r.targets[TargetName(kind)]
}

type recordingReporter struct {
	mu    sync.Mutex
	kinds []schema.ErrorKind
}

func (r *recordingReporter) Report(_ string, kind schema.ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func scenarios(names ...string) *schema.ScenarioSet {
	set := schema.NewOrdered[[]schema.TemperaturePoint]()
	for i, name := range names {
		set.Set(name, []schema.TemperaturePoint{
			{Year: 2030, Temperature: 15 + float64(i)},
			{Year: 2050, Temperature: 16 + float64(i)},
		})
	}
	return set
}

func temperature() []schema.TemperaturePoint {
	return []schema.TemperaturePoint{{Year: 2020, Temperature: 14.9}, {Year: 2100, Temperature: 17.2}}
}

func newTestRegistry(resolver *fakeResolver, opts ...Option) *Registry {
	opts = append([]Option{WithRetry(DefaultAttempts, time.Millisecond)}, opts...)
	return New(resolver, opts...)
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "temperatureChart", TargetName(schema.TemperatureChart))
	assert.Equal(t, "sensitivityChart", TargetName(schema.SensitivityChart))
}

func TestCreateOrUpdateSameShapeKeepsHandle(t *testing.T) {
	resolver := newFakeResolver()
	reg := newTestRegistry(resolver)
	ctx := context.Background()

	first, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios("baseline", "optimistic"))
	require.NoError(t, err)

	updated := scenarios("baseline", "optimistic")
	updated.Set("baseline", []schema.TemperaturePoint{{Year: 2030, Temperature: 20}, {Year: 2050, Temperature: 21}})
	second, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, updated)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.ID(), second.ID())
	target := resolver.target(schema.ScenarioChart)
	assert.Len(t, target.draws, 2)
	assert.Zero(t, target.clears)

	state, ok := reg.State(schema.ScenarioChart)
	require.True(t, ok)
	assert.Equal(t, []float64{20, 21}, state.Series[0].Values)
}

func TestCreateOrUpdateDifferentShapeReplacesHandle(t *testing.T) {
	resolver := newFakeResolver()
	reg := newTestRegistry(resolver)
	ctx := context.Background()

	first, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios("baseline", "optimistic"))
	require.NoError(t, err)
	second, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios("baseline", "optimistic", "pessimistic"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, second, reg.Get(schema.ScenarioChart))
	assert.Equal(t, 1, resolver.target(schema.ScenarioChart).clears)
	assert.Equal(t, "scenarioChart", second.TargetName())
}

func TestStaleResponseDiscarded(t *testing.T) {
	resolver := newFakeResolver()
	reporter := &recordingReporter{}
	reg := newTestRegistry(resolver, WithReporter(reporter))
	ctx := context.Background()

	r1 := reg.Begin(schema.ScenarioChart)
	r2 := reg.Begin(schema.ScenarioChart)

	_, err := reg.Commit(ctx, r2, scenarios("baseline", "pessimistic"))
	require.NoError(t, err)

	_, err = reg.Commit(ctx, r1, scenarios("baseline"))
	assert.ErrorIs(t, err, schema.ErrStaleResponse)

	state, ok := reg.State(schema.ScenarioChart)
	require.True(t, ok)
	require.Len(t, state.Series, 2)
	assert.Equal(t, "pessimistic", state.Series[1].Label)
	assert.Empty(t, reporter.kinds)
}

func TestInOrderCommitsBothApply(t *testing.T) {
	reg := newTestRegistry(newFakeResolver())
	ctx := context.Background()

	r1 := reg.Begin(schema.ScenarioChart)
	r2 := reg.Begin(schema.ScenarioChart)
	_, err := reg.Commit(ctx, r1, scenarios("baseline"))
	require.NoError(t, err)
	_, err = reg.Commit(ctx, r2, scenarios("optimistic"))
	require.NoError(t, err)

	state, _ := reg.State(schema.ScenarioChart)
	assert.Equal(t, "optimistic", state.Series[0].Label)
}

func TestTokensArePerKind(t *testing.T) {
	reg := newTestRegistry(newFakeResolver())
	ctx := context.Background()

	temp := reg.Begin(schema.TemperatureChart)
	_, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios("baseline"))
	require.NoError(t, err)
	_, err = reg.Commit(ctx, temp, temperature())
	assert.NoError(t, err)
}

func TestConcurrentCommitsKeepNewest(t *testing.T) {
	reg := newTestRegistry(newFakeResolver())
	ctx := context.Background()

	const n = 20
	toks := make([]Token, n)
	for i := range toks {
		toks[i] = reg.Begin(schema.SensitivityChart)
	}

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := schema.NewOrdered[float64]()
			m.Set(schema.TemperatureSensitivity, float64(i))
			_, _ = reg.Commit(ctx, toks[i], m)
		}(i)
	}
	wg.Wait()

	got, err := reg.ReadBack(schema.SensitivityChart)
	require.NoError(t, err)
	m := got.(*schema.SensitivityMap)
	v, _ := m.Get(schema.TemperatureSensitivity)
	status := reg.Status()
	assert.Equal(t, float64(status[4].Committed-1), v)
	assert.Equal(t, uint64(n), status[4].Committed)
}

func TestTargetRetry(t *testing.T) {
	t.Run("target appears within budget", func(t *testing.T) {
		resolver := newFakeResolver()
		resolver.delay[TargetName(schema.TemperatureChart)] = DefaultAttempts - 1
		reg := newTestRegistry(resolver)

		h, err := reg.CreateOrUpdate(context.Background(), schema.TemperatureChart, temperature())
		require.NoError(t, err)
		assert.NotNil(t, h)
		assert.Equal(t, DefaultAttempts, resolver.lookups[TargetName(schema.TemperatureChart)])
	})

	t.Run("target never appears", func(t *testing.T) {
		resolver := newFakeResolver()
		resolver.delay[TargetName(schema.TemperatureChart)] = 100
		reporter := &recordingReporter{}
		reg := newTestRegistry(resolver, WithReporter(reporter))

		_, err := reg.CreateOrUpdate(context.Background(), schema.TemperatureChart, temperature())
		assert.ErrorIs(t, err, schema.ErrTargetNotFound)
		assert.Equal(t, DefaultAttempts, resolver.lookups[TargetName(schema.TemperatureChart)])
		assert.Equal(t, []schema.ErrorKind{schema.TargetNotFoundKind}, reporter.kinds)
		assert.Nil(t, reg.Get(schema.TemperatureChart))
	})

	t.Run("default delay", func(t *testing.T) {
		resolver := newFakeResolver()
		resolver.delay[TargetName(schema.RiskChart)] = 2
		reg := New(resolver)

		start := time.Now()
		_, err := reg.CreateOrUpdate(context.Background(), schema.RiskChart, schema.RiskMetrics{MeanTemperature: 1, VaR95: 2, MaxTemperature: 3})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 2*DefaultDelay)
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		resolver := newFakeResolver()
		resolver.delay[TargetName(schema.TemperatureChart)] = 100
		reg := New(resolver, WithRetry(5, time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := reg.CreateOrUpdate(ctx, schema.TemperatureChart, temperature())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDrawFailureKeepsPreviousState(t *testing.T) {
	resolver := newFakeResolver()
	reporter := &recordingReporter{}
	reg := newTestRegistry(resolver, WithReporter(reporter))
	ctx := context.Background()

	h, err := reg.CreateOrUpdate(ctx, schema.TemperatureChart, temperature())
	require.NoError(t, err)

	resolver.target(schema.TemperatureChart).drawErr = errors.New("canvas gone")
	_, err = reg.CreateOrUpdate(ctx, schema.TemperatureChart, []schema.TemperaturePoint{{Year: 2020, Temperature: 1}, {Year: 2100, Temperature: 2}})
	assert.ErrorIs(t, err, schema.ErrRenderFailed)
	assert.Equal(t, []schema.ErrorKind{schema.RenderKind}, reporter.kinds)

	assert.Same(t, h, reg.Get(schema.TemperatureChart))
	got, err := reg.ReadBack(schema.TemperatureChart)
	require.NoError(t, err)
	assert.Equal(t, temperature(), got)
}

func TestDrawFailureOnReplaceKeepsPreviousHandle(t *testing.T) {
	resolver := newFakeResolver()
	reporter := &recordingReporter{}
	reg := newTestRegistry(resolver, WithReporter(reporter))
	ctx := context.Background()

	h, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios(schema.BaselineScenario, schema.OptimisticScenario))
	require.NoError(t, err)
	target := resolver.target(schema.ScenarioChart)
	require.Len(t, target.draws, 1)

	target.drawErr = errors.New("canvas gone")
	target.failNext = 1
	_, err = reg.CreateOrUpdate(ctx, schema.ScenarioChart,
		scenarios(schema.BaselineScenario, schema.OptimisticScenario, schema.PessimisticScenario))
	assert.ErrorIs(t, err, schema.ErrRenderFailed)
	assert.Equal(t, []schema.ErrorKind{schema.RenderKind}, reporter.kinds)

	got := reg.Get(schema.ScenarioChart)
	require.NotNil(t, got)
	assert.Same(t, h, got)
	assert.Equal(t, h.ID(), got.ID())

	domain, err := reg.ReadBack(schema.ScenarioChart)
	require.NoError(t, err)
	set, ok := domain.(*schema.ScenarioSet)
	require.True(t, ok)
	assert.Equal(t, []string{schema.BaselineScenario, schema.OptimisticScenario}, set.Keys())

	// The old picture was redrawn after the clear.
	assert.Equal(t, 1, target.clears)
	require.Len(t, target.draws, 2)
	assert.Equal(t, target.draws[0], target.draws[1])
}

func TestRenderBundleIsolation(t *testing.T) {
	resolver := newFakeResolver()
	resolver.delay[TargetName(schema.EconomicChart)] = 100
	reporter := &recordingReporter{}
	reg := newTestRegistry(resolver, WithReporter(reporter))

	sens := schema.NewOrdered[float64]()
	sens.Set(schema.TemperatureSensitivity, 0.8)
	bundle := &schema.DatasetBundle{
		TemperatureData: temperature(),
		EconomicData:    []schema.EconomicPoint{{Year: 2020, GDPImpact: -0.01}},
		RiskMetrics:     &schema.RiskMetrics{MeanTemperature: 15, VaR95: 17, MaxTemperature: 18},
		ScenarioData:    scenarios("baseline"),
		SensitivityData: sens,
	}

	err := reg.RenderBundle(context.Background(), nil, bundle)
	assert.ErrorIs(t, err, schema.ErrTargetNotFound)

	for _, st := range reg.Status() {
		assert.Equal(t, st.Kind != schema.EconomicChart, st.Rendered, st.Kind)
	}
	assert.Equal(t, []schema.ErrorKind{schema.TargetNotFoundKind}, reporter.kinds)

	back, err := reg.ReadBackBundle()
	require.NoError(t, err)
	assert.Equal(t, bundle.TemperatureData, back.TemperatureData)
	assert.Nil(t, back.EconomicData)
	assert.Equal(t, bundle.RiskMetrics, back.RiskMetrics)
	assert.Equal(t, []string{"baseline"}, back.ScenarioData.Keys())
}

func TestRenderBundleSkipsStaleKinds(t *testing.T) {
	reg := newTestRegistry(newFakeResolver())
	ctx := context.Background()

	toks := reg.BeginAll()
	_, err := reg.CreateOrUpdate(ctx, schema.TemperatureChart, []schema.TemperaturePoint{{Year: 2000, Temperature: 1}})
	require.NoError(t, err)

	err = reg.RenderBundle(ctx, toks, &schema.DatasetBundle{TemperatureData: temperature(), ScenarioData: scenarios("baseline")})
	require.NoError(t, err)

	got, err := reg.ReadBack(schema.TemperatureChart)
	require.NoError(t, err)
	assert.Equal(t, []schema.TemperaturePoint{{Year: 2000, Temperature: 1}}, got)
	assert.NotNil(t, reg.Get(schema.ScenarioChart))
}

func TestReinitialize(t *testing.T) {
	resolver := newFakeResolver()
	reg := newTestRegistry(resolver)
	ctx := context.Background()

	inFlight := reg.Begin(schema.TemperatureChart)
	_, err := reg.CreateOrUpdate(ctx, schema.ScenarioChart, scenarios("baseline"))
	require.NoError(t, err)

	require.NoError(t, reg.Reinitialize())
	assert.Nil(t, reg.Get(schema.ScenarioChart))
	assert.Equal(t, 1, resolver.target(schema.ScenarioChart).clears)

	_, err = reg.Commit(ctx, inFlight, temperature())
	assert.ErrorIs(t, err, schema.ErrStaleResponse)

	_, err = reg.ReadBack(schema.ScenarioChart)
	assert.ErrorIs(t, err, schema.ErrNoChart)
	_, err = reg.ReadBackBundle()
	assert.ErrorIs(t, err, schema.ErrNoChart)

	_, err = reg.CreateOrUpdate(ctx, schema.TemperatureChart, temperature())
	assert.NoError(t, err)
}

func TestCommitRejectsInvalidData(t *testing.T) {
	reporter := &recordingReporter{}
	reg := newTestRegistry(newFakeResolver(), WithReporter(reporter))

	bad := schema.NewOrdered[[]schema.TemperaturePoint]()
	bad.Set("baseline", []schema.TemperaturePoint{{Year: 2030, Temperature: 1}})
	bad.Set("optimistic", []schema.TemperaturePoint{{Year: 2030, Temperature: 1}, {Year: 2050, Temperature: 2}})

	_, err := reg.CreateOrUpdate(context.Background(), schema.ScenarioChart, bad)
	assert.ErrorIs(t, err, schema.ErrScenarioAxisMismatch)
	assert.Nil(t, reg.Get(schema.ScenarioChart))
	assert.Equal(t, []schema.ErrorKind{schema.ShapeErrorKind}, reporter.kinds)
}

func TestReadBackIsIsolatedFromTarget(t *testing.T) {
	resolver := newFakeResolver()
	reg := newTestRegistry(resolver)
	_, err := reg.CreateOrUpdate(context.Background(), schema.TemperatureChart, temperature())
	require.NoError(t, err)

	drawn := resolver.target(schema.TemperatureChart).draws[0]
	drawn.Series[0].Values[0] = 99

	got, err := reg.ReadBack(schema.TemperatureChart)
	require.NoError(t, err)
	assert.Equal(t, temperature(), got)
}
