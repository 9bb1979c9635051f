package devserver

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/climdash/schema"
)

// Model constants of the reference backend.
const (
	BaseYear            = 2020
	EndYear             = 2100
	YearStep            = 10
	BaseTemperature     = 14.9
	WarmingPerYear      = 0.02875 // reaches 17.2 °C in 2100
	GDPLossPerDegree    = -0.01   // 1 °C of warming costs 1% of GDP
	AdaptationPerDegree = 0.005
	Simulations         = 1000
	SimulationYears     = 30
	Volatility          = 0.1
	DefaultSensitivity  = 50
	MaxSensitivity      = 100
	OptimisticFactor    = 0.6
	PessimisticFactor   = 1.5
)

// baseWeights are the sensitivity factors at the default slider value.
var baseWeights = []struct {
	name   string
	weight float64
}{
	{schema.TemperatureSensitivity, 0.8},
	{schema.EconomicGrowthSensitivity, 0.3},
	{schema.AdaptationSensitivity, 0.5},
	{schema.TechnologySensitivity, 0.2},
}

var scenarioFactors = map[string]float64{
	schema.BaselineScenario:    1,
	schema.OptimisticScenario:  OptimisticFactor,
	schema.PessimisticScenario: PessimisticFactor,
}

// canned answers for free-text queries.
var answers = []string{
	"Based on current climate models, we project a global temperature increase of 1.5°C by 2050 if current trends continue.",
	"The economic impact of climate change varies by sector, with agriculture and coastal real estate being particularly vulnerable.",
	"Renewable energy adoption is crucial for mitigating climate change. Solar and wind power are becoming increasingly cost-competitive.",
	"Climate adaptation strategies, such as improved water management and resilient infrastructure, are essential for minimizing economic losses.",
	"Carbon pricing mechanisms, like cap-and-trade systems or carbon taxes, can be effective tools for reducing greenhouse gas emissions.",
	"The transition to a low-carbon economy presents both challenges and opportunities for job creation and economic growth.",
	"Extreme weather events, exacerbated by climate change, can have significant impacts on supply chains and global trade.",
	"Investing in climate-resilient infrastructure can provide long-term economic benefits and reduce future climate-related costs.",
}

// DefaultTemperature returns the linear warming path from BaseYear to EndYear.
func DefaultTemperature() []schema.TemperaturePoint {
	var points []schema.TemperaturePoint
	for y := BaseYear; y <= EndYear; y += YearStep {
		points = append(points, schema.TemperaturePoint{
			Year:        y,
			Temperature: round(BaseTemperature+WarmingPerYear*float64(y-BaseYear), 2),
		})
	}
	return points
}

// EconomicImpact converts warming relative to the first point into fractional GDP impact.
func EconomicImpact(temps []schema.TemperaturePoint) []schema.EconomicPoint {
	if len(temps) == 0 {
		return nil
	}
	base := temps[0].Temperature
	out := make([]schema.EconomicPoint, len(temps))
	for i, p := range temps {
		out[i] = schema.EconomicPoint{Year: p.Year, GDPImpact: round(GDPLossPerDegree*(p.Temperature-base), 4)}
	}
	return out
}

// Risk runs a seeded Monte Carlo simulation of warming from the last point and
// summarizes the final temperatures. Extended adds economic impact and
// adaptation cost.
func Risk(temps []schema.TemperaturePoint, extended bool) schema.RiskMetrics {
	if len(temps) == 0 {
		return schema.RiskMetrics{}
	}
	start := temps[len(temps)-1].Temperature
	rng := rand.New(rand.NewPCG(uint64(temps[0].Year), uint64(len(temps))))

	finals := make([]float64, Simulations)
	for i := range finals {
		t := start
		for range SimulationYears {
			t += rng.NormFloat64() * Volatility
		}
		finals[i] = t
	}
	slices.Sort(finals)

	var sum float64
	for _, f := range finals {
		sum += f
	}
	m := schema.RiskMetrics{
		MeanTemperature: round(sum/float64(len(finals)), 3),
		VaR95:           round(percentile(finals, 0.95), 3),
		MaxTemperature:  round(finals[len(finals)-1], 3),
	}
	if extended {
		warming := m.MeanTemperature - temps[0].Temperature
		impact := round(GDPLossPerDegree*warming, 4)
		cost := round(AdaptationPerDegree*math.Max(0, m.MaxTemperature-temps[0].Temperature), 4)
		m.EconomicImpact = &impact
		m.AdaptationCost = &cost
	}
	return m
}

// percentile interpolates linearly between the closest ranks of sorted values.
func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Scenarios derives the scenario set for a selection. The baseline selection
// returns every scenario, any other returns the baseline and the selection.
func Scenarios(temps []schema.TemperaturePoint, selected string) (*schema.ScenarioSet, error) {
	if len(temps) == 0 {
		return nil, fmt.Errorf("no temperature data provided")
	}
	if selected == "" {
		selected = schema.BaselineScenario
	}
	if _, ok := scenarioFactors[selected]; !ok {
		return nil, fmt.Errorf("unknown scenario %q", selected)
	}
	names := []string{schema.BaselineScenario, schema.OptimisticScenario, schema.PessimisticScenario}
	if selected != schema.BaselineScenario {
		names = []string{schema.BaselineScenario, selected}
	}

	base := temps[0].Temperature
	set := schema.NewOrdered[[]schema.TemperaturePoint]()
	for _, name := range names {
		f := scenarioFactors[name]
		points := make([]schema.TemperaturePoint, len(temps))
		for i, p := range temps {
			points[i] = schema.TemperaturePoint{Year: p.Year, Temperature: round(base+(p.Temperature-base)*f, 2)}
		}
		set.Set(name, points)
	}
	return set, nil
}

// Sensitivity scales the base factor weights by the slider value and by the
// size of the economic impact.
func Sensitivity(econ []schema.EconomicPoint, value int) (*schema.SensitivityMap, error) {
	if value < 0 || value > MaxSensitivity {
		return nil, fmt.Errorf("sensitivity must be between 0 and %d, got %d", MaxSensitivity, value)
	}
	var exposure float64
	for _, p := range econ {
		exposure = math.Max(exposure, math.Abs(p.GDPImpact))
	}
	scale := float64(value) / DefaultSensitivity
	out := schema.NewOrdered[float64]()
	for _, w := range baseWeights {
		v := w.weight * scale
		if w.name == schema.EconomicGrowthSensitivity {
			v *= 1 + exposure
		}
		out.Set(w.name, round(v, 4))
	}
	return out, nil
}

// Process rebuilds a full bundle from any importable payload: a bundle, a list
// of records or CSV rows with string cells. Without usable temperature records
// the default path is used.
func Process(raw any, extended bool) *schema.DatasetBundle {
	temps := extractTemperature(raw)
	if len(temps) == 0 {
		temps = DefaultTemperature()
	}
	return buildBundle(temps, extended)
}

func buildBundle(temps []schema.TemperaturePoint, extended bool) *schema.DatasetBundle {
	econ := EconomicImpact(temps)
	risk := Risk(temps, extended)
	scenarios, _ := Scenarios(temps, schema.BaselineScenario)
	sens, _ := Sensitivity(econ, DefaultSensitivity)
	return &schema.DatasetBundle{
		TemperatureData: temps,
		EconomicData:    econ,
		RiskMetrics:     &risk,
		ScenarioData:    scenarios,
		SensitivityData: sens,
	}
}

func extractTemperature(raw any) []schema.TemperaturePoint {
	var records []any
	switch v := raw.(type) {
	case map[string]any:
		records, _ = v["temperatureData"].([]any)
	case []any:
		records = v
	}

	byYear := make(map[int]float64)
	for _, r := range records {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		year, okY := number(obj["year"])
		temp, okT := number(obj["temperature"])
		if !okY || !okT || year != math.Trunc(year) {
			continue
		}
		byYear[int(year)] = temp
	}

	points := make([]schema.TemperaturePoint, 0, len(byYear))
	for y, t := range byYear {
		points = append(points, schema.TemperaturePoint{Year: y, Temperature: t})
	}
	slices.SortFunc(points, func(a, b schema.TemperaturePoint) int { return a.Year - b.Year })
	return points
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// Summary narrates the temperature, economic and risk sections of a bundle.
func Summary(b *schema.DatasetBundle) string {
	var sb strings.Builder
	sb.WriteString("Here's a summary of the climate economic data:\n\n")

	if t := b.TemperatureData; len(t) > 0 {
		first, last := t[0], t[len(t)-1]
		change := last.Temperature - first.Temperature
		fmt.Fprintf(&sb, "Temperature Trends: From %d to %d, the temperature %s by %.2f°C, from %.2f°C to %.2f°C.\n\n",
			first.Year, last.Year, direction(change), math.Abs(change), first.Temperature, last.Temperature)
	}
	if e := b.EconomicData; len(e) > 0 {
		first, last := e[0], e[len(e)-1]
		change := (last.GDPImpact - first.GDPImpact) * 100
		fmt.Fprintf(&sb, "Economic Impact: The GDP impact %s by %.2f percentage points from %d to %d.\n\n",
			direction(change), math.Abs(change), first.Year, last.Year)
	}
	if r := b.RiskMetrics; r != nil {
		fmt.Fprintf(&sb, "Risk Assessment: The mean temperature is %.2f°C, with a 95%% Value at Risk of %.2f°C and a maximum temperature of %.2f°C.\n\n",
			r.MeanTemperature, r.VaR95, r.MaxTemperature)
	}
	if s := b.ScenarioData; s.Len() > 0 {
		fmt.Fprintf(&sb, "Scenarios: %s.\n\n", strings.Join(s.Keys(), ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func direction(change float64) string {
	if change > 0 {
		return "increased"
	}
	return "decreased"
}

// Compare lays scenarios out year by year, following the years of the first scenario.
func Compare(set *schema.ScenarioSet) ([]schema.ComparisonRow, error) {
	if set.Len() == 0 {
		return nil, fmt.Errorf("no scenario data provided")
	}
	keys := set.Keys()
	first, _ := set.Get(keys[0])
	rows := make([]schema.ComparisonRow, 0, len(first))
	for _, p := range first {
		values := schema.NewOrdered[float64]()
		for _, name := range keys {
			points, _ := set.Get(name)
			idx := slices.IndexFunc(points, func(q schema.TemperaturePoint) bool { return q.Year == p.Year })
			if idx < 0 {
				return nil, fmt.Errorf("scenario %q has no value for %d", name, p.Year)
			}
			values.Set(name, points[idx].Temperature)
		}
		rows = append(rows, schema.ComparisonRow{Year: p.Year, Values: values})
	}
	return rows, nil
}

// Answer picks a canned response for a query. The same query always gets the same answer.
func Answer(query string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	return answers[h.Sum32()%uint32(len(answers))]
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
