package schema

import "strconv"

// FlatPoint is one value of a bundle in long format.
type FlatPoint struct {
	Section ChartKind
	Series  string
	Label   string
	Year    *int // nil for risk metrics and sensitivity factors
	Value   float64
}

// Risk metric labels in fixed order.
const (
	MeanTemperatureLabel = "mean_temperature"
	VaR95Label           = "var_95"
	MaxTemperatureLabel  = "max_temperature"
	EconomicImpactLabel  = "economic_impact"
	AdaptationCostLabel  = "adaptation_cost"
)

// Flatten lists every value of the bundle in render order.
func Flatten(b *DatasetBundle) []FlatPoint {
	if b == nil {
		return nil
	}
	var out []FlatPoint
	yearPoint := func(kind ChartKind, series string, year int, v float64) FlatPoint {
		y := year
		return FlatPoint{Section: kind, Series: series, Label: strconv.Itoa(year), Year: &y, Value: v}
	}

	for _, p := range b.TemperatureData {
		out = append(out, yearPoint(TemperatureChart, "temperature", p.Year, p.Temperature))
	}
	for _, p := range b.EconomicData {
		out = append(out, yearPoint(EconomicChart, "gdpImpact", p.Year, p.GDPImpact))
	}
	if r := b.RiskMetrics; r != nil {
		add := func(label string, v float64) {
			out = append(out, FlatPoint{Section: RiskChart, Series: "risk", Label: label, Value: v})
		}
		add(MeanTemperatureLabel, r.MeanTemperature)
		add(VaR95Label, r.VaR95)
		add(MaxTemperatureLabel, r.MaxTemperature)
		if r.EconomicImpact != nil {
			add(EconomicImpactLabel, *r.EconomicImpact)
		}
		if r.AdaptationCost != nil {
			add(AdaptationCostLabel, *r.AdaptationCost)
		}
	}
	for name, points := range b.ScenarioData.All() {
		for _, p := range points {
			out = append(out, yearPoint(ScenarioChart, name, p.Year, p.Temperature))
		}
	}
	for name, v := range b.SensitivityData.All() {
		out = append(out, FlatPoint{Section: SensitivityChart, Series: "sensitivity", Label: name, Value: v})
	}
	return out
}
