// Package shape validates dataset sections before they reach a chart.
//
// Raw sections come off the wire as undecoded JSON so that absent fields,
// non-numeric values and misaligned scenario axes can each be reported with
// their own error. Validation never mutates its input.
package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/climdash/schema"
)

// Result holds the outcome of validating every present section of a bundle.
type Result struct {
	Bundle *schema.DatasetBundle
	Errors map[schema.ChartKind]error
}

// Err joins all section errors in render order, or returns nil.
func (r Result) Err() error {
	var errs []error
	for _, kind := range schema.AllChartKinds {
		if err, ok := r.Errors[kind]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks one section of raw and returns its typed domain value.
func Validate(raw *schema.RawBundle, kind schema.ChartKind) (any, error) {
	data := raw.Section(kind)
	if data == nil {
		return nil, &schema.ShapeError{Kind: kind, Err: schema.ErrEmptySeries, Detail: "section is absent"}
	}
	switch kind {
	case schema.TemperatureChart:
		return ValidateTemperature(data)
	case schema.EconomicChart:
		return ValidateEconomic(data)
	case schema.RiskChart:
		return ValidateRisk(data)
	case schema.ScenarioChart:
		return ValidateScenario(data)
	case schema.SensitivityChart:
		return ValidateSensitivity(data)
	}
	return nil, fmt.Errorf("unknown chart kind %q", kind)
}

// ValidateBundle validates each present section independently. Absent sections
// are skipped, failed sections are left out of the returned bundle.
func ValidateBundle(raw *schema.RawBundle) Result {
	res := Result{Bundle: &schema.DatasetBundle{}, Errors: map[schema.ChartKind]error{}}
	for _, kind := range raw.Present() {
		value, err := Validate(raw, kind)
		if err != nil {
			res.Errors[kind] = err
			continue
		}
		res.Bundle.SetSection(kind, value)
	}
	return res
}

// ValidateTemperature checks a temperature series.
func ValidateTemperature(data json.RawMessage) ([]schema.TemperaturePoint, error) {
	return decodeTemperature(schema.TemperatureChart, "", data)
}

// ValidateEconomic checks an economic impact series. The legacy "gdp" key is
// accepted in place of "gdpImpact".
func ValidateEconomic(data json.RawMessage) ([]schema.EconomicPoint, error) {
	items, err := decodeArray(schema.EconomicChart, "", data)
	if err != nil {
		return nil, err
	}
	points := make([]schema.EconomicPoint, len(items))
	for i, obj := range items {
		year, ok := intField(obj, "year")
		if !ok {
			return nil, schema.NewShapeError(schema.EconomicChart, schema.ErrMissingField, "point %d has no numeric year", i)
		}
		impact, ok := floatField(obj, "gdpImpact", "gdp")
		if !ok {
			return nil, schema.NewShapeError(schema.EconomicChart, schema.ErrMissingField, "point %d has no numeric gdpImpact", i)
		}
		points[i] = schema.EconomicPoint{Year: year, GDPImpact: impact}
	}
	for i := 1; i < len(points); i++ {
		if points[i].Year <= points[i-1].Year {
			return nil, schema.NewShapeError(schema.EconomicChart, schema.ErrUnorderedSeries, "year %d follows %d", points[i].Year, points[i-1].Year)
		}
	}
	return points, nil
}

// ValidateRisk checks a risk record. The three core fields are required; the
// two extended fields must be present together or not at all.
func ValidateRisk(data json.RawMessage) (schema.RiskMetrics, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return schema.RiskMetrics{}, schema.NewShapeError(schema.RiskChart, schema.ErrMissingRiskField, "expected a record")
	}

	var m schema.RiskMetrics
	required := []struct {
		name string
		keys []string
		dst  *float64
	}{
		{"mean_temperature", []string{"mean_temperature", "meanTemperature"}, &m.MeanTemperature},
		{"var_95", []string{"var_95", "var95"}, &m.VaR95},
		{"max_temperature", []string{"max_temperature", "maxTemperature"}, &m.MaxTemperature},
	}
	for _, f := range required {
		v, ok := floatField(obj, f.keys...)
		if !ok {
			return schema.RiskMetrics{}, schema.NewShapeError(schema.RiskChart, schema.ErrMissingRiskField, "%s is missing or not numeric", f.name)
		}
		*f.dst = v
	}

	impact, hasImpact, err := optionalFloat(obj, "economic_impact", "economicImpact")
	if err != nil {
		return schema.RiskMetrics{}, err
	}
	cost, hasCost, err := optionalFloat(obj, "adaptation_cost", "adaptationCost")
	if err != nil {
		return schema.RiskMetrics{}, err
	}
	if hasImpact != hasCost {
		return schema.RiskMetrics{}, schema.NewShapeError(schema.RiskChart, schema.ErrMissingRiskField, "economic_impact and adaptation_cost must be given together")
	}
	if hasImpact {
		m.EconomicImpact, m.AdaptationCost = &impact, &cost
	}
	return m, nil
}

// ValidateScenario checks a scenario set, including the shared year axis.
func ValidateScenario(data json.RawMessage) (*schema.ScenarioSet, error) {
	var rawSet schema.Ordered[json.RawMessage]
	if err := json.Unmarshal(data, &rawSet); err != nil {
		return nil, schema.NewShapeError(schema.ScenarioChart, schema.ErrMissingField, "expected a mapping of scenarios")
	}
	set := schema.NewOrdered[[]schema.TemperaturePoint]()
	for name, value := range rawSet.All() {
		points, err := decodeTemperature(schema.ScenarioChart, name, value)
		if err != nil {
			return nil, err
		}
		set.Set(name, points)
	}
	if err := CheckScenario(set); err != nil {
		return nil, err
	}
	return set, nil
}

// ValidateSensitivity checks a sensitivity mapping.
func ValidateSensitivity(data json.RawMessage) (*schema.SensitivityMap, error) {
	var rawMap schema.Ordered[json.RawMessage]
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return nil, schema.NewShapeError(schema.SensitivityChart, schema.ErrInvalidSensitivityValue, "expected a mapping of factors")
	}
	m := schema.NewOrdered[float64]()
	for name, value := range rawMap.All() {
		var v float64
		if err := json.Unmarshal(value, &v); err != nil || isNull(value) {
			return nil, schema.NewShapeError(schema.SensitivityChart, schema.ErrInvalidSensitivityValue, "%s is not numeric", name)
		}
		m.Set(name, v)
	}
	if err := CheckSensitivity(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CheckTemperature checks a typed temperature series: non-empty and strictly
// ascending by year.
func CheckTemperature(kind schema.ChartKind, points []schema.TemperaturePoint) error {
	if len(points) == 0 {
		return &schema.ShapeError{Kind: kind, Err: schema.ErrEmptySeries}
	}
	for i := 1; i < len(points); i++ {
		if points[i].Year <= points[i-1].Year {
			return schema.NewShapeError(kind, schema.ErrUnorderedSeries, "year %d follows %d", points[i].Year, points[i-1].Year)
		}
	}
	return nil
}

// CheckScenario checks that a typed scenario set is non-empty and that every
// scenario has the same years in the same order.
func CheckScenario(set *schema.ScenarioSet) error {
	if set.Len() == 0 {
		return schema.NewShapeError(schema.ScenarioChart, schema.ErrEmptySeries, "no scenarios")
	}
	var (
		axisName string
		axis     []schema.TemperaturePoint
	)
	for name, points := range set.All() {
		if len(points) == 0 {
			return schema.NewShapeError(schema.ScenarioChart, schema.ErrEmptySeries, "scenario %q has no points", name)
		}
		if axis == nil {
			axisName, axis = name, points
			continue
		}
		if len(points) != len(axis) {
			return schema.NewShapeError(schema.ScenarioChart, schema.ErrScenarioAxisMismatch,
				"scenario %q has %d points, %q has %d", name, len(points), axisName, len(axis))
		}
		for i := range points {
			if points[i].Year != axis[i].Year {
				return schema.NewShapeError(schema.ScenarioChart, schema.ErrScenarioAxisMismatch,
					"scenario %q has year %d at position %d, %q has %d", name, points[i].Year, i, axisName, axis[i].Year)
			}
		}
	}
	return nil
}

// CheckSensitivity checks that a typed sensitivity mapping has at least one
// finite factor.
func CheckSensitivity(m *schema.SensitivityMap) error {
	if m.Len() == 0 {
		return schema.NewShapeError(schema.SensitivityChart, schema.ErrInvalidSensitivityValue, "no factors")
	}
	for name, v := range m.All() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return schema.NewShapeError(schema.SensitivityChart, schema.ErrInvalidSensitivityValue, "%s is not finite", name)
		}
	}
	return nil
}

func decodeTemperature(kind schema.ChartKind, scenario string, data json.RawMessage) ([]schema.TemperaturePoint, error) {
	items, err := decodeArray(kind, scenario, data)
	if err != nil {
		return nil, err
	}
	where := ""
	if scenario != "" {
		where = fmt.Sprintf(" of scenario %q", scenario)
	}
	points := make([]schema.TemperaturePoint, len(items))
	for i, obj := range items {
		year, ok := intField(obj, "year")
		if !ok {
			return nil, schema.NewShapeError(kind, schema.ErrMissingField, "point %d%s has no numeric year", i, where)
		}
		temp, ok := floatField(obj, "temperature")
		if !ok {
			return nil, schema.NewShapeError(kind, schema.ErrMissingField, "point %d%s has no numeric temperature", i, where)
		}
		points[i] = schema.TemperaturePoint{Year: year, Temperature: temp}
	}
	if err := CheckTemperature(kind, points); err != nil {
		var shapeErr *schema.ShapeError
		if scenario != "" && errors.As(err, &shapeErr) {
			shapeErr.Detail = fmt.Sprintf("scenario %q: %s", scenario, shapeErr.Detail)
		}
		return nil, err
	}
	return points, nil
}

func decodeArray(kind schema.ChartKind, scenario string, data json.RawMessage) ([]map[string]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		detail := "expected a sequence of points"
		if scenario != "" {
			detail = fmt.Sprintf("scenario %q: %s", scenario, detail)
		}
		return nil, schema.NewShapeError(kind, schema.ErrMissingField, "%s", detail)
	}
	if len(items) == 0 {
		if scenario != "" {
			return nil, schema.NewShapeError(kind, schema.ErrEmptySeries, "scenario %q has no points", scenario)
		}
		return nil, &schema.ShapeError{Kind: kind, Err: schema.ErrEmptySeries}
	}
	objs := make([]map[string]json.RawMessage, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &objs[i]); err != nil || objs[i] == nil {
			return nil, schema.NewShapeError(kind, schema.ErrMissingField, "point %d is not a record", i)
		}
	}
	return objs, nil
}

func floatField(obj map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || isNull(raw) {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func intField(obj map[string]json.RawMessage, key string) (int, bool) {
	v, ok := floatField(obj, key)
	if !ok || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func optionalFloat(obj map[string]json.RawMessage, keys ...string) (float64, bool, error) {
	for _, key := range keys {
		if raw, ok := obj[key]; ok && !isNull(raw) {
			v, ok := floatField(obj, key)
			if !ok {
				return 0, false, schema.NewShapeError(schema.RiskChart, schema.ErrMissingRiskField, "%s is not numeric", key)
			}
			return v, true, nil
		}
	}
	return 0, false, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
