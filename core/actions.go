package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/climdash/internal/iocache"
	"github.com/huangsam/climdash/schema"
)

// Bootstrap fetches the default dataset and renders every chart.
func (c *Controller) Bootstrap(ctx context.Context) error {
	return c.run(ctx, BootstrapAction, func(ctx context.Context) error {
		toks := c.registry.BeginAll()
		raw, err := c.backend.DefaultData(ctx)
		if err != nil {
			return c.fail(err)
		}
		err = c.renderRaw(ctx, BootstrapAction, toks, raw)
		c.persistAsync(ctx, false)
		return err
	})
}

// SubmitForProcessing sends raw to the backend, renders the processed bundle
// and saves it remotely and locally in the background.
func (c *Controller) SubmitForProcessing(ctx context.Context, raw any) error {
	return c.run(ctx, ProcessAction, func(ctx context.Context) error {
		return c.submit(ctx, ProcessAction, raw)
	})
}

func (c *Controller) submit(ctx context.Context, action string, raw any) error {
	toks := c.registry.BeginAll()
	processed, err := c.backend.Process(ctx, raw)
	if err != nil {
		return c.fail(err)
	}
	err = c.renderRaw(ctx, action, toks, processed)
	c.persistAsync(ctx, true)
	return err
}

// ChangeScenario recomputes the scenario chart for name from the displayed
// temperature series.
func (c *Controller) ChangeScenario(ctx context.Context, name string) error {
	return c.run(ctx, ScenarioAction, func(ctx context.Context) error {
		tok := c.registry.Begin(schema.ScenarioChart)
		temps, err := c.readTemperature()
		if err != nil {
			return c.fail(err)
		}
		raw, err := c.backend.UpdateScenario(ctx, schema.ScenarioRequest{Scenario: strings.TrimSpace(name), TemperatureData: temps})
		if err != nil {
			return c.fail(err)
		}
		if err := c.renderSection(ctx, ScenarioAction, tok, raw); err != nil {
			return err
		}
		c.persistAsync(ctx, false)
		return nil
	})
}

// ChangeSensitivity recomputes the sensitivity chart for a slider value from
// the displayed economic series.
func (c *Controller) ChangeSensitivity(ctx context.Context, value int) error {
	return c.run(ctx, SensitivityAction, func(ctx context.Context) error {
		tok := c.registry.Begin(schema.SensitivityChart)
		econ, err := c.readEconomic()
		if err != nil {
			return c.fail(err)
		}
		raw, err := c.backend.UpdateSensitivity(ctx, schema.SensitivityRequest{Sensitivity: value, EconomicData: econ})
		if err != nil {
			return c.fail(err)
		}
		if err := c.renderSection(ctx, SensitivityAction, tok, raw); err != nil {
			return err
		}
		c.persistAsync(ctx, false)
		return nil
	})
}

// RunAdvancedAnalytics recomputes every chart from the displayed temperature
// and economic series. The economic series is optional.
func (c *Controller) RunAdvancedAnalytics(ctx context.Context) error {
	return c.run(ctx, AnalyticsAction, func(ctx context.Context) error {
		toks := c.registry.BeginAll()
		temps, err := c.readTemperature()
		if err != nil {
			return c.fail(err)
		}
		econ, err := c.readEconomic()
		if err != nil && !errors.Is(err, schema.ErrNoChart) {
			return c.fail(err)
		}
		raw, err := c.backend.AdvancedAnalytics(ctx, schema.AnalyticsRequest{TemperatureData: temps, EconomicData: econ})
		if err != nil {
			return c.fail(err)
		}
		err = c.renderRaw(ctx, AnalyticsAction, toks, raw)
		c.persistAsync(ctx, false)
		return err
	})
}

// ExportCurrentState hands the displayed dataset to the file saver as JSON.
func (c *Controller) ExportCurrentState(ctx context.Context) error {
	return c.run(ctx, ExportAction, func(_ context.Context) error {
		if c.saver == nil {
			return c.fail(errors.New("no file saver configured"))
		}
		bundle, err := c.registry.ReadBackBundle()
		if bundle == nil {
			return c.fail(err)
		}
		if err != nil {
			// Charts that could not be read back are left out of the export.
			_ = c.fail(err)
		}
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return c.fail(fmt.Errorf("encode export: %w", err))
		}
		if err := c.saver.Save(schema.ExportFileName, data); err != nil {
			return c.fail(fmt.Errorf("%w: %w", schema.ErrPersistence, err))
		}
		return nil
	})
}

// ReportInput collects the displayed dataset and the full query log.
// A dashboard without charts yields an empty dataset.
func (c *Controller) ReportInput() (schema.ReportRequest, error) {
	bundle, err := c.registry.ReadBackBundle()
	switch {
	case errors.Is(err, schema.ErrNoChart) && bundle == nil:
		bundle = &schema.DatasetBundle{}
	case bundle == nil:
		return schema.ReportRequest{}, err
	case err != nil:
		_ = c.fail(err)
	}
	queries, err := c.QueryLog()
	if err != nil {
		return schema.ReportRequest{}, err
	}
	return schema.ReportRequest{Data: bundle, Queries: queries}, nil
}

// GenerateReport asks the backend for an HTML report of the displayed dataset
// and the query log.
func (c *Controller) GenerateReport(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, ReportAction, func(ctx context.Context) error {
		req, err := c.ReportInput()
		if err != nil {
			return c.fail(err)
		}
		html, err = c.backend.GenerateReport(ctx, req)
		return c.fail(err)
	})
	return html, err
}

// Query asks the backend a free-text question and appends the exchange to the
// query log. A failed append is reported but the answer is still returned.
func (c *Controller) Query(ctx context.Context, text string) (string, error) {
	var answer string
	err := c.run(ctx, QueryAction, func(ctx context.Context) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return c.fail(ErrEmptyQuery)
		}
		var err error
		answer, err = c.backend.Query(ctx, text)
		if err != nil {
			return c.fail(err)
		}
		if store := c.queryLog(); store != nil {
			rec := schema.QueryRecord{Query: text, Response: answer, Timestamp: c.now()}
			if err := store.Append(rec); err != nil {
				c.reportKind(err.Error(), schema.PersistenceKind)
			}
		}
		return nil
	})
	return answer, err
}

// QueryLog returns every logged query, oldest first.
func (c *Controller) QueryLog() ([]schema.QueryRecord, error) {
	store := c.queryLog()
	if store == nil {
		return nil, nil
	}
	return store.All()
}

// Summary asks the backend to narrate the displayed dataset.
func (c *Controller) Summary(ctx context.Context) (string, error) {
	var summary string
	err := c.run(ctx, SummaryAction, func(ctx context.Context) error {
		bundle, err := c.registry.ReadBackBundle()
		if bundle == nil {
			return c.fail(err)
		}
		summary, err = c.backend.Summary(ctx, bundle)
		return c.fail(err)
	})
	return summary, err
}

// CompareScenarios tabulates the displayed scenarios year by year.
func (c *Controller) CompareScenarios(ctx context.Context) ([]schema.ComparisonRow, error) {
	var rows []schema.ComparisonRow
	err := c.run(ctx, CompareAction, func(ctx context.Context) error {
		domain, err := c.registry.ReadBack(schema.ScenarioChart)
		if err != nil {
			return c.fail(err)
		}
		set, _ := domain.(*schema.ScenarioSet)
		rows, err = c.backend.CompareScenarios(ctx, set)
		return c.fail(err)
	})
	return rows, err
}

// LoadSession renders a bundle saved remotely under id.
func (c *Controller) LoadSession(ctx context.Context, id string) error {
	return c.run(ctx, SessionAction, func(ctx context.Context) error {
		toks := c.registry.BeginAll()
		raw, err := c.backend.LoadSession(ctx, id)
		if err != nil {
			return c.fail(err)
		}
		err = c.renderRaw(ctx, SessionAction, toks, raw)
		c.mu.Lock()
		c.sessionID = id
		c.mu.Unlock()
		c.persistAsync(ctx, false)
		return err
	})
}

// Restore renders the local workspace snapshot and returns when it was saved.
// It returns iocache.ErrNoSnapshot without reporting when there is none.
func (c *Controller) Restore(ctx context.Context) (time.Time, error) {
	var savedAt time.Time
	err := c.run(ctx, RestoreAction, func(ctx context.Context) error {
		toks := c.registry.BeginAll()
		raw, at, err := iocache.LoadWorkspace(c.workspace())
		if errors.Is(err, iocache.ErrNoSnapshot) {
			return err
		}
		if err != nil {
			return c.fail(err)
		}
		savedAt = at
		return c.renderRaw(ctx, RestoreAction, toks, raw)
	})
	return savedAt, err
}

// Reinitialize destroys every chart. Responses still in flight are discarded.
func (c *Controller) Reinitialize() error {
	return c.registry.Reinitialize()
}

func (c *Controller) readTemperature() ([]schema.TemperaturePoint, error) {
	domain, err := c.registry.ReadBack(schema.TemperatureChart)
	if err != nil {
		return nil, err
	}
	temps, _ := domain.([]schema.TemperaturePoint)
	return temps, nil
}

func (c *Controller) readEconomic() ([]schema.EconomicPoint, error) {
	domain, err := c.registry.ReadBack(schema.EconomicChart)
	if err != nil {
		return nil, err
	}
	econ, _ := domain.([]schema.EconomicPoint)
	return econ, nil
}
