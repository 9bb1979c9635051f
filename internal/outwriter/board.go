package outwriter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	_ contract.TargetResolver = &Board{} // Compile-time check
	_ contract.RenderTarget   = &Panel{} // Compile-time check
)

// Panel is a terminal render target holding the last drawn chart state.
type Panel struct {
	name  string
	mu    sync.Mutex
	state *schema.RenderState
	draws int
}

// Name returns the target name.
func (p *Panel) Name() string { return p.name }

// Draw stores state for the next render.
func (p *Panel) Draw(state schema.RenderState) error {
	if len(state.Series) == 0 {
		return fmt.Errorf("panel %s: nothing to draw", p.name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := state.Clone()
	p.state = &s
	p.draws++
	return nil
}

// Clear empties the panel.
func (p *Panel) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = nil
	return nil
}

// State returns the drawn state, if any.
func (p *Panel) State() (schema.RenderState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return schema.RenderState{}, false
	}
	return p.state.Clone(), true
}

// Board is a set of named panels rendered to a terminal. Panels become
// visible to Lookup once mounted.
type Board struct {
	mu     sync.Mutex
	panels map[string]*Panel
	order  []string
	cfg    *contract.Config
}

// NewBoard creates an empty board.
func NewBoard(cfg *contract.Config) *Board {
	return &Board{panels: make(map[string]*Panel), cfg: cfg}
}

// Mount adds panels by name. Mounting an existing name is a no-op.
func (b *Board) Mount(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range names {
		if _, ok := b.panels[name]; ok {
			continue
		}
		b.panels[name] = &Panel{name: name}
		b.order = append(b.order, name)
	}
}

// Lookup finds a mounted panel.
func (b *Board) Lookup(name string) (contract.RenderTarget, bool) {
	p := b.Panel(name)
	if p == nil {
		return nil, false
	}
	return p, true
}

// Panel returns a mounted panel or nil.
func (b *Board) Panel(name string) *Panel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.panels[name]
}

// Render writes every drawn panel in mount order.
func (b *Board) Render(w io.Writer) error {
	b.mu.Lock()
	panels := make([]*Panel, 0, len(b.order))
	for _, name := range b.order {
		panels = append(panels, b.panels[name])
	}
	b.mu.Unlock()

	drawn := 0
	for _, p := range panels {
		state, ok := p.State()
		if !ok {
			continue
		}
		if drawn > 0 {
			_, _ = fmt.Fprintln(w)
		}
		drawn++
		if err := writeStateTable(w, state, b.cfg); err != nil {
			return fmt.Errorf("render %s: %w", p.name, err)
		}
	}
	if drawn == 0 {
		_, _ = fmt.Fprintln(w, "No charts rendered.")
	}
	return nil
}

// panelTitles are the panel headings per chart kind.
var panelTitles = map[schema.ChartKind]string{
	schema.TemperatureChart: "🌡️  TEMPERATURE",
	schema.EconomicChart:    "💰 ECONOMIC IMPACT",
	schema.RiskChart:        "⚠️  RISK METRICS",
	schema.ScenarioChart:    "🧭 SCENARIOS",
	schema.SensitivityChart: "🎚️  SENSITIVITY",
}

// labelHeaders name the label column per chart kind.
var labelHeaders = map[schema.ChartKind]string{
	schema.RiskChart:        "Metric",
	schema.SensitivityChart: "Factor",
}

// precisions are the decimal places per chart kind.
var precisions = map[schema.ChartKind]int{
	schema.TemperatureChart: 2,
	schema.EconomicChart:    2,
	schema.RiskChart:        3,
	schema.ScenarioChart:    2,
	schema.SensitivityChart: 2,
}

// writeStateTable prints one chart as a table: labels as rows, series as columns.
func writeStateTable(w io.Writer, state schema.RenderState, cfg *contract.Config) error {
	title := panelTitles[state.Kind]
	if title == "" {
		title = strings.ToUpper(string(state.Kind))
	}
	useColors := cfg == nil || cfg.UseColors
	heading := fmt.Sprintf("%s (%s chart)", title, state.Type)
	if useColors {
		_, _ = contract.HeaderColor.Fprintln(w, heading)
	} else {
		_, _ = fmt.Fprintln(w, heading)
	}

	headers, rows := stateRows(state, GetMaxLabelWidth(cfg, len(state.Series)))

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// stateRows lays a render state out as table cells. Scaled series get a
// percent suffix.
func stateRows(state schema.RenderState, labelWidth int) ([]string, [][]string) {
	fmtFloat := createFormatters(precisions[state.Kind])

	labelHeader := labelHeaders[state.Kind]
	if labelHeader == "" {
		labelHeader = "Year"
	}
	headers := []string{labelHeader}
	for _, s := range state.Series {
		headers = append(headers, contract.TruncateLabel(s.Label, labelWidth))
	}

	rows := make([][]string, 0, len(state.Labels))
	for i, label := range state.Labels {
		row := []string{label}
		for _, s := range state.Series {
			v, ok := s.At(i)
			switch {
			case !ok:
				row = append(row, "")
			case s.Scale != 0:
				row = append(row, fmtFloat(v*s.Scale)+"%")
			default:
				row = append(row, fmtFloat(v))
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}
