package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/climdash/core"
	"github.com/huangsam/climdash/internal/outwriter"
	"github.com/huangsam/climdash/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	ctrl *core.Controller
}

// chartView is the get_chart result for one kind.
type chartView struct {
	Kind  schema.ChartKind   `json:"kind"`
	State schema.RenderState `json:"state"`
	Data  any                `json:"data"`
}

// dashboardView is the get_chart result for the whole dashboard.
type dashboardView struct {
	Charts []schema.ChartStatus  `json:"charts"`
	Data   *schema.DatasetBundle `json:"data"`
}

func (h *toolHandler) handleGetChart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := h.ctrl.Registry()
	k := request.GetString("kind", "")
	if k == "" {
		bundle, err := reg.ReadBackBundle()
		if bundle == nil {
			return mcp.NewToolResultError(fmt.Sprintf("read failed: %v", err)), nil
		}
		return jsonResult(dashboardView{Charts: reg.Status(), Data: bundle})
	}

	kind, ok := schema.ParseChartKind(k)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown chart kind %q", k)), nil
	}
	return h.chartResult(kind)
}

func (h *toolHandler) handleChangeScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("scenario")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.ctrl.ChangeScenario(ctx, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scenario update failed: %v", err)), nil
	}
	return h.chartResult(schema.ScenarioChart)
}

func (h *toolHandler) handleChangeSensitivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.ctrl.ChangeSensitivity(ctx, value); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sensitivity update failed: %v", err)), nil
	}
	return h.chartResult(schema.SensitivityChart)
}

func (h *toolHandler) handleExportState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := schema.OutputMode(request.GetString("format", string(schema.JSONOut)))
	bundle, err := h.ctrl.Snapshot()
	if bundle == nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	var buf bytes.Buffer
	if err := outwriter.WriteBundle(&buf, bundle, format); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := h.ctrl.Query(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (h *toolHandler) chartResult(kind schema.ChartKind) (*mcp.CallToolResult, error) {
	reg := h.ctrl.Registry()
	state, ok := reg.State(kind)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, schema.ErrNoChart)), nil
	}
	data, err := reg.ReadBack(kind)
	if err != nil && !errors.Is(err, schema.ErrNoChart) {
		return mcp.NewToolResultError(fmt.Sprintf("read failed: %v", err)), nil
	}
	return jsonResult(chartView{Kind: kind, State: state, Data: data})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
