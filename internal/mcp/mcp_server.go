// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/climdash/core"
	"github.com/huangsam/climdash/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed by the server.
const (
	GetChartTool          = "get_chart"
	ChangeScenarioTool    = "change_scenario"
	ChangeSensitivityTool = "change_sensitivity"
	ExportStateTool       = "export_state"
	QueryTool             = "llm_query"
)

// NewMCPServer initializes and configures the dashboard MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(ctrl *core.Controller) *server.MCPServer {
	s := server.NewMCPServer(
		"Climate Dashboard Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{ctrl: ctrl}

	kinds := make([]string, len(schema.AllChartKinds))
	for i, k := range schema.AllChartKinds {
		kinds[i] = string(k)
	}

	// --- 1. Tool: get_chart ---
	s.AddTool(mcp.NewTool(GetChartTool,
		mcp.WithDescription("Read back the data and render state of one dashboard chart, or of every chart when no kind is given."),
		mcp.WithString("kind", mcp.Description("Chart kind to read."), mcp.Enum(kinds...)),
	), h.handleGetChart)

	// --- 2. Tool: change_scenario ---
	s.AddTool(mcp.NewTool(ChangeScenarioTool,
		mcp.WithDescription("Recompute the scenario chart for a scenario selection from the displayed temperature path."),
		mcp.WithString("scenario", mcp.Description("Scenario to select."), mcp.Required(),
			mcp.Enum(schema.BaselineScenario, schema.OptimisticScenario, schema.PessimisticScenario)),
	), h.handleChangeScenario)

	// --- 3. Tool: change_sensitivity ---
	s.AddTool(mcp.NewTool(ChangeSensitivityTool,
		mcp.WithDescription("Recompute the sensitivity chart for a slider value from the displayed economic impact."),
		mcp.WithNumber("value", mcp.Description("Slider value, 100 is neutral."), mcp.Required()),
	), h.handleChangeSensitivity)

	// --- 4. Tool: export_state ---
	s.AddTool(mcp.NewTool(ExportStateTool,
		mcp.WithDescription("Serialize every displayed chart as one dataset bundle."),
		mcp.WithString("format", mcp.Description("Serialization format. Defaults to 'json'."),
			mcp.Enum(string(schema.JSONOut), string(schema.YAMLOut), string(schema.CSVOut))),
	), h.handleExportState)

	// --- 5. Tool: llm_query ---
	s.AddTool(mcp.NewTool(QueryTool,
		mcp.WithDescription("Ask the backend a free-text question about the dashboard. The exchange is added to the query log."),
		mcp.WithString("query", mcp.Description("The question to ask."), mcp.Required()),
	), h.handleQuery)

	return s
}

// StartMCPServer starts the dashboard MCP server on stdio.
func StartMCPServer(_ context.Context, ctrl *core.Controller) error {
	s := NewMCPServer(ctrl)
	return server.ServeStdio(s)
}
