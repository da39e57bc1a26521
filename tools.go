package main

import (
	"splunk-mcp/internal/discovery"
	"splunk-mcp/internal/indexes"
	"splunk-mcp/internal/models"
	"splunk-mcp/internal/monitor"
	"splunk-mcp/internal/search"
	"splunk-mcp/internal/splunk"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerAllTools registers all tools with the MCP server
func registerAllTools(server *mcp.Server, cfg models.Config, client *splunk.Client, ctrl *monitor.Controller) {
	// Register one-shot search tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_search",
		Description: search.SearchDescription,
	}, search.NewSearchHandler(client, cfg))

	// Register continuous monitoring tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_monitor",
		Description: monitor.MonitorDescription,
	}, monitor.NewMonitorHandler(ctrl))

	// Register index discovery tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_list_indexes",
		Description: indexes.ListIndexesDescription,
	}, indexes.NewListIndexesHandler(client))

	// Register server info tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_server_info",
		Description: discovery.ServerInfoDescription,
	}, discovery.NewServerInfoHandler(client))
}
