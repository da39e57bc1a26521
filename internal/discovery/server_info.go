// Package discovery exposes tools for inspecting the connected Splunk
// deployment.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"splunk-mcp/internal/splunk"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerInfoArgs represents the input arguments for the
// splunk_server_info tool. It takes none.
type ServerInfoArgs struct{}

// NewServerInfoHandler creates the handler for the splunk_server_info
// tool, doubling as a connectivity check.
func NewServerInfoHandler(client *splunk.Client) func(context.Context, *mcp.CallToolRequest, ServerInfoArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args ServerInfoArgs) (*mcp.CallToolResult, any, error) {
		info, err := client.GetServerInfo(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get server info: %w", err)
		}

		data, err := json.MarshalIndent(map[string]any{
			"connected": true,
			"server":    info,
		}, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode response: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(data)},
			},
		}, nil, nil
	}
}
