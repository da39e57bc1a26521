package indexes

import (
	"context"
	"encoding/json"
	"fmt"

	"splunk-mcp/internal/splunk"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListIndexesArgs represents the input arguments for the
// splunk_list_indexes tool
type ListIndexesArgs struct {
	FilterPattern string `json:"filter_pattern,omitempty"`
}

// NewListIndexesHandler creates the handler for the splunk_list_indexes
// tool.
func NewListIndexesHandler(client *splunk.Client) func(context.Context, *mcp.CallToolRequest, ListIndexesArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args ListIndexesArgs) (*mcp.CallToolResult, any, error) {
		indexes, err := client.ListIndexes(ctx, args.FilterPattern)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list indexes: %w", err)
		}

		payload := map[string]any{
			"index_count": len(indexes),
			"indexes":     indexes,
		}
		if args.FilterPattern != "" {
			payload["filter_pattern"] = args.FilterPattern
		}

		data, err := json.MarshalIndent(payload, "", "  ")
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
