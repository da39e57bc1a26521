package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"splunk-mcp/internal/models"
	"splunk-mcp/internal/splunk"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Defaults for optional search arguments, used when the server config
// does not override them.
const (
	DefaultEarliestTime   = "-24h"
	DefaultLatestTime     = "now"
	DefaultMaxResults     = 100
	DefaultTimeoutSeconds = 300

	MaxResultsLimit   = 20000
	MaxTimeoutSeconds = 3600
)

// SearchArgs represents the input arguments for the splunk_search tool
type SearchArgs struct {
	Query        string `json:"query"`
	EarliestTime string `json:"earliest_time,omitempty"`
	LatestTime   string `json:"latest_time,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
	Timeout      int    `json:"timeout,omitempty"`
}

// NewSearchHandler creates the handler for the splunk_search tool,
// running one SPL query and returning its events as JSON. The config's
// MaxResultsDefault and SearchTimeout supply the defaults for omitted
// arguments.
func NewSearchHandler(client *splunk.Client, cfg models.Config) func(context.Context, *mcp.CallToolRequest, SearchArgs) (*mcp.CallToolResult, any, error) {
	defaultMaxResults := cfg.MaxResultsDefault
	if defaultMaxResults == 0 {
		defaultMaxResults = DefaultMaxResults
	}
	defaultTimeout := cfg.SearchTimeout
	if defaultTimeout == 0 {
		defaultTimeout = DefaultTimeoutSeconds
	}

	return func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
		if args.Query == "" {
			return nil, nil, fmt.Errorf("query parameter is required")
		}

		earliest := args.EarliestTime
		if earliest == "" {
			earliest = DefaultEarliestTime
		}
		latest := args.LatestTime
		if latest == "" {
			latest = DefaultLatestTime
		}
		maxResults := args.MaxResults
		if maxResults == 0 {
			maxResults = defaultMaxResults
		}
		if maxResults < 1 || maxResults > MaxResultsLimit {
			return nil, nil, fmt.Errorf("max_results must be between 1 and %d, got %d", MaxResultsLimit, maxResults)
		}
		timeout := args.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		if timeout < 1 || timeout > MaxTimeoutSeconds {
			return nil, nil, fmt.Errorf("timeout must be between 1 and %d seconds, got %d", MaxTimeoutSeconds, timeout)
		}

		searchCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()

		results, err := client.Search(searchCtx, args.Query, earliest, latest, maxResults)
		if err != nil {
			return nil, nil, fmt.Errorf("search execution failed: %w", err)
		}

		payload := map[string]any{
			"query":         args.Query,
			"earliest_time": earliest,
			"latest_time":   latest,
			"result_count":  len(results),
			"results":       results,
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
