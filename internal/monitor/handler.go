package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Monitor action names.
const (
	ActionStart      = "start"
	ActionStop       = "stop"
	ActionStatus     = "status"
	ActionGetResults = "get_results"
)

// Defaults for optional start arguments.
const (
	DefaultIntervalSeconds = 60
	DefaultMaxResults      = 1000
	DefaultTimeoutSeconds  = 60
)

// MonitorArgs represents the input arguments for the splunk_monitor tool
type MonitorArgs struct {
	Action      string `json:"action"`
	Query       string `json:"query,omitempty"`
	Interval    int    `json:"interval,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
	Timeout     int    `json:"timeout,omitempty"`
	ClearBuffer *bool  `json:"clear_buffer,omitempty"`
}

// NewMonitorHandler creates the handler for the splunk_monitor tool,
// dispatching the four control actions to the controller.
func NewMonitorHandler(ctrl *Controller) func(context.Context, *mcp.CallToolRequest, MonitorArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args MonitorArgs) (*mcp.CallToolResult, any, error) {
		switch args.Action {
		case ActionStart:
			return handleStart(ctrl, args)
		case ActionStop:
			return handleStop(ctrl)
		case ActionStatus:
			return textResult(ctrl.Status())
		case ActionGetResults:
			return handleGetResults(ctrl, args)
		case "":
			return nil, nil, fmt.Errorf("action parameter is required (one of start, stop, status, get_results)")
		default:
			return nil, nil, fmt.Errorf("unknown action %q (expected start, stop, status, or get_results)", args.Action)
		}
	}
}

func handleStart(ctrl *Controller, args MonitorArgs) (*mcp.CallToolResult, any, error) {
	if args.Query == "" {
		return nil, nil, fmt.Errorf("query parameter is required for the start action")
	}

	interval := args.Interval
	if interval == 0 {
		interval = DefaultIntervalSeconds
	}
	maxResults := args.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	timeout := args.Timeout
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}

	conf, err := ctrl.Start(Params{
		Query:      args.Query,
		Interval:   time.Duration(interval) * time.Second,
		MaxResults: maxResults,
		Timeout:    time.Duration(timeout) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	return textResult(map[string]any{
		"status":  "started",
		"session": conf,
	})
}

func handleStop(ctrl *Controller) (*mcp.CallToolResult, any, error) {
	stopped, err := ctrl.Stop()
	if err != nil {
		return nil, nil, err
	}
	if !stopped {
		return textResult(map[string]any{
			"status":  "idle",
			"message": "no active monitoring session",
		})
	}
	return textResult(map[string]any{
		"status":  "stopped",
		"message": "monitoring session stopped; buffered results remain available via get_results",
	})
}

func handleGetResults(ctrl *Controller, args MonitorArgs) (*mcp.CallToolResult, any, error) {
	clearBuffer := true
	if args.ClearBuffer != nil {
		clearBuffer = *args.ClearBuffer
	}

	batches := ctrl.GetResults(clearBuffer)
	eventCount := 0
	for _, b := range batches {
		eventCount += len(b.Events)
	}

	return textResult(map[string]any{
		"batch_count":    len(batches),
		"event_count":    eventCount,
		"buffer_cleared": clearBuffer,
		"batches":        batches,
	})
}

// textResult marshals a payload into a single indented-JSON text content
// block, the response shape shared by all tools.
func textResult(payload any) (*mcp.CallToolResult, any, error) {
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
